package s3

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"discover-release/pkg/storage"
)

// Copy performs the server-side copy for one entry and verifies the result
// before it is reported durable. Bulk data never flows through the task
// itself. Copying an entry that already exists identically at the destination
// is a no-op, which keeps re-runs after a partial failure cheap.
func (s *Store) Copy(ctx context.Context, srcBucket string, entry storage.ObjectEntry, destBucket string) (storage.CopyResult, error) {
	present, result, err := s.alreadyPresent(ctx, destBucket, entry)
	if err != nil {
		return storage.CopyResult{}, err
	}
	if present {
		return result, nil
	}

	in := &s3.CopyObjectInput{
		Bucket:     aws.String(destBucket),
		Key:        aws.String(entry.Key),
		CopySource: aws.String(copySource(srcBucket, entry.Key, entry.VersionID)),
	}
	if s.requesterPays {
		in.RequestPayer = types.RequestPayerRequester
	}

	out, err := s.client.CopyObject(ctx, in)
	if err != nil {
		classified := classify("copy object", err)
		if storage.IsNotFound(classified) {
			// Moved by a previous partial run; nothing left to copy.
			return storage.CopyResult{Disposition: storage.SourceMissing}, nil
		}
		return storage.CopyResult{}, classified
	}

	result = storage.CopyResult{
		Disposition:   storage.Copied,
		DestVersionID: aws.ToString(out.VersionId),
	}
	if err := s.verify(ctx, destBucket, entry, &result); err != nil {
		return storage.CopyResult{}, err
	}
	return result, nil
}

// alreadyPresent reports whether the destination already holds an object
// matching the entry's recorded metadata.
func (s *Store) alreadyPresent(ctx context.Context, bucket string, entry storage.ObjectEntry) (bool, storage.CopyResult, error) {
	head, err := s.headObject(ctx, bucket, entry.Key, "")
	if err != nil {
		if storage.IsNotFound(err) {
			return false, storage.CopyResult{}, nil
		}
		return false, storage.CopyResult{}, err
	}

	etag := storage.NormalizeETag(aws.ToString(head.ETag))
	if !metadataMatches(entry, aws.ToInt64(head.ContentLength), etag) {
		return false, storage.CopyResult{}, nil
	}

	return true, storage.CopyResult{
		Disposition:   storage.AlreadyPresent,
		DestVersionID: aws.ToString(head.VersionId),
		DestETag:      etag,
	}, nil
}

// verify reads the destination object's metadata back and compares it against
// what the lister recorded for the source. The read is pinned to the version
// the copy just created, so concurrent writers to the destination cannot
// satisfy it. A mismatch means the entry must not be deleted from the source.
func (s *Store) verify(ctx context.Context, bucket string, entry storage.ObjectEntry, result *storage.CopyResult) error {
	head, err := s.headObject(ctx, bucket, entry.Key, result.DestVersionID)
	if err != nil {
		if storage.IsNotFound(err) {
			return &storage.VerificationError{Key: entry.Key, Field: "presence", Want: "object", Got: "missing"}
		}
		return fmt.Errorf("verify copy: %w", err)
	}

	size := aws.ToInt64(head.ContentLength)
	if size != entry.Size {
		return &storage.VerificationError{
			Key:   entry.Key,
			Field: "size",
			Want:  strconv.FormatInt(entry.Size, 10),
			Got:   strconv.FormatInt(size, 10),
		}
	}

	etag := storage.NormalizeETag(aws.ToString(head.ETag))
	// A multipart source ETag is re-computed by the server-side copy and can
	// only be verified by size.
	if !storage.IsMultipartETag(entry.ETag) && etag != entry.ETag {
		return &storage.VerificationError{Key: entry.Key, Field: "etag", Want: entry.ETag, Got: etag}
	}

	result.DestETag = etag
	return nil
}

func (s *Store) headObject(ctx context.Context, bucket, key, versionID string) (*s3.HeadObjectOutput, error) {
	in := &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if versionID != "" {
		in.VersionId = aws.String(versionID)
	}
	if s.requesterPays {
		in.RequestPayer = types.RequestPayerRequester
	}

	out, err := s.client.HeadObject(ctx, in)
	if err != nil {
		return nil, classify("head object", err)
	}
	return out, nil
}

func metadataMatches(entry storage.ObjectEntry, size int64, etag string) bool {
	if size != entry.Size {
		return false
	}
	if storage.IsMultipartETag(entry.ETag) {
		return true
	}
	return etag == entry.ETag
}

// copySource renders the x-amz-copy-source value. Key segments are escaped
// individually so slashes in the key survive.
func copySource(bucket, key, versionID string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	source := bucket + "/" + strings.Join(segments, "/")
	if versionID != "" {
		source += "?versionId=" + versionID
	}
	return source
}
