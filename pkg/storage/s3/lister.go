package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"discover-release/pkg/storage"
)

// Page size matches the provider maximum; fewer round trips for large datasets.
const listPageSize = 1000

// List returns the lazy entry sequence for everything under prefix. On a
// version-enabled bucket the sequence covers every historical version and
// delete marker, so a release leaves nothing orphaned in the embargo bucket.
func (s *Store) List(ctx context.Context, bucket, prefix string, versioned bool) storage.EntrySeq {
	if versioned {
		return s.listVersions(ctx, bucket, prefix)
	}
	return s.listObjects(ctx, bucket, prefix)
}

func (s *Store) listObjects(ctx context.Context, bucket, prefix string) storage.EntrySeq {
	return func(yield func(storage.ObjectEntry, error) bool) {
		in := &s3.ListObjectsV2Input{
			Bucket:  aws.String(bucket),
			Prefix:  aws.String(prefix),
			MaxKeys: aws.Int32(listPageSize),
		}
		if s.requesterPays {
			in.RequestPayer = types.RequestPayerRequester
		}

		paginator := s3.NewListObjectsV2Paginator(s.client, in)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(storage.ObjectEntry{}, classify("list objects", err))
				return
			}

			for _, obj := range page.Contents {
				entry := storage.ObjectEntry{
					Key:  aws.ToString(obj.Key),
					Size: aws.ToInt64(obj.Size),
					ETag: storage.NormalizeETag(aws.ToString(obj.ETag)),
				}
				if !yield(entry, nil) {
					return
				}
			}
		}
	}
}

func (s *Store) listVersions(ctx context.Context, bucket, prefix string) storage.EntrySeq {
	return func(yield func(storage.ObjectEntry, error) bool) {
		in := &s3.ListObjectVersionsInput{
			Bucket:  aws.String(bucket),
			Prefix:  aws.String(prefix),
			MaxKeys: aws.Int32(listPageSize),
		}
		if s.requesterPays {
			in.RequestPayer = types.RequestPayerRequester
		}

		paginator := s3.NewListObjectVersionsPaginator(s.client, in)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(storage.ObjectEntry{}, classify("list object versions", err))
				return
			}

			for _, version := range page.Versions {
				entry := storage.ObjectEntry{
					Key:       aws.ToString(version.Key),
					VersionID: aws.ToString(version.VersionId),
					Size:      aws.ToInt64(version.Size),
					ETag:      storage.NormalizeETag(aws.ToString(version.ETag)),
				}
				if !yield(entry, nil) {
					return
				}
			}

			// Delete markers carry no content, but they still occupy the
			// prefix and must be removed from the source.
			for _, marker := range page.DeleteMarkers {
				entry := storage.ObjectEntry{
					Key:            aws.ToString(marker.Key),
					VersionID:      aws.ToString(marker.VersionId),
					IsDeleteMarker: true,
				}
				if !yield(entry, nil) {
					return
				}
			}
		}
	}
}
