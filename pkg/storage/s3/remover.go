package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"discover-release/pkg/storage"
)

// Remove deletes exactly the entry's (key, version) from the bucket. A
// bare-key delete on a versioned bucket would only insert a delete marker and
// leave the historical version behind, so versioned entries always target
// their version ID. Only called once the copy for the entry is confirmed.
func (s *Store) Remove(ctx context.Context, bucket string, entry storage.ObjectEntry) (storage.RemoveResult, error) {
	in := &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(entry.Key),
	}
	if entry.VersionID != "" {
		in.VersionId = aws.String(entry.VersionID)
	}
	if s.requesterPays {
		in.RequestPayer = types.RequestPayerRequester
	}

	if _, err := s.client.DeleteObject(ctx, in); err != nil {
		classified := classify("delete object", err)
		if storage.IsNotFound(classified) {
			return storage.RemoveResult{Removed: false}, nil
		}
		return storage.RemoveResult{}, classified
	}

	return storage.RemoveResult{Removed: true}, nil
}
