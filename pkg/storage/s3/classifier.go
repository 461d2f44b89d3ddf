package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// IsVersioned probes the bucket's versioning state once and caches the answer
// for the rest of the run. Versioning state does not change mid-release, and
// caching keeps the probe count independent of the number of objects.
func (s *Store) IsVersioned(ctx context.Context, bucket string) (bool, error) {
	s.mu.Lock()
	if versioned, ok := s.versioning[bucket]; ok {
		s.mu.Unlock()
		return versioned, nil
	}
	s.mu.Unlock()

	out, err := s.client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return false, classify("get bucket versioning", err)
	}

	// A suspended bucket still retains the historical versions created while
	// versioning was enabled, so it needs the versioned strategy too.
	versioned := out.Status == types.BucketVersioningStatusEnabled ||
		out.Status == types.BucketVersioningStatusSuspended

	s.mu.Lock()
	s.versioning[bucket] = versioned
	s.mu.Unlock()

	s.logger.Debug("Classified bucket versioning", "bucket", bucket, "versioned", versioned)
	return versioned, nil
}
