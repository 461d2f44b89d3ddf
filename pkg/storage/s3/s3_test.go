package s3

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI substitutes the S3 client; unset methods fail the call.
type fakeAPI struct {
	listObjectsV2       func(in *awss3.ListObjectsV2Input) (*awss3.ListObjectsV2Output, error)
	listObjectVersions  func(in *awss3.ListObjectVersionsInput) (*awss3.ListObjectVersionsOutput, error)
	getBucketVersioning func(in *awss3.GetBucketVersioningInput) (*awss3.GetBucketVersioningOutput, error)
	copyObject          func(in *awss3.CopyObjectInput) (*awss3.CopyObjectOutput, error)
	headObject          func(in *awss3.HeadObjectInput) (*awss3.HeadObjectOutput, error)
	deleteObject        func(in *awss3.DeleteObjectInput) (*awss3.DeleteObjectOutput, error)
	putObject           func(in *awss3.PutObjectInput) (*awss3.PutObjectOutput, error)
}

var _ api = (*fakeAPI)(nil)

func (f *fakeAPI) ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	if f.listObjectsV2 == nil {
		return nil, errors.New("unexpected ListObjectsV2 call")
	}
	return f.listObjectsV2(in)
}

func (f *fakeAPI) ListObjectVersions(ctx context.Context, in *awss3.ListObjectVersionsInput, optFns ...func(*awss3.Options)) (*awss3.ListObjectVersionsOutput, error) {
	if f.listObjectVersions == nil {
		return nil, errors.New("unexpected ListObjectVersions call")
	}
	return f.listObjectVersions(in)
}

func (f *fakeAPI) GetBucketVersioning(ctx context.Context, in *awss3.GetBucketVersioningInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketVersioningOutput, error) {
	if f.getBucketVersioning == nil {
		return nil, errors.New("unexpected GetBucketVersioning call")
	}
	return f.getBucketVersioning(in)
}

func (f *fakeAPI) CopyObject(ctx context.Context, in *awss3.CopyObjectInput, optFns ...func(*awss3.Options)) (*awss3.CopyObjectOutput, error) {
	if f.copyObject == nil {
		return nil, errors.New("unexpected CopyObject call")
	}
	return f.copyObject(in)
}

func (f *fakeAPI) HeadObject(ctx context.Context, in *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	if f.headObject == nil {
		return nil, errors.New("unexpected HeadObject call")
	}
	return f.headObject(in)
}

func (f *fakeAPI) DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	if f.deleteObject == nil {
		return nil, errors.New("unexpected DeleteObject call")
	}
	return f.deleteObject(in)
}

func (f *fakeAPI) PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if f.putObject == nil {
		return nil, errors.New("unexpected PutObject call")
	}
	return f.putObject(in)
}

func newTestStore(client api) *Store {
	return &Store{
		client:        client,
		requesterPays: true,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		versioning:    make(map[string]bool),
	}
}

func TestIsVersioned(t *testing.T) {
	tests := []struct {
		name   string
		status types.BucketVersioningStatus
		want   bool
	}{
		{name: "enabled", status: types.BucketVersioningStatusEnabled, want: true},
		{name: "suspended buckets keep old versions", status: types.BucketVersioningStatusSuspended, want: true},
		{name: "never enabled", status: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeAPI{
				getBucketVersioning: func(in *awss3.GetBucketVersioningInput) (*awss3.GetBucketVersioningOutput, error) {
					return &awss3.GetBucketVersioningOutput{Status: tt.status}, nil
				},
			}
			store := newTestStore(client)

			versioned, err := store.IsVersioned(context.Background(), "embargo")
			require.NoError(t, err)
			assert.Equal(t, tt.want, versioned)
		})
	}
}

func TestIsVersionedCachesPerBucket(t *testing.T) {
	calls := 0
	client := &fakeAPI{
		getBucketVersioning: func(in *awss3.GetBucketVersioningInput) (*awss3.GetBucketVersioningOutput, error) {
			calls++
			return &awss3.GetBucketVersioningOutput{Status: types.BucketVersioningStatusEnabled}, nil
		},
	}
	store := newTestStore(client)

	for i := 0; i < 3; i++ {
		versioned, err := store.IsVersioned(context.Background(), "embargo")
		require.NoError(t, err)
		assert.True(t, versioned)
	}
	assert.Equal(t, 1, calls, "versioning must be probed once per bucket")

	_, err := store.IsVersioned(context.Background(), "publish")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPutManifest(t *testing.T) {
	var captured *awss3.PutObjectInput
	client := &fakeAPI{
		putObject: func(in *awss3.PutObjectInput) (*awss3.PutObjectOutput, error) {
			captured = in
			return &awss3.PutObjectOutput{}, nil
		},
	}
	store := newTestStore(client)

	body := []byte(`[{"source_key":"datasets/v1/a"}]`)
	err := store.PutManifest(context.Background(), "publish", "datasets/v1/discover-release-results.json", body)
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "publish", aws.ToString(captured.Bucket))
	assert.Equal(t, "datasets/v1/discover-release-results.json", aws.ToString(captured.Key))
	assert.Equal(t, "application/json", aws.ToString(captured.ContentType))
	assert.Equal(t, types.RequestPayerRequester, captured.RequestPayer)

	got, err := io.ReadAll(captured.Body)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}
