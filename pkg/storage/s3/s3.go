package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"discover-release/internal/config"
	"discover-release/internal/provider/registry"
	"discover-release/pkg/common"
	"discover-release/pkg/storage"
)

// Address of the localstack container used when ENVIRONMENT=local.
const localstackURL = "http://localstack:4566"

// Transient provider errors (throttling, timeouts) are retried inside the SDK
// with bounded adaptive backoff before they ever surface to the engine.
const maxRetryAttempts = 5

func init() {
	registry.RegisterProvider("s3", registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
	})
}

// Checks that the release request names both buckets
func isConfigured(cfg *config.Config) bool {
	return cfg.Release.EmbargoBucket != "" && cfg.Release.PublishBucket != ""
}

// Initializes the S3 release store from the configuration
func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ReleaseStore, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("S3 configuration missing or incomplete")
	}
	return NewStore(ctx, cfg, logger)
}

// api is the slice of the S3 client the store depends on. Tests substitute a
// hand-written fake.
type api interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	ListObjectVersions(ctx context.Context, in *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
	GetBucketVersioning(ctx context.Context, in *s3.GetBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Store struct {
	client        api
	requesterPays bool
	logger        *slog.Logger

	mu         sync.Mutex
	versioning map[string]bool
}

var _ storage.ReleaseStore = (*Store)(nil)

// NewStore builds the S3-backed release store. Local runs are routed to the
// localstack endpoint with path-style addressing and static credentials.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMode(aws.RetryModeAdaptive),
		awsconfig.WithRetryMaxAttempts(maxRetryAttempts),
	}
	if cfg.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
	}
	if cfg.Local() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Local() {
			o.BaseEndpoint = aws.String(localstackURL)
			o.UsePathStyle = true
		}
	})

	return &Store{
		client:        client,
		requesterPays: cfg.RequesterPays,
		logger:        logger,
		versioning:    make(map[string]bool),
	}, nil
}

func (s *Store) ProviderName() common.Provider {
	return common.S3
}

// PutManifest uploads the release results document.
func (s *Store) PutManifest(ctx context.Context, bucket, key string, body []byte) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	}
	if s.requesterPays {
		in.RequestPayer = types.RequestPayerRequester
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return classify("put release results", err)
	}
	return nil
}

func (s *Store) Close() error {
	// The SDK client holds no resources that need explicit release
	return nil
}
