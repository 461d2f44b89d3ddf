package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Defaults for the knobs the orchestrator does not normally override.
const (
	DefaultWorkers   = 4
	DefaultDeadline  = 24 * time.Hour
	DefaultOpTimeout = 15 * time.Minute
)

// ReleaseRequest identifies the dataset version to release. Built once at
// startup from the orchestrator-supplied environment and never mutated.
type ReleaseRequest struct {
	KeyPrefix     string `mapstructure:"s3_key_prefix" validate:"required"`
	EmbargoBucket string `mapstructure:"embargo_bucket" validate:"required"`
	PublishBucket string `mapstructure:"publish_bucket" validate:"required"`
}

type AWSConfig struct {
	Region string `mapstructure:"aws_region"`
}

type Config struct {
	Environment string `mapstructure:"environment" validate:"required"`
	ServiceName string `mapstructure:"service_name" validate:"required"`

	Release ReleaseRequest `mapstructure:",squash"`
	AWS     AWSConfig      `mapstructure:",squash"`

	// Workers bounds the migration fan-out; small enough to stay under
	// provider throttling, large enough to finish within the deadline.
	Workers int `mapstructure:"release_workers" validate:"min=1,max=64"`

	// Deadline bounds the whole run; the task stops submitting new work when
	// it expires and exits before the scheduler's hard kill.
	Deadline time.Duration `mapstructure:"release_deadline" validate:"min=1m"`

	// OpTimeout bounds a single provider call so draining work cannot hang
	// past the deadline indefinitely.
	OpTimeout time.Duration `mapstructure:"release_op_timeout" validate:"min=1s"`

	RequesterPays bool `mapstructure:"requester_pays"`
}

// Local reports whether the task runs against the localstack container
// instead of the real provider.
func (c *Config) Local() bool {
	return c.Environment == "local"
}

// Every configuration key, bound to the environment variable of the same
// name uppercased (s3_key_prefix -> S3_KEY_PREFIX).
var configKeys = []string{
	"environment",
	"service_name",
	"s3_key_prefix",
	"embargo_bucket",
	"publish_bucket",
	"aws_region",
	"release_workers",
	"release_deadline",
	"release_op_timeout",
	"requester_pays",
}

// Load reads the orchestrator-supplied environment once and returns the
// immutable process configuration.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("environment", "")
	v.SetDefault("service_name", "")
	v.SetDefault("s3_key_prefix", "")
	v.SetDefault("embargo_bucket", "")
	v.SetDefault("publish_bucket", "")
	v.SetDefault("aws_region", "")
	v.SetDefault("release_workers", DefaultWorkers)
	v.SetDefault("release_deadline", DefaultDeadline)
	v.SetDefault("release_op_timeout", DefaultOpTimeout)
	// The embargo bucket is requester-pays in every deployment to date
	v.SetDefault("requester_pays", true)

	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}

	cfg.Release.KeyPrefix = NormalizePrefix(cfg.Release.KeyPrefix)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// A bare "/" would release the whole bucket instead of one dataset version
	if cfg.Release.KeyPrefix == "/" {
		return nil, fmt.Errorf("invalid configuration: S3_KEY_PREFIX must name a dataset version prefix")
	}

	return &cfg, nil
}

// NormalizePrefix guarantees the prefix addresses a whole key hierarchy:
// exactly one trailing slash.
func NormalizePrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return strings.TrimRight(prefix, "/") + "/"
}
