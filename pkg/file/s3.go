package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

// S3Client defines the interface for S3 operations used by S3Store.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps the backlog snapshot in one object of an S3 bucket or an
// S3-compatible service. It is safe for concurrent use.
type S3Store struct {
	client  S3Client
	bucket  string
	key     string
	timeout time.Duration
}

var _ tracking.Store = (*S3Store)(nil)

// S3Config contains configuration for the S3 snapshot store.
type S3Config struct {
	Bucket         string `env:"S3_BUCKET" yaml:"bucket"`
	Region         string `env:"S3_REGION" envDefault:"us-east-1" yaml:"region"`
	AccessKeyID    string `env:"S3_ACCESS_KEY_ID" yaml:"access_key_id"`
	SecretKey      string `env:"S3_SECRET_KEY" yaml:"secret_key"`
	Endpoint       string `env:"S3_ENDPOINT" yaml:"endpoint"`                 // Optional: for S3-compatible services
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" yaml:"force_path_style"` // For S3-compatible services like MinIO
	Key            string `env:"S3_KEY" envDefault:"tracking/htevents.json" yaml:"key"`
}

// S3Option defines a function that configures S3Store.
type S3Option func(*s3Options)

type s3Options struct {
	httpClient      *http.Client
	s3Client        S3Client
	s3ConfigOptions []func(*config.LoadOptions) error
	s3ClientOptions []func(*s3.Options)
	timeout         time.Duration
}

// WithS3Client sets a custom pre-configured S3 client.
// Useful for testing with mocks.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.s3Client = client
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) S3Option {
	return func(o *s3Options) {
		o.httpClient = client
	}
}

// WithS3ConfigOption adds a custom AWS config option.
func WithS3ConfigOption(option func(*config.LoadOptions) error) S3Option {
	return func(o *s3Options) {
		o.s3ConfigOptions = append(o.s3ConfigOptions, option)
	}
}

// WithS3ClientOption adds a custom S3 client option.
func WithS3ClientOption(option func(*s3.Options)) S3Option {
	return func(o *s3Options) {
		o.s3ClientOptions = append(o.s3ClientOptions, option)
	}
}

// WithS3Timeout bounds every Load and Save call.
// If not set, the context deadline from the caller is used.
func WithS3Timeout(timeout time.Duration) S3Option {
	return func(o *s3Options) {
		o.timeout = timeout
	}
}

// NewS3Store creates a snapshot store backed by cfg.Bucket/cfg.Key.
func NewS3Store(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Store, error) {
	if cfg.Bucket == "" || cfg.Region == "" || cfg.Key == "" {
		return nil, ErrInvalidConfig
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	client := options.s3Client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}
		if options.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(options.httpClient))
		}
		awsOptions = append(awsOptions, options.s3ConfigOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}

		client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
			for _, opt := range options.s3ClientOptions {
				opt(o)
			}
		})
	}

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		key:     strings.TrimPrefix(cfg.Key, "/"),
		timeout: options.timeout,
	}, nil
}

// Load returns "" when the object does not exist.
func (s *S3Store) Load(ctx context.Context) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", classifyS3Error(err, "load")
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToReadFile, err)
	}
	return string(data), nil
}

// Save overwrites the object.
func (s *S3Store) Save(ctx context.Context, snapshot string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          strings.NewReader(snapshot),
		ContentLength: aws.Int64(int64(len(snapshot))),
		ContentType:   aws.String("application/json"),
	})
	return classifyS3Error(err, "save")
}

func (s *S3Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound")
}

// classifyS3Error converts S3 errors to domain-specific errors.
func classifyS3Error(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Check for context errors first
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation", ErrOperationTimeout, operation)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s operation", ErrOperationCanceled, operation)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch code {
		case "AccessDenied":
			return fmt.Errorf("%w: %s operation", ErrAccessDenied, operation)
		case "RequestTimeout":
			return fmt.Errorf("%w: %s operation", ErrRequestTimeout, operation)
		case "SlowDown", "ServiceUnavailable":
			return fmt.Errorf("%w: %s operation", ErrServiceUnavailable, operation)
		case "InvalidObjectState":
			return fmt.Errorf("%w: %s operation", ErrInvalidObjectState, operation)
		case "NoSuchBucket":
			return ErrBucketNotFound
		default:
			// Include error code in message for debugging
			return fmt.Errorf("%s operation failed (code: %s): %w", operation, code, err)
		}
	}

	return fmt.Errorf("%s operation failed: %w", operation, err)
}
