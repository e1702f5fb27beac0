package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ignite/list-cleaner/internal/config"
)

// s3API is the subset of *s3.Client used here.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store keeps artifacts as objects under bucket/prefix.
type S3Store struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Store loads AWS credentials the same way for every environment:
// static keys when configured, else the named profile, else the default chain.
func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("s3_bucket is required for s3 storage")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	switch {
	case cfg.AccessKey != "" && cfg.SecretKey != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	case cfg.GetAWSProfile() != "":
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.GetAWSProfile()))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	log.Printf("[Storage] using s3://%s/%s (region %s)", cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion)
	return newS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
}

func newS3Store(client s3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Store) key(name string) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return cleaned, nil
	}
	return s.prefix + "/" + cleaned, nil
}

func (s *S3Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("S3 GetObject %s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

func (s *S3Store) Put(ctx context.Context, name string, r io.Reader, contentType string) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3Store) Exists(ctx context.Context, name string) (bool, error) {
	key, err := s.key(name)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("S3 HeadObject %s/%s: %w", s.bucket, key, err)
	}
	return true, nil
}

// isNotFound recognizes the typed S3 errors, falling back to the message for
// wrapped or generic API errors.
func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return true
	}
	msg := err.Error()
	for _, keyword := range []string{"NoSuchKey", "NotFound", "StatusCode: 404"} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}
