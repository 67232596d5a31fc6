package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"docdash-backend/internal/shared/storage/object"
)

// API is the subset of the S3 client used by Store.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Options configures an S3-backed store.
type Options struct {
	Region        string
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

// Store implements ObjectStore using Amazon S3.
type Store struct {
	client        API
	bucket        string
	region        string
	prefix        string
	publicBaseURL string
}

// New creates a new S3-backed object store using the default credential chain.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if opts.Region == "" {
		opts.Region = cfg.Region
	}
	return NewWithClient(s3.NewFromConfig(cfg), opts), nil
}

// NewWithClient builds a Store over an existing client.
func NewWithClient(client API, opts Options) *Store {
	return &Store{
		client:        client,
		bucket:        opts.Bucket,
		region:        opts.Region,
		prefix:        normalizePrefix(opts.Prefix),
		publicBaseURL: strings.TrimSpace(opts.PublicBaseURL),
	}
}

// Put uploads data at key with a conditional write so existing objects are never replaced.
func (s *Store) Put(ctx context.Context, key string, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return err
	}

	objectKey := applyPrefix(s.prefix, clean)
	input := &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(objectKey),
		Body:                 bytes.NewReader(data),
		ContentLength:        aws.Int64(int64(len(data))),
		IfNoneMatch:          aws.String("*"),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		if isConflict(err) {
			return fmt.Errorf("s3 put object key=%s: %w", objectKey, object.ErrAlreadyExists)
		}
		return fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

// Open downloads a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (*object.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return nil, err
	}

	objectKey := applyPrefix(s.prefix, clean)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, object.ErrNotFound
		}
		return nil, fmt.Errorf("s3 get object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return &object.Object{ReadCloser: out.Body, ContentType: aws.ToString(out.ContentType)}, nil
}

// PublicURL returns the public address of key: under S3_PUBLIC_BASE_URL when
// set, otherwise the virtual-hosted bucket URL.
func (s *Store) PublicURL(key string) string {
	objectKey := applyPrefix(s.prefix, key)
	if s.publicBaseURL != "" {
		return object.JoinURL(s.publicBaseURL, objectKey)
	}
	region := s.region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, region, objectKey)
}

func isConflict(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

var _ object.ObjectStore = (*Store)(nil)
