package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/fleetboot/internal/store"
)

// Client is a store.VersionedStore on one bucket.
type Client struct {
	s3     *s3.Client
	bucket string
	region string
}

var _ store.VersionedStore = (*Client)(nil)

// Options configure the S3 client.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PathStyle forces path-style addressing (MinIO); Hetzner and AWS use
	// virtual-hosted style.
	PathStyle bool
}

// NewClient creates a client for the configured bucket. Static credentials
// are used when given, otherwise the default AWS credential chain (instance
// profile, environment) applies.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return &Client{s3: client, bucket: opts.Bucket, region: opts.Region}, nil
}

// Bucket returns the bucket the client writes to.
func (c *Client) Bucket() string {
	return c.bucket
}

// Put uploads value and returns the assigned VersionId. Unversioned buckets
// return no VersionId; the literal "null" is used then, which S3 itself uses
// for unversioned objects.
func (c *Client) Put(ctx context.Context, key string, value []byte) (store.Version, error) {
	out, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(value),
		ContentLength: aws.Int64(int64(len(value))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s in bucket %s: %w", key, c.bucket, err)
	}
	v := aws.ToString(out.VersionId)
	if v == "" {
		v = "null"
	}
	return store.Version(v), nil
}

// Get downloads the latest version of key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("object %s in bucket %s: %w", key, c.bucket, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, c.bucket, err)
	}
	defer result.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

// ListVersions returns the versions of exactly key, oldest first. S3 lists
// versions newest first and pages through them; delete markers are skipped.
func (c *Client) ListVersions(ctx context.Context, key string) ([]store.Version, error) {
	input := &s3.ListObjectVersionsInput{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(key),
	}

	var newestFirst []store.Version
	for {
		out, err := c.s3.ListObjectVersions(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list versions of %s in bucket %s: %w", key, c.bucket, err)
		}
		for _, v := range out.Versions {
			if aws.ToString(v.Key) != key {
				continue
			}
			newestFirst = append(newestFirst, store.Version(aws.ToString(v.VersionId)))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.KeyMarker = out.NextKeyMarker
		input.VersionIdMarker = out.NextVersionIdMarker
	}

	versions := make([]store.Version, len(newestFirst))
	for i, v := range newestFirst {
		versions[len(versions)-1-i] = v
	}
	return versions, nil
}

// VersioningEnabled reports whether bucket versioning is switched on.
func (c *Client) VersioningEnabled(ctx context.Context) (bool, error) {
	out, err := c.s3.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get versioning of bucket %s: %w", c.bucket, err)
	}
	return out.Status == types.BucketVersioningStatusEnabled, nil
}

// BucketExists checks if the bucket exists and is accessible.
func (c *Client) BucketExists(ctx context.Context) (bool, error) {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check bucket %s: %w", c.bucket, err)
	}
	return true, nil
}

// isNotFoundError checks if the error is a missing key or bucket.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// S3-compatible services do not always map to the SDK error types.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket", "404":
			return true
		}
	}

	return false
}
