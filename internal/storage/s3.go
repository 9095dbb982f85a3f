package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/url"
	"strings"

	"garage/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// ErrMissingBucket is returned when the s3 backend is selected without a bucket.
var ErrMissingBucket = errors.New("S3_BUCKET_NAME is required when STORAGE_BACKEND=s3")

// objectAPI is the subset of *s3.Client the backend uses.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Backend stores files as objects under a key prefix in one bucket and
// returns public object URLs as locations.
type S3Backend struct {
	api      objectAPI
	bucket   string
	region   string
	prefix   string
	endpoint string // custom endpoint (LocalStack, MinIO); empty for AWS
	log      *zap.SugaredLogger
}

// NewS3Backend builds an S3 client from cfg. Explicit credentials are used
// when both keys are set; otherwise the default AWS credential chain applies.
func NewS3Backend(ctx context.Context, cfg config.S3Config, log *zap.SugaredLogger) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, ErrMissingBucket
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(3),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})
	return newS3Backend(client, cfg, log)
}

func newS3Backend(api objectAPI, cfg config.S3Config, log *zap.SugaredLogger) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, ErrMissingBucket
	}
	b := &S3Backend{
		api:      api,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		endpoint: strings.TrimRight(cfg.EndpointURL, "/"),
		log:      log,
	}
	log.Infow("initialized S3 storage backend",
		"bucket", b.bucket, "region", b.region, "prefix", b.prefix, "custom_endpoint", b.endpoint != "")
	return b, nil
}

// Kind implements Backend.
func (b *S3Backend) Kind() config.StorageKind { return config.StorageS3 }

// SaveImage implements Backend.
func (b *S3Backend) SaveImage(ctx context.Context, content io.Reader, filename string, ownerID uint, kind ImageKind) (string, error) {
	ext := Extension(filename)
	key := b.key(fmt.Sprintf("images/%s_%d_%s.%s", kind, ownerID, uniqueSuffix(), ext))

	data, err := io.ReadAll(content)
	if err != nil {
		b.log.Errorw("failed to read upload", "box_id", ownerID, "error", err)
		return "", err
	}
	if err := b.put(ctx, key, data, ContentType(ext)); err != nil {
		b.log.Errorw("failed to save image to S3", "box_id", ownerID, "bucket", b.bucket, "key", key, "error_code", errorCode(err), "error", err)
		return "", err
	}

	location := b.url(key)
	b.log.Infow("image saved to S3", "box_id", ownerID, "key", key, "url", location)
	return location, nil
}

// SaveGeneratedImage implements Backend.
func (b *S3Backend) SaveGeneratedImage(ctx context.Context, img image.Image, ownerID uint) (string, error) {
	key := b.key(fmt.Sprintf("qrcodes/box_%d.png", ownerID))

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		b.log.Errorw("failed to encode QR code", "box_id", ownerID, "error", err)
		return "", err
	}
	if err := b.put(ctx, key, buf.Bytes(), "image/png"); err != nil {
		b.log.Errorw("failed to save QR code to S3", "box_id", ownerID, "bucket", b.bucket, "key", key, "error_code", errorCode(err), "error", err)
		return "", err
	}

	location := b.url(key)
	b.log.Infow("QR code saved to S3", "box_id", ownerID, "key", key, "url", location)
	return location, nil
}

func (b *S3Backend) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	return err
}

// Delete implements Backend. Locations that are not URLs of this bucket are ignored.
func (b *S3Backend) Delete(ctx context.Context, location string) bool {
	if location == "" {
		return false
	}
	key, ok := b.extractKey(location)
	if !ok {
		b.log.Warnw("cannot extract S3 key from location", "path", location)
		return false
	}
	// DeleteObject succeeds for absent keys.
	_, err := b.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		b.log.Errorw("failed to delete file from S3", "bucket", b.bucket, "key", key, "error_code", errorCode(err), "error", err)
		return false
	}
	b.log.Infow("file deleted from S3", "key", key)
	return true
}

// Exists implements Backend. A location that is not a URL is treated as a bare key.
func (b *S3Backend) Exists(ctx context.Context, location string) bool {
	if location == "" {
		return false
	}
	key, ok := b.extractKey(location)
	if !ok {
		key = location
	}
	_, err := b.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if !isNotFound(err) {
			b.log.Errorw("failed to check S3 object", "bucket", b.bucket, "key", key, "error_code", errorCode(err), "error", err)
		}
		return false
	}
	return true
}

// DisplayURL implements Backend. Bare keys are expanded to object URLs.
func (b *S3Backend) DisplayURL(location string) string {
	if location == "" {
		return ""
	}
	if isAbsoluteURL(location) {
		return location
	}
	return b.url(location)
}

func (b *S3Backend) key(name string) string {
	if b.prefix == "" {
		return name
	}
	return b.prefix + "/" + name
}

// url is the inverse of extractKey.
//
//	standard: https://{bucket}.s3.{region}.amazonaws.com/{key}
//	custom:   {endpoint}/{bucket}/{key}
func (b *S3Backend) url(key string) string {
	if b.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", b.endpoint, b.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, key)
}

// extractKey returns false for anything that is not an object URL of this bucket
// in the shape this backend produces.
func (b *S3Backend) extractKey(location string) (string, bool) {
	if !isAbsoluteURL(location) {
		return "", false
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", false
	}

	if b.endpoint != "" {
		endpoint, err := url.Parse(b.endpoint)
		if err != nil || endpoint.Host != u.Host {
			return "", false
		}
		rest := strings.TrimPrefix(u.Path, strings.TrimRight(endpoint.Path, "/"))
		bucket, key, found := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
		if !found || bucket != b.bucket || key == "" {
			return "", false
		}
		return key, true
	}

	host := u.Hostname()
	if host != b.bucket+".s3."+b.region+".amazonaws.com" && host != b.bucket+".s3.amazonaws.com" {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", false
	}
	return key, true
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	code := errorCode(err)
	return code == "NotFound" || code == "404" || code == "NoSuchKey"
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
