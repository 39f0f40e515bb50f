package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/supox/genomics-upload-service/internal/constants"
	httpretry "github.com/supox/genomics-upload-service/internal/http"
)

// defaultRegion is the S3 service's default region; bucket creation must
// omit the location constraint when the configured region matches it.
const defaultRegion = "us-east-1"

// S3Client is the production Client implementation backed by the AWS SDK.
type S3Client struct {
	sdk      *s3.Client
	retryCfg httpretry.Config
}

var _ Client = (*S3Client)(nil)

// NewS3Client builds an S3Client from static credentials and an optional
// endpoint override (for local emulators such as MinIO).
func NewS3Client(ctx context.Context, accessKeyID, secretAccessKey, region, endpointURL string) (*S3Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(region))
	if accessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	sdk := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		sdk: sdk,
		retryCfg: httpretry.Config{
			MaxRetries:   constants.MaxRetries,
			InitialDelay: constants.RetryInitialDelay,
			MaxDelay:     constants.RetryMaxDelay,
		},
	}, nil
}

// withRetry executes op under the client's shared retry/backoff policy.
func (c *S3Client) withRetry(ctx context.Context, op func() error) error {
	return httpretry.ExecuteWithRetry(ctx, c.retryCfg, op)
}

func (c *S3Client) HeadBucket(ctx context.Context, bucket string) error {
	err := c.withRetry(ctx, func() error {
		_, err := c.sdk.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		return err
	})
	if err == nil {
		return nil
	}
	switch responseStatusCode(err) {
	case http.StatusNotFound:
		return fmt.Errorf("head bucket %s: %w", bucket, ErrBucketNotFound)
	case http.StatusForbidden:
		return fmt.Errorf("head bucket %s: %w", bucket, ErrBucketForbidden)
	default:
		return fmt.Errorf("head bucket %s: %w", bucket, err)
	}
}

// responseStatusCode extracts the HTTP status code from an AWS SDK error,
// or 0 if err carries none. HeadBucket's error responses have no body, so
// the status code (not a parsed error-code string) is the only signal the
// SDK surfaces to distinguish "not found" from "forbidden" from other
// failures.
func responseStatusCode(err error) int {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}

func (c *S3Client) CreateBucket(ctx context.Context, bucket, region string) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if region != "" && region != defaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	err := c.withRetry(ctx, func() error {
		_, err := c.sdk.CreateBucket(ctx, input)
		return err
	})
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

func (c *S3Client) PutObject(ctx context.Context, bucket, key string, body io.ReadSeeker, size int64) error {
	err := c.withRetry(ctx, func() error {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return err
		}
		_, err := c.sdk.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			Body:          body,
			ContentLength: aws.Int64(size),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (c *S3Client) CreateMultipartUpload(ctx context.Context, bucket, key string) (string, error) {
	var uploadID string
	err := c.withRetry(ctx, func() error {
		out, err := c.sdk.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		uploadID = aws.ToString(out.UploadId)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create multipart upload %s/%s: %w", bucket, key, err)
	}
	return uploadID, nil
}

func (c *S3Client) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32, body io.ReadSeeker, size int64) (string, error) {
	var etag string
	err := c.withRetry(ctx, func() error {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return err
		}
		out, err := c.sdk.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			UploadId:      aws.String(uploadID),
			PartNumber:    aws.Int32(partNumber),
			Body:          body,
			ContentLength: aws.Int64(size),
		})
		if err != nil {
			return err
		}
		etag = aws.ToString(out.ETag)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload part %d of %s/%s: %w", partNumber, bucket, key, err)
	}
	return etag, nil
}

func (c *S3Client) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) error {
	sorted := make([]CompletedPart, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	completed := make([]types.CompletedPart, len(sorted))
	for i, p := range sorted {
		completed[i] = types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		}
	}

	err := c.withRetry(ctx, func() error {
		_, err := c.sdk.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
			Bucket:   aws.String(bucket),
			Key:      aws.String(key),
			UploadId: aws.String(uploadID),
			MultipartUpload: &types.CompletedMultipartUpload{
				Parts: completed,
			},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("complete multipart upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (c *S3Client) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	err := c.withRetry(ctx, func() error {
		_, err := c.sdk.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(bucket),
			Key:      aws.String(key),
			UploadId: aws.String(uploadID),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("abort multipart upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (c *S3Client) HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	var info ObjectInfo
	err := c.withRetry(ctx, func() error {
		out, err := c.sdk.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		info = ObjectInfo{ContentLength: aws.ToInt64(out.ContentLength)}
		return nil
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("head object %s/%s: %w", bucket, key, err)
	}
	return info, nil
}
