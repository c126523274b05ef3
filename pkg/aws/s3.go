package aws

import (
	"context"
	"fmt"
	"io"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectUploader is the minimal upload surface the proof storage needs.
type ObjectUploader interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader) error
}

// NewS3Client creates a new S3 client from AWS config. Path-style addressing
// is forced when a custom endpoint is configured.
func NewS3Client(cfg sdkaws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if CustomEndpoint() != "" {
			o.UsePathStyle = true
		}
	})
}

// S3Uploader streams objects into a single bucket using the multipart upload manager.
type S3Uploader struct {
	uploader  *manager.Uploader
	bucket    string
	publicACL bool
}

func NewS3Uploader(client *s3.Client, bucket string, publicACL bool) *S3Uploader {
	return &S3Uploader{
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		publicACL: publicACL,
	}
}

func (u *S3Uploader) PutObject(ctx context.Context, key, contentType string, body io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket:      sdkaws.String(u.bucket),
		Key:         sdkaws.String(key),
		Body:        body,
		ContentType: sdkaws.String(contentType),
	}
	if u.publicACL {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	if _, err := u.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("s3 upload %s/%s failed: %w", u.bucket, key, err)
	}
	return nil
}
