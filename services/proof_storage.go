package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nappiz/tcmudah-storefront/logger"
	"github.com/Nappiz/tcmudah-storefront/models"
	awspkg "github.com/Nappiz/tcmudah-storefront/pkg/aws"
)

// ProofUploader stores a transfer receipt and returns its public URL.
type ProofUploader interface {
	Upload(ctx context.Context, proof models.ProofFile) (string, error)
}

var allowedProofTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ProofTooLarge is the validation error for a proof over maxBytes.
func ProofTooLarge(maxBytes int64) *ValidationError {
	return validationf("ukuran bukti transfer maksimal %s", formatSize(maxBytes))
}

func formatSize(n int64) string {
	const kb, mb = 1024, 1024 * 1024
	switch {
	case n >= mb && n%mb == 0:
		return fmt.Sprintf("%d MB", n/mb)
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%d KB", n/kb)
	default:
		return fmt.Sprintf("%d byte", n)
	}
}

// NormalizeProof checks the proof against the image allowlist and size limit.
// The type is sniffed from the bytes. The declared type and then the file
// extension are consulted only when the sniff is inconclusive.
func NormalizeProof(file models.ProofFile, maxBytes int64) (models.ProofFile, error) {
	if len(file.Data) == 0 {
		return file, validationf("berkas bukti transfer kosong")
	}
	if maxBytes > 0 && int64(len(file.Data)) > maxBytes {
		return file, ProofTooLarge(maxBytes)
	}

	ct := mediaType(http.DetectContentType(file.Data))
	if ct == "application/octet-stream" || ct == "text/plain" {
		ct = mediaType(file.ContentType)
		if _, ok := allowedProofTypes[ct]; !ok {
			ct = typeByExtension(file.Filename)
		}
	}
	if _, ok := allowedProofTypes[ct]; !ok {
		return file, validationf("bukti transfer harus berupa gambar (jpg, png, webp, gif)")
	}

	file.ContentType = ct
	if file.Filename == "" {
		file.Filename = "bukti-transfer" + allowedProofTypes[ct]
	}
	return file, nil
}

func mediaType(ct string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
}

func typeByExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	}
	return ""
}

// FileUploader is the course API upload endpoint.
type FileUploader interface {
	UploadFile(ctx context.Context, filename, contentType string, data []byte) (*models.UploadResult, error)
}

// APIProofUploader posts the proof to the course API upload endpoint.
type APIProofUploader struct {
	api     FileUploader
	metrics MetricsRecorder
}

func NewAPIProofUploader(api FileUploader, metrics MetricsRecorder) *APIProofUploader {
	return &APIProofUploader{api: api, metrics: metrics}
}

func (u *APIProofUploader) Upload(ctx context.Context, proof models.ProofFile) (string, error) {
	res, err := u.api.UploadFile(ctx, proof.Filename, proof.ContentType, proof.Data)
	if err != nil {
		return "", err
	}
	recordCount(ctx, u.metrics, awspkg.MetricProofUploads, map[string]string{"Storage": "api"})
	return res.URL, nil
}

// S3ProofUploader writes proofs straight into a bucket under
// payment-proofs/<yyyy>/<mm>/<uuid><ext>.
type S3ProofUploader struct {
	objects       awspkg.ObjectUploader
	bucket        string
	publicBaseURL string
	region        string
	metrics       MetricsRecorder
	now           func() time.Time
}

func NewS3ProofUploader(objects awspkg.ObjectUploader, bucket, publicBaseURL, region string, metrics MetricsRecorder) *S3ProofUploader {
	return &S3ProofUploader{
		objects:       objects,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		region:        region,
		metrics:       metrics,
		now:           time.Now,
	}
}

func (u *S3ProofUploader) Upload(ctx context.Context, proof models.ProofFile) (string, error) {
	ext := allowedProofTypes[proof.ContentType]
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(proof.Filename))
	}
	now := u.now().UTC()
	key := fmt.Sprintf("payment-proofs/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)

	if err := u.objects.PutObject(ctx, key, proof.ContentType, bytes.NewReader(proof.Data)); err != nil {
		return "", err
	}
	recordCount(ctx, u.metrics, awspkg.MetricProofUploads, map[string]string{"Storage": "s3"})
	logger.Info(ctx, "proof stored", zap.String("bucket", u.bucket), zap.String("key", key), zap.Int("size", len(proof.Data)))
	return u.publicURL(key), nil
}

func (u *S3ProofUploader) publicURL(key string) string {
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + key
	}
	if u.region == "" || u.region == "us-east-1" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
