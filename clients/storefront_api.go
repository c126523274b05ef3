package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/Nappiz/tcmudah-storefront/models"
)

// Course API paths.
const (
	ClassesPath      = "/classes"
	MentorsPath      = "/mentors"
	CurriculumsPath  = "/curriculums"
	CheckoutInfoPath = "/checkout/info"
	UploadPath       = "/upload"
	OrdersPath       = "/orders"
	EnrollmentsPath  = "/enrollments"
	TestimonialsPath = "/testimonials"
	FeedbackPath     = "/feedback"
	ShortlinksPath   = "/shortlinks"
)

func (c *APIClient) ListClasses(ctx context.Context) ([]models.ClassItem, error) {
	return NewResourceStore[models.ClassItem](c, ClassesPath).List(ctx, nil)
}

func (c *APIClient) ListMentors(ctx context.Context) ([]models.Mentor, error) {
	return NewResourceStore[models.Mentor](c, MentorsPath).List(ctx, nil)
}

func (c *APIClient) ListCurriculums(ctx context.Context) ([]models.Curriculum, error) {
	return NewResourceStore[models.Curriculum](c, CurriculumsPath).List(ctx, nil)
}

func (c *APIClient) GetCheckoutInfo(ctx context.Context) (*models.CheckoutInfo, error) {
	var info models.CheckoutInfo
	if err := c.DoJSON(ctx, http.MethodGet, CheckoutInfoPath, nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// UploadFile posts the file as the multipart field "file" and returns the public URL.
func (c *APIClient) UploadFile(ctx context.Context, filename, contentType string, data []byte) (*models.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.Do(ctx, http.MethodPost, UploadPath, nil, headers, &buf)
	if err != nil {
		return nil, err
	}

	var out models.UploadResult
	if err := DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, fmt.Errorf("upload response has no url")
	}
	return &out, nil
}

func (c *APIClient) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.DoJSON(ctx, http.MethodPost, OrdersPath, nil, req, &order); err != nil {
		return nil, err
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	return &order, nil
}
