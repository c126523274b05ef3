package services_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/Nappiz/tcmudah-storefront/models"
)

// --- Mock course API ---

type mockAPI struct {
	mu          sync.Mutex
	info        *models.CheckoutInfo
	infoErr     error
	infoCalls   int
	order       *models.Order
	orderErr    error
	orderCalls  int
	lastRequest models.OrderRequest
	beforeOrder func()
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		info: &models.CheckoutInfo{
			BankName:    "BCA",
			BankAccount: "1234567890",
			BankHolder:  "PT TC Mudah",
			GroupLink:   "https://chat.whatsapp.com/kelas",
		},
		order: &models.Order{ID: "o1", Status: models.OrderStatusPending},
	}
}

func (m *mockAPI) GetCheckoutInfo(_ context.Context) (*models.CheckoutInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoCalls++
	if m.infoErr != nil {
		return nil, m.infoErr
	}
	info := *m.info
	return &info, nil
}

func (m *mockAPI) CreateOrder(_ context.Context, req models.OrderRequest) (*models.Order, error) {
	if m.beforeOrder != nil {
		m.beforeOrder()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderCalls++
	m.lastRequest = req
	if m.orderErr != nil {
		return nil, m.orderErr
	}
	order := *m.order
	return &order, nil
}

func (m *mockAPI) calls() (info, order int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.infoCalls, m.orderCalls
}

// --- Mock proof uploader ---

type mockUploader struct {
	mu    sync.Mutex
	url   string
	err   error
	calls int
	block chan struct{}
	seen  []models.ProofFile
}

func (m *mockUploader) Upload(_ context.Context, proof models.ProofFile) (string, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.seen = append(m.seen, proof)
	if m.err != nil {
		return "", m.err
	}
	return m.url, nil
}

func (m *mockUploader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Static catalog ---

type staticCatalog map[string]models.ClassItem

func (c staticCatalog) Lookup(id string) (models.ClassItem, bool) {
	item, ok := c[id]
	return item, ok
}

func testCatalog() staticCatalog {
	return staticCatalog{
		"A": {ID: "A", Title: "Kelas A", Price: 100000, Visible: true},
		"B": {ID: "B", Title: "Kelas B", Price: 50000, Visible: true},
	}
}

// --- Mock catalog source ---

type mockSource struct {
	mu          sync.Mutex
	classes     []models.ClassItem
	mentors     []models.Mentor
	curriculums []models.Curriculum
	classErr    error
	mentorErr   error
	calls       int
	gate        chan struct{}
}

func (m *mockSource) ListClasses(_ context.Context) ([]models.ClassItem, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.classes, m.classErr
}

func (m *mockSource) ListMentors(_ context.Context) ([]models.Mentor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mentors, m.mentorErr
}

func (m *mockSource) ListCurriculums(_ context.Context) ([]models.Curriculum, error) {
	return m.curriculums, nil
}

func (m *mockSource) classCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Mock SNS publisher ---

type mockSNSPublisher struct {
	mu       sync.Mutex
	topics   []string
	messages [][]byte
	attrs    []map[string]string
	err      error
}

func (m *mockSNSPublisher) Publish(_ context.Context, topicArn string, message []byte, attributes map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topicArn)
	m.messages = append(m.messages, message)
	m.attrs = append(m.attrs, attributes)
	return nil
}

// --- Mock object uploader ---

type mockObjects struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (m *mockObjects) PutObject(_ context.Context, key, contentType string, body io.Reader) error {
	if m.err != nil {
		return m.err
	}
	m.key = key
	m.contentType = contentType
	m.body, _ = io.ReadAll(body)
	return nil
}

var errBoom = errors.New("boom")

func pngProof() models.ProofFile {
	return models.ProofFile{
		Filename:    "bukti.png",
		ContentType: "image/png",
		Data:        []byte("\x89PNG\r\n\x1a\n0000"),
	}
}
