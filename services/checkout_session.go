package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Nappiz/tcmudah-storefront/logger"
	"github.com/Nappiz/tcmudah-storefront/models"
)

// CheckoutAPI is the part of the course API a checkout needs.
type CheckoutAPI interface {
	GetCheckoutInfo(ctx context.Context) (*models.CheckoutInfo, error)
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
}

// Submission describes a completed checkout for the completion hook.
type Submission struct {
	Lines      []models.CartLine
	ProofURL   string
	SenderName string
	Note       string
	Receipt    models.Receipt
}

// CheckoutHooks observe a session. OnComplete runs exactly once, after the
// order was accepted. OnFailure runs for every failed upload or order call.
type CheckoutHooks struct {
	OnComplete func(ctx context.Context, sub Submission)
	OnFailure  func(ctx context.Context, stage string, err error)
}

const (
	StageUpload = "upload"
	StageOrder  = "order"
)

// CheckoutSession stages the payment evidence for one order and runs the
// upload-then-create submission. The cart is read once, when submission
// starts; later cart edits do not change the order in flight.
type CheckoutSession struct {
	api      CheckoutAPI
	uploader ProofUploader
	cart     *CartStore
	catalog  PriceLookup
	hooks    CheckoutHooks

	mu         sync.Mutex
	state      models.CheckoutState
	closed     bool
	info       *models.CheckoutInfo
	senderName string
	note       string
	proof      *models.ProofFile
	proofURL   string
	lastError  string
	receipt    *models.Receipt
}

func NewCheckoutSession(api CheckoutAPI, uploader ProofUploader, cart *CartStore, catalog PriceLookup, hooks CheckoutHooks) *CheckoutSession {
	return &CheckoutSession{
		api:      api,
		uploader: uploader,
		cart:     cart,
		catalog:  catalog,
		hooks:    hooks,
		state:    models.CheckoutIdle,
	}
}

// Open fetches fresh checkout info. From IDLE it moves to AWAITING_INFO; an
// open form keeps its fields and only gets the new info. A failed fetch
// leaves the state unchanged and records the error.
func (s *CheckoutSession) Open(ctx context.Context) error {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	info, err := s.api.GetCheckoutInfo(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if uerr := s.usableLocked(); uerr != nil {
		return uerr
	}
	if err != nil {
		s.lastError = err.Error()
		logger.Warn(ctx, "checkout info fetch failed", zap.Error(err), zap.String("state", s.state.String()))
		return err
	}
	s.info = info
	s.lastError = ""
	if s.state == models.CheckoutIdle {
		s.state = models.CheckoutAwaitingInfo
	}
	return nil
}

func (s *CheckoutSession) SetDetails(senderName, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	if s.state == models.CheckoutIdle {
		return illegal("set details", s.state)
	}
	s.senderName = senderName
	s.note = note
	return nil
}

// SelectProof replaces the proof file and forgets any earlier upload URL.
func (s *CheckoutSession) SelectProof(file models.ProofFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	if s.state == models.CheckoutIdle {
		return illegal("select proof", s.state)
	}
	if len(file.Data) == 0 {
		return validationf("berkas bukti transfer kosong")
	}
	f := file
	f.Data = append([]byte(nil), file.Data...)
	s.proof = &f
	s.proofURL = ""
	s.state = models.CheckoutReadyToSubmit
	return nil
}

// Submit uploads the proof (unless an earlier upload of the same file
// succeeded) and creates the order from the cart snapshot. On failure the
// session returns to READY_TO_SUBMIT with lastError set. On success the cart
// is cleared, the session completes and the receipt is returned.
func (s *CheckoutSession) Submit(ctx context.Context) (*models.Receipt, error) {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	switch s.state {
	case models.CheckoutIdle:
		s.mu.Unlock()
		return nil, illegal("submit", s.state)
	case models.CheckoutAwaitingInfo:
		s.mu.Unlock()
		return nil, validationf(MsgProofRequired)
	}

	lines := s.cart.Snapshot()
	if len(lines) == 0 {
		s.mu.Unlock()
		return nil, validationf(MsgCartEmpty)
	}

	s.state = models.CheckoutSubmitting
	s.lastError = ""
	proof := *s.proof
	proofURL := s.proofURL
	senderName, note := s.senderName, s.note
	info := s.info
	s.mu.Unlock()

	if proofURL == "" {
		url, err := s.uploader.Upload(ctx, proof)
		if err != nil {
			return nil, s.fail(ctx, StageUpload, err)
		}
		proofURL = url
		s.mu.Lock()
		s.proofURL = url
		s.mu.Unlock()
	}

	order, err := s.api.CreateOrder(ctx, models.OrderRequest{
		Items:      orderItems(lines),
		SenderName: senderName,
		Note:       note,
		ProofURL:   proofURL,
	})
	if err != nil {
		return nil, s.fail(ctx, StageOrder, err)
	}

	receipt := models.Receipt{
		Order:       *order,
		TotalAmount: TotalAmount(lines, s.catalog),
		CompletedAt: time.Now().UTC(),
	}
	if info != nil {
		receipt.GroupLink = info.GroupLink
	}

	s.mu.Lock()
	s.state = models.CheckoutCompleted
	s.receipt = &receipt
	s.proof = nil
	s.mu.Unlock()

	s.cart.Clear()
	logger.Info(ctx, "checkout completed",
		zap.String("order_id", order.ID),
		zap.Int("lines", len(lines)),
		zap.Int64("total_amount", receipt.TotalAmount),
	)

	if s.hooks.OnComplete != nil {
		s.hooks.OnComplete(ctx, Submission{
			Lines:      lines,
			ProofURL:   proofURL,
			SenderName: senderName,
			Note:       note,
			Receipt:    receipt,
		})
	}
	return &receipt, nil
}

func (s *CheckoutSession) fail(ctx context.Context, stage string, err error) error {
	s.mu.Lock()
	s.state = models.CheckoutReadyToSubmit
	s.lastError = err.Error()
	s.mu.Unlock()
	logger.Warn(ctx, "checkout submission failed", zap.String("stage", stage), zap.Error(err))
	if s.hooks.OnFailure != nil {
		s.hooks.OnFailure(ctx, stage, err)
	}
	return fmt.Errorf("%s failed: %w", stage, err)
}

// Close discards the session. It is refused while a submission is running.
func (s *CheckoutSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == models.CheckoutSubmitting {
		return ErrSubmitInProgress
	}
	s.closed = true
	s.proof = nil
	return nil
}

func (s *CheckoutSession) State() models.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done reports whether the session can no longer be used.
func (s *CheckoutSession) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.state.IsTerminal()
}

// View returns the read model. Proof bytes are never exposed.
func (s *CheckoutSession) View() models.CheckoutView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := models.CheckoutView{
		State:      s.state,
		SenderName: s.senderName,
		Note:       s.note,
		Submitting: s.state == models.CheckoutSubmitting,
		LastError:  s.lastError,
	}
	if s.info != nil {
		info := *s.info
		v.Info = &info
	}
	if s.proof != nil {
		v.Proof = &models.ProofMeta{
			Filename:    s.proof.Filename,
			ContentType: s.proof.ContentType,
			Size:        len(s.proof.Data),
			Uploaded:    s.proofURL != "",
		}
	}
	if s.receipt != nil {
		r := *s.receipt
		v.Receipt = &r
	}
	return v
}

func (s *CheckoutSession) usableLocked() error {
	switch {
	case s.closed || s.state.IsTerminal():
		return ErrSessionClosed
	case s.state == models.CheckoutSubmitting:
		return ErrSubmitInProgress
	}
	return nil
}
