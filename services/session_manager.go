package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Nappiz/tcmudah-storefront/logger"
	"github.com/Nappiz/tcmudah-storefront/models"
	"github.com/Nappiz/tcmudah-storefront/repository"
)

const persistTimeout = 3 * time.Second

// Session is one visitor: a cart and at most one live checkout.
type Session struct {
	ID   string
	Cart *CartStore

	mgr      *SessionManager
	mu       sync.Mutex
	userID   string
	checkout *CheckoutSession
	lastSeen time.Time
}

// SessionManagerConfig wires the collaborators shared by every session.
type SessionManagerConfig struct {
	API           CheckoutAPI
	Uploader      ProofUploader
	Catalog       *CatalogCache
	Repo          repository.CartRepository
	Notifier      *OrderNotifier
	IdleTTL       time.Duration
	ProofMaxBytes int64
}

// SessionManager is the registry of visitor sessions. Carts are written
// through to the repository; checkouts live only in memory.
type SessionManager struct {
	cfg SessionManagerConfig
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	stopOnce sync.Once
	stop     chan struct{}
}

func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	return &SessionManager{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
}

// Get returns the session for id, creating it on first use. A new session
// restores its cart from the repository when one is configured.
func (m *SessionManager) Get(ctx context.Context, id, userID string) *Session {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		fresh := m.newSession(ctx, id)
		m.mu.Lock()
		if sess, ok = m.sessions[id]; !ok {
			sess = fresh
			m.sessions[id] = sess
		}
		m.mu.Unlock()
	}

	sess.mu.Lock()
	sess.lastSeen = m.now()
	if userID != "" {
		sess.userID = userID
	}
	sess.mu.Unlock()
	return sess
}

func (m *SessionManager) newSession(ctx context.Context, id string) *Session {
	sess := &Session{ID: id, Cart: NewCartStore(), mgr: m}

	if m.cfg.Repo != nil {
		stored, err := m.cfg.Repo.Load(ctx, id)
		if err != nil {
			logger.Warn(ctx, "cart restore failed", zap.String("session_id", id), zap.Error(err))
		} else if stored != nil {
			sess.Cart.Restore(stored.Lines)
		}
		sess.Cart.OnChange(func(lines []models.CartLine) {
			m.persist(id, lines)
		})
	}
	return sess
}

// persist never fails the mutation; the in-memory cart stays authoritative.
func (m *SessionManager) persist(id string, lines []models.CartLine) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.cfg.Repo.Save(ctx, id, lines); err != nil {
		logger.Log.Warn("cart persist failed", zap.String("session_id", id), zap.Error(err))
	}
}

// Len is the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than the TTL. Sessions with a
// submission in flight are kept.
func (m *SessionManager) Sweep() int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, sess := range m.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		busy := sess.checkout != nil && sess.checkout.State() == models.CheckoutSubmitting
		sess.mu.Unlock()
		if idle && !busy {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Start runs the idle sweeper until Stop is called.
func (m *SessionManager) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					logger.Log.Debug("evicted idle sessions", zap.Int("count", n))
				}
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Checkout returns the current checkout, or nil when none was opened.
func (s *Session) Checkout() *CheckoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkout
}

// CheckoutView reports IDLE when no checkout exists.
func (s *Session) CheckoutView() models.CheckoutView {
	if co := s.Checkout(); co != nil {
		return co.View()
	}
	return models.CheckoutView{State: models.CheckoutIdle}
}

// OpenCheckout opens the live checkout, starting a fresh one when there is
// none or the previous one is finished.
func (s *Session) OpenCheckout(ctx context.Context) (*CheckoutSession, error) {
	s.mu.Lock()
	co := s.checkout
	if co == nil || co.Done() {
		co = s.newCheckoutLocked()
		s.checkout = co
	}
	s.mu.Unlock()

	return co, co.Open(ctx)
}

func (s *Session) newCheckoutLocked() *CheckoutSession {
	m := s.mgr
	hooks := CheckoutHooks{
		OnComplete: func(ctx context.Context, sub Submission) {
			if m.cfg.Notifier != nil {
				m.cfg.Notifier.OrderSubmitted(ctx, s.ID, s.UserID(), sub)
			}
		},
		OnFailure: func(ctx context.Context, stage string, err error) {
			if m.cfg.Notifier != nil {
				m.cfg.Notifier.SubmissionFailed(ctx, stage, err)
			}
		},
	}
	return NewCheckoutSession(m.cfg.API, m.cfg.Uploader, s.Cart, m.cfg.Catalog, hooks)
}

func (s *Session) live() (*CheckoutSession, error) {
	co := s.Checkout()
	if co == nil {
		return nil, ErrNoCheckout
	}
	return co, nil
}

func (s *Session) SetCheckoutDetails(senderName, note string) error {
	co, err := s.live()
	if err != nil {
		return err
	}
	return co.SetDetails(senderName, note)
}

// SelectProof validates the file before handing it to the checkout.
func (s *Session) SelectProof(file models.ProofFile) error {
	co, err := s.live()
	if err != nil {
		return err
	}
	normalized, err := NormalizeProof(file, s.mgr.cfg.ProofMaxBytes)
	if err != nil {
		return err
	}
	return co.SelectProof(normalized)
}

func (s *Session) SubmitCheckout(ctx context.Context) (*models.Receipt, error) {
	co, err := s.live()
	if err != nil {
		return nil, err
	}
	return co.Submit(ctx)
}

// CloseCheckout discards the checkout unless a submission is running.
func (s *Session) CloseCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == nil {
		return nil
	}
	if err := s.checkout.Close(); err != nil {
		return err
	}
	s.checkout = nil
	return nil
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}
