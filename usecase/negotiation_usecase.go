package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"camgrocer/dao"
	"camgrocer/model"
	"camgrocer/pkg/auth"
	"camgrocer/pkg/metrics"
	"camgrocer/pkg/negotiation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxOfferMessageLength = 500
	// defaultMaxSessions bounds the dialogues held in memory at once.
	defaultMaxSessions = 10000
)

type hostedSession struct {
	id        string
	productID string
	session   *negotiation.Session
	lastSeen  time.Time
}

// NegotiationUsecase hosts the open price dialogues in memory. Engine
// sessions are single-owner, so every access goes through mu.
type NegotiationUsecase struct {
	products *dao.ProductRepository
	stores   *dao.StoreRepository
	catalog  *negotiation.Catalog
	deals    *auth.DealSigner
	idle     time.Duration
	limit    int
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*hostedSession

	wg sync.WaitGroup
}

// NewNegotiationUsecase builds the host. Sessions untouched for idle are
// dropped by the janitor; idle <= 0 keeps them until closed.
func NewNegotiationUsecase(products *dao.ProductRepository, stores *dao.StoreRepository, catalog *negotiation.Catalog, deals *auth.DealSigner, idle time.Duration, m *metrics.Metrics, logger *zap.Logger) *NegotiationUsecase {
	if catalog == nil {
		catalog = negotiation.DefaultCatalog()
	}
	return &NegotiationUsecase{
		products: products,
		stores:   stores,
		catalog:  catalog,
		deals:    deals,
		idle:     idle,
		limit:    defaultMaxSessions,
		metrics:  m,
		logger:   logger.Named("negotiation"),
		now:      time.Now,
		sessions: make(map[string]*hostedSession),
	}
}

// Open starts a dialogue about a publicly visible negotiable product.
func (u *NegotiationUsecase) Open(ctx context.Context, productID, language string) (*model.NegotiationSession, error) {
	p, store, err := loadProduct(ctx, u.products, u.stores, productID)
	if err != nil {
		return nil, err
	}
	if !isPublic(p, store) {
		return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	if !p.Negotiable {
		return nil, ErrNotNegotiable
	}

	h := &hostedSession{
		id:        uuid.NewString(),
		productID: p.ID,
		session:   u.catalog.Start(p.Price, p.Name, p.Unit, negotiation.ParseLanguage(language)),
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.sessions) >= u.limit {
		u.logger.Warn("negotiation limit reached", zap.Int("open", len(u.sessions)))
		return nil, fmt.Errorf("%w: too many open negotiations, try again later", ErrConflict)
	}
	h.lastSeen = u.now()
	u.sessions[h.id] = h
	u.metrics.NegotiationSessions.Set(float64(len(u.sessions)))

	u.logger.Debug("negotiation opened", zap.String("session_id", h.id), zap.String("product_id", p.ID))
	snap := snapshot(h)
	return &snap, nil
}

// Submit hands one customer message to the engine.
func (u *NegotiationUsecase) Submit(id, text string) (*model.NegotiationReply, error) {
	if utf8.RuneCountInString(text) > maxOfferMessageLength {
		return nil, fmt.Errorf("%w: message longer than %d characters", ErrInvalidInput, maxOfferMessageLength)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	h, err := u.touch(id)
	if err != nil {
		return nil, err
	}

	r := h.session.SubmitOffer(text)
	u.metrics.ObserveOffer(string(r.Outcome))
	u.logger.Debug("offer classified", zap.String("session_id", id), zap.String("outcome", string(r.Outcome)))

	return &model.NegotiationReply{
		Outcome:         string(r.Outcome),
		Content:         r.Text,
		Offer:           r.Offer,
		DiscountPercent: r.Discount,
		CounterOffer:    r.CounterOffer,
		SuggestedOffer:  r.SuggestedOffer,
		Session:         snapshot(h),
	}, nil
}

func (u *NegotiationUsecase) SetLanguage(id, language string) (*model.NegotiationSession, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	h, err := u.touch(id)
	if err != nil {
		return nil, err
	}
	h.session.SetLanguage(negotiation.ParseLanguage(language))
	snap := snapshot(h)
	return &snap, nil
}

func (u *NegotiationUsecase) Get(id string) (*model.NegotiationSession, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	h, err := u.touch(id)
	if err != nil {
		return nil, err
	}
	snap := snapshot(h)
	return &snap, nil
}

// Close discards the dialogue without a deal.
func (u *NegotiationUsecase) Close(id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	u.remove(id)
	return nil
}

// Commit returns the accepted price with a signed deal token and ends the
// dialogue. Without an accepted offer the dialogue stays open and
// negotiation.ErrNotAccepted is returned.
func (u *NegotiationUsecase) Commit(id string) (*model.NegotiatedPrice, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	h, err := u.touch(id)
	if err != nil {
		return nil, err
	}

	deal, err := h.session.Commit()
	if err != nil {
		if errors.Is(err, negotiation.ErrNotAccepted) {
			return nil, err
		}
		return nil, fmt.Errorf("commit negotiation: %w", err)
	}
	token, exp, err := u.deals.Sign(h.productID, deal.FinalPrice)
	if err != nil {
		return nil, err
	}
	u.remove(id)

	u.logger.Info("negotiation committed",
		zap.String("session_id", id),
		zap.String("product_id", h.productID),
		zap.Int("final_price", deal.FinalPrice),
		zap.Int("discount_percent", deal.DiscountPercent),
	)
	return &model.NegotiatedPrice{
		ProductID:       h.productID,
		FinalPrice:      deal.FinalPrice,
		DiscountPercent: deal.DiscountPercent,
		DealToken:       token,
		ExpiresAt:       exp,
	}, nil
}

// Active reports the number of open dialogues.
func (u *NegotiationUsecase) Active() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.sessions)
}

// Start runs the idle-session janitor until ctx is done. Wait blocks until
// it has stopped.
func (u *NegotiationUsecase) Start(ctx context.Context) {
	if u.idle <= 0 {
		return
	}
	interval := u.idle / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := u.sweep(); n > 0 {
					u.logger.Debug("expired idle negotiations", zap.Int("count", n))
				}
			}
		}
	}()
}

func (u *NegotiationUsecase) Wait() {
	u.wg.Wait()
}

// sweep drops sessions idle for longer than the configured duration.
func (u *NegotiationUsecase) sweep() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	cutoff := u.now().Add(-u.idle)
	n := 0
	for id, h := range u.sessions {
		if h.lastSeen.Before(cutoff) {
			u.remove(id)
			n++
		}
	}
	return n
}

// touch must be called with mu held.
func (u *NegotiationUsecase) touch(id string) (*hostedSession, error) {
	h, ok := u.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	h.lastSeen = u.now()
	return h, nil
}

// remove must be called with mu held.
func (u *NegotiationUsecase) remove(id string) {
	delete(u.sessions, id)
	u.metrics.NegotiationSessions.Set(float64(len(u.sessions)))
}

func snapshot(h *hostedSession) model.NegotiationSession {
	s := h.session
	transcript := make([]model.NegotiationEntry, len(s.Transcript))
	for i, e := range s.Transcript {
		transcript[i] = model.NegotiationEntry{Speaker: string(e.Speaker), Content: e.Text}
	}
	var last *int
	if s.LastOffer != nil {
		v := *s.LastOffer
		last = &v
	}
	return model.NegotiationSession{
		ID:            h.id,
		ProductID:     h.productID,
		ProductName:   s.ProductName,
		ListedPrice:   s.ListedPrice,
		Language:      string(s.Language),
		Transcript:    transcript,
		LastOffer:     last,
		OfferAccepted: s.OfferAccepted,
	}
}
