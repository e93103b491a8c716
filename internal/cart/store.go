package cart

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// Store owns one cart. Mutations are serialised, applied through Apply and
// followed by a full snapshot write. Snapshot write failures are logged and
// never undo the in-memory change.
type Store struct {
	mu        sync.Mutex
	key       string
	state     domain.CartState
	pricing   Pricing
	snapshots SnapshotStore
	strict    bool
	logger    *zap.Logger
}

type Option func(*Store)

func WithPricing(p Pricing) Option {
	return func(s *Store) {
		s.pricing = p
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStrictStock makes stock rejections also return an error.
func WithStrictStock(strict bool) Option {
	return func(s *Store) {
		s.strict = strict
	}
}

// NewStore builds the store for key and rehydrates it from snapshots.
// A missing or unreadable snapshot yields an empty cart. snapshots may be nil
// for a purely in-memory cart.
func NewStore(ctx context.Context, key string, snapshots SnapshotStore, opts ...Option) *Store {
	s := &Store{
		key:       key,
		state:     domain.CartState{Items: []domain.CartLine{}},
		pricing:   DefaultPricing,
		snapshots: snapshots,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rehydrate(ctx)
	return s
}

func (s *Store) rehydrate(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	data, err := s.snapshots.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrSnapshotNotFound) {
			s.logger.Warn("load cart snapshot", zap.String("key", s.key), zap.Error(err))
		}
		return
	}
	state, err := Decode(data)
	if err != nil {
		s.logger.Warn("discarding cart snapshot", zap.String("key", s.key), zap.Error(err))
		return
	}
	state.Total = s.pricing.Total(state.Items)
	s.state = state
}

func (s *Store) Key() string {
	return s.key
}

func (s *Store) Pricing() Pricing {
	return s.pricing
}

// State returns a copy of the current cart.
func (s *Store) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ItemCount(s.state)
}

func (s *Store) Add(ctx context.Context, product domain.Product, quantity int) (Result, error) {
	return s.dispatch(ctx, Add{Product: product, Quantity: quantity})
}

func (s *Store) Remove(ctx context.Context, productID string) (Result, error) {
	return s.dispatch(ctx, Remove{ProductID: productID})
}

func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) (Result, error) {
	return s.dispatch(ctx, SetQuantity{ProductID: productID, Quantity: quantity})
}

func (s *Store) Clear(ctx context.Context) (Result, error) {
	return s.dispatch(ctx, Clear{})
}

func (s *Store) dispatch(ctx context.Context, op Operation) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, res := Apply(s.pricing, s.state, op)
	switch res.Outcome {
	case Accepted:
		s.state = next
		s.persist(ctx)
	case RejectedInsufficientStock:
		s.logger.Debug("cart mutation rejected",
			zap.String("key", s.key),
			zap.String("product_id", res.ProductID),
			zap.Int("available", res.Available),
			zap.Int("requested", res.Requested),
			zap.String("unit", res.Unit),
		)
		if s.strict {
			return res, res.Err()
		}
	case Ignored:
		s.logger.Debug("cart mutation ignored", zap.String("key", s.key), zap.String("reason", res.Reason))
	}
	return res, nil
}

func (s *Store) persist(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	data, err := Encode(s.state)
	if err != nil {
		s.logger.Warn("encode cart snapshot", zap.String("key", s.key), zap.Error(err))
		return
	}
	if err := s.snapshots.Set(ctx, s.key, data); err != nil {
		s.logger.Warn("persist cart snapshot", zap.String("key", s.key), zap.Error(err))
	}
}
