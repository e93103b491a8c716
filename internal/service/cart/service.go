// Package cart manages live cart stores keyed by session.
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const registerPrefix = "register:"

type productSource interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// View is the cart as returned to clients.
type View struct {
	Key       string            `json:"key"`
	Items     []domain.CartLine `json:"items"`
	Total     int64             `json:"total"`
	ItemCount int               `json:"itemCount"`
}

// Service hands out one cart.Store per session key. Live stores sit in a
// bounded LRU; an evicted store is rebuilt from its snapshot on next use.
// A store still held by a request stays leased after eviction, so a key never
// has two stores at once.
type Service struct {
	mu        sync.Mutex
	stores    *lru.Cache
	leases    map[string]*lease
	snapshots cart.SnapshotStore
	products  productSource
	storeOpts []cart.Option
	pricing   cart.Pricing
	logger    *zap.Logger
}

type lease struct {
	store *cart.Store
	refs  int
}

type Config struct {
	CacheSize   int
	Pricing     cart.Pricing
	StrictStock bool
}

func New(snapshots cart.SnapshotStore, products productSource, cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	if cfg.Pricing.LotSize <= 0 {
		cfg.Pricing = cart.DefaultPricing
	}
	stores, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("cart cache: %w", err)
	}
	logger = logging.OrNop(logger).Named("cart")
	return &Service{
		stores:    stores,
		leases:    map[string]*lease{},
		snapshots: snapshots,
		products:  products,
		pricing:   cfg.Pricing,
		logger:    logger,
		storeOpts: []cart.Option{
			cart.WithPricing(cfg.Pricing),
			cart.WithStrictStock(cfg.StrictStock),
			cart.WithLogger(logger),
		},
	}, nil
}

func (s *Service) Pricing() cart.Pricing {
	return s.pricing
}

// NewSession returns a fresh shopper cart key.
func (s *Service) NewSession() string {
	return uuid.NewString()
}

// RegisterKey returns the cart key of a cashier register.
func RegisterKey(registerID string) string {
	return registerPrefix + strings.TrimSpace(registerID)
}

// ValidKey reports whether key is a session UUID or a register key.
func ValidKey(key string) bool {
	if id, ok := strings.CutPrefix(key, registerPrefix); ok {
		return id != "" && len(id) <= 64
	}
	_, err := uuid.Parse(key)
	return err == nil
}

// acquire returns the store for key and a release func the caller must call
// once done with it.
func (s *Service) acquire(ctx context.Context, key string) (*cart.Store, func(), error) {
	if !ValidKey(key) {
		return nil, nil, fmt.Errorf("cart %q: %w", key, domain.ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, leased := s.leases[key]
	var st *cart.Store
	if v, ok := s.stores.Get(key); ok {
		st = v.(*cart.Store)
	} else {
		if leased {
			st = l.store
		} else {
			st = cart.NewStore(ctx, key, s.snapshots, s.storeOpts...)
		}
		s.stores.Add(key, st)
	}
	if !leased {
		l = &lease{store: st}
		s.leases[key] = l
	}
	l.refs++

	return st, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(s.leases, key)
		}
	}, nil
}

func (s *Service) Get(ctx context.Context, key string) (View, error) {
	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return View{}, err
	}
	defer release()
	return view(st), nil
}

// State returns a copy of the cart for checkout.
func (s *Service) State(ctx context.Context, key string) (domain.CartState, error) {
	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return domain.CartState{}, err
	}
	defer release()
	return st.State(), nil
}

// Add resolves productID in the catalog so the cart holds current price and
// stock, then adds quantity to its line.
func (s *Service) Add(ctx context.Context, key, productID string, quantity int) (cart.Result, View, error) {
	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return cart.Result{}, View{}, err
	}
	defer release()
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return cart.Result{}, View{}, fmt.Errorf("product %s: %w", productID, err)
	}
	res, err := st.Add(ctx, *product, quantity)
	return res, view(st), err
}

func (s *Service) Remove(ctx context.Context, key, productID string) (cart.Result, View, error) {
	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return cart.Result{}, View{}, err
	}
	defer release()
	res, err := st.Remove(ctx, productID)
	return res, view(st), err
}

func (s *Service) SetQuantity(ctx context.Context, key, productID string, quantity int) (cart.Result, View, error) {
	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return cart.Result{}, View{}, err
	}
	defer release()
	res, err := st.SetQuantity(ctx, productID, quantity)
	return res, view(st), err
}

func (s *Service) Clear(ctx context.Context, key string) (cart.Result, View, error) {
	st, release, err := s.acquire(ctx, key)
	if err != nil {
		return cart.Result{}, View{}, err
	}
	defer release()
	res, err := st.Clear(ctx)
	return res, view(st), err
}

func view(st *cart.Store) View {
	state := st.State()
	return View{
		Key:       st.Key(),
		Items:     state.Items,
		Total:     state.Total,
		ItemCount: cart.ItemCount(state),
	}
}
