// Package order turns carts into orders and serves the back office.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/logging"
	orderrepo "storefront/internal/repository/order"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/validation"
)

type carts interface {
	State(ctx context.Context, key string) (domain.CartState, error)
	Clear(ctx context.Context, key string) (cart.Result, cartsvc.View, error)
}

// Publisher announces committed orders.
type Publisher interface {
	OrderPlaced(ctx context.Context, o domain.Order) error
}

type Config struct {
	Pricing     cart.Pricing
	DeliveryFee int64
}

type Service struct {
	repo      orderrepo.Repository
	carts     carts
	publisher Publisher
	pricing   cart.Pricing
	fee       int64
	now       func() time.Time
	logger    *zap.Logger
}

func New(repo orderrepo.Repository, carts carts, publisher Publisher, cfg Config, logger *zap.Logger) *Service {
	if cfg.Pricing.LotSize <= 0 {
		cfg.Pricing = cart.DefaultPricing
	}
	return &Service{
		repo:      repo,
		carts:     carts,
		publisher: publisher,
		pricing:   cfg.Pricing,
		fee:       cfg.DeliveryFee,
		now:       time.Now,
		logger:    logging.OrNop(logger).Named("order"),
	}
}

// CheckoutInput is what a shopper submits from the checkout page.
type CheckoutInput struct {
	PersonalInfo    domain.PersonalInfo     `json:"personalInfo"`
	DeliveryMethod  string                  `json:"deliveryMethod" validate:"required,oneof=pickup delivery"`
	ShippingAddress *domain.ShippingAddress `json:"shippingAddress,omitempty"`
	UserID          *string                 `json:"-"`
}

// RegisterCustomer is the lighter customer record taken at the till.
type RegisterCustomer struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required"`
}

// Checkout places an order for the cart behind cartKey and empties the cart.
func (s *Service) Checkout(ctx context.Context, cartKey string, in CheckoutInput) (*domain.Order, error) {
	trimPersonal(&in.PersonalInfo)
	if in.DeliveryMethod != domain.DeliveryDelivery {
		in.ShippingAddress = nil
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.DeliveryMethod == domain.DeliveryDelivery && in.ShippingAddress == nil {
		return nil, fmt.Errorf("%w: shippingAddress is required for delivery", domain.ErrInvalidInput)
	}

	o := domain.Order{
		UserID:          in.UserID,
		PersonalInfo:    in.PersonalInfo,
		DeliveryMethod:  in.DeliveryMethod,
		ShippingAddress: in.ShippingAddress,
		Source:          domain.OrderSourceWeb,
	}
	if in.DeliveryMethod == domain.DeliveryDelivery {
		o.ShippingPrice = s.fee
	}
	return s.place(ctx, cartKey, o)
}

// CheckoutRegister places a till order: pickup, cash, email optional.
func (s *Service) CheckoutRegister(ctx context.Context, cartKey string, c RegisterCustomer) (*domain.Order, error) {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	if err := validation.Struct(c); err != nil {
		return nil, err
	}

	return s.place(ctx, cartKey, domain.Order{
		PersonalInfo: domain.PersonalInfo{
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
		},
		DeliveryMethod: domain.DeliveryPickup,
		Source:         domain.OrderSourceRegister,
	})
}

func (s *Service) place(ctx context.Context, cartKey string, o domain.Order) (*domain.Order, error) {
	state, err := s.carts.State(ctx, cartKey)
	if err != nil {
		return nil, err
	}
	if len(state.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
	}

	o.Items = Items(s.pricing, state)
	o.ItemsPrice = s.pricing.Total(state.Items)
	o.TaxPrice = 0
	o.TotalPrice = o.ItemsPrice + o.ShippingPrice
	o.PaymentMethod = domain.PaymentCash
	o.Status = domain.OrderPending

	created, err := s.repo.Create(ctx, o)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order placed",
		zap.String("order_id", created.ID),
		zap.String("source", created.Source),
		zap.Int64("total", created.TotalPrice),
		zap.Int("items", len(created.Items)),
	)

	if err := s.publisher.OrderPlaced(ctx, *created); err != nil {
		s.logger.Warn("publish order placed", zap.String("order_id", created.ID), zap.Error(err))
	}
	if _, _, err := s.carts.Clear(ctx, cartKey); err != nil {
		s.logger.Warn("clear cart after checkout", zap.String("cart", cartKey), zap.Error(err))
	}
	return created, nil
}

// Items projects cart lines into order items, keeping the cart's quantity
// unit and recording the pieces and line total it implies.
func Items(p cart.Pricing, state domain.CartState) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(state.Items))
	for _, line := range state.Items {
		items = append(items, domain.OrderItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Quantity:  line.Quantity,
			Price:     line.Product.Price,
			Image:     line.Product.PrimaryImage(),
			Pieces:    p.Pieces(line.Product, line.Quantity),
			LineTotal: p.LineTotal(line),
		})
	}
	return items
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForUser returns the order only when it belongs to userID.
func (s *Service) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, status string) ([]domain.Order, error) {
	if status != "" && !domain.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	return s.repo.List(ctx, orderrepo.ListFilter{Status: status})
}

func (s *Service) Mine(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.List(ctx, orderrepo.ListFilter{UserID: userID})
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	o, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status changed", zap.String("order_id", id), zap.String("status", status))
	return o, nil
}

func (s *Service) MarkPaid(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.MarkPaid(ctx, id, s.now().UTC())
}

func (s *Service) MarkDelivered(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.MarkDelivered(ctx, id, s.now().UTC())
}

// Stats aggregates orders with a per-day series covering the last days days,
// today included.
func (s *Service) Stats(ctx context.Context, days int) (*domain.OrderStats, error) {
	if days <= 0 {
		days = 7
	}
	if days > 365 {
		return nil, fmt.Errorf("%w: days must be at most 365", domain.ErrInvalidInput)
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.Stats(ctx, today.AddDate(0, 0, -(days-1)))
}

func trimPersonal(p *domain.PersonalInfo) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
}
