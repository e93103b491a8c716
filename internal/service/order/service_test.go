package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository/cartsnapshot"
	orderrepo "storefront/internal/repository/order"
	cartsvc "storefront/internal/service/cart"
)

type stubProducts map[string]domain.Product

func (s stubProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type stubRepo struct {
	created   []domain.Order
	createErr error
	filter    orderrepo.ListFilter
	orders    map[string]domain.Order
	since     time.Time
	paidAt    time.Time
}

func (r *stubRepo) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	o.ID = "order-1"
	r.created = append(r.created, o)
	return &o, nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (r *stubRepo) List(_ context.Context, f orderrepo.ListFilter) ([]domain.Order, error) {
	r.filter = f
	return nil, nil
}

func (r *stubRepo) UpdateStatus(_ context.Context, id, status string) (*domain.Order, error) {
	return &domain.Order{ID: id, Status: status}, nil
}

func (r *stubRepo) MarkPaid(_ context.Context, id string, at time.Time) (*domain.Order, error) {
	r.paidAt = at
	return &domain.Order{ID: id, IsPaid: true, PaidAt: &at}, nil
}

func (r *stubRepo) MarkDelivered(_ context.Context, id string, at time.Time) (*domain.Order, error) {
	return &domain.Order{ID: id, IsDelivered: true, DeliveredAt: &at, Status: domain.OrderDelivered}, nil
}

func (r *stubRepo) Stats(_ context.Context, since time.Time) (*domain.OrderStats, error) {
	r.since = since
	return &domain.OrderStats{}, nil
}

type recordingPublisher struct {
	orders []domain.Order
	err    error
}

func (p *recordingPublisher) OrderPlaced(_ context.Context, o domain.Order) error {
	p.orders = append(p.orders, o)
	return p.err
}

func intPtr(v int) *int { return &v }

type fixture struct {
	svc   *Service
	carts *cartsvc.Service
	repo  *stubRepo
	pub   *recordingPublisher
	key   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	products := stubProducts{
		"bolt":  {ID: "bolt", Name: "Bolt", Price: 150, Stock: intPtr(1000), Images: []string{"https://cdn.example.com/bolt.jpg"}},
		"drill": {ID: "drill", Name: "Drill", Price: 45000, Stock: intPtr(3)},
	}
	carts, err := cartsvc.New(cartsnapshot.NewMemory(), products, cartsvc.Config{}, nil)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	repo := &stubRepo{orders: map[string]domain.Order{}}
	pub := &recordingPublisher{}
	return fixture{
		svc:   New(repo, carts, pub, Config{DeliveryFee: 2000}, nil),
		carts: carts,
		repo:  repo,
		pub:   pub,
		key:   carts.NewSession(),
	}
}

func (f fixture) fill(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, _, err := f.carts.Add(ctx, f.key, "bolt", 2); err != nil {
		t.Fatalf("add bolt: %v", err)
	}
	if _, _, err := f.carts.Add(ctx, f.key, "drill", 1); err != nil {
		t.Fatalf("add drill: %v", err)
	}
}

func validInput() CheckoutInput {
	return CheckoutInput{
		PersonalInfo:   domain.PersonalInfo{FirstName: " Awa ", LastName: "Diop", Email: "AWA@example.com", Phone: "77 123 45 67"},
		DeliveryMethod: domain.DeliveryPickup,
	}
}

func TestCheckoutPickup(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	ctx := context.Background()

	o, err := f.svc.Checkout(ctx, f.key, validInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.ItemsPrice != 7500+45000 || o.ShippingPrice != 0 || o.TotalPrice != 52500 || o.TaxPrice != 0 {
		t.Fatalf("unexpected prices %+v", o)
	}
	if o.PaymentMethod != domain.PaymentCash || o.Status != domain.OrderPending || o.Source != domain.OrderSourceWeb {
		t.Fatalf("unexpected order defaults %+v", o)
	}
	if o.PersonalInfo.FirstName != "Awa" || o.PersonalInfo.Email != "awa@example.com" {
		t.Fatalf("personal info not normalised: %+v", o.PersonalInfo)
	}

	bolt := o.Items[0]
	if bolt.Quantity != 2 || bolt.Pieces != 50 || bolt.LineTotal != 7500 || bolt.Image != "https://cdn.example.com/bolt.jpg" {
		t.Fatalf("unexpected lot item %+v", bolt)
	}
	if drill := o.Items[1]; drill.Pieces != 1 || drill.LineTotal != 45000 {
		t.Fatalf("unexpected unit item %+v", drill)
	}

	if len(f.pub.orders) != 1 || f.pub.orders[0].ID != "order-1" {
		t.Fatalf("expected one published order, got %+v", f.pub.orders)
	}
	v, _ := f.carts.Get(ctx, f.key)
	if len(v.Items) != 0 || v.Total != 0 {
		t.Fatalf("cart not cleared after checkout: %+v", v)
	}
}

func TestCheckoutDeliveryAddsFeeAndNeedsAddress(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	ctx := context.Background()

	in := validInput()
	in.DeliveryMethod = domain.DeliveryDelivery
	if _, err := f.svc.Checkout(ctx, f.key, in); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without address, got %v", err)
	}

	in.ShippingAddress = &domain.ShippingAddress{Street: "Rue 10", City: "Dakar", PostalCode: "10200", Country: "SN"}
	o, err := f.svc.Checkout(ctx, f.key, in)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.ShippingPrice != 2000 || o.TotalPrice != 54500 || o.ShippingAddress == nil {
		t.Fatalf("unexpected delivery order %+v", o)
	}
}

func TestCheckoutPickupDropsAddress(t *testing.T) {
	f := newFixture(t)
	f.fill(t)

	in := validInput()
	in.ShippingAddress = &domain.ShippingAddress{City: "Dakar"}
	o, err := f.svc.Checkout(context.Background(), f.key, in)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.ShippingAddress != nil {
		t.Fatalf("pickup order kept an address")
	}
}

func TestCheckoutRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	ctx := context.Background()

	cases := map[string]func(*CheckoutInput){
		"bad phone":    func(in *CheckoutInput) { in.PersonalInfo.Phone = "12345" },
		"no name":      func(in *CheckoutInput) { in.PersonalInfo.FirstName = "  " },
		"bad email":    func(in *CheckoutInput) { in.PersonalInfo.Email = "nope" },
		"bad delivery": func(in *CheckoutInput) { in.DeliveryMethod = "drone" },
	}
	for name, mutate := range cases {
		in := validInput()
		mutate(&in)
		if _, err := f.svc.Checkout(ctx, f.key, in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
	if len(f.repo.created) != 0 {
		t.Fatalf("invalid checkouts reached the repository")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Checkout(context.Background(), f.key, validInput()); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCheckoutStockFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.repo.createErr = domain.ErrInsufficientStock
	ctx := context.Background()

	if _, err := f.svc.Checkout(ctx, f.key, validInput()); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if len(f.pub.orders) != 0 {
		t.Fatalf("nothing should be published")
	}
	if v, _ := f.carts.Get(ctx, f.key); len(v.Items) != 2 {
		t.Fatalf("cart must survive a failed checkout: %+v", v)
	}
}

func TestCheckoutPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.pub.err = errors.New("broker down")

	if _, err := f.svc.Checkout(context.Background(), f.key, validInput()); err != nil {
		t.Fatalf("publish failure must not fail checkout: %v", err)
	}
}

func TestCheckoutRegister(t *testing.T) {
	f := newFixture(t)
	f.key = cartsvc.RegisterKey("till-1")
	f.fill(t)

	o, err := f.svc.CheckoutRegister(context.Background(), f.key, RegisterCustomer{FirstName: "Moussa", LastName: "Fall", Phone: "0000"})
	if err != nil {
		t.Fatalf("checkout register: %v", err)
	}
	if o.Source != domain.OrderSourceRegister || o.DeliveryMethod != domain.DeliveryPickup || o.ShippingPrice != 0 {
		t.Fatalf("unexpected register order %+v", o)
	}

	if _, err := f.svc.CheckoutRegister(context.Background(), f.key, RegisterCustomer{FirstName: "Moussa"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetForUser(t *testing.T) {
	f := newFixture(t)
	owner := "u1"
	f.repo.orders["o1"] = domain.Order{ID: "o1", UserID: &owner}
	f.repo.orders["o2"] = domain.Order{ID: "o2"}
	ctx := context.Background()

	if _, err := f.svc.GetForUser(ctx, "o1", "u1"); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if _, err := f.svc.GetForUser(ctx, "o1", "u2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
	if _, err := f.svc.GetForUser(ctx, "o2", "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for guest order, got %v", err)
	}
}

func TestListAndStatusValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.List(ctx, "shipped"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.List(ctx, domain.OrderPending); err != nil || f.repo.filter.Status != domain.OrderPending {
		t.Fatalf("unexpected list %v %+v", err, f.repo.filter)
	}
	if _, err := f.svc.Mine(ctx, "u1"); err != nil || f.repo.filter.UserID != "u1" {
		t.Fatalf("unexpected mine %v %+v", err, f.repo.filter)
	}
	if _, err := f.svc.UpdateStatus(ctx, "o1", "lost"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if o, err := f.svc.UpdateStatus(ctx, "o1", domain.OrderProcessing); err != nil || o.Status != domain.OrderProcessing {
		t.Fatalf("unexpected update %v %+v", err, o)
	}
}

func TestMarkPaidUsesClock(t *testing.T) {
	f := newFixture(t)
	fixed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	if _, err := f.svc.MarkPaid(context.Background(), "o1"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if !f.repo.paidAt.Equal(fixed) {
		t.Fatalf("expected paidAt %v, got %v", fixed, f.repo.paidAt)
	}
}

func TestStatsWindow(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	if _, err := f.svc.Stats(ctx, 0); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if want := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC); !f.repo.since.Equal(want) {
		t.Fatalf("expected since %v, got %v", want, f.repo.since)
	}
	if _, err := f.svc.Stats(ctx, 1000); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
