package domain

import "time"

const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"

	DeliveryPickup   = "pickup"
	DeliveryDelivery = "delivery"

	PaymentCash = "cash"

	OrderSourceWeb      = "web"
	OrderSourceRegister = "register"
)

// OrderItem is the read-only projection of a cart line taken at checkout.
// Price is the unit price; Quantity keeps the cart's unit (lots for lot items).
type OrderItem struct {
	ProductID string `json:"product"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Image     string `json:"image,omitempty"`
	Pieces    int    `json:"pieces"`
	LineTotal int64  `json:"lineTotal"`
}

type PersonalInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required,phone"`
}

type ShippingAddress struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

type Order struct {
	ID              string           `json:"_id"`
	UserID          *string          `json:"user,omitempty"`
	Items           []OrderItem      `json:"orderItems"`
	PersonalInfo    PersonalInfo     `json:"personalInfo"`
	DeliveryMethod  string           `json:"deliveryMethod"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	PaymentMethod   string           `json:"paymentMethod"`
	ItemsPrice      int64            `json:"itemsPrice"`
	TaxPrice        int64            `json:"taxPrice"`
	ShippingPrice   int64            `json:"shippingPrice"`
	TotalPrice      int64            `json:"totalPrice"`
	IsPaid          bool             `json:"isPaid"`
	PaidAt          *time.Time       `json:"paidAt,omitempty"`
	IsDelivered     bool             `json:"isDelivered"`
	DeliveredAt     *time.Time       `json:"deliveredAt,omitempty"`
	Status          string           `json:"status"`
	Source          string           `json:"source"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// OrderStats summarises orders for the back-office dashboard.
type OrderStats struct {
	TotalOrders     int          `json:"totalOrders"`
	PendingOrders   int          `json:"pendingOrders"`
	DeliveredOrders int          `json:"deliveredOrders"`
	TotalRevenue    int64        `json:"totalRevenue"`
	Daily           []DailyStats `json:"daily"`
}

type DailyStats struct {
	Day     time.Time `json:"day"`
	Orders  int       `json:"orders"`
	Revenue int64     `json:"revenue"`
}
