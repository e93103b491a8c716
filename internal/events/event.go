// Package events carries order events over RabbitMQ.
package events

import (
	"time"

	"storefront/internal/domain"
)

const TypeOrderPlaced = "order.placed"

// OrderPlaced is published once an order has been committed.
type OrderPlaced struct {
	Type           string              `json:"type"`
	OrderID        string              `json:"orderId"`
	Source         string              `json:"source"`
	Customer       domain.PersonalInfo `json:"customer"`
	DeliveryMethod string              `json:"deliveryMethod"`
	Items          []domain.OrderItem  `json:"items"`
	ItemsPrice     int64               `json:"itemsPrice"`
	ShippingPrice  int64               `json:"shippingPrice"`
	TotalPrice     int64               `json:"totalPrice"`
	PlacedAt       time.Time           `json:"placedAt"`
}

func NewOrderPlaced(o domain.Order) OrderPlaced {
	return OrderPlaced{
		Type:           TypeOrderPlaced,
		OrderID:        o.ID,
		Source:         o.Source,
		Customer:       o.PersonalInfo,
		DeliveryMethod: o.DeliveryMethod,
		Items:          o.Items,
		ItemsPrice:     o.ItemsPrice,
		ShippingPrice:  o.ShippingPrice,
		TotalPrice:     o.TotalPrice,
		PlacedAt:       o.CreatedAt,
	}
}
