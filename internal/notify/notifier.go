package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/logging"
)

// Notifier turns order events into a customer confirmation and a staff alert.
type Notifier struct {
	mailer Mailer
	staff  string
	logger *zap.Logger
}

func New(mailer Mailer, staffEmail string, logger *zap.Logger) *Notifier {
	return &Notifier{
		mailer: mailer,
		staff:  staffEmail,
		logger: logging.OrNop(logger).Named("notifier"),
	}
}

// OrderPlaced is an events.Handler.
func (n *Notifier) OrderPlaced(ctx context.Context, ev events.OrderPlaced) error {
	var errs []error

	if ev.Customer.Email != "" {
		if err := n.mailer.Send(ctx, CustomerConfirmation(ev)); err != nil {
			errs = append(errs, fmt.Errorf("customer confirmation: %w", err))
		}
	} else {
		n.logger.Debug("no customer email, skipping confirmation", zap.String("order_id", ev.OrderID))
	}

	if n.staff != "" {
		if err := n.mailer.Send(ctx, StaffAlert(ev, n.staff)); err != nil {
			errs = append(errs, fmt.Errorf("staff alert: %w", err))
		}
	}

	return errors.Join(errs...)
}

func CustomerConfirmation(ev events.OrderPlaced) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", ev.Customer.FirstName)
	fmt.Fprintf(&b, "We received your order %s.\n\n", shortID(ev.OrderID))
	writeSummary(&b, ev)
	if ev.DeliveryMethod == domain.DeliveryPickup {
		b.WriteString("\nYour order will be ready for pickup at the shop. Payment is cash on collection.\n")
	} else {
		b.WriteString("\nWe will contact you to arrange delivery. Payment is cash on delivery.\n")
	}

	return Message{
		To:      ev.Customer.Email,
		ToName:  strings.TrimSpace(ev.Customer.FirstName + " " + ev.Customer.LastName),
		Subject: fmt.Sprintf("Order %s confirmed", shortID(ev.OrderID)),
		Body:    b.String(),
	}
}

func StaffAlert(ev events.OrderPlaced, staff string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s order %s\n\n", ev.Source, ev.OrderID)
	fmt.Fprintf(&b, "Customer: %s %s\nPhone: %s\n", ev.Customer.FirstName, ev.Customer.LastName, ev.Customer.Phone)
	if ev.Customer.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", ev.Customer.Email)
	}
	fmt.Fprintf(&b, "Delivery: %s\n\n", ev.DeliveryMethod)
	writeSummary(&b, ev)

	return Message{
		To:      staff,
		Subject: fmt.Sprintf("New order %s (%d)", shortID(ev.OrderID), ev.TotalPrice),
		Body:    b.String(),
	}
}

func writeSummary(b *strings.Builder, ev events.OrderPlaced) {
	for _, it := range ev.Items {
		fmt.Fprintf(b, "- %s x%d", it.Name, it.Quantity)
		if it.Pieces != it.Quantity {
			fmt.Fprintf(b, " (%d pcs)", it.Pieces)
		}
		fmt.Fprintf(b, ": %d\n", it.LineTotal)
	}
	fmt.Fprintf(b, "\nItems: %d\nShipping: %d\nTotal: %d\n", ev.ItemsPrice, ev.ShippingPrice, ev.TotalPrice)
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
