package notifications

import (
	"context"
	"errors"
	"fmt"

	"plantshop/internal/models"
	pkgerrors "plantshop/pkg/errors"
)

// Dispatcher turns order events into customer and operator emails.
type Dispatcher struct {
	sender        Sender
	renderer      *Renderer
	operatorEmail string
}

func NewDispatcher(sender Sender, renderer *Renderer, operatorEmail string) *Dispatcher {
	return &Dispatcher{sender: sender, renderer: renderer, operatorEmail: operatorEmail}
}

// OrderPlaced sends the confirmation to the customer and the new-order email to the operator.
// Both are attempted even if the first fails.
func (d *Dispatcher) OrderPlaced(ctx context.Context, order *models.Order) error {
	var errs []error
	if err := d.sendCustomer(ctx, order, fmt.Sprintf("Your order #%d has been received", order.ID)); err != nil {
		errs = append(errs, err)
	}
	if d.operatorEmail != "" {
		body, err := d.renderer.OperatorNewOrder(order)
		if err == nil {
			err = d.sender.Send(ctx, Message{
				To:      d.operatorEmail,
				Subject: fmt.Sprintf("New order #%d", order.ID),
				HTML:    body,
			})
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("operator email: %w", err))
		}
	}
	return fault(errs)
}

// OrderStatusChanged tells the customer about the new status.
func (d *Dispatcher) OrderStatusChanged(ctx context.Context, order *models.Order, _ models.OrderStatus) error {
	if err := d.sendCustomer(ctx, order, fmt.Sprintf("Your order #%d has been updated", order.ID)); err != nil {
		return fault([]error{err})
	}
	return nil
}

func (d *Dispatcher) sendCustomer(ctx context.Context, order *models.Order, subject string) error {
	if order.User == nil || order.User.Email == "" {
		return fmt.Errorf("customer email: order %d has no customer address", order.ID)
	}
	body, err := d.renderer.CustomerStatus(order)
	if err != nil {
		return fmt.Errorf("customer email: %w", err)
	}
	if err := d.sender.Send(ctx, Message{To: order.User.Email, Subject: subject, HTML: body}); err != nil {
		return fmt.Errorf("customer email: %w", err)
	}
	return nil
}

func fault(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeNotification, errors.Join(errs...), "notification delivery failed")
}
