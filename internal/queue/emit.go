package queue

import (
	"context"
	"time"

	"storefront/internal/domain"

	"github.com/rs/zerolog"
)

// Emitter publishes the events implied by a committed state transition.
// Publish failures are logged and never returned: the database is the
// source of truth and consumers reconcile from it.
type Emitter struct {
	pub Publisher
	log zerolog.Logger
}

func NewEmitter(pub Publisher, log zerolog.Logger) *Emitter {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Emitter{pub: pub, log: log}
}

// Outcome emits order.status_changed when anything changed and
// payment.refund_requested when a cascade recorded refund intent.
func (e *Emitter) Outcome(ctx context.Context, o *domain.Order, out domain.Outcome, source, reason string) {
	if !out.Changed() {
		return
	}
	now := time.Now().UTC()

	ev := OrderStatusChanged{
		OrderID:    o.ID,
		UserID:     o.UserID,
		From:       string(out.OrderFrom),
		To:         string(o.Status),
		Source:     source,
		OccurredAt: now,
	}
	if !out.OrderChanged {
		ev.From = string(o.Status)
	}
	if o.Payment != nil {
		ev.PaymentStatus = string(o.Payment.Status)
	}
	e.publish(ctx, RoutingOrderStatusChanged, ev)

	if out.RefundRequested && o.Payment != nil {
		e.publish(ctx, RoutingPaymentRefundRequest, RefundRequested{
			OrderID:    o.ID,
			PaymentID:  o.Payment.ID,
			Amount:     o.Payment.Amount,
			Currency:   o.Payment.Currency,
			Reason:     reason,
			OccurredAt: now,
		})
	}
}

func (e *Emitter) publish(ctx context.Context, key string, event any) {
	if err := e.pub.Publish(ctx, key, event); err != nil {
		e.log.Warn().Err(err).Str("routing_key", key).Msg("event publish failed")
	}
}
