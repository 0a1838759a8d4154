package order

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pkg/apperr"
	"storefront/internal/queue"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Service is the Order Ledger. Every status write goes through
// Repository.Mutate, which re-reads the order and payment under a row lock
// before the state machine runs.
type Service struct {
	orders Repository
	events *queue.Emitter
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(orders Repository, events *queue.Emitter, log zerolog.Logger) *Service {
	return &Service{
		orders: orders,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, caller domain.Identity, req CreateOrderRequest) (*domain.Order, error) {
	o, err := BuildOrder(caller.UserID, req, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.orders.CreateAggregate(ctx, o); err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info().
		Str("order_id", o.ID).
		Int64("user_id", o.UserID).
		Str("total", o.Billing.TotalAmount.StringFixed(2)).
		Msg("order created")
	return s.get(ctx, o.ID)
}

func (s *Service) ListMine(ctx context.Context, caller domain.Identity) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orders, nil
}

// Get returns the order to its owner or to an admin.
func (s *Service) Get(ctx context.Context, caller domain.Identity, id string) (*domain.Order, error) {
	o, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(o.UserID) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *Service) Track(ctx context.Context, caller domain.Identity, id string) (*Tracking, error) {
	o, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	t := &Tracking{
		OrderID:      o.ID,
		Status:       o.Status,
		OrderDate:    o.OrderDate,
		DeliveryDate: o.DeliveryDate,
		Updates:      Timeline(o),
	}
	if o.Payment != nil {
		t.Payment = o.Payment.Status
	}
	return t, nil
}

// Cancel cancels an order that has not been delivered. A PAID payment
// cascades to REFUNDED and a refund request is published.
func (s *Service) Cancel(ctx context.Context, caller domain.Identity, id string) (*domain.Order, error) {
	return s.transition(ctx, caller, id, "order.cancel", "Order cancelled", func(o *domain.Order) (domain.Outcome, error) {
		return domain.CancelOrder(o)
	})
}

// Return moves a delivered order to RETURNED and its payment to REFUNDED.
func (s *Service) Return(ctx context.Context, caller domain.Identity, id, reason string) (*domain.Order, error) {
	return s.transition(ctx, caller, id, "order.return", reason, func(o *domain.Order) (domain.Outcome, error) {
		return domain.ReturnOrder(o)
	})
}

// UpdatePayment is the operational path for recording a payment status
// reported out of band. The paymentId must be the order's payment.
func (s *Service) UpdatePayment(ctx context.Context, caller domain.Identity, id string, req UpdatePaymentRequest) (*domain.Order, error) {
	to := domain.PaymentStatus(req.Status)
	if !to.Valid() {
		return nil, ErrInvalidStatus.WithFields(map[string]string{"status": "oneof"})
	}
	return s.transition(ctx, caller, id, "order.payment_update", "Payment status updated", func(o *domain.Order) (domain.Outcome, error) {
		if o.Payment == nil {
			return domain.Outcome{}, domain.ErrOrderHasNoPayment.WithState(string(o.Status))
		}
		if o.Payment.ID != req.PaymentID && o.Payment.GatewayPaymentID != req.PaymentID {
			return domain.Outcome{}, ErrPaymentIDMismatch
		}
		if req.Method != "" {
			o.Payment.Method = domain.PaymentMethod(req.Method)
		}
		return domain.ApplyPaymentStatus(o, to, s.now())
	})
}

// AdminList returns all orders, newest first, optionally filtered by status.
func (s *Service) AdminList(ctx context.Context, status string, limit, offset int) ([]domain.Order, int64, error) {
	st := domain.OrderStatus(status)
	if st != "" && !st.Valid() {
		return nil, 0, ErrInvalidStatus.WithFields(map[string]string{"status": "oneof"})
	}
	orders, total, err := s.orders.List(ctx, st, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return orders, total, nil
}

// AdminSetStatus drives fulfilment. Cancel and return requests take the
// same path as the customer endpoints.
func (s *Service) AdminSetStatus(ctx context.Context, caller domain.Identity, id, status string) (*domain.Order, error) {
	to := domain.OrderStatus(status)
	if !to.Valid() {
		return nil, ErrInvalidStatus.WithFields(map[string]string{"status": "oneof"})
	}
	return s.transition(ctx, caller, id, "admin.set_status", "Status changed by staff", func(o *domain.Order) (domain.Outcome, error) {
		return domain.AdvanceOrder(o, to, s.now())
	})
}

type stepFunc func(o *domain.Order) (domain.Outcome, error)

// transition runs step on the locked aggregate after the ownership check and
// publishes the resulting events once the transaction has committed.
func (s *Service) transition(ctx context.Context, caller domain.Identity, id, source, reason string, step stepFunc) (*domain.Order, error) {
	var out domain.Outcome
	o, err := s.orders.Mutate(ctx, id, func(_ *gorm.DB, o *domain.Order) error {
		if !caller.Owns(o.UserID) {
			return ErrForbidden
		}
		var err error
		out, err = step(o)
		return err
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, apperr.From(err)
	}

	if out.Changed() {
		ev := s.log.Info().Str("order_id", o.ID).Str("source", source).Int64("actor_id", caller.UserID)
		if out.OrderChanged {
			ev = ev.Str("order_from", string(out.OrderFrom)).Str("order_to", string(o.Status))
		}
		if out.PaymentChanged && o.Payment != nil {
			ev = ev.Str("payment_from", string(out.PaymentFrom)).Str("payment_to", string(o.Payment.Status))
		}
		ev.Msg("order transition")
	}
	s.events.Outcome(ctx, o, out, source, reason)
	return o, nil
}

func (s *Service) get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, apperr.Internal(err)
	}
	return o, nil
}
