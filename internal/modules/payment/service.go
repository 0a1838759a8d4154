package payment

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/money"
	"storefront/internal/queue"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const defaultRefundReason = "Customer request"

// gatewayStatuses maps provider payment states onto local ones. "refunded"
// is absent: refund status is derived from processed refund rows only.
var gatewayStatuses = map[string]domain.PaymentStatus{
	"created":    domain.PaymentCreated,
	"authorized": domain.PaymentPending,
	"captured":   domain.PaymentPaid,
	"failed":     domain.PaymentFailed,
}

const gatewayRefunded = "refunded"

// Service reconciles local payments with the gateway. Status writes go
// through the locked order aggregate, the same as the Order Ledger.
type Service struct {
	orders   orderReader
	payments paymentRepo
	gateway  Gateway
	events   *queue.Emitter
	cfg      config.RazorpayConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(orders orderReader, payments paymentRepo, gateway Gateway, events *queue.Emitter, cfg config.RazorpayConfig, log zerolog.Logger) *Service {
	return &Service{
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		events:   events,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateGatewayOrder opens the one gateway order a domain order may have.
func (s *Service) CreateGatewayOrder(ctx context.Context, caller domain.Identity, req CreateOrderRequest) (*GatewayOrderRef, error) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !supportedCurrencies[currency] {
		return nil, ErrUnsupportedCurrency
	}
	minor, err := money.ToMinorUnits(req.Amount)
	if err != nil {
		return nil, ErrFractionalAmount
	}

	o, err := s.loadOrder(ctx, caller, req.OrderID)
	if err != nil {
		return nil, err
	}
	p := o.Payment
	if p == nil {
		return nil, domain.ErrOrderHasNoPayment.WithState(string(o.Status))
	}
	if p.GatewayOrderID != nil {
		return nil, ErrGatewayOrderExists
	}
	if o.Status != domain.OrderPending || (p.Status != domain.PaymentCreated && p.Status != domain.PaymentPending) {
		return nil, ErrOrderNotPayable.WithState(string(o.Status))
	}
	if o.Billing == nil || !req.Amount.Equal(o.Billing.TotalAmount) {
		return nil, ErrAmountMismatch
	}

	g, err := s.gateway.CreateOrder(ctx, GatewayOrderRequest{
		Amount:   minor,
		Currency: currency,
		Receipt:  o.ID,
		Notes: map[string]string{
			"order_id": o.ID,
			"user_id":  strconv.FormatInt(o.UserID, 10),
		},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", o.ID).Msg("gateway order creation failed")
		return nil, apperr.From(err)
	}

	attach := *p
	attach.GatewayOrderID = &g.ID
	attach.Currency = currency
	attach.CustomerName = req.CustomerDetails.Name
	attach.CustomerEmail = req.CustomerDetails.Email
	attach.CustomerPhone = req.CustomerDetails.Phone
	if err := s.payments.AttachGatewayOrder(ctx, &attach); err != nil {
		if errors.Is(err, repository.ErrGatewayOrderAttached) {
			s.log.Warn().Str("order_id", o.ID).Str("gateway_order_id", g.ID).Msg("gateway order lost the attach race and is left unused")
			return nil, ErrGatewayOrderExists
		}
		return nil, apperr.Internal(err)
	}

	s.log.Info().
		Str("order_id", o.ID).
		Str("gateway_order_id", g.ID).
		Int64("amount_minor", minor).
		Str("currency", currency).
		Msg("gateway order created")

	return &GatewayOrderRef{
		OrderID:         o.ID,
		GatewayOrderID:  g.ID,
		Amount:          req.Amount,
		AmountMinor:     minor,
		Currency:        currency,
		KeyID:           s.cfg.KeyID,
		CustomerDetails: req.CustomerDetails,
	}, nil
}

// Verify checks the checkout signature and marks the payment PAID.
// Replaying the same gateway payment is a no-op.
func (s *Service) Verify(ctx context.Context, caller domain.Identity, req VerifyRequest) (*VerifyResponse, error) {
	if s.cfg.KeySecret == "" {
		return nil, ErrNotConfigured
	}
	if !VerifySignature(s.cfg.KeySecret, req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		s.log.Warn().
			Str("order_id", req.OrderID).
			Str("gateway_order_id", req.GatewayOrderID).
			Str("gateway_payment_id", req.GatewayPaymentID).
			Msg("payment signature rejected")
		return nil, ErrInvalidSignature
	}

	p, err := s.payments.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, s.notFound(err)
	}
	if p.GatewayOrderID == nil || *p.GatewayOrderID != req.GatewayOrderID {
		return nil, ErrPaymentNotFound
	}

	o, err := s.mutate(ctx, p.ID, "payment.verify", "", func(_ *gorm.DB, o *domain.Order) (domain.Outcome, error) {
		if !caller.Owns(o.UserID) {
			return domain.Outcome{}, ErrForbidden
		}
		return s.markPaid(o, req.GatewayPaymentID, req.GatewaySignature)
	})
	if err != nil {
		return nil, err
	}
	return &VerifyResponse{
		OrderID:     o.ID,
		PaymentID:   req.GatewayPaymentID,
		Status:      o.Payment.Status,
		OrderStatus: o.Status,
	}, nil
}

// Capture captures an authorized payment and mirrors the gateway's answer.
func (s *Service) Capture(ctx context.Context, caller domain.Identity, req CaptureRequest) (*CaptureResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	minor, err := money.ToMinorUnits(req.Amount)
	if err != nil {
		return nil, ErrFractionalAmount
	}

	o, err := s.loadOrder(ctx, caller, req.OrderID)
	if err != nil {
		return nil, err
	}
	p := o.Payment
	if p == nil || p.GatewayPaymentID == "" || p.GatewayPaymentID != req.GatewayPaymentID {
		return nil, ErrPaymentNotFound
	}
	if !req.Amount.Equal(p.Amount) {
		return nil, ErrAmountMismatch
	}

	gp, err := s.gateway.Capture(ctx, p.GatewayPaymentID, minor, p.Currency)
	if err != nil {
		s.log.Warn().Err(err).Str("payment_id", p.ID).Str("gateway_payment_id", p.GatewayPaymentID).Msg("gateway capture failed")
		return nil, apperr.From(err)
	}

	o, err = s.mutate(ctx, p.ID, "payment.capture", "", func(_ *gorm.DB, o *domain.Order) (domain.Outcome, error) {
		return s.mirror(o, gp.Status)
	})
	if err != nil {
		return nil, err
	}
	return &CaptureResponse{
		OrderID:        o.ID,
		PaymentID:      gp.ID,
		CapturedAmount: req.Amount,
		GatewayStatus:  gp.Status,
		Status:         o.Payment.Status,
	}, nil
}

// Refund refunds part or all of the remaining balance. Customers may only
// refund orders that are cancelled or returned; admins may refund at any
// stage. The gateway is called while the aggregate is locked so two refunds
// cannot both pass the remaining-balance check.
func (s *Service) Refund(ctx context.Context, caller domain.Identity, paymentID string, req RefundRequest) (*RefundResponse, error) {
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		if !money.HasMinorPrecision(*req.Amount) {
			return nil, ErrFractionalAmount
		}
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultRefundReason
	}

	var res RefundResponse
	var gatewayRefundID string
	o, err := s.mutate(ctx, paymentID, "payment.refund", reason, func(tx *gorm.DB, o *domain.Order) (domain.Outcome, error) {
		if !caller.Owns(o.UserID) {
			return domain.Outcome{}, ErrForbidden
		}
		if !caller.Can(domain.CapAdminOrAbove) && o.Status != domain.OrderCancelled && o.Status != domain.OrderReturned {
			return domain.Outcome{}, ErrRefundRequiresAdmin
		}
		p := o.Payment
		if !domain.Refundable(p.Status) {
			return domain.Outcome{}, domain.ErrPaymentNotRefundable.WithState(string(p.Status))
		}
		if p.GatewayPaymentID == "" {
			return domain.Outcome{}, ErrNoGatewayPayment.WithState(string(p.Status))
		}

		refunded, err := repository.ProcessedRefundTotal(tx, p.ID)
		if err != nil {
			return domain.Outcome{}, err
		}
		remaining := p.Amount.Sub(refunded)
		if !remaining.IsPositive() {
			return domain.Outcome{}, ErrPaymentFullyRefunded.WithState(string(p.Status))
		}
		amount := remaining
		if req.Amount != nil {
			amount = *req.Amount
			if amount.GreaterThan(p.Amount) {
				return domain.Outcome{}, ErrRefundExceedsPayment
			}
			if amount.GreaterThan(remaining) {
				return domain.Outcome{}, ErrRefundExceedsRemaining
			}
		}
		minor, err := money.ToMinorUnits(amount)
		if err != nil {
			return domain.Outcome{}, ErrFractionalAmount
		}

		gr, err := s.gateway.Refund(ctx, p.GatewayPaymentID, minor, map[string]string{
			"order_id": o.ID,
			"reason":   reason,
		})
		if err != nil {
			return domain.Outcome{}, err
		}
		gatewayRefundID = gr.ID

		now := s.now()
		rf := &domain.PaymentRefund{
			ID:              uuid.NewString(),
			PaymentID:       p.ID,
			GatewayRefundID: gr.ID,
			Amount:          amount,
			Status:          domain.RefundProcessed,
			Reason:          reason,
			ProcessedAt:     &now,
		}
		if err := repository.CreateRefund(tx, rf); err != nil {
			return domain.Outcome{}, err
		}

		total := refunded.Add(amount)
		res = RefundResponse{
			OrderID:       o.ID,
			PaymentID:     p.ID,
			RefundID:      gr.ID,
			RefundAmount:  amount,
			RefundedTotal: total,
		}
		return domain.ApplyPaymentStatus(o, domain.RefundStatusFor(total, p.Amount), now)
	})
	if err != nil {
		if gatewayRefundID != "" {
			s.log.Error().Err(err).
				Str("payment_id", paymentID).
				Str("gateway_refund_id", gatewayRefundID).
				Msg("gateway refund succeeded but was not recorded")
		}
		return nil, err
	}

	res.Status = o.Payment.Status
	s.log.Info().
		Str("payment_id", res.PaymentID).
		Str("refund_id", res.RefundID).
		Str("amount", res.RefundAmount.StringFixed(2)).
		Str("status", string(res.Status)).
		Msg("refund processed")
	return &res, nil
}

// Status returns the local payment, first pulling the gateway's view when a
// gateway payment is bound. Sync failures never fail the read.
func (s *Service) Status(ctx context.Context, caller domain.Identity, paymentID string) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, s.notFound(err)
	}
	if _, err := s.loadOrder(ctx, caller, p.OrderID); err != nil {
		return nil, err
	}
	if p.GatewayPaymentID == "" {
		return p, nil
	}

	gp, err := s.gateway.FetchPayment(ctx, p.GatewayPaymentID)
	if err != nil {
		s.log.Warn().Err(err).Str("payment_id", p.ID).Msg("gateway status sync failed")
		return p, nil
	}
	if gp.Status == gatewayRefunded && p.Status != domain.PaymentRefunded {
		s.log.Warn().
			Str("payment_id", p.ID).
			Str("local", string(p.Status)).
			Msg("gateway reports a refund with no processed refund recorded")
		return p, nil
	}
	if to, ok := gatewayStatuses[gp.Status]; !ok || to == p.Status {
		return p, nil
	}

	o, err := s.mutate(ctx, p.ID, "payment.sync", "", func(_ *gorm.DB, o *domain.Order) (domain.Outcome, error) {
		return s.mirror(o, gp.Status)
	})
	if err != nil {
		s.log.Warn().Err(err).Str("payment_id", p.ID).Msg("gateway status sync failed")
		return p, nil
	}
	return o.Payment, nil
}

// HandleWebhook applies payment.captured and payment.failed events. Events
// that cannot apply any more are acknowledged so the provider stops
// redelivering them; only storage failures are returned.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if s.cfg.WebhookSecret == "" {
		return ErrNotConfigured
	}
	if !VerifyWebhook(s.cfg.WebhookSecret, body, signature) {
		s.log.Warn().Msg("webhook signature rejected")
		return ErrInvalidWebhookSignature
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ErrMalformedWebhook
	}
	var to domain.PaymentStatus
	switch ev.Event {
	case "payment.captured":
		to = domain.PaymentPaid
	case "payment.failed":
		to = domain.PaymentFailed
	default:
		s.log.Debug().Str("event", ev.Event).Msg("webhook event ignored")
		return nil
	}

	entity := ev.Payload.Payment.Entity
	if entity.OrderID == "" || entity.ID == "" {
		return ErrMalformedWebhook
	}
	p, err := s.payments.GetByGatewayOrderID(ctx, entity.OrderID)
	if err != nil {
		if repository.IsNotFound(err) {
			s.log.Warn().Str("gateway_order_id", entity.OrderID).Msg("webhook for unknown gateway order")
			return nil
		}
		return apperr.Internal(err)
	}
	if to == domain.PaymentPaid {
		if minor, err := money.ToMinorUnits(p.Amount); err != nil || entity.Amount != minor {
			s.log.Error().
				Str("payment_id", p.ID).
				Int64("captured_minor", entity.Amount).
				Str("expected", p.Amount.StringFixed(2)).
				Msg("webhook amount mismatch")
			return nil
		}
	}

	_, err = s.mutate(ctx, p.ID, "payment.webhook", ev.Event, func(_ *gorm.DB, o *domain.Order) (domain.Outcome, error) {
		if to == domain.PaymentPaid {
			return s.markPaid(o, entity.ID, "")
		}
		if o.Payment.Status == to || !domain.CanTransitionPayment(o.Payment.Status, to) {
			return domain.Outcome{}, nil
		}
		return domain.ApplyPaymentStatus(o, to, s.now())
	})
	if err != nil {
		if apperr.IsKind(err, apperr.KindState) || apperr.IsKind(err, apperr.KindConflict) {
			s.log.Warn().Err(err).Str("payment_id", p.ID).Str("event", ev.Event).Msg("webhook event no longer applies")
			return nil
		}
		return err
	}
	return nil
}

// markPaid binds the gateway payment and moves the payment to PAID.
func (s *Service) markPaid(o *domain.Order, gatewayPaymentID, signature string) (domain.Outcome, error) {
	p := o.Payment
	if p.PaidAt != nil && p.GatewayPaymentID != "" {
		if p.GatewayPaymentID != gatewayPaymentID {
			return domain.Outcome{}, ErrPaymentAlreadyBound
		}
		return domain.Outcome{}, nil
	}
	p.GatewayPaymentID = gatewayPaymentID
	if signature != "" {
		p.GatewaySignature = signature
	}
	return domain.ConfirmGatewayPayment(o, s.now())
}

// mirror applies the gateway status when the transition table allows it.
func (s *Service) mirror(o *domain.Order, gatewayStatus string) (domain.Outcome, error) {
	p := o.Payment
	to, ok := gatewayStatuses[gatewayStatus]
	if !ok || p.Status == to {
		return domain.Outcome{}, nil
	}
	if to == domain.PaymentPaid && p.Status == domain.PaymentFailed {
		return domain.ConfirmGatewayPayment(o, s.now())
	}
	if !domain.CanTransitionPayment(p.Status, to) {
		s.log.Info().
			Str("payment_id", p.ID).
			Str("local", string(p.Status)).
			Str("gateway", gatewayStatus).
			Msg("gateway status not mirrored")
		return domain.Outcome{}, nil
	}
	return domain.ApplyPaymentStatus(o, to, s.now())
}

type stepFunc func(tx *gorm.DB, o *domain.Order) (domain.Outcome, error)

// mutate runs step on the locked aggregate of paymentID and publishes the
// outcome after commit. The returned order carries the fresh payment.
func (s *Service) mutate(ctx context.Context, paymentID, source, reason string, step stepFunc) (*domain.Order, error) {
	var (
		out domain.Outcome
		agg *domain.Order
	)
	p, err := s.payments.Mutate(ctx, paymentID, func(tx *gorm.DB, o *domain.Order) error {
		var err error
		out, err = step(tx, o)
		agg = o
		return err
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPaymentNotFound
		}
		return nil, apperr.From(err)
	}
	agg.Payment = p

	if out.Changed() {
		ev := s.log.Info().Str("order_id", agg.ID).Str("payment_id", p.ID).Str("source", source)
		if out.PaymentChanged {
			ev = ev.Str("payment_from", string(out.PaymentFrom)).Str("payment_to", string(p.Status))
		}
		if out.OrderChanged {
			ev = ev.Str("order_from", string(out.OrderFrom)).Str("order_to", string(agg.Status))
		}
		ev.Msg("payment transition")
	}
	s.events.Outcome(ctx, agg, out, source, reason)
	return agg, nil
}

func (s *Service) loadOrder(ctx context.Context, caller domain.Identity, id string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, apperr.Internal(err)
	}
	if !caller.Owns(o.UserID) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *Service) notFound(err error) error {
	if repository.IsNotFound(err) {
		return ErrPaymentNotFound
	}
	return apperr.Internal(err)
}
