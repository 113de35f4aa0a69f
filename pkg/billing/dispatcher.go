package billing

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/formgate/pkg/ledger"
	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/metrics"
)

// Webhook outcomes reported to metrics.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Handlers applies the side effects of each known event kind. Every method must
// return an error rather than silently skip an event it cannot attribute.
type Handlers interface {
	SubscriptionCreated(ctx context.Context, evt Event) error
	SubscriptionUpdated(ctx context.Context, evt Event) error
	SubscriptionDeleted(ctx context.Context, evt Event) error
	PaymentSucceeded(ctx context.Context, evt Event) error
	PaymentFailed(ctx context.Context, evt Event) error
}

// Outcome describes how Dispatch disposed of an event.
type Outcome struct {
	EventID   string
	Duplicate bool
	Ignored   bool
}

// Dispatcher runs each event through the ledger so handlers apply at most once.
type Dispatcher struct {
	ledger   ledger.Ledger
	handlers Handlers
	log      *slog.Logger
	metrics  *metrics.Recorder
}

type DispatcherOption func(*Dispatcher)

func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

func WithMetrics(m *metrics.Recorder) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher panics on a nil ledger or handler set.
func NewDispatcher(l ledger.Ledger, h Handlers, opts ...DispatcherOption) *Dispatcher {
	if l == nil {
		panic(ErrLedgerRequired)
	}
	if h == nil {
		panic(ErrHandlersRequired)
	}
	d := &Dispatcher{ledger: l, handlers: h, log: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(logger.Component("billing"))
	return d
}

// Dispatch claims evt.ID, runs the handler for its kind and commits. Unknown kinds are
// acknowledged without touching the ledger. A handler failure releases the claim and
// returns a *RetryableError.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) (Outcome, error) {
	out := Outcome{EventID: evt.ID}
	log := d.log.With(logger.EventID(evt.ID), logger.EventType(evt.ProviderType))

	handle := d.handlerFor(evt.Kind)
	if handle == nil {
		log.InfoContext(ctx, "ignoring unhandled webhook event")
		d.metrics.WebhookEvent(string(evt.Kind), OutcomeIgnored)
		out.Ignored = true
		return out, nil
	}

	claimed, err := d.ledger.Claim(ctx, evt.ID)
	if err != nil {
		log.ErrorContext(ctx, "failed to claim webhook event", logger.Error(err))
		d.metrics.WebhookEvent(string(evt.Kind), OutcomeFailed)
		return out, &RetryableError{EventID: evt.ID, Err: err}
	}
	if !claimed {
		log.InfoContext(ctx, "duplicate webhook delivery")
		d.metrics.WebhookEvent(string(evt.Kind), OutcomeDuplicate)
		out.Duplicate = true
		return out, nil
	}

	if err := handle(ctx, evt); err != nil {
		log.ErrorContext(ctx, "webhook handler failed", logger.Error(err))
		if rerr := d.ledger.Release(context.WithoutCancel(ctx), evt.ID); rerr != nil {
			log.ErrorContext(ctx, "failed to release webhook claim", logger.Error(rerr))
		}
		d.metrics.WebhookEvent(string(evt.Kind), OutcomeFailed)
		return out, &RetryableError{EventID: evt.ID, Err: err}
	}

	// Side effects are applied; a failed commit leaves the lease to expire.
	if err := d.ledger.Commit(context.WithoutCancel(ctx), evt.ID); err != nil {
		log.ErrorContext(ctx, "failed to commit webhook event", logger.Error(err))
	}

	log.InfoContext(ctx, "webhook event processed")
	d.metrics.WebhookEvent(string(evt.Kind), OutcomeProcessed)
	return out, nil
}

func (d *Dispatcher) handlerFor(k Kind) func(context.Context, Event) error {
	switch k {
	case KindSubscriptionCreated:
		return d.handlers.SubscriptionCreated
	case KindSubscriptionUpdated:
		return d.handlers.SubscriptionUpdated
	case KindSubscriptionDeleted:
		return d.handlers.SubscriptionDeleted
	case KindPaymentSucceeded:
		return d.handlers.PaymentSucceeded
	case KindPaymentFailed:
		return d.handlers.PaymentFailed
	default:
		return nil
	}
}

// RecordRejected counts a delivery refused before dispatch.
func (d *Dispatcher) RecordRejected() {
	d.metrics.WebhookEvent(string(KindUnknown), OutcomeRejected)
}
