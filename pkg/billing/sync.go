package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/account"
	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/tier"
)

// SubscriptionSync applies billing events to account profiles.
type SubscriptionSync struct {
	accounts account.Store
	prices   tier.PriceMap
	log      *slog.Logger
}

var _ Handlers = (*SubscriptionSync)(nil)

func NewSubscriptionSync(accounts account.Store, prices tier.PriceMap, log *slog.Logger) *SubscriptionSync {
	if log == nil {
		log = logger.Nop()
	}
	return &SubscriptionSync{accounts: accounts, prices: prices, log: log.With(logger.Component("billing"))}
}

func (s *SubscriptionSync) SubscriptionCreated(ctx context.Context, evt Event) error {
	return s.applySubscription(ctx, evt, account.StatusActive)
}

func (s *SubscriptionSync) SubscriptionUpdated(ctx context.Context, evt Event) error {
	return s.applySubscription(ctx, evt, account.StatusActive)
}

func (s *SubscriptionSync) SubscriptionDeleted(ctx context.Context, evt Event) error {
	id, err := s.accountFor(ctx, evt)
	if err != nil {
		return err
	}
	upd := account.SubscriptionUpdate{
		SubscriptionID: evt.SubscriptionID,
		Tier:           tier.Free,
		Status:         account.StatusCanceled,
		OccurredAt:     evt.OccurredAt,
	}
	applied, err := s.save(ctx, evt, id, upd)
	if err != nil {
		return fmt.Errorf("billing: cancel subscription: %w", err)
	}
	if applied {
		s.log.InfoContext(ctx, "subscription canceled", logger.AccountID(id), logger.Tier(tier.Free.String()))
	}
	return nil
}

func (s *SubscriptionSync) PaymentSucceeded(ctx context.Context, evt Event) error {
	return s.setStatus(ctx, evt, account.StatusActive)
}

func (s *SubscriptionSync) PaymentFailed(ctx context.Context, evt Event) error {
	return s.setStatus(ctx, evt, account.StatusPastDue)
}

func (s *SubscriptionSync) applySubscription(ctx context.Context, evt Event, fallback account.Status) error {
	id, err := s.accountFor(ctx, evt)
	if err != nil {
		return err
	}

	t, ok := s.prices.TierFor(evt.PriceID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPrice, evt.PriceID)
	}
	status := fallback
	if evt.Status != "" {
		if status, err = account.ParseStatus(evt.Status); err != nil {
			return err
		}
	}

	upd := account.SubscriptionUpdate{
		SubscriptionID: evt.SubscriptionID,
		PriceID:        evt.PriceID,
		Tier:           t,
		Status:         status,
		OccurredAt:     evt.OccurredAt,
	}
	applied, err := s.save(ctx, evt, id, upd)
	if err != nil {
		return fmt.Errorf("billing: save subscription: %w", err)
	}
	if applied {
		s.log.InfoContext(ctx, "subscription synced",
			logger.AccountID(id), logger.Tier(t.String()), slog.String("status", string(status)))
	}
	return nil
}

func (s *SubscriptionSync) setStatus(ctx context.Context, evt Event, status account.Status) error {
	id, err := s.accountFor(ctx, evt)
	if err != nil {
		return err
	}
	applied, err := s.save(ctx, evt, id, account.SubscriptionUpdate{Status: status, OccurredAt: evt.OccurredAt})
	if err != nil {
		return fmt.Errorf("billing: set status: %w", err)
	}
	if applied {
		s.log.InfoContext(ctx, "account billing status changed",
			logger.AccountID(id), slog.String("status", string(status)))
	}
	return nil
}

// save applies upd. Events delivered after a newer one for the same account are
// acknowledged without changing the profile.
func (s *SubscriptionSync) save(ctx context.Context, evt Event, id uuid.UUID, upd account.SubscriptionUpdate) (bool, error) {
	err := s.accounts.SaveSubscription(ctx, id, upd)
	if errors.Is(err, account.ErrStaleUpdate) {
		s.log.InfoContext(ctx, "skipped out-of-order billing event",
			logger.AccountID(id), logger.EventID(evt.ID), logger.EventType(string(evt.Kind)),
			slog.Time("occurred_at", evt.OccurredAt))
		return false, nil
	}
	return err == nil, err
}

// accountFor maps the event customer to an account. An unknown customer is linked only
// when the event carries the account id placed in checkout custom data.
func (s *SubscriptionSync) accountFor(ctx context.Context, evt Event) (uuid.UUID, error) {
	if evt.CustomerID == "" {
		return uuid.Nil, ErrMissingCustomer
	}

	p, err := s.accounts.GetProfileByCustomerID(ctx, evt.CustomerID)
	if err == nil {
		return p.AccountID, nil
	}
	if !errors.Is(err, account.ErrCustomerNotMapped) {
		return uuid.Nil, fmt.Errorf("billing: lookup customer: %w", err)
	}
	if evt.AccountID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnmappedCustomer, evt.CustomerID)
	}

	if err := s.accounts.LinkCustomer(ctx, evt.AccountID, evt.CustomerID); err != nil {
		return uuid.Nil, fmt.Errorf("billing: link customer: %w", err)
	}
	s.log.InfoContext(ctx, "linked billing customer to account",
		logger.AccountID(evt.AccountID), slog.String("customer_id", evt.CustomerID))
	return evt.AccountID, nil
}
