package billing

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of event kinds the dispatcher understands.
type Kind string

const (
	KindSubscriptionCreated Kind = "subscription_created"
	KindSubscriptionUpdated Kind = "subscription_updated"
	KindSubscriptionDeleted Kind = "subscription_deleted"
	KindPaymentSucceeded    Kind = "payment_succeeded"
	KindPaymentFailed       Kind = "payment_failed"
	KindUnknown             Kind = "unknown"
)

// ParseKind maps a Paddle event_type to a Kind. Anything else is KindUnknown.
func ParseKind(providerType string) Kind {
	switch providerType {
	case "subscription.created":
		return KindSubscriptionCreated
	case "subscription.updated":
		return KindSubscriptionUpdated
	case "subscription.canceled":
		return KindSubscriptionDeleted
	case "transaction.completed":
		return KindPaymentSucceeded
	case "transaction.payment_failed":
		return KindPaymentFailed
	default:
		return KindUnknown
	}
}

// Event is a verified provider notification reduced to the fields handlers need.
type Event struct {
	ID             string
	Kind           Kind
	ProviderType   string
	OccurredAt     time.Time
	CustomerID     string
	SubscriptionID string
	PriceID        string
	Status         string
	// AccountID comes from custom_data.account_id set at checkout; uuid.Nil if absent.
	AccountID uuid.UUID
	Raw       json.RawMessage
}

type paddleEnvelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type paddleData struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id"`
	Items          []struct {
		PriceID string `json:"price_id"`
		Price   struct {
			ID string `json:"id"`
		} `json:"price"`
	} `json:"items"`
	CustomData map[string]any `json:"custom_data"`
}

// ParsePaddleEvent decodes a Paddle notification body. Subscription events carry the
// subscription id in data.id, transactions in data.subscription_id.
func ParsePaddleEvent(body []byte) (Event, error) {
	var env paddleEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, errors.Join(ErrInvalidPayload, err)
	}
	if env.EventID == "" {
		return Event{}, ErrMissingEventID
	}

	evt := Event{
		ID:           env.EventID,
		Kind:         ParseKind(env.EventType),
		ProviderType: env.EventType,
		OccurredAt:   env.OccurredAt,
		Raw:          json.RawMessage(body),
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return evt, nil
	}

	var data paddleData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return Event{}, errors.Join(ErrInvalidPayload, err)
	}

	evt.Status = data.Status
	evt.CustomerID = data.CustomerID
	evt.SubscriptionID = data.SubscriptionID
	if evt.SubscriptionID == "" && evt.Kind.isSubscription() {
		evt.SubscriptionID = data.ID
	}
	if len(data.Items) > 0 {
		evt.PriceID = data.Items[0].Price.ID
		if evt.PriceID == "" {
			evt.PriceID = data.Items[0].PriceID
		}
	}
	if raw, ok := data.CustomData["account_id"].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			evt.AccountID = id
		}
	}
	return evt, nil
}

func (k Kind) isSubscription() bool {
	switch k {
	case KindSubscriptionCreated, KindSubscriptionUpdated, KindSubscriptionDeleted:
		return true
	}
	return false
}
