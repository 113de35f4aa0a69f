package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/formgate/pkg/logger"
)

// MaxWebhookBody caps the accepted notification size.
const MaxWebhookBody = 1 << 20

// WebhookResponse is the JSON body returned to the provider.
type WebhookResponse struct {
	Received  bool   `json:"received,omitempty"`
	EventID   string `json:"eventId,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// WebhookHandler verifies, parses and dispatches provider notifications.
//
// A nil verifier answers 500 since the signing secret is missing. Signature and
// payload problems answer 400 and are not worth retrying. Handler failures answer 500
// with retryable set so the provider redelivers.
func WebhookHandler(v Verifier, d *Dispatcher, log *slog.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("billing.webhook"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if v == nil {
			log.ErrorContext(ctx, "webhook received but signing secret is not configured")
			writeWebhook(w, http.StatusInternalServerError, WebhookResponse{Error: "Webhook secret not configured"})
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				d.RecordRejected()
				writeWebhook(w, http.StatusRequestEntityTooLarge, WebhookResponse{Error: "Payload too large"})
				return
			}
			writeWebhook(w, http.StatusBadRequest, WebhookResponse{Error: "Failed to read body"})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if err := v.Verify(r); err != nil {
			log.WarnContext(ctx, "rejected webhook", logger.Error(err))
			d.RecordRejected()
			msg := "Invalid signature"
			if errors.Is(err, ErrMissingSignature) {
				msg = "Missing signature"
			}
			writeWebhook(w, http.StatusBadRequest, WebhookResponse{Error: msg})
			return
		}

		evt, err := ParsePaddleEvent(body)
		if err != nil {
			log.WarnContext(ctx, "malformed webhook payload", logger.Error(err))
			d.RecordRejected()
			writeWebhook(w, http.StatusBadRequest, WebhookResponse{Error: "Invalid payload"})
			return
		}

		out, err := d.Dispatch(ctx, evt)
		if err != nil {
			writeWebhook(w, http.StatusInternalServerError, WebhookResponse{
				Error:     "Webhook processing failed",
				EventID:   evt.ID,
				Retryable: true,
			})
			return
		}
		if out.Duplicate {
			writeWebhook(w, http.StatusOK, WebhookResponse{Received: true, Duplicate: true})
			return
		}
		writeWebhook(w, http.StatusOK, WebhookResponse{Received: true, EventID: out.EventID})
	})
}

func writeWebhook(w http.ResponseWriter, status int, body WebhookResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
