package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/formgate/pkg/identity"
	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/quota"
	"github.com/dmitrymomot/formgate/pkg/ratelimit"
	"github.com/dmitrymomot/formgate/svc/intake"
)

// Response renders itself to the client.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc produces a Response for a request.
type HandlerFunc func(r *http.Request) Response

// Envelope is the JSON body of every API response except rate limit denials, which
// use ratelimit.ExceededResponse.
type Envelope struct {
	Success bool            `json:"success"`
	Data    any             `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Quota   *quota.Decision `json:"quota,omitempty"`
}

type jsonResponse struct {
	status    int
	body      Envelope
	rateLimit *ratelimit.Result
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	if j.rateLimit != nil && j.rateLimit.Limit > 0 {
		ratelimit.WriteHeaders(w, *j.rateLimit)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

type exceededResponse struct {
	result ratelimit.Result
}

func (e exceededResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	ratelimit.WriteExceeded(w, e.result)
	return nil
}

func ok(status int, data any, rl *ratelimit.Result) Response {
	return jsonResponse{status: status, body: Envelope{Success: true, Data: data}, rateLimit: rl}
}

func fail(status int, code, message string) jsonResponse {
	return jsonResponse{status: status, body: Envelope{Error: code, Message: message}}
}

// errorResponse maps service errors to HTTP responses. rl, when set, still decorates
// the response with rate limit headers.
func errorResponse(err error, rl *ratelimit.Result) Response {
	var (
		rlErr *intake.RateLimitError
		qErr  *intake.QuotaError
	)
	switch {
	case errors.As(err, &rlErr):
		return exceededResponse{result: rlErr.Result}
	case errors.As(err, &qErr):
		resp := fail(http.StatusForbidden, "Quota exceeded", qErr.Decision.Reason)
		resp.body.Quota = &qErr.Decision
		resp.rateLimit = rl
		return resp
	}

	var resp jsonResponse
	switch {
	case errors.Is(err, intake.ErrFormNotFound):
		resp = fail(http.StatusNotFound, "Not found", "Form not found.")
	case errors.Is(err, intake.ErrForbidden):
		resp = fail(http.StatusForbidden, "Forbidden", "This form belongs to another account.")
	case errors.Is(err, intake.ErrInvalidName), errors.Is(err, intake.ErrInvalidPayload):
		resp = fail(http.StatusUnprocessableEntity, "Validation failed", err.Error())
	case errors.Is(err, intake.ErrPayloadTooBig):
		resp = fail(http.StatusRequestEntityTooLarge, "Payload too large", err.Error())
	case errors.Is(err, errBadRequest):
		resp = fail(http.StatusBadRequest, "Bad request", err.Error())
	case errors.Is(err, quota.ErrCountFailed):
		resp = fail(http.StatusServiceUnavailable, "Service unavailable", "Usage could not be verified, try again shortly.")
	default:
		resp = fail(http.StatusInternalServerError, "Internal error", "")
	}
	resp.rateLimit = rl
	return resp
}

// wrap adapts a HandlerFunc to net/http.
func wrap(log *slog.Logger, h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(r).Render(w, r); err != nil {
			log.ErrorContext(r.Context(), "failed to render response", logger.Error(err))
		}
	}
}

// failure maps err and logs it when the client is not at fault.
func failure(log *slog.Logger, r *http.Request, err error, rl *ratelimit.Result) Response {
	resp := errorResponse(err, rl)
	if jr, isJSON := resp.(jsonResponse); isJSON && jr.status >= http.StatusInternalServerError {
		attrs := []any{logger.Error(err), slog.Int("status", jr.status), slog.String("path", r.URL.Path)}
		if id, ok := identity.AccountIDFromContext(r.Context()); ok {
			attrs = append(attrs, logger.AccountID(id))
		}
		log.ErrorContext(r.Context(), "request failed", attrs...)
	}
	return resp
}
