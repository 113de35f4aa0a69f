package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/formgate/pkg/tier"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Info is the rateLimitInfo object of a 429 body.
type Info struct {
	Limit      int   `json:"limit"`
	Remaining  int   `json:"remaining"`
	Reset      int64 `json:"reset"`
	RetryAfter int64 `json:"retryAfter,omitempty"`
}

// ExceededResponse is the JSON body sent with 429.
type ExceededResponse struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	Message       string `json:"message"`
	RateLimitInfo Info   `json:"rateLimitInfo"`
}

// Info returns the client-facing view of r.
func (r Result) Info() Info {
	return Info{
		Limit:      r.Limit,
		Remaining:  r.Remaining,
		Reset:      r.ResetAt.UnixMilli(),
		RetryAfter: r.RetryAfterSeconds(),
	}
}

// Message explains a denial in terms a dashboard can turn into an upgrade prompt.
func (r Result) Message() string {
	return fmt.Sprintf("Rate limit of %d %s requests per %s reached on the %s plan. Try again in %d seconds.",
		r.Limit, resourceNoun(r.Resource), r.Window, r.Tier.Title(), r.RetryAfterSeconds())
}

// WriteHeaders sets the X-RateLimit-* headers, plus Retry-After when denied. Reset is
// the window end in Unix milliseconds.
func WriteHeaders(w http.ResponseWriter, r Result) {
	h := w.Header()
	h.Set(HeaderLimit, strconv.Itoa(r.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(r.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(r.ResetAt.UnixMilli(), 10))
	if !r.Allowed {
		h.Set(HeaderRetryAfter, strconv.FormatInt(r.RetryAfterSeconds(), 10))
	}
}

// WriteExceeded writes headers and a 429 JSON body for a denied result.
func WriteExceeded(w http.ResponseWriter, r Result) {
	WriteHeaders(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(ExceededResponse{
		Success:       false,
		Error:         "Too many requests",
		Message:       r.Message(),
		RateLimitInfo: r.Info(),
	})
}

func resourceNoun(res tier.Resource) string {
	switch res {
	case tier.ResourceSubmission:
		return "submission"
	case tier.ResourceFormCreation:
		return "form creation"
	case tier.ResourceAPI:
		return "API"
	default:
		return string(res)
	}
}
