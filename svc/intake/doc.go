// Package intake is the write path of formgate. Every business write passes the rate
// limiter, then the durable quota, then storage; a denial at either gate returns a
// *RateLimitError or *QuotaError carrying the user-facing explanation.
package intake
