// Package quota enforces durable, long-horizon caps: forms per account, submissions
// per calendar month across an account's forms and submissions per form.
//
// Unlike the rate limiter, quota checks read authoritative counts from the relational
// store on every call. A failed count is returned as an error wrapping ErrCountFailed
// and callers reject the write.
//
//	d, err := guard.CanReceiveSubmission(ctx, ownerID, formID)
//	if err != nil {
//		return err
//	}
//	if !d.Allowed {
//		return &QuotaError{Decision: d} // d.Reason is user-facing
//	}
//
// Callers that already resolved the tier for rate limiting use the OnTier variants,
// which skip the second profile lookup:
//
//	d, err := guard.CanReceiveSubmissionOnTier(ctx, ownerID, formID, t)
package quota
