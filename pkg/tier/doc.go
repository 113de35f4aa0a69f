// Package tier maps accounts to subscription tiers and tiers to their limit tables.
//
// A Table holds one Limits entry per Tier. Each Limits value carries the short-window
// rate limits used by the ratelimit package and the long-horizon quotas enforced by the
// quota package. Tables are static configuration: DefaultTable returns the compiled-in
// values and LoadTableFile overlays a YAML file on top of them.
//
// Resolver answers "which tier is this account on right now". It never fails: a missing
// profile means the account is on the free tier, and a lookup error degrades to free as
// well (logged), because the gates that depend on the tier must stay available.
//
// Basic usage:
//
//	table := tier.DefaultTable()
//	resolver := tier.NewResolver(accountsRepo, tier.WithLogger(log))
//
//	t := resolver.Resolve(ctx, accountID)
//	limits := table.Limits(t)
//	rl, ok := limits.RateLimit(tier.ResourceSubmission)
//
// Tier table file format:
//
//	free:
//	  rate_limits:
//	    submission: {limit: 10, window: 1m}
//	    api: {limit: 60, window: 1m}
//	    form_creation: {limit: 5, window: 1h}
//	  quotas:
//	    max_forms: 3
//	    max_submissions_per_month: 100
//	    max_submissions_per_form: 50
//
// Quota values of -1 (Unlimited) disable the corresponding cap.
package tier
