// Package billing receives payment provider webhooks and applies them to accounts.
//
// A notification travels through three steps. The Verifier authenticates the raw
// request (PaddleVerifier delegates to the Paddle SDK). ParsePaddleEvent reduces the
// body to an Event with a closed Kind. The Dispatcher claims the event id in a
// ledger.Ledger, runs the matching Handlers method and commits, so redeliveries of
// the same id apply side effects at most once.
//
//	v, err := billing.NewPaddleVerifier(cfg.WebhookSecret)
//	sync := billing.NewSubscriptionSync(accounts, cfg.PriceMap(), log)
//	d := billing.NewDispatcher(led, sync, billing.WithLogger(log))
//	r.Method(http.MethodPost, "/webhooks/paddle", billing.WebhookHandler(v, d, log))
//
// Unknown kinds are acknowledged and ignored. A handler error releases the claim and
// surfaces as a *RetryableError, which the webhook handler turns into a 500 so the
// provider retries later. Handlers never skip a customer they cannot map to an
// account; SubscriptionSync returns ErrUnmappedCustomer instead.
package billing
