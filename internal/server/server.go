package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/formgate/pkg/clientip"
	"github.com/dmitrymomot/formgate/pkg/environment"
	"github.com/dmitrymomot/formgate/pkg/httpserver"
	"github.com/dmitrymomot/formgate/pkg/identity"
	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/metrics"
	"github.com/dmitrymomot/formgate/pkg/quota"
	"github.com/dmitrymomot/formgate/pkg/ratelimit"
	"github.com/dmitrymomot/formgate/pkg/requestid"
	"github.com/dmitrymomot/formgate/pkg/tier"
	"github.com/dmitrymomot/formgate/svc/intake"
)

// Deps are the collaborators the router is built from. Webhook, Metrics and Checks are
// optional.
type Deps struct {
	Intake    *intake.Service
	Limiter   *ratelimit.Limiter
	Tiers     quota.TierResolver
	Identity  *identity.Service
	Webhook   http.Handler
	Metrics   *metrics.Recorder
	Checks    []httpserver.Check
	IPHeaders []string
	Env       environment.Environment
	Log       *slog.Logger
}

// New builds the HTTP router.
func New(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("http"))
	h := &handlers{intake: d.Intake, log: log}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		environment.Middleware(d.Env),
		clientip.Middleware(d.IPHeaders...),
		middleware.Recoverer,
		accessLog(log),
	)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, 3*time.Second, d.Checks...))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Post("/f/{formID}", wrap(log, h.submit))

	if d.Webhook != nil {
		r.Method(http.MethodPost, "/webhooks/paddle", d.Webhook)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(identity.Middleware(d.Identity))
		api.Use(ratelimit.Middleware(d.Limiter, tier.ResourceAPI, apiIdentity(d.Tiers)))

		api.Post("/forms", wrap(log, h.createForm))
		api.Get("/forms/{formID}/submissions", wrap(log, h.listSubmissions))
		api.Get("/usage", wrap(log, h.usage))
	})

	return r
}

// apiIdentity limits authenticated API calls per account at the account's tier.
func apiIdentity(tiers quota.TierResolver) ratelimit.IdentityFunc {
	return func(r *http.Request) (string, tier.Tier, bool) {
		id, ok := identity.AccountIDFromContext(r.Context())
		if !ok {
			return "", "", false
		}
		return id.String(), tiers.Resolve(r.Context(), id), true
	}
}

func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				return
			}
			log.DebugContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.String("ip", clientip.GetIPFromContext(r.Context())),
				logger.RequestID(requestid.FromContext(r.Context())),
				logger.Duration(time.Since(start)),
			)
		})
	}
}
