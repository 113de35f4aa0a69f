// Package environment names the deployment environment and carries it through
// context.Context.
//
// Parse accepts the usual short spellings, so APP_ENV=prod and APP_ENV=production
// behave the same. Empty and unknown values map to Development.
//
// # Usage
//
//	env := environment.Parse(cfg.AppEnv)
//	r.Use(environment.Middleware(env))
//
// Handlers then decide whether internal error details may be echoed back to clients:
//
//	if !environment.IsProduction(r.Context()) {
//		body.Message = err.Error()
//	}
//
// FromContext returns an empty Environment when the context carries none, and
// IsProduction is false in that case, so code running outside an HTTP request (tests,
// cron jobs) never takes the production branch by accident.
package environment
