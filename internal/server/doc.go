// Package server wires the formgate HTTP surface.
//
// Routes:
//
//	POST /f/{formID}                      public submissions, limited per client IP
//	POST /api/forms                       create a form
//	GET  /api/forms/{formID}/submissions  view-capped submission pages
//	GET  /api/usage                       quota snapshots
//	POST /webhooks/paddle                 billing notifications
//	GET  /healthz, /readyz, /metrics
//
// Everything under /api requires a bearer token and is limited per account.
package server
