// Package monitoring exports pixgrab's Prometheus metrics:
//
//	pixgrab_submissions_total{outcome}
//	pixgrab_submission_duration_seconds
//	pixgrab_proxy_responses_total{code}
//
// Metrics live on a private registry served by Handler at /metrics.
package monitoring
