// Package observability provides request-scoped structured logging and
// Prometheus metrics for the directory auth service.
//
// Log lines carry the chi request id. Metrics count login and token check
// outcomes and time HTTP requests by route pattern.
package observability
