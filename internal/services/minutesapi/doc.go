// Package minutesapi is the HTTP client for the minutes backend.
//
// The backend exposes upload, process, confirm, export, status and results
// endpoints keyed by an opaque job id. Each call is a single request with no
// retries; failures come back as *StatusError (with the backend's JSON error
// field when present) or as transport errors tagged with the services
// markers. UserMessage turns either into text suitable for display.
package minutesapi
