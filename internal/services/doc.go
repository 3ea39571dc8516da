// Package services defines shared utilities consumed by the workflow
// controller and the backend client.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, operation names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation, transport, server, decode) for history and logs.
//
// Backend clients live in subpackages so the workflow can depend on narrow
// interfaces instead of HTTP details.
package services
