// Package notifications delivers workflow events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Each event (results ready, confirmed, error) can be switched off
// individually; events without a message format are dropped silently.
//
// Workflow code depends only on the Service interface.
package notifications
