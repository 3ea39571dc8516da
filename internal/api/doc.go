// Package api defines the wire-format types exchanged with the minutes
// backend.
//
// Field names follow the backend's snake_case JSON. MeetingResults is kept
// close to what the backend returns (including confidence and source_text
// fields the client does not render) because confirmation sends the held
// payload back unchanged.
package api
