// Package main hosts the minutes CLI entrypoint and command graph.
//
// The Cobra-based command tree drives the upload workflow from a terminal:
// uploading a recording, reviewing and confirming the extracted minutes,
// exporting or copying the markdown, and serving the same workflow in a local
// browser page. It centralizes configuration resolution, logging setup and
// session persistence so subcommands can focus on presentation.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
