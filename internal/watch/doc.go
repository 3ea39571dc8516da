// Package watch turns a folder into an upload inbox. New audio files are
// queued in arrival order and handed to a single handler goroutine once their
// size stops changing, so recordings are uploaded one job at a time.
package watch
