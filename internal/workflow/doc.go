// Package workflow drives a recording through upload, processing, review and
// confirmation.
//
// The Controller holds at most one job. HandleFile validates a recording and
// runs the strictly sequential upload then process calls, reporting progress
// (0, 20, 40 and 100 percent) through a Presenter before revealing results
// after a short display delay. StartFile splits the same sequence so callers
// can show the processing view before the network calls run elsewhere.
// Confirm, Export and Copy act on the held job
// and are no-ops without one. Reset returns to the upload view without any
// network call.
//
// State is an explicit phase machine (idle, uploading, processing,
// displaying, confirmed) from which the single visible ViewState is derived;
// Sections maps that view to section visibility. Operations that talk to the
// backend are serialized and a concurrent start returns ErrBusy. Failures are
// returned as *Failure values whose Message is ready to show to a person.
package workflow
