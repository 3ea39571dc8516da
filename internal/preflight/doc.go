// Package preflight provides readiness checks for the minutes backend and the
// local paths the client writes to.
//
// The CLI "minutes doctor" command runs RunAll and prints one line per check.
// Individual checks (CheckBackend, CheckDirectoryAccess) are exported so
// callers can probe a single concern.
package preflight
