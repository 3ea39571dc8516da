// Package session persists the workflow session and job history in SQLite.
//
// Each minutes invocation loads the current session (job id, held results,
// phase and panel state) so that a later `minutes confirm` or `minutes export`
// acts on the job created by an earlier `minutes upload`. The jobs table keeps
// one row per backend job with its latest status for `minutes history`.
//
// Schema changes live in migrations/*.sql and are applied in lexical order on
// Open. AcquireLock provides the cross-process single-job guard.
package session
