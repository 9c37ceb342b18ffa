// Package ledger persists which events have already been delivered.
//
// The ledger is append-only: one row per delivered event, no updates, no
// deletes. The dedupe key column is the sole existence-check surface.
// The ledger itself enforces no uniqueness; callers guarantee it by
// checking Exists before Append. Callers also own the error policy:
// a failed read degrades to "not a duplicate" and a failed append is
// logged and swallowed, so a backend hiccup can never block future
// deliveries or abort a run.
package ledger
