// Package pipeline runs one end-to-end delivery cycle: fetch both
// sources, normalize, dedupe against the ledger, classify, compose
// regional digests, and broadcast the resulting chunks.
//
// Execution is sequential. Transport and extraction failures are logged
// and skipped at the smallest enclosing unit; a run only fails to start,
// never mid-flight. A run with zero new events is a normal, log-only
// outcome.
package pipeline
