// Package event defines the canonical event record and the
// normalization from either source's raw shape into it.
//
// Normalization never fails: missing fields stay empty strings and
// unparseable dates are retained verbatim, so downstream stages can
// render whatever was extracted. The package also owns Japanese
// date-range parsing and the dedupe key derivation shared by the
// ledger and the pipeline.
package event
