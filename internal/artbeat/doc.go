// Package artbeat extracts events from Tokyo Art Beat, a source with no
// machine-readable event data.
//
// Fields are mined from free-form markup by label proximity search: find
// the element directly holding a known Japanese label text, then read the
// value from that element's anchors, text, or following siblings. Every
// label rule has looser fallbacks behind it, and every field degrades
// independently to an empty value. One broken detail page never stops the
// others.
package artbeat
