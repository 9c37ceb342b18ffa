// Package walkerplus extracts events from Walker+ listing pages.
//
// Walker+ embeds machine-readable event objects as JSON-LD script blocks,
// so extraction is schema-driven with no heuristics: keep blocks whose
// @type is "Event", accept both single-object and list encodings, and
// skip malformed blocks individually.
package walkerplus
