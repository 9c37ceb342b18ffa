package event

import (
	"strings"

	"github.com/major-yy/event-bot/internal/region"
)

// PeriodSeparator joins start and end dates in rendered period strings.
const PeriodSeparator = " 〜 "

// Event is the canonical, source-agnostic record produced by the
// pipeline. String fields are never nil; an extraction miss is an empty
// string. Events are immutable after normalization.
type Event struct {
	Name        string        `json:"name"`
	StartDate   string        `json:"start_date"` // YYYY-MM-DD when parseable, raw otherwise
	EndDate     string        `json:"end_date"`
	Venue       string        `json:"venue"`
	OfficialURL string        `json:"official_url"`
	Region      region.Region `json:"region,omitempty"`
}

// Raw carries the source-specific fields of one extracted item before
// normalization. The structured source fills StartDate/EndDate/URL and
// LocationName; the heuristic source fills Start/End/Venue/OfficialURL.
type Raw struct {
	Name         string
	Start        string // pre-split YYYY-MM-DD
	End          string
	StartDate    string // combined ISO-ish datetime string
	EndDate      string
	Venue        string
	LocationName string // nested location object's name field
	URL          string
	OfficialURL  string
}

// Normalize merges a Raw record from either source schema into a
// canonical Event. Venue resolution order: explicit venue, then the
// nested location name. URL resolution order: official URL, then the
// item URL; events with neither stay unlinkable and dedupe on the
// synthesized key.
func Normalize(raw Raw) *Event {
	start := raw.Start
	if start == "" {
		start = raw.StartDate
	}
	end := raw.End
	if end == "" {
		end = raw.EndDate
	}

	venue := raw.Venue
	if venue == "" {
		venue = raw.LocationName
	}

	link := raw.OfficialURL
	if link == "" {
		link = raw.URL
	}

	return &Event{
		Name:        strings.TrimSpace(raw.Name),
		StartDate:   normalizeDate(start),
		EndDate:     normalizeDate(end),
		Venue:       strings.TrimSpace(venue),
		OfficialURL: strings.TrimSpace(link),
	}
}

// Linkable reports whether the event carries an official URL. Unlinkable
// events fall back to the weaker name+date dedupe key.
func (e *Event) Linkable() bool {
	return e.OfficialURL != ""
}

// DedupeKey returns the string used to test and record prior delivery.
// The official URL is preferred; without one the key is name + "_" +
// start date, which collides for two distinct events sharing both.
func (e *Event) DedupeKey() string {
	if e.Linkable() {
		return e.OfficialURL
	}
	if e.Name == "" && e.StartDate == "" {
		return ""
	}
	return e.Name + "_" + e.StartDate
}

// Period renders the delivery period for messages and ledger rows:
// "start 〜 end" when both dates are set, the start date alone otherwise,
// empty when no start is known.
func (e *Event) Period() string {
	if e.StartDate != "" && e.EndDate != "" {
		return e.StartDate + PeriodSeparator + e.EndDate
	}
	return e.StartDate
}
