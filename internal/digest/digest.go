// Package digest accumulates formatted event messages into per-region
// buckets and flattens them into size-bounded broadcast chunks.
//
// Buckets live for a single pipeline run and are passed explicitly
// through the run; there is no package-level state. Caps are the
// backpressure mechanism: the notification channel imposes message-size
// and rate limits the bot must not exceed.
package digest

import (
	"fmt"
	"strings"

	"github.com/major-yy/event-bot/internal/event"
	"github.com/major-yy/event-bot/internal/region"
)

const (
	// DefaultChunkSize bounds one broadcast message, in runes.
	DefaultChunkSize = 3500

	// Separator divides regional sections in the combined text.
	Separator = "\n\n================\n\n"
)

// Composer groups formatted message lines under the fixed ordered set of
// regional buckets.
type Composer struct {
	perRegionCap int // max new events per region per source pass
	totalCap     int // max new events per run, 0 disables
	buckets      map[region.Region][]string
	passCounts   map[region.Region]int
	total        int
}

// New creates a Composer with the given caps. perRegionCap applies per
// region per source pass; totalCap applies across the whole run and is
// disabled when zero.
func New(perRegionCap, totalCap int) *Composer {
	return &Composer{
		perRegionCap: perRegionCap,
		totalCap:     totalCap,
		buckets:      make(map[region.Region][]string),
		passCounts:   make(map[region.Region]int),
	}
}

// StartPass resets the per-region counters for a new source pass. The
// global cap keeps counting across passes.
func (c *Composer) StartPass() {
	c.passCounts = make(map[region.Region]int)
}

// Add formats the event and appends it to its region's bucket. It
// returns false, leaving the composer unchanged, when the event's
// region is unknown or a cap has been reached; callers must not record
// a rejected event as delivered.
func (c *Composer) Add(ev *event.Event) bool {
	if !ev.Region.Valid() {
		return false
	}
	if c.totalCap > 0 && c.total >= c.totalCap {
		return false
	}
	if c.perRegionCap > 0 && c.passCounts[ev.Region] >= c.perRegionCap {
		return false
	}

	c.buckets[ev.Region] = append(c.buckets[ev.Region], FormatLine(ev))
	c.passCounts[ev.Region]++
	c.total++
	return true
}

// Total returns the number of events accumulated across all buckets.
func (c *Composer) Total() int {
	return c.total
}

// Render concatenates the non-empty buckets in the fixed region order,
// each headed by its banner line, separated by the section separator.
// Returns the empty string when no events were accumulated.
func (c *Composer) Render() string {
	var sections []string
	for _, r := range region.All() {
		lines := c.buckets[r]
		if len(lines) == 0 {
			continue
		}
		section := Banner(r) + "\n\n" + strings.Join(lines, "\n\n")
		sections = append(sections, section)
	}
	return strings.Join(sections, Separator)
}

// Banner returns the heading line of a region's section.
func Banner(r region.Region) string {
	return fmt.Sprintf("📍 %s の新着イベント 🎪", r.Label())
}

// FormatLine renders one event as a message block.
func FormatLine(ev *event.Event) string {
	return fmt.Sprintf("🎪 %s\n📅 %s\n📍 %s\n🔗 %s",
		ev.Name, ev.Period(), ev.Venue, ev.OfficialURL)
}

// Chunk slices text into fixed-size rune chunks. Boundaries are purely
// positional and may split a message mid-sentence; the channel's size
// limit wins over message integrity.
func Chunk(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
