package walkerplus

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/major-yy/event-bot/internal/event"
	"github.com/major-yy/event-bot/internal/fetch"
	"github.com/major-yy/event-bot/internal/logger"
)

const eventType = "Event"

// ldEvent mirrors the JSON-LD fields the pipeline consumes.
type ldEvent struct {
	Type      string `json:"@type"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	URL       string `json:"url"`
	Location  struct {
		Name string `json:"name"`
	} `json:"location"`
}

// FetchEvents fetches up to maxPages listing pages for the source and
// returns the raw events found across all of them. Page URLs beyond the
// first are derived by suffixing the page index before the fixed .html
// extension. A failed page is logged and skipped; it never stops
// subsequent pages.
func FetchEvents(getter fetch.Getter, baseURL string, maxPages int) []event.Raw {
	if maxPages < 1 {
		maxPages = 1
	}

	var events []event.Raw
	for page := 1; page <= maxPages; page++ {
		url := baseURL
		if page > 1 {
			url = fmt.Sprintf("%s%d.html", baseURL, page)
		}

		doc, err := getter.Get(url)
		if err != nil {
			logger.Error("walkerplus page fetch failed", logger.Fields{
				"url":  url,
				"page": page,
			}, err)
			continue
		}

		events = append(events, Parse(doc)...)
	}

	logger.Info("walkerplus events fetched", logger.Fields{
		"base_url":  baseURL,
		"max_pages": maxPages,
		"count":     len(events),
	})
	return events
}

// Parse extracts JSON-LD events from a single listing document.
func Parse(doc *goquery.Document) []event.Raw {
	var events []event.Raw

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		events = append(events, parseBlock([]byte(sel.Text()))...)
	})

	return events
}

// parseBlock decodes one script block. The block may hold a single
// object or a list; list elements are decoded individually so one
// malformed element cannot take down its siblings.
func parseBlock(data []byte) []event.Raw {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var rawItems []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &rawItems); err != nil {
			logger.Debug("walkerplus JSON-LD list unparsable", logger.Fields{
				"error": err.Error(),
			})
			return nil
		}
	} else {
		rawItems = []json.RawMessage{data}
	}

	var events []event.Raw
	for _, item := range rawItems {
		var ld ldEvent
		if err := json.Unmarshal(item, &ld); err != nil {
			logger.Debug("walkerplus JSON-LD block unparsable", logger.Fields{
				"error": err.Error(),
			})
			continue
		}
		if ld.Type != eventType {
			continue
		}
		events = append(events, event.Raw{
			Name:         ld.Name,
			StartDate:    ld.StartDate,
			EndDate:      ld.EndDate,
			URL:          ld.URL,
			LocationName: ld.Location.Name,
		})
	}
	return events
}
