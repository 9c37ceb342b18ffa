package artbeat

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/major-yy/event-bot/internal/event"
	"github.com/major-yy/event-bot/internal/fetch"
	"github.com/major-yy/event-bot/internal/logger"
)

const (
	ownDomain = "tokyoartbeat.com"

	// siblingScanLimit bounds how far past a label element the official
	// URL search walks.
	siblingScanLimit = 6

	// scheduleFallbackRunes is the last-resort schedule window when no
	// label or date-shaped text is found.
	scheduleFallbackRunes = 250
)

// excludeDomains are tracker and social hosts never accepted as an
// official site during the unlabeled anchor scan.
var excludeDomains = []string{
	"art.nikkei.com", "doubleclick.net", "adservice.google.com",
	"instagram.com", "twitter.com", "facebook.com", "x.com", "youtube.com",
	"lin.ee", "mailchi.mp",
}

var (
	reDetailPath  = regexp.MustCompile(`^/events/[-/]`)
	reVenueLabel  = regexp.MustCompile(`会場`)
	reSchedLabel  = regexp.MustCompile(`スケジュール|開催期間|会期`)
	reSchedWindow = regexp.MustCompile(`.{0,160}\d{4}年.*?[〜～].*?\d{1,4}日.{0,40}`)

	// Text between the 会場 label and the next stop label (address,
	// postal code, hours) or end of string.
	reVenueCapture = regexp.MustCompile(`会場[:：\s]*(.+?)(?:住所|〒|時間|$)`)

	// Official-site labels, most specific first. An explicit label is
	// trusted over any heuristic domain filtering.
	officialLabels = []*regexp.Regexp{
		regexp.MustCompile(`展覧会URL`),
		regexp.MustCompile(`展覧会サイト`),
		regexp.MustCompile(`公式サイト`),
		regexp.MustCompile(`公式[ＨH][ＰP]`),
		regexp.MustCompile(`公式ページ`),
		regexp.MustCompile(`Official site`),
		regexp.MustCompile(`Official website`),
		regexp.MustCompile(`Website`),
		regexp.MustCompile(`Exhibition URL`),
		regexp.MustCompile(`URL`),
	}
)

// FetchEvents fetches the listing page, walks up to maxItems detail
// pages, and returns the best-effort extraction of each. pause is called
// between detail fetches as a politeness delay; nil disables pacing.
func FetchEvents(getter fetch.Getter, listURL string, maxItems int, pause func()) []event.Raw {
	listDoc, err := getter.Get(listURL)
	if err != nil {
		logger.Error("artbeat listing fetch failed", logger.Fields{
			"url": listURL,
		}, err)
		return nil
	}

	paths := ListDetailPaths(listDoc)
	if maxItems > 0 && len(paths) > maxItems {
		paths = paths[:maxItems]
	}

	var events []event.Raw
	for _, rel := range paths {
		detailURL := resolveRef(listURL, rel)

		doc, err := getter.Get(detailURL)
		if err != nil {
			logger.Warn("artbeat detail fetch failed", logger.Fields{
				"url":   detailURL,
				"error": err.Error(),
			})
			continue
		}

		events = append(events, ExtractDetail(doc))

		if pause != nil {
			pause()
		}
	}

	logger.Info("artbeat events fetched", logger.Fields{
		"url":   listURL,
		"count": len(events),
	})
	return events
}

// ListDetailPaths returns the detail-page paths linked from a listing
// document, in page order with duplicates removed. Navigation paths
// (top, condId filters) are excluded.
func ListDetailPaths(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var paths []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !reDetailPath.MatchString(href) {
			return
		}
		if strings.Contains(href, "/events/top") || strings.Contains(href, "/events/condId") {
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true
		paths = append(paths, href)
	})

	return paths
}

// ExtractDetail mines one detail page for name, date range, venue and
// official link. Each field is independently best-effort; a miss is an
// empty value, never an error.
func ExtractDetail(doc *goquery.Document) event.Raw {
	name := extractName(doc)
	start, end := event.ParseDateRange(extractScheduleText(doc))
	venue := extractVenue(doc)

	official := extractOfficialURL(doc, venue)
	if official == "" {
		official = venueAnchorURL(doc)
	}

	return event.Raw{
		Name:        name,
		Start:       start,
		End:         end,
		Venue:       venue,
		OfficialURL: official,
	}
}

// extractName prefers the first top-level heading, then the document
// title.
func extractName(doc *goquery.Document) string {
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		if name := normalizeSpace(h1.Text()); name != "" {
			return name
		}
	}
	return normalizeSpace(doc.Find("title").First().Text())
}

// extractScheduleText locates the text most likely to carry the event
// period: the full text around a schedule label, else a window of page
// text from a year token through a range dash, else the head of the page
// text.
func extractScheduleText(doc *goquery.Document) string {
	if sel := findLabelled(doc, reSchedLabel); sel != nil {
		return normalizeSpace(sel.Text())
	}

	body := normalizeSpace(doc.Find("body").Text())
	if m := reSchedWindow.FindString(body); m != "" {
		return m
	}
	return truncateRunes(body, scheduleFallbackRunes)
}

// extractVenue reads the venue from the 会場 label: an anchor inside the
// labeled element wins, else the text between the label and the next stop
// label. Without any label it falls back to known venue classes and
// venue-link patterns.
func extractVenue(doc *goquery.Document) string {
	if sel := findLabelled(doc, reVenueLabel); sel != nil {
		if a := sel.Find("a").First(); a.Length() > 0 {
			if text := normalizeSpace(a.Text()); text != "" {
				return text
			}
		}
		if m := reVenueCapture.FindStringSubmatch(normalizeSpace(sel.Text())); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	tag := doc.Find(`.venue, .location, a[href*='/venue/'], a[href*='/venues/']`).First()
	if tag.Length() > 0 {
		return normalizeSpace(tag.Text())
	}
	return ""
}

// extractOfficialURL finds the event's external official site. Labeled
// links are tried first: an anchor inside the labeled element, then the
// first anchor within the next few sibling elements. Without a labeled
// hit, all page anchors are scanned with the source's own domain and
// known tracker/social domains excluded; a survivor matching the venue
// hint is preferred, then the first survivor. If every candidate is
// excluded the first one is still taken: some link beats no link.
func extractOfficialURL(doc *goquery.Document, venueHint string) string {
	for _, label := range officialLabels {
		sel := findLabelled(doc, label)
		if sel == nil {
			continue
		}
		if href := firstExternalHref(sel); href != "" {
			return href
		}

		sib := sel.Next()
		for i := 0; i < siblingScanLimit && sib.Length() > 0; i++ {
			if href := firstExternalHref(sib); href != "" {
				return href
			}
			sib = sib.Next()
		}
	}

	return anchorScan(doc, venueHint)
}

// anchorScan is the unlabeled fallback over every anchor on the page.
func anchorScan(doc *goquery.Document, venueHint string) string {
	type candidate struct {
		blocked bool
		href    string
	}
	var candidates []candidate

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if !strings.HasPrefix(href, "http") {
			return
		}
		host := hostOf(href)
		if strings.Contains(host, ownDomain) {
			return
		}
		candidates = append(candidates, candidate{
			blocked: blockedHost(host),
			href:    href,
		})
	})

	hint := strings.ToLower(strings.TrimSpace(venueHint))
	first := ""
	for _, c := range candidates {
		if c.blocked {
			continue
		}
		if hint != "" && strings.Contains(strings.ToLower(c.href), hint) {
			return c.href
		}
		if first == "" {
			first = c.href
		}
	}
	if first != "" {
		return first
	}
	if len(candidates) > 0 {
		return candidates[0].href
	}
	return ""
}

// venueAnchorURL is the final official-URL fallback: an anchor directly
// inside the venue label's element, accepted only if external.
func venueAnchorURL(doc *goquery.Document) string {
	sel := findLabelled(doc, reVenueLabel)
	if sel == nil {
		return ""
	}
	return firstExternalHref(sel)
}

// findLabelled returns the first element whose direct text nodes match
// re, or nil. This is the element whose subtree holds the labeled value.
func findLabelled(doc *goquery.Document, re *regexp.Regexp) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if re.MatchString(ownText(sel)) {
			found = sel
			return false
		}
		return true
	})
	return found
}

// ownText returns the text of sel's direct text-node children, without
// descendant element text.
func ownText(sel *goquery.Selection) string {
	return sel.Contents().Not("*").Text()
}

// firstExternalHref returns the first http-prefixed href among sel's
// descendant anchors.
func firstExternalHref(sel *goquery.Selection) string {
	href := ""
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		h := strings.TrimSpace(a.AttrOr("href", ""))
		if strings.HasPrefix(h, "http") {
			href = h
			return false
		}
		return true
	})
	return href
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func blockedHost(host string) bool {
	for _, bad := range excludeDomains {
		if strings.Contains(host, bad) {
			return true
		}
	}
	return false
}

func resolveRef(baseURL, rel string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return rel
	}
	ref, err := url.Parse(rel)
	if err != nil {
		return rel
	}
	return base.ResolveReference(ref).String()
}

// normalizeSpace collapses all whitespace runs to single spaces and
// trims the ends.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
