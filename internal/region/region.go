// Package region classifies events into the four Kanto delivery regions.
//
// Classification is a prioritized rule chain: venue keywords first, then
// romanized tokens in the official URL, then the bare prefecture name in
// the venue text. Each rule checks regions in the fixed declared order, so
// a venue matching keyword lists of two regions resolves to the earlier
// region deterministically.
package region

import (
	"net/url"
	"strings"
)

// Region identifies one of the four delivery regions.
type Region string

const (
	Tokyo      Region = "tokyo"
	Kanagawa   Region = "kanagawa"
	Chiba      Region = "chiba"
	Saitama    Region = "saitama"
	Unresolved Region = ""
)

// All returns the regions in their fixed declared order. This order is
// the bucket order of outgoing digests and the classifier tie-break.
func All() []Region {
	return []Region{Tokyo, Kanagawa, Chiba, Saitama}
}

// Label returns the native prefecture name used in banners and keyword
// matching.
func (r Region) Label() string {
	switch r {
	case Tokyo:
		return "東京"
	case Kanagawa:
		return "神奈川"
	case Chiba:
		return "千葉"
	case Saitama:
		return "埼玉"
	}
	return ""
}

// Valid reports whether r is one of the four known regions.
func (r Region) Valid() bool {
	switch r {
	case Tokyo, Kanagawa, Chiba, Saitama:
		return true
	}
	return false
}

// Parse maps either the enum value or the native prefecture name to a
// Region. Unknown input yields Unresolved.
func Parse(s string) Region {
	s = strings.TrimSpace(s)
	for _, r := range All() {
		if s == string(r) || s == r.Label() {
			return r
		}
	}
	return Unresolved
}

// venueKeywords lists landmark, ward and city names per region. Checked
// case-insensitively as substrings of the venue text.
var venueKeywords = map[Region][]string{
	Tokyo: {
		"渋谷", "新宿", "上野", "銀座", "六本木", "池袋", "品川",
		"丸の内", "日本橋", "お台場", "吉祥寺", "表参道", "恵比寿",
		"清澄白河", "両国", "立川", "八王子", "東京都",
	},
	Kanagawa: {
		"横浜", "川崎", "鎌倉", "箱根", "湘南", "みなとみらい",
		"藤沢", "小田原", "横須賀",
	},
	Chiba: {
		"幕張", "船橋", "柏", "成田", "浦安", "舞浜", "松戸", "市川",
		"千葉市",
	},
	Saitama: {
		"さいたま", "大宮", "川越", "所沢", "浦和", "越谷", "熊谷",
	},
}

// urlTokens lists romanized city and ward names per region. Checked
// case-insensitively against the URL host and path.
var urlTokens = map[Region][]string{
	Tokyo:    {"tokyo", "shibuya", "shinjuku", "ueno", "ginza", "roppongi"},
	Kanagawa: {"kanagawa", "yokohama", "kawasaki", "kamakura", "hakone"},
	Chiba:    {"chiba", "makuhari", "funabashi", "narita", "urayasu"},
	Saitama:  {"saitama", "omiya", "kawagoe", "urawa", "tokorozawa"},
}

// rule is one step of the classifier chain. It returns Unresolved when it
// cannot decide.
type rule func(venue, link string) Region

var rules = []rule{matchVenueKeywords, matchURLTokens, matchNativeName}

// Classify resolves the region for an event from its venue text and
// official URL. Returns Unresolved when no rule matches; callers apply
// their own default policy rather than dropping the event.
func Classify(venue, link string) Region {
	for _, r := range rules {
		if got := r(venue, link); got != Unresolved {
			return got
		}
	}
	return Unresolved
}

// ClassifyOrDefault resolves the region, falling back to def when no rule
// matches.
func ClassifyOrDefault(venue, link string, def Region) Region {
	if got := Classify(venue, link); got != Unresolved {
		return got
	}
	return def
}

func matchVenueKeywords(venue, _ string) Region {
	if venue == "" {
		return Unresolved
	}
	lower := strings.ToLower(venue)
	for _, r := range All() {
		for _, kw := range venueKeywords[r] {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return r
			}
		}
	}
	return Unresolved
}

func matchURLTokens(_, link string) Region {
	if link == "" {
		return Unresolved
	}
	target := strings.ToLower(link)
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		target = strings.ToLower(u.Host + u.Path)
	}
	for _, r := range All() {
		for _, tok := range urlTokens[r] {
			if strings.Contains(target, tok) {
				return r
			}
		}
	}
	return Unresolved
}

func matchNativeName(venue, _ string) Region {
	if venue == "" {
		return Unresolved
	}
	for _, r := range All() {
		if strings.Contains(venue, r.Label()) {
			return r
		}
	}
	return Unresolved
}
