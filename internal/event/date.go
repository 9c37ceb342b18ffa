package event

import (
	"fmt"
	"regexp"
	"strconv"
)

// Date patterns tried by ParseDateRange, strict to loose. Japanese dates
// allow arbitrary non-digit runs between components ("2024年 5月 1日",
// "2024年5月1日(水)").
var (
	reFullRange = regexp.MustCompile(`(\d{4})年\D*(\d{1,2})月\D*(\d{1,2})日.*?〜.*?(\d{4})年\D*(\d{1,2})月\D*(\d{1,2})日`)
	reHalfRange = regexp.MustCompile(`(\d{4})年\D*(\d{1,2})月\D*(\d{1,2})日.*?〜.*?(\d{1,2})月\D*(\d{1,2})日`)
	reSingle    = regexp.MustCompile(`(\d{4})年\D*(\d{1,2})月\D*(\d{1,2})日`)
	reISO       = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	reISOPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

	// Range markers normalized to 〜 before matching. The ASCII hyphen is
	// left alone so ISO dates survive normalization, and the katakana
	// long-vowel mark ー is not a marker: it appears inside words
	// (コーヒー) between two dates that are not a range.
	reRangeDash = regexp.MustCompile(`〜|～|から|まで|―`)
)

// ParseDateRange extracts a start/end date pair from free-form schedule
// text. Patterns are tried strict to loose, first match wins:
//
//  1. full Japanese range (both dates carry a year)
//  2. Japanese range whose end date inherits the start year
//  3. a single Japanese date (start == end)
//  4. an ISO YYYY-MM-DD substring (start == end)
//
// No match yields two empty strings. Extracted components are
// zero-padded regardless of original padding.
func ParseDateRange(text string) (start, end string) {
	if text == "" {
		return "", ""
	}
	text = reRangeDash.ReplaceAllString(text, "〜")

	if m := reFullRange.FindStringSubmatch(text); m != nil {
		return isoDate(m[1], m[2], m[3]), isoDate(m[4], m[5], m[6])
	}
	if m := reHalfRange.FindStringSubmatch(text); m != nil {
		return isoDate(m[1], m[2], m[3]), isoDate(m[1], m[4], m[5])
	}
	if m := reSingle.FindStringSubmatch(text); m != nil {
		d := isoDate(m[1], m[2], m[3])
		return d, d
	}
	if m := reISO.FindString(text); m != "" {
		return m, m
	}
	return "", ""
}

// normalizeDate trims an ISO-like datetime string to YYYY-MM-DD. Strings
// that do not start with an ISO date are retained verbatim; a failed
// normalization is never fatal.
func normalizeDate(d string) string {
	if reISOPrefix.MatchString(d) {
		return d[:10]
	}
	return d
}

func isoDate(y, m, d string) string {
	yi, _ := strconv.Atoi(y)
	mi, _ := strconv.Atoi(m)
	di, _ := strconv.Atoi(d)
	return fmt.Sprintf("%04d-%02d-%02d", yi, mi, di)
}
