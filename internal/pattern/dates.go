package pattern

import (
	"strings"
	"time"
)

// Ordered layouts for normalizing matched date strings. Month-first layouts
// sit ahead of day-first so "03/04/2024" resolves as March 4th; day-first
// layouts still catch dates an earlier layout rejects (e.g. "25/12/2024").
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	"02/01/2006",
	"02-01-2006",
	"01/02/06",
	"1/2/06",
	"01-02-06",
	"1-2-06",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	// email Date: header shapes, used for the metadata fallback
	time.RFC1123Z,
	time.RFC1123,
	"2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
}

// NormalizeDate parses a date-shaped string and renders it as YYYY-MM-DD.
// Returns false when no known layout applies.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}
