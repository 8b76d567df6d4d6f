package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTime converts an arbitrary raw value into a UTC timestamp. Sources
// deliver unix epochs (RemoteOK, HN), ISO strings (JSearch, Adzuna), and
// RFC1123 strings (RSS); nil means the value was absent or unparseable.
func ParseTime(v any) *time.Time {
	switch val := v.(type) {
	case time.Time:
		t := val.UTC()
		return &t
	case *time.Time:
		if val == nil {
			return nil
		}
		t := val.UTC()
		return &t
	case float64:
		return fromEpoch(int64(val))
	case int:
		return fromEpoch(int64(val))
	case int64:
		return fromEpoch(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		if isDigits(s) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err == nil {
				return fromEpoch(n)
			}
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	return nil
}

func fromEpoch(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	t := time.Unix(n, 0).UTC()
	return &t
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

var ordinalSuffix = regexp.MustCompile(`(?i)(\d)(st|nd|rd|th)`)

var deadlineLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2",
	"Jan 2",
}

// dateSubstrings pull the date part out of phrased deadline text such as
// "Apply by September 30, 2026" or "closes 2026-09-15".
var dateSubstrings = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`(?i)\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\s+\d{1,2}(?:,?\s+\d{4})?\b`),
}

// ParseDeadline parses a free-text application deadline ("March 15th",
// "2026-03-15", "Apply by September 30, 2026") into a date. Layouts without
// a year assume the current year.
func ParseDeadline(text string) *time.Time {
	s := strings.TrimSpace(ordinalSuffix.ReplaceAllString(text, "$1"))
	if s == "" {
		return nil
	}
	if t := parseDeadlineDate(s); t != nil {
		return t
	}
	for _, pattern := range dateSubstrings {
		m := pattern.FindString(s)
		if m == "" {
			continue
		}
		if t := parseDeadlineDate(normalizeMonthCase(strings.TrimSpace(m))); t != nil {
			return t
		}
	}
	return ParseTime(s)
}

// normalizeMonthCase fixes the leading month word to the capitalization the
// time layouts expect ("september 30" -> "September 30").
func normalizeMonthCase(s string) string {
	i := strings.IndexByte(s, ' ')
	if i <= 0 {
		return s
	}
	month := s[:i]
	return strings.ToUpper(month[:1]) + strings.ToLower(month[1:]) + s[i:]
}

func parseDeadlineDate(s string) *time.Time {
	for _, layout := range deadlineLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = t.AddDate(time.Now().UTC().Year(), 0, 0)
		}
		t = t.UTC()
		return &t
	}
	return nil
}
