package enrich

import (
	"regexp"
	"time"

	"github.com/XploY04/jobs.ai/internal/extract"
)

var urgentKeywords = regexp.MustCompile(`(?i)\b(?:urgent|asap|as soon as possible|immediate(?:ly)?|right away|time-sensitive|hiring now|start immediately)\b`)

var rollingKeywords = regexp.MustCompile(`(?i)\b(?:rolling basis|rolling deadline|ongoing|open until filled|no deadline)\b`)

var deadlinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)apply by\s+([A-Za-z]+\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?)`),
	regexp.MustCompile(`(?i)deadline[:\s]+(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(?i)closes?\s+(?:on\s+)?([A-Za-z]+\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?)`),
	regexp.MustCompile(`(?i)applications?\s+due\s+([A-Za-z]+\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?)`),
	regexp.MustCompile(`(?i)until\s+([A-Za-z]+\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?)`),
}

// DetectUrgency classifies a posting as urgent, normal, or low based on
// keyword signals in the title and description.
func DetectUrgency(title, description string) string {
	text := title + " " + description
	if urgentKeywords.MatchString(text) {
		return "urgent"
	}
	if rollingKeywords.MatchString(text) {
		return "low"
	}
	return "normal"
}

// ExtractDeadline scans the description for an application deadline.
// Rolling/no-deadline phrasing wins over any date-like match.
func ExtractDeadline(description string) *time.Time {
	if rollingKeywords.MatchString(description) {
		return nil
	}
	for _, pattern := range deadlinePatterns {
		m := pattern.FindStringSubmatch(description)
		if m == nil {
			continue
		}
		if t := extract.ParseDeadline(m[1]); t != nil {
			return t
		}
	}
	return nil
}
