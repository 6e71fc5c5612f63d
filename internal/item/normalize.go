package item

import (
	"regexp"
	"strings"
	"time"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases and collapses internal whitespace. It is the
// comparison key for tags and search terms.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// NormalizeTags trims each tag, drops empties and removes duplicates
// (compared by Normalize), keeping the first spelling and order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := Normalize(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// MergeTags appends the tags from add that existing does not already carry.
func MergeTags(existing, add []string) []string {
	out := append([]string(nil), existing...)
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[Normalize(t)] = true
	}
	for _, t := range add {
		t = strings.TrimSpace(t)
		key := Normalize(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// HasTag reports whether the item carries tag (compared by Normalize).
func (it *Item) HasTag(tag string) bool {
	want := Normalize(tag)
	for _, t := range it.Tags {
		if Normalize(t) == want {
			return true
		}
	}
	return false
}

// DateLayout is the calendar-day format used for start and due dates.
const DateLayout = "2006-01-02"

// ParseDate accepts a calendar day or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Day returns the calendar day of s, or "" when s is not a date.
func Day(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

// CreatedDay returns the UTC calendar day the item was captured.
func (it *Item) CreatedDay() string {
	return time.Unix(it.CreatedAt, 0).UTC().Format(DateLayout)
}
