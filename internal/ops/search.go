package ops

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
)

// Search limits
const (
	MaxQueryLength  = 200
	MaxSnippetChars = 300
	snippetContext  = 60
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query  string  // required
	Stage  *string // optional filter
	Tag    *string // optional filter
	Mode   string  // optional filter
	Limit  int
	Offset int
}

// SearchResultItem wraps a Summary with a match snippet.
type SearchResultItem struct {
	item.Summary
	// Snippet is HTML-safe: user content is escaped; only <b>...</b>
	// highlight tags are present.
	Snippet string `json:"snippet"`
	Field   string `json:"field"` // title|tags|body
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SearchResultItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"`
}

type searchHit struct {
	it      *item.Item
	rank    int
	field   string
	snippet string
}

// Search finds items whose title, tags or body contain the query,
// case-insensitively. Title matches rank before tag matches, which rank
// before body matches; ties keep newest-first order.
func Search(st *store.Store, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}
	stage, err := parseStage(input.Stage)
	if err != nil {
		return nil, err
	}
	mode, err := parseMode(input.Mode, true)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	filter := itemFilter{Stage: stage, Tag: cleanOptionalString(input.Tag), Mode: mode}

	var hits []searchHit
	for _, it := range filter.apply(st.All()) {
		if h, ok := matchItem(it, needle); ok {
			hits = append(hits, h)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })

	page, pagination := paginate(hits, input.Limit, input.Offset)
	items := make([]SearchResultItem, len(page))
	for i, h := range page {
		items[i] = SearchResultItem{
			Summary: h.it.ToSummary(),
			Snippet: truncateSnippet(h.snippet, MaxSnippetChars),
			Field:   h.field,
		}
	}

	return &SearchOutput{
		Items:      items,
		Pagination: pagination,
		Sort:       "relevance",
	}, nil
}

func matchItem(it *item.Item, needle string) (searchHit, bool) {
	if idx := strings.Index(strings.ToLower(it.Title), needle); idx >= 0 {
		return searchHit{it: it, rank: 0, field: "title", snippet: highlight(it.Title, idx, len(needle))}, true
	}
	for _, tag := range it.Tags {
		if idx := strings.Index(strings.ToLower(tag), needle); idx >= 0 {
			return searchHit{it: it, rank: 1, field: "tags", snippet: highlight(tag, idx, len(needle))}, true
		}
	}
	if idx := strings.Index(strings.ToLower(it.Body), needle); idx >= 0 {
		return searchHit{it: it, rank: 2, field: "body", snippet: highlight(it.Body, idx, len(needle))}, true
	}
	return searchHit{}, false
}

// highlight cuts a window around s[idx:idx+n], escapes it and wraps the
// match in <b> tags. Offsets come from the lowercased text; when lowering
// changed byte lengths the match is not highlighted.
func highlight(s string, idx, n int) string {
	if idx+n > len(s) || !utf8.RuneStart(s[idx]) || (idx+n < len(s) && !utf8.RuneStart(s[idx+n])) {
		return html.EscapeString(window(s, 0, 2*snippetContext))
	}

	start := max(idx-snippetContext, 0)
	for start > 0 && !utf8.RuneStart(s[start]) {
		start--
	}
	end := min(idx+n+snippetContext, len(s))
	for end < len(s) && !utf8.RuneStart(s[end]) {
		end++
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(html.EscapeString(s[start:idx]))
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(s[idx : idx+n]))
	b.WriteString("</b>")
	b.WriteString(html.EscapeString(s[idx+n : end]))
	if end < len(s) {
		b.WriteString("...")
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func window(s string, start, n int) string {
	r := []rune(s)
	end := min(start+n, len(r))
	return string(r[start:end])
}

// truncateSnippet truncates a snippet to approximately maxChars while:
// 1. Preserving valid UTF-8 (never splits multi-byte runes)
// 2. Preserving markup integrity (closes any open <b> tags)
// 3. Preferring word boundaries when possible
func truncateSnippet(s string, maxChars int) string {
	if maxChars <= 0 {
		return "..."
	}
	if len(s) <= maxChars {
		return s
	}

	truncateAt := maxChars
	for truncateAt > 0 && !utf8.RuneStart(s[truncateAt]) {
		truncateAt--
	}
	if truncateAt == 0 {
		return "..."
	}
	truncated := s[:truncateAt]

	// Drop a partial tag or entity at the cut.
	if lastLT := strings.LastIndex(truncated, "<"); lastLT != -1 && !strings.Contains(truncated[lastLT:], ">") {
		truncated = truncated[:lastLT]
	}
	if lastAmp := strings.LastIndex(truncated, "&"); lastAmp != -1 && !strings.Contains(truncated[lastAmp:], ";") {
		truncated = truncated[:lastAmp]
	}

	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > truncateAt/2 {
		truncated = truncated[:lastSpace]
	}

	for range strings.Count(truncated, "<b>") - strings.Count(truncated, "</b>") {
		truncated += "</b>"
	}

	return truncated + "..."
}
