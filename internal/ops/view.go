package ops

import (
	"time"

	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/projection"
	"github.com/hpungsan/sieve/internal/store"
)

// ViewInput contains parameters for the View operation.
type ViewInput struct {
	Name    string  // required: inbox|review|scheduled|ongoing|discard|re-evaluate|calendar|done
	Tag     *string // optional filter
	Mode    string  // optional filter
	Project *string // optional filter
	Limit   int
	Offset  int
}

// ViewOutput contains the result of the View operation.
type ViewOutput struct {
	Name       projection.Name `json:"name"`
	Items      []item.Summary  `json:"items"`
	Pagination Pagination      `json:"pagination"`
	Sort       string          `json:"sort"`
}

// View returns one named projection of the store.
func View(st *store.Store, input ViewInput) (*ViewOutput, error) {
	name, ok := projection.ParseName(input.Name)
	if !ok {
		return nil, errors.NewUnknownProjection(input.Name, projection.NameStrings())
	}
	mode, err := parseMode(input.Mode, true)
	if err != nil {
		return nil, err
	}

	items, _ := projection.Of(name, st.All())
	filter := itemFilter{Tag: cleanOptionalString(input.Tag), Mode: mode, Project: cleanOptionalString(input.Project)}
	items = filter.apply(items)
	page, pagination := paginate(items, input.Limit, input.Offset)

	sort := "created_at_desc"
	if name == projection.NameScheduled {
		sort = "final_score_desc"
	}

	return &ViewOutput{
		Name:       name,
		Items:      item.Summaries(page),
		Pagination: pagination,
		Sort:       sort,
	}, nil
}

// BoardOutput is the ongoing projection grouped into tabs and projects.
type BoardOutput struct {
	Tabs  []projection.TabGroup `json:"tabs"`
	Total int                   `json:"total"`
}

// Board returns the ongoing items grouped by task category and project.
func Board(st *store.Store) *BoardOutput {
	items := st.All()
	return &BoardOutput{
		Tabs:  projection.OngoingBoard(items),
		Total: len(projection.Ongoing(items)),
	}
}

// Calendar defaults
const (
	DefaultCalendarDays = 7
	MaxCalendarDays     = 62
)

// CalendarInput contains parameters for the Calendar operation.
type CalendarInput struct {
	Mode string // optional: professional|personal
	From string // optional YYYY-MM-DD; default: start of the current week
	Days int    // default: 7, max: 62
}

// CalendarOutput contains the calendar items and their per-day events.
type CalendarOutput struct {
	From  string           `json:"from"`
	Days  []projection.Day `json:"days"`
	Items []item.Summary   `json:"items"`
}

// Calendar lays out todo and ongoing items over a run of days.
func Calendar(st *store.Store, input CalendarInput, now time.Time) (*CalendarOutput, error) {
	mode, err := parseMode(input.Mode, true)
	if err != nil {
		return nil, err
	}

	from := projection.WeekStart(now)
	if input.From != "" {
		t, ok := item.ParseDate(input.From)
		if !ok {
			return nil, errors.NewInvalidRequest("from must be a date (YYYY-MM-DD)")
		}
		from = t
	}

	days := input.Days
	if days <= 0 {
		days = DefaultCalendarDays
	}
	if days > MaxCalendarDays {
		return nil, errors.NewInvalidRequest("days must not exceed 62")
	}

	all := st.All()
	items := projection.Calendar(all)
	if mode != "" {
		items = itemFilter{Mode: mode}.apply(items)
	}

	return &CalendarOutput{
		From:  from.UTC().Format(item.DateLayout),
		Days:  projection.CalendarDays(all, mode, from, days),
		Items: item.Summaries(items),
	}, nil
}
