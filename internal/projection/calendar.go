package projection

import (
	"time"

	"github.com/hpungsan/sieve/internal/item"
)

// EventKind says why an item appears on a calendar day.
type EventKind string

const (
	EventStart    EventKind = "start"
	EventDeadline EventKind = "deadline"
)

// Event is one item on one calendar day.
type Event struct {
	Kind EventKind  `json:"kind"`
	Item *item.Item `json:"item"`
}

// Day is one calendar day and its events.
type Day struct {
	Date   string  `json:"date"`
	Events []Event `json:"events"`
}

// WeekStart returns the Sunday on or before t, at midnight UTC.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// CalendarDays lays calendar items out over days starting at from. mode
// filters by assessment mode when non-empty; unscored items then never
// match. An item appears on its start date (creation day when unset) and
// again on its due date.
func CalendarDays(items []*item.Item, mode item.Mode, from time.Time, days int) []Day {
	if days <= 0 {
		days = 7
	}
	from = from.UTC()
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]Day, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(item.DateLayout)
		out[i] = Day{Date: date, Events: []Event{}}
		index[date] = i
	}

	for _, it := range Calendar(items) {
		if mode != "" && it.Mode() != mode {
			continue
		}
		startDay := it.CreatedDay()
		if it.StartDate != nil {
			startDay = item.Day(*it.StartDate)
		}
		if i, ok := index[startDay]; ok {
			out[i].Events = append(out[i].Events, Event{Kind: EventStart, Item: it})
		}
		if it.DueDate != nil {
			if i, ok := index[item.Day(*it.DueDate)]; ok {
				out[i].Events = append(out[i].Events, Event{Kind: EventDeadline, Item: it})
			}
		}
	}
	return out
}
