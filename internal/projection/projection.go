// Package projection derives read-only views of the item collection.
// Every view is recomputed from the items it is given; nothing is cached.
package projection

import (
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/sieve/internal/item"
)

// Name identifies a view.
type Name string

const (
	NameInbox      Name = "inbox"
	NameReview     Name = "review"
	NameScheduled  Name = "scheduled"
	NameOngoing    Name = "ongoing"
	NameDiscard    Name = "discard"
	NameReEvaluate Name = "re-evaluate"
	NameCalendar   Name = "calendar"
	NameDone       Name = "done"
)

// Names lists the seven workflow views.
var Names = []Name{
	NameInbox, NameReview, NameScheduled, NameOngoing,
	NameDiscard, NameReEvaluate, NameCalendar,
}

// AllNames lists every view, including done.
var AllNames = append(append([]Name(nil), Names...), NameDone)

// ParseName resolves a view name, accepting a few aliases.
func ParseName(s string) (Name, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "bin", "discarded":
		return NameDiscard, true
	case "reevaluate":
		return NameReEvaluate, true
	case "archive":
		return NameDone, true
	}
	for _, n := range AllNames {
		if string(n) == v {
			return n, true
		}
	}
	return "", false
}

// NameStrings returns AllNames as strings, for error details and help text.
func NameStrings() []string {
	out := make([]string, 0, len(AllNames))
	for _, n := range AllNames {
		out = append(out, string(n))
	}
	return out
}

// Of returns the view called name.
func Of(name Name, items []*item.Item) ([]*item.Item, bool) {
	switch name {
	case NameInbox:
		return Inbox(items), true
	case NameReview:
		return Review(items), true
	case NameScheduled:
		return Scheduled(items), true
	case NameOngoing:
		return Ongoing(items), true
	case NameDiscard:
		return Discard(items), true
	case NameReEvaluate:
		return ReEvaluate(items), true
	case NameCalendar:
		return Calendar(items), true
	case NameDone:
		return Done(items), true
	}
	return nil, false
}

func byStage(items []*item.Item, stage item.Stage) []*item.Item {
	out := []*item.Item{}
	for _, it := range items {
		if it.Stage == stage {
			out = append(out, it)
		}
	}
	return out
}

// Inbox returns unprocessed items.
func Inbox(items []*item.Item) []*item.Item { return byStage(items, item.StageInbox) }

// Review returns processed items waiting to be scored.
func Review(items []*item.Item) []*item.Item { return byStage(items, item.StageReview) }

// Discard returns binned items.
func Discard(items []*item.Item) []*item.Item { return byStage(items, item.StageDiscarded) }

// ReEvaluate returns items whose score landed in the middle band.
func ReEvaluate(items []*item.Item) []*item.Item { return byStage(items, item.StageReEvaluate) }

// Ongoing returns items in progress.
func Ongoing(items []*item.Item) []*item.Item { return byStage(items, item.StageOngoing) }

// Done returns completed items.
func Done(items []*item.Item) []*item.Item { return byStage(items, item.StageDone) }

// Scheduled returns scored todo items by descending score. Ties go to the
// earliest of due date, start date, creation time (the first one present
// and parseable).
func Scheduled(items []*item.Item) []*item.Item {
	out := byStage(items, item.StageScheduled)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := finalScore(out[i]), finalScore(out[j])
		if si != sj {
			return si > sj
		}
		return sortTime(out[i]).Before(sortTime(out[j]))
	})
	return out
}

func finalScore(it *item.Item) float64 {
	if it.Assessment == nil {
		return 0
	}
	return it.Assessment.FinalScore
}

func sortTime(it *item.Item) time.Time {
	for _, s := range []*string{it.DueDate, it.StartDate} {
		if s == nil {
			continue
		}
		if t, ok := item.ParseDate(*s); ok {
			return t
		}
	}
	return time.Unix(it.CreatedAt, 0).UTC()
}

// Calendar returns every todo or ongoing item.
func Calendar(items []*item.Item) []*item.Item {
	out := []*item.Item{}
	for _, it := range items {
		if it.Stage.Todo() || it.Stage == item.StageOngoing {
			out = append(out, it)
		}
	}
	return out
}
