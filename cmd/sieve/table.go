package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/ops"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// summaryTable renders browse results one item per row.
func summaryTable(items []item.Summary) string {
	rows := make([][]string, 0, len(items))
	for _, s := range items {
		rows = append(rows, []string{
			s.ID,
			truncate(s.Title, 48),
			string(s.Stage),
			formatScore(s.FinalScore),
			deref(s.DueDate),
			strings.Join(s.Tags, ","),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Stage", "Score", "Due", "Tags"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	)
}

// itemTable renders one item as field/value rows.
func itemTable(it *item.Item, actions []string) string {
	rows := [][]string{
		{"ID", it.ID},
		{"Title", it.Title},
		{"Type", string(it.Type)},
		{"Stage", string(it.Stage)},
		{"Tags", strings.Join(it.Tags, ", ")},
	}
	if it.Assessment != nil {
		a := it.Assessment
		rows = append(rows,
			[]string{"Mode", string(a.Mode)},
			[]string{"Factors", fmt.Sprintf("R%d I%d C%d E%d", a.Factors.Reach, a.Factors.Impact, a.Factors.Confidence, a.Factors.Effort)},
			[]string{"Score", strconv.FormatFloat(a.FinalScore, 'f', -1, 64)},
		)
	}
	optional := []struct {
		label string
		value *string
	}{
		{"Assigned", it.AssignedTo},
		{"Start", it.StartDate},
		{"Due", it.DueDate},
		{"Project", it.Project},
	}
	for _, o := range optional {
		if o.value != nil {
			rows = append(rows, []string{o.label, *o.value})
		}
	}
	if it.TaskCategory != nil {
		rows = append(rows, []string{"Category", string(*it.TaskCategory)})
	}
	rows = append(rows,
		[]string{"Created", formatUnix(it.CreatedAt)},
		[]string{"Updated", formatUnix(it.UpdatedAt)},
		[]string{"Revision", strconv.FormatInt(it.Revision, 10)},
	)
	if actions != nil {
		rows = append(rows, []string{"Actions", strings.Join(actions, ", ")})
	}
	if it.Body != "" {
		rows = append(rows, []string{"Body", truncate(it.Body, 200)})
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

// boardTable renders the ongoing board as tab/project/item rows.
func boardTable(out *ops.BoardOutput) string {
	var rows [][]string
	for _, tab := range out.Tabs {
		for _, group := range tab.Projects {
			for _, s := range group.Items {
				rows = append(rows, []string{string(tab.Tab), group.Project, s.ID, truncate(s.Title, 48)})
			}
		}
	}
	return renderTable([]string{"Tab", "Project", "ID", "Title"}, rows, nil)
}

// calendarTable renders one row per event.
func calendarTable(out *ops.CalendarOutput) string {
	var rows [][]string
	for _, day := range out.Days {
		for _, ev := range day.Events {
			rows = append(rows, []string{day.Date, string(ev.Kind), ev.Item.ID, truncate(ev.Item.Title, 48)})
		}
	}
	return renderTable([]string{"Date", "Event", "ID", "Title"}, rows, nil)
}

// transitionTable renders the outcome of one action.
func transitionTable(out *ops.TransitionOutput) string {
	changed := "no"
	if out.Changed {
		changed = "yes"
	}
	if !out.Applied {
		changed = "unknown id"
	}
	rows := [][]string{{out.ID, out.Action, string(out.From), string(out.To), changed}}
	return renderTable([]string{"ID", "Action", "From", "To", "Changed"}, rows, nil)
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.DateTime)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
