package timeline

import (
	"regexp"
	"strings"
	"time"

	"timelineview/internal/args"
	appLog "timelineview/internal/log"
	"timelineview/internal/model"
)

// Grid geometry. Rows and columns are 1-based, matching the CSS grid the
// renderer emits: row 1 holds month labels, row 2 day-of-month labels, and
// events start at row 3, one row per event in presentation order.
const (
	// MinVisibleRows is the minimum number of event rows; short event
	// lists still get a grid of this height.
	MinVisibleRows = 10

	monthRow      = 1
	dayRow        = 2
	firstEventRow = 3
)

// MonthCell labels the first day of a month.
type MonthCell struct {
	Row    int
	Column int
	Name   string
}

// DayCell labels one day column with its day of month.
type DayCell struct {
	Row        int
	Column     int
	DayOfMonth int
}

// BackgroundCell shades one full day column behind the event rows.
type BackgroundCell struct {
	Row     int
	RowSpan int
	Column  int
	Holiday bool
}

// Badge is an extra record attribute rendered on an event cell.
type Badge struct {
	Name  string
	Value string
}

// EventCell is one event placed on the grid, spanning ColumnSpan day columns
// starting at Column.
type EventCell struct {
	Row        int
	Column     int
	ColumnSpan int
	Text       string
	Badges     []Badge
}

// Grid is the fully positioned description of one rendered timeline, ready
// for mounting. For fixed inputs it is deterministic: all cell slices are in
// stable order.
type Grid struct {
	Rows    int
	Columns int

	Months      []MonthCell
	Days        []DayCell
	Backgrounds []BackgroundCell
	Events      []EventCell
}

// inlineFieldPattern strips bracketed inline-field markup from event text.
var inlineFieldPattern = regexp.MustCompile(`\[.*\]`)

// Layout places the visible days and the selected event records onto the
// grid. days must be ascending (as built by BuildRange) and records ordered
// as produced by SelectEvents (descending by start date).
//
// Events whose start date falls outside the visible window are skipped with
// a warning; they occupy their row in the ordering but emit no cell. No
// overlap avoidance is performed: each event gets exactly one row in list
// order regardless of date overlap.
func Layout(days []Day, records []model.Record, q args.Query, now time.Time) Grid {
	visibleRows := len(records)
	if visibleRows < MinVisibleRows {
		visibleRows = MinVisibleRows
	}

	grid := Grid{
		Rows:    visibleRows + dayRow,
		Columns: len(days),
	}

	dateToColumn := make(map[string]int, len(days))
	for _, day := range days {
		column := day.Column + 1

		dateToColumn[day.Key()] = day.Column

		if day.Date.Day() == 1 {
			grid.Months = append(grid.Months, MonthCell{
				Row:    monthRow,
				Column: column,
				Name:   day.MonthName(),
			})
		}

		grid.Days = append(grid.Days, DayCell{
			Row:        dayRow,
			Column:     column,
			DayOfMonth: day.Date.Day(),
		})

		grid.Backgrounds = append(grid.Backgrounds, BackgroundCell{
			Row:     dayRow,
			RowSpan: grid.Rows,
			Column:  column,
			Holiday: day.Holiday,
		})
	}

	for i, rec := range records {
		start, ok := rec.Date(q.StartField)
		if !ok {
			continue
		}

		column, ok := dateToColumn[DayKey(start)]
		if !ok {
			appLog.Warn("event start outside visible window, skipped",
				"start", DayKey(start), "text", rec.Text)
			continue
		}

		end := now
		if q.EndField != "" {
			if e, ok := rec.Date(q.EndField); ok {
				end = e
			}
		}

		grid.Events = append(grid.Events, EventCell{
			Row:        i + firstEventRow,
			Column:     column + 1,
			ColumnSpan: durationDays(start, end),
			Text:       cleanText(rec.Text),
			Badges:     badges(rec, q.Tags),
		})
	}

	return grid
}

// durationDays converts an event's start/end pair into a column span:
// calendar days covered, inclusive of both ends, never less than one
// column. Both ends are truncated to their own calendar date first, so
// UTC-offset shifts between them (a DST transition inside the span) do not
// change the count.
func durationDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	d := int(e.Sub(s).Hours()/24) + 1
	if d < 1 {
		d = 1
	}
	return d
}

func cleanText(text string) string {
	return strings.TrimSpace(inlineFieldPattern.ReplaceAllString(text, ""))
}

func badges(rec model.Record, tags []string) []Badge {
	var out []Badge
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		value, ok := rec.Attr(tag)
		if !ok {
			continue
		}
		out = append(out, Badge{Name: tag, Value: value})
	}
	return out
}
