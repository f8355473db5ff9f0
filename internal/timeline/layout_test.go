package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelineview/internal/args"
	"timelineview/internal/model"
)

func testQuery() args.Query {
	return args.Query{
		Source:     "all",
		StartField: "start",
		EndField:   "end",
		Limit:      -1,
	}
}

func TestLayout_SingleDayEventSpansOneColumn(t *testing.T) {
	now := date(2026, time.August, 28)
	days := BuildRange(now, 7, 0)
	day0 := days[2].Date

	records := []model.Record{
		rec("meeting", map[string]any{"start": day0, "end": day0}),
	}

	grid := Layout(days, records, testQuery(), now)

	require.Len(t, grid.Events, 1)
	assert.Equal(t, days[2].Column+1, grid.Events[0].Column)
	assert.Equal(t, 1, grid.Events[0].ColumnSpan)
}

func TestLayout_ThreeDayEventSpansThreeColumns(t *testing.T) {
	now := date(2026, time.August, 28)
	days := BuildRange(now, 7, 0)
	day0 := days[1].Date

	records := []model.Record{
		rec("offsite", map[string]any{"start": day0, "end": day0.AddDate(0, 0, 2)}),
	}

	grid := Layout(days, records, testQuery(), now)

	require.Len(t, grid.Events, 1)
	assert.Equal(t, days[1].Column+1, grid.Events[0].Column)
	assert.Equal(t, 3, grid.Events[0].ColumnSpan)
}

func TestLayout_MissingEndRunsUntilNow(t *testing.T) {
	now := date(2026, time.August, 28)
	days := BuildRange(now, 7, 0)
	start := now.AddDate(0, 0, -2)

	records := []model.Record{
		rec("ongoing", map[string]any{"start": start}),
	}

	grid := Layout(days, records, testQuery(), now)

	require.Len(t, grid.Events, 1)
	assert.Equal(t, 3, grid.Events[0].ColumnSpan)
}

func TestLayout_RowBudget(t *testing.T) {
	now := date(2026, time.August, 28)
	days := BuildRange(now, 7, 0)

	makeRecords := func(n int) []model.Record {
		out := make([]model.Record, n)
		for i := range out {
			out[i] = rec("e", map[string]any{"start": now})
		}
		return out
	}

	// Few events: minimum of 10 visible rows plus 2 header rows.
	grid := Layout(days, makeRecords(3), testQuery(), now)
	assert.Equal(t, 12, grid.Rows)

	// Many events: one row each plus 2 header rows.
	grid = Layout(days, makeRecords(15), testQuery(), now)
	assert.Equal(t, 17, grid.Rows)
}

func TestLayout_RowAssignmentFollowsListOrder(t *testing.T) {
	now := date(2026, time.August, 28)
	days := BuildRange(now, 7, 0)

	records := []model.Record{
		rec("first", map[string]any{"start": now}),
		rec("second", map[string]any{"start": now}),
		rec("third", map[string]any{"start": now}),
	}

	grid := Layout(days, records, testQuery(), now)

	require.Len(t, grid.Events, 3)
	for i, ev := range grid.Events {
		assert.Equal(t, i+3, ev.Row)
	}
}

func TestLayout_SkipsEventOutsideWindow(t *testing.T) {
	now := date(2026, time.August, 28)
	days := BuildRange(now, 7, 0)

	records := []model.Record{
		rec("ancient", map[string]any{"start": now.AddDate(0, 0, -30)}),
		rec("recent", map[string]any{"start": now}),
	}

	grid := Layout(days, records, testQuery(), now)

	require.Len(t, grid.Events, 1)
	assert.Equal(t, "recent", grid.Events[0].Text)
	// The skipped event keeps its row in the ordering.
	assert.Equal(t, 4, grid.Events[0].Row)
}

func TestLayout_MonthLabelOnlyOnFirstOfMonth(t *testing.T) {
	// Window 2026-08-25 .. 2026-09-03 crosses a month boundary.
	now := date(2026, time.September, 3)
	days := BuildRange(now, 10, 0)

	grid := Layout(days, nil, testQuery(), now)

	require.Len(t, grid.Months, 1)
	assert.Equal(t, "September", grid.Months[0].Name)
	assert.Equal(t, 1, grid.Months[0].Row)

	// Day labels and backgrounds cover every column.
	assert.Len(t, grid.Days, 10)
	assert.Len(t, grid.Backgrounds, 10)
}

func TestLayout_HolidayBackgrounds(t *testing.T) {
	// Window ending Friday 2024-06-07 contains Sat 1st and Sun 2nd.
	now := date(2024, time.June, 7)
	days := BuildRange(now, 7, 0)

	grid := Layout(days, nil, testQuery(), now)

	require.Len(t, grid.Backgrounds, 7)
	assert.True(t, grid.Backgrounds[0].Holiday)
	assert.True(t, grid.Backgrounds[1].Holiday)
	assert.False(t, grid.Backgrounds[2].Holiday)
}

func TestLayout_Badges(t *testing.T) {
	now := date(2026, time.August, 28)
	days := BuildRange(now, 7, 0)

	q := testQuery()
	q.Tags = []string{"owner", "missing", "status"}

	records := []model.Record{
		rec("task", map[string]any{
			"start":  now,
			"owner":  "kim",
			"status": "active",
		}),
	}

	grid := Layout(days, records, q, now)

	require.Len(t, grid.Events, 1)
	require.Len(t, grid.Events[0].Badges, 2)
	assert.Equal(t, Badge{Name: "owner", Value: "kim"}, grid.Events[0].Badges[0])
	assert.Equal(t, Badge{Name: "status", Value: "active"}, grid.Events[0].Badges[1])
}

func TestLayout_StripsInlineFieldsFromText(t *testing.T) {
	now := date(2026, time.August, 28)
	days := BuildRange(now, 7, 0)

	records := []model.Record{
		rec("write report [due:: 2026-08-30]", map[string]any{"start": now}),
	}

	grid := Layout(days, records, testQuery(), now)

	require.Len(t, grid.Events, 1)
	assert.Equal(t, "write report", grid.Events[0].Text)
}

func TestLayout_SpanCountsCalendarDaysAcrossOffsetChange(t *testing.T) {
	// Midnight to midnight across a spring-forward shift is only 47 wall
	// hours, but the event still covers three calendar days.
	cet := time.FixedZone("CET", 1*3600)
	cest := time.FixedZone("CEST", 2*3600)

	start := time.Date(2026, time.March, 28, 0, 0, 0, 0, cet)
	end := time.Date(2026, time.March, 30, 0, 0, 0, 0, cest)
	assert.Equal(t, time.Duration(47)*time.Hour, end.Sub(start))

	assert.Equal(t, 3, durationDays(start, end))

	// Fall-back direction: 49 wall hours, same three days.
	start = time.Date(2026, time.October, 24, 0, 0, 0, 0, cest)
	end = time.Date(2026, time.October, 26, 0, 0, 0, 0, cet)
	assert.Equal(t, 3, durationDays(start, end))
}

func TestLayout_DeterministicForFixedInputs(t *testing.T) {
	now := date(2026, time.August, 28)
	days := BuildRange(now, 14, 2)

	records := []model.Record{
		rec("a", map[string]any{"start": now.AddDate(0, 0, -1), "end": now}),
		rec("b", map[string]any{"start": now.AddDate(0, 0, -4)}),
	}

	first := Layout(days, records, testQuery(), now)
	second := Layout(days, records, testQuery(), now)

	assert.Equal(t, first, second)
}

func TestLayout_DifferentDateRepresentationsShareColumns(t *testing.T) {
	// A record date in another zone naming the same calendar day must
	// land on that day's column.
	loc := time.FixedZone("KST", 9*3600)
	now := date(2026, time.August, 28)
	days := BuildRange(now, 7, 0)

	sameDay := time.Date(2026, time.August, 27, 10, 0, 0, 0, loc)
	records := []model.Record{
		rec("x", map[string]any{"start": sameDay, "end": sameDay}),
	}

	grid := Layout(days, records, testQuery(), now)

	require.Len(t, grid.Events, 1)
	assert.Equal(t, days[5].Column+1, grid.Events[0].Column)
}
