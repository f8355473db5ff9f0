package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelineview/internal/model"
)

func rec(text string, attrs map[string]any) model.Record {
	return model.Record{Text: text, Attrs: attrs}
}

func TestSelectEvents_FiltersByCutoff(t *testing.T) {
	now := date(2026, time.August, 28)
	records := []model.Record{
		rec("x", map[string]any{"start": now}),
		rec("y", map[string]any{"start": now.AddDate(0, 0, -10)}),
	}

	cutoff := now.AddDate(0, 0, -5)
	selected := SelectEvents(records, "start", cutoff, -1)

	require.Len(t, selected, 1)
	assert.Equal(t, "x", selected[0].Text)
}

func TestSelectEvents_CutoffIsStrict(t *testing.T) {
	now := date(2026, time.August, 28)
	cutoff := now.AddDate(0, 0, -5)

	records := []model.Record{rec("edge", map[string]any{"start": cutoff})}

	assert.Empty(t, SelectEvents(records, "start", cutoff, -1))
}

func TestSelectEvents_ExcludesMissingStartField(t *testing.T) {
	now := date(2026, time.August, 28)
	records := []model.Record{
		rec("no start", map[string]any{"end": now}),
		rec("string start", map[string]any{"start": "yesterday"}),
		rec("ok", map[string]any{"start": now}),
	}

	selected := SelectEvents(records, "start", now.AddDate(0, 0, -5), -1)

	require.Len(t, selected, 1)
	assert.Equal(t, "ok", selected[0].Text)
}

func TestSelectEvents_SortsDescending(t *testing.T) {
	now := date(2026, time.August, 28)
	records := []model.Record{
		rec("old", map[string]any{"start": now.AddDate(0, 0, -3)}),
		rec("new", map[string]any{"start": now}),
		rec("mid", map[string]any{"start": now.AddDate(0, 0, -1)}),
	}

	selected := SelectEvents(records, "start", now.AddDate(0, 0, -10), -1)

	require.Len(t, selected, 3)
	assert.Equal(t, "new", selected[0].Text)
	assert.Equal(t, "mid", selected[1].Text)
	assert.Equal(t, "old", selected[2].Text)
}

func TestSelectEvents_LimitAppliesAfterSort(t *testing.T) {
	now := date(2026, time.August, 28)
	records := []model.Record{
		rec("old", map[string]any{"start": now.AddDate(0, 0, -3)}),
		rec("new", map[string]any{"start": now}),
	}

	selected := SelectEvents(records, "start", now.AddDate(0, 0, -10), 1)

	require.Len(t, selected, 1)
	assert.Equal(t, "new", selected[0].Text)
}

func TestSelectEvents_DoesNotMutateInput(t *testing.T) {
	now := date(2026, time.August, 28)
	records := []model.Record{
		rec("a", map[string]any{"start": now.AddDate(0, 0, -2)}),
		rec("b", map[string]any{"start": now}),
	}

	_ = SelectEvents(records, "start", now.AddDate(0, 0, -10), -1)

	assert.Equal(t, "a", records[0].Text)
	assert.Equal(t, "b", records[1].Text)
}
