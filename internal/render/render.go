// Package render turns a timelineview source block into mounted HTML: it
// parses the block, queries the data source, lays out the grid, and swaps
// the result into the target container atomically.
package render

import (
	"context"
	"errors"
	"time"

	"timelineview/internal/args"
	appLog "timelineview/internal/log"
	"timelineview/internal/model"
	"timelineview/internal/source"
	"timelineview/internal/timeline"
)

// Pipeline orchestrates one render pass. It holds no per-render state, so a
// single pipeline serves any number of views and containers.
type Pipeline struct {
	engine source.Engine
}

func NewPipeline(engine source.Engine) *Pipeline {
	return &Pipeline{engine: engine}
}

// Result is the evaluated state of one source block at one instant.
type Result struct {
	Query  args.Query
	Now    time.Time
	Days   []timeline.Day
	Events []model.Record
	Grid   timeline.Grid
}

// Evaluate runs the computation half of a render: parse and validate the
// block, query the engine, select events, build the day window, and lay out
// the grid. Nothing is mounted.
func (p *Pipeline) Evaluate(ctx context.Context, sourceText string) (Result, error) {
	q, err := args.Parse(sourceText).Compile()
	if err != nil {
		return Result{}, err
	}

	// "Now" comes from the engine's clock so comparisons against record
	// dates stay within one date representation.
	now := p.engine.Now()

	records, err := p.engine.Query(ctx, q.Source)
	if err != nil {
		return Result{}, err
	}

	cutoff := now.AddDate(0, 0, -q.Period)
	events := timeline.SelectEvents(records, q.StartField, cutoff, q.Limit)
	days := timeline.BuildRange(now, q.Period, q.FutureOffset)

	return Result{
		Query:  q,
		Now:    now,
		Days:   days,
		Events: events,
		Grid:   timeline.Layout(days, events, q, now),
	}, nil
}

// Render runs a full render pass for the given source text into c.
//
// Mounting is all-or-nothing: any failure before the final mount leaves the
// container's previous content untouched. Two failure modes are surfaced in
// the container itself rather than just the log:
//
//   - configuration errors mount their message in place of the grid
//   - everything else (unreachable data source included) is logged, the
//     error returned, and the prior content left in place
//
// If another render began for the same container while this one was
// querying, the stale result is discarded.
func (p *Pipeline) Render(ctx context.Context, sourceText string, c *Container) error {
	token := c.Begin()

	res, err := p.Evaluate(ctx, sourceText)
	if err != nil {
		var cfgErr *args.ConfigError
		if errors.As(err, &cfgErr) {
			appLog.Warn("render failed: bad arguments", "err", cfgErr.Error())
			c.Mount(token, ErrorHTML(cfgErr.Error()))
			return err
		}
		if errors.Is(err, source.ErrUnavailable) {
			appLog.Error("render aborted: data source unavailable", err)
			return err
		}
		appLog.Error("render aborted", err)
		return err
	}

	html, err := HTML(res.Grid)
	if err != nil {
		appLog.Error("grid template execution failed", err)
		return err
	}

	if !c.Mount(token, html) {
		appLog.Debug("stale render discarded", "token", token)
		return nil
	}

	appLog.Debug("render mounted",
		"events", len(res.Events),
		"days", len(res.Days),
		"rows", res.Grid.Rows,
	)
	return nil
}
