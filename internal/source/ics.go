package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	appLog "timelineview/internal/log"
	"timelineview/internal/model"
)

// ICSEngine implements Engine on top of a set of ICS subscriptions. Queries
// fetch fresh (HTTP-cache-assisted) snapshots; there is no record cache and
// no cross-query identity.
type ICSEngine struct {
	subs    []Subscription
	fetcher *Fetcher
	loc     *time.Location
	clock   func() time.Time

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

// NewICSEngine builds an engine over the given subscriptions. loc is the
// display timezone for all record dates and for Now.
func NewICSEngine(subs []Subscription, cacheDir string, loc *time.Location) *ICSEngine {
	if loc == nil {
		loc = time.Local
	}
	return &ICSEngine{
		subs:      subs,
		fetcher:   NewFetcher(cacheDir),
		loc:       loc,
		clock:     time.Now,
		listeners: map[int]func(){},
	}
}

// WithClock overrides the engine clock. Intended for tests.
func (e *ICSEngine) WithClock(clock func() time.Time) *ICSEngine {
	e.clock = clock
	return e
}

// Now returns the current instant in the engine's display timezone.
func (e *ICSEngine) Now() time.Time {
	return e.clock().In(e.loc)
}

// Query fetches and parses all subscriptions selected by expr and returns
// their events as records. expr is a comma-separated list of subscription
// IDs or names, each optionally double-quoted; an empty expression selects
// every subscription.
//
// The error wraps ErrUnavailable when no subscription could produce a body
// at all; partial failures are logged and the surviving records returned.
func (e *ICSEngine) Query(ctx context.Context, expr string) ([]model.Record, error) {
	if len(e.subs) == 0 {
		return nil, fmt.Errorf("no ICS subscriptions configured: %w", ErrUnavailable)
	}

	wanted := e.selectSubs(expr)
	if len(wanted) == 0 {
		appLog.Warn("query expression matches no subscription", "expr", expr)
		return []model.Record{}, nil
	}

	results, errs := e.fetcher.FetchAll(ctx, wanted)
	if len(results) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("all ICS fetches failed (%v): %w", aggregateErrors(errs), ErrUnavailable)
	}

	records := make([]model.Record, 0)
	for _, res := range results {
		recs, err := RecordsFromICS(res.Sub, res.Body)
		if err != nil {
			appLog.Error("skipping unparseable ICS body", err, "id", res.Sub.ID)
			continue
		}
		for i := range recs {
			normalizeDates(&recs[i], e.loc)
		}
		records = append(records, recs...)
	}
	return records, nil
}

// selectSubs resolves a query expression to the matching subscriptions.
func (e *ICSEngine) selectSubs(expr string) []Subscription {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return e.subs
	}

	var out []Subscription
	for _, token := range strings.Split(expr, ",") {
		token = strings.Trim(strings.TrimSpace(token), `"`)
		if token == "" {
			continue
		}
		for _, sub := range e.subs {
			if sub.ID == token || sub.Name == token {
				out = append(out, sub)
			}
		}
	}
	return out
}

// normalizeDates shifts all date attributes into the display timezone so
// canonical day keys agree with the day axis built from Now.
//
// Timed events convert by instant. All-day events are date-only: converting
// their parsed midnight would slide them onto the previous calendar day in
// any zone behind the parse zone, so they are re-anchored by calendar
// components instead.
func normalizeDates(rec *model.Record, loc *time.Location) {
	_, allDay := rec.Attrs[AttrAllDay]
	for name, v := range rec.Attrs {
		t, ok := v.(time.Time)
		if !ok {
			continue
		}
		if allDay {
			rec.Attrs[name] = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
			continue
		}
		rec.Attrs[name] = t.In(loc)
	}
}

// Refresh warms the fetch cache for every subscription and notifies all
// refresh listeners. The cron schedule drives this periodically.
func (e *ICSEngine) Refresh(ctx context.Context) {
	_, errs := e.fetcher.FetchAll(ctx, e.subs)
	if len(errs) > 0 {
		appLog.Error("refresh completed with errors", aggregateErrors(errs), "error_count", len(errs))
	}
	e.notify()
}

// OnRefresh registers fn to run after each data refresh. The returned cancel
// releases the subscription; it is safe to call more than once.
func (e *ICSEngine) OnRefresh(fn func()) (cancel func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *ICSEngine) notify() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
