// Package source defines the data source contract the render pipeline
// consumes, and implements it on top of ICS calendar subscriptions.
package source

import (
	"context"
	"errors"
	"strings"
	"time"

	"timelineview/internal/model"
)

// ErrUnavailable reports that the external data source cannot serve queries
// at all (no sources configured, or none reachable). Renders treat this as
// fatal for the current pass and leave prior content in place.
var ErrUnavailable = errors.New("data source unavailable")

// Engine is the query engine contract. Implementations are read-only: Query
// results are fresh snapshots and callers never write back.
type Engine interface {
	// Query returns all records matching the given source expression.
	Query(ctx context.Context, expr string) ([]model.Record, error)

	// Now returns the current instant in the engine's own clock, so date
	// comparisons stay consistent with the dates found in records.
	Now() time.Time

	// OnRefresh registers fn to run after the engine's data has been
	// refreshed. The returned cancel releases the subscription.
	OnRefresh(fn func()) (cancel func())
}

// aggregateErrors joins multiple errors into one line for logs that
// summarize a multi-source fetch.
func aggregateErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}
