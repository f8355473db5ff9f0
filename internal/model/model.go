package model

import (
	"fmt"
	"time"
)

// Record is a single event-like item supplied by the data source. The view
// layer treats records as read-only: it looks up attributes by the names the
// user configured (e.g. "start", "end", "location") and never writes back.
//
// Attribute values are time.Time for date attributes and plain scalars
// (strings, bools) for everything else.
type Record struct {
	// SourceID identifies the subscription the record came from.
	SourceID string

	// Text is the display text of the record.
	Text string

	// Attrs maps attribute names to values.
	Attrs map[string]any
}

// Date returns the named attribute as a date, if present and date-valued.
func (r Record) Date(name string) (time.Time, bool) {
	v, ok := r.Attrs[name]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Attr returns the named attribute rendered as a string, if present.
// Date attributes are formatted as their calendar date.
func (r Record) Attr(name string) (string, bool) {
	v, ok := r.Attrs[name]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case time.Time:
		return t.Format("2006-01-02"), true
	default:
		return fmt.Sprint(t), true
	}
}
