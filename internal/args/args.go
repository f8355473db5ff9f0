// Package args parses the text block of a timelineview code fence into a
// typed query description.
//
// The block is a sequence of "Key: Value" lines, e.g.
//
//	EventFind: "projects"
//	EventStartField: started
//	EventEndField: done
//	Period: 30
//	FutureOffset: 7
//	Limit: 50
//	Tags: owner, status
//
// Parsing never fails; lines without a colon and unrecognized keys are
// dropped. Validation and numeric coercion happen in Compile, which reports
// every problem at once so a misconfigured block fails fast with a full list.
package args

import (
	"fmt"
	"strconv"
	"strings"
)

// Recognized keys of the argument block.
const (
	KeyEventFind       = "EventFind"
	KeyEventStartField = "EventStartField"
	KeyEventEndField   = "EventEndField"
	KeyPeriod          = "Period"
	KeyFutureOffset    = "FutureOffset"
	KeyFuturePeriod    = "FuturePeriod" // legacy spelling of FutureOffset
	KeyLimit           = "Limit"
	KeyTags            = "Tags"
)

// Arguments is the raw parse result. Values are kept as strings; numeric
// coercion is deferred to Compile so the parser itself never fails.
type Arguments struct {
	EventFind       string
	EventStartField string
	EventEndField   string
	Period          string
	FutureOffset    string
	Limit           string
	Tags            []string

	present map[string]bool
}

// Has reports whether the given key appeared in the source text.
func (a Arguments) Has(key string) bool {
	return a.present[key]
}

// Parse splits the source text into "Key: Value" lines. Each line is split on
// the first colon; key and value are trimmed. Lines without a colon
// contribute nothing. "Tags" is split further on commas, each entry trimmed.
//
// Defaults applied when absent: Tags = [], FutureOffset = "0".
func Parse(text string) Arguments {
	a := Arguments{
		FutureOffset: "0",
		Tags:         []string{},
		present:      map[string]bool{},
	}

	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case KeyEventFind:
			a.EventFind = value
		case KeyEventStartField:
			a.EventStartField = value
		case KeyEventEndField:
			a.EventEndField = value
		case KeyPeriod:
			a.Period = value
		case KeyFutureOffset:
			a.FutureOffset = value
		case KeyFuturePeriod:
			// Legacy alias; an explicit FutureOffset wins regardless of
			// line order.
			if !a.present[KeyFutureOffset] {
				a.FutureOffset = value
				a.present[KeyFuturePeriod] = true
			}
			continue
		case KeyLimit:
			a.Limit = value
		case KeyTags:
			tags := strings.Split(value, ",")
			for i := range tags {
				tags[i] = strings.TrimSpace(tags[i])
			}
			a.Tags = tags
		default:
			// Unrecognized key: dropped silently.
			continue
		}
		a.present[key] = true
	}

	return a
}

// Query is the validated, typed form of Arguments.
type Query struct {
	// Source is the opaque query expression passed to the data source.
	Source string

	// StartField and EndField name the record attributes holding the
	// event start and end dates. EndField may be empty; records without
	// an end date run until "now".
	StartField string
	EndField   string

	// Period is the number of past days to display; FutureOffset the
	// number of future days.
	Period       int
	FutureOffset int

	// Limit caps the number of displayed events; -1 means no limit.
	Limit int

	// Tags lists additional record attributes rendered as badges.
	Tags []string
}

// ConfigError reports every validation problem of an argument block at once.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid timeline arguments: " + strings.Join(e.Problems, "; ")
}

// Compile validates the raw arguments and coerces numeric fields. It returns
// a *ConfigError listing all missing required keys and all non-numeric or
// negative numeric values.
func (a Arguments) Compile() (Query, error) {
	var problems []string

	for _, req := range []string{KeyEventFind, KeyEventStartField, KeyPeriod} {
		if !a.Has(req) {
			problems = append(problems, fmt.Sprintf("missing required key %q", req))
		}
	}

	q := Query{
		Source:     a.EventFind,
		StartField: a.EventStartField,
		EndField:   a.EventEndField,
		Limit:      -1,
		Tags:       a.Tags,
	}

	if a.Has(KeyPeriod) {
		q.Period = parseCount(KeyPeriod, a.Period, &problems)
	}
	if a.FutureOffset != "" {
		q.FutureOffset = parseCount(KeyFutureOffset, a.FutureOffset, &problems)
	}
	if a.Has(KeyLimit) {
		q.Limit = parseCount(KeyLimit, a.Limit, &problems)
	}

	if len(problems) > 0 {
		return Query{}, &ConfigError{Problems: problems}
	}
	return q, nil
}

func parseCount(key, value string, problems *[]string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %q is not a number", key, value))
		return 0
	}
	if n < 0 {
		*problems = append(*problems, fmt.Sprintf("%s: must not be negative, got %d", key, n))
		return 0
	}
	return n
}
