package source

import (
	"bytes"
	"errors"
	"strings"

	ical "github.com/arran4/golang-ical"

	appLog "timelineview/internal/log"
	"timelineview/internal/model"
)

// Attribute names exposed on records built from ICS events. Users reference
// these in EventStartField / EventEndField / Tags.
const (
	AttrStart      = "start"
	AttrEnd        = "end"
	AttrLocation   = "location"
	AttrStatus     = "status"
	AttrCalendar   = "calendar"
	AttrCategories = "categories"
	AttrAllDay     = "allDay"
)

// RecordsFromICS parses a single ICS payload into generic records. Each
// VEVENT becomes one record whose display text is the summary and whose
// attributes carry the start/end dates plus a few descriptive fields.
//
// A VEVENT without a parseable DTSTART is skipped with a warning; one bad
// event never fails the whole payload.
func RecordsFromICS(sub Subscription, body []byte) ([]model.Record, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", sub.ID, "url", redactURL(sub.URL))
		return nil, err
	}

	label := sub.Name
	if label == "" {
		label = sub.ID
	}

	records := make([]model.Record, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		rec, ok := recordFromVEvent(sub, label, ve)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	appLog.Debug("ics parse completed", "id", sub.ID, "record_count", len(records))
	return records, nil
}

func recordFromVEvent(sub Subscription, label string, ve *ical.VEvent) (model.Record, bool) {
	allDay := isAllDay(ve)

	start, err := ve.GetStartAt()
	if err != nil && allDay {
		start, err = ve.GetAllDayStartAt()
	}
	if err != nil {
		appLog.Warn("vevent without parseable DTSTART, skipped", "id", sub.ID, "err", err)
		return model.Record{}, false
	}

	attrs := map[string]any{
		AttrStart:    start,
		AttrCalendar: label,
	}
	if allDay {
		// Date-only values carry no meaningful time of day; the flag tells
		// timezone normalization to keep the calendar date intact.
		attrs[AttrAllDay] = true
	}

	end, err := ve.GetEndAt()
	if err != nil && allDay {
		end, err = ve.GetAllDayEndAt()
	}
	if err == nil {
		// DTEND is exclusive for all-day events; pull it back so a
		// single-day event ends on its own start day.
		if allDay {
			end = end.AddDate(0, 0, -1)
		}
		attrs[AttrEnd] = end
	}

	text := ""
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		text = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil && p.Value != "" {
		attrs[AttrLocation] = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && p.Value != "" {
		attrs[AttrStatus] = strings.ToLower(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil && p.Value != "" {
		attrs[AttrCategories] = p.Value
	}

	return model.Record{
		SourceID: sub.ID,
		Text:     text,
		Attrs:    attrs,
	}, true
}

// isAllDay detects all-day events by inspecting the DTSTART value format:
// VALUE=DATE parameter or a date-only value without a time part.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}
