package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"timelineview/internal/timeline"
)

//go:embed templates
var templates embed.FS

var (
	gridTmpl  = template.Must(template.ParseFS(templates, "templates/grid.html.tmpl"))
	errorTmpl = template.Must(template.ParseFS(templates, "templates/error.html.tmpl"))
)

// cellView is one positioned div of the rendered grid.
type cellView struct {
	Class  string
	Style  template.CSS
	Text   string
	Badges []timeline.Badge
}

type gridView struct {
	Rows    int
	Columns int
	Cells   []cellView
}

// HTML renders a grid description into an HTML fragment. Cells are emitted
// in a fixed order (per-day background, day label, month label, then events)
// so identical grids produce byte-identical fragments.
func HTML(grid timeline.Grid) ([]byte, error) {
	view := gridView{
		Rows:    grid.Rows,
		Columns: grid.Columns,
		Cells:   make([]cellView, 0, len(grid.Days)*2+len(grid.Months)+len(grid.Events)),
	}

	for _, bg := range grid.Backgrounds {
		class := "timeline-day-bg"
		if bg.Holiday {
			class += " timeline-day-bg-holiday"
		}
		view.Cells = append(view.Cells, cellView{
			Class: class,
			Style: cellStyle(bg.Row, bg.RowSpan, bg.Column, 0),
		})
	}
	for _, day := range grid.Days {
		view.Cells = append(view.Cells, cellView{
			Class: "timeline-day",
			Style: cellStyle(day.Row, 0, day.Column, 0),
			Text:  fmt.Sprint(day.DayOfMonth),
		})
	}
	for _, month := range grid.Months {
		view.Cells = append(view.Cells, cellView{
			Class: "timeline-month",
			Style: cellStyle(month.Row, 0, month.Column, 0),
			Text:  month.Name,
		})
	}
	for _, ev := range grid.Events {
		view.Cells = append(view.Cells, cellView{
			Class:  "timeline-event",
			Style:  cellStyle(ev.Row, 0, ev.Column, ev.ColumnSpan),
			Text:   ev.Text,
			Badges: ev.Badges,
		})
	}

	var buf bytes.Buffer
	if err := gridTmpl.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ErrorHTML renders an error message in place of a grid, for configuration
// errors that should be visible where the view would have been.
func ErrorHTML(msg string) []byte {
	var buf bytes.Buffer
	if err := errorTmpl.Execute(&buf, msg); err != nil {
		// Template over a plain string; execution cannot realistically
		// fail, but never return an empty mount.
		return []byte("<div class=\"timeline-error\"></div>")
	}
	return buf.Bytes()
}

// cellStyle builds the inline grid placement for one cell. span values of 0
// mean a single track.
func cellStyle(row, rowSpan, column, columnSpan int) template.CSS {
	rowPart := fmt.Sprintf("grid-row: %d", row)
	if rowSpan > 0 {
		rowPart = fmt.Sprintf("grid-row: %d / span %d", row, rowSpan)
	}
	colPart := fmt.Sprintf("grid-column: %d", column)
	if columnSpan > 0 {
		colPart = fmt.Sprintf("grid-column: %d / span %d", column, columnSpan)
	}
	return template.CSS(rowPart + "; " + colPart + ";")
}
