package reports

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

// CalendarRow is one (year, month) cell of the approach calendar.
type CalendarRow struct {
	Year  int `csv:"year"`
	Month int `csv:"month"`
	Count int `csv:"count"`
}

// calendarFrom counts dated approaches per calendar month, sorted by year
// then month. Undated approaches are not counted.
func calendarFrom(approaches []domain.ApproachRow) []CalendarRow {
	type ym struct{ year, month int }
	counts := make(map[ym]int)
	for _, a := range approaches {
		if !a.CloseApproachDate.Valid {
			continue
		}
		d := a.CloseApproachDate.Value
		counts[ym{d.Year(), int(d.Month())}]++
	}

	keys := make([]ym, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	rows := make([]CalendarRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, CalendarRow{Year: k.year, Month: k.month, Count: counts[k]})
	}
	return rows
}

func (r *Reporter) writeCalendarCSV(rows []CalendarRow) error {
	return r.writeCSV(CalendarFile, rows)
}

type calendarCell struct {
	Count   int
	Shade   template.CSS
	HasData bool
}

type calendarYear struct {
	Year  int
	Cells [12]calendarCell
}

type calendarPage struct {
	Generated string
	Months    [12]string
	Years     []calendarYear
}

var calendarTmpl = template.Must(template.New("calendar").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Close-approach calendar</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: center; }
td.empty { color: #bbb; }
</style>
</head>
<body>
<h1>Close approaches per month</h1>
<table>
<tr><th>Year</th>{{range .Months}}<th>{{.}}</th>{{end}}</tr>
{{range .Years}}<tr><th>{{.Year}}</th>{{range .Cells}}{{if .HasData}}<td style="{{.Shade}}">{{.Count}}</td>{{else}}<td class="empty">&middot;</td>{{end}}{{end}}</tr>
{{end}}</table>
<p>Generated {{.Generated}}</p>
</body>
</html>
`))

// writeCalendarHTML renders the calendar as a self-contained heatmap page.
// Cell shading scales linearly with the busiest month.
func (r *Reporter) writeCalendarHTML(rows []CalendarRow) error {
	maxCount := 0
	for _, row := range rows {
		if row.Count > maxCount {
			maxCount = row.Count
		}
	}

	byYear := make(map[int]*calendarYear)
	var years []int
	for _, row := range rows {
		y, ok := byYear[row.Year]
		if !ok {
			y = &calendarYear{Year: row.Year}
			byYear[row.Year] = y
			years = append(years, row.Year)
		}
		cell := &y.Cells[row.Month-1]
		cell.Count = row.Count
		cell.HasData = true
		cell.Shade = shade(row.Count, maxCount)
	}
	sort.Ints(years)

	page := calendarPage{Generated: domain.Now().UTC().Format(time.RFC3339)}
	for i := 0; i < 12; i++ {
		page.Months[i] = time.Month(i + 1).String()[:3]
	}
	for _, year := range years {
		page.Years = append(page.Years, *byYear[year])
	}

	f, err := os.Create(filepath.Join(r.dir, CalendarHTMLFile))
	if err != nil {
		return fmt.Errorf("creating %s: %w", CalendarHTMLFile, err)
	}
	if err := calendarTmpl.Execute(f, page); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", CalendarHTMLFile, err)
	}
	return f.Close()
}

func shade(count, maxCount int) template.CSS {
	if maxCount == 0 {
		return ""
	}
	// Interpolate from white toward a saturated orange.
	ratio := float64(count) / float64(maxCount)
	g := 255 - int(ratio*120)
	b := 255 - int(ratio*200)
	return template.CSS(fmt.Sprintf("background-color: rgb(255, %d, %d)", g, b))
}
