package nse

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"nsemirror/internal/provider"
)

// Columns maps cell positions of a table row to record fields.
// A negative Volume means the layout carries no volume column.
type Columns struct {
	Ticker   int
	Name     int
	Volume   int
	Price    int
	Change   int
	MinCells int
}

var (
	// ColumnsWithVolume is the current page layout:
	// ticker, name, volume, price, change.
	ColumnsWithVolume = Columns{Ticker: 0, Name: 1, Volume: 2, Price: 3, Change: 4, MinCells: 5}
	// ColumnsWithoutVolume reads the same row shape but ignores the volume cell.
	ColumnsWithoutVolume = Columns{Ticker: 0, Name: 1, Volume: -1, Price: 3, Change: 4, MinCells: 5}
)

// ColumnsByName resolves a configured layout name.
func ColumnsByName(name string) (Columns, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "volume":
		return ColumnsWithVolume, nil
	case "compact":
		return ColumnsWithoutVolume, nil
	default:
		return Columns{}, fmt.Errorf("unknown table layout %q", name)
	}
}

// Stats describes one pass over a document.
type Stats struct {
	Tables  int
	Rows    int
	Skipped int
}

// ParsePrice strips thousands separators and parses the remainder.
// ok is false for empty, non-numeric, NaN or infinite values.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseRow converts the text of one table row into a record.
// ok is false when the row is too short, has no ticker, or has no usable price.
func ParseRow(cells []string, cols Columns) (provider.Record, bool) {
	if len(cells) < cols.MinCells {
		return provider.Record{}, false
	}
	cell := func(i int) string {
		if i < 0 || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	ticker := cell(cols.Ticker)
	if ticker == "" {
		return provider.Record{}, false
	}
	price, ok := ParsePrice(cell(cols.Price))
	if !ok {
		return provider.Record{}, false
	}
	volume := cell(cols.Volume)
	if volume == "" {
		volume = "0"
	}
	return provider.Record{
		Ticker: ticker,
		Name:   cell(cols.Name),
		Volume: volume,
		Price:  price,
		Change: cell(cols.Change),
	}, true
}

// ParseDocument extracts every valid row of every table body in doc,
// in document order. The HTML parser inserts an implicit tbody, so tables
// written without one are covered too.
func ParseDocument(doc *goquery.Document, cols Columns) ([]provider.Record, Stats) {
	var stats Stats
	stats.Tables = doc.Find("table").Length()

	out := make([]provider.Record, 0, 64)
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		stats.Rows++
		// every td under the row, nested ones included
		tds := row.Find("td")
		cells := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, td.Text())
		})
		rec, ok := ParseRow(cells, cols)
		if !ok {
			stats.Skipped++
			return
		}
		out = append(out, rec)
	})
	return out, stats
}
