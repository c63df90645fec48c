// Package viz turns loosely shaped analytics replies into render instructions.
//
// Normalize validates a raw reply and promotes it into a Descriptor;
// SelectRenderer turns a Descriptor into the display-ready RenderPlan.
package viz

import "strings"

// Mode is the closed set of rendering modes.
type Mode string

const (
	ModeText  Mode = "text"
	ModeLine  Mode = "line"
	ModeBar   Mode = "bar"
	ModePie   Mode = "pie"
	ModeTable Mode = "table"
)

// ParseMode maps a mode hint to a Mode. ok is false for anything outside the
// closed set.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText:
		return ModeText, true
	case ModeLine:
		return ModeLine, true
	case ModeBar:
		return ModeBar, true
	case ModePie:
		return ModePie, true
	case ModeTable:
		return ModeTable, true
	default:
		return "", false
	}
}

// IsChart reports whether m draws a Series.
func (m Mode) IsChart() bool {
	return m == ModeLine || m == ModeBar || m == ModePie
}

type Dataset struct {
	Label  string
	Values []float64
}

// Series is chart data; every dataset has exactly len(Labels) values.
type Series struct {
	Labels   []string
	Datasets []Dataset
}

// Row is one table record with its keys in document order.
type Row struct {
	Keys   []string
	Values map[string]any
}

func (r Row) Get(column string) (any, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// ForecastPoint is one predicted value reported with a forecast.
type ForecastPoint struct {
	Date  string
	Value float64
	Lower float64
	Upper float64
}

// Descriptor is the validated, mode-tagged form of a service reply.
// Chart modes carry Series, table mode carries Rows; an Unrenderable text
// descriptor carries neither.
type Descriptor struct {
	Mode    Mode
	Title   string
	Series  *Series
	Rows    []Row
	Columns []string
	// TotalRows is the row count before any display truncation.
	TotalRows int

	ForecastHorizonDays int
	ForecastModel       string
	Forecast            []ForecastPoint

	Unrenderable bool
}

// InferColumns returns the keys of the first row in first-seen order.
func InferColumns(rows []Row) []string {
	if len(rows) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(rows[0].Keys))
	seen := make(map[string]bool, len(rows[0].Keys))
	for _, k := range rows[0].Keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
