package viz

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"strconv"
)

// RenderPlan is what a display layer draws: one mode plus the exact data for it.
type RenderPlan struct {
	Mode   Mode
	Title  string
	Series *Series
	// Columns and Cells hold the stringified, already truncated table.
	Columns   []string
	Cells     [][]string
	TotalRows int
	// Notice is set on the informational text plan used when nothing can be drawn.
	Notice string

	ForecastHorizonDays int
	ForecastModel       string
	Forecast            []ForecastPoint
}

// Informational reports whether the plan is the "could not render" notice.
func (p RenderPlan) Informational() bool { return p.Mode == ModeText && p.Notice != "" }

func (p RenderPlan) Truncated() bool { return p.Mode == ModeTable && len(p.Cells) < p.TotalRows }

// Caption is the "showing N of M" line for tables, empty otherwise.
func (p RenderPlan) Caption() string {
	if p.Mode != ModeTable {
		return ""
	}
	if p.Truncated() {
		return fmt.Sprintf("Showing %d of %d rows", len(p.Cells), p.TotalRows)
	}
	if p.TotalRows == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", p.TotalRows)
}

type Options struct {
	LineTitle string
	BarTitle  string
	PieTitle  string
	MaxRows   int
	Notice    string
}

func DefaultOptions() Options {
	return Options{
		LineTitle: "Trend Analysis",
		BarTitle:  "Comparison",
		PieTitle:  "Distribution",
		MaxRows:   10,
		Notice:    "Unable to render this visualization. Try asking again or request the data in table format.",
	}
}

type Dispatcher struct {
	opts Options
}

func NewDispatcher(opts Options) *Dispatcher {
	def := DefaultOptions()
	if opts.LineTitle == "" {
		opts.LineTitle = def.LineTitle
	}
	if opts.BarTitle == "" {
		opts.BarTitle = def.BarTitle
	}
	if opts.PieTitle == "" {
		opts.PieTitle = def.PieTitle
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = def.MaxRows
	}
	if opts.Notice == "" {
		opts.Notice = def.Notice
	}
	return &Dispatcher{opts: opts}
}

var defaultDispatcher = NewDispatcher(DefaultOptions())

// SelectRenderer uses the default titles and the 10-row table cap.
func SelectRenderer(d *Descriptor) RenderPlan { return defaultDispatcher.SelectRenderer(d) }

// SelectRenderer never fails: a nil, unrenderable or inconsistent descriptor
// becomes the informational text plan.
func (ds *Dispatcher) SelectRenderer(d *Descriptor) (plan RenderPlan) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[viz] render plan panic: %v", r)
			plan = ds.informational()
		}
	}()
	if d == nil || d.Unrenderable {
		return ds.informational()
	}
	switch d.Mode {
	case ModeLine, ModeBar, ModePie:
		if !validSeries(d.Series) {
			return ds.informational()
		}
		plan = RenderPlan{Mode: d.Mode, Title: d.Title, Series: d.Series}
		if plan.Title == "" {
			plan.Title = ds.defaultTitle(d.Mode)
		}
	case ModeTable:
		plan = ds.tablePlan(d)
	default:
		return ds.informational()
	}
	plan.ForecastHorizonDays = d.ForecastHorizonDays
	plan.ForecastModel = d.ForecastModel
	plan.Forecast = d.Forecast
	return plan
}

func (ds *Dispatcher) informational() RenderPlan {
	return RenderPlan{Mode: ModeText, Notice: ds.opts.Notice}
}

func (ds *Dispatcher) defaultTitle(m Mode) string {
	switch m {
	case ModeLine:
		return ds.opts.LineTitle
	case ModeBar:
		return ds.opts.BarTitle
	case ModePie:
		return ds.opts.PieTitle
	default:
		return ""
	}
}

func (ds *Dispatcher) tablePlan(d *Descriptor) RenderPlan {
	cols := d.Columns
	if len(cols) == 0 {
		cols = InferColumns(d.Rows)
	}
	total := d.TotalRows
	if total < len(d.Rows) {
		total = len(d.Rows)
	}
	n := len(d.Rows)
	if n > ds.opts.MaxRows {
		n = ds.opts.MaxRows
	}
	cells := make([][]string, 0, n)
	for _, row := range d.Rows[:n] {
		line := make([]string, len(cols))
		for i, c := range cols {
			v, _ := row.Get(c)
			line[i] = Stringify(v)
		}
		cells = append(cells, line)
	}
	return RenderPlan{Mode: ModeTable, Title: d.Title, Columns: cols, Cells: cells, TotalRows: total}
}

func validSeries(s *Series) bool {
	if s == nil || len(s.Labels) == 0 || len(s.Datasets) == 0 {
		return false
	}
	for _, ds := range s.Datasets {
		if len(ds.Values) != len(s.Labels) {
			return false
		}
	}
	return true
}

// Stringify renders a cell: nil is empty, maps and slices are compact JSON,
// everything else uses its natural string form.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case json.RawMessage:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	case reflect.Pointer:
		if reflect.ValueOf(v).IsNil() {
			return ""
		}
	}
	return fmt.Sprint(v)
}
