package viz

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultForecastHorizonDays is the horizon the service forecasts when the
// reply flags a forecast without saying how far.
const DefaultForecastHorizonDays = 30

// Normalize promotes a reply into a Descriptor. It returns nil when the reply
// is plain text with neither chart nor row data. It never panics on bad data:
// an invalid chart falls back to a table when rows exist and to an
// Unrenderable text descriptor otherwise.
func Normalize(resp Response) *Descriptor {
	data := resp.data()
	chart := locateChart(data)
	rows := locateRows(data)
	requested := requestedMode(resp.VisualizationType())

	var d *Descriptor
	switch requested {
	case ModeLine, ModeBar, ModePie:
		if series, ok := parseSeries(chart); ok {
			d = &Descriptor{Mode: requested, Series: series}
		} else if rows.found {
			d = tableDescriptor(rows)
		} else {
			d = &Descriptor{Mode: ModeText, Unrenderable: true}
		}
	default:
		switch {
		case rows.found:
			d = tableDescriptor(rows)
		case chart.Exists():
			d = tableFromChart(chart)
		default:
			return nil
		}
	}

	if !d.Unrenderable {
		d.Title = locateTitle(data, chart)
	}
	if resp.HasForecast() {
		applyForecast(d, data)
	}
	return d
}

// requestedMode keeps line/bar/pie/table hints; anything else means table.
func requestedMode(hint string) Mode {
	if m, ok := ParseMode(hint); ok && m != ModeText {
		return m
	}
	return ModeTable
}

// locateChart returns the first object that looks chart-shaped, in the order
// the service nests it: data, data.chart_data, data.chart_data.data, data.data.
func locateChart(data gjson.Result) gjson.Result {
	for _, c := range []gjson.Result{
		data,
		data.Get("chart_data"),
		data.Get("chart_data.data"),
		data.Get("data"),
	} {
		if c.IsObject() && (c.Get("labels").Exists() || c.Get("datasets").Exists()) {
			return c
		}
	}
	return gjson.Result{}
}

func parseSeries(chart gjson.Result) (*Series, bool) {
	if !chart.IsObject() {
		return nil, false
	}
	rawLabels := chart.Get("labels")
	if !rawLabels.IsArray() {
		return nil, false
	}
	var labels []string
	for _, l := range rawLabels.Array() {
		labels = append(labels, Stringify(cellValue(l)))
	}
	if len(labels) == 0 {
		return nil, false
	}
	rawSets := chart.Get("datasets")
	if !rawSets.IsArray() {
		return nil, false
	}
	var sets []Dataset
	for _, ds := range rawSets.Array() {
		if !ds.IsObject() {
			return nil, false
		}
		vals := ds.Get("data")
		if !vals.IsArray() {
			vals = ds.Get("values")
		}
		if !vals.IsArray() {
			return nil, false
		}
		items := vals.Array()
		if len(items) != len(labels) {
			return nil, false
		}
		values := make([]float64, 0, len(items))
		for _, v := range items {
			f, ok := toFloat(v)
			if !ok {
				return nil, false
			}
			values = append(values, f)
		}
		sets = append(sets, Dataset{Label: ds.Get("label").String(), Values: values})
	}
	if len(sets) == 0 {
		return nil, false
	}
	return &Series{Labels: labels, Datasets: sets}, true
}

func toFloat(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type rowSource struct {
	found   bool
	items   gjson.Result
	columns gjson.Result
}

// locateRows prefers the chart payload's own row data and falls back to the
// reply's generic data field.
func locateRows(data gjson.Result) rowSource {
	candidates := []struct{ items, columns string }{
		{"chart_data.data", "chart_data.columns"},
		{"rows", "columns"},
		{"data", "columns"},
	}
	if data.IsObject() {
		for _, c := range candidates {
			if items := data.Get(c.items); items.IsArray() {
				return rowSource{found: true, items: items, columns: data.Get(c.columns)}
			}
		}
	}
	if data.IsArray() {
		return rowSource{found: true, items: data}
	}
	return rowSource{}
}

func tableDescriptor(src rowSource) *Descriptor {
	var rows []Row
	for _, item := range src.items.Array() {
		if !item.IsObject() {
			continue
		}
		row := Row{Values: map[string]any{}}
		item.ForEach(func(k, v gjson.Result) bool {
			key := k.String()
			if _, dup := row.Values[key]; !dup {
				row.Keys = append(row.Keys, key)
			}
			row.Values[key] = cellValue(v)
			return true
		})
		rows = append(rows, row)
	}
	cols := explicitColumns(src.columns)
	if len(cols) == 0 {
		cols = InferColumns(rows)
	}
	return &Descriptor{Mode: ModeTable, Rows: rows, Columns: cols, TotalRows: len(rows)}
}

// tableFromChart turns chart-shaped data into rows when a table was asked
// for. Invalid chart data yields an empty table.
func tableFromChart(chart gjson.Result) *Descriptor {
	series, ok := parseSeries(chart)
	if !ok {
		return &Descriptor{Mode: ModeTable, Columns: []string{}}
	}
	cols := []string{"label"}
	used := map[string]bool{"label": true}
	for i, ds := range series.Datasets {
		name := ds.Label
		if name == "" || used[name] {
			name = "value_" + strconv.Itoa(i+1)
		}
		used[name] = true
		cols = append(cols, name)
	}
	rows := make([]Row, 0, len(series.Labels))
	for i, l := range series.Labels {
		row := Row{Keys: cols, Values: map[string]any{"label": l}}
		for j, ds := range series.Datasets {
			row.Values[cols[j+1]] = ds.Values[i]
		}
		rows = append(rows, row)
	}
	return &Descriptor{Mode: ModeTable, Rows: rows, Columns: cols, TotalRows: len(rows)}
}

// explicitColumns accepts plain names or {field, headerName} objects.
func explicitColumns(raw gjson.Result) []string {
	if !raw.IsArray() {
		return nil
	}
	var out []string
	for _, c := range raw.Array() {
		var name string
		switch {
		case c.Type == gjson.String:
			name = c.Str
		case c.IsObject():
			name = c.Get("field").String()
			if name == "" {
				name = c.Get("headerName").String()
			}
		}
		if strings.TrimSpace(name) != "" {
			out = append(out, name)
		}
	}
	return out
}

func locateTitle(data, chart gjson.Result) string {
	for _, c := range []gjson.Result{
		chart.Get("options.plugins.title.text"),
		data.Get("chart_data.options.plugins.title.text"),
		data.Get("title"),
		data.Get("chart_data.title"),
	} {
		if c.Type == gjson.String && strings.TrimSpace(c.Str) != "" {
			return c.Str
		}
	}
	return ""
}

func applyForecast(d *Descriptor, data gjson.Result) {
	d.ForecastHorizonDays = DefaultForecastHorizonDays
	if fc := data.Get("forecast"); fc.IsArray() {
		for _, p := range fc.Array() {
			d.Forecast = append(d.Forecast, ForecastPoint{
				Date:  p.Get("ds").String(),
				Value: p.Get("yhat").Float(),
				Lower: p.Get("yhat_lower").Float(),
				Upper: p.Get("yhat_upper").Float(),
			})
		}
		if len(d.Forecast) > 0 {
			d.ForecastHorizonDays = len(d.Forecast)
		}
	} else if n := data.Get("forecast_periods"); n.Type == gjson.Number && n.Int() > 0 {
		d.ForecastHorizonDays = int(n.Int())
	}
	if m := data.Get("model_type"); m.Type == gjson.String {
		d.ForecastModel = m.Str
	}
}

// cellValue keeps numbers in their document form and nested values as
// compact JSON so Stringify can reproduce them.
func cellValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(v.Raw)
	case gjson.String:
		return v.Str
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
			return v.Raw
		}
		return json.RawMessage(buf.Bytes())
	}
}
