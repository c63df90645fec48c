package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"

	"northwind-chat/internal/viz"
)

const (
	defaultWidth = 80
	chartHeight  = 10
	minBarWidth  = 10
)

// renderPlan draws one plan for a terminal of the given width.
func renderPlan(p viz.RenderPlan, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	var body string
	switch p.Mode {
	case viz.ModeTable:
		body = renderTable(p)
	case viz.ModeBar:
		body = renderBars(p.Series, width)
	case viz.ModePie:
		body = renderPie(p.Series, width)
	case viz.ModeLine:
		body = renderLine(p.Series, width)
	default:
		if p.Notice != "" {
			return noticeStyle.Render(p.Notice)
		}
		return ""
	}

	var parts []string
	if p.Title != "" {
		parts = append(parts, titleStyle.Render(p.Title))
	}
	parts = append(parts, body)
	if c := p.Caption(); c != "" {
		parts = append(parts, captionStyle.Render(c))
	}
	if f := forecastSummary(p); f != "" {
		parts = append(parts, captionStyle.Render(f))
	}
	return strings.Join(parts, "\n")
}

func renderTable(p viz.RenderPlan) string {
	if len(p.Columns) == 0 {
		return captionStyle.Render("(no data)")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers(p.Columns...).
		Rows(p.Cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			// Row 0 is the header row.
			if row == 0 {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	return t.String()
}

// renderBars draws one horizontal bar per label, grouped by dataset.
func renderBars(s *viz.Series, width int) string {
	if s == nil {
		return ""
	}
	labelW := maxLen(s.Labels)
	var b strings.Builder
	for i, ds := range s.Datasets {
		if i > 0 {
			b.WriteString("\n")
		}
		if len(s.Datasets) > 1 && ds.Label != "" {
			b.WriteString(captionStyle.Render(ds.Label) + "\n")
		}
		peak := 0.0
		for _, v := range ds.Values {
			peak = math.Max(peak, math.Abs(v))
		}
		barW := barWidth(width, labelW, formatted(ds.Values))
		for j, label := range s.Labels {
			v := ds.Values[j]
			n := 0
			if peak > 0 {
				n = int(math.Round(math.Abs(v) / peak * float64(barW)))
			}
			fmt.Fprintf(&b, "%-*s %s %s\n", labelW, label, barStyle.Render(strings.Repeat("█", n)), formatValue(v))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderPie draws the first dataset as shares of its positive total.
func renderPie(s *viz.Series, width int) string {
	if s == nil || len(s.Datasets) == 0 {
		return ""
	}
	values := s.Datasets[0].Values
	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return renderBars(s, width)
	}
	labelW := maxLen(s.Labels)
	barW := barWidth(width, labelW, []string{"100.0%"})
	var b strings.Builder
	for i, label := range s.Labels {
		share := math.Max(values[i], 0) / total
		n := int(math.Round(share * float64(barW)))
		fmt.Fprintf(&b, "%-*s %s %5.1f%%\n", labelW, label, barStyle.Render(strings.Repeat("█", n)), share*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderLine(s *viz.Series, width int) string {
	if s == nil || len(s.Datasets) == 0 {
		return ""
	}
	data := make([][]float64, 0, len(s.Datasets))
	legend := make([]string, 0, len(s.Datasets))
	for _, ds := range s.Datasets {
		data = append(data, ds.Values)
		if ds.Label != "" {
			legend = append(legend, ds.Label)
		}
	}
	opts := []asciigraph.Option{asciigraph.Height(chartHeight)}
	if n := len(s.Labels); n > 1 {
		opts = append(opts, asciigraph.Caption(s.Labels[0]+" .. "+s.Labels[n-1]))
		if plotW := width - 12; n > plotW && plotW > 1 {
			opts = append(opts, asciigraph.Width(plotW))
		}
	}
	out := asciigraph.PlotMany(data, opts...)
	if len(legend) > 0 {
		out += "\n" + captionStyle.Render(strings.Join(legend, " | "))
	}
	return out
}

func forecastSummary(p viz.RenderPlan) string {
	if p.ForecastHorizonDays <= 0 {
		return ""
	}
	s := fmt.Sprintf("Forecast: next %d days", p.ForecastHorizonDays)
	if p.ForecastModel != "" {
		s += " (" + p.ForecastModel + ")"
	}
	if n := len(p.Forecast); n > 0 {
		last := p.Forecast[n-1]
		s += fmt.Sprintf(", %s ≈ %s [%s, %s]", last.Date, formatValue(last.Value), formatValue(last.Lower), formatValue(last.Upper))
	}
	return s
}

func barWidth(width, labelW int, values []string) int {
	w := width - labelW - maxLen(values) - 2
	if w < minBarWidth {
		return minBarWidth
	}
	return w
}

func formatted(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = formatValue(v)
	}
	return out
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func maxLen(ss []string) int {
	n := 0
	for _, s := range ss {
		if w := lipgloss.Width(s); w > n {
			n = w
		}
	}
	return n
}
