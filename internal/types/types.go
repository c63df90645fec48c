package types

import "time"

// ChatRequest is the body sent to the analytics service and accepted by the
// bridge's submit endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the text-only reply shape produced in direct LLM mode.
// Service replies are read loosely by viz.ParseResponse instead.
type ChatResponse struct {
	Response          string `json:"response"`
	VisualizationType string `json:"visualization_type,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SubmitResponse struct {
	Accepted bool `json:"accepted"`
}

// ConversationView is the read-only snapshot served to a page shell.
type ConversationView struct {
	AwaitingResponse bool          `json:"awaitingResponse"`
	Messages         []MessageView `json:"messages"`
}

type MessageView struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Origin    string    `json:"origin"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Failed    bool      `json:"failed,omitempty"`
	Plan      *PlanView `json:"plan,omitempty"`
}

// PlanView mirrors viz.RenderPlan with JSON tags for the page shell.
type PlanView struct {
	Mode                string              `json:"mode"`
	Title               string              `json:"title,omitempty"`
	Labels              []string            `json:"labels,omitempty"`
	Datasets            []DatasetView       `json:"datasets,omitempty"`
	Columns             []string            `json:"columns,omitempty"`
	Rows                [][]string          `json:"rows,omitempty"`
	TotalRows           int                 `json:"totalRows,omitempty"`
	Notice              string              `json:"notice,omitempty"`
	ForecastHorizonDays int                 `json:"forecastHorizonDays,omitempty"`
	ForecastModel       string              `json:"forecastModel,omitempty"`
	Forecast            []ForecastPointView `json:"forecast,omitempty"`
}

type ForecastPointView struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type DatasetView struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}
