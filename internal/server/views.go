package server

import (
	"northwind-chat/internal/store"
	"northwind-chat/internal/types"
	"northwind-chat/internal/viz"
)

func (s *Server) conversationView(st store.ConversationState) types.ConversationView {
	out := types.ConversationView{
		AwaitingResponse: st.AwaitingResponse,
		Messages:         make([]types.MessageView, 0, len(st.Messages)),
	}
	for _, m := range st.Messages {
		mv := types.MessageView{
			ID:        m.ID,
			Seq:       m.Seq,
			Origin:    string(m.Origin),
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
			Failed:    m.Failed,
		}
		// Plain text answers carry no plan at all.
		if m.Payload != nil {
			mv.Plan = planView(s.dispatcher.SelectRenderer(m.Payload))
		}
		out.Messages = append(out.Messages, mv)
	}
	return out
}

func planView(p viz.RenderPlan) *types.PlanView {
	pv := &types.PlanView{
		Mode:                string(p.Mode),
		Title:               p.Title,
		Columns:             p.Columns,
		Rows:                p.Cells,
		TotalRows:           p.TotalRows,
		Notice:              p.Notice,
		ForecastHorizonDays: p.ForecastHorizonDays,
		ForecastModel:       p.ForecastModel,
	}
	if p.Series != nil {
		pv.Labels = p.Series.Labels
		pv.Datasets = make([]types.DatasetView, 0, len(p.Series.Datasets))
		for _, ds := range p.Series.Datasets {
			pv.Datasets = append(pv.Datasets, types.DatasetView{Label: ds.Label, Values: ds.Values})
		}
	}
	if len(p.Forecast) > 0 {
		pv.Forecast = make([]types.ForecastPointView, 0, len(p.Forecast))
		for _, f := range p.Forecast {
			pv.Forecast = append(pv.Forecast, types.ForecastPointView{Date: f.Date, Value: f.Value, Lower: f.Lower, Upper: f.Upper})
		}
	}
	return pv
}
