package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"northwind-chat/internal/chat"
	"northwind-chat/internal/config"
	"northwind-chat/internal/store"
	"northwind-chat/internal/types"
)

type gatedService struct {
	body []byte
	gate chan struct{}
}

func (g *gatedService) Ask(context.Context, string) ([]byte, error) {
	if g.gate != nil {
		<-g.gate
	}
	return g.body, nil
}

type pinger struct{ err error }

func (p pinger) Health(context.Context) error { return p.err }

const topProducts = `{"response":"Here are your top products","data":[{"name":"Widget","qty":42}],"visualization_type":"table"}`

func newTestServer(t *testing.T, svc chat.Service, up Pinger) (*httptest.Server, *chat.Coordinator) {
	t.Helper()
	st := store.NewMemoryStore()
	coord := chat.NewCoordinator(svc, st)
	s := NewServer(config.Config{AllowedOrigin: "http://localhost:3000"}, coord, st, nil, up)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		s.Close()
		srv.Close()
		coord.Wait()
	})
	return srv, coord
}

func postChat(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/api/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post chat: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getConversation(t *testing.T, url string) types.ConversationView {
	t.Helper()
	resp, err := http.Get(url + "/api/conversation")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	defer resp.Body.Close()
	var v types.ConversationView
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	return v
}

func deleteConversation(t *testing.T, url string) int {
	t.Helper()
	req, _ := http.NewRequest(http.MethodDelete, url+"/api/conversation", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete conversation: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestChatLifecycle(t *testing.T) {
	svc := &gatedService{body: []byte(topProducts), gate: make(chan struct{})}
	srv, coord := newTestServer(t, svc, nil)

	if resp := postChat(t, srv.URL, `{"message":"top products?"}`); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if resp := postChat(t, srv.URL, `{"message":"again"}`); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while awaiting, got %d", resp.StatusCode)
	}
	if code := deleteConversation(t, srv.URL); code != http.StatusConflict {
		t.Fatalf("expected 409 clearing while awaiting, got %d", code)
	}
	v := getConversation(t, srv.URL)
	if !v.AwaitingResponse || len(v.Messages) != 1 || v.Messages[0].Origin != "user" {
		t.Fatalf("unexpected pending conversation %+v", v)
	}

	close(svc.gate)
	coord.Wait()

	v = getConversation(t, srv.URL)
	if v.AwaitingResponse || len(v.Messages) != 2 {
		t.Fatalf("unexpected resolved conversation %+v", v)
	}
	reply := v.Messages[1]
	if reply.Origin != "assistant" || reply.Failed || reply.Plan == nil {
		t.Fatalf("unexpected reply %+v", reply)
	}
	want := &types.PlanView{Mode: "table", Columns: []string{"name", "qty"}, Rows: [][]string{{"Widget", "42"}}, TotalRows: 1}
	if diff := cmp.Diff(want, reply.Plan); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
	if v.Messages[0].Seq >= reply.Seq || v.Messages[0].ID == reply.ID {
		t.Fatalf("messages not ordered by seq with distinct ids: %+v", v.Messages)
	}

	if code := deleteConversation(t, srv.URL); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
	if v := getConversation(t, srv.URL); len(v.Messages) != 0 {
		t.Fatalf("expected an empty conversation, got %d messages", len(v.Messages))
	}
}

func TestChatRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t, &gatedService{body: []byte(topProducts)}, nil)
	for name, body := range map[string]string{
		"invalid json": `{"message":`,
		"blank":        `{"message":"   "}`,
	} {
		t.Run(name, func(t *testing.T) {
			if resp := postChat(t, srv.URL, body); resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
	if v := getConversation(t, srv.URL); len(v.Messages) != 0 {
		t.Fatalf("rejected input reached the conversation")
	}
}

func TestTextReplyHasNoPlan(t *testing.T) {
	srv, coord := newTestServer(t, &gatedService{body: []byte(`{"response":"Hello"}`)}, nil)
	postChat(t, srv.URL, `{"message":"hi"}`)
	coord.Wait()
	v := getConversation(t, srv.URL)
	if len(v.Messages) != 2 || v.Messages[1].Plan != nil || v.Messages[1].Text != "Hello" {
		t.Fatalf("unexpected conversation %+v", v)
	}
}

func TestForecastPointsReachTheView(t *testing.T) {
	body := `{"response":"Forecast ready","visualization_type":"line","has_forecast":true,"data":{
		"chart_data":{"data":{"labels":["2024-01-01","2024-01-02"],"datasets":[{"label":"actual","data":[5,6]}]}},
		"forecast":[{"ds":"2024-01-03","yhat":7,"yhat_lower":6,"yhat_upper":8},{"ds":"2024-01-04","yhat":8,"yhat_lower":7,"yhat_upper":9}],
		"model_type":"polynomial_degree_1"}}`
	srv, coord := newTestServer(t, &gatedService{body: []byte(body)}, nil)
	postChat(t, srv.URL, `{"message":"forecast sales"}`)
	coord.Wait()

	v := getConversation(t, srv.URL)
	if len(v.Messages) != 2 || v.Messages[1].Plan == nil {
		t.Fatalf("unexpected conversation %+v", v)
	}
	plan := v.Messages[1].Plan
	if plan.Mode != "line" || plan.ForecastHorizonDays != 2 || plan.ForecastModel != "polynomial_degree_1" {
		t.Fatalf("unexpected plan %+v", plan)
	}
	want := []types.ForecastPointView{
		{Date: "2024-01-03", Value: 7, Lower: 6, Upper: 8},
		{Date: "2024-01-04", Value: 8, Lower: 7, Upper: 9},
	}
	if diff := cmp.Diff(want, plan.Forecast); diff != "" {
		t.Fatalf("forecast mismatch (-want +got):\n%s", diff)
	}
}

func TestHealth(t *testing.T) {
	for name, tc := range map[string]struct {
		up   Pinger
		want map[string]string
	}{
		"bridge only": {nil, map[string]string{"status": "ok"}},
		"connected":   {pinger{}, map[string]string{"status": "ok", "analytics": "connected"}},
		"unreachable": {pinger{err: errors.New("refused")}, map[string]string{"status": "ok", "analytics": "unreachable"}},
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newTestServer(t, &gatedService{}, tc.up)
			resp, err := http.Get(srv.URL + "/api/health")
			if err != nil {
				t.Fatalf("get health: %v", err)
			}
			defer resp.Body.Close()
			var got map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("health mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWebSocketPushesSnapshots(t *testing.T) {
	svc := &gatedService{body: []byte(topProducts)}
	srv, coord := newTestServer(t, svc, nil)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() types.ConversationView {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var v types.ConversationView
		if err := conn.ReadJSON(&v); err != nil {
			t.Fatalf("read snapshot: %v", err)
		}
		return v
	}

	if v := read(); len(v.Messages) != 0 || v.AwaitingResponse {
		t.Fatalf("unexpected initial snapshot %+v", v)
	}

	if !coord.Submit("top products?") {
		t.Fatalf("submit rejected")
	}
	coord.Wait()

	// Intermediate snapshots may be skipped; the last one must be resolved.
	for {
		v := read()
		if len(v.Messages) == 2 && !v.AwaitingResponse {
			if v.Messages[1].Plan == nil || v.Messages[1].Plan.Mode != "table" {
				t.Fatalf("unexpected final snapshot %+v", v)
			}
			return
		}
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	srv, _ := newTestServer(t, &gatedService{}, nil)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"http://evil.example"}})
	if err == nil {
		t.Fatalf("expected the handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}
