// Package server is the HTTP bridge that lets a browser page shell drive the
// same conversation core as the terminal client.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"northwind-chat/internal/config"
	"northwind-chat/internal/store"
	"northwind-chat/internal/types"
	"northwind-chat/internal/viz"
)

// Submitter is the coordinator surface exposed over HTTP.
type Submitter interface {
	Submit(text string) bool
	Clear() bool
}

// Conversation is the read side of the store.
type Conversation interface {
	State() store.ConversationState
	Subscribe(func(store.ConversationState)) (cancel func())
}

// Pinger reports whether the upstream answerer is reachable.
type Pinger interface {
	Health(ctx context.Context) error
}

type Server struct {
	router     *chi.Mux
	cfg        config.Config
	coord      Submitter
	conv       Conversation
	dispatcher *viz.Dispatcher
	upstream   Pinger
	hub        *hub
	unsub      func()
}

// NewServer wires the routes. upstream may be nil, in which case /api/health
// only reports the bridge itself.
func NewServer(cfg config.Config, coord Submitter, conv Conversation, dispatcher *viz.Dispatcher, upstream Pinger) *Server {
	if dispatcher == nil {
		dispatcher = viz.NewDispatcher(viz.DefaultOptions())
	}
	r := chi.NewRouter()
	if cfg.Debug {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	s := &Server{
		router:     r,
		cfg:        cfg,
		coord:      coord,
		conv:       conv,
		dispatcher: dispatcher,
		upstream:   upstream,
		hub:        newHub(cfg.AllowedOrigin),
	}
	s.unsub = conv.Subscribe(func(store.ConversationState) { s.hub.notify() })
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/conversation", s.handleConversation)
	s.router.Delete("/api/conversation", s.handleClear)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Get("/api/ws", s.handleWS)
}

func (s *Server) Router() http.Handler { return s.router }

// Close stops pushing snapshots and disconnects every WebSocket client.
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
	}
	s.hub.closeAll()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if s.upstream != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.upstream.Health(ctx); err != nil {
			log.Printf("[bridge] upstream health: %v", err)
			resp["analytics"] = "unreachable"
		} else {
			resp["analytics"] = "connected"
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.conversationView(s.conv.State()))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if !s.coord.Submit(req.Message) {
		s.writeError(w, http.StatusConflict, "a question is already being answered")
		return
	}
	s.writeJSON(w, http.StatusAccepted, types.SubmitResponse{Accepted: true})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if !s.coord.Clear() {
		s.writeError(w, http.StatusConflict, "cannot clear while a question is being answered")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{Error: msg})
}
