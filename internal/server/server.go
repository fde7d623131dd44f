// Package server exposes the recommendation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sena/anime-rec/internal/session"
)

// Answerer is the query entry point served by this package.
type Answerer interface {
	Answer(ctx context.Context, question, sessionID string) (string, error)
}

// HistoryReader exposes session transcripts for inspection.
type HistoryReader interface {
	History(id string) []session.Turn
}

type Server struct {
	pipeline Answerer
	history  HistoryReader
	timeout  time.Duration
}

func New(pipeline Answerer, history HistoryReader, timeout time.Duration) *Server {
	return &Server{pipeline: pipeline, history: history, timeout: timeout}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/recommend", s.handleRecommend).Methods(http.MethodPost)
	r.HandleFunc("/v1/sessions/{id}/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

type recommendRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

type recommendResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Question == "" || req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question and session_id are required"})
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	answer, err := s.pipeline.Answer(ctx, req.Question, req.SessionID)
	if err != nil {
		// Operators get the detail, users get a generic message.
		slog.Error("recommendation failed", "session", req.SessionID, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "recommendation failed, please retry"})
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{Answer: answer})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	turns := s.history.History(id)
	writeJSON(w, http.StatusOK, map[string][]session.Turn{"turns": turns})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response failed", "error", err)
	}
}
