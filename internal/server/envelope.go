package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Status    string `json:"status"` // "success" or "error"
	Code      int    `json:"code"`   // mirrors the HTTP status code
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func newEnvelope(code int) Envelope {
	return Envelope{
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: uuid.NewString(),
	}
}

func (s *Server) writeSuccess(w http.ResponseWriter, code int, data any, message string) {
	env := newEnvelope(code)
	env.Status = "success"
	env.Message = message
	env.Data = data
	s.writeEnvelope(w, env)
}

func (s *Server) writeError(w http.ResponseWriter, code int, errMsg string) {
	env := newEnvelope(code)
	env.Status = "error"
	env.Error = errMsg
	s.writeEnvelope(w, env)
}

func (s *Server) writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		s.log.Error("encode response failed", slog.String("request_id", env.RequestID), "error", err)
	}
}
