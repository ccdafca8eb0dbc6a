// Package stubhook is a local stand-in for the remote webhook pair,
// used to develop the client without a reachable n8n instance. It
// honors the same contract: opaque historico/contexto round-tripping,
// sessionId assignment on first contact, and an ignored feedback GET.
package stubhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/tdsoft/chat-assistente/internal/observability"
)

type Server struct {
	mu       sync.Mutex
	sessions map[string][]turn
}

type turn struct {
	Pergunta string `json:"pergunta"`
	Resposta string `json:"resposta"`
}

// New wires the two webhook routes behind logging and CORS middleware
// (the widget this emulates is a browser page).
func New() http.Handler {
	s := &Server{sessions: make(map[string][]turn)}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/chat-assistente", s.handleMessage)
	mux.HandleFunc("/webhook/feedback", s.handleFeedback)

	return chainMiddlewares(mux, withCORS, withLogging)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type messageRequest struct {
	Pergunta  string          `json:"pergunta"`
	Historico json.RawMessage `json:"historico"`
	Contexto  string          `json:"contexto"`
	SessionID *string         `json:"sessionId"`
	MimeType  string          `json:"mimeType,omitempty"`
	Imagem    string          `json:"imagem,omitempty"`
}

type messageResponse struct {
	Resposta  string          `json:"resposta"`
	SessionID string          `json:"sessionId"`
	Historico json.RawMessage `json:"historico"`
	Contexto  string          `json:"contexto"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Pergunta == "" {
		badRequest(w, "pergunta is required")
		return
	}

	sessionID := ""
	if req.SessionID != nil {
		sessionID = *req.SessionID
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	resposta := fmt.Sprintf("Você perguntou: %q. (resposta de teste)", req.Pergunta)
	if req.Imagem != "" {
		resposta = fmt.Sprintf("Recebi um anexo %s com a pergunta %q. (resposta de teste)", req.MimeType, req.Pergunta)
	}

	s.mu.Lock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turn{Pergunta: req.Pergunta, Resposta: resposta})
	historico, _ := json.Marshal(s.sessions[sessionID])
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, messageResponse{
		Resposta:  resposta,
		SessionID: sessionID,
		Historico: historico,
		Contexto:  "stub",
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	observability.Logger().Info("feedback received",
		"session_id", q.Get("sessionId"),
		"feedback", q.Get("feedback"),
		"pergunta", q.Get("pergunta"),
		"data_hora", q.Get("dataHora"))

	w.WriteHeader(http.StatusOK)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
