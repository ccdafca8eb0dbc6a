package stubhook_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tdsoft/chat-assistente/internal/adapters/stubhook"
)

type stubResponse struct {
	Resposta  string          `json:"resposta"`
	SessionID string          `json:"sessionId"`
	Historico json.RawMessage `json:"historico"`
	Contexto  string          `json:"contexto"`
}

func postMessage(t *testing.T, srv http.Handler, body string) (*httptest.ResponseRecorder, stubResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook/chat-assistente", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var resp stubResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return w, resp
}

func TestMessageAssignsAndKeepsSession(t *testing.T) {
	srv := stubhook.New()

	w, first := postMessage(t, srv, `{"pergunta":"oi","sessionId":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if first.SessionID == "" {
		t.Fatal("expected an assigned sessionId")
	}
	if first.Resposta == "" {
		t.Fatal("expected a resposta")
	}

	_, second := postMessage(t, srv, `{"pergunta":"e aí","sessionId":"`+first.SessionID+`"}`)
	if second.SessionID != first.SessionID {
		t.Fatalf("sessionId changed: %q vs %q", second.SessionID, first.SessionID)
	}

	var turns []map[string]string
	if err := json.Unmarshal(second.Historico, &turns); err != nil {
		t.Fatalf("historico not parseable: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns in historico, got %d", len(turns))
	}
}

func TestMessageValidation(t *testing.T) {
	srv := stubhook.New()

	w, _ := postMessage(t, srv, `{"pergunta":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty pergunta, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/webhook/chat-assistente", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestFeedbackAlwaysAccepted(t *testing.T) {
	srv := stubhook.New()

	req := httptest.NewRequest(http.MethodGet,
		"/webhook/feedback?sessionId=s-1&pergunta=oi&resposta=ol%C3%A1&feedback=%F0%9F%91%8D&dataHora=2026-08-28T10:30:00Z", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := stubhook.New()

	req := httptest.NewRequest(http.MethodOptions, "/webhook/chat-assistente", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("missing CORS header, got %q", got)
	}
}
