package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tdsoft/chat-assistente/internal/domain"
	"github.com/tdsoft/chat-assistente/internal/observability"
)

// Mock is an offline stand-in for the webhook, useful for development
// without a reachable n8n instance (ASSISTENTE_MOCK=1).
type Mock struct {
	mu        sync.Mutex
	sessionID string
	turns     []mockTurn
}

type mockTurn struct {
	Pergunta string `json:"pergunta"`
	Resposta string `json:"resposta"`
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) SendMessage(_ context.Context, payload *domain.MessagePayload) (*domain.MessageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessionID == "" {
		m.sessionID = uuid.NewString()
	}

	resposta := fmt.Sprintf("Entendi. Você disse: %q. Como posso ajudar?", payload.Pergunta)
	if payload.Imagem != "" {
		resposta = fmt.Sprintf("Recebi um arquivo %s junto com: %q.", payload.MimeType, payload.Pergunta)
	}

	m.turns = append(m.turns, mockTurn{Pergunta: payload.Pergunta, Resposta: resposta})
	historico, _ := json.Marshal(m.turns)

	return &domain.MessageResponse{
		Resposta:  resposta,
		SessionID: m.sessionID,
		Historico: historico,
		Contexto:  "mock",
	}, nil
}

func (m *Mock) SendFeedback(ctx context.Context, fb *domain.Feedback) error {
	observability.LoggerFromContext(ctx).Info("mock feedback received",
		"feedback", string(fb.Kind),
		"pergunta", fb.Question)
	return nil
}
