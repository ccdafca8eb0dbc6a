// Package memory holds the in-session conversation state. Nothing here
// survives a restart; the server owns the durable side of the
// conversation and the client only round-trips it.
package memory

import (
	"sync"

	"github.com/tdsoft/chat-assistente/internal/domain"
)

// ConversationStore keeps the session fields the webhook assigns plus
// the single pending attachment. Session fields are written only by the
// orchestrator, through ApplyResponse.
type ConversationStore struct {
	mu         sync.RWMutex
	session    domain.Session
	attachment *domain.Attachment
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{}
}

// Session returns a copy of the current session state.
func (s *ConversationStore) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// ApplyResponse overwrites each session field independently, and only
// when the response carries a value for it. Absence means "unchanged",
// never "reset to empty".
func (s *ConversationStore) ApplyResponse(resp *domain.MessageResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resp.SessionID != "" {
		s.session.ID = domain.SessionID(resp.SessionID)
	}
	if len(resp.Historico) > 0 {
		s.session.History = resp.Historico
	}
	if resp.Contexto != "" {
		s.session.Context = resp.Contexto
	}
}

// SetAttachment replaces the pending attachment. There is never more
// than one; a new selection displaces the old.
func (s *ConversationStore) SetAttachment(a *domain.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = a
}

func (s *ConversationStore) ClearAttachment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = nil
}

// Attachment returns the pending attachment, or nil.
func (s *ConversationStore) Attachment() *domain.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attachment
}

// TakeAttachment atomically snapshots and clears the pending
// attachment, so a submission cannot race a removal.
func (s *ConversationStore) TakeAttachment() *domain.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.attachment
	s.attachment = nil
	return a
}
