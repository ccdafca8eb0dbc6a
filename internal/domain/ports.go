package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// MessagePayload is the outbound body of a send-message call. Historico
// and Contexto are round-tripped verbatim from the session.
type MessagePayload struct {
	Pergunta  string          `json:"pergunta"`
	Historico json.RawMessage `json:"historico"`
	Contexto  string          `json:"contexto"`
	SessionID *string         `json:"sessionId"`
	MimeType  string          `json:"mimeType,omitempty"`
	Imagem    string          `json:"imagem,omitempty"`
}

// MessageResponse is what the webhook answers. Every field is optional;
// a zero value means "leave the corresponding local state unchanged",
// never "reset".
type MessageResponse struct {
	Resposta  string          `json:"resposta"`
	SessionID string          `json:"sessionId"`
	Historico json.RawMessage `json:"historico"`
	Contexto  string          `json:"contexto"`
}

// Feedback is one rating of an assistant reply.
type Feedback struct {
	Kind      FeedbackKind
	SessionID SessionID
	Question  string
	Answer    string
	At        time.Time
}

// Gateway defines how the client talks to the remote webhook.
type Gateway interface {
	SendMessage(ctx context.Context, payload *MessagePayload) (*MessageResponse, error)
	// SendFeedback is fire-and-forget: the response is opaque and only
	// transport errors are reported.
	SendFeedback(ctx context.Context, fb *Feedback) error
}

// ErrNoSpeech marks a recognition pass that heard nothing. It is a
// normal, transient condition and never stops an active capture.
var ErrNoSpeech = errors.New("no speech detected")

// SpeechResult is one event from a continuous recognition session.
// Transcript carries the full text accumulated since the session
// started, not a delta.
type SpeechResult struct {
	Transcript string
	Final      bool
	Err        error
}

// Recognizer is a continuous speech-to-text session source. Start
// begins a session and delivers results through onResult until Stop is
// called or the session ends on its own. At most one session is active
// at a time.
type Recognizer interface {
	Start(ctx context.Context, onResult func(SpeechResult)) error
	Stop() error
}

// InputField is the shared input line: typed text and recognition
// transcripts both land here, and submission reads whatever it holds.
type InputField interface {
	Text() string
	SetText(s string)
	SetPlaceholder(s string)
}

// Renderer is the presentation surface the orchestrator drives.
type Renderer interface {
	AddMessage(m *Message)
	ShowLoading()
	HideLoading()
	ShowPreview(a *Attachment)
	ClearPreview()
	SetInputEnabled(enabled bool)
	Alert(msg string)
}
