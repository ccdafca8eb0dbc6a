// Package chat orchestrates a submission: validation, attachment
// handling, the outbound webhook call and the state/render updates
// around it.
package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tdsoft/chat-assistente/internal/adapters/storage/memory"
	"github.com/tdsoft/chat-assistente/internal/app/speech"
	"github.com/tdsoft/chat-assistente/internal/domain"
	"github.com/tdsoft/chat-assistente/internal/media"
	"github.com/tdsoft/chat-assistente/internal/observability"
)

const (
	// DefaultPDFQuestion substitutes an empty question when a PDF is attached.
	DefaultPDFQuestion = "Analise este PDF e extraia o conteúdo relevante."
	// DefaultImageQuestion substitutes an empty question when an image is attached.
	DefaultImageQuestion = "Analise esta imagem."
	// FallbackReply is rendered when the webhook answers without a resposta.
	FallbackReply = "Desculpe, não entendi."
	// UnsupportedFileAlert is shown for attachments that are neither images nor PDFs.
	UnsupportedFileAlert = "Apenas imagens e PDFs são permitidos."
)

// Service is the message orchestrator. It owns the only mutation path
// into the conversation store.
type Service struct {
	gateway    domain.Gateway
	store      *memory.ConversationStore
	renderer   domain.Renderer
	transcoder *media.Transcoder
	capture    *speech.Capture // nil when speech capture is unavailable
	now        func() time.Time
}

func NewService(
	gateway domain.Gateway,
	store *memory.ConversationStore,
	renderer domain.Renderer,
	transcoder *media.Transcoder,
	capture *speech.Capture,
) *Service {
	return &Service{
		gateway:    gateway,
		store:      store,
		renderer:   renderer,
		transcoder: transcoder,
		capture:    capture,
		now:        time.Now,
	}
}

// Attach validates and stages a file for the next submission. Images
// are re-encoded to the bounded-width JPEG; PDFs bypass transcoding and
// get the fixed placeholder preview. Anything else is rejected with a
// user-visible alert and no state change.
func (s *Service) Attach(ctx context.Context, fileName string, data []byte) error {
	log := observability.LoggerFromContext(ctx).With("file", fileName)

	mimeType := detectMimeType(fileName, data)
	isImage := strings.HasPrefix(mimeType, "image/")
	isPDF := mimeType == domain.PDFMimeType

	if !isImage && !isPDF {
		log.Warn("unsupported attachment type", "mime_type", mimeType)
		s.renderer.Alert(UnsupportedFileAlert)
		return nil
	}

	att := &domain.Attachment{
		MimeType: mimeType,
		FileName: fileName,
	}

	if isImage {
		dataURL, err := s.transcoder.Resize(data)
		if err != nil {
			if errors.Is(err, media.ErrDecode) {
				log.Error("attachment decode failed", "error", err)
				s.renderer.Alert(UnsupportedFileAlert)
				return err
			}
			return err
		}
		att.DataURL = dataURL
	} else {
		att.DataURL = encodeDataURL(domain.PDFMimeType, data)
	}

	s.store.SetAttachment(att)
	s.renderer.ShowPreview(att)
	log.Info("attachment staged", "mime_type", mimeType)
	return nil
}

// RemoveAttachment discards the pending attachment, if any.
func (s *Service) RemoveAttachment() {
	s.store.ClearAttachment()
	s.renderer.ClearPreview()
}

// Submit runs one full send cycle. With neither text nor a pending
// attachment it is a silent no-op. Input is re-enabled unconditionally,
// whatever the remote call does.
func (s *Service) Submit(ctx context.Context, text string) error {
	// a late recognition result must not race the text snapshot
	if s.capture != nil {
		s.capture.Stop()
	}

	text = strings.TrimSpace(text)
	if text == "" && s.store.Attachment() == nil {
		return nil
	}

	att := s.store.TakeAttachment()
	s.renderer.ClearPreview()

	sess := s.store.Session()
	log := observability.LoggerFromContext(ctx).With("session_id", sess.ID)
	log.Info("submitting message", "has_attachment", att != nil)

	s.renderer.AddMessage(&domain.Message{
		ID:         domain.MessageID(uuid.NewString()),
		Role:       domain.RoleUser,
		Text:       text,
		Attachment: att,
		CreatedAt:  s.now(),
	})

	s.renderer.SetInputEnabled(false)
	defer s.renderer.SetInputEnabled(true)
	s.renderer.ShowLoading()

	payload := s.buildPayload(text, att, sess)

	resp, err := s.gateway.SendMessage(ctx, payload)
	s.renderer.HideLoading()

	if err != nil {
		log.Error("send message failed", "error", err)
		s.renderer.AddMessage(&domain.Message{
			ID:        domain.MessageID(uuid.NewString()),
			Role:      domain.RoleAssistant,
			Text:      fmt.Sprintf("❌ <strong>Erro:</strong> Não foi possível processar sua mensagem.<br><small>%s</small>", err),
			CreatedAt: s.now(),
		})
		return nil
	}

	reply := resp.Resposta
	if reply == "" {
		reply = FallbackReply
	}

	s.renderer.AddMessage(&domain.Message{
		ID:              domain.MessageID(uuid.NewString()),
		Role:            domain.RoleAssistant,
		Text:            reply,
		RelatedQuestion: text,
		CreatedAt:       s.now(),
	})

	s.store.ApplyResponse(resp)
	log.Info("message completed", "session_id", s.store.Session().ID)
	return nil
}

// Feedback reports a rating for an assistant reply. Fire-and-forget:
// failures are logged and never shown to the user.
func (s *Service) Feedback(ctx context.Context, m *domain.Message, kind domain.FeedbackKind) {
	fb := &domain.Feedback{
		Kind:      kind,
		SessionID: s.store.Session().ID,
		Question:  m.RelatedQuestion,
		Answer:    m.Text,
		At:        s.now(),
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.gateway.SendFeedback(ctx, fb); err != nil {
			observability.Logger().Error("feedback send failed", "error", err)
		}
	}()
}

func (s *Service) buildPayload(text string, att *domain.Attachment, sess domain.Session) *domain.MessagePayload {
	payload := &domain.MessagePayload{
		Pergunta:  text,
		Historico: sess.History,
		Contexto:  sess.Context,
	}
	if sess.ID != "" {
		id := string(sess.ID)
		payload.SessionID = &id
	}

	if att != nil {
		payload.MimeType, payload.Imagem = att.Base64Payload()
		if payload.Pergunta == "" {
			if payload.MimeType == domain.PDFMimeType {
				payload.Pergunta = DefaultPDFQuestion
			} else {
				payload.Pergunta = DefaultImageQuestion
			}
		}
	}
	return payload
}

func detectMimeType(fileName string, data []byte) string {
	if mt := mime.TypeByExtension(filepath.Ext(fileName)); mt != "" {
		// TypeByExtension may append parameters ("; charset=...")
		if i := strings.Index(mt, ";"); i >= 0 {
			mt = mt[:i]
		}
		return mt
	}
	mt := http.DetectContentType(data)
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	return mt
}

func encodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
