package chat_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tdsoft/chat-assistente/internal/adapters/storage/memory"
	"github.com/tdsoft/chat-assistente/internal/app/chat"
	"github.com/tdsoft/chat-assistente/internal/domain"
	"github.com/tdsoft/chat-assistente/internal/media"
)

type fakeGateway struct {
	mu        sync.Mutex
	payloads  []*domain.MessagePayload
	feedbacks []*domain.Feedback
	resp      *domain.MessageResponse
	err       error
}

func (f *fakeGateway) SendMessage(_ context.Context, p *domain.MessagePayload) (*domain.MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &domain.MessageResponse{}, nil
}

func (f *fakeGateway) SendFeedback(_ context.Context, fb *domain.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedbacks = append(f.feedbacks, fb)
	return nil
}

type fakeRenderer struct {
	mu             sync.Mutex
	messages       []*domain.Message
	alerts         []string
	previews       []*domain.Attachment
	previewCleared int
	loading        bool
	inputEnabled   bool
	enableCalls    []bool
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{inputEnabled: true}
}

func (f *fakeRenderer) AddMessage(m *domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, m)
}

func (f *fakeRenderer) ShowLoading() { f.mu.Lock(); f.loading = true; f.mu.Unlock() }
func (f *fakeRenderer) HideLoading() { f.mu.Lock(); f.loading = false; f.mu.Unlock() }

func (f *fakeRenderer) ShowPreview(a *domain.Attachment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews = append(f.previews, a)
}

func (f *fakeRenderer) ClearPreview() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previewCleared++
}

func (f *fakeRenderer) SetInputEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputEnabled = enabled
	f.enableCalls = append(f.enableCalls, enabled)
}

func (f *fakeRenderer) Alert(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, msg)
}

func newService(gw *fakeGateway) (*chat.Service, *memory.ConversationStore, *fakeRenderer) {
	store := memory.NewConversationStore()
	renderer := newFakeRenderer()
	svc := chat.NewService(gw, store, renderer, media.NewTranscoder(800, 70), nil)
	return svc, store, renderer
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestSubmitEmptyIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, renderer := newService(gw)

	if err := svc.Submit(context.Background(), "   "); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(gw.payloads) != 0 {
		t.Fatal("empty submission must not reach the gateway")
	}
	if len(renderer.messages) != 0 {
		t.Fatal("empty submission must not render anything")
	}
}

func TestSubmitTextAndImage(t *testing.T) {
	gw := &fakeGateway{resp: &domain.MessageResponse{Resposta: "analisado"}}
	svc, store, renderer := newService(gw)
	ctx := context.Background()

	if err := svc.Attach(ctx, "foto.jpg", testJPEG(t, 1600, 1200)); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := svc.Submit(ctx, "Hello"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(gw.payloads) != 1 {
		t.Fatalf("expected one payload, got %d", len(gw.payloads))
	}
	p := gw.payloads[0]
	if p.Pergunta != "Hello" {
		t.Fatalf("expected pergunta Hello, got %q", p.Pergunta)
	}
	if p.MimeType != "image/jpeg" {
		t.Fatalf("expected mimeType image/jpeg, got %q", p.MimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(p.Imagem)
	if err != nil {
		t.Fatalf("imagem is not valid base64: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("imagem is not a JPEG: %v", err)
	}
	if cfg.Width > 800 {
		t.Fatalf("expected re-encoded width <= 800, got %d", cfg.Width)
	}

	// user bubble rendered synchronously, with the thumbnail
	user := renderer.messages[0]
	if user.Role != domain.RoleUser || user.Text != "Hello" || user.Attachment == nil {
		t.Fatalf("unexpected user message: %+v", user)
	}

	if store.Attachment() != nil {
		t.Fatal("attachment must be cleared on submission")
	}
	if renderer.previewCleared == 0 {
		t.Fatal("preview must be cleared on submission")
	}
}

func TestSubmitPDFOnlyGetsDefaultQuestion(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newService(gw)
	ctx := context.Background()

	if err := svc.Attach(ctx, "doc.pdf", []byte("%PDF-1.4 fake")); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := svc.Submit(ctx, ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	p := gw.payloads[0]
	if p.Pergunta != chat.DefaultPDFQuestion {
		t.Fatalf("expected canned PDF question, got %q", p.Pergunta)
	}
	if p.MimeType != domain.PDFMimeType {
		t.Fatalf("expected PDF mime type, got %q", p.MimeType)
	}
}

func TestSubmitImageOnlyGetsDefaultQuestion(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newService(gw)
	ctx := context.Background()

	if err := svc.Attach(ctx, "foto.jpg", testJPEG(t, 100, 100)); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := svc.Submit(ctx, ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if got := gw.payloads[0].Pergunta; got != chat.DefaultImageQuestion {
		t.Fatalf("expected canned image question, got %q", got)
	}
}

func TestSubmitFailureRendersErrorBubbleAndReenables(t *testing.T) {
	gw := &fakeGateway{err: errors.New("Erro 500: server error")}
	svc, _, renderer := newService(gw)

	if err := svc.Submit(context.Background(), "oi"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(renderer.messages) != 2 {
		t.Fatalf("expected user + error bubble, got %d messages", len(renderer.messages))
	}
	bubble := renderer.messages[1]
	if bubble.Role != domain.RoleAssistant {
		t.Fatalf("error bubble must render as assistant, got %s", bubble.Role)
	}
	if !strings.Contains(bubble.Text, "Erro") || !strings.Contains(bubble.Text, "server error") {
		t.Fatalf("error bubble missing failure detail: %q", bubble.Text)
	}
	if !renderer.inputEnabled {
		t.Fatal("input must be re-enabled after a failure")
	}
	if renderer.loading {
		t.Fatal("loading indicator must be removed after a failure")
	}
}

func TestSubmitSuccessAppliesResponseAndFallback(t *testing.T) {
	gw := &fakeGateway{resp: &domain.MessageResponse{
		SessionID: "s-1",
		Historico: json.RawMessage(`[1,2]`),
	}}
	svc, store, renderer := newService(gw)

	if err := svc.Submit(context.Background(), "oi"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	reply := renderer.messages[1]
	if reply.Text != chat.FallbackReply {
		t.Fatalf("expected fallback reply, got %q", reply.Text)
	}
	if reply.RelatedQuestion != "oi" {
		t.Fatalf("expected related question, got %q", reply.RelatedQuestion)
	}

	sess := store.Session()
	if sess.ID != "s-1" || string(sess.History) != "[1,2]" {
		t.Fatalf("response not applied: %+v", sess)
	}
	if !renderer.inputEnabled {
		t.Fatal("input must be re-enabled after success")
	}
}

func TestSessionIDSurvivesResponseWithoutOne(t *testing.T) {
	gw := &fakeGateway{resp: &domain.MessageResponse{SessionID: "s-1"}}
	svc, store, _ := newService(gw)
	ctx := context.Background()

	if err := svc.Submit(ctx, "primeira"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	gw.mu.Lock()
	gw.resp = &domain.MessageResponse{Resposta: "sem sessão"}
	gw.mu.Unlock()

	if err := svc.Submit(ctx, "segunda"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if got := store.Session().ID; got != "s-1" {
		t.Fatalf("absence must not reset the session id, got %q", got)
	}

	// the second payload must carry the assigned id
	second := gw.payloads[1]
	if second.SessionID == nil || *second.SessionID != "s-1" {
		t.Fatalf("expected sessionId s-1 in second payload, got %v", second.SessionID)
	}
}

func TestAttachRejectsUnsupportedType(t *testing.T) {
	gw := &fakeGateway{}
	svc, store, renderer := newService(gw)

	if err := svc.Attach(context.Background(), "nota.txt", []byte("texto puro")); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if len(renderer.alerts) != 1 || renderer.alerts[0] != chat.UnsupportedFileAlert {
		t.Fatalf("expected rejection alert, got %v", renderer.alerts)
	}
	if store.Attachment() != nil {
		t.Fatal("rejected file must not be staged")
	}
}

func TestAttachReportsDecodeFailure(t *testing.T) {
	gw := &fakeGateway{}
	svc, store, _ := newService(gw)

	err := svc.Attach(context.Background(), "quebrada.jpg", []byte("not a real jpeg"))
	if !errors.Is(err, media.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if store.Attachment() != nil {
		t.Fatal("undecodable file must not be staged")
	}
}

func TestFeedbackReachesGateway(t *testing.T) {
	gw := &fakeGateway{resp: &domain.MessageResponse{SessionID: "s-1", Resposta: "olá"}}
	svc, _, renderer := newService(gw)
	ctx := context.Background()

	if err := svc.Submit(ctx, "oi"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	svc.Feedback(ctx, renderer.messages[1], domain.FeedbackDislike)

	deadline := time.Now().Add(time.Second)
	for {
		gw.mu.Lock()
		n := len(gw.feedbacks)
		gw.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("feedback never reached the gateway")
		}
		time.Sleep(5 * time.Millisecond)
	}

	gw.mu.Lock()
	fb := gw.feedbacks[0]
	gw.mu.Unlock()
	if fb.Kind != domain.FeedbackDislike || fb.SessionID != "s-1" || fb.Question != "oi" {
		t.Fatalf("unexpected feedback: %+v", fb)
	}
}
