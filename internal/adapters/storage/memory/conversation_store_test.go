package memory_test

import (
	"encoding/json"
	"testing"

	"github.com/tdsoft/chat-assistente/internal/adapters/storage/memory"
	"github.com/tdsoft/chat-assistente/internal/domain"
)

func TestApplyResponseAbsenceMeansUnchanged(t *testing.T) {
	store := memory.NewConversationStore()

	store.ApplyResponse(&domain.MessageResponse{
		SessionID: "abc",
		Historico: json.RawMessage(`[{"pergunta":"oi"}]`),
		Contexto:  "ctx-1",
	})

	// a later response carrying none of the fields must reset nothing
	store.ApplyResponse(&domain.MessageResponse{Resposta: "só texto"})

	sess := store.Session()
	if sess.ID != "abc" {
		t.Fatalf("session id changed: got %q", sess.ID)
	}
	if string(sess.History) != `[{"pergunta":"oi"}]` {
		t.Fatalf("history changed: got %s", sess.History)
	}
	if sess.Context != "ctx-1" {
		t.Fatalf("context changed: got %q", sess.Context)
	}
}

func TestApplyResponsePartialUpdate(t *testing.T) {
	store := memory.NewConversationStore()

	store.ApplyResponse(&domain.MessageResponse{SessionID: "abc", Contexto: "ctx-1"})
	store.ApplyResponse(&domain.MessageResponse{Contexto: "ctx-2"})

	sess := store.Session()
	if sess.ID != "abc" {
		t.Fatalf("expected session id abc, got %q", sess.ID)
	}
	if sess.Context != "ctx-2" {
		t.Fatalf("expected context ctx-2, got %q", sess.Context)
	}
}

func TestAttachmentReplaceAndTake(t *testing.T) {
	store := memory.NewConversationStore()

	if store.Attachment() != nil {
		t.Fatal("expected no pending attachment")
	}

	first := &domain.Attachment{FileName: "a.jpg", MimeType: "image/jpeg"}
	second := &domain.Attachment{FileName: "b.pdf", MimeType: domain.PDFMimeType}

	store.SetAttachment(first)
	store.SetAttachment(second)
	if got := store.Attachment(); got != second {
		t.Fatalf("expected replacement to win, got %+v", got)
	}

	if got := store.TakeAttachment(); got != second {
		t.Fatalf("take returned %+v", got)
	}
	if store.Attachment() != nil {
		t.Fatal("take must clear the pending attachment")
	}
	if store.TakeAttachment() != nil {
		t.Fatal("second take must return nil")
	}
}
