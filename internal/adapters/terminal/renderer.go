// Package terminal renders the conversation to a line-oriented
// terminal and hosts the per-message actions (copy, like/dislike).
package terminal

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/tdsoft/chat-assistente/internal/domain"
	"github.com/tdsoft/chat-assistente/internal/observability"
)

// copyConfirmDuration is how long the copy control shows its
// confirmation state before reverting.
const copyConfirmDuration = 2 * time.Second

// lineHeight converts rendered lines into viewport display units.
const lineHeight = 24

// FeedbackFunc delivers a rating to the orchestrator.
type FeedbackFunc func(ctx context.Context, m *domain.Message, kind domain.FeedbackKind)

type feedbackControls struct {
	liked    bool
	disliked bool
	disabled bool
}

type copyState struct {
	confirming bool
	timer      *time.Timer
}

// Renderer implements domain.Renderer over an io.Writer.
type Renderer struct {
	out      io.Writer
	input    *InputLine
	view     *Viewport
	feedback FeedbackFunc

	// copyFn is swappable so tests do not depend on a system clipboard.
	copyFn     func(string) error
	confirmFor time.Duration

	mu           sync.Mutex
	messages     map[domain.MessageID]*domain.Message
	controls     map[domain.MessageID]*feedbackControls
	copies       map[domain.MessageID]*copyState
	loading      bool
	inputEnabled bool
	preview      *domain.Attachment
	lastReply    domain.MessageID
}

func NewRenderer(out io.Writer, input *InputLine, view *Viewport, feedback FeedbackFunc) *Renderer {
	return &Renderer{
		out:          out,
		input:        input,
		view:         view,
		feedback:     feedback,
		copyFn:       clipboard.WriteAll,
		confirmFor:   copyConfirmDuration,
		messages:     make(map[domain.MessageID]*domain.Message),
		controls:     make(map[domain.MessageID]*feedbackControls),
		copies:       make(map[domain.MessageID]*copyState),
		inputEnabled: true,
	}
}

// AddMessage appends a bubble to the transcript. Assistant messages get
// a like/dislike control pair; every message gets a copy action.
func (r *Renderer) AddMessage(m *domain.Message) {
	r.mu.Lock()
	r.messages[m.ID] = m
	if m.Role == domain.RoleAssistant {
		r.controls[m.ID] = &feedbackControls{}
		r.lastReply = m.ID
	}

	text := StripMarkup(m.Text)
	label := "Você"
	if m.Role == domain.RoleAssistant {
		label = "Assistente"
	}

	fmt.Fprintf(r.out, "%s: %s\n", label, text)
	if m.Attachment != nil {
		fmt.Fprintf(r.out, "  [📎 %s]\n", m.Attachment.FileName)
	}
	r.mu.Unlock()

	lines := 1 + strings.Count(text, "\n")
	if m.Attachment != nil {
		lines++
	}
	r.view.Append(lines * lineHeight)
}

func (r *Renderer) ShowLoading() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loading {
		return
	}
	r.loading = true
	fmt.Fprintln(r.out, "● ● ●")
}

func (r *Renderer) HideLoading() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
}

func (r *Renderer) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

func (r *Renderer) ShowPreview(a *domain.Attachment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preview = a
	if a.IsPDF() {
		fmt.Fprintf(r.out, "[📄 PDF Selecionado: %s]\n", a.FileName)
		return
	}
	fmt.Fprintf(r.out, "[🖼 %s]\n", a.FileName)
}

func (r *Renderer) ClearPreview() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preview = nil
}

func (r *Renderer) Preview() *domain.Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preview
}

func (r *Renderer) SetInputEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputEnabled = enabled
}

func (r *Renderer) InputEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputEnabled
}

func (r *Renderer) Alert(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[!] %s\n", msg)
}

// CopyMessage copies a message's plain text (markup stripped) to the
// clipboard and flips the copy control into its confirmation state for
// two seconds. Clipboard failures are logged, never surfaced.
func (r *Renderer) CopyMessage(id domain.MessageID) {
	r.mu.Lock()
	m, ok := r.messages[id]
	r.mu.Unlock()
	if !ok {
		return
	}

	if err := r.copyFn(StripMarkup(m.Text)); err != nil {
		observability.Logger().Error("clipboard copy failed", "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.copies[id]
	if st == nil {
		st = &copyState{}
		r.copies[id] = st
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	st.confirming = true
	st.timer = time.AfterFunc(r.confirmFor, func() {
		r.mu.Lock()
		st.confirming = false
		r.mu.Unlock()
	})
}

// CopyConfirming reports whether a copy control is currently showing
// its confirmation state.
func (r *Renderer) CopyConfirming(id domain.MessageID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.copies[id]
	return st != nil && st.confirming
}

// Feedback handles a click on a like/dislike control. The first click
// highlights the chosen kind, clears the opposite one, disables the
// pair and reports the rating; any later click is a no-op.
func (r *Renderer) Feedback(ctx context.Context, id domain.MessageID, kind domain.FeedbackKind) {
	r.mu.Lock()
	m, ok := r.messages[id]
	c := r.controls[id]
	if !ok || c == nil || c.disabled {
		r.mu.Unlock()
		return
	}
	c.liked = kind == domain.FeedbackLike
	c.disliked = kind == domain.FeedbackDislike
	c.disabled = true
	r.mu.Unlock()

	if r.feedback != nil {
		r.feedback(ctx, m, kind)
	}
}

// LastReplyID returns the id of the most recent assistant message,
// which the CLI's copy and rating commands act on.
func (r *Renderer) LastReplyID() (domain.MessageID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReply, r.lastReply != ""
}

// FeedbackState exposes a control pair's visual state.
func (r *Renderer) FeedbackState(id domain.MessageID) (liked, disliked, disabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.controls[id]
	if c == nil {
		return false, false, false
	}
	return c.liked, c.disliked, c.disabled
}

var (
	brRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagRe = regexp.MustCompile(`<[^>]*>`)
)

// StripMarkup reduces the simple markup messages may carry to plain
// text: <br> becomes a newline, other tags are dropped, entities are
// unescaped.
func StripMarkup(s string) string {
	s = brRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}
