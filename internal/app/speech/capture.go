// Package speech drives a continuous speech-to-text session with
// silence-based auto-stop. Transcripts are merged into the shared
// input field and nowhere else; submission reads whatever the field
// holds, spoken or typed.
package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/tdsoft/chat-assistente/internal/domain"
	"github.com/tdsoft/chat-assistente/internal/observability"
)

const (
	// ListeningPlaceholder replaces the input prompt while capturing.
	ListeningPlaceholder = "Ouvindo... (Fale agora)"
	// IdlePlaceholder is the normal input prompt.
	IdlePlaceholder = "Digite sua mensagem..."
)

// Capture is the two-state (idle/listening) machine around a
// Recognizer. At most one session is active; stale timers from a
// previous session are fenced off with a generation counter so rapid
// stop/start toggles can never auto-stop the wrong session.
type Capture struct {
	rec     domain.Recognizer
	input   domain.InputField
	silence time.Duration

	// OnStateChange, when set, is notified on every idle/listening
	// transition (drives the microphone control's visual state).
	OnStateChange func(listening bool)

	mu        sync.Mutex
	listening bool
	baseline  string
	timer     *time.Timer
	gen       uint64
}

func NewCapture(rec domain.Recognizer, input domain.InputField, silence time.Duration) *Capture {
	return &Capture{
		rec:     rec,
		input:   input,
		silence: silence,
	}
}

// Active reports whether a capture session is running.
func (c *Capture) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// Toggle starts capture when idle and stops it when listening.
func (c *Capture) Toggle(ctx context.Context) error {
	if c.Active() {
		c.Stop()
		return nil
	}
	return c.Start(ctx)
}

// Start transitions idle → listening: the current input text becomes
// the baseline, the silence timer is armed, and the recognizer begins
// delivering results. Starting while already listening is a no-op.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.listening {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	c.listening = true
	c.baseline = c.input.Text()
	c.input.SetPlaceholder(ListeningPlaceholder)
	c.armSilenceLocked()
	c.mu.Unlock()

	c.notify(true)

	if err := c.rec.Start(ctx, c.handleResult); err != nil {
		observability.LoggerFromContext(ctx).Error("speech recognition start failed", "error", err)
		c.Stop()
		return err
	}
	return nil
}

// Stop transitions listening → idle: the silence timer is disarmed,
// the recognizer is stopped and the input prompt is restored. Safe to
// call when already idle.
func (c *Capture) Stop() {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.listening = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.input.SetPlaceholder(IdlePlaceholder)
	c.mu.Unlock()

	if err := c.rec.Stop(); err != nil {
		observability.Logger().Error("speech recognition stop failed", "error", err)
	}
	c.notify(false)
}

func (c *Capture) notify(listening bool) {
	if c.OnStateChange != nil {
		c.OnStateChange(listening)
	}
}

// handleResult receives every interim or final recognition event.
func (c *Capture) handleResult(r domain.SpeechResult) {
	if r.Err != nil {
		// "no speech" is a normal quiet stretch, not a failure
		if errors.Is(r.Err, domain.ErrNoSpeech) {
			return
		}
		observability.Logger().Error("speech recognition error", "error", r.Err)
		c.Stop()
		return
	}

	c.mu.Lock()
	if !c.listening {
		// late result after a stop; the submit snapshot must not move
		c.mu.Unlock()
		return
	}
	c.armSilenceLocked()
	c.input.SetText(c.baseline + separator(c.baseline, r.Transcript) + r.Transcript)
	c.mu.Unlock()
}

// armSilenceLocked (re)arms the silence timer for the current
// generation. Callers hold c.mu.
func (c *Capture) armSilenceLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	gen := c.gen
	c.timer = time.AfterFunc(c.silence, func() {
		c.mu.Lock()
		stale := !c.listening || c.gen != gen
		c.mu.Unlock()
		if stale {
			return
		}
		observability.Logger().Info("silence timeout, stopping capture")
		c.Stop()
	})
}

// separator inserts a single space between the baseline and the
// transcript, but only when both sides are non-empty and the baseline
// does not already end in a space.
func separator(baseline, transcript string) string {
	if baseline != "" && !strings.HasSuffix(baseline, " ") && transcript != "" {
		return " "
	}
	return ""
}
