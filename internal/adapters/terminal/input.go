package terminal

import "sync"

// InputLine is the shared input field. Typed text and recognition
// transcripts both land here; submission reads whatever it holds.
type InputLine struct {
	mu          sync.Mutex
	text        string
	placeholder string
}

func NewInputLine(placeholder string) *InputLine {
	return &InputLine{placeholder: placeholder}
}

func (l *InputLine) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

func (l *InputLine) SetText(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.text = s
}

func (l *InputLine) Placeholder() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.placeholder
}

func (l *InputLine) SetPlaceholder(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.placeholder = s
}

// Take atomically reads and clears the line, mirroring the widget's
// "clear the input immediately on submit" behavior.
func (l *InputLine) Take() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.text
	l.text = ""
	return s
}
