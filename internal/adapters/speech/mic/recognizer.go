// Package mic implements continuous speech recognition from the
// default audio input: PortAudio capture windows are encoded to WAV
// and handed to a speech-to-text backend, and the transcript
// accumulates across windows for the lifetime of a session.
package mic

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"github.com/tdsoft/chat-assistente/internal/domain"
	"github.com/tdsoft/chat-assistente/internal/observability"
)

// STT transcribes one audio window. Satisfied by the whisper client.
type STT interface {
	Recognize(ctx context.Context, audio []byte) (string, error)
}

const framesPerBuffer = 1024

// Recognizer implements domain.Recognizer on top of the microphone.
type Recognizer struct {
	stt        STT
	sampleRate int
	window     time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func NewRecognizer(stt STT, sampleRate int, window time.Duration) *Recognizer {
	return &Recognizer{
		stt:        stt,
		sampleRate: sampleRate,
		window:     window,
	}
}

// Start opens the default input stream and delivers cumulative
// transcripts through onResult until Stop or context cancellation.
func (r *Recognizer) Start(ctx context.Context, onResult func(domain.SpeechResult)) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("recognition already active")
	}
	ctx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.mu.Unlock()

	go r.run(ctx, onResult)
	return nil
}

func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}
	r.running = false
	r.cancel()
	return nil
}

func (r *Recognizer) run(ctx context.Context, onResult func(domain.SpeechResult)) {
	defer func() {
		r.mu.Lock()
		if r.running {
			r.running = false
			r.cancel()
		}
		r.mu.Unlock()
	}()

	if err := portaudio.Initialize(); err != nil {
		onResult(domain.SpeechResult{Err: err})
		return
	}
	defer portaudio.Terminate()

	in := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), len(in), in)
	if err != nil {
		onResult(domain.SpeechResult{Err: err})
		return
	}
	defer func() {
		_ = stream.Stop()
		_ = stream.Close()
	}()

	if err := stream.Start(); err != nil {
		onResult(domain.SpeechResult{Err: err})
		return
	}

	windowSamples := int(float64(r.sampleRate) * r.window.Seconds())
	frames := make([]int16, 0, windowSamples)
	var transcript string

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := stream.Read(); err != nil {
			observability.Logger().Error("audio stream read failed", "error", err)
			onResult(domain.SpeechResult{Err: err})
			return
		}
		frames = append(frames, in...)
		if len(frames) < windowSamples {
			continue
		}

		text, err := r.transcribe(ctx, frames)
		frames = frames[:0]
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			onResult(domain.SpeechResult{Err: err})
			return
		}

		text = strings.TrimSpace(text)
		if text == "" {
			onResult(domain.SpeechResult{Err: domain.ErrNoSpeech})
			continue
		}

		if transcript == "" {
			transcript = text
		} else {
			transcript += " " + text
		}
		onResult(domain.SpeechResult{Transcript: transcript})
	}
}

func (r *Recognizer) transcribe(ctx context.Context, samples []int16) (string, error) {
	data, err := encodeWAV(samples, r.sampleRate)
	if err != nil {
		return "", err
	}
	return r.stt.Recognize(ctx, data)
}

// encodeWAV writes the int16 samples as a mono 16-bit WAV. The wav
// encoder needs an io.WriteSeeker, so a temp file stands in.
func encodeWAV(samples []int16, rate int) ([]byte, error) {
	f, err := os.CreateTemp("", "assistente-audio-*.wav")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	defer os.Remove(path)

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  rate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i := range samples {
		buf.Data[i] = int(samples[i])
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
