package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tdsoft/chat-assistente/internal/adapters/gateway"
	"github.com/tdsoft/chat-assistente/internal/adapters/speech/mic"
	"github.com/tdsoft/chat-assistente/internal/adapters/speech/whisper"
	"github.com/tdsoft/chat-assistente/internal/adapters/storage/memory"
	"github.com/tdsoft/chat-assistente/internal/adapters/terminal"
	"github.com/tdsoft/chat-assistente/internal/app/chat"
	"github.com/tdsoft/chat-assistente/internal/app/speech"
	"github.com/tdsoft/chat-assistente/internal/config"
	"github.com/tdsoft/chat-assistente/internal/domain"
	"github.com/tdsoft/chat-assistente/internal/media"
	"github.com/tdsoft/chat-assistente/internal/observability"
)

const help = `Comandos:
  /anexar <arquivo>   anexa uma imagem ou PDF à próxima mensagem
  /remover            remove o anexo pendente
  /mic                liga/desliga o ditado por voz
  /copiar             copia a última resposta
  /gostei  /naogostei avalia a última resposta
  /sair               encerra`

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var gw domain.Gateway
	if cfg.UseMockGateway {
		observability.Logger().Info("using mock gateway")
		gw = gateway.NewMock()
	} else {
		gw = gateway.NewClient(cfg.WebhookURL, cfg.FeedbackURL, cfg.RequestTimeout)
	}

	store := memory.NewConversationStore()
	input := terminal.NewInputLine(speech.IdlePlaceholder)
	view := terminal.NewViewport(600)

	// the renderer needs the service for feedback and the service needs
	// the renderer for output, so the callback closes over svc
	var svc *chat.Service
	renderer := terminal.NewRenderer(os.Stdout, input, view,
		func(ctx context.Context, m *domain.Message, kind domain.FeedbackKind) {
			svc.Feedback(ctx, m, kind)
		})

	stt := whisper.New(cfg.WhisperEndpoint)
	rec := mic.NewRecognizer(stt, cfg.SampleRate, cfg.CaptureWindow)
	capture := speech.NewCapture(rec, input, cfg.SilenceTimeout)
	capture.OnStateChange = func(listening bool) {
		if listening {
			fmt.Println("🎤 " + speech.ListeningPlaceholder)
		} else {
			fmt.Println("🎤 ditado encerrado")
		}
	}

	transcoder := media.NewTranscoder(cfg.MaxImageWidth, cfg.JPEGQuality)
	svc = chat.NewService(gw, store, renderer, transcoder, capture)

	ctx := cmd.Context()
	fmt.Println(help)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for {
		fmt.Printf("\n%s\n> ", input.Placeholder())
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "/sair":
			capture.Stop()
			return nil

		case strings.HasPrefix(line, "/anexar"):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/anexar"))
			if path == "" {
				fmt.Println("uso: /anexar <arquivo>")
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Printf("não foi possível ler %s: %v\n", path, err)
				continue
			}
			if err := svc.Attach(ctx, filepath.Base(path), data); err != nil {
				observability.Logger().Error("attach failed", "error", err)
			}

		case line == "/remover":
			svc.RemoveAttachment()

		case line == "/mic":
			if err := capture.Toggle(ctx); err != nil {
				fmt.Printf("ditado indisponível: %v\n", err)
			}

		case line == "/copiar":
			if id, ok := renderer.LastReplyID(); ok {
				renderer.CopyMessage(id)
			}

		case line == "/gostei":
			if id, ok := renderer.LastReplyID(); ok {
				renderer.Feedback(ctx, id, domain.FeedbackLike)
			}

		case line == "/naogostei":
			if id, ok := renderer.LastReplyID(); ok {
				renderer.Feedback(ctx, id, domain.FeedbackDislike)
			}

		default:
			// the input line may hold a dictated transcript; the typed
			// line joins it, exactly as typing after dictation would
			text := input.Take()
			if text != "" && line != "" {
				text = text + " " + line
			} else if line != "" {
				text = line
			}
			if err := svc.Submit(ctx, text); err != nil {
				observability.Logger().Error("submit failed", "error", err)
			}
		}
	}
}
