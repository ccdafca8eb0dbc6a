package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/tdsoft/chat-assistente/internal/adapters/stubhook"
	"github.com/tdsoft/chat-assistente/internal/config"
	"github.com/tdsoft/chat-assistente/internal/observability"
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Sobe um webhook local de teste",
	Long: `Emula o par de webhooks remoto (mensagem e feedback) para desenvolver
o cliente sem uma instância n8n acessível.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		observability.Logger().Info("stub webhook listening", "addr", cfg.StubAddr)
		return http.ListenAndServe(cfg.StubAddr, stubhook.New())
	},
}
