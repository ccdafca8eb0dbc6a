package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "assistente",
	Short: "Cliente de chat do assistente TDSoft",
	Long: `Cliente de terminal para o assistente: envia perguntas (com anexos de
imagem ou PDF e ditado por voz) para o webhook remoto e exibe a conversa.`,
	RunE:          runChat,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(stubCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
