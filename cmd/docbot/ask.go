package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docbot-backend/internal/chat"
	"docbot-backend/internal/shared/config"
)

func askCMD() *cobra.Command {
	var sessionID string
	ask := &cobra.Command{
		Use:   "ask <documentId> <question>...",
		Short: "Ask a question about a processed document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), config.Load(), true)
			if err != nil {
				return err
			}
			defer app.Close()

			reply, err := app.Chat.Respond(cmd.Context(), chat.Request{
				DocumentID: args[0],
				Message:    strings.Join(args[1:], " "),
				SessionID:  sessionID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
			return nil
		},
	}
	ask.Flags().StringVar(&sessionID, "session", "", "record the exchange under this chat session")
	return ask
}
