package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
)

var askLanguage string

func init() {
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer one query and print the response JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
	cmd.Flags().StringVarP(&askLanguage, "language", "l", model.DefaultLanguage, "Reply language")
	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	resp := a.assistant.Respond(cmd.Context(), model.ConversationInput{
		Query:    model.QueryText(strings.Join(args, " ")),
		Language: askLanguage,
	})
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
