package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSayCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "say <text>...",
		Short: "Run one typed reflection turn and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := app.client
			text := strings.Join(args, " ")

			if err := client.Say(cmd.Context(), text); err != nil {
				return fmt.Errorf("run turn: %w", err)
			}

			printTranscript(cmd.OutOrStdout(), client.Transcript.List(), 0)
			return nil
		},
	}
}
