package cli

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reverielabs/reverie-lite/pkg/core/session"
	"github.com/reverielabs/reverie-lite/pkg/core/transcript"
)

func newConnectCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect to the agent session and stream events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := app.client
			client.Connect(ctx)
			defer client.Disconnect()

			out := cmd.OutOrStdout()
			printed := 0

			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-client.Session.Events():
					if !ok {
						return nil
					}
					switch e := event.(type) {
					case *session.StateChangedEvent:
						fmt.Fprintf(out, "session: %s -> %s\n", e.From, e.To)
						if e.To == session.StateDisconnected {
							return nil
						}
					case *session.AgentStateChangedEvent:
						fmt.Fprintf(out, "agent: %s\n", e.State)
					case *session.ErrorSurfacedEvent:
						fmt.Fprintf(out, "error: %s: %s\n", e.Details.Title, e.Details.Description)
					case *session.TranscriptUpdatedEvent:
						printed = printTranscript(out, client.Transcript.List(), printed)
					}
				}
			}
		},
	}
}

// printTranscript prints entries past the already-printed mark and
// returns the new mark. Revised earlier entries are not reprinted.
func printTranscript(out io.Writer, entries []transcript.Entry, printed int) int {
	for _, entry := range entries[min(printed, len(entries)):] {
		label := "you"
		if entry.Origin == transcript.OriginRemoteAgent {
			label = "agent"
		}
		fmt.Fprintf(out, "%s: %s\n", label, entry.Text)
	}
	if len(entries) > printed {
		return len(entries)
	}
	return printed
}
