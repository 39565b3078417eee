package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reverielabs/reverie-lite/pkg/core/agent"
)

func newMatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "match <profile-a.json> <profile-b.json>",
		Short: "Score the compatibility of two user profiles",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileA, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			profileB, err := loadProfile(args[1])
			if err != nil {
				return err
			}

			result, err := app.client.Match(cmd.Context(), profileA, profileB)
			if err != nil {
				return fmt.Errorf("match profiles: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "score: %d\nreason: %s\n", result.Score, result.Reason)
			return nil
		},
	}
}

func loadProfile(path string) (agent.UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return agent.UserProfile{}, fmt.Errorf("read profile %q: %w", path, err)
	}
	var profile agent.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return agent.UserProfile{}, fmt.Errorf("parse profile %q: %w", path, err)
	}
	return profile, nil
}
