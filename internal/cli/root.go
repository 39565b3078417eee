// Package cli implements the reverie command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/reverielabs/reverie-lite/internal/dotenv"
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "reverie",
		Short:         "Voice reflection agent client",
		Long:          "reverie connects to a voice agent session, runs reflection turns against it, and scores user profile compatibility from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := dotenv.Load(); err != nil {
				return err
			}
			return app.init(verbose)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newConnectCmd(app),
		newSayCmd(app),
		newMatchCmd(app),
	)

	return rootCmd
}
