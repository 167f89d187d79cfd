// Package cli provides the command-line surface for xpipe-browser. There is
// exactly one command: the interactive browser itself.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"xpipe-browser/internal/appconfig"
	"xpipe-browser/internal/doctor"
	"xpipe-browser/internal/ui"
)

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "xpipe-browser",
		Short: "Interactive terminal browser for XPipe connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load()
			if err != nil {
				slog.Warn("failed to load config, using defaults", "error", err)
				cfg = appconfig.Default()
			}
			// A missing credential is the one fatal configuration error:
			// nothing is rendered, the process exits before any UI.
			apiKey, err := appconfig.APIKey()
			if err != nil {
				return err
			}
			warnings := doctor.Run(cfg).Warnings()
			return ui.Run(cfg, apiKey, warnings)
		},
		SilenceUsage: true,
	}
}
