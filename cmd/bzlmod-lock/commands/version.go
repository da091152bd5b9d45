package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/internal/build"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/lockfile"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bzlmod-lock version %s (commit: %s, date: %s, lockFileVersion: %d)\n",
				build.Version, build.Commit, build.Date, lockfile.CurrentVersion)
		},
	}
}
