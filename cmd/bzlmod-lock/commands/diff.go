package commands

import (
	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/lockfile"
)

func (c *CLI) newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare the dependency graphs of two lockfiles",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldLf, _, err := c.load(args[0])
			if err != nil {
				return err
			}
			newLf, _, err := c.load(args[1])
			if err != nil {
				return err
			}

			d := lockfile.Compare(oldLf, newLf)
			if _, err := cmd.OutOrStdout().Write([]byte(d.Summary())); err != nil {
				return err
			}

			exitCode, _ := cmd.Flags().GetBool("exit-code")
			if exitCode && !d.IsEmpty() {
				return ErrLockfilesDiffer
			}
			return nil
		},
	}
	cmd.Flags().Bool("exit-code", false, "Exit with status 1 when the lockfiles differ")
	return cmd
}
