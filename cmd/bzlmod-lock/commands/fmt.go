package commands

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newFmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [lockfile]",
		Short: "Rewrite a lockfile in canonical form",
		Long: "Decodes the lockfile and encodes it again. Unknown fields are dropped and " +
			"members are written in a fixed order with two-space indentation.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := lockfilePath(args)
			lf, original, err := c.load(path)
			if err != nil {
				return err
			}
			formatted, err := lf.Marshal()
			if err != nil {
				return zerr.Wrap(err, "failed to encode lockfile")
			}

			write, _ := cmd.Flags().GetBool("write")
			check, _ := cmd.Flags().GetBool("check")
			switch {
			case check:
				if !bytes.Equal(original, formatted) {
					return zerr.With(ErrNotFormatted, "path", path)
				}
				return nil
			case write:
				if bytes.Equal(original, formatted) {
					return nil
				}
				info, err := os.Stat(path)
				if err != nil {
					return zerr.With(zerr.Wrap(err, "failed to stat lockfile"), "path", path)
				}
				if err := os.WriteFile(path, formatted, info.Mode().Perm()); err != nil {
					return zerr.With(zerr.Wrap(err, "failed to write lockfile"), "path", path)
				}
				c.logger.Debug("rewrote lockfile", "path", path, "bytes", len(formatted))
				return nil
			default:
				_, err := cmd.OutOrStdout().Write(formatted)
				return err
			}
		},
	}
	cmd.Flags().BoolP("write", "w", false, "Write the result back to the lockfile")
	cmd.Flags().Bool("check", false, "Fail if the lockfile is not in canonical form")
	cmd.MarkFlagsMutuallyExclusive("write", "check")
	return cmd
}
