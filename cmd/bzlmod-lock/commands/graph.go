package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/graph"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [lockfile]",
		Short: "Print the module dependency graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			lf, _, err := c.load(lockfilePath(args))
			if err != nil {
				return err
			}
			g := graph.FromLockfile(lf)

			out := cmd.OutOrStdout()
			switch output {
			case "text":
				_, err = fmt.Fprint(out, g.ToText())
			case "dot":
				_, err = fmt.Fprint(out, g.ToDOT())
			case "json":
				var data []byte
				data, err = g.ToJSON()
				if err == nil {
					_, err = fmt.Fprintln(out, string(data))
				}
			default:
				return zerr.With(ErrUnknownOutput, "output", output)
			}
			return err
		},
	}
	cmd.Flags().StringP("output", "o", "text", "Output format: text, dot or json")
	return cmd
}

func (c *CLI) newWhyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "why <module> [lockfile]",
		Short: "Show the dependency chains that pull a module in",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, _, err := c.load(lockfilePath(args[1:]))
			if err != nil {
				return err
			}
			text, err := graph.FromLockfile(lf).ToWhyText(args[0])
			if err != nil {
				return zerr.With(err, "module", args[0])
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
	return cmd
}
