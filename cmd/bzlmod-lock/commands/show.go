package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/lockfile"
)

func (c *CLI) newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [lockfile]",
		Short: "Print the contents of a lockfile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output != "text" && output != "json" && output != "yaml" {
				return zerr.With(ErrUnknownOutput, "output", output)
			}

			lf, _, err := c.load(lockfilePath(args))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				_, err = lf.WriteTo(out)
				return err
			case "yaml":
				return writeYAML(out, lf)
			default:
				return writeText(out, lf)
			}
		},
	}
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
	return cmd
}

func writeText(w io.Writer, lf *lockfile.Lockfile) error {
	_, _ = fmt.Fprintf(w, "lockFileVersion: %d\n", lf.Version)
	_, _ = fmt.Fprintf(w, "moduleFileHash:  %s\n", lf.ModuleFileHash)
	_, _ = fmt.Fprintf(w, "registries:      %s\n", strings.Join(lf.Flags.CmdRegistries.Slice(), ", "))
	_, _ = fmt.Fprintf(w, "modules:         %d\n\n", lf.ModuleCount())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "MODULE\tREPO\tREGISTRY\tDEPS\tEXTENSIONS")
	for key, m := range lf.ModuleDepGraph.All() {
		reg := m.RegistryURL()
		if reg == "" {
			reg = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			key, m.RepoName, reg, m.Deps.Len(), m.ExtensionUsages.Len())
	}
	return tw.Flush()
}

// writeYAML re-encodes the canonical JSON form as block-style YAML. Member
// order is preserved.
func writeYAML(w io.Writer, lf *lockfile.Lockfile) error {
	data, err := lf.Marshal()
	if err != nil {
		return zerr.Wrap(err, "failed to encode lockfile")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return zerr.Wrap(err, "failed to convert lockfile to yaml")
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return zerr.Wrap(err, "failed to write yaml")
	}
	return enc.Close()
}

// blockStyle clears the flow and quoting styles that JSON input carries.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}
