package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/codec"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/graph"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/lockfile"
)

func (c *CLI) newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <mod-graph.json>",
		Short: "Write a lockfile from MODULE.bazel and a resolved module graph",
		Long: `Write a lockfile from the root MODULE.bazel and the output of
"bazel mod graph --output=json" ("-" reads it from stdin).

Every module with a version is taken from --registry, and its MODULE.bazel
is fetched from there. Modules without a version are recorded without a
registry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			moduleFile, _ := cmd.Flags().GetString("module-file")
			registryURL, _ := cmd.Flags().GetString("registry")
			output, _ := cmd.Flags().GetString("output")

			content, err := os.ReadFile(moduleFile)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to read module file"), "path", moduleFile)
			}
			g, err := readModGraph(cmd, args[0])
			if err != nil {
				return err
			}

			flags := lockfile.DefaultFlags()
			flags.CmdRegistries = codec.ListOf(registryURL)
			lf, err := lockfile.Build(cmd.Context(), content, resolutions(g, registryURL), c.factory,
				lockfile.WithFlags(flags), lockfile.WithLogger(c.logger))
			if err != nil {
				return zerr.Wrap(err, "failed to generate lockfile")
			}

			if output == "" || output == "-" {
				_, err = lf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := lf.WriteFile(output); err != nil {
				return zerr.With(zerr.Wrap(err, "failed to write lockfile"), "path", output)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %d modules\n", output, lf.ModuleCount())
			return nil
		},
	}
	cmd.Flags().StringP("module-file", "m", "MODULE.bazel", "Root MODULE.bazel")
	cmd.Flags().String("registry", lockfile.DefaultFlags().CmdRegistries.Slice()[0], "Registry the resolved modules come from")
	cmd.Flags().StringP("output", "o", "", "Lockfile to write (default: stdout)")
	return cmd
}

func readModGraph(cmd *cobra.Command, path string) (*graph.Graph, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read module graph"), "path", path)
	}
	g, err := graph.ParseModGraph(data)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid module graph"), "path", path)
	}
	return g, nil
}

// resolutions turns every non-root module of g into a resolution. Deps are
// keyed by the repo name g recorded for each edge.
func resolutions(g *graph.Graph, registryURL string) []lockfile.ModuleResolution {
	var out []lockfile.ModuleResolution
	for _, key := range g.Keys() {
		if key == g.Root {
			continue
		}
		node := g.Get(key)
		r := lockfile.ModuleResolution{
			Name:    key.Name,
			Version: key.Version.String(),
			Deps:    make(map[string]label.ModuleKey, len(node.Dependencies)),
		}
		if !key.Version.IsEmpty() {
			r.RegistryURL = registryURL
		}
		for _, dep := range node.Dependencies {
			r.Deps[node.RepoNames[dep]] = dep
		}
		out = append(out, r)
	}
	return out
}
