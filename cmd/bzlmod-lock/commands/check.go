package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/graph"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/lockfile"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [lockfile]",
		Short: "Verify that a lockfile decodes and matches MODULE.bazel",
		Long: `Verify that a lockfile decodes, that every dependency edge points at a
module in the graph, and that moduleFileHash matches MODULE.bazel.

With --yanked, each registry-backed module's version is also checked against
the registry's yanked versions. Versions allowed by the lockfile's
allowedYankedVersions or envVarAllowedYankedVersions flags are accepted.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := lockfilePath(args)
			lf, _, err := c.load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if lf.Version != lockfile.CurrentVersion {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s has lockFileVersion %d, expected %d\n",
					path, lf.Version, lockfile.CurrentVersion)
			}

			g := graph.FromLockfile(lf)
			if dangling := g.Dangling(); len(dangling) > 0 {
				return zerr.With(ErrDanglingDependency, "edge", dangling[0].String())
			}
			for _, key := range g.Unreachable() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is not reachable from %s\n", key, g.Root)
			}

			moduleFile, _ := cmd.Flags().GetString("module-file")
			if moduleFile == "" {
				moduleFile = filepath.Join(filepath.Dir(path), "MODULE.bazel")
				if _, err := os.Stat(moduleFile); err != nil {
					moduleFile = ""
				}
			}
			if moduleFile != "" {
				content, err := os.ReadFile(moduleFile)
				if err != nil {
					return zerr.With(zerr.Wrap(err, "failed to read module file"), "path", moduleFile)
				}
				if !lf.ModuleFileUpToDate(content) {
					return zerr.With(ErrStaleLockfile, "module_file", moduleFile)
				}
			}

			if checkYanked, _ := cmd.Flags().GetBool("yanked"); checkYanked {
				yanked, err := lf.CheckYanked(cmd.Context(), lockfile.WithLogger(c.logger))
				if err != nil {
					return zerr.Wrap(err, "failed to check yanked versions")
				}
				for _, y := range yanked {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "yanked: %s\n", y)
				}
				if len(yanked) > 0 {
					return zerr.With(ErrYankedVersion, "module", yanked[0].Key.String())
				}
			}

			_, _ = fmt.Fprintf(out, "%s: ok (%d modules)\n", path, lf.ModuleCount())
			return nil
		},
	}
	cmd.Flags().StringP("module-file", "m", "", "Root MODULE.bazel to verify the hash against (default: next to the lockfile)")
	cmd.Flags().Bool("yanked", false, "Ask each module's registry whether its version was yanked")
	return cmd
}
