package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lockfileJSON = `{
  "lockFileVersion": 3,
  "moduleFileHash": "abc",
  "flags": {
    "cmdRegistries": ["https://bcr.bazel.build/"],
    "cmdModuleOverrides": {},
    "allowedYankedVersions": [],
    "envVarAllowedYankedVersions": "",
    "ignoreDevDependency": false,
    "directDependenciesMode": "WARNING",
    "compatibilityMode": "ERROR"
  },
  "localOverrideHashes": {},
  "moduleDepGraph": {
    "<root>": {
      "name": "app",
      "version": "",
      "key": "<root>",
      "repoName": "app",
      "executionPlatformsToRegister": [],
      "toolchainsToRegister": [],
      "extensionUsages": [],
      "deps": {"platforms": "platforms@0.0.7"}
    },
    "platforms@0.0.7": {
      "name": "platforms",
      "version": "0.0.7",
      "key": "platforms@0.0.7",
      "repoName": "platforms",
      "executionPlatformsToRegister": [],
      "toolchainsToRegister": [],
      "extensionUsages": [],
      "deps": {},
      "registry": "https://bcr.bazel.build"
    }
  }
}
`

func TestRun(t *testing.T) {
	tmpDir := t.TempDir()
	good := filepath.Join(tmpDir, "MODULE.bazel.lock")
	require.NoError(t, os.WriteFile(good, []byte(lockfileJSON), 0o600))

	tests := []struct {
		name         string
		args         []string
		expectedExit int
		wantStderr   string
	}{
		{name: "version", args: []string{"version"}, expectedExit: 0},
		{name: "show", args: []string{"show", good}, expectedExit: 0},
		{name: "diff identical", args: []string{"diff", "--exit-code", good, good}, expectedExit: 0},
		{
			name:         "missing lockfile",
			args:         []string{"show", filepath.Join(tmpDir, "nope.lock")},
			expectedExit: 1,
			wantStderr:   "failed to read lockfile",
		},
		{name: "unknown command", args: []string{"frobnicate"}, expectedExit: 1, wantStderr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			exitCode := run(tt.args, &stdout, &stderr)
			assert.Equal(t, tt.expectedExit, exitCode, "stderr: %s", stderr.String())
			if tt.wantStderr != "" {
				assert.Contains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}
