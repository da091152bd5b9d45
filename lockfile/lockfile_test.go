package lockfile

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/codec"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/registry"
)

const realLockfile = `{
  "lockFileVersion": 3,
  "moduleFileHash": "0e3e315145ac7ee7a4e0ac825e1c5e03c068ec1254dd42c3caaecb27c6d8ad52",
  "flags": {
    "cmdRegistries": [
      "https://bcr.bazel.build/"
    ],
    "cmdModuleOverrides": {},
    "allowedYankedVersions": [],
    "envVarAllowedYankedVersions": "",
    "ignoreDevDependency": false,
    "directDependenciesMode": "WARNING",
    "compatibilityMode": "ERROR"
  },
  "localOverrideHashes": {
    "bazel_tools": "922ea6752dc9105de5af957f7a99a6933c0a6a712d23df6aad16a9c399f7e787"
  },
  "moduleDepGraph": {
    "<root>": {
      "name": "my_project",
      "version": "1.0.0",
      "key": "<root>",
      "repoName": "my_project",
      "executionPlatformsToRegister": [],
      "toolchainsToRegister": [
        "//toolchains:all"
      ],
      "extensionUsages": [
        {
          "extensionBzlFile": "@rules_go//go:extensions.bzl",
          "extensionName": "go_sdk",
          "usingModule": "<root>",
          "location": {
            "file": "@@//:MODULE.bazel",
            "line": 5,
            "column": 23
          },
          "imports": {
            "go_toolchains": "go_toolchains"
          },
          "devImports": [],
          "tags": [
            {
              "tagName": "download",
              "attributeValues": {
                "version": "1.21.1",
                "sdks": {
                  "linux_amd64": [
                    "a",
                    "b"
                  ]
                }
              },
              "devDependency": false,
              "location": {
                "file": "@@//:MODULE.bazel",
                "line": 6,
                "column": 16
              }
            }
          ],
          "hasDevUseExtension": false,
          "hasNonDevUseExtension": true
        }
      ],
      "deps": {
        "rules_go": "rules_go@0.41.0",
        "bazel_tools": "bazel_tools@_"
      }
    },
    "rules_go@0.41.0": {
      "name": "rules_go",
      "version": "0.41.0",
      "key": "rules_go@0.41.0",
      "repoName": "io_bazel_rules_go",
      "executionPlatformsToRegister": [],
      "toolchainsToRegister": [
        "@go_toolchains//:all"
      ],
      "extensionUsages": [],
      "deps": {
        "platforms": "platforms@0.0.7"
      },
      "registry": "https://bcr.bazel.build"
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

func TestNew(t *testing.T) {
	lf := New()

	if lf.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", lf.Version, CurrentVersion)
	}
	if lf.Flags.DirectDependenciesMode != "WARNING" {
		t.Errorf("DirectDependenciesMode = %q, want WARNING", lf.Flags.DirectDependenciesMode)
	}
	if _, ok := lf.RootModule(); ok {
		t.Error("new lockfile should have no root module")
	}
}

func TestParse_RealLockfile(t *testing.T) {
	f := registry.NewFactory()
	lf, err := Parse([]byte(realLockfile), f)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if lf.Version != 3 {
		t.Errorf("Version = %d, want 3", lf.Version)
	}
	if lf.ModuleCount() != 3 {
		t.Errorf("ModuleCount() = %d, want 3", lf.ModuleCount())
	}

	root, ok := lf.RootModule()
	if !ok {
		t.Fatal("root module missing")
	}
	if root.Registry != nil {
		t.Errorf("root registry = %v, want nil", root.Registry)
	}
	if dep, _ := root.Deps.Get("bazel_tools"); dep != label.NewModuleKey("bazel_tools", label.EmptyVersion) {
		t.Errorf("deps[bazel_tools] = %v", dep)
	}
	if root.ExtensionUsages.Len() != 1 {
		t.Fatalf("extension usages = %d, want 1", root.ExtensionUsages.Len())
	}
	usage := root.ExtensionUsages.At(0)
	if usage.Location.Line != 5 || usage.Location.Column != 23 {
		t.Errorf("usage location = %+v", usage.Location)
	}
	if exported, _ := usage.Imports.Get("go_toolchains"); exported != "go_toolchains" {
		t.Errorf("imports[go_toolchains] = %q", exported)
	}
	tag := usage.Tags.At(0)
	if got := tag.AttributeValues.Keys(); len(got) != 2 || got[0] != "version" || got[1] != "sdks" {
		t.Errorf("attribute order = %v", got)
	}

	rulesGo, ok := lf.Module(label.NewModuleKey("rules_go", label.MustParseVersion("0.41.0")))
	if !ok {
		t.Fatal("rules_go missing")
	}
	bcr, _ := f.RegistryWithURL("https://bcr.bazel.build")
	if rulesGo.Registry != bcr {
		t.Error("registry should be the factory's handle")
	}
	if rulesGo.RepoName != "io_bazel_rules_go" {
		t.Errorf("RepoName = %q", rulesGo.RepoName)
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	f := registry.NewFactory()
	lf, err := Parse([]byte(realLockfile), f)
	if err != nil {
		t.Fatal(err)
	}

	data, err := lf.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(data, []byte("}\n")) {
		t.Error("output should end with a newline")
	}
	if !strings.Contains(string(data), `"key": "<root>"`) {
		t.Error("<root> should not be HTML-escaped")
	}
	if strings.Contains(string(data), "usingModule") {
		t.Error("unknown fields should be dropped")
	}

	again, err := Parse(data, f)
	if err != nil {
		t.Fatalf("Parse(Marshal()) failed: %v", err)
	}
	data2, err := again.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, data2) {
		t.Errorf("Marshal is not stable:\n%s\nvs\n%s", data, data2)
	}
	if d := Compare(lf, again); !d.IsEmpty() {
		t.Errorf("round trip differs: %s", d.Summary())
	}
}

func TestMarshal_OmitsNilRegistry(t *testing.T) {
	lf := New()
	root := Module{Name: "root", Key: label.RootModuleKey}
	lf.ModuleDepGraph = codec.MapFromFunc(map[label.ModuleKey]Module{label.RootModuleKey: root}, label.ModuleKey.Compare)

	data, err := lf.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"registry"`) {
		t.Errorf("nil registry should be omitted:\n%s", data)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantParse bool
	}{
		{"not json", `{`, false},
		{"bad version", `{"moduleDepGraph": {"<root>": {"version": "not-a-version"}}}`, true},
		{"bad key", `{"moduleDepGraph": {"foo@not-a-version": {}}}`, true},
		{"duplicate module", `{"moduleDepGraph": {"a@1.0": {}, "a@1.0": {}}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), registry.NewFactory())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), "failed to parse lockfile: ") {
				t.Errorf("error %q lacks context", err)
			}
			var parseErr *codec.ParseError
			if got := errors.As(err, &parseErr); got != tt.wantParse {
				t.Errorf("errors.As(*codec.ParseError) = %v, want %v (%v)", got, tt.wantParse, err)
			}
		})
	}
}

func TestParse_BadRegistryURLIsFatal(t *testing.T) {
	input := `{"moduleDepGraph": {"a@1.0": {"registry": "bad uri"}}}`

	parse := func() (err error) {
		defer codec.Recover(&err)
		_, err = Parse([]byte(input), registry.NewFactory())
		return err
	}

	err := parse()
	var fatal *codec.FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("error = %v, want *codec.FatalError", err)
	}
}

func TestParse_NilFactory(t *testing.T) {
	input := `{"moduleDepGraph": {"a@1.0": {"registry": "https://bcr.bazel.build"}}}`

	_, err := Parse([]byte(input), nil)
	if !errors.Is(err, ErrNilFactory) {
		t.Fatalf("Parse(data, nil) error = %v, want ErrNilFactory", err)
	}

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.lock"), nil)
	if err == nil {
		t.Fatal("ReadFile(nil factory) returned nil error")
	}
}

func TestWriteRead(t *testing.T) {
	f := registry.NewFactory()
	lf, err := Parse([]byte(realLockfile), f)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := lf.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != lockfilePermissions {
		t.Errorf("permissions = %o, want %o", perm, lockfilePermissions)
	}

	got, err := ReadFile(path, f)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got.ModuleCount() != lf.ModuleCount() {
		t.Errorf("ModuleCount() = %d, want %d", got.ModuleCount(), lf.ModuleCount())
	}

	var buf bytes.Buffer
	n, err := lf.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, wrote %d", n, buf.Len())
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.lock"), registry.NewFactory())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "failed to read lockfile: ") {
		t.Errorf("error = %q", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist")
	}
}

func TestParse_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if _, err := Parse([]byte(realLockfile), registry.NewFactory(), WithLogger(logger)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "modules=3") {
		t.Errorf("debug log = %q, want modules=3", buf.String())
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	if Exists(path) {
		t.Error("Exists should be false before writing")
	}
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if !Exists(path) {
		t.Error("Exists should be true after writing")
	}
}

func TestDefaultPath(t *testing.T) {
	if got := DefaultPath(""); got != "MODULE.bazel.lock" {
		t.Errorf("DefaultPath(\"\") = %q", got)
	}
	if got := DefaultPath("/ws"); got != filepath.Join("/ws", "MODULE.bazel.lock") {
		t.Errorf("DefaultPath(/ws) = %q", got)
	}
}

func TestHashContent(t *testing.T) {
	// sha256 of the empty string
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := HashContent(nil); got != empty {
		t.Errorf("HashContent(nil) = %s", got)
	}
	if !VerifyHash([]byte("x"), HashContent([]byte("x"))) {
		t.Error("VerifyHash should accept its own hash")
	}
	if VerifyHash([]byte("x"), empty) {
		t.Error("VerifyHash should reject a different hash")
	}
}
