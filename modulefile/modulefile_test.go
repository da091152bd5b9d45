package modulefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

const sampleModule = `module(
    name = "my_project",
    version = "1.2.0",
    repo_name = "my_repo",
    compatibility_level = 1,
)

bazel_dep(name = "rules_go", version = "0.50.1")
bazel_dep(name = "gazelle", version = "0.39.1", repo_name = "bazel_gazelle")
bazel_dep(name = "rules_testing", version = "0.6.0", dev_dependency = True)

register_toolchains("//toolchains:all")
register_execution_platforms("//platforms:linux", dev_dependency = True)

go_sdk = use_extension("@rules_go//go:extensions.bzl", "go_sdk")
go_sdk.download(version = "1.23.1", goos = "linux", sdks = {"b": 1, "a": [True, None]})
use_repo(go_sdk, "go_toolchains", sdk = "go_default_sdk")

dev = use_extension("//:ext.bzl", "dev_ext", dev_dependency = True)
dev.tag()
`

func TestParse(t *testing.T) {
	f, err := Parse("MODULE.bazel", []byte(sampleModule))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if f.Name != "my_project" {
		t.Errorf("Name = %q, want my_project", f.Name)
	}
	if f.Version != label.MustParseVersion("1.2.0") {
		t.Errorf("Version = %q, want 1.2.0", f.Version)
	}
	if f.RepoName != "my_repo" {
		t.Errorf("RepoName = %q, want my_repo", f.RepoName)
	}
	if f.CompatibilityLevel != 1 {
		t.Errorf("CompatibilityLevel = %d, want 1", f.CompatibilityLevel)
	}

	if len(f.Deps) != 3 {
		t.Fatalf("len(Deps) = %d, want 3", len(f.Deps))
	}
	if got := f.Deps[1].LocalName(); got != "bazel_gazelle" {
		t.Errorf("Deps[1].LocalName() = %q, want bazel_gazelle", got)
	}
	if got := f.Deps[0].LocalName(); got != "rules_go" {
		t.Errorf("Deps[0].LocalName() = %q, want rules_go", got)
	}
	if !f.Deps[2].DevDependency {
		t.Error("rules_testing should be a dev dependency")
	}

	if len(f.Toolchains) != 1 || f.Toolchains[0].Pattern != "//toolchains:all" {
		t.Errorf("Toolchains = %+v", f.Toolchains)
	}
	if len(f.ExecutionPlatforms) != 1 || !f.ExecutionPlatforms[0].DevDependency {
		t.Errorf("ExecutionPlatforms = %+v", f.ExecutionPlatforms)
	}

	if len(f.Extensions) != 2 {
		t.Fatalf("len(Extensions) = %d, want 2", len(f.Extensions))
	}
	ext := f.Extensions[0]
	if ext.BzlFile != "@rules_go//go:extensions.bzl" || ext.Name != "go_sdk" {
		t.Errorf("extension = %s %s", ext.BzlFile, ext.Name)
	}
	if ext.Pos.Line != 15 || ext.Pos.Column < 1 {
		t.Errorf("extension Pos = %v, want line 15", ext.Pos)
	}
	wantImports := []Import{{"go_toolchains", "go_toolchains"}, {"sdk", "go_default_sdk"}}
	if len(ext.Imports) != 2 || ext.Imports[0] != wantImports[0] || ext.Imports[1] != wantImports[1] {
		t.Errorf("Imports = %v, want %v", ext.Imports, wantImports)
	}
	if len(ext.Tags) != 1 {
		t.Fatalf("len(Tags) = %d, want 1", len(ext.Tags))
	}
	tag := ext.Tags[0]
	if tag.Name != "download" || len(tag.Attrs) != 3 {
		t.Fatalf("tag = %+v", tag)
	}
	if tag.Attrs[2].Name != "sdks" || string(tag.Attrs[2].Value) != `{"b":1,"a":[true,null]}` {
		t.Errorf("sdks attr = %s %s", tag.Attrs[2].Name, tag.Attrs[2].Value)
	}

	dev := f.Extensions[1]
	if !dev.DevDependency || len(dev.Tags) != 1 || !dev.Tags[0].DevDependency {
		t.Errorf("dev extension = %+v", dev)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `module(name = `, "syntax error"},
		{"bad dep version", `bazel_dep(name = "foo", version = "not-a-version")`, "bazel_dep(foo): invalid version"},
		{"bad module version", `module(name = "foo", version = "1..0")`, "module: invalid version"},
		{"missing dep name", `bazel_dep(version = "1.0")`, "missing name"},
		{"unknown proxy", `use_repo(nope, "a")`, "not a use_extension proxy"},
		{"tag on unknown proxy", `nope.tag(a = 1)`, "not a use_extension proxy"},
		{"positional tag attr", "x = use_extension(\"//:e.bzl\", \"e\")\nx.tag(\"a\")", "keyword arguments"},
		{"unsupported attr value", "x = use_extension(\"//:e.bzl\", \"e\")\nx.tag(a = select({}))", "attribute a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("MODULE.bazel", []byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			var modErr *Error
			if !errors.As(err, &modErr) {
				t.Fatalf("error = %T, want *Error", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestParse_VersionErrorNamesPosition(t *testing.T) {
	_, err := Parse("MODULE.bazel", []byte("\nbazel_dep(name = \"foo\", version = \"bad version\")\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "MODULE.bazel:2:1: ") {
		t.Errorf("error %q should start with the position", err)
	}
	var versionErr *label.ParseError
	if !errors.As(err, &versionErr) {
		t.Errorf("error should wrap *label.ParseError")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MODULE.bazel")
	if err := os.WriteFile(path, []byte(`module(name = "x", version = "0.1")`), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if f.Name != "x" {
		t.Errorf("Name = %q, want x", f.Name)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ReadFile of a missing file should fail")
	}
}
