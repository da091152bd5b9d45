// Package modulefile reads the parts of a MODULE.bazel file that are
// recorded in a lockfile: the module declaration, bazel_dep calls, toolchain
// and platform registrations, and module extension usages.
package modulefile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/internal/buildutil"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

// File is the lockfile-relevant content of a MODULE.bazel file.
type File struct {
	Name               string
	Version            label.Version
	RepoName           string
	CompatibilityLevel int

	Deps               []Dep
	ExecutionPlatforms []Registration
	Toolchains         []Registration
	Extensions         []*ExtensionUsage
}

// Dep is a bazel_dep call.
type Dep struct {
	Name          string
	Version       label.Version
	RepoName      string
	DevDependency bool
}

// LocalName returns the repository name the dependency is visible under.
func (d Dep) LocalName() string {
	if d.RepoName != "" {
		return d.RepoName
	}
	return d.Name
}

// Registration is one target pattern passed to register_toolchains or
// register_execution_platforms.
type Registration struct {
	Pattern       string
	DevDependency bool
}

// ExtensionUsage is a use_extension proxy together with its use_repo
// imports and tag calls.
type ExtensionUsage struct {
	BzlFile       string
	Name          string
	Pos           Position
	DevDependency bool
	Isolate       bool

	Imports []Import
	Tags    []Tag
}

// Import maps a local repository name to the name exported by an extension.
type Import struct {
	Local    string
	Exported string
}

// Tag is a tag call on an extension proxy, e.g. go_sdk.download(...).
type Tag struct {
	Name          string
	Attrs         []Attr
	DevDependency bool
	Pos           Position
}

// Attr is a tag attribute with its value converted to JSON.
type Attr struct {
	Name  string
	Value json.RawMessage
}

// Position is a location in a MODULE.bazel file.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Error reports an invalid statement in a MODULE.bazel file.
type Error struct {
	Pos     Position
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Pos.Line > 0 {
		return e.Pos.String() + ": " + msg
	}
	return e.Pos.File + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReadFile reads and parses the MODULE.bazel file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module file: %w", err)
	}
	return Parse(path, data)
}

// Parse parses MODULE.bazel content. filename is used in positions.
func Parse(filename string, content []byte) (*File, error) {
	raw, err := build.ParseModule(filename, content)
	if err != nil {
		return nil, &Error{Pos: Position{File: filename}, Message: "syntax error", Err: err}
	}
	p := &parser{filename: filename, file: &File{}, proxies: make(map[string]*ExtensionUsage)}
	for _, stmt := range raw.Stmt {
		if err := p.statement(stmt); err != nil {
			return nil, err
		}
	}
	return p.file, nil
}

type parser struct {
	filename string
	file     *File
	proxies  map[string]*ExtensionUsage // keyed by proxy variable name
}

func (p *parser) position(expr build.Expr) Position {
	line, col := buildutil.Position(expr)
	return Position{File: p.filename, Line: line, Column: col}
}

func (p *parser) errorf(expr build.Expr, format string, args ...any) *Error {
	return &Error{Pos: p.position(expr), Message: fmt.Sprintf(format, args...)}
}

func (p *parser) statement(stmt build.Expr) error {
	// go_sdk = use_extension(...)
	if assign, ok := stmt.(*build.AssignExpr); ok {
		lhs, ok := assign.LHS.(*build.Ident)
		call, isCall := assign.RHS.(*build.CallExpr)
		if ok && isCall && buildutil.FuncName(call) == "use_extension" {
			return p.useExtension(lhs.Name, call)
		}
		return nil
	}

	call, ok := stmt.(*build.CallExpr)
	if !ok {
		return nil
	}

	// go_sdk.download(...)
	if dot, ok := call.X.(*build.DotExpr); ok {
		return p.tag(dot, call)
	}

	switch buildutil.FuncName(call) {
	case "module":
		return p.module(call)
	case "bazel_dep":
		return p.bazelDep(call)
	case "register_toolchains":
		p.file.Toolchains = append(p.file.Toolchains, registrations(call)...)
	case "register_execution_platforms":
		p.file.ExecutionPlatforms = append(p.file.ExecutionPlatforms, registrations(call)...)
	case "use_repo":
		return p.useRepo(call)
	}
	return nil
}

func (p *parser) module(call *build.CallExpr) error {
	p.file.Name = buildutil.String(call, "name")
	p.file.RepoName = buildutil.String(call, "repo_name")
	p.file.CompatibilityLevel = buildutil.Int(call, "compatibility_level")

	raw := buildutil.String(call, "version")
	v, err := label.ParseVersion(raw)
	if err != nil {
		e := p.errorf(call, "module: invalid version %q", raw)
		e.Err = err
		return e
	}
	p.file.Version = v
	return nil
}

func (p *parser) bazelDep(call *build.CallExpr) error {
	name := buildutil.String(call, "name")
	if name == "" {
		return p.errorf(call, "bazel_dep: missing name")
	}
	raw := buildutil.String(call, "version")
	v, err := label.ParseVersion(raw)
	if err != nil {
		e := p.errorf(call, "bazel_dep(%s): invalid version %q", name, raw)
		e.Err = err
		return e
	}
	p.file.Deps = append(p.file.Deps, Dep{
		Name:          name,
		Version:       v,
		RepoName:      buildutil.String(call, "repo_name"),
		DevDependency: buildutil.Bool(call, "dev_dependency"),
	})
	return nil
}

func registrations(call *build.CallExpr) []Registration {
	dev := buildutil.Bool(call, "dev_dependency")
	var regs []Registration
	for _, pattern := range buildutil.PositionalStrings(call, 0) {
		regs = append(regs, Registration{Pattern: pattern, DevDependency: dev})
	}
	return regs
}

func (p *parser) useExtension(proxy string, call *build.CallExpr) error {
	bzl := buildutil.String(call, "")
	var name string
	if len(call.List) > 1 {
		if str, ok := call.List[1].(*build.StringExpr); ok {
			name = str.Value
		}
	}
	if bzl == "" || name == "" {
		return p.errorf(call, "use_extension: expected extension file and name")
	}
	usage := &ExtensionUsage{
		BzlFile:       bzl,
		Name:          name,
		Pos:           p.position(call),
		DevDependency: buildutil.Bool(call, "dev_dependency"),
		Isolate:       buildutil.Bool(call, "isolate"),
	}
	p.proxies[proxy] = usage
	p.file.Extensions = append(p.file.Extensions, usage)
	return nil
}

func (p *parser) proxy(expr build.Expr, fn string) (*ExtensionUsage, error) {
	ident, ok := expr.(*build.Ident)
	if !ok {
		return nil, p.errorf(expr, "%s: expected an extension proxy", fn)
	}
	usage, ok := p.proxies[ident.Name]
	if !ok {
		return nil, p.errorf(expr, "%s: %s is not a use_extension proxy", fn, ident.Name)
	}
	return usage, nil
}

func (p *parser) useRepo(call *build.CallExpr) error {
	if len(call.List) == 0 {
		return p.errorf(call, "use_repo: missing extension proxy")
	}
	usage, err := p.proxy(call.List[0], "use_repo")
	if err != nil {
		return err
	}
	for _, arg := range call.List[1:] {
		switch a := arg.(type) {
		case *build.StringExpr:
			usage.Imports = append(usage.Imports, Import{Local: a.Value, Exported: a.Value})
		case *build.AssignExpr:
			lhs, ok := a.LHS.(*build.Ident)
			rhs, isStr := a.RHS.(*build.StringExpr)
			if !ok || !isStr {
				return p.errorf(arg, "use_repo: expected name = \"repo\"")
			}
			usage.Imports = append(usage.Imports, Import{Local: lhs.Name, Exported: rhs.Value})
		default:
			return p.errorf(arg, "use_repo: unsupported argument %s", build.FormatString(arg))
		}
	}
	return nil
}

func (p *parser) tag(dot *build.DotExpr, call *build.CallExpr) error {
	usage, err := p.proxy(dot.X, dot.Name)
	if err != nil {
		return err
	}
	tag := Tag{
		Name:          dot.Name,
		DevDependency: usage.DevDependency,
		Pos:           p.position(call),
	}
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			return p.errorf(arg, "%s: tag attributes must be keyword arguments", dot.Name)
		}
		lhs, ok := assign.LHS.(*build.Ident)
		if !ok {
			return p.errorf(arg, "%s: invalid attribute name", dot.Name)
		}
		value, err := buildutil.JSON(assign.RHS)
		if err != nil {
			e := p.errorf(assign.RHS, "%s: attribute %s", dot.Name, lhs.Name)
			e.Err = err
			return e
		}
		tag.Attrs = append(tag.Attrs, Attr{Name: lhs.Name, Value: value})
	}
	usage.Tags = append(usage.Tags, tag)
	return nil
}
