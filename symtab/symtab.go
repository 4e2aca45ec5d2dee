// Package symtab resolves Octave function names against a load path, the
// way the interpreter would: variables shadow functions, then nested
// functions, subfunctions of the current file, private functions and
// finally the load path and builtins are searched.
//
// A Table parses files on demand and caches them; call Reset after files
// on disk change. A Table is not safe for concurrent use.
package symtab

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rubiojr/octdeps/ast"
	"github.com/rubiojr/octdeps/depends"
	"github.com/rubiojr/octdeps/parser"
)

// nativeExts are extensions of compiled functions, in lookup order. They
// take precedence over .m files in the same directory.
var nativeExts = []string{".oct", ".mex", ".mexa64", ".mexw64", ".mexmaci64", ".mexmaca64"}

// Option configures a Table.
type Option func(*Table)

// WithBuiltins replaces the builtin name table.
func WithBuiltins(names ...string) Option {
	return func(t *Table) {
		t.builtins = make(map[string]bool, len(names))
		for _, n := range names {
			t.builtins[n] = true
		}
	}
}

// WithParser replaces the function used to parse source files.
func WithParser(parse func(path string) (*ast.File, error)) Option {
	return func(t *Table) {
		if parse != nil {
			t.parse = parse
		}
	}
}

type loaded struct {
	file *ast.File
	err  error
}

// Table resolves names over a list of directories.
type Table struct {
	dirs     []string
	builtins map[string]bool
	parse    func(string) (*ast.File, error)

	files    map[string]loaded
	listings map[string]map[string]bool
	vars     map[ast.Code]map[string]bool
}

// New returns a Table searching dirs in order.
func New(dirs []string, opts ...Option) *Table {
	t := &Table{
		dirs:  append([]string(nil), dirs...),
		parse: parser.ParseFile,
	}
	WithBuiltins(DefaultBuiltins...)(t)
	for _, opt := range opts {
		opt(t)
	}
	t.Reset()
	return t
}

// Dirs returns the load path.
func (t *Table) Dirs() []string { return append([]string(nil), t.dirs...) }

// Reset drops every cached file and directory listing.
func (t *Table) Reset() {
	t.files = make(map[string]loaded)
	t.listings = make(map[string]map[string]bool)
	t.vars = make(map[ast.Code]map[string]bool)
}

// Load parses the file at path, caching the result. Files defining the
// same function twice are rejected.
func (t *Table) Load(path string) (*ast.File, error) {
	if l, ok := t.files[path]; ok {
		return l.file, l.err
	}
	f, err := t.parse(path)
	if err == nil {
		err = ast.CheckChain{ast.DuplicateFunctionCheck()}.Run(f)
	}
	if err != nil {
		f = nil
	}
	t.files[path] = loaded{file: f, err: err}
	return f, err
}

// Lookup implements depends.Resolver.
func (t *Table) Lookup(name string, scope ast.Code) (depends.Resolution, error) {
	if scope != nil {
		res, ok, err := t.lookupLocal(name, scope)
		if err != nil || ok {
			return res, err
		}
	}
	for _, dir := range t.dirs {
		res, ok, err := t.lookupDir(dir, name)
		if err != nil || ok {
			return res, err
		}
	}
	if t.builtins[name] {
		return depends.Resolution{Kind: depends.Builtin}, nil
	}
	return depends.Resolution{Kind: depends.NotFound}, nil
}

// lookupLocal searches the names visible only from scope: its variables,
// nested functions, subfunctions and private directory.
func (t *Table) lookupLocal(name string, scope ast.Code) (depends.Resolution, bool, error) {
	src := scope.SourceFile()
	if src == "" {
		return depends.Resolution{}, false, fmt.Errorf("malformed scope %q: no source file", scope.CodeName())
	}
	if t.variables(scope)[name] {
		return depends.Resolution{Kind: depends.NotFound}, true, nil
	}

	if fn, ok := scope.(*ast.Function); ok {
		for f := fn; f != nil; f = f.Parent {
			if n := f.NestedFunction(name); n != nil {
				return userDefined(n), true, nil
			}
			if f != fn && f.Name == name {
				return userDefined(f), true, nil
			}
		}
	}
	file, err := t.Load(src)
	if err != nil {
		return depends.Resolution{}, false, err
	}
	if sub := file.Function(name); sub != nil {
		return userDefined(sub), true, nil
	}
	if def := scriptFunction(file, name); def != nil {
		return userDefined(def), true, nil
	}

	dir := filepath.Dir(src)
	private := filepath.Join(dir, "private")
	if filepath.Base(dir) == "private" {
		private = dir
	}
	return t.lookupDir(private, name)
}

// lookupDir looks for a function file named after name in dir.
func (t *Table) lookupDir(dir, name string) (depends.Resolution, bool, error) {
	entries := t.listing(dir)
	for _, ext := range nativeExts {
		if entries[name+ext] {
			return depends.Resolution{Kind: depends.Builtin}, true, nil
		}
	}
	if !entries[name+".m"] {
		return depends.Resolution{}, false, nil
	}

	path := filepath.Join(dir, name+".m")
	f, err := t.Load(path)
	if err != nil {
		return depends.Resolution{}, false, err
	}
	if f.IsScript() {
		return depends.Resolution{Kind: depends.UserDefined, Path: path, Code: f.Script}, true, nil
	}
	return depends.Resolution{Kind: depends.UserDefined, Path: path, Code: f.Primary()}, true, nil
}

// scriptFunction finds a function defined inside a script file.
func scriptFunction(f *ast.File, name string) *ast.Function {
	if !f.IsScript() {
		return nil
	}
	for _, st := range f.Script.Body.Statements {
		if def, ok := st.Command.(*ast.FunctionDef); ok && def.Function.Name == name {
			return def.Function
		}
	}
	return nil
}

func userDefined(fn *ast.Function) depends.Resolution {
	return depends.Resolution{Kind: depends.UserDefined, Path: fn.File, Code: fn}
}

// listing returns the regular file names in dir. Unreadable directories
// list as empty.
func (t *Table) listing(dir string) map[string]bool {
	if l, ok := t.listings[dir]; ok {
		return l
	}
	l := make(map[string]bool)
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				l[e.Name()] = true
			}
		}
	}
	t.listings[dir] = l
	return l
}

// Functions returns the names of the function and script files found
// directly in the load path directories, in search order, without
// duplicates.
func (t *Table) Functions() []string {
	var out []string
	seen := make(map[string]bool)
	for _, dir := range t.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name, ok := strings.CutSuffix(e.Name(), ".m")
			if !ok || e.IsDir() || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
