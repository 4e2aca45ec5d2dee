// Package doc extracts documentation from Octave source files.
//
// Help text is attached by the parser: the first comment block of a file
// (copyright notices skipped) documents its primary function, and every
// other function is documented by the comment block right before its
// function keyword or right after its header. Texinfo help, marked with
// -*- texinfo -*-, is reduced to plain text.
package doc

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rubiojr/octdeps/ast"
	"github.com/rubiojr/octdeps/parser"
)

// FileDoc holds all extracted documentation for a single Octave file.
type FileDoc struct {
	Path   string
	Doc    string // file-level doc (first comment block before any code)
	Script bool
	Funcs  []FuncDoc
}

// FuncDoc describes a function, documented or not.
type FuncDoc struct {
	Name    string // e.g. "load_table" or "get.Name"
	Kind    ast.FunctionKind
	Parent  string   // enclosing function of a nested function
	Params  []string // parameter names, ~ for ignored ones
	Outputs []string
	Doc     string
	Line    int // 1-based line number of the function keyword
}

// ExtractFile parses an Octave file and extracts all documentation.
func ExtractFile(path string) (*FileDoc, error) {
	f, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return FromAST(f), nil
}

// Extract parses Octave source and returns structured documentation.
func Extract(src, path string) (*FileDoc, error) {
	f, err := parser.ParseSource(src, path)
	if err != nil {
		return nil, err
	}
	return FromAST(f), nil
}

// ExtractDir extracts every .m file in a directory (non-recursive) in name
// order. Files that fail to parse are skipped. The entry file's doc becomes
// the top-level doc.
func ExtractDir(dir, entryFile string) (*FileDoc, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	result := &FileDoc{Path: dir}
	if entryFile != "" {
		fd, err := ExtractFile(entryFile)
		if err == nil {
			result.Doc = fd.Doc
			result.Funcs = append(result.Funcs, fd.Funcs...)
		}
	}
	entryBase := filepath.Base(entryFile)

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".m" {
			continue
		}
		if entryFile != "" && e.Name() == entryBase {
			continue // already processed
		}
		fd, err := ExtractFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		result.Funcs = append(result.Funcs, fd.Funcs...)
	}
	return result, nil
}

// FromAST collects the documentation of a parsed file. Functions are listed
// in source order, nested functions after their parent.
func FromAST(f *ast.File) *FileDoc {
	fd := &FileDoc{Path: f.Path, Doc: Plain(f.Doc), Script: f.IsScript()}

	var add func(fn *ast.Function)
	add = func(fn *ast.Function) {
		d := FuncDoc{
			Name: fn.Name,
			Kind: fn.Kind,
			Doc:  Plain(fn.Help),
			Line: fn.Pos.Line,
		}
		if fn.Parent != nil {
			d.Parent = fn.Parent.Name
		}
		if fn.Params != nil {
			for _, p := range fn.Params.Params {
				if p.Ident == nil {
					d.Params = append(d.Params, "~")
					continue
				}
				d.Params = append(d.Params, p.Ident.Name)
			}
		}
		if fn.Returns != nil {
			for _, o := range fn.Returns.Outputs {
				d.Outputs = append(d.Outputs, o.Name)
			}
		}
		fd.Funcs = append(fd.Funcs, d)
		for _, n := range fn.Nested {
			add(n)
		}
	}

	for _, fn := range f.Functions {
		add(fn)
	}
	if f.Script != nil {
		for _, st := range f.Script.Body.Statements {
			if def, ok := st.Command.(*ast.FunctionDef); ok {
				add(def.Function)
			}
		}
	}
	return fd
}

// Lookup returns the documentation of the named function in fd.
func (fd *FileDoc) Lookup(name string) (FuncDoc, bool) {
	for _, f := range fd.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return FuncDoc{}, false
}

const texinfoMarker = "-*- texinfo -*-"

// Plain strips Texinfo markup from help text. Text without the texinfo
// marker is returned unchanged apart from surrounding blank lines.
func Plain(help string) string {
	if !strings.Contains(help, texinfoMarker) {
		return strings.Trim(help, "\n")
	}

	var out []string
	for _, line := range strings.Split(help, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == texinfoMarker:
			continue
		case strings.HasPrefix(trimmed, "@end "), trimmed == "@group", trimmed == "@example":
			continue
		case strings.HasPrefix(trimmed, "@deftypefn"):
			line = deftypefn(trimmed)
		}
		out = append(out, inline(line))
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}

// deftypefn drops the category of a definition line and puts the return
// part in front: "@deftypefn {} {@var{r} =} name (@var{x})" becomes
// "@var{r} = name (@var{x})".
func deftypefn(line string) string {
	_, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "{") {
		if end := matchBrace(rest, 0); end > 0 {
			rest = strings.TrimSpace(rest[end+1:])
		}
	}
	if strings.HasPrefix(rest, "{") {
		if end := matchBrace(rest, 0); end > 0 {
			ret := strings.TrimSpace(rest[1:end])
			rest = strings.TrimSpace(rest[end+1:])
			if ret != "" {
				rest = ret + " " + rest
			}
		}
	}
	return rest
}

// matchBrace returns the index of the brace closing the one at open, or -1.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '@':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// inline rewrites @cmd{arg} markup: @var becomes the argument in upper
// case, @seealso a "See also" line, everything else its bare argument.
func inline(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '@' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		next := s[i+1]
		if next == '@' || next == '{' || next == '}' {
			b.WriteByte(next)
			i++
			continue
		}
		j := i + 1
		for j < len(s) && (s[j] >= 'a' && s[j] <= 'z' || s[j] >= 'A' && s[j] <= 'Z') {
			j++
		}
		cmd := s[i+1 : j]
		if j >= len(s) || s[j] != '{' {
			// A bare command such as @noindent carries no text.
			i = j - 1
			if j < len(s) && s[j] == ' ' && cmd != "" {
				i = j
			}
			continue
		}
		end := matchBrace(s, j)
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		arg := inline(s[j+1 : end])
		switch cmd {
		case "var":
			arg = strings.ToUpper(arg)
		case "seealso":
			arg = "See also: " + arg + "."
		case "dots":
			arg = "..."
		}
		b.WriteString(arg)
		i = end
	}
	return b.String()
}
