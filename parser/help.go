package parser

import (
	"strings"

	"github.com/rubiojr/octdeps/ast"
	"github.com/rubiojr/octdeps/scanner"
)

// commentBlock is a run of whole-line comments on consecutive lines, or a
// single %{ ... %} block.
type commentBlock struct {
	first, last int
	text        string
}

func groupComments(cs []scanner.Comment) []commentBlock {
	var blocks []commentBlock
	var lines []string
	cur := commentBlock{}
	flush := func() {
		if len(lines) > 0 {
			cur.text = strings.Join(lines, "\n")
			blocks = append(blocks, cur)
		}
		lines = nil
	}
	for _, c := range cs {
		if !c.OwnLine {
			continue
		}
		if c.Block {
			flush()
			n := strings.Count(c.Text, "\n") + 1
			blocks = append(blocks, commentBlock{first: c.Pos.Line, last: c.Pos.Line + n + 1, text: c.Text})
			continue
		}
		if len(lines) == 0 || c.Pos.Line != cur.last+1 {
			flush()
			cur = commentBlock{first: c.Pos.Line}
		}
		cur.last = c.Pos.Line
		lines = append(lines, c.Text)
	}
	flush()
	return blocks
}

func isCopyright(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "Copyright")
}

// attachHelp fills in the file doc and the help text of every function.
// The primary function takes the leading comment block of the file,
// skipping copyright notices. Other functions take the block right before
// the function keyword. Failing that, help is the block right after the
// function header.
func (p *parser) attachHelp(f *ast.File) {
	blocks := groupComments(p.s.Comments())
	if len(blocks) == 0 {
		return
	}
	for _, b := range blocks {
		if p.code != 0 && b.first >= p.code {
			break
		}
		if !isCopyright(b.text) {
			f.Doc = b.text
			break
		}
	}

	var visit func(fn *ast.Function)
	visit = func(fn *ast.Function) {
		if fn.Kind == ast.PrimaryFunction && f.Doc != "" {
			fn.Help = f.Doc
		} else {
			fn.Help = p.helpFor(fn, blocks)
		}
		for _, n := range fn.Nested {
			visit(n)
		}
	}
	for _, fn := range f.Functions {
		visit(fn)
	}
	if f.Script != nil {
		for _, st := range f.Script.Body.Statements {
			if def, ok := st.Command.(*ast.FunctionDef); ok {
				visit(def.Function)
			}
		}
	}
}

func (p *parser) helpFor(fn *ast.Function, blocks []commentBlock) string {
	for _, b := range blocks {
		if b.last == fn.Pos.Line-1 && !isCopyright(b.text) {
			return b.text
		}
	}
	header := p.headers[fn]
	for _, b := range blocks {
		if b.first == header+1 && !isCopyright(b.text) {
			return b.text
		}
	}
	return ""
}
