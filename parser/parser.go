// Package parser turns Octave source into the ast representation used by
// the dependency resolver.
//
// The parser is recursive descent over the token stream produced by the
// scanner package. It understands function files (a primary function
// followed by subfunctions, with or without end terminators, and nested
// functions) and script files (statements, possibly interleaved with
// function definitions).
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rubiojr/octdeps/ast"
	"github.com/rubiojr/octdeps/scanner"
	"modernc.org/token"
)

// Error is a syntax error at a source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Pos.Filename, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Msg)
}

// ParseFile reads and parses the Octave source file at path.
func ParseFile(path string) (*ast.File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseSource(string(src), path)
}

// ParseSource parses Octave source. The name is recorded as the defining
// file of every function and used in error positions.
func ParseSource(src, name string) (f *ast.File, err error) {
	p := &parser{
		s:       scanner.New(src, name),
		name:    name,
		headers: make(map[*ast.Function]int),
	}
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			f, err = nil, perr
		}
	}()
	p.next()
	return p.parseFile(), nil
}

type parser struct {
	s       *scanner.Scanner
	name    string
	tok     scanner.Token
	ahead   []scanner.Token
	ctx     []bool // true inside a [] or {} literal, false inside parentheses
	index   int    // depth of index argument lists, where end is magic
	headers map[*ast.Function]int
	code    int // line of the first code token, 0 until seen
}

// errorf aborts parsing. ParseSource recovers the *Error.
func (p *parser) errorf(pos token.Position, format string, args ...any) {
	panic(&Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) next() {
	if len(p.ahead) > 0 {
		p.tok = p.ahead[0]
		p.ahead = p.ahead[1:]
	} else {
		p.tok = p.s.Next()
	}
	if p.tok.Type == scanner.Illegal {
		p.errorf(p.tok.Pos, "%s", p.tok.Lit)
	}
}

func (p *parser) peek() scanner.Token {
	if len(p.ahead) == 0 {
		p.ahead = append(p.ahead, p.s.Next())
	}
	return p.ahead[0]
}

func (p *parser) expectOp(op string) scanner.Token {
	tok := p.tok
	if !tok.IsOp(op) {
		p.errorf(tok.Pos, "expected %q, found %s", op, tok)
	}
	p.next()
	return tok
}

func (p *parser) expectIdent() scanner.Token {
	tok := p.tok
	if tok.Type != scanner.Ident {
		p.errorf(tok.Pos, "expected identifier, found %s", tok)
	}
	p.next()
	return tok
}

func (p *parser) pushCtx(matrix bool) { p.ctx = append(p.ctx, matrix) }
func (p *parser) popCtx()             { p.ctx = p.ctx[:len(p.ctx)-1] }

// inMatrix reports whether whitespace currently separates elements.
func (p *parser) inMatrix() bool {
	return len(p.ctx) > 0 && p.ctx[len(p.ctx)-1]
}

func (p *parser) markCode() {
	if p.code == 0 {
		p.code = p.tok.Pos.Line
	}
}

func base(pos token.Position) ast.Base { return ast.Base{Pos: pos} }

func (p *parser) isSeparator() bool {
	return p.tok.Type == scanner.Newline || p.tok.IsOp(";") || p.tok.IsOp(",")
}

func (p *parser) skipSeparators() {
	for p.isSeparator() {
		p.next()
	}
}

func (p *parser) parseFile() *ast.File {
	f := &ast.File{Base: base(p.tok.Pos), Path: p.name}
	p.skipSeparators()
	if p.tok.IsKeyword("function") {
		p.parseFunctionFile(f)
	} else {
		f.Script = p.parseScript()
	}
	p.attachHelp(f)
	return f
}

func (p *parser) parseFunctionFile(f *ast.File) {
	for p.tok.Type != scanner.EOF {
		if !p.tok.IsKeyword("function") {
			p.errorf(p.tok.Pos, "unexpected %s outside function body", p.tok)
		}
		kind := ast.Subfunction
		if len(f.Functions) == 0 {
			kind = ast.PrimaryFunction
		}
		fn, extra := p.parseFunction(kind, nil)
		f.Functions = append(f.Functions, fn)
		f.Functions = append(f.Functions, extra...)
		p.skipSeparators()
	}
}

func (p *parser) parseScript() *ast.Script {
	name := strings.TrimSuffix(filepath.Base(p.name), filepath.Ext(p.name))
	sc := &ast.Script{Base: base(p.tok.Pos), Name: name, File: p.name}
	body := &ast.StatementList{Base: base(p.tok.Pos)}
	for {
		body.Statements = append(body.Statements, p.parseStatements().Statements...)
		if !p.tok.IsKeyword("function") {
			break
		}
		pos := p.tok.Pos
		fn, extra := p.parseFunction(ast.ScriptFunction, nil)
		for _, d := range append([]*ast.Function{fn}, extra...) {
			body.Statements = append(body.Statements, &ast.Statement{
				Base:    base(pos),
				Command: &ast.FunctionDef{Base: base(d.Pos), Function: d},
			})
		}
	}
	if p.tok.Type != scanner.EOF {
		p.errorf(p.tok.Pos, "unexpected %s", p.tok)
	}
	sc.Body = body
	return sc
}

// parseFunction parses a function definition starting at the function
// keyword. A function terminated by end or endfunction owns the functions
// defined inside it as nested functions. An unterminated function runs to
// the end of input; the functions found inside it are returned as extra
// siblings instead, which is how files without end terminators define
// subfunctions.
func (p *parser) parseFunction(kind ast.FunctionKind, parent *ast.Function) (*ast.Function, []*ast.Function) {
	p.markCode()
	fn := &ast.Function{Base: base(p.tok.Pos), Kind: kind, File: p.name, Parent: parent}
	p.next()
	p.parseHeader(fn)

	fn.Body = &ast.StatementList{Base: base(p.tok.Pos)}
	var inner []*ast.Function
	for {
		fn.Body.Statements = append(fn.Body.Statements, p.parseStatements().Statements...)
		if !p.tok.IsKeyword("function") {
			break
		}
		child, extra := p.parseFunction(ast.NestedFunction, fn)
		inner = append(inner, child)
		inner = append(inner, extra...)
	}

	switch {
	case p.tok.IsKeyword("end") || p.tok.IsKeyword("endfunction"):
		fn.EndLine = p.tok.Pos.Line
		p.next()
		fn.Nested = inner
		return fn, nil
	case p.tok.Type == scanner.EOF:
		siblings := kind
		if siblings == ast.PrimaryFunction || siblings == ast.NestedFunction {
			siblings = ast.Subfunction
		}
		for _, f := range inner {
			f.Kind = siblings
			f.Parent = nil
		}
		return fn, inner
	}
	p.errorf(p.tok.Pos, "unexpected %s in function %s", p.tok, fn.Name)
	return nil, nil
}

// parseHeader parses the output list, name and parameter list that follow
// the function keyword.
func (p *parser) parseHeader(fn *ast.Function) {
	if p.tok.IsOp("[") {
		rets := &ast.ReturnList{Base: base(p.tok.Pos)}
		p.next()
		for !p.tok.IsOp("]") {
			switch {
			case p.tok.Type == scanner.Ident:
				rets.Outputs = append(rets.Outputs, &ast.Identifier{Base: base(p.tok.Pos), Name: p.tok.Lit})
				p.next()
			case p.tok.IsOp(","):
				p.next()
			default:
				p.errorf(p.tok.Pos, "unexpected %s in output list", p.tok)
			}
		}
		p.next()
		p.expectOp("=")
		fn.Returns = rets
	}

	id := p.expectIdent()
	if fn.Returns == nil && p.tok.IsOp("=") {
		fn.Returns = &ast.ReturnList{
			Base:    base(id.Pos),
			Outputs: []*ast.Identifier{{Base: base(id.Pos), Name: id.Lit}},
		}
		p.next()
		id = p.expectIdent()
	}
	fn.Name = id.Lit
	// get.prop and set.prop accessors
	for p.tok.IsOp(".") && !p.tok.SpaceBefore && p.peek().Type == scanner.Ident {
		p.next()
		fn.Name += "." + p.tok.Lit
		p.next()
	}
	if rets := fn.Returns; rets != nil && len(rets.Outputs) > 0 {
		rets.Varargout = rets.Outputs[len(rets.Outputs)-1].Name == "varargout"
	}

	line := id.Pos.Line
	if p.tok.IsOp("(") {
		fn.Params = p.parseParams()
		line = fn.Params.Pos.Line
	}
	p.headers[fn] = line
}

// parseParams parses a parenthesized parameter list for a function or an
// anonymous function handle.
func (p *parser) parseParams() *ast.ParameterList {
	pl := &ast.ParameterList{Base: base(p.tok.Pos)}
	p.expectOp("(")
	for !p.tok.IsOp(")") {
		switch {
		case p.tok.Type == scanner.Ident:
			pl.Params = append(pl.Params, &ast.DeclElt{
				Base:  base(p.tok.Pos),
				Ident: &ast.Identifier{Base: base(p.tok.Pos), Name: p.tok.Lit},
			})
			p.next()
		case p.tok.IsOp("~") || p.tok.IsOp("!"):
			pl.Params = append(pl.Params, &ast.DeclElt{
				Base:  base(p.tok.Pos),
				Ident: &ast.Identifier{Base: base(p.tok.Pos), Name: "~"},
			})
			p.next()
		case p.tok.IsOp(","):
			p.next()
		default:
			p.errorf(p.tok.Pos, "unexpected %s in parameter list", p.tok)
		}
	}
	p.next()
	if n := len(pl.Params); n > 0 {
		pl.Varargin = pl.Params[n-1].Ident.Name == "varargin"
	}
	return pl
}
