package parser

import (
	"github.com/rubiojr/octdeps/ast"
	"github.com/rubiojr/octdeps/scanner"
)

// closers end a statement list. The construct that opened the list
// decides which of them it accepts.
var closers = map[string]bool{
	"end": true, "endfunction": true, "endif": true, "endwhile": true,
	"endfor": true, "endparfor": true, "endswitch": true,
	"end_try_catch": true, "end_unwind_protect": true,
	"else": true, "elseif": true, "case": true, "otherwise": true,
	"catch": true, "until": true, "unwind_protect_cleanup": true,
}

func (p *parser) atListEnd() bool {
	t := p.tok
	return t.Type == scanner.EOF ||
		t.Type == scanner.Keyword && (closers[t.Lit] || t.Lit == "function")
}

// parseStatements parses statements up to EOF, a closing keyword or a
// function keyword, which is left as the current token.
func (p *parser) parseStatements() *ast.StatementList {
	list := &ast.StatementList{Base: base(p.tok.Pos)}
	for {
		p.skipSeparators()
		if p.atListEnd() {
			return list
		}
		list.Statements = append(list.Statements, p.parseStatement())
	}
}

func (p *parser) parseStatement() *ast.Statement {
	p.markCode()
	st := &ast.Statement{Base: base(p.tok.Pos)}
	if p.tok.Type == scanner.Keyword {
		st.Command = p.parseCommand()
	} else {
		st.Expression = p.parseExprStatement()
	}
	st.PrintResult = !p.tok.IsOp(";")
	switch {
	case p.isSeparator():
		p.next()
	case p.atListEnd():
	default:
		p.errorf(p.tok.Pos, "unexpected %s", p.tok)
	}
	return st
}

// expectEnd consumes end or the construct-specific alternative.
func (p *parser) expectEnd(alt string) {
	if p.tok.IsKeyword("end") || p.tok.IsKeyword(alt) {
		p.next()
		return
	}
	p.errorf(p.tok.Pos, "expected %s, found %s", alt, p.tok)
}

func (p *parser) parseCommand() ast.Command {
	pos := p.tok.Pos
	switch p.tok.Lit {
	case "if":
		return p.parseIf()
	case "switch":
		return p.parseSwitch()
	case "while":
		p.next()
		cond := p.parseExpr()
		body := p.parseStatements()
		p.expectEnd("endwhile")
		return &ast.WhileCommand{Base: base(pos), Condition: cond, Body: body}
	case "do":
		p.next()
		body := p.parseStatements()
		if !p.tok.IsKeyword("until") {
			p.errorf(p.tok.Pos, "expected until, found %s", p.tok)
		}
		p.next()
		return &ast.DoUntilCommand{Base: base(pos), Body: body, Condition: p.parseExpr()}
	case "for", "parfor":
		return p.parseFor()
	case "try":
		return p.parseTry()
	case "unwind_protect":
		p.next()
		body := p.parseStatements()
		if !p.tok.IsKeyword("unwind_protect_cleanup") {
			p.errorf(p.tok.Pos, "expected unwind_protect_cleanup, found %s", p.tok)
		}
		p.next()
		cleanup := p.parseStatements()
		p.expectEnd("end_unwind_protect")
		return &ast.UnwindProtectCommand{Base: base(pos), Body: body, Cleanup: cleanup}
	case "global", "persistent":
		return p.parseDecl()
	case "break":
		p.next()
		return &ast.BreakCommand{Base: base(pos)}
	case "continue":
		p.next()
		return &ast.ContinueCommand{Base: base(pos)}
	case "return":
		p.next()
		return &ast.ReturnCommand{Base: base(pos)}
	}
	p.errorf(pos, "unexpected %s", p.tok)
	return nil
}

func (p *parser) parseIf() *ast.IfCommand {
	cmd := &ast.IfCommand{Base: base(p.tok.Pos)}
	list := &ast.IfCommandList{Base: base(p.tok.Pos)}
	cmd.Clauses = list
	for {
		pos := p.tok.Pos
		p.next() // if, elseif
		cond := p.parseExpr()
		body := p.parseStatements()
		list.Clauses = append(list.Clauses, &ast.IfClause{Base: base(pos), Condition: cond, Body: body})
		if !p.tok.IsKeyword("elseif") {
			break
		}
	}
	if p.tok.IsKeyword("else") {
		pos := p.tok.Pos
		p.next()
		list.Clauses = append(list.Clauses, &ast.IfClause{Base: base(pos), Body: p.parseStatements()})
	}
	p.expectEnd("endif")
	return cmd
}

func (p *parser) parseSwitch() *ast.SwitchCommand {
	cmd := &ast.SwitchCommand{Base: base(p.tok.Pos)}
	p.next()
	cmd.Value = p.parseExpr()
	cmd.Cases = &ast.SwitchCaseList{Base: base(p.tok.Pos)}
	p.skipSeparators()
	for {
		pos := p.tok.Pos
		switch {
		case p.tok.IsKeyword("case"):
			p.next()
			label := p.parseExpr()
			cmd.Cases.Cases = append(cmd.Cases.Cases, &ast.SwitchCase{Base: base(pos), Label: label, Body: p.parseStatements()})
		case p.tok.IsKeyword("otherwise"):
			p.next()
			cmd.Cases.Cases = append(cmd.Cases.Cases, &ast.SwitchCase{Base: base(pos), Body: p.parseStatements()})
		default:
			p.expectEnd("endswitch")
			return cmd
		}
	}
}

func (p *parser) parseFor() ast.Command {
	pos := p.tok.Pos
	parfor := p.tok.Lit == "parfor"
	p.next()

	paren := p.tok.IsOp("(")
	if paren {
		p.next()
		p.pushCtx(false)
		defer p.popCtx()
	}
	lhs := p.parseExpr()
	p.expectOp("=")
	control := p.parseExpr()
	var maxProc ast.Expr
	if parfor && paren && p.tok.IsOp(",") {
		p.next()
		maxProc = p.parseExpr()
	}
	if paren {
		p.expectOp(")")
	}
	body := p.parseStatements()
	if parfor {
		p.expectEnd("endparfor")
	} else {
		p.expectEnd("endfor")
	}

	if m, ok := lhs.(*ast.Matrix); ok {
		if len(m.Rows) != 1 {
			p.errorf(m.Pos, "invalid for loop variable list")
		}
		return &ast.ComplexForCommand{Base: base(pos), Lhs: m.Rows[0], Control: control, Body: body}
	}
	return &ast.SimpleForCommand{
		Base:    base(pos),
		Lhs:     lhs,
		Control: control,
		Body:    body,
		Parfor:  parfor,
		MaxProc: maxProc,
	}
}

func (p *parser) parseTry() *ast.TryCatchCommand {
	cmd := &ast.TryCatchCommand{Base: base(p.tok.Pos)}
	p.next()
	cmd.Body = p.parseStatements()
	if p.tok.IsKeyword("catch") {
		line := p.tok.Pos.Line
		p.next()
		if p.tok.Type == scanner.Ident && p.tok.Pos.Line == line {
			next := p.peek()
			if next.Type == scanner.Newline || next.Type == scanner.EOF || next.IsOp(";") {
				cmd.Ident = &ast.Identifier{Base: base(p.tok.Pos), Name: p.tok.Lit}
				p.next()
			}
		}
		cmd.Cleanup = p.parseStatements()
	}
	p.expectEnd("end_try_catch")
	return cmd
}

func (p *parser) parseDecl() *ast.DeclCommand {
	cmd := &ast.DeclCommand{Base: base(p.tok.Pos)}
	if p.tok.Lit == "persistent" {
		cmd.Kind = ast.Persistent
	}
	p.next()
	cmd.Inits = &ast.DeclInitList{Base: base(p.tok.Pos)}
	for p.tok.Type == scanner.Ident {
		elt := &ast.DeclElt{
			Base:  base(p.tok.Pos),
			Ident: &ast.Identifier{Base: base(p.tok.Pos), Name: p.tok.Lit},
		}
		p.next()
		if p.tok.IsOp("=") {
			p.next()
			elt.Init = p.parseExpr()
		}
		cmd.Inits.Elts = append(cmd.Inits.Elts, elt)
	}
	if len(cmd.Inits.Elts) == 0 {
		p.errorf(p.tok.Pos, "expected identifier after %s", cmd.Kind)
	}
	return cmd
}

var assignOps = map[string]bool{"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "^=": true}

func (p *parser) parseExprStatement() ast.Expr {
	lhs := p.parseExpr()
	if p.tok.Type != scanner.Op || !assignOps[p.tok.Lit] {
		return lhs
	}
	op := p.tok
	p.next()
	rhs := p.parseExpr()

	if m, ok := lhs.(*ast.Matrix); ok && op.Lit == "=" {
		if len(m.Rows) != 1 {
			p.errorf(m.Pos, "invalid assignment target")
		}
		return &ast.MultiAssignment{Base: m.Base, Lhs: m.Rows[0], Rhs: rhs}
	}
	switch lhs.(type) {
	case *ast.Identifier, *ast.IndexExpr:
	default:
		p.errorf(op.Pos, "invalid assignment target")
	}
	return &ast.SimpleAssignment{Base: base(op.Pos), Op: op.Lit, Lhs: lhs, Rhs: rhs}
}
