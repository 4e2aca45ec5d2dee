package parser

import (
	"github.com/rubiojr/octdeps/ast"
	"github.com/rubiojr/octdeps/scanner"
)

// Binary operator precedence, lowest first. Colon ranges sit between
// comparison and additive operators and are handled separately.
const (
	precOrOr = iota + 1
	precAndAnd
	precOr
	precAnd
	precCompare
	precColon
	precAdd
	precMul
)

var binaryPrec = map[string]int{
	"||": precOrOr,
	"&&": precAndAnd,
	"|":  precOr,
	"&":  precAnd,
	"==": precCompare, "!=": precCompare, "~=": precCompare,
	"<": precCompare, "<=": precCompare, ">": precCompare, ">=": precCompare,
	"+": precAdd, "-": precAdd,
	"*": precMul, "/": precMul, `\`: precMul,
	".*": precMul, "./": precMul, `.\`: precMul,
}

var prefixOps = map[string]bool{"+": true, "-": true, "!": true, "~": true, "++": true, "--": true}

func (p *parser) parseExpr() ast.Expr {
	return p.parseBinary(precOrOr)
}

// splitsElement reports whether the current token starts a new matrix
// element rather than continuing the expression, as in [a -b].
func (p *parser) splitsElement() bool {
	if !p.inMatrix() || !p.tok.SpaceBefore {
		return false
	}
	if !p.tok.IsOp("+") && !p.tok.IsOp("-") {
		return false
	}
	return !p.peek().SpaceBefore
}

func (p *parser) parseBinary(prec int) ast.Expr {
	if prec == precColon {
		return p.parseRange()
	}
	if prec > precMul {
		return p.parseUnary()
	}
	lhs := p.parseBinary(prec + 1)
	for {
		op := p.tok
		if op.Type != scanner.Op || binaryPrec[op.Lit] != prec || p.splitsElement() {
			return lhs
		}
		p.next()
		rhs := p.parseBinary(prec + 1)
		if op.Lit == "&&" || op.Lit == "||" {
			lhs = &ast.BoolExpr{Base: base(op.Pos), Op: op.Lit, Lhs: lhs, Rhs: rhs}
		} else {
			lhs = &ast.BinaryExpr{Base: base(op.Pos), Op: op.Lit, Lhs: lhs, Rhs: rhs}
		}
	}
}

// parseRange parses base:limit and base:increment:limit.
func (p *parser) parseRange() ast.Expr {
	start := p.parseBinary(precAdd)
	if !p.tok.IsOp(":") || p.inMatrix() && p.tok.SpaceBefore && !p.peek().SpaceBefore {
		return start
	}
	pos := p.tok.Pos
	p.next()
	second := p.parseBinary(precAdd)
	if !p.tok.IsOp(":") {
		return &ast.ColonExpr{Base: base(pos), Start: start, Limit: second}
	}
	p.next()
	limit := p.parseBinary(precAdd)
	return &ast.ColonExpr{Base: base(pos), Start: start, Increment: second, Limit: limit}
}

func (p *parser) parseUnary() ast.Expr {
	if p.tok.Type == scanner.Op && prefixOps[p.tok.Lit] {
		op := p.tok
		p.next()
		return &ast.PrefixExpr{Base: base(op.Pos), Op: op.Lit, Operand: p.parseUnary()}
	}
	return p.parsePower()
}

// parsePower parses left-associative ^ and .^, which bind tighter than
// unary minus: -2^2 is -(2^2). The exponent may carry its own sign.
func (p *parser) parsePower() ast.Expr {
	lhs := p.parsePostfix(p.parsePrimary())
	for p.tok.IsOp("^") || p.tok.IsOp(".^") {
		op := p.tok
		p.next()
		lhs = &ast.BinaryExpr{Base: base(op.Pos), Op: op.Lit, Lhs: lhs, Rhs: p.parsePowerOperand()}
	}
	return lhs
}

func (p *parser) parsePowerOperand() ast.Expr {
	if p.tok.Type == scanner.Op && prefixOps[p.tok.Lit] {
		op := p.tok
		p.next()
		return &ast.PrefixExpr{Base: base(op.Pos), Op: op.Lit, Operand: p.parsePowerOperand()}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.tok
	switch tok.Type {
	case scanner.Ident:
		p.next()
		id := &ast.Identifier{Base: base(tok.Pos), Name: tok.Lit}
		if p.tok.Type == scanner.CommandWord {
			return p.parseCommandSyntax(id)
		}
		return id
	case scanner.Number:
		p.next()
		return &ast.Constant{Base: base(tok.Pos), Kind: ast.Number, Value: tok.Lit}
	case scanner.String:
		p.next()
		return &ast.Constant{Base: base(tok.Pos), Kind: ast.SQString, Value: tok.Lit}
	case scanner.DQString:
		p.next()
		return &ast.Constant{Base: base(tok.Pos), Kind: ast.DQString, Value: tok.Lit}
	case scanner.Keyword:
		if tok.Lit == "end" && p.index > 0 {
			p.next()
			return &ast.Constant{Base: base(tok.Pos), Kind: ast.MagicEnd, Value: "end"}
		}
	case scanner.Op:
		switch tok.Lit {
		case "(":
			p.next()
			p.pushCtx(false)
			x := p.parseExpr()
			p.popCtx()
			p.expectOp(")")
			return x
		case "[":
			rows := p.parseRows("[", "]")
			return &ast.Matrix{Base: base(tok.Pos), Rows: rows}
		case "{":
			rows := p.parseRows("{", "}")
			return &ast.Cell{Base: base(tok.Pos), Rows: rows}
		case "@":
			return p.parseHandle()
		}
	}
	p.errorf(tok.Pos, "unexpected %s", tok)
	return nil
}

// parseCommandSyntax turns name word... into name('word', ...).
func (p *parser) parseCommandSyntax(id *ast.Identifier) ast.Expr {
	args := &ast.ArgumentList{Base: base(p.tok.Pos)}
	for p.tok.Type == scanner.CommandWord {
		args.Elems = append(args.Elems, &ast.Constant{Base: base(p.tok.Pos), Kind: ast.SQString, Value: p.tok.Lit})
		p.next()
	}
	return &ast.IndexExpr{
		Base:      id.Base,
		Expr:      id,
		TypeTags:  string(rune(ast.ParenIndex)),
		Args:      []*ast.ArgumentList{args},
		Fields:    []string{""},
		DynFields: []ast.Expr{nil},
		Command:   true,
	}
}

func (p *parser) parseHandle() ast.Expr {
	at := p.tok
	p.next()
	if p.tok.IsOp("(") {
		params := p.parseParams()
		saved := p.index
		p.index = 0
		body := p.parseExpr()
		p.index = saved
		return &ast.AnonFcnHandle{Base: base(at.Pos), Params: params, Body: body}
	}
	name := p.expectIdent().Lit
	for p.tok.IsOp(".") && !p.tok.SpaceBefore && p.peek().Type == scanner.Ident {
		p.next()
		name += "." + p.tok.Lit
		p.next()
	}
	return &ast.FcnHandle{Base: base(at.Pos), Name: name}
}

// parseRows parses the rows of a matrix or cell literal. Elements are
// separated by commas or whitespace, rows by semicolons or newlines.
func (p *parser) parseRows(open, close string) []*ast.ArgumentList {
	p.expectOp(open)
	p.pushCtx(true)
	defer p.popCtx()

	var rows []*ast.ArgumentList
	row := &ast.ArgumentList{Base: base(p.tok.Pos)}
	flush := func() {
		if len(row.Elems) > 0 {
			rows = append(rows, row)
		}
		row = &ast.ArgumentList{Base: base(p.tok.Pos)}
	}
	for {
		switch {
		case p.tok.IsOp(close):
			flush()
			p.next()
			return rows
		case p.tok.Type == scanner.EOF:
			p.errorf(p.tok.Pos, "unterminated %s", open)
		case p.tok.IsOp(";") || p.tok.Type == scanner.Newline:
			p.next()
			flush()
		case p.tok.IsOp(","):
			p.next()
		default:
			row.Elems = append(row.Elems, p.parseElement())
		}
	}
}

// parseElement parses one matrix element, which may be a ~ placeholder in
// the left-hand side of a multi-assignment.
func (p *parser) parseElement() ast.Expr {
	if p.tok.IsOp("~") || p.tok.IsOp("!") {
		next := p.peek()
		if next.IsOp(",") || next.IsOp("]") {
			pos := p.tok.Pos
			p.next()
			return &ast.Tilde{Base: base(pos)}
		}
	}
	return p.parseExpr()
}

func (p *parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		tok := p.tok
		switch {
		case (tok.IsOp("(") || tok.IsOp("{")) && !(p.inMatrix() && tok.SpaceBefore):
			close := ")"
			if tok.Lit == "{" {
				close = "}"
			}
			args := p.parseArgs(tok.Lit, close)
			x = p.link(x, tok.Lit[0], args, "", nil)
		case tok.IsOp(".") && !(p.inMatrix() && tok.SpaceBefore):
			next := p.peek()
			switch {
			case next.Type == scanner.Ident:
				p.next()
				x = p.link(x, ast.FieldIndex, nil, p.tok.Lit, nil)
				p.next()
			case next.IsOp("("):
				p.next()
				p.next()
				p.pushCtx(false)
				dyn := p.parseExpr()
				p.popCtx()
				p.expectOp(")")
				x = p.link(x, ast.FieldIndex, nil, "", dyn)
			default:
				p.errorf(next.Pos, "unexpected %s after '.'", next)
			}
		case tok.IsOp("'") || tok.IsOp(".'"):
			p.next()
			x = &ast.PostfixExpr{Base: base(tok.Pos), Op: tok.Lit, Operand: x}
		case (tok.IsOp("++") || tok.IsOp("--")) && p.endsStatement(p.peek()):
			p.next()
			x = &ast.PostfixExpr{Base: base(tok.Pos), Op: tok.Lit, Operand: x}
		default:
			return x
		}
	}
}

func (p *parser) endsStatement(t scanner.Token) bool {
	return t.Type == scanner.Newline || t.Type == scanner.EOF || t.IsOp(";") || t.IsOp(",")
}

// link appends one index operation to x, extending x when it already is an
// index chain.
func (p *parser) link(x ast.Expr, tag byte, args *ast.ArgumentList, field string, dyn ast.Expr) ast.Expr {
	ix, ok := x.(*ast.IndexExpr)
	if !ok || ix.Command {
		ix = &ast.IndexExpr{Base: base(x.Position()), Expr: x}
	}
	ix.TypeTags += string(rune(tag))
	ix.Args = append(ix.Args, args)
	ix.Fields = append(ix.Fields, field)
	ix.DynFields = append(ix.DynFields, dyn)
	return ix
}

// parseArgs parses an index argument list, where end and a lone colon are
// magic.
func (p *parser) parseArgs(open, close string) *ast.ArgumentList {
	args := &ast.ArgumentList{Base: base(p.tok.Pos)}
	p.expectOp(open)
	p.pushCtx(false)
	p.index++
	defer func() {
		p.index--
		p.popCtx()
	}()
	for {
		for p.tok.Type == scanner.Newline {
			p.next()
		}
		if p.tok.IsOp(close) {
			p.next()
			return args
		}
		if p.tok.IsOp(":") {
			if next := p.peek(); next.IsOp(",") || next.IsOp(close) {
				args.Elems = append(args.Elems, &ast.Constant{Base: base(p.tok.Pos), Kind: ast.MagicColon, Value: ":"})
				p.next()
				p.skipComma()
				continue
			}
		}
		args.Elems = append(args.Elems, p.parseExpr())
		for p.tok.Type == scanner.Newline {
			p.next()
		}
		if !p.tok.IsOp(close) && !p.tok.IsOp(",") {
			p.errorf(p.tok.Pos, "expected ',' or %q, found %s", close, p.tok)
		}
		p.skipComma()
	}
}

func (p *parser) skipComma() {
	if p.tok.IsOp(",") {
		p.next()
	}
}
