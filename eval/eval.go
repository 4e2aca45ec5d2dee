// Package eval runs Octave functions that compute constant strings, such as
// the marker functions declaring the extra files a program needs.
//
// Only a small, side-effect free subset of the language is supported:
// literals, matrix and cell construction, local variables, indexing with end,
// if/elseif/else, arithmetic and comparisons, and a handful of pure string
// and path builtins. Anything else is reported as an error rather than
// guessed at. User functions are never called, not even subfunctions of the
// evaluated file: a marker computing a path with a helper, as in
// fullfile(datadir(), 'x.dat'), fails with "'datadir' undefined".
package eval

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rubiojr/octdeps/ast"
	"modernc.org/token"
)

// Error is an evaluation failure at a source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Msg)
}

// Evaluator implements depends.Evaluator.
type Evaluator struct {
	funcs map[string]builtin
}

// New returns an Evaluator with the default builtins.
func New() *Evaluator {
	return &Evaluator{funcs: builtins()}
}

// EvalStrings calls fn with no arguments and returns every declared output
// in order as strings. A trailing varargout is expanded and cell outputs
// are flattened. An output that was never assigned is an error.
func (e *Evaluator) EvalStrings(fn *ast.Function) ([]string, error) {
	if fn == nil {
		return nil, errors.New("no function to evaluate")
	}
	f := &frame{ev: e, fn: fn, vars: make(map[string]value)}
	if _, err := f.exec(fn.Body); err != nil {
		return nil, err
	}
	return f.outputs()
}

// frame is the workspace of one call.
type frame struct {
	ev   *Evaluator
	fn   *ast.Function
	vars map[string]value
	ends []int // lengths of the values being indexed, innermost last
}

func (f *frame) errorf(n ast.Node, format string, args ...any) error {
	e := &Error{Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Pos = n.Position()
	}
	if e.Pos.Filename == "" {
		e.Pos.Filename = f.fn.File
	}
	return e
}

func (f *frame) outputs() ([]string, error) {
	rets := f.fn.Returns
	if rets == nil {
		return nil, nil
	}
	var out []string
	for i, o := range rets.Outputs {
		v, ok := f.vars[o.Name]
		if rets.Varargout && i == len(rets.Outputs)-1 {
			if !ok {
				break
			}
			c, isCell := v.(cellVal)
			if !isCell {
				return nil, f.errorf(o, "varargout must be a cell array")
			}
			for j, el := range c {
				var err error
				if out, err = flatten(fmt.Sprintf("varargout{%d}", j+1), el, out); err != nil {
					return nil, f.errorf(o, "%v", err)
				}
			}
			continue
		}
		if !ok {
			return nil, f.errorf(o, "output %s not assigned", o.Name)
		}
		var err error
		if out, err = flatten(o.Name, v, out); err != nil {
			return nil, f.errorf(o, "%v", err)
		}
	}
	return out, nil
}

// exec runs list and reports whether a return command ended it.
func (f *frame) exec(list *ast.StatementList) (bool, error) {
	if list == nil {
		return false, nil
	}
	for _, st := range list.Statements {
		if st.Command == nil {
			if err := f.statement(st.Expression); err != nil {
				return false, err
			}
			continue
		}
		switch c := st.Command.(type) {
		case *ast.NoOpCommand:
		case *ast.ReturnCommand:
			return true, nil
		case *ast.IfCommand:
			ret, err := f.execIf(c)
			if err != nil || ret {
				return ret, err
			}
		default:
			return false, f.errorf(c, "unsupported %s command", describe(c))
		}
	}
	return false, nil
}

func (f *frame) execIf(c *ast.IfCommand) (bool, error) {
	for _, cl := range c.Clauses.Clauses {
		if cl.Condition != nil {
			v, err := f.eval(cl.Condition)
			if err != nil {
				return false, err
			}
			ok, err := truth(v)
			if err != nil {
				return false, f.errorf(cl.Condition, "%v", err)
			}
			if !ok {
				continue
			}
		}
		return f.exec(cl.Body)
	}
	return false, nil
}

func (f *frame) statement(x ast.Expr) error {
	switch a := x.(type) {
	case *ast.SimpleAssignment:
		if a.Op != "=" {
			return f.errorf(a, "unsupported assignment operator %s", a.Op)
		}
		v, err := f.eval(a.Rhs)
		if err != nil {
			return err
		}
		return f.assign(a.Lhs, v)
	case *ast.MultiAssignment:
		vals, err := f.evalMulti(a.Rhs, len(a.Lhs.Elems))
		if err != nil {
			return err
		}
		for i, lhs := range a.Lhs.Elems {
			if i >= len(vals) {
				return f.errorf(a, "element number %d undefined in return list", i+1)
			}
			if _, ok := lhs.(*ast.Tilde); ok {
				continue
			}
			if err := f.assign(lhs, vals[i]); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := f.evalMulti(x, 0)
	return err
}

// assign stores v into x, x{i} or x(i).
func (f *frame) assign(lhs ast.Expr, v value) error {
	switch t := lhs.(type) {
	case *ast.Identifier:
		f.vars[t.Name] = v
		return nil
	case *ast.IndexExpr:
		id, ok := t.Expr.(*ast.Identifier)
		if !ok || len(t.TypeTags) != 1 || t.TypeTags[0] == ast.FieldIndex {
			return f.errorf(t, "unsupported assignment target")
		}
		cur, defined := f.vars[id.Name]
		if !defined {
			cur = cellVal(nil)
		}
		c, ok := cur.(cellVal)
		if !ok {
			return f.errorf(t, "indexed assignment to %s values is not supported", cur.class())
		}
		idx, err := f.indices(t, t.Args[0], len(c))
		if err != nil {
			return err
		}

		if t.TypeTags[0] == ast.BraceIndex {
			if len(idx) != 1 {
				return f.errorf(t, "some elements undefined in cs-list assignment")
			}
			f.vars[id.Name] = setCell(c, idx[0], v)
			return nil
		}
		rv, ok := v.(cellVal)
		if !ok {
			return f.errorf(t, "conversion to cell array from %s is not possible", v.class())
		}
		if len(rv) != 1 && len(rv) != len(idx) {
			return f.errorf(t, "=: nonconformant arguments (op1 is 1x%d, op2 is 1x%d)", len(idx), len(rv))
		}
		for k, i := range idx {
			el := rv[0]
			if len(rv) > 1 {
				el = rv[k]
			}
			c = setCell(c, i, el)
		}
		f.vars[id.Name] = c
		return nil
	}
	return f.errorf(lhs, "unsupported assignment target")
}

// eval evaluates x to exactly one value.
func (f *frame) eval(x ast.Expr) (value, error) {
	vals, err := f.evalMulti(x, 1)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, f.errorf(x, "expression produced no value")
	}
	return vals[0], nil
}

// evalMulti evaluates x. Calls return up to nargout values (at least one)
// and brace indexing returns a comma-separated list.
func (f *frame) evalMulti(x ast.Expr, nargout int) ([]value, error) {
	switch t := x.(type) {
	case *ast.Constant:
		v, err := f.constant(t)
		if err != nil {
			return nil, err
		}
		return []value{v}, nil
	case *ast.Identifier:
		if v, ok := f.vars[t.Name]; ok {
			return []value{v}, nil
		}
		return f.call(t, t.Name, nil, nargout)
	case *ast.IndexExpr:
		return f.index(t, nargout)
	case *ast.Matrix:
		return f.one(f.matrix(t))
	case *ast.Cell:
		return f.one(f.cell(t))
	case *ast.BinaryExpr:
		return f.one(f.binary(t))
	case *ast.BoolExpr:
		return f.one(f.boolean(t))
	case *ast.PrefixExpr:
		return f.one(f.prefix(t))
	case *ast.PostfixExpr:
		if t.Op == "'" || t.Op == ".'" {
			// Arrays are rows only; transposing keeps the elements.
			return f.evalMulti(t.Operand, 1)
		}
	case *ast.ColonExpr:
		return f.one(f.colon(t))
	}
	return nil, f.errorf(x, "unsupported %s", describe(x))
}

func (f *frame) one(v value, err error) ([]value, error) {
	if err != nil {
		return nil, err
	}
	return []value{v}, nil
}

// evalList evaluates expressions into one list, expanding cs-lists.
func (f *frame) evalList(elems []ast.Expr) ([]value, error) {
	var out []value
	for _, e := range elems {
		vals, err := f.evalMulti(e, 1)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

func (f *frame) constant(c *ast.Constant) (value, error) {
	switch c.Kind {
	case ast.Number:
		n, err := parseNumber(c.Value)
		if err != nil {
			return nil, f.errorf(c, "%v", err)
		}
		return numVal{n}, nil
	case ast.SQString, ast.DQString:
		return charVal(c.Value), nil
	case ast.MagicEnd:
		if len(f.ends) == 0 {
			return nil, f.errorf(c, "'end': nonconformant arguments")
		}
		return numVal{float64(f.ends[len(f.ends)-1])}, nil
	}
	return nil, f.errorf(c, "magic colon used outside an index")
}

func parseNumber(s string) (float64, error) {
	if strings.HasSuffix(s, "i") || strings.HasSuffix(s, "j") ||
		strings.HasSuffix(s, "I") || strings.HasSuffix(s, "J") {
		return 0, fmt.Errorf("complex number %s is not supported", s)
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		n, err := strconv.ParseUint(s[2:], 16, 64)
		return float64(n), err
	case strings.HasPrefix(lower, "0b"):
		n, err := strconv.ParseUint(s[2:], 2, 64)
		return float64(n), err
	}
	return strconv.ParseFloat(strings.NewReplacer("d", "e", "D", "e").Replace(s), 64)
}

// index evaluates a postfix chain: either a call of a builtin followed by
// further indexing, or indexing into a variable.
func (f *frame) index(t *ast.IndexExpr, nargout int) ([]value, error) {
	var vals []value
	start := 0
	id, isIdent := t.Expr.(*ast.Identifier)
	isVar := false
	if isIdent {
		_, isVar = f.vars[id.Name]
	}
	switch {
	case isIdent && !isVar:
		var args []value
		if len(t.TypeTags) > 0 && t.TypeTags[0] == ast.ParenIndex {
			var err error
			if args, err = f.evalList(t.Args[0].Elems); err != nil {
				return nil, err
			}
			start = 1
		}
		n := nargout
		if start < len(t.TypeTags) {
			n = 1
		}
		var err error
		if vals, err = f.call(t, id.Name, args, n); err != nil {
			return nil, err
		}
	default:
		v, err := f.eval(t.Expr)
		if err != nil {
			return nil, err
		}
		vals = []value{v}
	}

	for i := start; i < len(t.TypeTags); i++ {
		if len(vals) != 1 {
			return nil, f.errorf(t, "a cs-list cannot be further indexed")
		}
		var err error
		if vals, err = f.subscript(t, vals[0], i); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

// subscript applies link i of t to v.
func (f *frame) subscript(t *ast.IndexExpr, v value, i int) ([]value, error) {
	tag := t.TypeTags[i]
	if tag == ast.FieldIndex {
		return nil, f.errorf(t, "field access on %s values is not supported", v.class())
	}
	n := numel(v)
	idx, err := f.indices(t, t.Args[i], n)
	if err != nil {
		return nil, err
	}
	for _, k := range idx {
		if k >= n {
			return nil, f.errorf(t, "index (%d): out of bound %d", k+1, n)
		}
	}

	if tag == ast.BraceIndex {
		c, ok := v.(cellVal)
		if !ok {
			return nil, f.errorf(t, "'{' undefined for arguments of type '%s'", v.class())
		}
		out := make([]value, len(idx))
		for j, k := range idx {
			out[j] = c[k]
		}
		return out, nil
	}

	switch x := v.(type) {
	case charVal:
		b := make([]byte, len(idx))
		for j, k := range idx {
			b[j] = x[k]
		}
		return []value{charVal(b)}, nil
	case numVal:
		out := make(numVal, len(idx))
		for j, k := range idx {
			out[j] = x[k]
		}
		return []value{out}, nil
	case cellVal:
		out := make(cellVal, len(idx))
		for j, k := range idx {
			out[j] = x[k]
		}
		return []value{out}, nil
	}
	return nil, f.errorf(t, "cannot index %s values", v.class())
}

// indices evaluates a single linear subscript into zero-based positions
// over a value of length n. end inside the subscript is n.
func (f *frame) indices(at ast.Node, args *ast.ArgumentList, n int) ([]int, error) {
	if args == nil || len(args.Elems) != 1 {
		return nil, f.errorf(at, "only linear indexing with one subscript is supported")
	}
	e := args.Elems[0]
	if c, ok := e.(*ast.Constant); ok && c.Kind == ast.MagicColon {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	f.ends = append(f.ends, n)
	v, err := f.eval(e)
	f.ends = f.ends[:len(f.ends)-1]
	if err != nil {
		return nil, err
	}
	nums, ok := v.(numVal)
	if !ok {
		return nil, f.errorf(e, "subscript indices must be numeric, not %s", v.class())
	}
	out := make([]int, len(nums))
	for i, x := range nums {
		if x < 1 || x != math.Trunc(x) {
			return nil, f.errorf(e, "index (%g): subscripts must be either integers 1 to (2^63)-1 or logicals", x)
		}
		out[i] = int(x) - 1
	}
	return out, nil
}

// call invokes a builtin. Results are trimmed to nargout, keeping at least
// one.
func (f *frame) call(at ast.Node, name string, args []value, nargout int) ([]value, error) {
	fn, ok := f.ev.funcs[name]
	if !ok {
		return nil, f.errorf(at, "'%s' undefined", name)
	}
	out, err := fn(f, args, nargout)
	if err != nil {
		return nil, f.errorf(at, "%s: %v", name, err)
	}
	if n := max(nargout, 1); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (f *frame) matrix(m *ast.Matrix) (value, error) {
	rows := make([]value, 0, len(m.Rows))
	for _, r := range m.Rows {
		vals, err := f.evalList(r.Elems)
		if err != nil {
			return nil, err
		}
		row, err := hcat(vals)
		if err != nil {
			return nil, f.errorf(r, "%v", err)
		}
		rows = append(rows, row)
	}
	v, err := vcat(rows)
	if err != nil {
		return nil, f.errorf(m, "%v", err)
	}
	return v, nil
}

func (f *frame) cell(c *ast.Cell) (value, error) {
	var out cellVal
	for _, r := range c.Rows {
		vals, err := f.evalList(r.Elems)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

func (f *frame) binary(b *ast.BinaryExpr) (value, error) {
	lv, err := f.eval(b.Lhs)
	if err != nil {
		return nil, err
	}
	rv, err := f.eval(b.Rhs)
	if err != nil {
		return nil, err
	}
	l, lok := toNum(lv)
	r, rok := toNum(rv)
	if !lok || !rok {
		return nil, f.errorf(b, "binary operator '%s' not implemented for '%s' by '%s' operations", b.Op, lv.class(), rv.class())
	}

	var op func(x, y float64) float64
	switch b.Op {
	case "+":
		op = func(x, y float64) float64 { return x + y }
	case "-":
		op = func(x, y float64) float64 { return x - y }
	case "*", ".*":
		op = func(x, y float64) float64 { return x * y }
	case "/", "./":
		op = func(x, y float64) float64 { return x / y }
	case "==":
		op = cmp(func(x, y float64) bool { return x == y })
	case "!=", "~=":
		op = cmp(func(x, y float64) bool { return x != y })
	case "<":
		op = cmp(func(x, y float64) bool { return x < y })
	case "<=":
		op = cmp(func(x, y float64) bool { return x <= y })
	case ">":
		op = cmp(func(x, y float64) bool { return x > y })
	case ">=":
		op = cmp(func(x, y float64) bool { return x >= y })
	case "&":
		op = cmp(func(x, y float64) bool { return x != 0 && y != 0 })
	case "|":
		op = cmp(func(x, y float64) bool { return x != 0 || y != 0 })
	default:
		return nil, f.errorf(b, "unsupported operator %s", b.Op)
	}

	if len(l) != len(r) && len(l) != 1 && len(r) != 1 {
		return nil, f.errorf(b, "operator %s: nonconformant arguments (op1 is 1x%d, op2 is 1x%d)", b.Op, len(l), len(r))
	}
	n := max(len(l), len(r))
	if len(l) == 0 || len(r) == 0 {
		n = 0
	}
	out := make(numVal, n)
	for i := range out {
		x, y := l[0], r[0]
		if len(l) > 1 {
			x = l[i]
		}
		if len(r) > 1 {
			y = r[i]
		}
		out[i] = op(x, y)
	}
	return out, nil
}

func cmp(pred func(x, y float64) bool) func(x, y float64) float64 {
	return func(x, y float64) float64 {
		if pred(x, y) {
			return 1
		}
		return 0
	}
}

func (f *frame) boolean(b *ast.BoolExpr) (value, error) {
	lv, err := f.eval(b.Lhs)
	if err != nil {
		return nil, err
	}
	l, err := truth(lv)
	if err != nil {
		return nil, f.errorf(b.Lhs, "%v", err)
	}
	if (b.Op == "&&" && !l) || (b.Op == "||" && l) {
		return boolVal(l), nil
	}
	rv, err := f.eval(b.Rhs)
	if err != nil {
		return nil, err
	}
	r, err := truth(rv)
	if err != nil {
		return nil, f.errorf(b.Rhs, "%v", err)
	}
	return boolVal(r), nil
}

func (f *frame) prefix(p *ast.PrefixExpr) (value, error) {
	v, err := f.eval(p.Operand)
	if err != nil {
		return nil, err
	}
	n, ok := toNum(v)
	if !ok {
		return nil, f.errorf(p, "unary operator '%s' not implemented for '%s' operations", p.Op, v.class())
	}
	out := make(numVal, len(n))
	for i, x := range n {
		switch p.Op {
		case "-":
			out[i] = -x
		case "+":
			out[i] = x
		case "!", "~":
			if x == 0 {
				out[i] = 1
			}
		default:
			return nil, f.errorf(p, "unsupported operator %s", p.Op)
		}
	}
	return out, nil
}

func (f *frame) colon(c *ast.ColonExpr) (value, error) {
	scalar := func(x ast.Expr) (float64, error) {
		v, err := f.eval(x)
		if err != nil {
			return 0, err
		}
		n, ok := toNum(v)
		if !ok || len(n) == 0 {
			return 0, f.errorf(x, "invalid range bound")
		}
		return n[0], nil
	}
	start, err := scalar(c.Start)
	if err != nil {
		return nil, err
	}
	limit, err := scalar(c.Limit)
	if err != nil {
		return nil, err
	}
	step := 1.0
	if c.Increment != nil {
		if step, err = scalar(c.Increment); err != nil {
			return nil, err
		}
	}
	if step == 0 {
		return numVal(nil), nil
	}
	var out numVal
	for x := start; (step > 0 && x <= limit) || (step < 0 && x >= limit); x += step {
		out = append(out, x)
	}
	return out, nil
}

// describe names a node for error messages.
func describe(n ast.Node) string {
	switch n.(type) {
	case *ast.WhileCommand:
		return "while"
	case *ast.DoUntilCommand:
		return "do-until"
	case *ast.SimpleForCommand, *ast.ComplexForCommand:
		return "for"
	case *ast.SwitchCommand:
		return "switch"
	case *ast.TryCatchCommand:
		return "try"
	case *ast.UnwindProtectCommand:
		return "unwind_protect"
	case *ast.DeclCommand:
		return "declaration"
	case *ast.BreakCommand:
		return "break"
	case *ast.ContinueCommand:
		return "continue"
	case *ast.FunctionDef:
		return "function definition"
	case *ast.FcnHandle, *ast.AnonFcnHandle:
		return "function handle"
	case *ast.PostfixExpr, *ast.PrefixExpr:
		return "increment operator"
	}
	return fmt.Sprintf("%T", n)
}
