package symtab

import "github.com/rubiojr/octdeps/ast"

// variables returns the names that are variables in scope: parameters,
// outputs, assigned names, loop variables, declared globals and
// persistents, and catch identifiers. Nested functions share the
// variables of the functions enclosing them.
func (t *Table) variables(scope ast.Code) map[string]bool {
	if v, ok := t.vars[scope]; ok {
		return v
	}
	v := make(map[string]bool)
	switch sc := scope.(type) {
	case *ast.Function:
		for f := sc; f != nil; f = f.Parent {
			functionVars(f, v)
		}
	case *ast.Script:
		collectVars(sc.Body, v)
	}
	t.vars[scope] = v
	return v
}

func functionVars(fn *ast.Function, v map[string]bool) {
	if fn.Params != nil {
		for _, p := range fn.Params.Params {
			if p.Ident != nil {
				v[p.Ident.Name] = true
			}
		}
	}
	if fn.Returns != nil {
		for _, o := range fn.Returns.Outputs {
			v[o.Name] = true
		}
	}
	collectVars(fn.Body, v)
}

func collectVars(list *ast.StatementList, v map[string]bool) {
	if list == nil {
		return
	}
	for _, st := range list.Statements {
		if st.Expression != nil {
			assignedVars(st.Expression, v)
			continue
		}
		switch c := st.Command.(type) {
		case *ast.DeclCommand:
			for _, e := range c.Inits.Elts {
				v[e.Ident.Name] = true
			}
		case *ast.IfCommand:
			for _, cl := range c.Clauses.Clauses {
				collectVars(cl.Body, v)
			}
		case *ast.SwitchCommand:
			for _, cs := range c.Cases.Cases {
				collectVars(cs.Body, v)
			}
		case *ast.WhileCommand:
			collectVars(c.Body, v)
		case *ast.DoUntilCommand:
			collectVars(c.Body, v)
		case *ast.SimpleForCommand:
			target(c.Lhs, v)
			collectVars(c.Body, v)
		case *ast.ComplexForCommand:
			for _, e := range c.Lhs.Elems {
				target(e, v)
			}
			collectVars(c.Body, v)
		case *ast.TryCatchCommand:
			if c.Ident != nil {
				v[c.Ident.Name] = true
			}
			collectVars(c.Body, v)
			collectVars(c.Cleanup, v)
		case *ast.UnwindProtectCommand:
			collectVars(c.Body, v)
			collectVars(c.Cleanup, v)
		}
	}
}

func assignedVars(x ast.Expr, v map[string]bool) {
	switch a := x.(type) {
	case *ast.SimpleAssignment:
		target(a.Lhs, v)
	case *ast.MultiAssignment:
		for _, e := range a.Lhs.Elems {
			target(e, v)
		}
	case *ast.PostfixExpr:
		if a.Op == "++" || a.Op == "--" {
			target(a.Operand, v)
		}
	case *ast.PrefixExpr:
		if a.Op == "++" || a.Op == "--" {
			target(a.Operand, v)
		}
	}
}

// target records the variable an assignment target writes: x in x,
// x(i), x{i} and x.f.
func target(x ast.Expr, v map[string]bool) {
	switch e := x.(type) {
	case *ast.Identifier:
		v[e.Name] = true
	case *ast.IndexExpr:
		target(e.Expr, v)
	}
}
