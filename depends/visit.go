package depends

import (
	"fmt"

	"github.com/rubiojr/octdeps/ast"
)

// visit walks n depth-first, children in source order, resolving every
// identifier and function handle it reaches. All syntactic branches are
// visited regardless of whether they could execute.
func (w *walker) visit(n ast.Node) error {
	switch t := n.(type) {
	case nil:
		return nil

	// Leaves
	case *ast.Identifier:
		return w.resolveAndWalk(t.Name)
	case *ast.FcnHandle:
		return w.resolveAndWalk(t.Name)
	case *ast.Constant, *ast.Tilde:
		return nil
	case *ast.NoOpCommand, *ast.BreakCommand, *ast.ContinueCommand, *ast.ReturnCommand:
		return nil

	// Lists
	case *ast.StatementList:
		if t == nil {
			return nil
		}
		for _, s := range t.Statements {
			if err := w.visit(s); err != nil {
				return err
			}
		}
		return nil
	case *ast.Statement:
		if t.Command != nil {
			return w.visit(t.Command)
		}
		return w.visitExprs(t.Expression)
	case *ast.ArgumentList:
		if t == nil {
			return nil
		}
		return w.visitExprs(t.Elems...)
	case *ast.ParameterList:
		if t == nil {
			return nil
		}
		for _, p := range t.Params {
			if err := w.visit(p); err != nil {
				return err
			}
		}
		return nil
	case *ast.ReturnList:
		if t == nil {
			return nil
		}
		for _, o := range t.Outputs {
			if err := w.visit(o); err != nil {
				return err
			}
		}
		return nil

	// Expressions
	case *ast.AnonFcnHandle:
		if err := w.visit(t.Params); err != nil {
			return err
		}
		return w.visitExprs(t.Body)
	case *ast.ColonExpr:
		return w.visitExprs(t.Start, t.Increment, t.Limit)
	case *ast.BinaryExpr:
		return w.visitExprs(t.Lhs, t.Rhs)
	case *ast.BoolExpr:
		return w.visitExprs(t.Lhs, t.Rhs)
	case *ast.PrefixExpr:
		return w.visitExprs(t.Operand)
	case *ast.PostfixExpr:
		return w.visitExprs(t.Operand)
	case *ast.IndexExpr:
		return w.visitIndex(t)
	case *ast.Matrix:
		return w.visitRows(t.Rows)
	case *ast.Cell:
		return w.visitRows(t.Rows)
	case *ast.SimpleAssignment:
		return w.visitExprs(t.Lhs, t.Rhs)
	case *ast.MultiAssignment:
		if err := w.visit(t.Lhs); err != nil {
			return err
		}
		return w.visitExprs(t.Rhs)

	// Commands
	case *ast.DeclCommand:
		return w.visit(t.Inits)
	case *ast.DeclInitList:
		if t == nil {
			return nil
		}
		for _, e := range t.Elts {
			if err := w.visit(e); err != nil {
				return err
			}
		}
		return nil
	case *ast.DeclElt:
		if t.Ident != nil {
			if err := w.visit(t.Ident); err != nil {
				return err
			}
		}
		return w.visitExprs(t.Init)
	case *ast.IfCommand:
		return w.visit(t.Clauses)
	case *ast.IfCommandList:
		if t == nil {
			return nil
		}
		for _, c := range t.Clauses {
			if err := w.visit(c); err != nil {
				return err
			}
		}
		return nil
	case *ast.IfClause:
		if err := w.visitExprs(t.Condition); err != nil {
			return err
		}
		return w.visit(t.Body)
	case *ast.SwitchCommand:
		if err := w.visitExprs(t.Value); err != nil {
			return err
		}
		return w.visit(t.Cases)
	case *ast.SwitchCaseList:
		if t == nil {
			return nil
		}
		for _, c := range t.Cases {
			if err := w.visit(c); err != nil {
				return err
			}
		}
		return nil
	case *ast.SwitchCase:
		if err := w.visitExprs(t.Label); err != nil {
			return err
		}
		return w.visit(t.Body)
	case *ast.WhileCommand:
		if err := w.visitExprs(t.Condition); err != nil {
			return err
		}
		return w.visit(t.Body)
	case *ast.DoUntilCommand:
		// The condition is visited first, like a while loop.
		if err := w.visitExprs(t.Condition); err != nil {
			return err
		}
		return w.visit(t.Body)
	case *ast.SimpleForCommand:
		if err := w.visitExprs(t.Lhs, t.Control, t.MaxProc); err != nil {
			return err
		}
		return w.visit(t.Body)
	case *ast.ComplexForCommand:
		if err := w.visit(t.Lhs); err != nil {
			return err
		}
		if err := w.visitExprs(t.Control); err != nil {
			return err
		}
		return w.visit(t.Body)
	case *ast.TryCatchCommand:
		if err := w.visit(t.Body); err != nil {
			return err
		}
		return w.visit(t.Cleanup)
	case *ast.UnwindProtectCommand:
		if err := w.visit(t.Body); err != nil {
			return err
		}
		return w.visit(t.Cleanup)
	case *ast.FunctionDef:
		if t.Function == nil {
			return nil
		}
		return w.walkCode(t.Function)

	// Code units reached directly rather than through a name
	case *ast.Function:
		return w.walkCode(t)
	case *ast.Script:
		return w.walkCode(t)
	case *ast.File:
		return fmt.Errorf("%w: cannot walk file %s as code", ErrAdapterFailure, t.Path)
	}
	return fmt.Errorf("%w: unexpected node %T", ErrAdapterFailure, n)
}

// visitExprs visits each non-nil expression in order.
func (w *walker) visitExprs(exprs ...ast.Expr) error {
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if err := w.visit(e); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) visitRows(rows []*ast.ArgumentList) error {
	for _, r := range rows {
		if err := w.visit(r); err != nil {
			return err
		}
	}
	return nil
}

// visitIndex visits the indexed expression, then the argument lists of
// ( and { links. Field links name struct members, not functions, and are
// skipped along with dynamic field expressions.
func (w *walker) visitIndex(t *ast.IndexExpr) error {
	if err := w.visitExprs(t.Expr); err != nil {
		return err
	}
	for i := 0; i < len(t.TypeTags); i++ {
		switch t.TypeTags[i] {
		case ast.ParenIndex, ast.BraceIndex:
			if i < len(t.Args) {
				if err := w.visit(t.Args[i]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
