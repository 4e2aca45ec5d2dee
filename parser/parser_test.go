package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rubiojr/octdeps/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := ParseSource(src, "test.m")
	require.NoError(t, err)
	return f
}

func firstExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	f := parse(t, src)
	require.True(t, f.IsScript())
	require.NotEmpty(t, f.Script.Body.Statements)
	x := f.Script.Body.Statements[0].Expression
	require.NotNil(t, x)
	return x
}

func TestParseUnterminatedSubfunctions(t *testing.T) {
	f := parse(t, `function r = main(x)
  r = helper(x);
function y = helper(x)
  y = x;
`)
	require.Len(t, f.Functions, 2)
	main, helper := f.Functions[0], f.Functions[1]

	assert.Equal(t, "main", main.Name)
	assert.Equal(t, ast.PrimaryFunction, main.Kind)
	assert.Equal(t, 0, main.EndLine)
	assert.Empty(t, main.Nested)
	require.NotNil(t, main.Returns)
	assert.Equal(t, "r", main.Returns.Outputs[0].Name)
	require.NotNil(t, main.Params)
	assert.Equal(t, "x", main.Params.Params[0].Ident.Name)

	assert.Equal(t, "helper", helper.Name)
	assert.Equal(t, ast.Subfunction, helper.Kind)
	assert.Nil(t, helper.Parent)
	assert.Equal(t, "test.m", helper.File)
	assert.Same(t, helper, f.Function("helper"))
}

func TestParseNestedFunctions(t *testing.T) {
	f := parse(t, `function outer()
  inner();
  function inner()
    disp('x');
  end
end
function sub()
end
`)
	require.Len(t, f.Functions, 2)
	outer := f.Functions[0]
	assert.Equal(t, 6, outer.EndLine)
	require.Len(t, outer.Nested, 1)
	inner := outer.Nested[0]
	assert.Equal(t, "inner", inner.Name)
	assert.Equal(t, ast.NestedFunction, inner.Kind)
	assert.Same(t, outer, inner.Parent)
	assert.Same(t, inner, outer.NestedFunction("inner"))
	assert.Len(t, outer.Body.Statements, 1)

	assert.Equal(t, "sub", f.Functions[1].Name)
	assert.Equal(t, ast.Subfunction, f.Functions[1].Kind)
}

func TestParseVarargs(t *testing.T) {
	f := parse(t, "function [a, varargout] = f(x, varargin)\nend\n")
	fn := f.Primary()
	require.NotNil(t, fn)
	assert.True(t, fn.Returns.Varargout)
	assert.True(t, fn.Params.Varargin)
	assert.Len(t, fn.Returns.Outputs, 2)
}

func TestParseScriptWithFunction(t *testing.T) {
	f, err := ParseSource(`1;
function r = twice(x)
  r = 2 * x;
end
disp(twice(3));
`, "dir/script.m")
	require.NoError(t, err)
	require.True(t, f.IsScript())
	assert.Nil(t, f.Primary())
	assert.Equal(t, "script", f.Script.Name)

	stmts := f.Script.Body.Statements
	require.Len(t, stmts, 3)
	def, ok := stmts[1].Command.(*ast.FunctionDef)
	require.True(t, ok, "got %T", stmts[1].Command)
	assert.Equal(t, "twice", def.Function.Name)
	assert.Equal(t, ast.ScriptFunction, def.Function.Kind)
	assert.Equal(t, "dir/script.m", def.Function.File)
}

func TestParseIndexChains(t *testing.T) {
	x := firstExpr(t, "y = a(end, :) + b{2}.c(1);")
	asg, ok := x.(*ast.SimpleAssignment)
	require.True(t, ok, "got %T", x)
	assert.Equal(t, "=", asg.Op)

	sum, ok := asg.Rhs.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", sum.Op)

	lhs, ok := sum.Lhs.(*ast.IndexExpr)
	require.True(t, ok)
	assert.Equal(t, "(", lhs.TypeTags)
	require.Len(t, lhs.Args[0].Elems, 2)
	assert.Equal(t, ast.MagicEnd, lhs.Args[0].Elems[0].(*ast.Constant).Kind)
	assert.Equal(t, ast.MagicColon, lhs.Args[0].Elems[1].(*ast.Constant).Kind)

	rhs, ok := sum.Rhs.(*ast.IndexExpr)
	require.True(t, ok)
	assert.Equal(t, "{.(", rhs.TypeTags)
	assert.Equal(t, []string{"", "c", ""}, rhs.Fields)
	assert.Nil(t, rhs.Args[1])
	assert.Equal(t, "b", rhs.Expr.(*ast.Identifier).Name)
}

func TestParseMultiAssignment(t *testing.T) {
	x := firstExpr(t, "[~, idx] = max(v);")
	m, ok := x.(*ast.MultiAssignment)
	require.True(t, ok, "got %T", x)
	require.Len(t, m.Lhs.Elems, 2)
	assert.IsType(t, &ast.Tilde{}, m.Lhs.Elems[0])
	assert.Equal(t, "idx", m.Lhs.Elems[1].(*ast.Identifier).Name)
	assert.IsType(t, &ast.IndexExpr{}, m.Rhs)
}

func TestParseMatrixElements(t *testing.T) {
	m := firstExpr(t, "x = [a -b; c - d];").(*ast.SimpleAssignment).Rhs.(*ast.Matrix)
	require.Len(t, m.Rows, 2)
	assert.Len(t, m.Rows[0].Elems, 2)
	assert.IsType(t, &ast.PrefixExpr{}, m.Rows[0].Elems[1])
	assert.Len(t, m.Rows[1].Elems, 1)

	c := firstExpr(t, "x = {'a', \"b\"\n 3};").(*ast.SimpleAssignment).Rhs.(*ast.Cell)
	require.Len(t, c.Rows, 2)
	assert.Equal(t, ast.SQString, c.Rows[0].Elems[0].(*ast.Constant).Kind)
	assert.Equal(t, ast.DQString, c.Rows[0].Elems[1].(*ast.Constant).Kind)
	assert.Equal(t, "b", c.Rows[0].Elems[1].(*ast.Constant).Value)
}

func TestParseCommandSyntax(t *testing.T) {
	x := firstExpr(t, "format long\n")
	ix, ok := x.(*ast.IndexExpr)
	require.True(t, ok, "got %T", x)
	assert.True(t, ix.Command)
	assert.Equal(t, "format", ix.Expr.(*ast.Identifier).Name)
	require.Len(t, ix.Args, 1)
	assert.Equal(t, "long", ix.Args[0].Elems[0].(*ast.Constant).Value)
}

func TestParseHandles(t *testing.T) {
	anon := firstExpr(t, "f = @(x) helper(x) + 1;").(*ast.SimpleAssignment).Rhs
	a, ok := anon.(*ast.AnonFcnHandle)
	require.True(t, ok, "got %T", anon)
	require.Len(t, a.Params.Params, 1)
	assert.IsType(t, &ast.BinaryExpr{}, a.Body)

	h := firstExpr(t, "g = @sin;").(*ast.SimpleAssignment).Rhs
	assert.Equal(t, &ast.FcnHandle{Base: h.(*ast.FcnHandle).Base, Name: "sin"}, h)
}

func TestParsePrecedence(t *testing.T) {
	x := firstExpr(t, "r = -2^2 + 1:3 == y || z && w;").(*ast.SimpleAssignment).Rhs
	or, ok := x.(*ast.BoolExpr)
	require.True(t, ok, "got %T", x)
	assert.Equal(t, "||", or.Op)
	assert.Equal(t, "&&", or.Rhs.(*ast.BoolExpr).Op)

	cmp := or.Lhs.(*ast.BinaryExpr)
	assert.Equal(t, "==", cmp.Op)
	rng := cmp.Lhs.(*ast.ColonExpr)
	assert.Nil(t, rng.Increment)
	sum := rng.Start.(*ast.BinaryExpr)
	assert.Equal(t, "+", sum.Op)
	neg := sum.Lhs.(*ast.PrefixExpr)
	assert.Equal(t, "-", neg.Op)
	assert.Equal(t, "^", neg.Operand.(*ast.BinaryExpr).Op)
}

func TestParseControlFlow(t *testing.T) {
	f := parse(t, `if a
  b();
elseif c
  d();
else
  e();
end
switch x
  case 1
    a = 1;
  case {2, 3}
    a = 2;
  otherwise
    a = 3;
end
for i = 1:10
  s = s + i;
end
for [v, k] = st
end
while n > 0
  n--;
end
do
  x++;
until x > 3
try
  risky();
catch err
  handle(err);
end
unwind_protect
  a();
unwind_protect_cleanup
  b();
end_unwind_protect
global g1 g2
persistent p = 0
`)
	stmts := f.Script.Body.Statements
	require.Len(t, stmts, 10)

	ifc := stmts[0].Command.(*ast.IfCommand)
	require.Len(t, ifc.Clauses.Clauses, 3)
	assert.Nil(t, ifc.Clauses.Clauses[2].Condition)

	sw := stmts[1].Command.(*ast.SwitchCommand)
	require.Len(t, sw.Cases.Cases, 3)
	assert.IsType(t, &ast.Cell{}, sw.Cases.Cases[1].Label)
	assert.Nil(t, sw.Cases.Cases[2].Label)

	sf := stmts[2].Command.(*ast.SimpleForCommand)
	assert.IsType(t, &ast.ColonExpr{}, sf.Control)

	cf := stmts[3].Command.(*ast.ComplexForCommand)
	assert.Len(t, cf.Lhs.Elems, 2)

	assert.IsType(t, &ast.WhileCommand{}, stmts[4].Command)
	du := stmts[5].Command.(*ast.DoUntilCommand)
	assert.IsType(t, &ast.PostfixExpr{}, du.Body.Statements[0].Expression)

	tc := stmts[6].Command.(*ast.TryCatchCommand)
	require.NotNil(t, tc.Ident)
	assert.Equal(t, "err", tc.Ident.Name)
	assert.Len(t, tc.Cleanup.Statements, 1)

	up := stmts[7].Command.(*ast.UnwindProtectCommand)
	assert.Len(t, up.Body.Statements, 1)
	assert.Len(t, up.Cleanup.Statements, 1)

	g := stmts[8].Command.(*ast.DeclCommand)
	assert.Equal(t, ast.Global, g.Kind)
	assert.Len(t, g.Inits.Elts, 2)
	p := stmts[9].Command.(*ast.DeclCommand)
	assert.Equal(t, ast.Persistent, p.Kind)
	assert.NotNil(t, p.Inits.Elts[0].Init)
}

func TestParseHelpText(t *testing.T) {
	f := parse(t, `## Copyright (C) 2020 Someone

## -*- texinfo -*-
## Usage: foo ()

function foo ()
  ## not help
  x = 1;
end
`)
	assert.Equal(t, "-*- texinfo -*-\nUsage: foo ()", f.Doc)
	assert.Equal(t, f.Doc, f.Primary().Help)

	f = parse(t, `function r = add1(x)
% ADD1 adds one.
  r = x + 1;
end
function r = sub1(x)
% SUB1 subtracts one.
  r = x - 1;
end
`)
	assert.Empty(t, f.Doc)
	assert.Equal(t, "ADD1 adds one.", f.Functions[0].Help)
	assert.Equal(t, "SUB1 subtracts one.", f.Functions[1].Help)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"dangling operator", "x = (1 + ;", "unexpected"},
		{"unterminated if", "if x\n  y = 1;\n", "expected endif"},
		{"bad assignment", "1 = x;", "invalid assignment target"},
		{"unterminated string", "x = 'abc\n", "unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource(tt.src, "bad.m")
			require.Error(t, err)
			var perr *Error
			require.True(t, errors.As(err, &perr), "got %T", err)
			assert.Contains(t, perr.Msg, tt.msg)
			assert.Equal(t, "bad.m", perr.Pos.Filename)
			assert.Contains(t, err.Error(), "bad.m:")
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "answer.m")
	require.NoError(t, os.WriteFile(path, []byte("function r = answer()\n  r = 42;\nend\n"), 0644))

	f, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)
	assert.Equal(t, path, f.Primary().File)

	_, err = ParseFile(filepath.Join(dir, "missing.m"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")
}
