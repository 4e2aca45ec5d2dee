package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tok struct {
	typ TokenType
	lit string
}

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	s := New(src, "test.m")
	var toks []Token
	for i := 0; i < 1000; i++ {
		tk := s.Next()
		toks = append(toks, tk)
		if tk.Type == EOF {
			return toks
		}
	}
	t.Fatalf("scanner did not reach EOF for %q", src)
	return nil
}

func simplify(toks []Token) []tok {
	out := make([]tok, len(toks))
	for i, tk := range toks {
		out[i] = tok{tk.Type, tk.Lit}
	}
	return out
}

func TestScanAssignmentAndTranspose(t *testing.T) {
	got := simplify(scanAll(t, "x = a';"))
	assert.Equal(t, []tok{
		{Ident, "x"}, {Op, "="}, {Ident, "a"}, {Op, "'"}, {Op, ";"}, {EOF, ""},
	}, got)
}

func TestScanStrings(t *testing.T) {
	got := simplify(scanAll(t, `s = 'it''s'; d = "a\tb""c";`))
	assert.Equal(t, []tok{
		{Ident, "s"}, {Op, "="}, {String, "it's"}, {Op, ";"},
		{Ident, "d"}, {Op, "="}, {DQString, "a\tb\"c"}, {Op, ";"},
		{EOF, ""},
	}, got)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, "x = 'abc\n")
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, Illegal, toks[2].Type)
	assert.Contains(t, toks[2].Lit, "unterminated")
}

func TestScanCommandSyntax(t *testing.T) {
	got := simplify(scanAll(t, "hold on\npkg load 'my pkg';"))
	assert.Equal(t, []tok{
		{Ident, "hold"}, {CommandWord, "on"}, {Newline, "\n"},
		{Ident, "pkg"}, {CommandWord, "load"}, {CommandWord, "my pkg"}, {Op, ";"},
		{EOF, ""},
	}, got)
}

func TestScanNoCommandSyntaxForVariables(t *testing.T) {
	got := simplify(scanAll(t, "a = 1;\na -1"))
	assert.Equal(t, []tok{
		{Ident, "a"}, {Op, "="}, {Number, "1"}, {Op, ";"}, {Newline, "\n"},
		{Ident, "a"}, {Op, "-"}, {Number, "1"}, {EOF, ""},
	}, got)
}

func TestScanNoCommandSyntaxForExpressions(t *testing.T) {
	for _, src := range []string{"f (1)", "x = 2", "y == 3", "z + 1", "w"} {
		toks := scanAll(t, src)
		for _, tk := range toks {
			assert.NotEqual(t, CommandWord, tk.Type, "source %q", src)
		}
	}
}

func TestScanMatrixWhitespace(t *testing.T) {
	toks := scanAll(t, "[a -b]")
	require.Len(t, toks, 6)
	assert.True(t, toks[2].IsOp("-"))
	assert.True(t, toks[2].SpaceBefore)
	assert.Equal(t, Ident, toks[3].Type)
	assert.False(t, toks[3].SpaceBefore)
}

func TestScanMatrixQuotes(t *testing.T) {
	got := simplify(scanAll(t, "[a' b']"))
	assert.Equal(t, []tok{
		{Op, "["}, {Ident, "a"}, {Op, "'"}, {Ident, "b"}, {Op, "'"}, {Op, "]"}, {EOF, ""},
	}, got)

	got = simplify(scanAll(t, "[a 'str']"))
	assert.Equal(t, []tok{
		{Op, "["}, {Ident, "a"}, {String, "str"}, {Op, "]"}, {EOF, ""},
	}, got)
}

func TestScanNewlines(t *testing.T) {
	got := simplify(scanAll(t, "x = [1 2\n3 4];"))
	assert.Contains(t, got, tok{Newline, "\n"}, "newline separates matrix rows")

	got = simplify(scanAll(t, "f(1,\n2)"))
	assert.NotContains(t, got, tok{Newline, "\n"}, "newline ignored inside parentheses")
}

func TestScanContinuation(t *testing.T) {
	got := simplify(scanAll(t, "x = 1 + ...\n  2"))
	assert.Equal(t, []tok{
		{Ident, "x"}, {Op, "="}, {Number, "1"}, {Op, "+"}, {Number, "2"}, {EOF, ""},
	}, got)
}

func TestScanNumbers(t *testing.T) {
	got := simplify(scanAll(t, "1.5e3 0x1F 3i .5"))
	assert.Equal(t, []tok{
		{Number, "1.5e3"}, {Number, "0x1F"}, {Number, "3i"}, {Number, ".5"}, {EOF, ""},
	}, got)

	got = simplify(scanAll(t, "y = 1./x"))
	assert.Equal(t, []tok{
		{Ident, "y"}, {Op, "="}, {Number, "1"}, {Op, "./"}, {Ident, "x"}, {EOF, ""},
	}, got)
}

func TestScanKeywords(t *testing.T) {
	got := simplify(scanAll(t, "if x, end"))
	assert.Equal(t, []tok{
		{Keyword, "if"}, {Ident, "x"}, {Op, ","}, {Keyword, "end"}, {EOF, ""},
	}, got)

	got = simplify(scanAll(t, "s.end"))
	assert.Equal(t, []tok{
		{Ident, "s"}, {Op, "."}, {Ident, "end"}, {EOF, ""},
	}, got, "keywords are field names after a dot")
}

func TestScanComments(t *testing.T) {
	s := New("% help line\nx = 1 # trailing\n", "test.m")
	for s.Next().Type != EOF {
	}
	cs := s.Comments()
	require.Len(t, cs, 2)
	assert.Equal(t, "help line", cs[0].Text)
	assert.True(t, cs[0].OwnLine)
	assert.Equal(t, 1, cs[0].Pos.Line)
	assert.Equal(t, "trailing", cs[1].Text)
	assert.False(t, cs[1].OwnLine)
}

func TestScanBlockComment(t *testing.T) {
	s := New("%{\nblock text\n%}\nx\n", "test.m")
	var toks []Token
	for {
		tk := s.Next()
		toks = append(toks, tk)
		if tk.Type == EOF {
			break
		}
	}
	require.Equal(t, Ident, toks[0].Type)
	assert.Equal(t, 4, toks[0].Pos.Line)

	cs := s.Comments()
	require.Len(t, cs, 1)
	assert.True(t, cs[0].Block)
	assert.Equal(t, "block text", cs[0].Text)
}

func TestScanPositions(t *testing.T) {
	toks := scanAll(t, "x = 1;\n  y = 2;")
	var y Token
	for _, tk := range toks {
		if tk.Type == Ident && tk.Lit == "y" {
			y = tk
		}
	}
	assert.Equal(t, "test.m", y.Pos.Filename)
	assert.Equal(t, 2, y.Pos.Line)
	assert.Equal(t, 3, y.Pos.Column)
	assert.Equal(t, 9, y.Pos.Offset)
}
