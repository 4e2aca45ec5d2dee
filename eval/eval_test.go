package eval

import (
	"errors"
	"testing"

	"github.com/rubiojr/octdeps/ast"
	"github.com/rubiojr/octdeps/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func function(t *testing.T, path, src string) *ast.Function {
	t.Helper()
	f, err := parser.ParseSource(src, path)
	require.NoError(t, err)
	require.NotNil(t, f.Primary())
	return f.Primary()
}

func run(t *testing.T, path, src string) ([]string, error) {
	t.Helper()
	return New().EvalStrings(function(t, path, src))
}

func TestEvalStrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "literals",
			src:  "function [a, b] = m()\n  a = 'x.dat';\n  b = {\"y.dat\", 'z.dat'};\nend\n",
			want: []string{"x.dat", "y.dat", "z.dat"},
		},
		{
			name: "varargout keeps empty strings",
			src:  "function varargout = m()\n  varargout = {'a', ''};\nend\n",
			want: []string{"a", ""},
		},
		{
			name: "unassigned varargout",
			src:  "function varargout = m()\nend\n",
			want: nil,
		},
		{
			name: "no outputs",
			src:  "function m()\n  x = 1;\nend\n",
			want: nil,
		},
		{
			name: "growing a cell with end",
			src: "function c = m()\n  c = {};\n  c{end+1} = 'a';\n" +
				"  c{end+1} = strcat('b', '.txt ');\n  c(end+1) = {['c' '.bin']};\nend\n",
			want: []string{"a", "b.txt", "c.bin"},
		},
		{
			name: "padding",
			src:  "function c = m()\n  c{3} = 'z';\nend\n",
			want: []string{"z"},
		},
		{
			name: "cs-list expansion",
			src:  "function f = m()\n  c = {'a', 'b'};\n  f = {c{:}, 'z'};\nend\n",
			want: []string{"a", "b", "z"},
		},
		{
			name: "number formatting",
			src:  "function f = m()\n  f = ['run' num2str(3) '_' num2str(0.5) '.dat'];\nend\n",
			want: []string{"run3_0.5.dat"},
		},
		{
			name: "substring with end",
			src:  "function f = m()\n  s = 'abcdef';\n  f = s(2:end-1);\nend\n",
			want: []string{"bcde"},
		},
		{
			name: "fileparts outputs",
			src:  "function f = m()\n  [d, n, e] = fileparts('/a/b.c.m');\n  f = {d, n, e};\nend\n",
			want: []string{"/a", "b.c", ".m"},
		},
		{
			name: "ignored outputs",
			src:  "function f = m()\n  [~, f] = fileparts('/a/b.c.m');\nend\n",
			want: []string{"b.c"},
		},
		{
			name: "values are copied on assignment",
			src:  "function f = m()\n  a = {'x'};\n  b = a;\n  b{1} = 'y';\n  f = [a, b];\nend\n",
			want: []string{"x", "y"},
		},
		{
			name: "return stops execution",
			src:  "function f = m()\n  f = 'a';\n  return;\n  f = 'b';\nend\n",
			want: []string{"a"},
		},
		{
			name: "if branches",
			src: "function f = m()\n  if isempty({}) && ~strcmp(upper('a'), 'a')\n    f = 'yes';\n" +
				"  elseif numel('abc') == 2\n    f = 'two';\n  else\n    f = 'no';\n  end\nend\n",
			want: []string{"yes"},
		},
		{
			name: "strrep and strtrim",
			src:  "function f = m()\n  f = strrep(strtrim('  a-b  '), '-', filesep);\nend\n",
			want: []string{"a/b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, "/src/m.m", tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalMfilename(t *testing.T) {
	src := "function [a, b, c, d] = marker()\n" +
		"  a = mfilename;\n" +
		"  b = mfilename('fullpath');\n" +
		"  c = mfilename('fullpathext');\n" +
		"  d = fullfile(fileparts(mfilename('fullpath')), 'tables', 'x.txt');\n" +
		"end\n"
	got, err := run(t, "/data/proj/marker.m", src)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"marker",
		"/data/proj/marker",
		"/data/proj/marker.m",
		"/data/proj/tables/x.txt",
	}, got)
}

func TestFullfile(t *testing.T) {
	tests := []struct {
		args []value
		want string
	}{
		{[]value{charVal("a"), charVal("b")}, "a/b"},
		{[]value{charVal("a/"), charVal("/b")}, "a/b"},
		{[]value{charVal("/"), charVal("b")}, "/b"},
		{[]value{charVal(""), charVal("a"), charVal(""), charVal("b.m")}, "a/b.m"},
		{[]value{charVal("a/../b")}, "a/../b"},
		{nil, ""},
	}
	for _, tt := range tests {
		got, err := fullfile(nil, tt.args, 1)
		require.NoError(t, err)
		assert.Equal(t, []value{charVal(tt.want)}, got)
	}

	_, err := fullfile(nil, []value{numVal{1}}, 1)
	assert.Error(t, err)
}

func TestFileparts(t *testing.T) {
	tests := []struct {
		path, dir, name, ext string
	}{
		{"/a/b.c.m", "/a", "b.c", ".m"},
		{"/x.m", "/", "x", ".m"},
		{"x", "", "x", ""},
		{"dir/.hidden", "dir", "", ".hidden"},
	}
	for _, tt := range tests {
		got, err := fileparts(nil, []value{charVal(tt.path)}, 3)
		require.NoError(t, err)
		assert.Equal(t, []value{charVal(tt.dir), charVal(tt.name), charVal(tt.ext)}, got, tt.path)
	}
}

func TestStrcatCells(t *testing.T) {
	got, err := strcat(nil, []value{cellVal{charVal("a "), charVal("b")}, charVal(".m")}, 1)
	require.NoError(t, err)
	assert.Equal(t, []value{cellVal{charVal("a .m"), charVal("b.m")}}, got)
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		line int
	}{
		{
			name: "unassigned output",
			src:  "function [a, b] = m()\n  a = 'x';\nend\n",
			msg:  "output b not assigned",
			line: 1,
		},
		{
			name: "loop",
			src:  "function f = m()\n  f = '';\n  for i = 1:3\n  end\nend\n",
			msg:  "unsupported for command",
			line: 3,
		},
		{
			name: "unknown function",
			src:  "function f = m()\n  f = load_files();\nend\n",
			msg:  "'load_files' undefined",
			line: 2,
		},
		{
			name: "user function in marker",
			src:  "function f = m()\n  f = fullfile(datadir(), 'x.dat');\nend\nfunction d = datadir()\n  d = '/data';\nend\n",
			msg:  "'datadir' undefined",
			line: 2,
		},
		{
			name: "numeric output",
			src:  "function f = m()\n  f = 3;\nend\n",
			msg:  "f: double value is not a string",
			line: 1,
		},
		{
			name: "out of bound",
			src:  "function f = m()\n  c = {'a'};\n  f = c{2};\nend\n",
			msg:  "index (2): out of bound 1",
			line: 3,
		},
		{
			name: "bad mfilename option",
			src:  "function f = m()\n  f = mfilename('dir');\nend\n",
			msg:  "mfilename: invalid option",
			line: 2,
		},
		{
			name: "function handle",
			src:  "function f = m()\n  f = @sin;\nend\n",
			msg:  "unsupported function handle",
			line: 2,
		},
		{
			name: "complex number",
			src:  "function f = m()\n  f = 2i;\nend\n",
			msg:  "complex number 2i is not supported",
			line: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "/src/m.m", tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)

			var eerr *Error
			require.True(t, errors.As(err, &eerr))
			assert.Equal(t, tt.line, eerr.Pos.Line)
			assert.Equal(t, "/src/m.m", eerr.Pos.Filename)
		})
	}
}

func TestEvalNilFunction(t *testing.T) {
	_, err := New().EvalStrings(nil)
	assert.Error(t, err)
}
