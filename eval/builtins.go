package eval

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

type builtin func(f *frame, args []value, nargout int) ([]value, error)

func builtins() map[string]builtin {
	return map[string]builtin{
		"fullfile":  fullfile,
		"strcat":    strcat,
		"mfilename": mfilename,
		"fileparts": fileparts,
		"filesep":   constString("/"),
		"pathsep":   constString(":"),
		"strrep":    strrep,
		"strtrim":   strtrim,
		"upper":     mapString(strings.ToUpper),
		"lower":     mapString(strings.ToLower),
		"num2str":   num2str,
		"isempty":   isempty,
		"numel":     numelFunc,
		"strcmp":    strcmp,
	}
}

func stringArgs(args []value) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, ok := str(a)
		if !ok {
			return nil, fmt.Errorf("argument %d must be a string, not %s", i+1, a.class())
		}
		out[i] = s
	}
	return out, nil
}

func nargs(args []value, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		return fmt.Errorf("invalid call with %d arguments", len(args))
	}
	return nil
}

func constString(s string) builtin {
	return func(_ *frame, args []value, _ int) ([]value, error) {
		if err := nargs(args, 0, 0); err != nil {
			return nil, err
		}
		return []value{charVal(s)}, nil
	}
}

func mapString(fn func(string) string) builtin {
	return func(_ *frame, args []value, _ int) ([]value, error) {
		if err := nargs(args, 1, 1); err != nil {
			return nil, err
		}
		switch x := args[0].(type) {
		case charVal:
			return []value{charVal(fn(string(x)))}, nil
		case cellVal:
			out := make(cellVal, len(x))
			for i, el := range x {
				s, ok := str(el)
				if !ok {
					return nil, fmt.Errorf("cell element %d must be a string", i+1)
				}
				out[i] = charVal(fn(s))
			}
			return []value{out}, nil
		}
		return []value{args[0]}, nil
	}
}

// fullfile joins path parts with single separators. Empty parts are
// skipped and no other normalization is done.
func fullfile(_ *frame, args []value, _ int) ([]value, error) {
	parts, err := stringArgs(args)
	if err != nil {
		return nil, err
	}
	var out string
	for _, p := range parts {
		switch {
		case p == "":
		case out == "":
			out = p
		default:
			out = strings.TrimRight(out, "/") + "/" + strings.TrimLeft(p, "/")
		}
	}
	return []value{charVal(out)}, nil
}

// strcat concatenates strings, dropping trailing whitespace of char
// arguments. With a cell argument it works element-wise and keeps
// whitespace.
func strcat(_ *frame, args []value, _ int) ([]value, error) {
	n := -1
	for _, a := range args {
		if c, ok := a.(cellVal); ok {
			if n >= 0 && len(c) != n {
				return nil, fmt.Errorf("nonconformant arguments")
			}
			n = len(c)
		}
	}
	if n < 0 {
		parts, err := stringArgs(args)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(strings.TrimRightFunc(p, unicode.IsSpace))
		}
		return []value{charVal(b.String())}, nil
	}

	out := make(cellVal, n)
	for i := range out {
		var b strings.Builder
		for _, a := range args {
			el := a
			if c, ok := a.(cellVal); ok {
				el = c[i]
			}
			s, ok := str(el)
			if !ok {
				return nil, fmt.Errorf("inputs must be strings or cells of strings")
			}
			b.WriteString(s)
		}
		out[i] = charVal(b.String())
	}
	return []value{out}, nil
}

// mfilename returns the name of the file defining the running function:
// its base name without extension, or with "fullpath" the path without
// extension, or with "fullpathext" the full path.
func mfilename(f *frame, args []value, _ int) ([]value, error) {
	if err := nargs(args, 0, 1); err != nil {
		return nil, err
	}
	file := f.fn.File
	noExt := strings.TrimSuffix(file, filepath.Ext(file))
	if len(args) == 0 {
		return []value{charVal(filepath.Base(noExt))}, nil
	}
	opt, ok := str(args[0])
	if !ok {
		return nil, fmt.Errorf("option must be a string")
	}
	switch opt {
	case "fullpath":
		return []value{charVal(noExt)}, nil
	case "fullpathext":
		return []value{charVal(file)}, nil
	}
	return nil, fmt.Errorf("invalid option %q", opt)
}

// fileparts splits a path into directory, name and extension.
func fileparts(_ *frame, args []value, _ int) ([]value, error) {
	if err := nargs(args, 1, 1); err != nil {
		return nil, err
	}
	path, ok := str(args[0])
	if !ok {
		return nil, fmt.Errorf("FILENAME must be a single string")
	}
	ds := strings.LastIndex(path, "/")
	var dir string
	switch {
	case ds == 0:
		dir = "/"
	case ds > 0:
		dir = path[:ds]
	}
	base := path[ds+1:]
	name, ext := base, ""
	if es := strings.LastIndex(base, "."); es >= 0 {
		name, ext = base[:es], base[es:]
	}
	return []value{charVal(dir), charVal(name), charVal(ext)}, nil
}

func strrep(_ *frame, args []value, _ int) ([]value, error) {
	if err := nargs(args, 3, 3); err != nil {
		return nil, err
	}
	s, err := stringArgs(args)
	if err != nil {
		return nil, err
	}
	return []value{charVal(strings.ReplaceAll(s[0], s[1], s[2]))}, nil
}

func strtrim(f *frame, args []value, nargout int) ([]value, error) {
	return mapString(func(s string) string {
		return strings.TrimFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == 0 })
	})(f, args, nargout)
}

// num2str formats numbers the way Octave prints scalars: integers plainly,
// other values with at least five significant digits.
func num2str(_ *frame, args []value, _ int) ([]value, error) {
	if err := nargs(args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case charVal:
		return []value{x}, nil
	case numVal:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = formatNumber(n)
		}
		return []value{charVal(strings.Join(parts, "  "))}, nil
	}
	return nil, fmt.Errorf("X must be a numeric, logical, or character array")
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Inf"
	case math.IsInf(n, -1):
		return "-Inf"
	case n == math.Trunc(n) && math.Abs(n) < 1e15:
		return strconv.FormatInt(int64(n), 10)
	}
	digits := int(math.Floor(math.Log10(math.Abs(n)))) + 5
	digits = min(max(digits, 5), 16)
	return strconv.FormatFloat(n, 'g', digits, 64)
}

func isempty(_ *frame, args []value, _ int) ([]value, error) {
	if err := nargs(args, 1, 1); err != nil {
		return nil, err
	}
	return []value{boolVal(numel(args[0]) == 0)}, nil
}

func numelFunc(_ *frame, args []value, _ int) ([]value, error) {
	if err := nargs(args, 1, 1); err != nil {
		return nil, err
	}
	return []value{numVal{float64(numel(args[0]))}}, nil
}

func strcmp(_ *frame, args []value, _ int) ([]value, error) {
	if err := nargs(args, 2, 2); err != nil {
		return nil, err
	}
	a, aok := str(args[0])
	b, bok := str(args[1])
	return []value{boolVal(aok && bok && a == b)}, nil
}
