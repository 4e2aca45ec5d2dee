package eval

import (
	"fmt"
	"strings"
)

// value is a runtime Octave value. Arrays are one dimensional: a char row,
// a double row vector or a cell row.
type value interface {
	class() string
}

type charVal string

type numVal []float64

type cellVal []value

func (charVal) class() string { return "char" }
func (numVal) class() string  { return "double" }
func (cellVal) class() string { return "cell" }

func numel(v value) int {
	switch x := v.(type) {
	case charVal:
		return len(x)
	case numVal:
		return len(x)
	case cellVal:
		return len(x)
	}
	return 0
}

// toNum converts chars to their codes. Cells have no numeric form.
func toNum(v value) (numVal, bool) {
	switch x := v.(type) {
	case numVal:
		return x, true
	case charVal:
		out := make(numVal, len(x))
		for i := 0; i < len(x); i++ {
			out[i] = float64(x[i])
		}
		return out, true
	}
	return nil, false
}

// truth is the value of an if condition: non-empty with every element
// non-zero.
func truth(v value) (bool, error) {
	n, ok := toNum(v)
	if !ok {
		return false, fmt.Errorf("wrong type argument 'cell array' in condition")
	}
	if len(n) == 0 {
		return false, nil
	}
	for _, x := range n {
		if x == 0 {
			return false, nil
		}
	}
	return true, nil
}

func boolVal(b bool) numVal {
	if b {
		return numVal{1}
	}
	return numVal{0}
}

func str(v value) (string, bool) {
	s, ok := v.(charVal)
	return string(s), ok
}

// flatten appends the strings held by v. Cells are expanded recursively and
// empty matrices contribute nothing.
func flatten(name string, v value, out []string) ([]string, error) {
	switch x := v.(type) {
	case charVal:
		return append(out, string(x)), nil
	case cellVal:
		var err error
		for _, el := range x {
			if out, err = flatten(name, el, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	case numVal:
		if len(x) == 0 {
			return out, nil
		}
	}
	return nil, fmt.Errorf("output %s: %s value is not a string", name, v.class())
}

// hcat is [a, b, ...]. Empty matrices are dropped, cells only join cells
// and any char operand makes the result a char row.
func hcat(vals []value) (value, error) {
	var kept []value
	hasCell, hasChar := false, false
	for _, v := range vals {
		if n, ok := v.(numVal); ok && len(n) == 0 {
			continue
		}
		switch v.(type) {
		case cellVal:
			hasCell = true
		case charVal:
			hasChar = true
		}
		kept = append(kept, v)
	}

	switch {
	case len(kept) == 0:
		if len(vals) > 0 {
			if c, ok := vals[0].(cellVal); ok {
				return c, nil
			}
		}
		return numVal(nil), nil
	case hasCell:
		var out cellVal
		for _, v := range kept {
			c, ok := v.(cellVal)
			if !ok {
				return nil, fmt.Errorf("concatenation operator not implemented for 'cell' by '%s' operations", v.class())
			}
			out = append(out, c...)
		}
		return out, nil
	case hasChar:
		var b strings.Builder
		for _, v := range kept {
			switch x := v.(type) {
			case charVal:
				b.WriteString(string(x))
			case numVal:
				for _, n := range x {
					b.WriteRune(rune(int(n)))
				}
			}
		}
		return charVal(b.String()), nil
	}
	var out numVal
	for _, v := range kept {
		out = append(out, v.(numVal)...)
	}
	return out, nil
}

// vcat is [row; row; ...] over already concatenated rows.
func vcat(rows []value) (value, error) {
	var kept []value
	for _, r := range rows {
		if numel(r) > 0 {
			kept = append(kept, r)
		}
	}
	switch len(kept) {
	case 0:
		if len(rows) > 0 {
			return rows[0], nil
		}
		return numVal(nil), nil
	case 1:
		return kept[0], nil
	}
	for _, r := range kept {
		if _, ok := r.(charVal); ok {
			return nil, fmt.Errorf("multi-row char arrays are not supported")
		}
	}
	return hcat(kept)
}

// setCell stores v at index i of a copy of c, padding with empty matrices.
func setCell(c cellVal, i int, v value) cellVal {
	n := len(c)
	if i >= n {
		n = i + 1
	}
	out := make(cellVal, n)
	copy(out, c)
	for j := len(c); j < n; j++ {
		out[j] = numVal(nil)
	}
	out[i] = v
	return out
}
