package doc

import (
	"fmt"
	"strings"

	"github.com/rubiojr/octdeps/ast"
)

// FormatFile formats a FileDoc for terminal display. Undocumented
// functions are left out.
func FormatFile(fd *FileDoc) string {
	var sb strings.Builder

	if fd.Doc != "" {
		sb.WriteString(fd.Doc)
		sb.WriteString("\n\n")
	}

	for _, f := range fd.Funcs {
		if f.Doc == "" || (f.Kind == ast.PrimaryFunction && f.Doc == fd.Doc) {
			continue
		}
		formatFunc(&sb, f)
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// FormatSymbol formats a single symbol lookup result.
func FormatSymbol(docStr, signature string) string {
	var sb strings.Builder
	sb.WriteString(signature)
	sb.WriteString("\n")
	if docStr != "" {
		sb.WriteString("    ")
		sb.WriteString(strings.ReplaceAll(docStr, "\n", "\n    "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Signature renders the header of f the way it is written in Octave:
// "[a, b] = name (x, y)".
func Signature(f FuncDoc) string {
	var sb strings.Builder
	switch len(f.Outputs) {
	case 0:
	case 1:
		sb.WriteString(f.Outputs[0])
		sb.WriteString(" = ")
	default:
		fmt.Fprintf(&sb, "[%s] = ", strings.Join(f.Outputs, ", "))
	}
	sb.WriteString(f.Name)
	fmt.Fprintf(&sb, " (%s)", strings.Join(f.Params, ", "))
	return sb.String()
}

func formatFunc(sb *strings.Builder, f FuncDoc) {
	sb.WriteString("function ")
	sb.WriteString(Signature(f))
	if f.Kind != ast.PrimaryFunction {
		fmt.Fprintf(sb, "  [%s", f.Kind)
		if f.Parent != "" {
			fmt.Fprintf(sb, " in %s", f.Parent)
		}
		sb.WriteString("]")
	}
	sb.WriteString("\n")
	if f.Doc != "" {
		sb.WriteString("    ")
		sb.WriteString(strings.ReplaceAll(f.Doc, "\n", "\n    "))
		sb.WriteString("\n")
	}
}
