package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rubiojr/octdeps/depends"
	"github.com/rubiojr/octdeps/doc"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// palette colors text output with ANSI sequences when on.
type palette struct {
	on bool
}

// newPalette enables color only for a terminal writer, unless --no-color
// or NO_COLOR says otherwise.
func newPalette(cmd *cli.Command) palette {
	if cmd.Bool("no-color") || os.Getenv("NO_COLOR") != "" {
		return palette{}
	}
	f, ok := cmd.Root().Writer.(*os.File)
	return palette{on: ok && term.IsTerminal(int(f.Fd()))}
}

func (p palette) wrap(code, s string) string {
	if !p.on {
		return s
	}
	return code + s + "\033[0m"
}

func (p palette) bold(s string) string  { return p.wrap("\033[1m", s) }
func (p palette) dim(s string) string   { return p.wrap("\033[2m", s) }
func (p palette) green(s string) string { return p.wrap("\033[32m", s) }

type jsonResult struct {
	Functions  *depends.FunctionMap `json:"functions"`
	ExtraFiles []string             `json:"extra_files"`
}

func writeResult(w io.Writer, format string, res *depends.Result, p palette) error {
	if format == "json" {
		out := jsonResult{Functions: res.Functions, ExtraFiles: res.ExtraFiles}
		if out.ExtraFiles == nil {
			out.ExtraFiles = []string{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	res.Functions.Each(func(name, path string) {
		fmt.Fprintf(tw, "%s\t%s\n", p.green(name), path)
	})
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(res.ExtraFiles) > 0 {
		fmt.Fprintf(w, "\n%s\n", p.bold("extra files:"))
		for _, f := range res.ExtraFiles {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	return nil
}

func writeFuncs(w io.Writer, fd *doc.FileDoc, p palette) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range fd.Funcs {
		kind := f.Kind.String()
		if f.Parent != "" {
			kind += " in " + f.Parent
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", f.Line, p.dim(kind), p.green(doc.Signature(f)))
	}
	return tw.Flush()
}
