package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rubiojr/octdeps/ast"
	"github.com/rubiojr/octdeps/config"
	"github.com/rubiojr/octdeps/depends"
	"github.com/rubiojr/octdeps/doc"
	"github.com/rubiojr/octdeps/eval"
	"github.com/rubiojr/octdeps/parser"
	"github.com/rubiojr/octdeps/symtab"
	"github.com/urfave/cli/v3"
)

// Execute runs the octdeps CLI with the given version string.
func Execute(version string) {
	if err := newCommand(version, os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(version string, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:                   "octdeps",
		Usage:                  "Find the Octave functions and data files a program depends on",
		Version:                version,
		Writer:                 stdout,
		ErrWriter:              stderr,
		UseShortOptionHandling: true,
		// Allow `octdeps main` as shorthand for `octdeps resolve main`
		ArgsUsage: "[NAME...]",
		Flags:     resolveFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return cli.DefaultShowRootCommandHelp(cmd)
			}
			return resolveAction(ctx, cmd)
		},
		Commands: []*cli.Command{
			{
				Name:      "resolve",
				Usage:     "List the user functions NAME... depend on and their extra files",
				ArgsUsage: "NAME...",
				Flags:     resolveFlags(),
				Action:    resolveAction,
			},
			{
				Name:      "funcs",
				Usage:     "List the functions defined in Octave files",
				ArgsUsage: "FILE.m...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "no-color",
						Aliases: []string{"C"},
						Usage:   "Disable ANSI color output",
					},
				},
				Action: funcsAction,
			},
			{
				Name:      "doc",
				Usage:     "Show the help text of a function on the load path or of a file",
				ArgsUsage: "NAME | FILE.m",
				Flags:     settingsFlags(),
				Action:    docAction,
			},
			{
				Name:      "watch",
				Usage:     "Resolve NAME... again whenever a .m file on the load path changes",
				ArgsUsage: "NAME...",
				Flags: append(resolveFlags(), &cli.DurationFlag{
					Name:  "debounce",
					Usage: "Quiet period before re-resolving",
					Value: 250 * time.Millisecond,
				}),
				Action: watchAction,
			},
		},
	}
}

// settingsFlags are the flags feeding config.Config.
func settingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "path",
			Aliases: []string{"p"},
			Usage:   "Load path directory, searched in order (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "builtin",
			Usage: "Treat a function name as builtin (repeatable)",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Project file (default: nearest " + config.FileName + ")",
		},
	}
}

func resolveFlags() []cli.Flag {
	return append(settingsFlags(),
		&cli.StringSliceFlag{
			Name:    "exclude",
			Aliases: []string{"x"},
			Usage:   "Skip functions whose file path starts with this prefix (repeatable)",
		},
		&cli.IntFlag{
			Name:  "max-depth",
			Usage: "Maximum nesting of function walks",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text or json",
			Value:   "text",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log every resolution decision to stderr",
		},
		&cli.BoolFlag{
			Name:    "no-color",
			Aliases: []string{"C"},
			Usage:   "Disable ANSI color output",
		},
	)
}

// settings layers the project file, the environment and the flags.
func settings(cmd *cli.Command) (*config.Config, error) {
	cfg := &config.Config{}
	path := cmd.String("config")
	if path == "" {
		if found, ok := config.Find("."); ok {
			path = found
		}
	}
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	cfg = config.FromEnv(cfg)

	flags := &config.Config{
		Path:     cmd.StringSlice("path"),
		Builtins: cmd.StringSlice("builtin"),
	}
	if cmd.IsSet("exclude") {
		flags.Exclude = cmd.StringSlice("exclude")
	}
	if cmd.IsSet("max-depth") {
		flags.MaxDepth = int(cmd.Int("max-depth"))
	}
	cfg = cfg.Merge(flags)

	if len(cfg.Path) == 0 {
		cfg.Path = []string{"."}
	}
	var err error
	if cfg.Path, err = absPaths(cfg.Path); err != nil {
		return nil, err
	}
	if cfg.Exclude, err = absPaths(cfg.Exclude); err != nil {
		return nil, err
	}
	return cfg, nil
}

// absPaths makes relative entries absolute, keeping a trailing separator.
// Empty entries are kept as is.
func absPaths(paths []string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		if p == "" || filepath.IsAbs(p) {
			out[i] = p
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		out[i] = config.KeepTrailingSeparator(p, abs)
	}
	return out, nil
}

func newTable(cfg *config.Config) *symtab.Table {
	return symtab.New(cfg.Path, symtab.WithBuiltins(slices.Concat(symtab.DefaultBuiltins, cfg.Builtins)...))
}

// resolver runs the dependency driver over one symbol table.
type resolver struct {
	cfg   *config.Config
	table *symtab.Table
	opts  []depends.Option
}

func newResolver(cmd *cli.Command, cfg *config.Config) *resolver {
	r := &resolver{cfg: cfg, table: newTable(cfg)}
	if cfg.MaxDepth > 0 {
		r.opts = append(r.opts, depends.WithMaxDepth(cfg.MaxDepth))
	}
	if cmd.Bool("verbose") {
		r.opts = append(r.opts, depends.WithLogger(log.New(cmd.Root().ErrWriter, "octdeps: ", 0)))
	}
	return r
}

func (r *resolver) resolve(names []string) (*depends.Result, error) {
	return depends.NewDriver(r.table, eval.New(), r.opts...).Resolve(names, r.cfg.Exclude)
}

func resolveAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: octdeps resolve [flags] NAME...")
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	res, err := newResolver(cmd, cfg).resolve(cmd.Args().Slice())
	if err != nil {
		return err
	}
	return writeResult(cmd.Root().Writer, format, res, newPalette(cmd))
}

func outputFormat(cmd *cli.Command) (string, error) {
	format := cmd.String("format")
	switch format {
	case "text", "json":
		return format, nil
	}
	return "", fmt.Errorf("unknown format %q (want text or json)", format)
}

func funcsAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: octdeps funcs FILE.m...")
	}
	w := cmd.Root().Writer
	p := newPalette(cmd)
	for i, path := range cmd.Args().Slice() {
		f, err := parser.ParseFile(path)
		if err != nil {
			return err
		}
		if err := (ast.CheckChain{ast.DuplicateFunctionCheck()}).Run(f); err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := ast.FunctionNameCheck(name).Check(f); err != nil {
			fmt.Fprintf(cmd.Root().ErrWriter, "warning: %v\n", err)
		}
		if cmd.NArg() > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s:\n", p.bold(path))
		}
		if err := writeFuncs(w, doc.FromAST(f), p); err != nil {
			return err
		}
	}
	return nil
}

func docAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("usage: octdeps doc NAME | FILE.m")
	}
	target := cmd.Args().First()
	w := cmd.Root().Writer

	if strings.HasSuffix(target, ".m") {
		if _, err := os.Stat(target); err == nil {
			fd, err := doc.ExtractFile(target)
			if err != nil {
				return err
			}
			fmt.Fprint(w, doc.FormatFile(fd))
			return nil
		}
	}

	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	res, err := newTable(cfg).Lookup(target, nil)
	if err != nil {
		return err
	}
	switch res.Kind {
	case depends.Builtin:
		fmt.Fprintf(w, "%s is a builtin function\n", target)
		return nil
	case depends.NotFound:
		return fmt.Errorf("%s: function not found on the load path", target)
	}

	fd, err := doc.ExtractFile(res.Path)
	if err != nil {
		return err
	}
	if fd.Script {
		fmt.Fprintf(w, "%s is a script: %s\n", target, res.Path)
		if fd.Doc != "" {
			fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(fd.Doc, "\n", "\n    "))
		}
		return nil
	}
	f, ok := fd.Lookup(res.Code.CodeName())
	if !ok {
		return fmt.Errorf("%s: no documentation found in %s", target, res.Path)
	}
	fmt.Fprint(w, doc.FormatSymbol(f.Doc, doc.Signature(f)))
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: octdeps watch [flags] NAME...")
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	r := newResolver(cmd, cfg)
	w := cmd.Root().Writer
	p := newPalette(cmd)
	names := cmd.Args().Slice()
	run := func() {
		res, err := r.resolve(names)
		if err != nil {
			fmt.Fprintf(cmd.Root().ErrWriter, "error: %v\n", err)
			return
		}
		if err := writeResult(w, format, res, p); err != nil {
			fmt.Fprintf(cmd.Root().ErrWriter, "error: %v\n", err)
		}
	}

	run()
	return watchDirs(ctx, cfg.Path, cmd.Duration("debounce"), func(changed []string) {
		r.table.Reset()
		fmt.Fprintf(w, "\n%s\n", p.dim(fmt.Sprintf("--- %d file(s) changed: %s", len(changed), strings.Join(changed, ", "))))
		run()
	})
}
