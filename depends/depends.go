// Package depends computes the user-defined functions an Octave program
// needs, starting from one or more root function names.
//
// The Driver asks a Resolver what each referenced name means in the
// current lexical scope. User-defined functions are recorded together with
// their defining file and their bodies are walked in turn; builtins, unknown
// names and variables are skipped. Functions defined under an excluded path
// prefix are pruned along with everything only reachable through them.
//
// A function named __depends_extra_files__ is a marker: when the walk
// enters it, it is evaluated with no arguments and every non-empty string
// it returns is added to the set of extra data files.
package depends

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/rubiojr/octdeps/ast"
)

// MarkerName is the name of the function whose return values declare the
// extra data files needed by the code that calls it.
const MarkerName = "__depends_extra_files__"

// DefaultMaxDepth bounds how many function walks may be nested inside one
// another before Resolve gives up.
const DefaultMaxDepth = 4096

// Kind classifies a name resolution.
type Kind int

const (
	NotFound    Kind = iota // not a function: a variable or an unknown name
	Builtin                 // native function with no walkable source
	UserDefined             // function or script with source
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Builtin:
		return "builtin"
	case UserDefined:
		return "user-defined"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Resolution is the answer of a Resolver. Path and Code are set only for
// UserDefined resolutions.
type Resolution struct {
	Kind Kind
	Path string
	Code ast.Code
}

// Resolver resolves a name within a lexical scope. A nil scope is the
// top-level scope. Lookup must be deterministic for a fixed program and
// return an error only for internal faults; a name that is not a function
// is a NotFound resolution, not an error.
type Resolver interface {
	Lookup(name string, scope ast.Code) (Resolution, error)
}

// Evaluator calls a function with no arguments and returns its results as
// strings.
type Evaluator interface {
	EvalStrings(fn *ast.Function) ([]string, error)
}

// Result is the outcome of one Resolve call.
type Result struct {
	Functions  *FunctionMap
	ExtraFiles []string // sorted, without duplicates
}

// Option configures a Driver.
type Option func(*Driver)

// WithMaxDepth sets the nesting limit for function walks. Values below 1
// are ignored.
func WithMaxDepth(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

// WithLogger makes the driver trace every resolution decision to l.
func WithLogger(l *log.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// Driver resolves dependencies. A Driver holds no state between Resolve
// calls and may be reused.
type Driver struct {
	resolver Resolver
	eval     Evaluator
	maxDepth int
	log      *log.Logger
}

// NewDriver returns a Driver that resolves names with r and evaluates
// marker functions with e.
func NewDriver(r Resolver, e Evaluator, opts ...Option) *Driver {
	d := &Driver{
		resolver: r,
		eval:     e,
		maxDepth: DefaultMaxDepth,
		log:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve walks every root name in order and returns the functions they
// depend on, roots included, together with the extra files declared by
// marker functions. Exclude holds raw path prefixes: a function whose file
// path starts with any of them is skipped. The comparison is textual, so
// "/lib" also excludes "/library/x.m", and an empty prefix excludes every
// function.
//
// Resolve is all-or-nothing: on error the result is nil. Errors wrap
// ErrInvalidArgument or ErrAdapterFailure.
func (d *Driver) Resolve(names, exclude []string) (*Result, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no function names given", ErrInvalidArgument)
	}
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("%w: function name #%d is empty", ErrInvalidArgument, i+1)
		}
	}
	if d.resolver == nil {
		return nil, fmt.Errorf("%w: no resolver configured", ErrAdapterFailure)
	}

	w := &walker{
		resolver: d.resolver,
		eval:     d.eval,
		exclude:  exclude,
		funcs:    NewFunctionMap(),
		extra:    make(map[string]struct{}),
		maxDepth: d.maxDepth,
		log:      d.log,
	}
	for _, n := range names {
		if err := w.resolveAndWalk(n); err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(w.extra))
	for f := range w.extra {
		files = append(files, f)
	}
	sort.Strings(files)
	return &Result{Functions: w.funcs, ExtraFiles: files}, nil
}

// IsInvalidArgument reports whether err is a malformed-input error.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

// IsAdapterFailure reports whether err comes from a failing collaborator.
func IsAdapterFailure(err error) bool { return errors.Is(err, ErrAdapterFailure) }
