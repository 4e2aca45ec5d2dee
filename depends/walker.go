package depends

import (
	"fmt"
	"log"
	"strings"

	"github.com/rubiojr/octdeps/ast"
)

// walker holds the state of one Resolve call.
type walker struct {
	resolver Resolver
	eval     Evaluator
	exclude  []string
	funcs    *FunctionMap
	extra    map[string]struct{}
	stack    []ast.Code // enclosing functions, innermost last
	maxDepth int
	log      *log.Logger
}

func (w *walker) scope() ast.Code {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

// resolveAndWalk records name if it is a user-defined function outside
// the excluded prefixes, then walks its body. A name already recorded is
// not looked up again, which stops recursion through cyclic calls.
func (w *walker) resolveAndWalk(name string) error {
	if w.funcs.Has(name) {
		return nil
	}

	res, err := w.resolver.Lookup(name, w.scope())
	if err != nil {
		return fmt.Errorf("%w: resolving %q: %w", ErrAdapterFailure, name, err)
	}
	switch res.Kind {
	case NotFound:
		return nil
	case Builtin:
		w.log.Printf("%s: builtin", name)
		return nil
	case UserDefined:
	default:
		return fmt.Errorf("%w: resolving %q: unknown kind %v", ErrAdapterFailure, name, res.Kind)
	}
	if res.Code == nil {
		return fmt.Errorf("%w: resolving %q: user-defined function without code", ErrAdapterFailure, name)
	}

	for _, prefix := range w.exclude {
		if strings.HasPrefix(res.Path, prefix) {
			w.log.Printf("%s: excluded (%s matches %q)", name, res.Path, prefix)
			return nil
		}
	}

	w.funcs.add(name, res.Path)
	w.log.Printf("%s: %s", name, res.Path)
	return w.walkCode(res.Code)
}

// walkCode walks the body of a function or script with it as the
// innermost scope.
func (w *walker) walkCode(code ast.Code) error {
	if len(w.stack) >= w.maxDepth {
		return fmt.Errorf("%w: function walk nested deeper than %d at %q", ErrAdapterFailure, w.maxDepth, code.CodeName())
	}
	w.stack = append(w.stack, code)
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()

	if fn, ok := code.(*ast.Function); ok && fn.Name == MarkerName {
		if err := w.harvest(fn); err != nil {
			return err
		}
	}
	return w.visit(code.CodeBody())
}

// harvest evaluates a marker function and adds the non-empty strings it
// returns to the extra files.
func (w *walker) harvest(fn *ast.Function) error {
	if w.eval == nil {
		return fmt.Errorf("%w: %s in %s: no evaluator configured", ErrAdapterFailure, MarkerName, fn.File)
	}
	files, err := w.eval.EvalStrings(fn)
	if err != nil {
		return fmt.Errorf("%w: evaluating %s in %s: %w", ErrAdapterFailure, MarkerName, fn.File, err)
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		w.log.Printf("%s: extra file %s", MarkerName, f)
		w.extra[f] = struct{}{}
	}
	return nil
}
