package depends

import "errors"

var (
	// ErrInvalidArgument reports malformed Resolve input. Nothing is
	// resolved when it is returned.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAdapterFailure reports a fault in the Resolver or Evaluator, an
	// AST the walker does not understand, or a walk nested deeper than the
	// configured limit.
	ErrAdapterFailure = errors.New("adapter failure")
)
