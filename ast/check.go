package ast

import "fmt"

// Check validates a parsed file without modifying it.
type Check interface {
	Name() string
	Check(f *File) error
}

// CheckChain runs checks in order, stopping at the first error.
type CheckChain []Check

// Run executes each check in sequence. Returns nil if all pass.
func (cc CheckChain) Run(f *File) error {
	for _, c := range cc {
		if err := c.Check(f); err != nil {
			return err
		}
	}
	return nil
}

type duplicateFunctionCheck struct{}

// DuplicateFunctionCheck returns a Check that rejects files defining the same
// function name twice at the same level (two subfunctions, or two functions
// nested in the same parent).
func DuplicateFunctionCheck() Check { return duplicateFunctionCheck{} }

func (duplicateFunctionCheck) Name() string { return "duplicate-function" }

func (duplicateFunctionCheck) Check(f *File) error {
	if err := checkUnique(f.Path, f.Functions); err != nil {
		return err
	}
	for _, fn := range f.Functions {
		if err := checkNested(f.Path, fn); err != nil {
			return err
		}
	}
	return nil
}

func checkNested(path string, fn *Function) error {
	if err := checkUnique(path, fn.Nested); err != nil {
		return err
	}
	for _, n := range fn.Nested {
		if err := checkNested(path, n); err != nil {
			return err
		}
	}
	return nil
}

func checkUnique(path string, fns []*Function) error {
	seen := make(map[string]int, len(fns))
	for _, fn := range fns {
		if line, ok := seen[fn.Name]; ok {
			return fmt.Errorf("%s:%d: function %q already defined at line %d", path, fn.Pos.Line, fn.Name, line)
		}
		seen[fn.Name] = fn.Pos.Line
	}
	return nil
}

type functionNameCheck struct {
	name string
}

// FunctionNameCheck returns a Check that requires the primary function of a
// function file to be named after the file.
func FunctionNameCheck(name string) Check { return functionNameCheck{name: name} }

func (functionNameCheck) Name() string { return "function-name" }

func (c functionNameCheck) Check(f *File) error {
	p := f.Primary()
	if p == nil || p.Name == c.name {
		return nil
	}
	return fmt.Errorf("%s:%d: primary function %q does not match file name %q", f.Path, p.Pos.Line, p.Name, c.name)
}
