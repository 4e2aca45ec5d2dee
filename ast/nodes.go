package ast

import "modernc.org/token"

// Node is the interface for all AST nodes.
type Node interface {
	node()
	Position() token.Position
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr()
}

// Command is the interface for command (statement-level) nodes.
type Command interface {
	Node
	command()
}

// Code is a walkable unit of user code: a function or a script.
// Both have a body and a defining source file.
type Code interface {
	Node
	code()
	CodeName() string
	SourceFile() string
	CodeBody() *StatementList
}

// Base carries the source position shared by every node.
type Base struct {
	Pos token.Position
}

func (b Base) Position() token.Position { return b.Pos }

// File is the result of parsing one source file. Exactly one of Script and
// Functions is populated: function files have a primary function followed by
// subfunctions, script files have a Script.
type File struct {
	Base
	Path      string
	Functions []*Function // Functions[0] is the primary function
	Script    *Script
	Doc       string // first comment block of the file
}

func (f *File) node() {}

// Primary returns the primary function of a function file, or nil for scripts.
func (f *File) Primary() *Function {
	if len(f.Functions) == 0 {
		return nil
	}
	return f.Functions[0]
}

// IsScript reports whether the file is a script file.
func (f *File) IsScript() bool { return f.Script != nil }

// Function looks up a primary function or subfunction by name.
func (f *File) Function(name string) *Function {
	for _, fn := range f.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// FunctionKind classifies where a function was defined.
type FunctionKind int

const (
	PrimaryFunction FunctionKind = iota
	Subfunction
	NestedFunction
	ScriptFunction // defined inside a script with the function keyword
)

func (k FunctionKind) String() string {
	switch k {
	case PrimaryFunction:
		return "primary"
	case Subfunction:
		return "subfunction"
	case NestedFunction:
		return "nested"
	case ScriptFunction:
		return "script"
	}
	return "unknown"
}

// Function is a user-defined function.
type Function struct {
	Base
	Name    string
	Kind    FunctionKind
	File    string // defining source file
	Params  *ParameterList
	Returns *ReturnList
	Body    *StatementList
	Nested  []*Function
	Parent  *Function // enclosing function for nested functions
	Help    string    // help text comment block
	EndLine int       // line of the terminating end keyword, 0 if unterminated
}

func (f *Function) node()                    {}
func (f *Function) code()                    {}
func (f *Function) CodeName() string         { return f.Name }
func (f *Function) SourceFile() string       { return f.File }
func (f *Function) CodeBody() *StatementList { return f.Body }

// NestedFunction returns the directly nested function with the given name.
func (f *Function) NestedFunction(name string) *Function {
	for _, n := range f.Nested {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Script is the body of a script file.
type Script struct {
	Base
	Name string // script name, the file base name without extension
	File string
	Body *StatementList
}

func (s *Script) node()                    {}
func (s *Script) code()                    {}
func (s *Script) CodeName() string         { return s.Name }
func (s *Script) SourceFile() string       { return s.File }
func (s *Script) CodeBody() *StatementList { return s.Body }

// ParameterList is the list of formal parameters of a function or an
// anonymous function handle.
type ParameterList struct {
	Base
	Params   []*DeclElt
	Varargin bool // last parameter is varargin
}

func (p *ParameterList) node() {}

// ReturnList is the list of output variables of a function.
type ReturnList struct {
	Base
	Outputs   []*Identifier
	Varargout bool // last output is varargout
}

func (r *ReturnList) node() {}

// --- Commands ---

// StatementList is an ordered sequence of statements.
type StatementList struct {
	Base
	Statements []*Statement
}

func (s *StatementList) node() {}

// Statement wraps either a command or an expression. Exactly one of the two
// fields is set.
type Statement struct {
	Base
	Command     Command
	Expression  Expr
	PrintResult bool // not terminated by a semicolon
}

func (s *Statement) node() {}

// NoOpCommand is an empty statement.
type NoOpCommand struct{ Base }

func (n *NoOpCommand) node()    {}
func (n *NoOpCommand) command() {}

// BreakCommand is break.
type BreakCommand struct{ Base }

func (b *BreakCommand) node()    {}
func (b *BreakCommand) command() {}

// ContinueCommand is continue.
type ContinueCommand struct{ Base }

func (c *ContinueCommand) node()    {}
func (c *ContinueCommand) command() {}

// ReturnCommand is return.
type ReturnCommand struct{ Base }

func (r *ReturnCommand) node()    {}
func (r *ReturnCommand) command() {}

// DeclKind is the storage class of a declaration command.
type DeclKind int

const (
	Global DeclKind = iota
	Persistent
)

func (k DeclKind) String() string {
	if k == Persistent {
		return "persistent"
	}
	return "global"
}

// DeclCommand is global x y = 1 or persistent x.
type DeclCommand struct {
	Base
	Kind  DeclKind
	Inits *DeclInitList
}

func (d *DeclCommand) node()    {}
func (d *DeclCommand) command() {}

// DeclInitList is the list of declared names of a declaration command.
type DeclInitList struct {
	Base
	Elts []*DeclElt
}

func (d *DeclInitList) node() {}

// DeclElt is one declared name with an optional initializer.
type DeclElt struct {
	Base
	Ident *Identifier
	Init  Expr // nil when there is no initializer
}

func (d *DeclElt) node() {}

// IfCommand is if/elseif/else/end.
type IfCommand struct {
	Base
	Clauses *IfCommandList
}

func (i *IfCommand) node()    {}
func (i *IfCommand) command() {}

// IfCommandList holds the clauses of an if command in source order.
type IfCommandList struct {
	Base
	Clauses []*IfClause
}

func (i *IfCommandList) node() {}

// IfClause is one branch. Condition is nil for the else branch.
type IfClause struct {
	Base
	Condition Expr
	Body      *StatementList
}

func (i *IfClause) node() {}

// SwitchCommand is switch value case ... otherwise ... end.
type SwitchCommand struct {
	Base
	Value Expr
	Cases *SwitchCaseList
}

func (s *SwitchCommand) node()    {}
func (s *SwitchCommand) command() {}

// SwitchCaseList holds the cases of a switch command in source order.
type SwitchCaseList struct {
	Base
	Cases []*SwitchCase
}

func (s *SwitchCaseList) node() {}

// SwitchCase is one case. Label is nil for the otherwise branch.
type SwitchCase struct {
	Base
	Label Expr
	Body  *StatementList
}

func (s *SwitchCase) node() {}

// WhileCommand is while cond body end.
type WhileCommand struct {
	Base
	Condition Expr
	Body      *StatementList
}

func (w *WhileCommand) node()    {}
func (w *WhileCommand) command() {}

// DoUntilCommand is do body until cond.
type DoUntilCommand struct {
	Base
	Body      *StatementList
	Condition Expr
}

func (d *DoUntilCommand) node()    {}
func (d *DoUntilCommand) command() {}

// SimpleForCommand is for lhs = expr body end (and parfor).
type SimpleForCommand struct {
	Base
	Lhs     Expr
	Control Expr
	Body    *StatementList
	Parfor  bool
	MaxProc Expr // optional parfor worker count
}

func (s *SimpleForCommand) node()    {}
func (s *SimpleForCommand) command() {}

// ComplexForCommand is for [val, key] = struct body end.
type ComplexForCommand struct {
	Base
	Lhs     *ArgumentList
	Control Expr
	Body    *StatementList
}

func (c *ComplexForCommand) node()    {}
func (c *ComplexForCommand) command() {}

// TryCatchCommand is try body catch [ident] cleanup end.
type TryCatchCommand struct {
	Base
	Body    *StatementList
	Ident   *Identifier // catch identifier, nil if absent
	Cleanup *StatementList
}

func (t *TryCatchCommand) node()    {}
func (t *TryCatchCommand) command() {}

// UnwindProtectCommand is unwind_protect body unwind_protect_cleanup cleanup
// end_unwind_protect.
type UnwindProtectCommand struct {
	Base
	Body    *StatementList
	Cleanup *StatementList
}

func (u *UnwindProtectCommand) node()    {}
func (u *UnwindProtectCommand) command() {}

// FunctionDef is a function definition appearing as a statement, as in
// scripts that define functions before using them.
type FunctionDef struct {
	Base
	Function *Function
}

func (f *FunctionDef) node()    {}
func (f *FunctionDef) command() {}

// --- Expressions ---

// Identifier is a variable or function reference.
type Identifier struct {
	Base
	Name string
}

func (i *Identifier) node() {}
func (i *Identifier) expr() {}

// Tilde is the ~ placeholder for an ignored output or parameter.
type Tilde struct{ Base }

func (t *Tilde) node() {}
func (t *Tilde) expr() {}

// ConstantKind distinguishes literal forms.
type ConstantKind int

const (
	Number ConstantKind = iota
	SQString
	DQString
	MagicColon // bare : inside an index
	MagicEnd   // end inside an index
)

// Constant is a literal. Value holds the number text or the decoded string.
type Constant struct {
	Base
	Kind  ConstantKind
	Value string
}

func (c *Constant) node() {}
func (c *Constant) expr() {}

// IsString reports whether the constant is a string literal.
func (c *Constant) IsString() bool { return c.Kind == SQString || c.Kind == DQString }

// FcnHandle is @name.
type FcnHandle struct {
	Base
	Name string
}

func (f *FcnHandle) node() {}
func (f *FcnHandle) expr() {}

// AnonFcnHandle is @(params) expr.
type AnonFcnHandle struct {
	Base
	Params *ParameterList
	Body   Expr
}

func (a *AnonFcnHandle) node() {}
func (a *AnonFcnHandle) expr() {}

// ColonExpr is base:limit or base:increment:limit.
type ColonExpr struct {
	Base
	Start     Expr
	Increment Expr // nil for base:limit
	Limit     Expr
}

func (c *ColonExpr) node() {}
func (c *ColonExpr) expr() {}

// BinaryExpr is lhs op rhs for arithmetic, comparison and elementwise logic.
type BinaryExpr struct {
	Base
	Op  string
	Lhs Expr
	Rhs Expr
}

func (b *BinaryExpr) node() {}
func (b *BinaryExpr) expr() {}

// BoolExpr is a short-circuit && or ||.
type BoolExpr struct {
	Base
	Op  string
	Lhs Expr
	Rhs Expr
}

func (b *BoolExpr) node() {}
func (b *BoolExpr) expr() {}

// PrefixExpr is op operand (unary -, +, !, ~, ++, --).
type PrefixExpr struct {
	Base
	Op      string
	Operand Expr
}

func (p *PrefixExpr) node() {}
func (p *PrefixExpr) expr() {}

// PostfixExpr is operand op (' .' ++ --).
type PostfixExpr struct {
	Base
	Op      string
	Operand Expr
}

func (p *PostfixExpr) node() {}
func (p *PostfixExpr) expr() {}

// Index tags, one per element of IndexExpr.TypeTags.
const (
	ParenIndex = '('
	BraceIndex = '{'
	FieldIndex = '.'
)

// IndexExpr is a postfix chain such as f(x){2}.name(3). TypeTags has one
// byte per link; Args[i] is the argument list for ( and { links and nil
// for . links, Fields[i] is the field name for static . links. A dynamic
// field .(expr) stores its expression in DynFields[i].
type IndexExpr struct {
	Base
	Expr      Expr
	TypeTags  string
	Args      []*ArgumentList
	Fields    []string
	DynFields []Expr
	Command   bool // written with command syntax: name word...
}

func (i *IndexExpr) node() {}
func (i *IndexExpr) expr() {}

// ArgumentList is a comma-separated list of expressions. It is also used
// for matrix and cell rows and for multi-assignment left-hand sides.
type ArgumentList struct {
	Base
	Elems []Expr
}

func (a *ArgumentList) node() {}

// Matrix is [row; row; ...].
type Matrix struct {
	Base
	Rows []*ArgumentList
}

func (m *Matrix) node() {}
func (m *Matrix) expr() {}

// Cell is {row; row; ...}.
type Cell struct {
	Base
	Rows []*ArgumentList
}

func (c *Cell) node() {}
func (c *Cell) expr() {}

// SimpleAssignment is lhs op rhs where op is = or a compound operator.
type SimpleAssignment struct {
	Base
	Op  string
	Lhs Expr
	Rhs Expr
}

func (s *SimpleAssignment) node() {}
func (s *SimpleAssignment) expr() {}

// MultiAssignment is [a, b] = rhs.
type MultiAssignment struct {
	Base
	Lhs *ArgumentList
	Rhs Expr
}

func (m *MultiAssignment) node() {}
func (m *MultiAssignment) expr() {}
