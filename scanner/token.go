package scanner

import (
	"fmt"

	"modernc.org/token"
)

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	EOF         TokenType = iota
	Illegal               // malformed input, Lit holds the message
	Newline               // end of line outside parentheses
	Ident                 // identifier
	Keyword               // reserved word, Lit holds the word
	Number                // numeric literal, Lit holds the source text
	String                // single-quoted string, Lit holds the decoded value
	DQString              // double-quoted string, Lit holds the decoded value
	CommandWord           // one word of a command-syntax call (hold on)
	Op                    // operator or punctuation, Lit holds the text
)

var typeNames = [...]string{
	EOF:         "EOF",
	Illegal:     "illegal",
	Newline:     "newline",
	Ident:       "identifier",
	Keyword:     "keyword",
	Number:      "number",
	String:      "string",
	DQString:    "string",
	CommandWord: "command word",
	Op:          "operator",
}

func (t TokenType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a lexical token.
type Token struct {
	Type        TokenType
	Lit         string
	Pos         token.Position
	SpaceBefore bool // whitespace separates this token from the previous one
}

// IsOp reports whether the token is the operator op.
func (t Token) IsOp(op string) bool { return t.Type == Op && t.Lit == op }

// IsKeyword reports whether the token is the keyword kw.
func (t Token) IsKeyword(kw string) bool { return t.Type == Keyword && t.Lit == kw }

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case Newline:
		return "newline"
	case String, DQString:
		return fmt.Sprintf("string %q", t.Lit)
	case Illegal:
		return t.Lit
	}
	return fmt.Sprintf("%s %q", t.Type, t.Lit)
}

// Keywords is the set of reserved words.
var Keywords = map[string]bool{
	"break": true, "case": true, "catch": true, "continue": true,
	"do": true, "else": true, "elseif": true, "end": true,
	"end_try_catch": true, "end_unwind_protect": true,
	"endfor": true, "endfunction": true, "endif": true, "endparfor": true,
	"endswitch": true, "endwhile": true, "for": true, "function": true,
	"global": true, "if": true, "otherwise": true, "parfor": true,
	"persistent": true, "return": true, "switch": true, "try": true,
	"until": true, "unwind_protect": true, "unwind_protect_cleanup": true,
	"while": true,
}

// operators lists operator spellings, longest first so the scanner can
// take the first match.
var operators = []string{
	"==", "~=", "!=", "<=", ">=", "&&", "||",
	".*", "./", `.\`, ".^", ".'",
	"++", "--", "+=", "-=", "*=", "/=", "^=",
	"+", "-", "*", "/", `\`, "^", "<", ">", "&", "|", "!", "~",
	"=", ":", ",", ";", "(", ")", "[", "]", "{", "}", ".", "@", "'",
}

// Comment is a comment found while scanning. Text has the comment
// characters and one following space removed.
type Comment struct {
	Text    string
	Pos     token.Position
	OwnLine bool // nothing but whitespace precedes it on its line
	Block   bool // part of a %{ ... %} block
}
