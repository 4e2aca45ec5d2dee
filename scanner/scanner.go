// Package scanner tokenizes Octave source for the parser. Besides the usual
// lexical work it resolves the context-dependent parts of the language: a
// quote is a transpose or a string depending on what precedes it, whitespace
// and newlines separate elements inside [] and {}, and a bare identifier at
// the start of a statement followed by words is a command-syntax call.
package scanner

import (
	"strings"

	"modernc.org/token"
)

// Scanner produces tokens from Octave source text.
type Scanner struct {
	src       string
	name      string
	off       int
	line      int
	lineStart int
	brackets  []byte // stack of open ( [ {
	prev      Token
	started   bool
	command   bool            // emitting command words until end of statement
	header    bool            // inside a function header line
	vars      map[string]bool // names known to be variables, never commands
	comments  []Comment
}

// New creates a Scanner for src. The name is used in token positions.
func New(src, name string) *Scanner {
	return &Scanner{src: src, name: name, line: 1, vars: make(map[string]bool)}
}

// Comments returns the comments seen so far, in source order.
func (s *Scanner) Comments() []Comment { return s.comments }

// Next returns the next token. After EOF it keeps returning EOF.
func (s *Scanner) Next() Token {
	tok := s.scan()
	switch {
	case tok.IsKeyword("function"):
		s.header = true
	case tok.Type == Newline || tok.IsOp(";") || tok.Type == EOF:
		s.header = false
	case tok.Type == Ident && s.header:
		s.vars[tok.Lit] = true
	case tok.IsOp("=") && s.prev.Type == Ident && len(s.brackets) == 0:
		s.vars[s.prev.Lit] = true
	}
	s.prev = tok
	s.started = true
	return tok
}

func (s *Scanner) position(off int) token.Position {
	return token.Position{
		Filename: s.name,
		Offset:   off,
		Line:     s.line,
		Column:   off - s.lineStart + 1,
	}
}

func (s *Scanner) make(typ TokenType, lit string, off int, space bool) Token {
	return Token{Type: typ, Lit: lit, Pos: s.position(off), SpaceBefore: space}
}

func (s *Scanner) newline() {
	s.off++
	s.line++
	s.lineStart = s.off
}

// peekAt returns the byte at offset i, or 0 past the end.
func (s *Scanner) peekAt(i int) byte {
	if i < 0 || i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

// LookingAt reports whether the unread input starts with prefix.
func (s *Scanner) LookingAt(prefix string) bool {
	return strings.HasPrefix(s.src[s.off:], prefix)
}

func (s *Scanner) topBracket() byte {
	if len(s.brackets) == 0 {
		return 0
	}
	return s.brackets[len(s.brackets)-1]
}

// inParens reports whether the innermost open bracket is a parenthesis,
// where newlines are insignificant.
func (s *Scanner) inParens() bool { return s.topBracket() == '(' }

// inMatrix reports whether the innermost open bracket is [ or {, where
// whitespace and newlines separate elements.
func (s *Scanner) inMatrix() bool {
	b := s.topBracket()
	return b == '[' || b == '{'
}

func (s *Scanner) scan() Token {
	if s.command {
		if tok, ok := s.scanCommandWord(); ok {
			return tok
		}
		s.command = false
	}

	space := s.skipSpace()
	if s.off >= len(s.src) {
		return s.make(EOF, "", s.off, space)
	}

	start := s.off
	ch := s.src[s.off]
	switch {
	case ch == '\n':
		tok := s.make(Newline, "\n", start, space)
		s.newline()
		return tok
	case isLetter(ch):
		return s.scanIdent(space)
	case isDigit(ch) || (ch == '.' && isDigit(s.peekAt(s.off+1))):
		return s.scanNumber(space)
	case ch == '"':
		return s.scanDQString(space)
	case ch == '\'':
		if s.quoteIsTranspose(space) {
			s.off++
			return s.make(Op, "'", start, space)
		}
		return s.scanSQString(space)
	}

	for _, op := range operators {
		if s.LookingAt(op) {
			s.off += len(op)
			s.trackBracket(op)
			return s.make(Op, op, start, space)
		}
	}
	s.off++
	return s.make(Illegal, "unexpected character "+quoteByte(ch), start, space)
}

func (s *Scanner) trackBracket(op string) {
	switch op {
	case "(", "[", "{":
		s.brackets = append(s.brackets, op[0])
	case ")", "]", "}":
		if len(s.brackets) > 0 {
			s.brackets = s.brackets[:len(s.brackets)-1]
		}
	}
}

// skipSpace skips blanks, continuations and comments. Newlines are skipped
// only inside parentheses. Reports whether anything was skipped.
func (s *Scanner) skipSpace() bool {
	skipped := false
	for s.off < len(s.src) {
		ch := s.src[s.off]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			s.off++
		case ch == '\n' && s.inParens():
			s.newline()
		case ch == '.' && s.LookingAt("..."):
			s.skipContinuation(s.off + 3)
		case ch == '\\' && s.blankToEOL(s.off+1):
			s.skipContinuation(s.off + 1)
		case ch == '%' || ch == '#':
			if s.blockCommentStart() {
				s.scanBlockComment()
			} else {
				s.scanLineComment()
			}
		default:
			return skipped
		}
		skipped = true
	}
	return skipped
}

// skipContinuation skips from off to the end of the line, including the
// newline.
func (s *Scanner) skipContinuation(off int) {
	s.off = off
	for s.off < len(s.src) && s.src[s.off] != '\n' {
		s.off++
	}
	if s.off < len(s.src) {
		s.newline()
	}
}

func (s *Scanner) blankToEOL(i int) bool {
	for ; i < len(s.src); i++ {
		switch s.src[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		}
		return false
	}
	return true
}

func (s *Scanner) blankFromBOL(i int) bool {
	for j := s.lineStart; j < i; j++ {
		if s.src[j] != ' ' && s.src[j] != '\t' {
			return false
		}
	}
	return true
}

func (s *Scanner) blockCommentStart() bool {
	return s.peekAt(s.off+1) == '{' && s.blankFromBOL(s.off) && s.blankToEOL(s.off+2)
}

func isBlockCommentLine(line string, open bool) bool {
	t := strings.TrimSpace(line)
	if open {
		return t == "%{" || t == "#{"
	}
	return t == "%}" || t == "#}"
}

func (s *Scanner) scanLineComment() {
	start := s.off
	own := s.blankFromBOL(start)
	end := start
	for end < len(s.src) && s.src[end] != '\n' {
		end++
	}
	s.comments = append(s.comments, Comment{
		Text:    commentText(s.src[start:end]),
		Pos:     s.position(start),
		OwnLine: own,
	})
	s.off = end
}

// scanBlockComment consumes a %{ ... %} block, which may nest. An
// unterminated block runs to the end of input.
func (s *Scanner) scanBlockComment() {
	pos := s.position(s.off)
	s.skipContinuation(s.off)
	depth := 1
	var lines []string
	for s.off < len(s.src) && depth > 0 {
		end := s.off
		for end < len(s.src) && s.src[end] != '\n' {
			end++
		}
		line := s.src[s.off:end]
		switch {
		case isBlockCommentLine(line, true):
			depth++
		case isBlockCommentLine(line, false):
			depth--
		}
		if depth > 0 {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
		s.skipContinuation(end)
	}
	s.comments = append(s.comments, Comment{
		Text:    strings.Join(lines, "\n"),
		Pos:     pos,
		OwnLine: true,
		Block:   true,
	})
}

func commentText(raw string) string {
	t := strings.TrimLeft(raw, "%#")
	t = strings.TrimPrefix(t, " ")
	return strings.TrimRight(t, " \t\r")
}

func (s *Scanner) scanIdent(space bool) Token {
	start := s.off
	for s.off < len(s.src) && isIdentChar(s.src[s.off]) {
		s.off++
	}
	word := s.src[start:s.off]
	if Keywords[word] && !(s.prev.IsOp(".") && !space) {
		return s.make(Keyword, word, start, space)
	}
	tok := s.make(Ident, word, start, space)
	if s.atStatementStart() && !s.vars[word] && s.looksLikeCommand() {
		s.command = true
	}
	return tok
}

// atStatementStart reports whether the next token begins a statement.
func (s *Scanner) atStatementStart() bool {
	if len(s.brackets) > 0 {
		return false
	}
	if !s.started {
		return true
	}
	p := s.prev
	switch {
	case p.Type == Newline, p.IsOp(";"), p.IsOp(","):
		return true
	case p.Type == Keyword:
		switch p.Lit {
		case "else", "try", "do", "otherwise", "unwind_protect", "unwind_protect_cleanup":
			return true
		}
	}
	return false
}

// looksLikeCommand decides whether the identifier just scanned starts a
// command-syntax call. The identifier must be followed by whitespace and
// then something that cannot continue an expression: a word, a number, a
// quoted string, or an operator glued to its operand (hold -on, ls -l).
func (s *Scanner) looksLikeCommand() bool {
	i := s.off
	if c := s.peekAt(i); c != ' ' && c != '\t' {
		return false
	}
	for s.peekAt(i) == ' ' || s.peekAt(i) == '\t' {
		i++
	}
	c := s.peekAt(i)
	switch c {
	case 0, '\n', '\r', ';', ',', '%', '#', '(', '=':
		return false
	case '\'', '"':
		return true
	}
	if isLetter(c) || isDigit(c) {
		return true
	}
	rest := s.src[i:]
	if strings.HasPrefix(rest, "...") {
		return false
	}
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			next := s.peekAt(i + len(op))
			return next != ' ' && next != '\t' && next != '\n' && next != '\r' && next != 0 && next != '='
		}
	}
	return true
}

// scanCommandWord returns the next whitespace-separated word of a command
// syntax call. It reports false at the end of the statement.
func (s *Scanner) scanCommandWord() (Token, bool) {
	space := false
	for s.off < len(s.src) && (s.src[s.off] == ' ' || s.src[s.off] == '\t') {
		s.off++
		space = true
	}
	if s.off >= len(s.src) {
		return Token{}, false
	}
	switch s.src[s.off] {
	case '\n', '\r', ';', ',', '%', '#':
		return Token{}, false
	}
	start := s.off
	var sb strings.Builder
	for s.off < len(s.src) {
		c := s.src[s.off]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ';' || c == ',' {
			break
		}
		if c == '\'' || c == '"' {
			s.off++
			for s.off < len(s.src) && s.src[s.off] != '\n' {
				q := s.src[s.off]
				if q == c {
					if s.peekAt(s.off+1) == c {
						sb.WriteByte(c)
						s.off += 2
						continue
					}
					s.off++
					break
				}
				sb.WriteByte(q)
				s.off++
			}
			continue
		}
		sb.WriteByte(c)
		s.off++
	}
	return s.make(CommandWord, sb.String(), start, space), true
}

func (s *Scanner) scanNumber(space bool) Token {
	start := s.off
	if s.src[s.off] == '0' && (s.peekAt(s.off+1) == 'x' || s.peekAt(s.off+1) == 'X') && isHexDigit(s.peekAt(s.off+2)) {
		s.off += 2
		for s.off < len(s.src) && isHexDigit(s.src[s.off]) {
			s.off++
		}
		return s.make(Number, s.src[start:s.off], start, space)
	}
	s.digits()
	if s.peekAt(s.off) == '.' && !isElementwiseOp(s.peekAt(s.off+1)) && !s.LookingAt("...") {
		s.off++
		s.digits()
	}
	if c := s.peekAt(s.off); c == 'e' || c == 'E' || c == 'd' || c == 'D' {
		j := s.off + 1
		if s.peekAt(j) == '+' || s.peekAt(j) == '-' {
			j++
		}
		if isDigit(s.peekAt(j)) {
			s.off = j
			s.digits()
		}
	}
	if c := s.peekAt(s.off); (c == 'i' || c == 'j' || c == 'I' || c == 'J') && !isIdentChar(s.peekAt(s.off+1)) {
		s.off++
	}
	return s.make(Number, s.src[start:s.off], start, space)
}

func (s *Scanner) digits() {
	for s.off < len(s.src) && isDigit(s.src[s.off]) {
		s.off++
	}
}

// quoteIsTranspose decides between the transpose operator and the start
// of a single-quoted string.
func (s *Scanner) quoteIsTranspose(space bool) bool {
	if !s.started {
		return false
	}
	p := s.prev
	value := false
	switch p.Type {
	case Ident, Number, String, DQString:
		value = true
	case Keyword:
		value = p.Lit == "end" && len(s.brackets) > 0
	case Op:
		switch p.Lit {
		case ")", "]", "}", "'", ".'":
			value = true
		}
	}
	if !value {
		return false
	}
	if space && s.inMatrix() {
		return false
	}
	return true
}

func (s *Scanner) scanSQString(space bool) Token {
	start := s.off
	s.off++
	var sb strings.Builder
	for s.off < len(s.src) {
		c := s.src[s.off]
		if c == '\n' {
			break
		}
		if c == '\'' {
			if s.peekAt(s.off+1) == '\'' {
				sb.WriteByte('\'')
				s.off += 2
				continue
			}
			s.off++
			return s.make(String, sb.String(), start, space)
		}
		sb.WriteByte(c)
		s.off++
	}
	return s.make(Illegal, "unterminated character string constant", start, space)
}

func (s *Scanner) scanDQString(space bool) Token {
	start := s.off
	s.off++
	var sb strings.Builder
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch c {
		case '\n':
			return s.make(Illegal, "unterminated character string constant", start, space)
		case '"':
			if s.peekAt(s.off+1) == '"' {
				sb.WriteByte('"')
				s.off += 2
				continue
			}
			s.off++
			return s.make(DQString, sb.String(), start, space)
		case '\\':
			s.off++
			sb.WriteString(unescape(s.peekAt(s.off)))
			if s.off < len(s.src) {
				s.off++
			}
			continue
		}
		sb.WriteByte(c)
		s.off++
	}
	return s.make(Illegal, "unterminated character string constant", start, space)
}

func unescape(c byte) string {
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'a':
		return "\a"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		return "\x00"
	case 0:
		return ""
	}
	return string(c)
}

// IsOpenBracket reports whether ch is an opening bracket/paren/brace.
func IsOpenBracket(ch byte) bool {
	return ch == '(' || ch == '[' || ch == '{'
}

// IsCloseBracket reports whether ch is a closing bracket/paren/brace.
func IsCloseBracket(ch byte) bool {
	return ch == ')' || ch == ']' || ch == '}'
}

func isElementwiseOp(c byte) bool {
	return c == '*' || c == '/' || c == '\\' || c == '^' || c == '\''
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isIdentChar(c byte) bool { return isLetter(c) || isDigit(c) }

func quoteByte(c byte) string {
	return "'" + string(rune(c)) + "'"
}
