package tokenize

import (
	"strings"
	"unicode"
)

const tabSize = 8

// operators is ordered longest first so that matching is greedy.
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"!=", "%=", "&=", "**", "*=", "+=", "-=", "->", "//", "/=", ":=",
	"<<", "<=", "==", ">=", ">>", "@=", "^=", "|=",
	"%", "&", "(", ")", "*", "+", ",", "-", ".", "/", ":", ";",
	"<", "=", ">", "@", "[", "]", "^", "{", "|", "}", "~",
}

var stringPrefixes = map[string]bool{
	"r": true, "u": true, "b": true, "f": true,
	"br": true, "rb": true, "fr": true, "rf": true,
}

type quoteScan int

const (
	quoteClosed quoteScan = iota // closing quote found
	quoteOpen                    // string continues on the next line
	quoteBroken                  // line ended inside a single-quoted string
)

// openString tracks a string literal spanning several physical lines.
type openString struct {
	quote []rune
	start Position
	line  string
	buf   strings.Builder
}

// Lexer splits Python source into tokens, one physical line at a time.
//
// The lexer never fails: input it cannot make sense of becomes ERRORTOKEN
// tokens and the stream always ends with ENDMARKER.
type Lexer struct {
	lines  [][]rune // physical lines including their line break
	texts  []string // physical lines without their line break
	tokens []Token

	depth     int   // bracket nesting level
	continued bool  // previous line ended with a backslash
	pending   bool  // current logical line has content but no NEWLINE yet
	indents   []int // indentation stack, always starts with 0
	str       *openString
}

// NewLexer returns a Lexer for the given source. A leading byte order mark
// is dropped.
func NewLexer(src string) *Lexer {
	src = strings.TrimPrefix(src, "\uFEFF")
	l := &Lexer{indents: []int{0}}
	for _, line := range strings.SplitAfter(src, "\n") {
		if line == "" {
			continue
		}
		l.lines = append(l.lines, []rune(line))
		l.texts = append(l.texts, trimLineBreak(line))
	}
	return l
}

// SplitLines splits src into physical lines the same way the lexer does:
// on '\n', with a trailing '\r' treated as part of the line break. Line n of
// a token position is element n-1 of the result.
func SplitLines(src string) []string {
	src = strings.TrimPrefix(src, "\uFEFF")
	if src == "" {
		return nil
	}
	lines := strings.SplitAfter(src, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = trimLineBreak(line)
	}
	return lines
}

func trimLineBreak(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// Tokenize lexes src and returns its complete token stream.
func Tokenize(src string) []Token {
	return NewLexer(src).Tokenize()
}

// Tokenize processes the entire input and produces the list of tokens.
func (l *Lexer) Tokenize() []Token {
	for i, line := range l.lines {
		l.lexLine(i+1, line)
	}
	l.finish()
	return l.tokens
}

func (l *Lexer) lexLine(lnum int, line []rune) {
	pos := 0
	switch {
	case l.str != nil:
		end, closed := l.continueString(lnum, line)
		if !closed {
			return
		}
		pos = end
	case l.depth == 0 && !l.continued:
		var blank bool
		pos, blank = l.lexIndent(lnum, line)
		if blank {
			return
		}
	default:
		l.continued = false
	}
	l.lexTokens(lnum, line, pos)
}

// lexIndent measures the indentation of a new logical line and emits
// INDENT/DEDENT tokens. Blank and comment-only lines are consumed whole
// and reported as blank.
func (l *Lexer) lexIndent(lnum int, line []rune) (int, bool) {
	column, pos := 0, 0
measure:
	for ; pos < len(line); pos++ {
		switch line[pos] {
		case ' ':
			column++
		case '\t':
			column = (column/tabSize + 1) * tabSize
		case '\f':
			column = 0
		default:
			break measure
		}
	}
	if pos == len(line) {
		return pos, true
	}

	switch line[pos] {
	case '#', '\r', '\n':
		if line[pos] == '#' {
			end := contentEnd(line)
			l.emit(COMMENT, string(line[pos:end]), lnum, pos, end)
			pos = end
		}
		if pos < len(line) {
			l.emit(NL, string(line[pos:]), lnum, pos, len(line))
		}
		return pos, true
	}

	if column > l.indents[len(l.indents)-1] {
		l.indents = append(l.indents, column)
		l.emit(INDENT, string(line[:pos]), lnum, 0, pos)
	}
	// inconsistent dedents are tolerated: pop until the column fits
	for len(l.indents) > 1 && column < l.indents[len(l.indents)-1] {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(DEDENT, "", lnum, pos, pos)
	}
	return pos, false
}

func (l *Lexer) lexTokens(lnum int, line []rune, pos int) {
	end := contentEnd(line)
	for pos < len(line) {
		c := line[pos]
		switch {
		case pos >= end:
			typ := NL
			if l.depth == 0 && l.pending {
				typ = NEWLINE
				l.pending = false
			}
			l.emit(typ, string(line[pos:]), lnum, pos, len(line))
			return

		case c == ' ' || c == '\t' || c == '\f' || c == '\r':
			pos++

		case c == '#':
			l.emit(COMMENT, string(line[pos:end]), lnum, pos, end)
			pos = end

		case c == '\\':
			if pos+1 == end {
				// explicit line joining, no token
				l.continued = true
				return
			}
			l.content(ERRORTOKEN, string(c), lnum, pos, pos+1)
			pos++

		case isDigit(c) || (c == '.' && pos+1 < end && isDigit(line[pos+1])):
			stop := scanNumber(line, pos, end)
			l.content(NUMBER, string(line[pos:stop]), lnum, pos, stop)
			pos = stop

		case isIdentStart(c):
			stop := scanIdent(line, pos, end)
			if stop < end && isQuote(line[stop]) && stringPrefixes[strings.ToLower(string(line[pos:stop]))] {
				pos = l.lexString(lnum, line, pos, stop)
				continue
			}
			l.content(NAME, string(line[pos:stop]), lnum, pos, stop)
			pos = stop

		case isQuote(c):
			pos = l.lexString(lnum, line, pos, pos)

		default:
			op := matchOperator(line[pos:end])
			if op == "" {
				l.content(ERRORTOKEN, string(c), lnum, pos, pos+1)
				pos++
				continue
			}
			l.content(OP, op, lnum, pos, pos+len(op))
			l.trackDepth(op)
			pos += len(op)
		}
	}
}

// lexString lexes a string literal whose prefix starts at start and whose
// opening quote is at quotePos. It returns the position after the token.
func (l *Lexer) lexString(lnum int, line []rune, start, quotePos int) int {
	quote := []rune{line[quotePos]}
	if quotePos+2 < len(line) && line[quotePos+1] == quote[0] && line[quotePos+2] == quote[0] {
		quote = []rune{quote[0], quote[0], quote[0]}
	}

	stop, state := scanString(line, quotePos+len(quote), quote)
	switch state {
	case quoteClosed:
		l.content(STRING, string(line[start:stop]), lnum, start, stop)
		return stop
	case quoteOpen:
		l.pending = true
		l.str = &openString{
			quote: quote,
			start: Position{Line: lnum, Column: start},
			line:  l.texts[lnum-1],
		}
		l.str.buf.WriteString(string(line[start:]))
		return len(line)
	}

	// unterminated single-quoted string: the prefix is a name, the quote an error
	if quotePos > start {
		l.content(NAME, string(line[start:quotePos]), lnum, start, quotePos)
	}
	l.content(ERRORTOKEN, string(line[quotePos]), lnum, quotePos, quotePos+1)
	return quotePos + 1
}

// continueString feeds a physical line to the pending multi-line string.
// It reports the position after the closing quote and whether the string
// was closed on this line.
func (l *Lexer) continueString(lnum int, line []rune) (int, bool) {
	s := l.str
	stop, state := scanString(line, 0, s.quote)
	switch state {
	case quoteClosed:
		s.buf.WriteString(string(line[:stop]))
		l.add(Token{Type: STRING, Value: s.buf.String(), Start: s.start, End: Position{Line: lnum, Column: stop}, Line: s.line})
		l.str = nil
		return stop, true
	case quoteOpen:
		s.buf.WriteString(string(line))
		return 0, false
	}

	s.buf.WriteString(string(line))
	l.add(Token{Type: ERRORTOKEN, Value: s.buf.String(), Start: s.start, End: Position{Line: lnum, Column: len(line)}, Line: s.line})
	l.str = nil
	return 0, false
}

// finish flushes an unterminated string, closes the last logical line and
// emits the trailing DEDENT and ENDMARKER tokens.
func (l *Lexer) finish() {
	last := len(l.lines)
	text := ""
	if last > 0 {
		text = l.texts[last-1]
	}

	if l.str != nil {
		end := Position{Line: last, Column: len(l.lines[last-1])}
		l.add(Token{Type: ERRORTOKEN, Value: l.str.buf.String(), Start: l.str.start, End: end, Line: l.str.line})
		l.str = nil
	}

	if l.pending && l.depth == 0 {
		col := len([]rune(text))
		l.add(Token{Type: NEWLINE, Start: Position{Line: last, Column: col}, End: Position{Line: last, Column: col + 1}, Line: text})
		l.pending = false
	}

	eof := Position{Line: last + 1}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.add(Token{Type: DEDENT, Start: eof, End: eof})
	}
	l.add(Token{Type: ENDMARKER, Start: eof, End: eof})
}

func (l *Lexer) trackDepth(op string) {
	switch op {
	case "(", "[", "{":
		l.depth++
	case ")", "]", "}":
		// stray closers do not drive the depth negative
		if l.depth > 0 {
			l.depth--
		}
	}
}

// content emits a token that belongs to the current logical line.
func (l *Lexer) content(typ TokenType, value string, lnum, start, end int) {
	l.pending = true
	l.emit(typ, value, lnum, start, end)
}

func (l *Lexer) emit(typ TokenType, value string, lnum, start, end int) {
	l.add(Token{
		Type:  typ,
		Value: value,
		Start: Position{Line: lnum, Column: start},
		End:   Position{Line: lnum, Column: end},
		Line:  l.texts[lnum-1],
	})
}

func (l *Lexer) add(tok Token) {
	l.tokens = append(l.tokens, tok)
}

// scanString looks for the end of a string body starting at pos.
func scanString(line []rune, pos int, quote []rune) (int, quoteScan) {
	single := len(quote) == 1
	for pos < len(line) {
		if line[pos] == '\\' {
			if single && isBreakAt(line, pos+1) {
				return len(line), quoteOpen
			}
			pos += 2
			continue
		}
		if hasRunePrefix(line[pos:], quote) {
			return pos + len(quote), quoteClosed
		}
		if single && isBreakAt(line, pos) {
			return pos, quoteBroken
		}
		pos++
	}
	if single {
		return len(line), quoteBroken
	}
	return len(line), quoteOpen
}

func scanNumber(line []rune, pos, end int) int {
	if line[pos] == '0' && pos+1 < end && strings.ContainsRune("xXoObB", line[pos+1]) {
		pos += 2
		for pos < end && (isHexDigit(line[pos]) || line[pos] == '_') {
			pos++
		}
		return pos
	}

	pos = scanDigits(line, pos, end)
	if pos < end && line[pos] == '.' {
		pos = scanDigits(line, pos+1, end)
	}
	if pos < end && (line[pos] == 'e' || line[pos] == 'E') {
		next := pos + 1
		if next < end && (line[next] == '+' || line[next] == '-') {
			next++
		}
		if next < end && isDigit(line[next]) {
			pos = scanDigits(line, next, end)
		}
	}
	if pos < end && (line[pos] == 'j' || line[pos] == 'J') {
		pos++
	}
	return pos
}

func scanDigits(line []rune, pos, end int) int {
	for pos < end && (isDigit(line[pos]) || line[pos] == '_') {
		pos++
	}
	return pos
}

func scanIdent(line []rune, pos, end int) int {
	pos++
	for pos < end && isIdentPart(line[pos]) {
		pos++
	}
	return pos
}

func matchOperator(rest []rune) string {
	for _, op := range operators {
		if hasRunePrefix(rest, []rune(op)) {
			return op
		}
	}
	return ""
}

// contentEnd returns the index of the line break at the end of line, or
// len(line) when the line has none.
func contentEnd(line []rune) int {
	end := len(line)
	if end > 0 && line[end-1] == '\n' {
		end--
		if end > 0 && line[end-1] == '\r' {
			end--
		}
	}
	return end
}

func isBreakAt(line []rune, pos int) bool {
	if pos >= len(line) {
		return false
	}
	return line[pos] == '\n' || (line[pos] == '\r' && pos+1 < len(line) && line[pos+1] == '\n')
}

func hasRunePrefix(s, prefix []rune) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}
	return true
}

func isQuote(c rune) bool { return c == '\'' || c == '"' }

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isHexDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || unicode.In(c, unicode.Nd, unicode.Mn, unicode.Mc, unicode.Pc)
}
