package tokenize

import "fmt"

// TokenType identifies the lexical class of a Token.
type TokenType int

const (
	ENDMARKER  TokenType = iota // end of input
	NAME                        // identifiers and keywords
	NUMBER                      // numeric literals
	STRING                      // string literals, including f-strings
	OP                          // operators and delimiters
	COMMENT                     // '#' up to the end of the physical line
	NL                          // non-logical line break (blank lines, inside brackets)
	NEWLINE                     // end of a logical line
	INDENT                      // indentation increase
	DEDENT                      // indentation decrease
	ERRORTOKEN                  // anything the lexer could not make sense of
)

var tokenNames = [...]string{
	ENDMARKER:  "ENDMARKER",
	NAME:       "NAME",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	OP:         "OP",
	COMMENT:    "COMMENT",
	NL:         "NL",
	NEWLINE:    "NEWLINE",
	INDENT:     "INDENT",
	DEDENT:     "DEDENT",
	ERRORTOKEN: "ERRORTOKEN",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Position is a location in the source.
// Line is 1-based, Column is a 0-based character (rune) offset in the line.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexical token.
type Token struct {
	Type  TokenType
	Value string
	Start Position
	End   Position
	Line  string // physical line holding Start, without its line break
}

// IsTrivia reports whether the token carries no code: line breaks,
// comments and the end marker.
func (t Token) IsTrivia() bool {
	switch t.Type {
	case NL, NEWLINE, COMMENT, ENDMARKER:
		return true
	}
	return false
}

// IsOpener reports whether the token opens a bracket pair.
func (t Token) IsOpener() bool {
	return t.Type == OP && (t.Value == "(" || t.Value == "[" || t.Value == "{")
}

// IsCloser reports whether the token closes a bracket pair.
func (t Token) IsCloser() bool {
	return t.Type == OP && (t.Value == ")" || t.Value == "]" || t.Value == "}")
}
