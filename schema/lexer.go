package schema

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokString
	tokBytes
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokComma
	tokPipe
	tokEllipsis
)

var tokenNames = [...]string{
	tokEOF:      "end of expression",
	tokIdent:    "name",
	tokInt:      "integer",
	tokString:   "string",
	tokBytes:    "bytes",
	tokLBracket: "'['",
	tokRBracket: "']'",
	tokLParen:   "'('",
	tokRParen:   "')'",
	tokComma:    "','",
	tokPipe:     "'|'",
	tokEllipsis: "'...'",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind tokenKind
	text string // identifier, digits or unquoted string contents
	pos  int
}

// lexer splits a type expression into tokens.
type lexer struct {
	input string
	pos   int // offset of ch
	next  int // offset after ch
	ch    rune
	eof   bool // ch is past the end; a NUL rune in the input is not EOF
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	l.pos = l.next
	if l.next >= len(l.input) {
		l.ch = 0
		l.eof = true
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.next:])
	l.ch = r
	l.next += w
}

func (l *lexer) peek() rune {
	if l.next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.next:])
	return r
}

func (l *lexer) nextToken() (token, error) {
	for unicode.IsSpace(l.ch) {
		l.readChar()
	}

	start := l.pos
	single := func(k tokenKind) (token, error) {
		l.readChar()
		return token{kind: k, pos: start}, nil
	}

	switch {
	case l.eof:
		return token{kind: tokEOF, pos: start}, nil
	case l.ch == '[':
		return single(tokLBracket)
	case l.ch == ']':
		return single(tokRBracket)
	case l.ch == '(':
		return single(tokLParen)
	case l.ch == ')':
		return single(tokRParen)
	case l.ch == ',':
		return single(tokComma)
	case l.ch == '|':
		return single(tokPipe)
	case l.ch == '.':
		if strings.HasPrefix(l.input[start:], "...") {
			l.readChar()
			l.readChar()
			return single(tokEllipsis)
		}
		return token{}, syntaxError(start, "unexpected '.'")
	case l.ch == '\'' || l.ch == '"':
		s, err := l.readString()
		return token{kind: tokString, text: s, pos: start}, err
	case l.ch == 'b' && (l.peek() == '\'' || l.peek() == '"'):
		l.readChar()
		s, err := l.readString()
		return token{kind: tokBytes, text: s, pos: start}, err
	case l.ch == '-' || isDigit(l.ch):
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
		text := l.input[start:l.pos]
		if text == "-" {
			return token{}, syntaxError(start, "expected digits after '-'")
		}
		return token{kind: tokInt, text: text, pos: start}, nil
	case isIdentStart(l.ch):
		for isIdentStart(l.ch) || isDigit(l.ch) || l.ch == '.' && isIdentStart(l.peek()) {
			l.readChar()
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil
	}
	return token{}, syntaxError(start, fmt.Sprintf("unexpected character %q", l.ch))
}

// readString reads a quoted string starting at the opening quote.
func (l *lexer) readString() (string, error) {
	start := l.pos
	quote := l.ch
	l.readChar()

	var b strings.Builder
	for l.eof || l.ch != quote {
		if l.eof {
			return "", syntaxError(start, "unterminated string")
		}
		switch l.ch {
		case '\\':
			l.readChar()
			switch {
			case l.eof:
				return "", syntaxError(start, "unterminated string")
			case l.ch == 'n':
				b.WriteByte('\n')
			case l.ch == 't':
				b.WriteByte('\t')
			default:
				b.WriteRune(l.ch)
			}
		default:
			b.WriteRune(l.ch)
		}
		l.readChar()
	}
	l.readChar()
	return b.String(), nil
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
