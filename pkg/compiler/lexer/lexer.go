package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/zurustar/fragment/pkg/diagnostic"
)

// Lexer tokenizes fragment source code.
//
// The lexer works on runes so that columns count characters rather than
// bytes. Line and column are 1-based and always describe the current
// character.
type Lexer struct {
	input        []rune
	position     int  // current position in input
	readPosition int  // current reading position (after current char)
	ch           rune // current char
	line         int  // line of ch
	column       int  // column of ch
}

// New creates a new Lexer.
func New(input string) *Lexer {
	l := &Lexer{}
	l.Reset(input)
	return l
}

// Reset rewinds the lexer onto a new input. Calling Reset with the same
// input restarts the token stream from the beginning.
func (l *Lexer) Reset(input string) {
	l.input = []rune(input)
	l.position = 0
	l.readPosition = 0
	l.ch = 0
	l.line = 1
	l.column = 0
	l.readChar()
}

// Tokenize returns every remaining token, ending with TOKEN_EOF. Scanning
// stops early at the first TOKEN_ILLEGAL, which is then the last element.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF || tok.Type == TOKEN_ILLEGAL {
			return tokens
		}
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	line, column := l.line, l.column

	if l.atEnd() {
		return Token{Type: TOKEN_EOF, Literal: "", Line: line, Column: column}
	}

	var tok Token
	switch l.ch {
	case '#':
		return l.readComment(line, column)
	case '"':
		return l.readString(line, column)
	case '+':
		tok = l.newDoubleOrSingle('+', TOKEN_INCREMENT, TOKEN_PLUS)
	case '-':
		tok = l.newDoubleOrSingle('-', TOKEN_DECREMENT, TOKEN_MINUS)
	case ':':
		switch l.peekChar() {
		case '+':
			tok = l.newPair(TOKEN_ADD_ASSIGN)
		case '-':
			tok = l.newPair(TOKEN_SUB_ASSIGN)
		case '*':
			tok = l.newPair(TOKEN_MUL_ASSIGN)
		case '/':
			tok = l.newPair(TOKEN_DIV_ASSIGN)
		default:
			tok = l.newToken(TOKEN_COLON)
		}
	case '*':
		tok = l.newToken(TOKEN_ASTERISK)
	case '/':
		tok = l.newToken(TOKEN_SLASH)
	case '^':
		tok = l.newToken(TOKEN_CARET)
	case '<':
		tok = l.newToken(TOKEN_LT)
	case '>':
		tok = l.newToken(TOKEN_GT)
	case '&':
		tok = l.newToken(TOKEN_AMPERSAND)
	case '?':
		tok = l.newToken(TOKEN_QUESTION)
	case '.':
		tok = l.newToken(TOKEN_DOT)
	case ';':
		tok = l.newToken(TOKEN_SEMICOLON)
	case ',':
		tok = l.newToken(TOKEN_COMMA)
	case '(':
		tok = l.newToken(TOKEN_LPAREN)
	case ')':
		tok = l.newToken(TOKEN_RPAREN)
	case '{':
		tok = l.newToken(TOKEN_LBRACE)
	case '}':
		tok = l.newToken(TOKEN_RBRACE)
	case '[':
		tok = l.newToken(TOKEN_LBRACKET)
	case ']':
		tok = l.newToken(TOKEN_RBRACKET)
	default:
		if isLetter(l.ch) {
			literal := l.readIdentifier()
			return Token{Type: LookupIdent(literal), Literal: literal, Line: line, Column: column}
		}
		if isDigit(l.ch) {
			return l.readNumber(line, column)
		}
		tok = l.newToken(TOKEN_ILLEGAL)
		tok.Err = fmt.Sprintf("unexpected character %q", l.ch)
	}

	l.readChar()
	return tok
}

// Source returns the source code as a string.
func (l *Lexer) Source() string {
	return string(l.input)
}

// Position returns the token's position as a diagnostic position.
func (t Token) Position() diagnostic.Position {
	return diagnostic.Position{Line: t.Line, Column: t.Column}
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

// readIdentifier reads an identifier.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return string(l.input[position:l.position])
}

// readNumber reads [0-9]+ with an optional .[0-9]+ fraction. A dot that is
// not followed by a digit is left for the next token.
func (l *Lexer) readNumber(line, column int) Token {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	literal := string(l.input[position:l.position])
	return Token{Type: TOKEN_NUMBER, Literal: literal, Line: line, Column: column}
}

// readString reads a double-quoted string literal and decodes its escapes.
// Raw line breaks are not allowed inside a literal.
func (l *Lexer) readString(line, column int) Token {
	var b strings.Builder
	illegal := func(msg string) Token {
		return Token{Type: TOKEN_ILLEGAL, Literal: b.String(), Line: line, Column: column, Err: msg}
	}

	l.readChar() // consume opening quote
	for {
		switch {
		case l.atEnd():
			return illegal("unterminated string literal")
		case l.ch == '\n':
			return illegal("newline in string literal")
		case l.ch == '"':
			l.readChar()
			return Token{Type: TOKEN_STRING, Literal: b.String(), Line: line, Column: column}
		case l.ch == '\\':
			l.readChar()
			r, err := l.readEscape()
			if err != "" {
				return illegal(err)
			}
			b.WriteRune(r)
		default:
			b.WriteRune(l.ch)
			l.readChar()
		}
	}
}

// readEscape decodes the escape whose first character (after the backslash)
// is the current character, leaving the lexer on the character after it.
func (l *Lexer) readEscape() (rune, string) {
	var r rune
	switch l.ch {
	case '"':
		r = '"'
	case '\\':
		r = '\\'
	case '/':
		r = '/'
	case 'n':
		r = '\n'
	case 't':
		r = '\t'
	case 'b':
		r = '\b'
	case 'f':
		r = '\f'
	case 'r':
		r = '\r'
	case 'u':
		var hex strings.Builder
		for i := 0; i < 4; i++ {
			l.readChar()
			if !isHexDigit(l.ch) {
				return 0, "invalid unicode escape, expected four hex digits"
			}
			hex.WriteRune(l.ch)
		}
		v, err := strconv.ParseUint(hex.String(), 16, 32)
		if err != nil {
			return 0, "invalid unicode escape"
		}
		r = rune(v)
	default:
		if l.atEnd() {
			return 0, "unterminated string literal"
		}
		return 0, fmt.Sprintf("invalid escape sequence \\%c", l.ch)
	}
	l.readChar()
	return r, ""
}

// readComment reads a # ... # comment, which may span lines. The literal is
// the text between the two markers.
func (l *Lexer) readComment(line, column int) Token {
	l.readChar() // consume opening #
	position := l.position
	for l.ch != '#' {
		if l.atEnd() {
			return Token{
				Type:    TOKEN_ILLEGAL,
				Literal: string(l.input[position:]),
				Line:    line,
				Column:  column,
				Err:     "unterminated comment",
			}
		}
		l.readChar()
	}
	literal := string(l.input[position:l.position])
	l.readChar() // consume closing #
	return Token{Type: TOKEN_COMMENT, Literal: literal, Line: line, Column: column}
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// newToken creates a single-character token at the current position.
func (l *Lexer) newToken(tokenType TokenType) Token {
	return Token{Type: tokenType, Literal: string(l.ch), Line: l.line, Column: l.column}
}

// newPair consumes the current character and returns a two-character token
// positioned at the first one. The caller consumes the second.
func (l *Lexer) newPair(tokenType TokenType) Token {
	line, column := l.line, l.column
	first := l.ch
	l.readChar()
	return Token{Type: tokenType, Literal: string(first) + string(l.ch), Line: line, Column: column}
}

func (l *Lexer) newDoubleOrSingle(next rune, double, single TokenType) Token {
	if l.peekChar() == next {
		return l.newPair(double)
	}
	return l.newToken(single)
}

// isLetter checks if a character can start an identifier.
func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= 0x80 && unicode.IsLetter(ch)
}

// isDigit checks if a character is a digit.
func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

// isHexDigit checks if a character is a hexadecimal digit.
func isHexDigit(ch rune) bool {
	return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
