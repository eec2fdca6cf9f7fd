// Package lexer provides lexical analysis for fragment source (.fr files).
package lexer

// TokenType represents the type of a token.
type TokenType int

// Token types
const (
	// Special tokens
	TOKEN_ILLEGAL TokenType = iota
	TOKEN_EOF
	TOKEN_COMMENT // # ... #

	// Literals
	TOKEN_IDENT  // identifier
	TOKEN_NUMBER // 12 or 1.5; Int/Double is decided by the parser
	TOKEN_STRING // string literal, escapes already decoded
	TOKEN_TYPE   // Int, Double, String, Boolean, Occult, Ark, Function, Array, Record

	// Operators
	TOKEN_PLUS       // +
	TOKEN_MINUS      // -
	TOKEN_ASTERISK   // *
	TOKEN_SLASH      // /
	TOKEN_CARET      // ^
	TOKEN_INCREMENT  // ++
	TOKEN_DECREMENT  // --
	TOKEN_ADD_ASSIGN // :+
	TOKEN_SUB_ASSIGN // :-
	TOKEN_MUL_ASSIGN // :*
	TOKEN_DIV_ASSIGN // :/
	TOKEN_LT         // < (opens an index)
	TOKEN_GT         // > (closes an index)
	TOKEN_AMPERSAND  // & (zero-argument call)
	TOKEN_QUESTION   // ? (optional parameter)

	// Delimiters
	TOKEN_DOT       // .
	TOKEN_COLON     // :
	TOKEN_SEMICOLON // ;
	TOKEN_COMMA     // ,
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_LBRACE    // {
	TOKEN_RBRACE    // }
	TOKEN_LBRACKET  // [
	TOKEN_RBRACKET  // ]

	// Keywords
	TOKEN_FOR     // for
	TOKEN_AS      // as
	TOKEN_ALL     // All
	TOKEN_USE     // use
	TOKEN_FROM    // from
	TOKEN_TRUE    // true
	TOKEN_FALSE   // false
	TOKEN_PROVIDE // provide
	TOKEN_EMBODY  // embody
	TOKEN_IF      // if
)

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int

	// Err explains why a TOKEN_ILLEGAL token was produced.
	Err string
}

// tokenTypeNames maps TokenType to its string representation.
var tokenTypeNames = map[TokenType]string{
	// Special tokens
	TOKEN_ILLEGAL: "ILLEGAL",
	TOKEN_EOF:     "EOF",
	TOKEN_COMMENT: "COMMENT",

	// Literals
	TOKEN_IDENT:  "IDENT",
	TOKEN_NUMBER: "NUMBER",
	TOKEN_STRING: "STRING",
	TOKEN_TYPE:   "TYPE",

	// Operators
	TOKEN_PLUS:       "+",
	TOKEN_MINUS:      "-",
	TOKEN_ASTERISK:   "*",
	TOKEN_SLASH:      "/",
	TOKEN_CARET:      "^",
	TOKEN_INCREMENT:  "++",
	TOKEN_DECREMENT:  "--",
	TOKEN_ADD_ASSIGN: ":+",
	TOKEN_SUB_ASSIGN: ":-",
	TOKEN_MUL_ASSIGN: ":*",
	TOKEN_DIV_ASSIGN: ":/",
	TOKEN_LT:         "<",
	TOKEN_GT:         ">",
	TOKEN_AMPERSAND:  "&",
	TOKEN_QUESTION:   "?",

	// Delimiters
	TOKEN_DOT:       ".",
	TOKEN_COLON:     ":",
	TOKEN_SEMICOLON: ";",
	TOKEN_COMMA:     ",",
	TOKEN_LPAREN:    "(",
	TOKEN_RPAREN:    ")",
	TOKEN_LBRACE:    "{",
	TOKEN_RBRACE:    "}",
	TOKEN_LBRACKET:  "[",
	TOKEN_RBRACKET:  "]",

	// Keywords
	TOKEN_FOR:     "for",
	TOKEN_AS:      "as",
	TOKEN_ALL:     "All",
	TOKEN_USE:     "use",
	TOKEN_FROM:    "from",
	TOKEN_TRUE:    "true",
	TOKEN_FALSE:   "false",
	TOKEN_PROVIDE: "provide",
	TOKEN_EMBODY:  "embody",
	TOKEN_IF:      "if",
}

// String returns a string representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsKeyword returns true if the token type is a keyword.
func (t TokenType) IsKeyword() bool {
	return t >= TOKEN_FOR && t <= TOKEN_IF
}

// IsOperator returns true if the token type is an operator.
func (t TokenType) IsOperator() bool {
	return t >= TOKEN_PLUS && t <= TOKEN_QUESTION
}

// IsLiteral returns true if the token type is a literal.
func (t TokenType) IsLiteral() bool {
	return t >= TOKEN_IDENT && t <= TOKEN_TYPE
}

// keywords maps reserved words to their TokenType. Matching is
// case-sensitive: "All" is a keyword, "all" is an identifier.
var keywords = map[string]TokenType{
	"for":     TOKEN_FOR,
	"as":      TOKEN_AS,
	"All":     TOKEN_ALL,
	"use":     TOKEN_USE,
	"from":    TOKEN_FROM,
	"true":    TOKEN_TRUE,
	"false":   TOKEN_FALSE,
	"provide": TOKEN_PROVIDE,
	"embody":  TOKEN_EMBODY,
	"if":      TOKEN_IF,
}

// typeNames lists the identifiers retagged as TOKEN_TYPE.
var typeNames = map[string]bool{
	"Int":      true,
	"Double":   true,
	"String":   true,
	"Boolean":  true,
	"Occult":   true,
	"Ark":      true,
	"Function": true,
	"Array":    true,
	"Record":   true,
}

// LookupIdent classifies an identifier as a keyword, a type name or a
// plain identifier.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	if typeNames[ident] {
		return TOKEN_TYPE
	}
	return TOKEN_IDENT
}
