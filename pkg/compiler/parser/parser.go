// Package parser turns a token stream into an ast.Program.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zurustar/fragment/pkg/compiler/ast"
	"github.com/zurustar/fragment/pkg/compiler/lexer"
	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/sorts"
)

// Precedence levels for operators.
const (
	_ int = iota
	LOWEST
	SUM      // + -
	PRODUCT  // * /
	EXPONENT // ^ (right-associative)
	CALL     // fn(X)
	INDEX    // xs<i>
)

var precedences = map[lexer.TokenType]int{
	lexer.TOKEN_PLUS:     SUM,
	lexer.TOKEN_MINUS:    SUM,
	lexer.TOKEN_ASTERISK: PRODUCT,
	lexer.TOKEN_SLASH:    PRODUCT,
	lexer.TOKEN_CARET:    EXPONENT,
	lexer.TOKEN_LPAREN:   CALL,
	lexer.TOKEN_LT:       INDEX,
}

var arithmeticOps = map[lexer.TokenType]ast.ArithmeticOp{
	lexer.TOKEN_PLUS:     ast.Addition,
	lexer.TOKEN_MINUS:    ast.Subtraction,
	lexer.TOKEN_ASTERISK: ast.Multiplication,
	lexer.TOKEN_SLASH:    ast.Division,
	lexer.TOKEN_CARET:    ast.Exponent,
}

var assignOps = map[lexer.TokenType]ast.ArithmeticOp{
	lexer.TOKEN_ADD_ASSIGN: ast.Addition,
	lexer.TOKEN_SUB_ASSIGN: ast.Subtraction,
	lexer.TOKEN_MUL_ASSIGN: ast.Multiplication,
	lexer.TOKEN_DIV_ASSIGN: ast.Division,
}

// Parser parses fragment source code into an AST.
//
// Parsing stops at the first syntax error. The error is available through
// Errors, and Incomplete reports whether it was caused by the input ending
// too early.
type Parser struct {
	l      *lexer.Lexer
	errors []*diagnostic.Diagnostic
	source string

	incomplete bool

	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a new Parser.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		source: l.Source(),
	}

	// Register prefix parse functions
	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.TOKEN_IDENT, p.parseReference)
	p.registerPrefix(lexer.TOKEN_NUMBER, p.parseNumberLiteral)
	p.registerPrefix(lexer.TOKEN_STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TOKEN_TRUE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.TOKEN_FALSE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.TOKEN_LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.TOKEN_LBRACE, p.parseRecordLiteral)
	p.registerPrefix(lexer.TOKEN_LPAREN, p.parseFunctionLiteral)
	p.registerPrefix(lexer.TOKEN_TYPE, p.parseArkLiteral)
	p.registerPrefix(lexer.TOKEN_AMPERSAND, p.parseShorthandCall)
	p.registerPrefix(lexer.TOKEN_EMBODY, p.parseEmbodyExpression)

	// Register infix parse functions
	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	p.registerInfix(lexer.TOKEN_PLUS, p.parseArithmeticExpression)
	p.registerInfix(lexer.TOKEN_MINUS, p.parseArithmeticExpression)
	p.registerInfix(lexer.TOKEN_ASTERISK, p.parseArithmeticExpression)
	p.registerInfix(lexer.TOKEN_SLASH, p.parseArithmeticExpression)
	p.registerInfix(lexer.TOKEN_CARET, p.parseArithmeticExpression)
	p.registerInfix(lexer.TOKEN_LPAREN, p.parseCallExpression)
	p.registerInfix(lexer.TOKEN_LT, p.parseIndexExpression)

	// Read two tokens to initialize curToken and peekToken
	p.peekToken = l.NextToken()
	p.nextToken()

	return p
}

// Errors returns the parser errors.
func (p *Parser) Errors() []*diagnostic.Diagnostic {
	return p.errors
}

// Incomplete reports whether the first error was hit at the end of input,
// i.e. more text could still make the program valid.
func (p *Parser) Incomplete() bool {
	return p.incomplete
}

// ParseProgram parses the entire program.
func (p *Parser) ParseProgram() *ast.Program {
	return p.parseProgram(lexer.TOKEN_EOF)
}

// ParseExpression parses a single expression spanning the whole input.
func (p *Parser) ParseExpression() ast.Expression {
	expr := p.parseExpression(LOWEST)
	if p.failed() {
		return nil
	}
	if !p.peekTokenIs(lexer.TOKEN_EOF) {
		p.errorAt(p.peekToken, "unexpected %s after expression", describe(p.peekToken))
		return nil
	}
	return expr
}

// parseProgram parses Use* Statement* Provide? up to the end token, which is
// left as the current token.
func (p *Parser) parseProgram(end lexer.TokenType) *ast.Program {
	program := &ast.Program{}

	for p.curTokenIs(lexer.TOKEN_USE) || p.curTokenIs(lexer.TOKEN_SEMICOLON) {
		if p.curTokenIs(lexer.TOKEN_USE) {
			use := p.parseUseStatement()
			if use == nil {
				return program
			}
			program.Uses = append(program.Uses, use)
		}
		p.nextToken()
	}

	program.Statements, program.Provides = p.parseStatements(end, true)
	return program
}

// parseStatements reads statements until the end token. When allowProvide is
// set a trailing provide expression is accepted and must be followed by end.
func (p *Parser) parseStatements(end lexer.TokenType, allowProvide bool) ([]ast.Statement, ast.Expression) {
	statements := []ast.Statement{}

	for !p.curTokenIs(end) {
		if p.failed() {
			return statements, nil
		}

		switch p.curToken.Type {
		case lexer.TOKEN_EOF:
			p.errorAt(p.curToken, "expected %s, got end of input", end)
			return statements, nil
		case lexer.TOKEN_SEMICOLON:
			// Skip semicolons (statement separators)
			p.nextToken()
			continue
		case lexer.TOKEN_PROVIDE:
			if !allowProvide {
				p.errorAt(p.curToken, "provide is not allowed in this block")
				return statements, nil
			}
			provides := p.parseProvide(end)
			return statements, provides
		}

		stmt := p.parseStatement()
		if stmt == nil || p.failed() {
			return statements, nil
		}
		statements = append(statements, stmt)
		p.nextToken()
	}

	return statements, nil
}

// parseProvide parses provide <expr> and advances onto the end token.
func (p *Parser) parseProvide(end lexer.TokenType) ast.Expression {
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	for p.peekTokenIs(lexer.TOKEN_SEMICOLON) {
		p.nextToken()
	}
	if !p.expectPeek(end) {
		return nil
	}
	return expr
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.TOKEN_COMMENT:
		return &ast.CommentStatement{Token: p.curToken, Text: p.curToken.Literal}
	case lexer.TOKEN_TYPE:
		if p.peekTokenIs(lexer.TOKEN_COLON) || p.peekTokenIs(lexer.TOKEN_DOT) {
			return p.parseVariableDefinition()
		}
		return p.parseExpressionStatement()
	case lexer.TOKEN_IF:
		return p.parseIfStatement()
	case lexer.TOKEN_FOR:
		return p.parseForStatement()
	case lexer.TOKEN_USE:
		p.errorAt(p.curToken, "use declarations must come before any statement")
		return nil
	case lexer.TOKEN_IDENT:
		if p.peekTokenIs(lexer.TOKEN_INCREMENT) || p.peekTokenIs(lexer.TOKEN_DECREMENT) {
			return p.parseQuantityModifier()
		}
		if _, ok := assignOps[p.peekToken.Type]; ok {
			return p.parseAssignStatement()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}

// parseVariableDefinition parses Sort:name value.
func (p *Parser) parseVariableDefinition() ast.Statement {
	stmt := &ast.VariableDefinition{Token: p.curToken}

	sort, ok := p.parseSort()
	if !ok {
		return nil
	}
	stmt.Sort = sort

	if !p.expectPeek(lexer.TOKEN_COLON) {
		return nil
	}
	if !p.expectPeek(lexer.TOKEN_IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

// parseSort parses a type annotation starting at the current TYPE token:
// a base type, or Array/Record/Function followed by .Sort. The current
// token is left on the last type name.
func (p *Parser) parseSort() (sorts.Sort, bool) {
	if !p.curTokenIs(lexer.TOKEN_TYPE) {
		p.errorAt(p.curToken, "expected a type name, got %s", describe(p.curToken))
		return sorts.Sort{}, false
	}

	kind, ok := sorts.LookupKind(p.curToken.Literal)
	if !ok {
		p.errorAt(p.curToken, "unknown type %q", p.curToken.Literal)
		return sorts.Sort{}, false
	}
	sort := sorts.Of(kind)
	sort.Position = p.curToken.Position()

	if !kind.IsParametric() {
		if p.peekTokenIs(lexer.TOKEN_DOT) {
			p.errorAt(p.peekToken, "type %s does not take an element type", kind)
			return sorts.Sort{}, false
		}
		return sort, true
	}

	if !p.peekTokenIs(lexer.TOKEN_DOT) {
		p.errorAt(p.peekToken, "type %s needs an element type, as in %s.Int", kind, kind)
		return sorts.Sort{}, false
	}
	p.nextToken() // '.'
	if !p.expectPeek(lexer.TOKEN_TYPE) {
		return sorts.Sort{}, false
	}
	element, ok := p.parseSort()
	if !ok {
		return sorts.Sort{}, false
	}
	sort.Element = &element
	return sort, true
}

func (p *Parser) parseQuantityModifier() ast.Statement {
	target := &ast.Reference{Token: p.curToken, Name: p.curToken.Literal}
	p.nextToken()
	return &ast.QuantityModifier{
		Token:     p.curToken,
		Target:    target,
		Increment: p.curTokenIs(lexer.TOKEN_INCREMENT),
	}
}

func (p *Parser) parseAssignStatement() ast.Statement {
	target := &ast.Reference{Token: p.curToken, Name: p.curToken.Literal}
	p.nextToken()
	stmt := &ast.AssignStatement{
		Token:    p.curToken,
		Target:   target,
		Operator: assignOps[p.curToken.Type],
	}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

// parseIfStatement parses if <condition> { body provide? }.
func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}

	if !p.expectPeek(lexer.TOKEN_LBRACE) {
		return nil
	}
	p.nextToken()
	stmt.Body, stmt.Provides = p.parseStatements(lexer.TOKEN_RBRACE, true)
	if p.failed() {
		return nil
	}
	return stmt
}

// parseForStatement parses for <iterable> as <name> { body }.
func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}

	p.nextToken()
	stmt.Iterable = p.parseExpression(LOWEST)
	if stmt.Iterable == nil {
		return nil
	}

	if !p.expectPeek(lexer.TOKEN_AS) {
		return nil
	}
	if !p.expectPeek(lexer.TOKEN_IDENT) {
		return nil
	}
	stmt.Placeholder = p.curToken.Literal

	if !p.expectPeek(lexer.TOKEN_LBRACE) {
		return nil
	}
	p.nextToken()
	stmt.Body, _ = p.parseStatements(lexer.TOKEN_RBRACE, false)
	if p.failed() {
		return nil
	}
	return stmt
}

// parseUseStatement parses use [a, b] from "path" or use All from "path".
func (p *Parser) parseUseStatement() *ast.UseStatement {
	stmt := &ast.UseStatement{Token: p.curToken}

	switch {
	case p.peekTokenIs(lexer.TOKEN_ALL):
		p.nextToken()
		stmt.All = true
	case p.peekTokenIs(lexer.TOKEN_LBRACKET):
		p.nextToken()
		stmt.Names = []*ast.Reference{}
		if p.peekTokenIs(lexer.TOKEN_RBRACKET) {
			p.nextToken()
			break
		}
		for {
			if !p.expectPeek(lexer.TOKEN_IDENT) {
				return nil
			}
			stmt.Names = append(stmt.Names, &ast.Reference{Token: p.curToken, Name: p.curToken.Literal})
			if !p.peekTokenIs(lexer.TOKEN_COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(lexer.TOKEN_RBRACKET) {
			return nil
		}
	default:
		p.errorAt(p.peekToken, "expected All or a [name, ...] list after use, got %s", describe(p.peekToken))
		return nil
	}

	if !p.expectPeek(lexer.TOKEN_FROM) {
		return nil
	}
	if !p.expectPeek(lexer.TOKEN_STRING) {
		return nil
	}
	stmt.Source = p.curToken.Literal
	return stmt
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	if p.failed() {
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !p.peekTokenIs(lexer.TOKEN_EOF) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) parseReference() ast.Expression {
	return &ast.Reference{Token: p.curToken, Name: p.curToken.Literal}
}

// parseNumberLiteral classifies a number as Double when it has a fraction.
func (p *Parser) parseNumberLiteral() ast.Expression {
	literal := p.curToken.Literal

	if strings.Contains(literal, ".") {
		value, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			p.errorAt(p.curToken, "could not parse %q as Double", literal)
			return nil
		}
		return &ast.DoubleLiteral{Token: p.curToken, Value: value}
	}

	value, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		p.errorAt(p.curToken, "integer literal %s is out of range", literal)
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(lexer.TOKEN_TRUE)}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	array := &ast.ArrayLiteral{Token: p.curToken}
	array.Elements = p.parseExpressionList(lexer.TOKEN_RBRACKET)
	if array.Elements == nil {
		return nil
	}
	return array
}

// parseRecordLiteral parses {"key": value, ...}.
func (p *Parser) parseRecordLiteral() ast.Expression {
	record := &ast.RecordLiteral{Token: p.curToken, Entries: []*ast.RecordEntry{}}

	if p.peekTokenIs(lexer.TOKEN_RBRACE) {
		p.nextToken()
		return record
	}

	for {
		if !p.expectPeek(lexer.TOKEN_STRING) {
			return nil
		}
		key := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
		if !p.expectPeek(lexer.TOKEN_COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		record.Entries = append(record.Entries, &ast.RecordEntry{Key: key, Value: value})

		if !p.peekTokenIs(lexer.TOKEN_COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(lexer.TOKEN_RBRACE) {
		return nil
	}
	return record
}

// parseFunctionLiteral parses (params) { body provide? }.
func (p *Parser) parseFunctionLiteral() ast.Expression {
	fn := &ast.FunctionLiteral{Token: p.curToken}

	params, ok := p.parseParameters()
	if !ok {
		return nil
	}
	fn.Parameters = params

	if !p.expectPeek(lexer.TOKEN_LBRACE) {
		return nil
	}
	p.nextToken()
	fn.Body, fn.Provides = p.parseStatements(lexer.TOKEN_RBRACE, true)
	if p.failed() {
		return nil
	}
	return fn
}

// parseParameters parses "Sort name?" entries separated by commas, up to
// and including the closing parenthesis. "Sort:name" is accepted as well.
func (p *Parser) parseParameters() ([]*ast.Parameter, bool) {
	params := []*ast.Parameter{}

	if p.peekTokenIs(lexer.TOKEN_RPAREN) {
		p.nextToken()
		return params, true
	}

	for {
		if !p.expectPeek(lexer.TOKEN_TYPE) {
			return nil, false
		}
		position := p.curToken.Position()
		sort, ok := p.parseSort()
		if !ok {
			return nil, false
		}
		if p.peekTokenIs(lexer.TOKEN_COLON) {
			p.nextToken()
		}
		if !p.expectPeek(lexer.TOKEN_IDENT) {
			return nil, false
		}
		param := &ast.Parameter{Sort: sort, Name: p.curToken.Literal, Position: position}
		if p.peekTokenIs(lexer.TOKEN_QUESTION) {
			p.nextToken()
			param.Optional = true
		}
		params = append(params, param)

		if !p.peekTokenIs(lexer.TOKEN_COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(lexer.TOKEN_RPAREN) {
		return nil, false
	}
	return params, true
}

// parseArkLiteral parses Ark { program }. Other type names cannot start an
// expression.
func (p *Parser) parseArkLiteral() ast.Expression {
	if p.curToken.Literal != "Ark" || !p.peekTokenIs(lexer.TOKEN_LBRACE) {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}

	ark := &ast.ArkLiteral{Token: p.curToken}
	p.nextToken() // '{'
	p.nextToken()
	ark.Program = p.parseProgram(lexer.TOKEN_RBRACE)
	if p.failed() {
		return nil
	}
	return ark
}

// parseShorthandCall parses &callee, a call without arguments.
func (p *Parser) parseShorthandCall() ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Arguments: []ast.Expression{}}
	p.nextToken()
	call.Callee = p.parseExpression(EXPONENT)
	if call.Callee == nil {
		return nil
	}
	return call
}

// parseEmbodyExpression parses embody <target> { args }.
func (p *Parser) parseEmbodyExpression() ast.Expression {
	embody := &ast.EmbodyExpression{Token: p.curToken}
	p.nextToken()
	embody.Target = p.parseExpression(EXPONENT)
	if embody.Target == nil {
		return nil
	}
	if !p.expectPeek(lexer.TOKEN_LBRACE) {
		return nil
	}
	embody.Arguments = p.parseExpressionList(lexer.TOKEN_RBRACE)
	if embody.Arguments == nil {
		return nil
	}
	return embody
}

func (p *Parser) parseArithmeticExpression(left ast.Expression) ast.Expression {
	expression := &ast.ArithmeticExpression{
		Token:    p.curToken,
		Operator: arithmeticOps[p.curToken.Type],
		Left:     left,
	}

	precedence := p.curPrecedence()
	if expression.Operator == ast.Exponent {
		precedence--
	}
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken, Callee: callee}
	exp.Arguments = p.parseExpressionList(lexer.TOKEN_RPAREN)
	if exp.Arguments == nil {
		return nil
	}
	return exp
}

func (p *Parser) parseIndexExpression(source ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Source: source}

	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)
	if exp.Index == nil {
		return nil
	}

	if !p.expectPeek(lexer.TOKEN_GT) {
		return nil
	}

	return exp
}

// parseExpressionList parses comma separated expressions up to end. It
// returns nil on error and an empty slice for an empty list.
func (p *Parser) parseExpressionList(end lexer.TokenType) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	list = append(list, expr)

	for p.peekTokenIs(lexer.TOKEN_COMMA) {
		p.nextToken()
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		list = append(list, expr)
	}

	if !p.expectPeek(end) {
		return nil
	}

	return list
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.curToken.Type == lexer.TOKEN_EOF || p.curToken.Type == lexer.TOKEN_ILLEGAL {
		// Stay on the terminal token.
		p.peekToken = p.curToken
		return
	}
	p.peekToken = p.l.NextToken()
}

// peekPrecedence returns the binding power of the next token. A '(' on a
// later line starts a new statement rather than calling the expression.
func (p *Parser) peekPrecedence() int {
	if p.peekTokenIs(lexer.TOKEN_LPAREN) && p.peekToken.Line != p.curToken.Line {
		return LOWEST
	}
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

func (p *Parser) peekError(t lexer.TokenType) {
	p.errorAt(p.peekToken, "expected %s, got %s instead", t, describe(p.peekToken))
}

func (p *Parser) noPrefixParseFnError(tok lexer.Token) {
	p.errorAt(tok, "unexpected %s at the start of an expression", describe(tok))
}

// errorAt records a SyntaxError at tok. Only the first error is kept; an
// illegal token reports the lexer's explanation instead of format.
func (p *Parser) errorAt(tok lexer.Token, format string, args ...any) {
	if p.failed() {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if tok.Type == lexer.TOKEN_ILLEGAL && tok.Err != "" {
		msg = tok.Err
	}
	p.incomplete = tok.Type == lexer.TOKEN_EOF ||
		(tok.Type == lexer.TOKEN_ILLEGAL && tok.Err == "unterminated comment")

	d := diagnostic.New(diagnostic.SyntaxError, tok.Position(), "%s", msg)
	d.SourceLine = diagnostic.LineAt(p.source, tok.Line)
	p.errors = append(p.errors, d)
}

// describe renders a token for error messages.
func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TOKEN_EOF:
		return "end of input"
	case lexer.TOKEN_IDENT:
		return fmt.Sprintf("identifier %q", tok.Literal)
	case lexer.TOKEN_NUMBER:
		return fmt.Sprintf("number %s", tok.Literal)
	case lexer.TOKEN_STRING:
		return fmt.Sprintf("string %q", tok.Literal)
	case lexer.TOKEN_TYPE:
		return fmt.Sprintf("type %s", tok.Literal)
	case lexer.TOKEN_COMMENT:
		return "comment"
	}
	return fmt.Sprintf("'%s'", tok.Type)
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
