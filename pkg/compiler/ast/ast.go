// Package ast defines the syntax tree produced by the parser.
//
// Nodes fall into three families: primitives (literals, including function
// and Ark literals), expressions (references, indexing, arithmetic, calls,
// embody) and statements. Every node records the token it started from so
// that diagnostics can point at it.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/zurustar/fragment/pkg/compiler/lexer"
	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/sorts"
)

type Node interface {
	TokenLiteral() string
	String() string
	Pos() diagnostic.Position
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: use declarations, statements and an optional
// trailing provide expression. Ark literals carry a nested Program.
type Program struct {
	Uses       []*UseStatement
	Statements []Statement
	Provides   Expression
}

func (p *Program) TokenLiteral() string {
	if len(p.Uses) > 0 {
		return p.Uses[0].TokenLiteral()
	}
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Pos() diagnostic.Position {
	if len(p.Uses) > 0 {
		return p.Uses[0].Pos()
	}
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	if p.Provides != nil {
		return p.Provides.Pos()
	}
	return diagnostic.Position{Line: 1, Column: 1}
}

func (p *Program) String() string {
	var lines []string
	for _, u := range p.Uses {
		lines = append(lines, u.String())
	}
	for _, s := range p.Statements {
		lines = append(lines, s.String())
	}
	if p.Provides != nil {
		lines = append(lines, "provide "+p.Provides.String())
	}
	return strings.Join(lines, "\n")
}

func tokenPos(t lexer.Token) diagnostic.Position {
	return diagnostic.Position{Line: t.Line, Column: t.Column}
}

// Primitives

type IntegerLiteral struct {
	Token lexer.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()          {}
func (il *IntegerLiteral) TokenLiteral() string     { return il.Token.Literal }
func (il *IntegerLiteral) String() string           { return il.Token.Literal }
func (il *IntegerLiteral) Pos() diagnostic.Position { return tokenPos(il.Token) }

type DoubleLiteral struct {
	Token lexer.Token
	Value float64
}

func (dl *DoubleLiteral) expressionNode()          {}
func (dl *DoubleLiteral) TokenLiteral() string     { return dl.Token.Literal }
func (dl *DoubleLiteral) String() string           { return dl.Token.Literal }
func (dl *DoubleLiteral) Pos() diagnostic.Position { return tokenPos(dl.Token) }

type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()          {}
func (sl *StringLiteral) TokenLiteral() string     { return sl.Token.Literal }
func (sl *StringLiteral) String() string           { return strconv.Quote(sl.Value) }
func (sl *StringLiteral) Pos() diagnostic.Position { return tokenPos(sl.Token) }

type BooleanLiteral struct {
	Token lexer.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()          {}
func (bl *BooleanLiteral) TokenLiteral() string     { return bl.Token.Literal }
func (bl *BooleanLiteral) String() string           { return bl.Token.Literal }
func (bl *BooleanLiteral) Pos() diagnostic.Position { return tokenPos(bl.Token) }

// ArrayLiteral represents [a, b, c].
type ArrayLiteral struct {
	Token    lexer.Token // the '[' token
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()          {}
func (al *ArrayLiteral) TokenLiteral() string     { return al.Token.Literal }
func (al *ArrayLiteral) Pos() diagnostic.Position { return tokenPos(al.Token) }
func (al *ArrayLiteral) String() string {
	return "[" + joinExpressions(al.Elements) + "]"
}

// RecordEntry is one "key": value pair of a record literal.
type RecordEntry struct {
	Key   *StringLiteral
	Value Expression
}

// RecordLiteral represents {"a": 1, "b": 2}. Entries keep source order.
type RecordLiteral struct {
	Token   lexer.Token // the '{' token
	Entries []*RecordEntry
}

func (rl *RecordLiteral) expressionNode()          {}
func (rl *RecordLiteral) TokenLiteral() string     { return rl.Token.Literal }
func (rl *RecordLiteral) Pos() diagnostic.Position { return tokenPos(rl.Token) }
func (rl *RecordLiteral) String() string {
	entries := make([]string, len(rl.Entries))
	for i, e := range rl.Entries {
		entries[i] = e.Key.String() + ": " + e.Value.String()
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

// Parameter is a declared function parameter: Int n or Int n? when optional.
type Parameter struct {
	Sort     sorts.Sort
	Name     string
	Optional bool
	Position diagnostic.Position
}

func (p *Parameter) String() string {
	s := p.Sort.String() + " " + p.Name
	if p.Optional {
		s += "?"
	}
	return s
}

// FunctionLiteral represents (Int a, Int b?) { body provide expr }.
type FunctionLiteral struct {
	Token      lexer.Token // the '(' token
	Parameters []*Parameter
	Body       []Statement
	Provides   Expression
}

func (fl *FunctionLiteral) expressionNode()          {}
func (fl *FunctionLiteral) TokenLiteral() string     { return fl.Token.Literal }
func (fl *FunctionLiteral) Pos() diagnostic.Position { return tokenPos(fl.Token) }
func (fl *FunctionLiteral) String() string {
	var out bytes.Buffer
	params := make([]string, len(fl.Parameters))
	for i, p := range fl.Parameters {
		params[i] = p.String()
	}
	out.WriteString("(" + strings.Join(params, ", ") + ") ")
	out.WriteString(blockString(fl.Body, fl.Provides))
	return out.String()
}

// ArkLiteral represents Ark { program }: an unevaluated nested program.
type ArkLiteral struct {
	Token   lexer.Token // the 'Ark' token
	Program *Program
}

func (al *ArkLiteral) expressionNode()          {}
func (al *ArkLiteral) TokenLiteral() string     { return al.Token.Literal }
func (al *ArkLiteral) Pos() diagnostic.Position { return tokenPos(al.Token) }
func (al *ArkLiteral) String() string {
	body := al.Program.String()
	if body == "" {
		return "Ark {}"
	}
	return "Ark { " + strings.ReplaceAll(body, "\n", "; ") + " }"
}

// Expressions

// Reference is a name lookup.
type Reference struct {
	Token lexer.Token
	Name  string
}

func (r *Reference) expressionNode()          {}
func (r *Reference) TokenLiteral() string     { return r.Token.Literal }
func (r *Reference) String() string           { return r.Name }
func (r *Reference) Pos() diagnostic.Position { return tokenPos(r.Token) }

// IndexExpression represents source<index>.
type IndexExpression struct {
	Token  lexer.Token // the '<' token
	Source Expression
	Index  Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) Pos() diagnostic.Position {
	return ie.Source.Pos()
}
func (ie *IndexExpression) String() string {
	return ie.Source.String() + "<" + ie.Index.String() + ">"
}

// ArithmeticOp names a binary arithmetic operator.
type ArithmeticOp int

const (
	Addition ArithmeticOp = iota
	Subtraction
	Multiplication
	Division
	Exponent
)

var arithmeticNames = map[ArithmeticOp]string{
	Addition:       "addition",
	Subtraction:    "subtraction",
	Multiplication: "multiplication",
	Division:       "division",
	Exponent:       "exponent",
}

var arithmeticSymbols = map[ArithmeticOp]string{
	Addition:       "+",
	Subtraction:    "-",
	Multiplication: "*",
	Division:       "/",
	Exponent:       "^",
}

func (op ArithmeticOp) String() string { return arithmeticNames[op] }

// Symbol returns the operator as written in source.
func (op ArithmeticOp) Symbol() string { return arithmeticSymbols[op] }

// ArithmeticExpression is a binary operation. Its position is the operator's.
type ArithmeticExpression struct {
	Token    lexer.Token // the operator token
	Operator ArithmeticOp
	Left     Expression
	Right    Expression
}

func (ae *ArithmeticExpression) expressionNode()          {}
func (ae *ArithmeticExpression) TokenLiteral() string     { return ae.Token.Literal }
func (ae *ArithmeticExpression) Pos() diagnostic.Position { return tokenPos(ae.Token) }
func (ae *ArithmeticExpression) String() string {
	return "(" + ae.Left.String() + " " + ae.Operator.Symbol() + " " + ae.Right.String() + ")"
}

// CallExpression represents callee(args) and the &callee shorthand.
type CallExpression struct {
	Token     lexer.Token // the '(' or '&' token
	Callee    Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()          {}
func (ce *CallExpression) TokenLiteral() string     { return ce.Token.Literal }
func (ce *CallExpression) Pos() diagnostic.Position { return ce.Callee.Pos() }
func (ce *CallExpression) String() string {
	return ce.Callee.String() + "(" + joinExpressions(ce.Arguments) + ")"
}

// EmbodyExpression represents embody target { args }.
type EmbodyExpression struct {
	Token     lexer.Token // the 'embody' token
	Target    Expression
	Arguments []Expression
}

func (ee *EmbodyExpression) expressionNode()          {}
func (ee *EmbodyExpression) TokenLiteral() string     { return ee.Token.Literal }
func (ee *EmbodyExpression) Pos() diagnostic.Position { return tokenPos(ee.Token) }
func (ee *EmbodyExpression) String() string {
	return "embody " + ee.Target.String() + " {" + joinExpressions(ee.Arguments) + "}"
}

// Statements

// VariableDefinition represents Sort:name value.
type VariableDefinition struct {
	Token lexer.Token // the first type token
	Sort  sorts.Sort
	Name  string
	Value Expression
}

func (vd *VariableDefinition) statementNode()           {}
func (vd *VariableDefinition) TokenLiteral() string     { return vd.Token.Literal }
func (vd *VariableDefinition) Pos() diagnostic.Position { return tokenPos(vd.Token) }
func (vd *VariableDefinition) String() string {
	return vd.Sort.String() + ":" + vd.Name + " " + vd.Value.String()
}

// CommentStatement represents # text #.
type CommentStatement struct {
	Token lexer.Token
	Text  string
}

func (cs *CommentStatement) statementNode()           {}
func (cs *CommentStatement) TokenLiteral() string     { return cs.Token.Literal }
func (cs *CommentStatement) Pos() diagnostic.Position { return tokenPos(cs.Token) }
func (cs *CommentStatement) String() string           { return "#" + cs.Text + "#" }

// QuantityModifier represents name++ and name--.
type QuantityModifier struct {
	Token     lexer.Token // the '++' or '--' token
	Target    *Reference
	Increment bool
}

func (qm *QuantityModifier) statementNode()           {}
func (qm *QuantityModifier) TokenLiteral() string     { return qm.Token.Literal }
func (qm *QuantityModifier) Pos() diagnostic.Position { return qm.Target.Pos() }
func (qm *QuantityModifier) String() string {
	if qm.Increment {
		return qm.Target.Name + "++"
	}
	return qm.Target.Name + "--"
}

// AssignStatement represents name :+ value and its :- :* :/ siblings.
type AssignStatement struct {
	Token    lexer.Token // the compound operator token
	Target   *Reference
	Operator ArithmeticOp // Addition, Subtraction, Multiplication or Division
	Value    Expression
}

func (as *AssignStatement) statementNode()           {}
func (as *AssignStatement) TokenLiteral() string     { return as.Token.Literal }
func (as *AssignStatement) Pos() diagnostic.Position { return as.Target.Pos() }
func (as *AssignStatement) String() string {
	return as.Target.Name + " :" + as.Operator.Symbol() + " " + as.Value.String()
}

// IfStatement has no else branch.
type IfStatement struct {
	Token     lexer.Token
	Condition Expression
	Body      []Statement
	Provides  Expression
}

func (is *IfStatement) statementNode()           {}
func (is *IfStatement) TokenLiteral() string     { return is.Token.Literal }
func (is *IfStatement) Pos() diagnostic.Position { return tokenPos(is.Token) }
func (is *IfStatement) String() string {
	return "if " + is.Condition.String() + " " + blockString(is.Body, is.Provides)
}

// ForStatement represents for iterable as placeholder { body }.
type ForStatement struct {
	Token       lexer.Token
	Iterable    Expression
	Placeholder string
	Body        []Statement
}

func (fs *ForStatement) statementNode()           {}
func (fs *ForStatement) TokenLiteral() string     { return fs.Token.Literal }
func (fs *ForStatement) Pos() diagnostic.Position { return tokenPos(fs.Token) }
func (fs *ForStatement) String() string {
	return "for " + fs.Iterable.String() + " as " + fs.Placeholder + " " + blockString(fs.Body, nil)
}

// UseStatement represents use [a, b] from "path" and use All from "path".
type UseStatement struct {
	Token  lexer.Token
	Source string
	All    bool
	Names  []*Reference
}

func (us *UseStatement) statementNode()           {}
func (us *UseStatement) TokenLiteral() string     { return us.Token.Literal }
func (us *UseStatement) Pos() diagnostic.Position { return tokenPos(us.Token) }
func (us *UseStatement) String() string {
	what := "All"
	if !us.All {
		names := make([]string, len(us.Names))
		for i, n := range us.Names {
			names[i] = n.Name
		}
		what = "[" + strings.Join(names, ", ") + "]"
	}
	return "use " + what + " from " + strconv.Quote(us.Source)
}

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	Token      lexer.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode()           {}
func (es *ExpressionStatement) TokenLiteral() string     { return es.Token.Literal }
func (es *ExpressionStatement) Pos() diagnostic.Position { return es.Expression.Pos() }
func (es *ExpressionStatement) String() string           { return es.Expression.String() }

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

func blockString(body []Statement, provides Expression) string {
	parts := make([]string, 0, len(body)+1)
	for _, s := range body {
		parts = append(parts, s.String())
	}
	if provides != nil {
		parts = append(parts, "provide "+provides.String())
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}
