// Package diagnostic defines the structured error record shared by the
// lexer, parser, evaluator and module resolver.
//
// Every language-level failure is a *Diagnostic. It carries the error kind,
// a human-readable message, the 1-based source position and, once attached to
// a fragment, the file name and the offending source line so that Render can
// draw a caret under the reported column.
package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Position is a 1-based line/column pair attached to every AST node and
// runtime error.
type Position struct {
	Line   int
	Column int
}

// String returns "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position points into a source text.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// Kind classifies a diagnostic.
type Kind string

const (
	SyntaxError             Kind = "SyntaxError"
	UnknownType             Kind = "UnknownType"
	UnknownStatement        Kind = "UnknownStatement"
	UndeclaredVariable      Kind = "UndeclaredVariable"
	UnindexableType         Kind = "UnindexableType"
	UndeclaredElement       Kind = "UndeclaredElement"
	UnperformableArithmetic Kind = "UnperformableArithmetic"
	UncallableReference     Kind = "UncallableReference"
	TypeMismatch            Kind = "TypeMismatch"
	DuplicateElement        Kind = "DuplicateElement"
	AnticipatedArgument     Kind = "AnticipatedArgument"

	// Host and resolver failures.
	CyclicDependency Kind = "CyclicDependency"
	UnresolvablePath Kind = "UnresolvablePath"
	StackOverflow    Kind = "StackOverflow"
	NativeFailure    Kind = "NativeFailure"
)

// headlines holds the one-line summary printed above the message.
var headlines = map[Kind]string{
	SyntaxError:             "The program does not follow the grammar",
	UnknownType:             "Unknown type is found while resolving the primitive",
	UnknownStatement:        "Unknown statement is found while resolving the statement",
	UndeclaredVariable:      "Undeclared variable is found while resolving an expression",
	UnindexableType:         "Cannot index this construct with given type",
	UndeclaredElement:       "Undeclared element is found while resolving an expression",
	UnperformableArithmetic: "Cannot perform arithmetic between these types",
	UncallableReference:     "Referenced variable is uncallable",
	TypeMismatch:            "There is a type mismatch in given program",
	DuplicateElement:        "There is duplicate of an element in given program",
	AnticipatedArgument:     "A function anticipated an argument",
	CyclicDependency:        "Fragments depend on each other in a cycle",
	UnresolvablePath:        "Unable to resolve the given path",
	StackOverflow:           "Maximum call depth exceeded",
	NativeFailure:           "A native capability failed",
}

// Headline returns the fixed summary sentence for the kind.
func (k Kind) Headline() string {
	if h, ok := headlines[k]; ok {
		return h
	}
	return string(k)
}

// Diagnostic is a single fatal error with its source context.
type Diagnostic struct {
	Kind     Kind
	Message  string
	Hint     string
	Position Position

	// File and SourceLine are filled in by Attach once the diagnostic
	// reaches the fragment that owns the source text.
	File       string
	SourceLine string
}

// New creates a diagnostic at the given position.
func New(kind Kind, pos Position, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
	}
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.File != "" {
		b.WriteString(d.File)
		b.WriteByte(':')
	}
	if d.Position.IsValid() {
		b.WriteString(d.Position.String())
		b.WriteString(": ")
	} else if d.File != "" {
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%s: %s", d.Kind, d.Message)
	if d.Hint != "" {
		fmt.Fprintf(&b, " (%s)", d.Hint)
	}
	return b.String()
}

// WithHint sets the hint and returns the diagnostic for chaining.
func (d *Diagnostic) WithHint(hint string) *Diagnostic {
	d.Hint = hint
	return d
}

// Attach records the file name and the source line at the diagnostic's
// position. A diagnostic that already carries a file is left untouched so
// that errors raised inside a dependency keep pointing at the dependency.
func (d *Diagnostic) Attach(file, source string) *Diagnostic {
	if d.File != "" {
		return d
	}
	d.File = file
	d.SourceLine = LineAt(source, d.Position.Line)
	return d
}

// LineAt returns the 1-based line of source, without its line terminator.
// It returns "" when the line does not exist.
func LineAt(source string, line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}

// As extracts a *Diagnostic from err.
func As(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
