// Package sorts implements the recursive type descriptor of the language.
//
// A Sort is a kind plus, for the parametric kinds Array, Record and Function,
// an element Sort describing respectively the item type, the record value
// type and the function return type. Occult is the universal kind: it is
// compatible with every other Sort in both directions.
package sorts

import (
	"strings"

	"github.com/zurustar/fragment/pkg/diagnostic"
)

// Kind is the outer kind of a Sort.
type Kind int

const (
	Function Kind = iota
	Boolean
	String
	Int
	Double
	Array
	Record
	Ark
	Occult
)

var kindNames = map[Kind]string{
	Function: "Function",
	Boolean:  "Boolean",
	String:   "String",
	Int:      "Int",
	Double:   "Double",
	Array:    "Array",
	Record:   "Record",
	Ark:      "Ark",
	Occult:   "Occult",
}

// String returns the kind's name as written in type annotations.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsParametric reports whether the kind carries an element Sort.
func (k Kind) IsParametric() bool {
	return k == Array || k == Record || k == Function
}

// IsNumeric reports whether the kind is Int or Double.
func (k Kind) IsNumeric() bool {
	return k == Int || k == Double
}

// LookupKind maps a type name to its Kind.
func LookupKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Sort is a type descriptor. Element is nil for scalar kinds and for
// parametric kinds whose element is unknown (e.g. a bare array literal
// before it is bound to a declared Sort).
type Sort struct {
	Kind     Kind
	Element  *Sort
	Position diagnostic.Position
}

// Of returns a Sort of the given kind without an element.
func Of(kind Kind) Sort {
	return Sort{Kind: kind}
}

// Parametric returns kind.element, e.g. Parametric(Array, Of(Int)) is Array.Int.
func Parametric(kind Kind, element Sort) Sort {
	e := element
	return Sort{Kind: kind, Element: &e}
}

// ArrayOf is shorthand for Parametric(Array, element).
func ArrayOf(element Sort) Sort { return Parametric(Array, element) }

// RecordOf is shorthand for Parametric(Record, element).
func RecordOf(element Sort) Sort { return Parametric(Record, element) }

// FunctionOf is shorthand for Parametric(Function, returns).
func FunctionOf(returns Sort) Sort { return Parametric(Function, returns) }

// ElementKind returns the element's kind and whether there is one.
func (s Sort) ElementKind() (Kind, bool) {
	if s.Element == nil {
		return 0, false
	}
	return s.Element.Kind, true
}

// String renders the Sort in annotation syntax, e.g. "Array.Record.String".
func (s Sort) String() string {
	var b strings.Builder
	cur := &s
	for cur != nil {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(cur.Kind.String())
		cur = cur.Element
	}
	return b.String()
}

// Equal reports whether two Sorts have the same shape. Positions are
// ignored. Unlike Compatible it does not treat Occult as a wildcard.
func (s Sort) Equal(o Sort) bool {
	if s.Kind != o.Kind {
		return false
	}
	if s.Element == nil || o.Element == nil {
		return s.Element == nil && o.Element == nil
	}
	return s.Element.Equal(*o.Element)
}

// Compatible decides whether a value of one Sort may stand where the other
// is expected. It is the single place where the Occult wildcard rule lives:
//
//   - either side Occult: compatible;
//   - scalar kinds (and Ark): compatible iff the kinds are equal;
//   - parametric kinds: the outer kinds must match, then
//   - both elements present: recurse;
//   - exactly one element present: compatible iff that element is Occult;
//   - no element on either side: not compatible.
func Compatible(a, b Sort) bool {
	if a.Kind == Occult || b.Kind == Occult {
		return true
	}
	if !a.Kind.IsParametric() {
		return a.Kind == b.Kind
	}
	if a.Kind != b.Kind {
		return false
	}

	switch {
	case a.Element != nil && b.Element != nil:
		return Compatible(*a.Element, *b.Element)
	case a.Element != nil:
		return a.Element.Kind == Occult
	case b.Element != nil:
		return b.Element.Kind == Occult
	default:
		return false
	}
}
