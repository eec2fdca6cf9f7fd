package vm

import (
	"math"

	"github.com/zurustar/fragment/pkg/compiler/ast"
	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/sorts"
)

// Value is a runtime value. The set of implementations is closed:
// Int, Double, String, Boolean, *Array, *Record, *Function, *Ark and Nothing.
// Consumers switch on the concrete type.
type Value interface {
	// Sort returns the value's type descriptor. Composite values carry the
	// Sort they were stamped with by a definition, argument or provide
	// boundary; literals that were never stamped report a bare outer kind.
	Sort() sorts.Sort
	value()
}

// Int is a 64-bit signed integer.
type Int int64

// Double is a 64-bit float.
type Double float64

// String is a UTF-8 string.
type String string

// Boolean is true or false.
type Boolean bool

// Nothing is the Occult sentinel returned by statements, by functions
// declared to provide Occult and by natives without a result.
type Nothing struct{}

// Occult is the single Nothing value.
var Occult Value = Nothing{}

func (Int) Sort() sorts.Sort     { return sorts.Of(sorts.Int) }
func (Double) Sort() sorts.Sort  { return sorts.Of(sorts.Double) }
func (String) Sort() sorts.Sort  { return sorts.Of(sorts.String) }
func (Boolean) Sort() sorts.Sort { return sorts.Of(sorts.Boolean) }
func (Nothing) Sort() sorts.Sort { return sorts.Of(sorts.Occult) }

func (Int) value()     {}
func (Double) value()  {}
func (String) value()  {}
func (Boolean) value() {}
func (Nothing) value() {}

// Array is an ordered list of values.
type Array struct {
	Elements []Value
	sort     sorts.Sort
}

// NewArray returns an unstamped array.
func NewArray(elements []Value) *Array {
	return &Array{Elements: elements, sort: sorts.Of(sorts.Array)}
}

// NewArrayOf returns an array stamped as Array.element.
func NewArrayOf(element sorts.Sort, elements []Value) *Array {
	return &Array{Elements: elements, sort: sorts.ArrayOf(element)}
}

func (a *Array) Sort() sorts.Sort { return a.sort }
func (a *Array) value()           {}

// Entry is one key/value pair of a Record.
type Entry struct {
	Key   string
	Value Value
}

// Record is an ordered list of uniquely keyed entries.
type Record struct {
	Entries []Entry
	sort    sorts.Sort
}

// NewRecord returns an unstamped record.
func NewRecord(entries []Entry) *Record {
	return &Record{Entries: entries, sort: sorts.Of(sorts.Record)}
}

// NewRecordOf returns a record stamped as Record.element.
func NewRecordOf(element sorts.Sort, entries []Entry) *Record {
	return &Record{Entries: entries, sort: sorts.RecordOf(element)}
}

func (r *Record) Sort() sorts.Sort { return r.sort }
func (r *Record) value()           {}

// Lookup returns the value of the first entry with the given key.
func (r *Record) Lookup(key string) (Value, bool) {
	for _, e := range r.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the entry keys in order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		keys[i] = e.Key
	}
	return keys
}

// NativeFunc is a host callback. Arity and argument kinds are checked by
// the callback itself. A nil result is treated as Occult.
type NativeFunc func(vm *VM, args []Value) (Value, error)

// Function is either a user-defined function literal or a native.
type Function struct {
	Name       string // native name; empty for user functions
	Parameters []*ast.Parameter
	Body       []ast.Statement
	Provides   ast.Expression
	Native     NativeFunc

	// origin is the fragment whose source Body and Provides come from.
	origin *Source
	sort   sorts.Sort
}

// NewNative wraps a host callback as a function providing returns.
func NewNative(name string, returns sorts.Sort, fn NativeFunc) *Function {
	return &Function{Name: name, Native: fn, sort: sorts.FunctionOf(returns)}
}

func (f *Function) Sort() sorts.Sort { return f.sort }
func (f *Function) value()           {}

// IsNative reports whether the function wraps a host callback.
func (f *Function) IsNative() bool { return f.Native != nil }

func (f *Function) stamped(s sorts.Sort) *Function {
	c := *f
	c.sort = s
	return &c
}

// attach points a diagnostic raised inside the function at its source.
func (f *Function) attach(err error) error {
	return attachOrigin(err, f.origin)
}

func attachOrigin(err error, origin *Source) error {
	if origin == nil {
		return err
	}
	if d, ok := diagnostic.As(err); ok {
		d.Attach(origin.Name, origin.Text)
	}
	return err
}

// Ark is an unevaluated nested program.
type Ark struct {
	Program *ast.Program

	origin   *Source
	importer Importer
}

func (a *Ark) Sort() sorts.Sort { return sorts.Of(sorts.Ark) }
func (a *Ark) value()           {}

// Source identifies the text a piece of syntax was parsed from.
type Source struct {
	Name string
	Text string
}

// Equal compares two values structurally. Int and Double compare by
// numeric value; composite values compare element-wise regardless of the
// Sort they were stamped with. Functions and Arks are equal only to
// themselves.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Double:
			return float64(x) == float64(y)
		}
	case Double:
		switch y := b.(type) {
		case Int:
			return float64(x) == float64(y)
		case Double:
			return x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y)))
		}
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y
	case Nothing:
		_, ok := b.(Nothing)
		return ok
	case *Array:
		y, ok := b.(*Array)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !Equal(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	case *Record:
		y, ok := b.(*Record)
		if !ok || len(x.Entries) != len(y.Entries) {
			return false
		}
		for i := range x.Entries {
			if x.Entries[i].Key != y.Entries[i].Key || !Equal(x.Entries[i].Value, y.Entries[i].Value) {
				return false
			}
		}
		return true
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	case *Ark:
		y, ok := b.(*Ark)
		return ok && x == y
	}
	return false
}

// conform binds v to the wanted Sort. Arrays and records whose element
// Sort is missing or differs from the wanted one take the wanted Sort after
// every element conforms. Unstamped functions take the wanted Sort;
// everything else must already be compatible. On failure the returned path holds the
// element indexes leading to the offending value, and the value itself.
func conform(v Value, want sorts.Sort) (Value, *mismatch) {
	if want.Kind == sorts.Occult {
		return v, nil
	}

	element := sorts.Of(sorts.Occult)
	if want.Element != nil {
		element = *want.Element
	}
	stamp := sorts.Sort{Kind: want.Kind, Element: want.Element}

	switch x := v.(type) {
	case *Array:
		if want.Kind == sorts.Array && restamp(x.sort, want) {
			out := make([]Value, len(x.Elements))
			for i, e := range x.Elements {
				c, m := conform(e, element)
				if m != nil {
					return nil, m.under(i)
				}
				out[i] = c
			}
			return &Array{Elements: out, sort: stamp}, nil
		}
	case *Record:
		if want.Kind == sorts.Record && restamp(x.sort, want) {
			out := make([]Entry, len(x.Entries))
			for i, e := range x.Entries {
				c, m := conform(e.Value, element)
				if m != nil {
					return nil, m.under(i)
				}
				out[i] = Entry{Key: e.Key, Value: c}
			}
			return &Record{Entries: out, sort: stamp}, nil
		}
	case *Function:
		if want.Kind == sorts.Function && x.sort.Element == nil {
			return x.stamped(stamp), nil
		}
	}

	if !sorts.Compatible(want, v.Sort()) {
		return nil, &mismatch{value: v, want: want}
	}
	return v, nil
}

// restamp reports whether a composite stamped with have must be checked
// element by element before it can hold want.
func restamp(have, want sorts.Sort) bool {
	if have.Element == nil {
		return true
	}
	return want.Element != nil && !have.Element.Equal(*want.Element)
}

// mismatch describes a value that does not fit a Sort.
type mismatch struct {
	value Value
	want  sorts.Sort
	path  []int
}

func (m *mismatch) under(i int) *mismatch {
	m.path = append([]int{i}, m.path...)
	return m
}
