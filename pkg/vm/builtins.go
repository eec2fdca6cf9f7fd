package vm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/sorts"
)

// Builtins returns the language's native bridge in registration order:
// Print, Lt, Lte, Gt, Gte, Eq, Length and Type.
func Builtins() []*Function {
	return []*Function{
		// Print: write the display form of every argument, space separated
		NewNative("Print", sorts.Of(sorts.Occult), func(v *VM, args []Value) (Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = Display(a)
			}
			if _, err := fmt.Fprintln(v.out, strings.Join(parts, " ")); err != nil {
				return nil, fmt.Errorf("write failed: %w", err)
			}
			return Occult, nil
		}),

		NewNative("Lt", sorts.Of(sorts.Boolean), comparison("Lt", func(c int) bool { return c < 0 })),
		NewNative("Lte", sorts.Of(sorts.Boolean), comparison("Lte", func(c int) bool { return c <= 0 })),
		NewNative("Gt", sorts.Of(sorts.Boolean), comparison("Gt", func(c int) bool { return c > 0 })),
		NewNative("Gte", sorts.Of(sorts.Boolean), comparison("Gte", func(c int) bool { return c >= 0 })),

		// Eq: numbers by value, everything else structurally
		NewNative("Eq", sorts.Of(sorts.Boolean), func(v *VM, args []Value) (Value, error) {
			if err := Arity("Eq", args, "left", "right"); err != nil {
				return nil, err
			}
			return Boolean(Equal(args[0], args[1])), nil
		}),

		// Length: element count of an Array or Record, character count of a String
		NewNative("Length", sorts.Of(sorts.Int), func(v *VM, args []Value) (Value, error) {
			if err := Arity("Length", args, "value"); err != nil {
				return nil, err
			}
			switch x := args[0].(type) {
			case *Array:
				return Int(len(x.Elements)), nil
			case *Record:
				return Int(len(x.Entries)), nil
			case String:
				return Int(utf8.RuneCountInString(string(x))), nil
			}
			return nil, ArgumentError("Length", "value", args[0], "Array, Record or String")
		}),

		// Type: the Sort of a value as text
		NewNative("Type", sorts.Of(sorts.String), func(v *VM, args []Value) (Value, error) {
			if err := Arity("Type", args, "value"); err != nil {
				return nil, err
			}
			return String(args[0].Sort().String()), nil
		}),
	}
}

// comparison builds a numeric comparison native. Both operands must be Int
// or both Double.
func comparison(name string, holds func(int) bool) NativeFunc {
	return func(v *VM, args []Value) (Value, error) {
		if err := Arity(name, args, "left", "right"); err != nil {
			return nil, err
		}

		var c int
		switch l := args[0].(type) {
		case Int:
			r, ok := args[1].(Int)
			if !ok {
				return nil, ArgumentError(name, "right", args[1], "Int")
			}
			c = compare(l, r)
		case Double:
			r, ok := args[1].(Double)
			if !ok {
				return nil, ArgumentError(name, "right", args[1], "Double")
			}
			c = compare(l, r)
		default:
			return nil, ArgumentError(name, "left", args[0], "Int or Double")
		}
		return Boolean(holds(c)), nil
	}
}

func compare[T Int | Double](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Arity checks that a native received at least one argument per name.
// The diagnostic has no position; the call site fills it in.
func Arity(native string, args []Value, names ...string) error {
	if len(args) < len(names) {
		return diagnostic.New(diagnostic.AnticipatedArgument, diagnostic.Position{},
			"Function you are trying to invoke needs an argument for '%s'", names[len(args)]).
			WithHint(fmt.Sprintf("%s takes %d argument(s)", native, len(names)))
	}
	return nil
}

// ArgumentError reports a native argument of the wrong kind.
func ArgumentError(native, param string, got Value, want string) error {
	return diagnostic.New(diagnostic.TypeMismatch, diagnostic.Position{},
		"Type '%s' is not valid for type '%s' in function argument for '%s'", got.Sort(), want, param).
		WithHint(fmt.Sprintf("in a call to %s", native))
}
