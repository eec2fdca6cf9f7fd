package vm

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/fragment/pkg/compiler"
	"github.com/zurustar/fragment/pkg/compiler/ast"
	"github.com/zurustar/fragment/pkg/compiler/lexer"
	"github.com/zurustar/fragment/pkg/sorts"
)

func TestLiteral(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		literal string
		display string
	}{
		{"int", Int(5), "5", "5"},
		{"negative int", Int(-3), "-3", "-3"},
		{"double keeps a point", Double(2), "2.0", "2.0"},
		{"double", Double(1.5), "1.5", "1.5"},
		{"infinity", Double(math.Inf(-1)), "-Inf", "-Inf"},
		{"string", String("hi"), `"hi"`, "hi"},
		{"string escapes", String("a\"b\\c\n\t\x01"), `"a\"b\\c\n\t\u0001"`, "a\"b\\c\n\t\x01"},
		{"boolean", Boolean(true), "true", "true"},
		{"array", NewArray([]Value{Int(1), String("x")}), `[1, "x"]`, `[1, "x"]`},
		{"empty array", NewArray(nil), "[]", "[]"},
		{"record", NewRecord([]Entry{{Key: "a", Value: Int(1)}}), `{"a": 1}`, `{"a": 1}`},
		{"occult", Occult, "Occult", "Occult"},
		{"ark", &Ark{}, "<Ark>", "<Ark>"},
		{"user function", &Function{sort: sorts.FunctionOf(sorts.Of(sorts.Int))}, "<Function.Int>", "<Function.Int>"},
		{"native", NewNative("Lt", sorts.Of(sorts.Boolean), nil), "<Function.Boolean Lt>", "<Function.Boolean Lt>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Literal(tt.value); got != tt.literal {
				t.Errorf("Literal() = %s, want %s", got, tt.literal)
			}
			if got := Display(tt.value); got != tt.display {
				t.Errorf("Display() = %q, want %q", got, tt.display)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int and double by value", Int(2), Double(2), true},
		{"different ints", Int(1), Int(2), false},
		{"string and int", String("1"), Int(1), false},
		{"stamped and unstamped arrays", NewArrayOf(sorts.Of(sorts.Int), []Value{Int(1)}), NewArray([]Value{Int(1)}), true},
		{"arrays of different length", NewArray([]Value{Int(1)}), NewArray(nil), false},
		{"record key order matters", NewRecord([]Entry{{"a", Int(1)}, {"b", Int(2)}}), NewRecord([]Entry{{"b", Int(2)}, {"a", Int(1)}}), false},
		{"occult", Occult, Nothing{}, true},
		{"nan", Double(math.NaN()), Double(math.NaN()), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", Literal(tt.a), Literal(tt.b), got, tt.want)
			}
		})
	}
}

// reparse evaluates the literal text of v as an expression.
func reparse(v Value) (Value, error) {
	expr, err := compiler.ParseExpression(Literal(v))
	if err != nil {
		return nil, err
	}
	return New().EvalExpression(expr, NewFrame())
}

func TestPropertyLiteralRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("non-negative ints", prop.ForAll(
		func(n int64) bool {
			got, err := reparse(Int(n))
			return err == nil && Equal(got, Int(n))
		},
		gen.Int64Range(0, 1<<62),
	))

	properties.Property("non-negative doubles", prop.ForAll(
		func(f float64) bool {
			got, err := reparse(Double(f))
			if err != nil {
				return false
			}
			_, isDouble := got.(Double)
			return isDouble && Equal(got, Double(f))
		},
		gen.Float64Range(0, 1e12),
	))

	properties.Property("strings", prop.ForAll(
		func(s string) bool {
			got, err := reparse(String(s))
			return err == nil && Equal(got, String(s))
		},
		gen.AnyString(),
	))

	properties.Property("arrays of ints", prop.ForAll(
		func(ns []int64) bool {
			elements := make([]Value, len(ns))
			for i, n := range ns {
				elements[i] = Int(n)
			}
			v := NewArray(elements)
			got, err := reparse(v)
			return err == nil && Equal(got, v)
		},
		gen.SliceOf(gen.Int64Range(0, 1_000_000)),
	))

	properties.Property("records of strings", prop.ForAll(
		func(keys []string) bool {
			seen := map[string]bool{}
			var entries []Entry
			for _, k := range keys {
				if seen[k] {
					continue
				}
				seen[k] = true
				entries = append(entries, Entry{Key: k, Value: String(k)})
			}
			v := NewRecord(entries)
			got, err := reparse(v)
			return err == nil && Equal(got, v)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPropertyCommentIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("evaluating a comment never touches the frame", prop.ForAll(
		func(text string, times uint8, names []string) bool {
			frame := NewFrame()
			for i, n := range names {
				frame.Set(n, Int(i))
			}
			before := frame.Clone()

			v := New()
			stmt := &ast.CommentStatement{Token: lexer.Token{Type: lexer.TOKEN_COMMENT, Line: 1, Column: 1}, Text: text}
			for i := 0; i < int(times); i++ {
				result, err := v.EvalStatement(stmt, frame)
				if err != nil || result != Occult {
					return false
				}
			}

			if frame.Len() != before.Len() {
				return false
			}
			for _, k := range before.Keys() {
				a, _ := frame.Get(k)
				b, _ := before.Get(k)
				if a != b {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.UInt8(),
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
