package vm

import (
	"math"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/fragment/pkg/compiler/ast"
)

func TestIntArith(t *testing.T) {
	tests := []struct {
		name  string
		op    ast.ArithmeticOp
		a, b  int64
		want  int64
		fault fault
	}{
		{"add", ast.Addition, 2, 3, 5, faultNone},
		{"add to max", ast.Addition, math.MaxInt64 - 1, 1, math.MaxInt64, faultNone},
		{"add past max", ast.Addition, math.MaxInt64, 1, 0, faultOverflow},
		{"add past min", ast.Addition, math.MinInt64, -1, 0, faultOverflow},
		{"subtract to min", ast.Subtraction, -math.MaxInt64, 1, math.MinInt64, faultNone},
		{"subtract past min", ast.Subtraction, math.MinInt64, 1, 0, faultOverflow},
		{"subtract min from zero", ast.Subtraction, 0, math.MinInt64, 0, faultOverflow},
		{"multiply", ast.Multiplication, -4, 5, -20, faultNone},
		{"multiply to min", ast.Multiplication, math.MinInt64 / 2, 2, math.MinInt64, faultNone},
		{"multiply past max", ast.Multiplication, 1 << 32, 1 << 31, 0, faultOverflow},
		{"multiply min by minus one", ast.Multiplication, math.MinInt64, -1, 0, faultOverflow},
		{"divide", ast.Division, 12, 4, 3, faultNone},
		{"divide by zero", ast.Division, 1, 0, 0, faultDivideByZero},
		{"divide fractional", ast.Division, 7, 2, 0, faultFractional},
		{"divide min by minus one", ast.Division, math.MinInt64, -1, 0, faultOverflow},
		{"power", ast.Exponent, 3, 4, 81, faultNone},
		{"power of zero", ast.Exponent, 7, 0, 1, faultNone},
		{"power to min", ast.Exponent, -2, 63, math.MinInt64, faultNone},
		{"power past max", ast.Exponent, 2, 63, 0, faultOverflow},
		{"power wraps to zero", ast.Exponent, 2, 64, 0, faultOverflow},
		{"negative power", ast.Exponent, 2, -1, 0, faultFractional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, f := intArith(tt.op, tt.a, tt.b)
			if f != tt.fault {
				t.Fatalf("fault = %d, want %d", f, tt.fault)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

// Property: Int addition, subtraction and multiplication either match the
// exact result or report an overflow when it leaves the int64 range.
func TestProperty_IntArithMatchesExactResult(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	exact := map[ast.ArithmeticOp]func(z, x, y *big.Int) *big.Int{
		ast.Addition:       (*big.Int).Add,
		ast.Subtraction:    (*big.Int).Sub,
		ast.Multiplication: (*big.Int).Mul,
	}
	operands := gen.OneGenOf(gen.Int64(), gen.Int64Range(-1<<32, 1<<32))

	properties.Property("result is exact or an overflow", prop.ForAll(
		func(a, b int64, pick int) bool {
			op := []ast.ArithmeticOp{ast.Addition, ast.Subtraction, ast.Multiplication}[pick]
			want := exact[op](new(big.Int), big.NewInt(a), big.NewInt(b))

			got, f := intArith(op, a, b)
			if !want.IsInt64() {
				return f == faultOverflow
			}
			return f == faultNone && got == want.Int64()
		},
		operands,
		operands,
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
