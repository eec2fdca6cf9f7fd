package vm

import (
	"math"
	"math/bits"

	"github.com/zurustar/fragment/pkg/compiler/ast"
)

// fault is the reason an Int operation has no Int result.
type fault int

const (
	faultNone fault = iota
	faultDivideByZero
	faultFractional
	faultOverflow
)

// intArith applies op to two Ints. Division and exponentiation fail with
// faultFractional instead of truncating, and a result outside int64 fails
// with faultOverflow instead of wrapping.
func intArith(op ast.ArithmeticOp, a, b int64) (int64, fault) {
	switch op {
	case ast.Addition:
		return intAdd(a, b)
	case ast.Subtraction:
		return intSub(a, b)
	case ast.Multiplication:
		return intMul(a, b)
	case ast.Division:
		if b == 0 {
			return 0, faultDivideByZero
		}
		if a == math.MinInt64 && b == -1 {
			return 0, faultOverflow
		}
		if a%b != 0 {
			return 0, faultFractional
		}
		return a / b, faultNone
	case ast.Exponent:
		return intPow(a, b)
	}
	return 0, faultNone
}

func intPow(base, exp int64) (int64, fault) {
	if exp < 0 {
		switch base {
		case 0:
			return 0, faultDivideByZero
		case 1:
			return 1, faultNone
		case -1:
			if exp%2 == 0 {
				return 1, faultNone
			}
			return -1, faultNone
		}
		return 0, faultFractional
	}

	result := int64(1)
	for {
		if exp&1 == 1 {
			r, f := intMul(result, base)
			if f != faultNone {
				return 0, f
			}
			result = r
		}
		exp >>= 1
		if exp == 0 {
			return result, faultNone
		}
		b, f := intMul(base, base)
		if f != faultNone {
			return 0, f
		}
		base = b
	}
}

func intAdd(a, b int64) (int64, fault) {
	sum := a + b
	if (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0) {
		return 0, faultOverflow
	}
	return sum, faultNone
}

func intSub(a, b int64) (int64, fault) {
	diff := a - b
	if (a >= 0) != (b >= 0) && (diff >= 0) != (a >= 0) {
		return 0, faultOverflow
	}
	return diff, faultNone
}

// intMul multiplies through the 128-bit product of the magnitudes.
func intMul(a, b int64) (int64, fault) {
	negative := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(magnitude(a), magnitude(b))
	if hi != 0 {
		return 0, faultOverflow
	}
	if negative {
		if lo > 1<<63 {
			return 0, faultOverflow
		}
		return int64(-lo), faultNone
	}
	if lo > math.MaxInt64 {
		return 0, faultOverflow
	}
	return int64(lo), faultNone
}

func magnitude(a int64) uint64 {
	if a < 0 {
		return uint64(-a)
	}
	return uint64(a)
}

// doubleArith applies op to two Doubles. Division by zero follows IEEE 754.
func doubleArith(op ast.ArithmeticOp, a, b float64) float64 {
	switch op {
	case ast.Addition:
		return a + b
	case ast.Subtraction:
		return a - b
	case ast.Multiplication:
		return a * b
	case ast.Division:
		return a / b
	case ast.Exponent:
		return math.Pow(a, b)
	}
	return 0
}

// isIntegral reports whether f has no fractional part.
func isIntegral(f float64) bool {
	return math.Mod(f, 1) == 0
}
