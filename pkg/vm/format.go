package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Literal renders v in concrete syntax. For Int, Double, String, Boolean
// and arrays and records of them, parsing the result as an expression and
// evaluating it yields a value Equal to v. Negative numbers, infinities
// and NaN have no literal form and render as Go does.
func Literal(v Value) string {
	switch x := v.(type) {
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Double:
		return formatDouble(float64(x))
	case String:
		return quote(string(x))
	case Boolean:
		return strconv.FormatBool(bool(x))
	case *Array:
		parts := make([]string, len(x.Elements))
		for i, e := range x.Elements {
			parts[i] = Literal(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Record:
		parts := make([]string, len(x.Entries))
		for i, e := range x.Entries {
			parts[i] = quote(e.Key) + ": " + Literal(e.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Function:
		if x.IsNative() {
			return fmt.Sprintf("<%s %s>", x.sort, x.Name)
		}
		return "<" + x.sort.String() + ">"
	case *Ark:
		return "<Ark>"
	case Nothing:
		return "Occult"
	}
	return fmt.Sprintf("<%T>", v)
}

// Display renders v the way Print does: strings without quotes, every
// other value as its Literal.
func Display(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	return Literal(v)
}

func formatDouble(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// quote produces a string literal using only the escapes the lexer reads.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
