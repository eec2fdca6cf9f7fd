package diagnostic

import (
	"fmt"
	"strings"
)

// TabWidth is the fixed gap a tab character occupies when a diagnostic is
// rendered.
const TabWidth = 8

// Render formats the diagnostic for a terminal.
//
// Example output:
//
//	Captured Error: There is a type mismatch in given program.
//
//	Type 'Double' is not assignable to type 'Int'
//	Int:x 10/4
//	      ^
//
//	Error arose in main.fr 1:7
//
// Tabs in the source line are expanded to TabWidth spaces, and the caret is
// shifted by the same amount, so the marker lines up whatever width the
// terminal uses for tabs.
func (d *Diagnostic) Render() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Captured Error: %s.\n\n", d.Kind.Headline())
	buf.WriteString(d.Message)
	buf.WriteByte('\n')

	if d.SourceLine != "" || d.Position.IsValid() {
		buf.WriteString(ExpandTabs(d.SourceLine))
		buf.WriteByte('\n')
		buf.WriteString(CaretLine(d.SourceLine, d.Position.Column))
		buf.WriteByte('\n')
	}

	if d.Hint != "" {
		fmt.Fprintf(&buf, "hint: %s\n", d.Hint)
	}

	buf.WriteByte('\n')
	location := d.File
	if location == "" {
		location = "<input>"
	}
	fmt.Fprintf(&buf, "Error arose in %s %d:%d\n", location, d.Position.Line, d.Position.Column)

	return buf.String()
}

// ExpandTabs replaces every tab in line with TabWidth spaces.
func ExpandTabs(line string) string {
	return strings.ReplaceAll(line, "\t", strings.Repeat(" ", TabWidth))
}

// CaretLine returns a marker line with '^' under the 1-based column of line.
// Columns count runes; each tab preceding the column contributes TabWidth
// cells instead of one.
func CaretLine(line string, column int) string {
	if column < 1 {
		column = 1
	}

	width := 0
	i := 1
	for _, r := range line {
		if i >= column {
			break
		}
		if r == '\t' {
			width += TabWidth
		} else {
			width++
		}
		i++
	}
	// Columns past the end of the line (e.g. an unexpected end of input).
	if i < column {
		width += column - i
	}

	return strings.Repeat(" ", width) + "^"
}
