package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zurustar/fragment/pkg/compiler/ast"
	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/fileutil"
	"github.com/zurustar/fragment/pkg/script"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		wantErr    bool
		statements int
		provides   bool
		uses       int
	}{
		{name: "empty source", source: ""},
		{name: "variable definition", source: "Int:x 5", statements: 1},
		{name: "provide only", source: "provide 1 + 2", provides: true},
		{
			name:       "uses statements and provide",
			source:     "use All from \"lib.fr\"\nInt:x 1\nx++\nprovide x",
			statements: 2,
			provides:   true,
			uses:       1,
		},
		{name: "syntax error", source: "Int:x", wantErr: true},
		{name: "lexical error", source: "Int:x @", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := Parse(tt.source, "main.fr")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				d, ok := diagnostic.As(err)
				if !ok {
					t.Fatalf("error %T is not a diagnostic", err)
				}
				if d.Kind != diagnostic.SyntaxError {
					t.Errorf("Kind = %s, want SyntaxError", d.Kind)
				}
				if d.File != "main.fr" {
					t.Errorf("File = %q, want main.fr", d.File)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(program.Statements) != tt.statements {
				t.Errorf("statements = %d, want %d", len(program.Statements), tt.statements)
			}
			if (program.Provides != nil) != tt.provides {
				t.Errorf("provides present = %v, want %v", program.Provides != nil, tt.provides)
			}
			if len(program.Uses) != tt.uses {
				t.Errorf("uses = %d, want %d", len(program.Uses), tt.uses)
			}
		})
	}
}

func TestParseErrorCarriesSourceLine(t *testing.T) {
	_, err := Parse("Int:a 1\nString:b [1,\n", "")
	d, ok := diagnostic.As(err)
	if !ok {
		t.Fatalf("expected diagnostic, got %v", err)
	}
	if d.Position.Line != 3 {
		t.Errorf("Line = %d, want 3", d.Position.Line)
	}

	_, err = Parse("Int:a 1\nInt:b +\n", "")
	d, _ = diagnostic.As(err)
	if d.SourceLine != "Int:b +" {
		t.Errorf("SourceLine = %q, want %q", d.SourceLine, "Int:b +")
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		source     string
		incomplete bool
		wantErr    bool
	}{
		{"Int:x 1", false, false},
		{"Function.Int:f () {", true, true},
		{"# still open", true, true},
		{"[1, 2", true, true},
		{"Int:x )", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, incomplete, err := Probe(tt.source)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if incomplete != tt.incomplete {
				t.Errorf("incomplete = %v, want %v", incomplete, tt.incomplete)
			}
		})
	}
}

func TestParseExpression(t *testing.T) {
	expr, err := ParseExpression(`{"a": [1, 2], "b": []}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := expr.(*ast.RecordLiteral); !ok {
		t.Fatalf("expr = %T, want *ast.RecordLiteral", expr)
	}

	if _, err := ParseExpression("1 2"); err == nil {
		t.Error("expected error for trailing input")
	}
}

func TestParseFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "main.fr"), []byte("Int:x 1\nprovide x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "broken.fr"), []byte("Int:x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loader, err := script.NewLoader(fileutil.NewRealFS(tmpDir), "")
	if err != nil {
		t.Fatal(err)
	}

	program, src, err := ParseFile(loader, "main.fr")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(program.Statements) != 1 || program.Provides == nil {
		t.Errorf("unexpected program %q", program.String())
	}
	if src.FileName != "main.fr" {
		t.Errorf("FileName = %q", src.FileName)
	}

	_, src, err = ParseFile(loader, "broken.fr")
	d, ok := diagnostic.As(err)
	if !ok {
		t.Fatalf("expected diagnostic, got %v", err)
	}
	if d.File != "broken.fr" || src == nil {
		t.Errorf("File = %q, script = %v", d.File, src)
	}

	_, _, err = ParseFile(loader, "missing.fr")
	if !errors.Is(err, script.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
