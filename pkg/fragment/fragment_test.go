package fragment

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/fileutil"
	"github.com/zurustar/fragment/pkg/script"
	"github.com/zurustar/fragment/pkg/vm"
)

// setup writes files under a temporary directory and returns a runtime
// reading from it together with its Print output.
func setup(t *testing.T, files map[string]string) (*Runtime, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	loader, err := script.NewLoader(fileutil.NewRealFS(dir), "")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return New(loader, WithOutput(&out)), &out
}

func expectDiagnostic(t *testing.T, err error, kind diagnostic.Kind, file string) *diagnostic.Diagnostic {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got no error", kind)
	}
	d, ok := diagnostic.As(err)
	if !ok {
		t.Fatalf("error %T (%v) is not a diagnostic", err, err)
	}
	if d.Kind != kind {
		t.Fatalf("Kind = %s, want %s (%s)", d.Kind, kind, d.Message)
	}
	if d.File != file {
		t.Errorf("File = %q, want %q", d.File, file)
	}
	return d
}

func TestImportSubset(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"B.fr": "Int:foo 1\nInt:bar 2\nInt:baz 3",
		"A.fr": "use [foo, bar] from \"B\"\nprovide foo + bar",
	})

	f, err := rt.Run("A.fr")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if f.Result != vm.Int(3) {
		t.Errorf("Result = %s, want 3", vm.Literal(f.Result))
	}
	if !f.Frame.Has("foo") || !f.Frame.Has("bar") {
		t.Error("foo and bar should be imported")
	}
	if f.Frame.Has("baz") {
		t.Error("baz should not be imported")
	}
}

func TestImportAll(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"lib.fr":  "Int:foo 1\nFunction.Int:twice (Int n) { provide n * 2 }",
		"main.fr": "use All from \"lib.fr\"\nprovide twice(foo)",
	})

	f, err := rt.Run("main.fr")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if f.Result != vm.Int(2) {
		t.Errorf("Result = %s, want 2", vm.Literal(f.Result))
	}
}

func TestImportUndeclaredName(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"B.fr": "Int:foo 1\nInt:bar 2\nInt:baz 3",
		"A.fr": "use [foo, bazz] from \"B\"",
	})

	_, err := rt.Run("A.fr")
	d := expectDiagnostic(t, err, diagnostic.UndeclaredVariable, "A.fr")
	if d.Position != (diagnostic.Position{Line: 1, Column: 11}) {
		t.Errorf("Position = %s, want 1:11", d.Position)
	}
	if !strings.Contains(d.Hint, "baz") {
		t.Errorf("Hint = %q, want a suggestion of baz", d.Hint)
	}
	if d.SourceLine != `use [foo, bazz] from "B"` {
		t.Errorf("SourceLine = %q", d.SourceLine)
	}
}

func TestCyclicDependency(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"a.fr": "use All from \"b.fr\"",
		"b.fr": "use All from \"a.fr\"",
	})

	_, err := rt.Run("a.fr")
	d := expectDiagnostic(t, err, diagnostic.CyclicDependency, "b.fr")
	if !strings.Contains(d.Message, "a.fr -> b.fr -> a.fr") {
		t.Errorf("Message = %q, want the import chain", d.Message)
	}
}

func TestSelfImport(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"self.fr": "use All from \"self.fr\"",
	})

	_, err := rt.Run("self.fr")
	expectDiagnostic(t, err, diagnostic.CyclicDependency, "self.fr")
}

func TestDiamondImportRunsOnce(t *testing.T) {
	rt, out := setup(t, map[string]string{
		"shared.fr": "Print(\"shared\")\nInt:n 1",
		"left.fr":   "use [n] from \"shared.fr\"\nInt:l n",
		"right.fr":  "use [n] from \"shared.fr\"\nInt:r n",
		"main.fr":   "use [l] from \"left.fr\"\nuse [r] from \"right.fr\"\nprovide l + r",
	})

	f, err := rt.Run("main.fr")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if f.Result != vm.Int(2) {
		t.Errorf("Result = %s, want 2", vm.Literal(f.Result))
	}
	if got := strings.Count(out.String(), "shared"); got != 1 {
		t.Errorf("shared.fr ran %d times, want 1", got)
	}
}

func TestRelativePaths(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"main.fr":       "use [answer] from \"lib/util.fr\"\nprovide answer",
		"lib/util.fr":   "use [base] from \"helper.fr\"\nInt:answer base * 2",
		"lib/helper.fr": "Int:base 21",
	})

	f, err := rt.Run("main.fr")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if f.Result != vm.Int(42) {
		t.Errorf("Result = %s, want 42", vm.Literal(f.Result))
	}
}

func TestUnresolvablePath(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"main.fr": "use [a] from \"lib.fr\"\nuse All from \"missing.fr\"",
		"lib.fr":  "Int:a 1",
	})

	_, err := rt.Run("main.fr")
	d := expectDiagnostic(t, err, diagnostic.UnresolvablePath, "main.fr")
	if d.Position != (diagnostic.Position{Line: 2, Column: 1}) {
		t.Errorf("Position = %s, want 2:1", d.Position)
	}
	if !strings.Contains(d.Message, "missing.fr") {
		t.Errorf("Message = %q", d.Message)
	}
}

func TestErrorsKeepTheirFragment(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"dep.fr":  "Int:x \"a\"",
		"main.fr": "use All from \"dep.fr\"",
	})

	_, err := rt.Run("main.fr")
	d := expectDiagnostic(t, err, diagnostic.TypeMismatch, "dep.fr")
	if d.SourceLine != `Int:x "a"` {
		t.Errorf("SourceLine = %q", d.SourceLine)
	}
}

func TestImportedFunctionErrorsPointAtTheirDefinition(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"dep.fr":  "Function.Int:f () { provide 1 / 0 }",
		"main.fr": "use [f] from \"dep.fr\"\nf()",
	})

	_, err := rt.Run("main.fr")
	d := expectDiagnostic(t, err, diagnostic.UnperformableArithmetic, "dep.fr")
	if d.Position.Line != 1 {
		t.Errorf("Position = %s, want line 1", d.Position)
	}
}

func TestSyntaxErrorInDependency(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"dep.fr":  "Int:x",
		"main.fr": "use All from \"dep.fr\"",
	})

	_, err := rt.Run("main.fr")
	expectDiagnostic(t, err, diagnostic.SyntaxError, "dep.fr")
}

func TestSystemBootstrap(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"main.fr": "use All from \"system\"\nprovide [Max(1, 2), Min(1, 2), Max(5, 3), Min(5, 3), Not(true), Not(false)]",
	})

	f, err := rt.Run("main.fr")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := vm.Literal(f.Result); got != "[2, 1, 5, 3, false, true]" {
		t.Errorf("Result = %s", got)
	}
	for _, name := range []string{"Print", "Length", "ReadFile", vm.PortName} {
		if !f.Frame.Has(name) {
			t.Errorf("frame is missing %s", name)
		}
	}
}

func TestReadFile(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"sub/main.fr":        "provide ReadFile(\"data/hello.txt\")",
		"sub/data/hello.txt": "hello, world",
	})

	f, err := rt.Run("sub/main.fr")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if f.Result != vm.String("hello, world") {
		t.Errorf("Result = %s", vm.Literal(f.Result))
	}
}

func TestReadFileMissing(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"main.fr": "provide ReadFile(\"nope.txt\")",
	})

	_, err := rt.Run("main.fr")
	d := expectDiagnostic(t, err, diagnostic.UnresolvablePath, "main.fr")
	if d.Position != (diagnostic.Position{Line: 1, Column: 9}) {
		t.Errorf("Position = %s, want 1:9", d.Position)
	}
}

func TestRunMissingFragment(t *testing.T) {
	rt, _ := setup(t, nil)

	_, err := rt.Run("main.fr")
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false", err)
	}
}

func TestRunCachesFragments(t *testing.T) {
	rt, out := setup(t, map[string]string{
		"main.fr": "Print(\"once\")",
	})

	first, err := rt.Run("main.fr")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := rt.Run("./main.fr")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if first != second {
		t.Error("second Run should return the cached fragment")
	}
	if out.String() != "once\n" {
		t.Errorf("output = %q", out.String())
	}

	rt.Reset()
	if _, err := rt.Run("main.fr"); err != nil {
		t.Fatalf("Run after Reset failed: %v", err)
	}
	if out.String() != "once\nonce\n" {
		t.Errorf("output after Reset = %q", out.String())
	}
}

func TestExecuteInKeepsFrame(t *testing.T) {
	rt, _ := setup(t, nil)

	frame, err := rt.NewFrame()
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{"Int:x 1", "x++", "Int:y x + 1"} {
		f, err := rt.Parse("<input>", src)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", src, err)
		}
		if err := rt.ExecuteIn(f, frame); err != nil {
			t.Fatalf("ExecuteIn(%q) failed: %v", src, err)
		}
	}

	y, _ := frame.Get("y")
	if y != vm.Int(3) {
		t.Errorf("y = %s, want 3", vm.Literal(y))
	}

	fresh, err := rt.NewFrame()
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Has("x") {
		t.Error("NewFrame should not see bindings of other frames")
	}
}

func TestEmbodyResolvesUsesRelativeToFragment(t *testing.T) {
	rt, _ := setup(t, map[string]string{
		"app/main.fr": "Ark:a Ark { use [n] from \"n.fr\"\nprovide n + arguments<0> }\nprovide embody a {1}",
		"app/n.fr":    "Int:n 41",
	})

	f, err := rt.Run("app/main.fr")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if f.Result != vm.Int(42) {
		t.Errorf("Result = %s, want 42", vm.Literal(f.Result))
	}
}

func TestPortLists(t *testing.T) {
	rt, _ := setup(t, nil)
	frame, err := rt.NewFrame()
	if err != nil {
		t.Fatal(err)
	}

	port, ok := frame.Get(vm.PortName)
	if !ok {
		t.Fatal("Port is not bound")
	}
	record := port.(*vm.Record)
	want := []string{"Print", "Lt", "Lte", "Gt", "Gte", "Eq", "Length", "Type", "ReadFile"}
	if got := record.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Port keys = %v, want %v", got, want)
	}
}
