package repl

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterh/liner"
	"github.com/zurustar/fragment/pkg/fileutil"
	"github.com/zurustar/fragment/pkg/fragment"
	"github.com/zurustar/fragment/pkg/script"
	"github.com/zurustar/fragment/pkg/vm"
)

// scripted replays lines and then reports end of input.
type scripted struct {
	lines   []string
	prompts []string
	history []string
}

func (s *scripted) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", liner.ErrPromptAborted
	}
	return line, nil
}

func (s *scripted) AppendHistory(item string) {
	s.history = append(s.history, item)
}

func newSession(t *testing.T, files map[string]string) (*Session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	loader, err := script.NewLoader(fileutil.NewRealFS(dir), "")
	if err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	rt := fragment.New(loader, fragment.WithOutput(&out))
	s, err := New(rt, WithOutput(&out, &errOut))
	if err != nil {
		t.Fatal(err)
	}
	return s, &out, &errOut
}

func TestRunPrintsValues(t *testing.T) {
	s, out, errOut := newSession(t, nil)
	in := &scripted{lines: []string{
		"Int:x 20",
		"x :+ 1",
		"provide x * 2",
		`Print("hi")`,
		"Max(3, 9)",
	}}

	if err := s.Run(in); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if errOut.Len() > 0 {
		t.Fatalf("unexpected diagnostics: %s", errOut.String())
	}
	if got, want := out.String(), "42\nhi\n9\n\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if len(in.history) != 5 {
		t.Errorf("history = %v", in.history)
	}
}

func TestRunContinuesIncompleteInput(t *testing.T) {
	s, out, _ := newSession(t, nil)
	in := &scripted{lines: []string{
		"Function.Int:add (Int a, Int b) {",
		"  provide a + b",
		"}",
		"add(1, 2)",
	}}

	if err := s.Run(in); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "3\n") {
		t.Errorf("output = %q", out.String())
	}
	if in.prompts[1] != promptCont || in.prompts[2] != promptCont || in.prompts[3] != promptMain {
		t.Errorf("prompts = %q", in.prompts)
	}
}

func TestRunAbortDiscardsInput(t *testing.T) {
	s, out, _ := newSession(t, nil)
	in := &scripted{lines: []string{"Function.Int:f () {", "^C", "provide 7"}}

	if err := s.Run(in); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "7\n") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunReportsDiagnosticsAndContinues(t *testing.T) {
	s, out, errOut := newSession(t, nil)
	in := &scripted{lines: []string{"Int:x 10/4", "provide 1"}}

	if err := s.Run(in); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(errOut.String(), "There is a type mismatch") {
		t.Errorf("diagnostic missing: %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "Error arose in <input> 1:9") {
		t.Errorf("location missing: %q", errOut.String())
	}
	if !strings.HasPrefix(out.String(), "1\n") {
		t.Errorf("output = %q", out.String())
	}
}

func TestCommands(t *testing.T) {
	s, out, errOut := newSession(t, map[string]string{
		"lib.fr": "Int:answer 42\nString:name \"lib\"",
	})

	in := &scripted{lines: []string{
		":help",
		"Array.Int:xs [1]",
		":frame",
		":load lib.fr",
		"provide answer",
		":reset",
		":frame",
		":bogus",
		":quit",
		"provide 1",
	}}
	if err := s.Run(in); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		":load <file>",
		"xs: Array.Int\n",
		"loaded lib.fr\n",
		"42\n",
		"session reset\nno bindings\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output is missing %q:\n%s", want, got)
		}
	}
	if !strings.Contains(errOut.String(), "unknown command :bogus") {
		t.Errorf("errOut = %q", errOut.String())
	}
	if len(in.lines) != 1 {
		t.Errorf(":quit should stop the session, %d lines left", len(in.lines))
	}
}

func TestLoadErrors(t *testing.T) {
	s, _, errOut := newSession(t, map[string]string{"bad.fr": "Int:x \"a\""})

	s.Command(":load")
	s.Command(":load missing.fr")
	s.Command(":load bad.fr")

	got := errOut.String()
	for _, want := range []string{"usage: :load <file>", "not found", "Error arose in bad.fr 1:7"} {
		if !strings.Contains(got, want) {
			t.Errorf("errOut is missing %q:\n%s", want, got)
		}
	}
}

func TestResetFailureKeepsSession(t *testing.T) {
	s, out, errOut := newSession(t, nil)
	if _, err := s.Eval("Int:n 1"); err != nil {
		t.Fatal(err)
	}

	s.frames = func() (*vm.Frame, error) {
		return nil, errors.New("bootstrap unavailable")
	}
	if s.Command(":reset") {
		t.Fatal(":reset should not end the session")
	}

	if strings.Contains(out.String(), "session reset") {
		t.Errorf("out = %q, want no reset confirmation", out.String())
	}
	if !strings.Contains(errOut.String(), "bootstrap unavailable") {
		t.Errorf("errOut = %q", errOut.String())
	}
	if !s.Frame().Has("n") {
		t.Error("a failed reset should keep the previous frame")
	}
}

func TestEvalKeepsFrame(t *testing.T) {
	s, _, _ := newSession(t, nil)

	if _, err := s.Eval("Int:n 1"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Eval("n++\nprovide n")
	if err != nil {
		t.Fatal(err)
	}
	if v != vm.Int(2) {
		t.Errorf("n = %s, want 2", vm.Literal(v))
	}
	if !s.Frame().Has("n") {
		t.Error("binding n should persist")
	}
}
