package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("FRAGMENT_ENCODING", "")

	dir := t.TempDir()
	files := map[string]string{
		"ok.fr":     `Print("ok")`,
		"broken.fr": "Int:x \"a\"",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name       string
		args       []string
		wantStatus int
		wantOut    string
		wantErr    string
	}{
		{"help", []string{"--help"}, 0, "Usage:", ""},
		{"success", []string{filepath.Join(dir, "ok.fr")}, 0, "ok\n", ""},
		{"diagnostic", []string{filepath.Join(dir, "broken.fr")}, 1, "", "Error arose in broken.fr 1:7"},
		{"host failure", []string{filepath.Join(dir, "missing.fr")}, 1, "", "Error: "},
		{"bad flag", []string{"--nope"}, 1, "", "Error: failed to parse args"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			status := run(tt.args, &stdout, &stderr)

			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d (stderr: %s)", status, tt.wantStatus, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.wantOut) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantOut)
			}
			if !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestRunDiagnosticIsNotRepeated(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.fr"), []byte("provide y"), 0644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if status := run([]string{filepath.Join(dir, "main.fr")}, &stdout, &stderr); status != 1 {
		t.Fatalf("status = %d, want 1", status)
	}
	if strings.Contains(stderr.String(), "Error: ") {
		t.Errorf("a rendered diagnostic should not be followed by a generic error: %q", stderr.String())
	}
}
