package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestRun_ExitCodes(t *testing.T) {
	valid := `fn main() -> i32 { let x: i32 = 2; let y: i32 = 3; return x + y; }`
	invalid := `fn main() -> i32 { return "hello"; }`
	warning := `fn main() { let unused = 1; }`

	tests := []struct {
		name     string
		args     func(t *testing.T) []string
		expected int
	}{
		{"no arguments", func(t *testing.T) []string { return nil }, exitUsage},
		{"unknown command", func(t *testing.T) []string { return []string{"frobnicate"} }, exitUsage},
		{"missing file argument", func(t *testing.T) []string { return []string{"check"} }, exitUsage},
		{"unknown flag", func(t *testing.T) []string { return []string{"check", "-nope", "x.fr"} }, exitUsage},
		{"help", func(t *testing.T) []string { return []string{"check", "-h"} }, exitOK},
		{"missing file", func(t *testing.T) []string {
			return []string{"check", filepath.Join(t.TempDir(), "absent.fr")}
		}, exitError},
		{"check valid", func(t *testing.T) []string {
			return []string{"check", writeSource(t, "ok.fr", valid)}
		}, exitOK},
		{"check invalid", func(t *testing.T) []string {
			return []string{"check", writeSource(t, "bad.fr", invalid)}
		}, exitError},
		{"check warning only", func(t *testing.T) []string {
			return []string{"check", writeSource(t, "warn.fr", warning)}
		}, exitOK},
		{"build invalid", func(t *testing.T) []string {
			return []string{"build", "-o", "-", writeSource(t, "bad.fr", invalid)}
		}, exitError},
		{"tokens", func(t *testing.T) []string {
			return []string{"tokens", writeSource(t, "ok.fr", valid)}
		}, exitOK},
		{"tokens lexer error", func(t *testing.T) []string {
			return []string{"tokens", writeSource(t, "bad.fr", `let s = "abc`)}
		}, exitError},
		{"ast", func(t *testing.T) []string {
			return []string{"ast", writeSource(t, "ok.fr", valid)}
		}, exitOK},
		{"symbols", func(t *testing.T) []string {
			return []string{"symbols", writeSource(t, "ok.fr", valid)}
		}, exitOK},
		{"symbols invalid", func(t *testing.T) []string {
			return []string{"symbols", writeSource(t, "bad.fr", invalid)}
		}, exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(tt.args(t), &stdout, &stderr); got != tt.expected {
				t.Errorf("expected exit code %d, got %d (stderr: %s)", tt.expected, got, stderr.String())
			}
		})
	}
}

func TestRun_BuildWritesIR(t *testing.T) {
	path := writeSource(t, "sum.fr", `fn main() -> i32 { return 2 + 3; }`)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"build", path}, &stdout, &stderr); code != exitOK {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}

	out := strings.TrimSuffix(path, ".fr") + ".ll"
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected IR file %s: %v", out, err)
	}
	if !strings.Contains(string(data), "define i32 @main()") {
		t.Errorf("expected main in IR, got:\n%s", data)
	}
}

func TestRun_BuildToStdout(t *testing.T) {
	path := writeSource(t, "sum.fr", `fn main() -> i32 { return 2 + 3; }`)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"build", "-o", "-", "-v", path}, &stdout, &stderr); code != exitOK {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "; ModuleID = 'sum'") {
		t.Errorf("expected IR on stdout, got:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "fruti: codegen:") {
		t.Errorf("expected verbose phase logging, got:\n%s", stderr.String())
	}
}

func TestRun_Diagnostics(t *testing.T) {
	src := "fn main() -> i32 {\n    return \"hello\";\n}\n"
	path := writeSource(t, "bad.fr", src)

	var stdout, stderr bytes.Buffer
	run([]string{"check", "-context", path}, &stdout, &stderr)

	out := stderr.String()
	for _, want := range []string{
		path + ":2:5: error: ",
		`    return "hello";`,
		"^^^^^^^^^^^^^^^",
		"1 error, 0 warnings",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRun_Symbols(t *testing.T) {
	path := writeSource(t, "prog.fr", "struct Point { x: i32 }\nfn main() -> i32 { return 0; }\n")

	var stdout, stderr bytes.Buffer
	if got := run([]string{"symbols", path}, &stdout, &stderr); got != exitOK {
		t.Fatalf("expected exit code %d, got %d (stderr: %s)", exitOK, got, stderr.String())
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "global scope (") {
		t.Errorf("expected output to start with the global scope, got:\n%s", out)
	}
	for _, want := range []string{"function main: ", "Point"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
