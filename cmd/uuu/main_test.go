package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterh/liner"

	"github.com/thomasrohde/uuu/pkg/runtime"
)

func isolateHome(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
}

func writeProgram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.uuu")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	isolateHome(t)
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunFile(t *testing.T) {
	path := writeProgram(t, `fn fib(n) { if (n <= 1) return n; return fib(n - 1) + fib(n - 2); } print(fib(10));`)
	code, out, errOut := runCLI(t, "", path)
	if code != exitOK {
		t.Fatalf("exit %d, stderr: %s", code, errOut)
	}
	if out != "55\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRunStdin(t *testing.T) {
	code, out, _ := runCLI(t, `print("from stdin");`, "-")
	if code != exitOK || out != "from stdin\n" {
		t.Errorf("exit %d, output %q", code, out)
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code int
		diag string
	}{
		{"lex error", `var s = "open`, exitStatic, "E_UNEXPECTED_EOF"},
		{"parse error", "var = 1;", exitStatic, "E_PARSE"},
		{"scope error", "break;", exitStatic, "E_LOOP_CONTROL"},
		{"runtime error", `print(1 + "a");`, exitRuntime, "E_TYPE"},
		{"undefined", "print(nope);", exitRuntime, "E_UNDEFINED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, "", writeProgram(t, tt.src))
			if code != tt.code {
				t.Errorf("exit %d, want %d", code, tt.code)
			}
			if !strings.Contains(errOut, tt.diag) {
				t.Errorf("expected %s in stderr, got %q", tt.diag, errOut)
			}
		})
	}
}

func TestJSONDiagnostics(t *testing.T) {
	_, _, errOut := runCLI(t, "", writeProgram(t, "print(nope);"))
	var diags []map[string]any
	if err := json.Unmarshal([]byte(errOut), &diags); err != nil {
		t.Fatalf("stderr is not JSON: %v\n%s", err, errOut)
	}
	if len(diags) != 1 || diags[0]["code"] != "E_UNDEFINED" {
		t.Errorf("unexpected diagnostics %v", diags)
	}
}

func TestPrettyDiagnostics(t *testing.T) {
	_, _, errOut := runCLI(t, "", "--pretty", writeProgram(t, "print(nope);"))
	if !strings.HasPrefix(errOut, "error[E_UNDEFINED]: undefined variable 'nope'") {
		t.Errorf("unexpected pretty output %q", errOut)
	}
}

func TestUsageErrors(t *testing.T) {
	if code, _, _ := runCLI(t, "", "a.uuu", "b.uuu"); code != exitUsage {
		t.Errorf("two files: exit %d, want %d", code, exitUsage)
	}
	if code, _, _ := runCLI(t, "", "--no-such-flag"); code != exitUsage {
		t.Errorf("unknown flag: exit %d, want %d", code, exitUsage)
	}
	code, _, errOut := runCLI(t, "", filepath.Join(t.TempDir(), "missing.uuu"))
	if code != exitUsage || !strings.Contains(errOut, "E_IO") {
		t.Errorf("missing file: exit %d, stderr %q", code, errOut)
	}
	for _, name := range []string{"--check", "--ast", "--tokens"} {
		code, out, errOut := runCLI(t, "print(1);", name)
		if code != exitUsage || out != "" || !strings.Contains(errOut, "need a file argument") {
			t.Errorf("%s without file: exit %d, stdout %q, stderr %q", name, code, out, errOut)
		}
	}
}

func TestAnalysisFlagsReadStdin(t *testing.T) {
	code, out, _ := runCLI(t, "var x = 1;", "--ast", "-")
	if code != exitOK || out != "var x = 1;\n" {
		t.Errorf("exit %d, output %q", code, out)
	}
}

func TestCheckFlag(t *testing.T) {
	code, out, _ := runCLI(t, "", "--check", writeProgram(t, `print("not run");`))
	if code != exitOK || out != "" {
		t.Errorf("exit %d, output %q", code, out)
	}
	code, _, errOut := runCLI(t, "", "--check", writeProgram(t, "fn f() { var a; var a; }"))
	if code != exitStatic || !strings.Contains(errOut, "E_REDECLARED") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}

func TestASTFlag(t *testing.T) {
	code, out, _ := runCLI(t, "", "--ast", writeProgram(t, "var x = 1 + 2 * 3;"))
	if code != exitOK || out != "var x = (+ 1 (* 2 3));\n" {
		t.Errorf("exit %d, output %q", code, out)
	}
}

func TestTokensFlag(t *testing.T) {
	code, out, _ := runCLI(t, "", "--tokens", writeProgram(t, `var a = "s";`))
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if out != "VAR IDENTIFIER(a) EQUAL STRING(s) SEMICOLON EOF\n" {
		t.Errorf("unexpected tokens %q", out)
	}
}

func TestHelpFlag(t *testing.T) {
	code, out, _ := runCLI(t, "", "--help")
	if code != exitOK || !strings.Contains(out, "USAGE") {
		t.Errorf("exit %d, output %q", code, out)
	}
	code, out, _ = runCLI(t, "", "--help", "nat")
	if code != exitOK || !strings.Contains(out, "Total: 2 functions") {
		t.Errorf("exit %d, output %q", code, out)
	}
	if code, _, _ := runCLI(t, "", "--help", "bogus"); code != exitUsage {
		t.Errorf("unknown topic: exit %d", code)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "uuu.yaml")
	if err := os.WriteFile(cfgPath, []byte("maxCallDepth: 5\npretty: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	prog := writeProgram(t, "fn f(n) { return f(n + 1); } f(0);")
	code, _, errOut := runCLI(t, "", "--config", cfgPath, prog)
	if code != exitRuntime {
		t.Fatalf("exit %d, want %d", code, exitRuntime)
	}
	if !strings.HasPrefix(errOut, "error[E_STACK_OVERFLOW]") || !strings.Contains(errOut, "(5)") {
		t.Errorf("unexpected stderr %q", errOut)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("unknown: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := runCLI(t, "", "--config", bad, prog); code != exitUsage {
		t.Errorf("bad config: exit %d, want %d", code, exitUsage)
	}
}

func TestTraceAndSummary(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "trace.jsonl")
	prog := writeProgram(t, "fn f(x) { return x; } f(1); f(2); print(nope);")
	if code, _, _ := runCLI(t, "", "--trace", tracePath, prog); code != exitRuntime {
		t.Fatalf("exit %d, want %d", code, exitRuntime)
	}

	data, err := os.ReadFile(tracePath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 events, got %d:\n%s", len(lines), data)
	}

	code, out, _ := runCLI(t, "", "--summary", tracePath)
	if code != exitOK {
		t.Fatalf("summary exit %d", code)
	}
	var s TraceSummary
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("summary is not JSON: %v", err)
	}
	if s.Runs != 1 || s.Calls != 2 || s.CallsByName["f"] != 2 || s.Errors["E_UNDEFINED"] != 1 {
		t.Errorf("unexpected summary %+v", s)
	}

	code, out, _ = runCLI(t, "", "--summary", tracePath, "--pretty")
	if code != exitOK || !strings.Contains(out, "Calls: 2") || !strings.Contains(out, "E_UNDEFINED: 1") {
		t.Errorf("exit %d, output %q", code, out)
	}
}

func TestComputeTraceSummaryRejectsGarbage(t *testing.T) {
	if _, err := computeTraceSummary(strings.NewReader("{\"event\":\"run_start\"}\nnot json\n")); err == nil {
		t.Error("expected error")
	}
}

// --- REPL ---

// scriptedReader replays lines, then reports EOF.
type scriptedReader struct {
	lines   []string
	errs    map[int]error
	prompts []string
	history []string
	calls   int
}

func (r *scriptedReader) Prompt(p string) (string, error) {
	r.prompts = append(r.prompts, p)
	i := r.calls
	r.calls++
	if err, ok := r.errs[i]; ok {
		return "", err
	}
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) AppendHistory(item string) {
	r.history = append(r.history, item)
}

func runREPL(t *testing.T, lr *scriptedReader) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rt := runtime.New(runtime.WithStdout(&stdout))
	code := repl(rt, lr, "> ", true, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestREPLPersistsGlobals(t *testing.T) {
	lr := &scriptedReader{lines: []string{"var a = 1;", "a = a + 41;", "print(a);"}}
	code, out, errOut := runREPL(t, lr)
	if code != exitOK || errOut != "" {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if out != "42\n\n" {
		t.Errorf("unexpected output %q", out)
	}
	if len(lr.history) != 3 {
		t.Errorf("expected 3 history entries, got %v", lr.history)
	}
}

func TestREPLContinuation(t *testing.T) {
	lr := &scriptedReader{lines: []string{"fn add(a, b) {", "  return a + b;", "}", "print(add(1, 2));"}}
	code, out, errOut := runREPL(t, lr)
	if code != exitOK || errOut != "" {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if out != "3\n\n" {
		t.Errorf("unexpected output %q", out)
	}
	wantPrompts := []string{"> ", promptCont, promptCont, "> ", "> "}
	if strings.Join(lr.prompts, "|") != strings.Join(wantPrompts, "|") {
		t.Errorf("prompts = %q, want %q", lr.prompts, wantPrompts)
	}
	if lr.history[0] != "fn add(a, b) {   return a + b; }" {
		t.Errorf("unexpected history entry %q", lr.history[0])
	}
}

func TestREPLErrorsAbandonOnlyCurrentInput(t *testing.T) {
	lr := &scriptedReader{lines: []string{"print(nope);", "var = 1;", `print("still here");`}}
	code, out, errOut := runREPL(t, lr)
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(errOut, "E_UNDEFINED") || !strings.Contains(errOut, "E_PARSE") {
		t.Errorf("expected both errors reported, got %q", errOut)
	}
	if out != "still here\n\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestREPLCommands(t *testing.T) {
	lr := &scriptedReader{lines: []string{":ast 1 + 2;", ":help classes", ":bogus", ":quit", "print(1);"}}
	code, out, errOut := runREPL(t, lr)
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out, "(+ 1 2);") || !strings.Contains(out, "CLASSES") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(errOut, "unknown command :bogus") {
		t.Errorf("unexpected stderr %q", errOut)
	}
	if strings.Contains(out, "1\n") {
		t.Error("input after :quit should not run")
	}
}

func TestREPLCtrlCAbandonsInput(t *testing.T) {
	lr := &scriptedReader{
		lines: []string{"fn f() {", "print(7);"},
		errs:  map[int]error{1: liner.ErrPromptAborted},
	}
	code, out, errOut := runREPL(t, lr)
	if code != exitOK || errOut != "" {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if out != "7\n\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestREPLReadFailureIsFatal(t *testing.T) {
	lr := &scriptedReader{errs: map[int]error{0: errors.New("terminal gone")}}
	code, _, errOut := runREPL(t, lr)
	if code != exitUsage || !strings.Contains(errOut, "terminal gone") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}
