package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/uuu/internal/testutil"
	"github.com/thomasrohde/uuu/pkg/diagnostics"
	"github.com/thomasrohde/uuu/pkg/evaluator"
	"github.com/thomasrohde/uuu/pkg/runtime"
)

// outcome is what a scenario command produced.
type outcome struct {
	exitCode int
	stdout   string
	diags    []diagnostics.Diagnostic
}

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, dir := range dirs {
		dir := dir
		t.Run(filepath.Base(dir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(dir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}
			source, filename, err := testutil.ReadProgramFile(dir, scenario.Cmd)
			if err != nil {
				t.Fatalf("failed to read program file: %v", err)
			}

			var got outcome
			switch scenario.Cmd[0] {
			case "run":
				got = runScenario(source, filename)
			case "check":
				got = checkScenario(source, filename)
			case "ast":
				got = astScenario(source, filename)
			default:
				t.Skipf("unsupported command: %s", scenario.Cmd[0])
			}
			checkExpectations(t, scenario, got)
		})
	}
}

func runScenario(source, filename string) outcome {
	var stdout bytes.Buffer
	rt := runtime.New(runtime.WithStdout(&stdout))
	err := rt.Run(context.Background(), source, filename)
	out := outcome{stdout: stdout.String()}
	out.exitCode, out.diags = classify(err)
	return out
}

func checkScenario(source, filename string) outcome {
	rt := runtime.New(runtime.WithStdout(&bytes.Buffer{}))
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		return outcome{exitCode: 2, diags: diags}
	}
	return outcome{}
}

func astScenario(source, filename string) outcome {
	rt := runtime.New(runtime.WithStdout(&bytes.Buffer{}))
	text, err := rt.Format(source, filename)
	out := outcome{stdout: text}
	out.exitCode, out.diags = classify(err)
	return out
}

// classify maps an error to the CLI exit code and its diagnostics.
func classify(err error) (int, []diagnostics.Diagnostic) {
	if err == nil {
		return 0, nil
	}
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		return 2, diagErr.Diagnostics
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		return 4, []diagnostics.Diagnostic{rtErr.Diagnostic()}
	}
	return 4, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EInternal, err.Error(), nil, "")}
}

func checkExpectations(t *testing.T, scenario *testutil.Scenario, got outcome) {
	t.Helper()
	want := scenario.Expect

	if got.exitCode != want.ExitCode {
		t.Errorf("exit code: got %d, want %d (diagnostics: %v)", got.exitCode, want.ExitCode, got.diags)
	}
	if want.StdoutText != "" && got.stdout != want.StdoutText {
		t.Errorf("stdout mismatch:\ngot:\n%s\nwant:\n%s", got.stdout, want.StdoutText)
	}
	if want.StdoutContains != "" && !strings.Contains(got.stdout, want.StdoutContains) {
		t.Errorf("stdout does not contain %q:\n%s", want.StdoutContains, got.stdout)
	}

	if len(want.Codes) > 0 {
		codes := make([]string, len(got.diags))
		for i, d := range got.diags {
			codes[i] = d.Code
		}
		if strings.Join(codes, ",") != strings.Join(want.Codes, ",") {
			t.Errorf("diagnostic codes: got %v, want %v", codes, want.Codes)
		}
	}
	if want.StderrContains != "" {
		stderr := ""
		if len(got.diags) > 0 {
			stderr = diagnostics.FormatDiagnostics(got.diags, scenario.Pretty)
		}
		if !strings.Contains(stderr, want.StderrContains) {
			t.Errorf("stderr does not contain %q:\n%s", want.StderrContains, stderr)
		}
	}
}
