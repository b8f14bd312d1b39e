package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/uuu/pkg/ast"
	"github.com/thomasrohde/uuu/pkg/diagnostics"
)

func TestMakeDiag(t *testing.T) {
	span := &ast.Span{File: "test.uuu", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", span, "check syntax")

	if d.Code != diagnostics.EParse {
		t.Errorf("got Code = %q, want %q", d.Code, diagnostics.EParse)
	}
	if d.Message != "unexpected token" {
		t.Errorf("got Message = %q, want %q", d.Message, "unexpected token")
	}
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &ast.Span{File: "test.uuu", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 10}
	d := diagnostics.MakeDiag(diagnostics.ERedeclared, "variable 'x' already declared in this scope", span, "rename one of them")

	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.Contains(out, "error[E_REDECLARED]") {
		t.Errorf("expected error code in output, got: %s", out)
	}
	if !strings.Contains(out, "test.uuu:3:5") {
		t.Errorf("expected location in output, got: %s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("expected hint in output, got: %s", out)
	}
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "bad token", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	if !strings.Contains(out, `"code":"E_LEX"`) {
		t.Errorf("expected JSON code in output, got: %s", out)
	}
}

func TestFormatDiagnosticsJSONKeepsValueTags(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EArity, "<fn: f> expected 1 argument but got 0", nil, ""),
		diagnostics.MakeDiag(diagnostics.EArity, "<native fn: print> expected 1 argument but got 2", nil, ""),
	}
	out := diagnostics.FormatDiagnostics(diags, false)
	for _, want := range []string{"<fn: f> expected", "<native fn: print> expected"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
	if strings.Contains(out, `\u003c`) || strings.HasSuffix(out, "\n") {
		t.Errorf("unexpected escaping or trailing newline: %q", out)
	}

	single := diagnostics.FormatDiagnostic(diags[0], false)
	if !strings.HasPrefix(single, `{"code":"E_ARITY","message":"<fn: f> expected`) {
		t.Errorf("got %s", single)
	}
}

func TestFormatDiagnosticsJoinsPretty(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.ESelfInit, "first", nil, ""),
		diagnostics.MakeDiag(diagnostics.ELoopControl, "second", nil, ""),
	}
	out := diagnostics.FormatDiagnostics(diags, true)
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("expected both messages, got: %s", out)
	}
	if !strings.Contains(out, "<unknown>") {
		t.Errorf("expected unknown location marker, got: %s", out)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		code string
		want diagnostics.Category
	}{
		{diagnostics.ERedeclared, diagnostics.CategoryScope},
		{diagnostics.ESelfInherit, diagnostics.CategoryScope},
		{diagnostics.ELoopControl, diagnostics.CategoryScope},
		{diagnostics.EUndefined, diagnostics.CategoryBinding},
		{diagnostics.ENotCallable, diagnostics.CategoryBinding},
		{diagnostics.ENotInstance, diagnostics.CategoryBinding},
		{diagnostics.EType, diagnostics.CategoryType},
		{diagnostics.EArity, diagnostics.CategoryArity},
		{diagnostics.EParse, diagnostics.CategorySyntax},
		{diagnostics.EUnexpectedEOF, diagnostics.CategorySyntax},
		{diagnostics.EStackOverflow, diagnostics.CategoryHost},
		{"E_SOMETHING_NEW", diagnostics.CategoryHost},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := diagnostics.CategoryOf(tt.code); got != tt.want {
				t.Errorf("CategoryOf(%s) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}
