package formatter

import (
	"testing"

	"github.com/thomasrohde/uuu/pkg/parser"
)

func formatSource(t *testing.T, src string) string {
	t.Helper()
	prog, diags := parser.Parse(src, "test.uuu")
	if len(diags) > 0 {
		t.Fatalf("parse error: %s", diags[0].Message)
	}
	return Format(prog)
}

func TestFormatExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3;", "(+ 1 (* 2 3));\n"},
		{"(1 + 2) * 3;", "(* (group (+ 1 2)) 3);\n"},
		{"-x;", "(- x);\n"},
		{"!true;", "(! true);\n"},
		{"a == b != c;", "(!= (== a b) c);\n"},
		{"a | b & c;", "(| a (& b c));\n"},
		{"c ? a : b;", "(c ? a : b);\n"},
		{"x = 2.5;", "(= x 2.5);\n"},
		{`f("s", null);`, "(call f \"s\" null);\n"},
		{"a.b.c;", "(. (. a b) c);\n"},
		{"a.b = 1;", "(= (. a b) 1);\n"},
		{"f()(1);", "(call (call f) 1);\n"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := formatSource(t, tt.src); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"var with init", "var x = 1 + 2;", "var x = (+ 1 2);\n"},
		{"var without init", "var x;", "var x;\n"},
		{"empty block", "{}", "{}\n"},
		{"block", "{ var a = 1; print(a); }", "{\n  var a = 1;\n  (call print a);\n}\n"},
		{"if else", "if (a) b; else c;", "if (a) b; else c;\n"},
		{"while", "while (a < 3) a = a + 1;", "while ((< a 3)) (= a (+ a 1));\n"},
		{"for", "for (var i = 0; i < 2; i = i + 1) {}", "for (var i = 0; (< i 2); (= i (+ i 1))) {}\n"},
		{"for without clauses", "for (;;) break;", "for (;;) break;\n"},
		{"function", "fn add(a, b) { return a + b; }", "fn add(a, b) {\n  return (+ a b);\n}\n"},
		{"bare return", "fn f() { return; }", "fn f() {\n  return;\n}\n"},
		{"loop control", "while (true) { continue; }", "while (true) {\n  continue;\n}\n"},
		{"class", "class B < A { fn m() { return super.m(); } }",
			"class B < A {\n  fn m() {\n    return (call (super m));\n  }\n}\n"},
		{"empty class", "class A {}", "class A {}\n"},
		{"self", "class A { fn get() { return self.x; } }",
			"class A {\n  fn get() {\n    return (. self x);\n  }\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSource(t, tt.src); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestFormatEmptyProgram(t *testing.T) {
	if got := formatSource(t, ""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{6, "6"},
		{2.5, "2.5"},
		{1e21, "1000000000000000000000"},
		{0.001, "0.001"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
