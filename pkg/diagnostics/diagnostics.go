// Package diagnostics defines uuu diagnostic types for lex/parse/scope/runtime errors.
package diagnostics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/uuu/pkg/ast"
)

// Diagnostic code constants.
const (
	// Front end
	ELex           = "E_LEX"
	EParse         = "E_PARSE"
	EUnexpectedEOF = "E_UNEXPECTED_EOF"

	// Scope (static, raised by the resolver)
	ERedeclared      = "E_REDECLARED"
	ESelfInit        = "E_SELF_INIT"
	ESelfInherit     = "E_SELF_INHERIT"
	ELoopControl     = "E_LOOP_CONTROL"
	EReturnOutside   = "E_RETURN_OUTSIDE"
	ESelfOutside     = "E_SELF_OUTSIDE"
	ESuperOutside    = "E_SUPER_OUTSIDE"
	EAlreadyResolved = "E_ALREADY_RESOLVED"

	// Binding
	EUndefined         = "E_UNDEFINED"
	EUndefinedProperty = "E_UNDEFINED_PROPERTY"
	ENotCallable       = "E_NOT_CALLABLE"
	ENotInstance       = "E_NOT_INSTANCE"

	// Type / arity
	EType  = "E_TYPE"
	EArity = "E_ARITY"

	// Host
	EStackOverflow = "E_STACK_OVERFLOW"
	ECancelled     = "E_CANCELLED"
	EInternal      = "E_INTERNAL"
	EIO            = "E_IO"
)

// Category groups diagnostic codes into the error taxonomy.
type Category string

const (
	CategorySyntax  Category = "syntax"
	CategoryScope   Category = "scope"
	CategoryBinding Category = "binding"
	CategoryType    Category = "type"
	CategoryArity   Category = "arity"
	CategoryHost    Category = "host"
)

var categories = map[string]Category{
	ELex:               CategorySyntax,
	EParse:             CategorySyntax,
	EUnexpectedEOF:     CategorySyntax,
	ERedeclared:        CategoryScope,
	ESelfInit:          CategoryScope,
	ESelfInherit:       CategoryScope,
	ELoopControl:       CategoryScope,
	EReturnOutside:     CategoryScope,
	ESelfOutside:       CategoryScope,
	ESuperOutside:      CategoryScope,
	EAlreadyResolved:   CategoryScope,
	EUndefined:         CategoryBinding,
	EUndefinedProperty: CategoryBinding,
	ENotCallable:       CategoryBinding,
	ENotInstance:       CategoryBinding,
	EType:              CategoryType,
	EArity:             CategoryArity,
}

// CategoryOf returns the taxonomy category of a diagnostic code.
// Unknown codes are reported as host errors.
func CategoryOf(code string) Category {
	if c, ok := categories[code]; ok {
		return c
	}
	return CategoryHost
}

// Diagnostic represents a lex, parse, scope, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		return encodeJSON(d)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		return encodeJSON(diags)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// encodeJSON renders v as one line of JSON without HTML escaping.
func encodeJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return strings.TrimSuffix(buf.String(), "\n")
}
