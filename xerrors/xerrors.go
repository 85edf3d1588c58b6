// Package xerrors defines the closed set of error kinds the translation core
// can raise, and the boundary helper that turns any of them into the
// (ok, result, diagnostics) envelope external callers receive.
package xerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed set of error kinds a translation unit can fail with.
type Kind string

const (
	KindTokenizerGeneral   Kind = "tokenizer_general"
	KindQueryParentheses   Kind = "query_parentheses"
	KindUnsupportedOperator Kind = "unsupported_operator"
	KindUnsupportedRoot    Kind = "unsupported_root"
	KindUnsupportedPlatform Kind = "unsupported_platform"
	KindUnmappedField      Kind = "unmapped_field"
	KindUnmappedFunction   Kind = "unmapped_function"
	KindModifierChainTooLong Kind = "modifier_chain_too_long"
	KindStrictRender       Kind = "strict_render"
)

// CoreError is a fatal, unit-aborting translation failure. Non-fatal
// conditions (UnmappedField, UnmappedFunction) are carried as Diagnostic
// values instead, never as a CoreError, unless strict mode promotes them.
type CoreError struct {
	Kind     Kind
	Message  string
	Fragment string // offending remainder of the query, when applicable
	cause    error
}

func (e *CoreError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("%s: %s (at: %q)", e.Kind, e.Message, e.Fragment)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error { return e.cause }

func newErr(kind Kind, message, fragment string) *CoreError {
	return &CoreError{Kind: kind, Message: message, Fragment: fragment, cause: errors.WithStack(fmt.Errorf("%s", message))}
}

// TokenizerGeneral reports malformed input at the given remaining fragment.
func TokenizerGeneral(message, fragment string) *CoreError {
	return newErr(KindTokenizerGeneral, message, fragment)
}

// QueryParentheses reports unbalanced grouping in the token stream.
func QueryParentheses() *CoreError {
	return newErr(KindQueryParentheses, "unbalanced parentheses", "")
}

// UnsupportedOperator reports operator text absent from a dialect's map.
func UnsupportedOperator(operator string) *CoreError {
	return newErr(KindUnsupportedOperator, "operator not supported by dialect", operator)
}

// UnsupportedRoot reports a top-level source construct a parser can't resolve
// (e.g. a Sigma condition referencing a missing selection).
func UnsupportedRoot(message string) *CoreError {
	return newErr(KindUnsupportedRoot, message, "")
}

// UnsupportedPlatform reports a registry miss.
func UnsupportedPlatform(name string) *CoreError {
	return newErr(KindUnsupportedPlatform, "platform is not registered", name)
}

// ModifierChainTooLong reports a Sigma modifier stack deeper than the
// documented two-modifier combinations support.
func ModifierChainTooLong(field string, depth int) *CoreError {
	return newErr(KindModifierChainTooLong, fmt.Sprintf("modifier chain depth %d exceeds the supported maximum of 2", depth), field)
}

// StrictRender reports a diagnostic promoted to fatal by strict mode.
func StrictRender(d Diagnostic) *CoreError {
	return newErr(KindStrictRender, d.Message, d.Fragment)
}

// Diagnostic is a non-fatal condition attached to a render result:
// unmapped fields, unsupported functions, unsupported target operators.
type Diagnostic struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Fragment string `json:"fragment,omitempty"`
}

func UnmappedFieldDiagnostic(field string) Diagnostic {
	return Diagnostic{Kind: KindUnmappedField, Message: "field has no generic mapping for the chosen log source", Fragment: field}
}

func UnmappedFunctionDiagnostic(name string) Diagnostic {
	return Diagnostic{Kind: KindUnmappedFunction, Message: "function is not translatable to the target dialect", Fragment: name}
}

func UnsupportedOperatorDiagnostic(operator string) Diagnostic {
	return Diagnostic{Kind: KindUnsupportedOperator, Message: "operator has no equivalent in the target dialect; best-effort rendering applied", Fragment: operator}
}

// Envelope is the per-request output described in spec.md §6.
type Envelope struct {
	Status      bool         `json:"status"`
	Result      string       `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Handle runs fn and converts any error, fatal or not, into an Envelope.
// Diagnostics alone never flip Status to false; a StrictRender error does.
// This mirrors the original core's handle_translation_exceptions decorator.
func Handle(fn func() (string, []Diagnostic, error)) Envelope {
	result, diagnostics, err := fn()
	if err != nil {
		return Envelope{Status: false, Error: err.Error(), Diagnostics: diagnostics}
	}
	return Envelope{Status: true, Result: result, Diagnostics: diagnostics}
}

// MultiEnvelope is Envelope's shape for operations that legitimately produce
// more than one result string — the CTI pipeline's chunked queries.
type MultiEnvelope struct {
	Status      bool         `json:"status"`
	Results     []string     `json:"results,omitempty"`
	Error       string       `json:"error,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// HandleMulti is Handle's counterpart for functions returning multiple
// result strings, used by the CTI converter's convert/generate boundary.
func HandleMulti(fn func() ([]string, []Diagnostic, error)) MultiEnvelope {
	results, diagnostics, err := fn()
	if err != nil {
		return MultiEnvelope{Status: false, Error: err.Error(), Diagnostics: diagnostics}
	}
	return MultiEnvelope{Status: true, Results: results, Diagnostics: diagnostics}
}
