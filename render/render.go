// Package render implements the Renderer (C7): walking the IR and emitting
// syntactically correct target-dialect text, per dialect configuration
// (operator mapping, escaping, wildcard encoding, pipeline syntax).
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saltar-ua/Uncoder-IO/escape"
	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

// WildcardWrap names how a CONTAINS/STARTSWITH/ENDSWITH operator without a
// dedicated target-dialect keyword is instead expressed as an EQ comparison
// against a wildcard-bounded literal (e.g. Splunk's `field="*v*"`).
type WildcardWrap int

const (
	NoWrap WildcardWrap = iota
	WrapBoth
	WrapPrefix
	WrapSuffix
)

// OperatorRule describes how one IR operator renders in a target dialect.
// Template uses %FIELD% and %VALUE% placeholders so both infix operators
// (`%FIELD% = %VALUE%`) and function-call operators (`re(%FIELD%, %VALUE%)`)
// are expressible uniformly.
type OperatorRule struct {
	Template     string
	WildcardWrap WildcardWrap
	ValueType    escape.ValueType
	ListJoiner   string // used when the operator natively accepts a list, e.g. "IN (%VALUES%)"
}

// FunctionRule renders one pipeline function by name.
type FunctionRule struct {
	// Render receives the function and returns its rendered text.
	Render func(fn *ir.Function, r *Renderer) (string, error)
}

// DialectConfig is the per-target-dialect render configuration.
type DialectConfig struct {
	Name string

	OperatorMap       map[ir.TokenType]OperatorRule
	DefaultOperator   OperatorRule // used, with a diagnostic, when OperatorMap has no entry
	LogicalSpelling   map[ir.TokenType]string // and/or/not
	Escape            escape.Table
	WildcardSymbol    string
	QuoteStrings      bool
	SupportsIN        bool // native multi-value IN syntax
	KeywordTemplate   string // %VALUE% placeholder; "" renders the keyword value alone (quoted per QuoteStrings)
	FunctionPipeJoin  string // e.g. " | " for Splunk/KQL-style pipelines
	Functions         map[string]FunctionRule

	// Finalize prepends the chosen SourceMapping's default log-source
	// expression ahead of the rendered query body.
	Finalize func(body string, sm *mapping.SourceMapping) string
}

// Renderer walks a SiemContainer's IR and produces target text for one
// dialect. It re-resolves the *target* SourceMapping itself from the
// container's extracted LogSource against its own catalog — the parser's
// SourceMappingIDs name mappings in the *source* dialect's catalog, which
// are generally absent from the target catalog (e.g. Sigma's own "sigma"
// id vs Splunk's "splunk_windows") — while still using the source-side
// resolution (MetaInfo.SourceMappingIDs) to recover each field's
// dialect-agnostic generic name.
type Renderer struct {
	cfg     *DialectConfig
	catalog *mapping.Catalog
}

func New(cfg *DialectConfig, catalog *mapping.Catalog) *Renderer {
	return &Renderer{cfg: cfg, catalog: catalog}
}

// Render renders a full SiemContainer: query body, then pipeline functions,
// then Finalize. Diagnostics accumulate in a side channel and never abort
// rendering — only StrictRender (applied by the caller) does.
func (r *Renderer) Render(c *ir.SiemContainer) (string, []xerrors.Diagnostic, error) {
	sourceMappingID := mapping.DefaultMappingName
	if len(c.MetaInfo.SourceMappingIDs) > 0 {
		sourceMappingID = c.MetaInfo.SourceMappingIDs[0]
	}
	sm := r.chooseMapping(c.LogSource)

	body, diags, err := r.RenderQuery(c.Query, sourceMappingID, sm)
	if err != nil {
		return "", diags, err
	}

	if len(c.Functions.Functions) > 0 || len(c.Functions.Unsupported) > 0 {
		funcText, funcDiags := r.renderFunctions(c.Functions, sourceMappingID, sm)
		diags = append(diags, funcDiags...)
		if funcText != "" {
			joiner := r.cfg.FunctionPipeJoin
			if joiner == "" {
				joiner = " | "
			}
			body = body + joiner + funcText
		}
	}

	if r.cfg.Finalize != nil {
		body = r.cfg.Finalize(body, sm)
	}
	return body, diags, nil
}

// chooseMapping resolves the target SourceMapping against this renderer's
// own catalog from the container's extracted LogSource, taking the most
// specific match GetSuitableSourceMappings returns (or the catalog's
// default mapping when nothing — or no LogSource at all — matched).
func (r *Renderer) chooseMapping(logSource ir.LogSource) *mapping.SourceMapping {
	candidates := r.catalog.GetSuitableSourceMappings(mapping.LogSource(logSource))
	if len(candidates) > 0 {
		return candidates[0]
	}
	return r.catalog.GetSourceMapping(mapping.DefaultMappingName)
}

// RenderQuery walks the flat token stream (spec.md §4.3: parens are
// explicit structural tokens, so the renderer doesn't need to rebuild a
// tree — it substitutes each token for dialect text and joins by spaces,
// then tightens spacing around parens). sourceMappingID is the source
// dialect's mapping id used to recover each field's generic name;
// targetMapping is this renderer's own resolved SourceMapping.
func (r *Renderer) RenderQuery(tokens []ir.Token, sourceMappingID string, targetMapping *mapping.SourceMapping) (string, []xerrors.Diagnostic, error) {
	var parts []string
	var diags []xerrors.Diagnostic

	for _, tok := range tokens {
		switch v := tok.(type) {
		case *ir.Identifier:
			if v.TokenType == ir.LParen {
				parts = append(parts, "(")
			} else if v.TokenType == ir.RParen {
				parts = append(parts, ")")
			} else {
				parts = append(parts, r.logicalSpelling(v.TokenType))
			}
		case *ir.Keyword:
			parts = append(parts, r.renderKeyword(v.Value))
		case *ir.FieldValue:
			text, d, err := r.renderFieldValue(v, sourceMappingID, targetMapping)
			if err != nil {
				return "", diags, err
			}
			diags = append(diags, d...)
			parts = append(parts, text)
		}
	}

	joined := strings.Join(parts, " ")
	joined = strings.ReplaceAll(joined, "( ", "(")
	joined = strings.ReplaceAll(joined, " )", ")")
	return joined, diags, nil
}

func (r *Renderer) logicalSpelling(t ir.TokenType) string {
	if s, ok := r.cfg.LogicalSpelling[t]; ok {
		return s
	}
	return string(t)
}

func (r *Renderer) renderKeyword(value string) string {
	if r.cfg.KeywordTemplate == "" {
		return r.quote(value)
	}
	return strings.ReplaceAll(r.cfg.KeywordTemplate, "%VALUE%", r.quote(value))
}

func (r *Renderer) resolveField(f *ir.Field, sourceMappingID string, sm *mapping.SourceMapping) (string, *xerrors.Diagnostic) {
	if f.Unmapped {
		d := xerrors.UnmappedFieldDiagnostic(f.SourceName)
		return f.SourceName, &d
	}
	generic := f.GenericName(sourceMappingID)
	if target, ok := sm.DialectField(generic); ok {
		return target, nil
	}
	return generic, nil
}

func (r *Renderer) renderFieldValue(fv *ir.FieldValue, sourceMappingID string, sm *mapping.SourceMapping) (string, []xerrors.Diagnostic, error) {
	var diags []xerrors.Diagnostic
	fieldText, d := r.resolveField(fv.Field, sourceMappingID, sm)
	if d != nil {
		diags = append(diags, *d)
	}

	rule, ok := r.cfg.OperatorMap[fv.Operator.TokenType]
	if !ok {
		diags = append(diags, xerrors.UnsupportedOperatorDiagnostic(string(fv.Operator.TokenType)))
		rule = r.cfg.DefaultOperator
	}

	if _, isList := fv.Value.([]any); fv.IsMultiValue() || isList {
		text := r.renderMultiValue(fieldText, rule, fv.ValueList())
		return text, diags, nil
	}

	text := r.renderOne(fieldText, rule, fv.Value)
	return text, diags, nil
}

// renderMultiValue expands a list value either into the dialect's native
// list syntax (rule.ListJoiner set) or, when the dialect lacks IN, into an
// OR-disjunction of single-value comparisons wrapped in parens — the
// rendering rule of spec.md §4.7.
func (r *Renderer) renderMultiValue(field string, rule OperatorRule, values []any) string {
	if r.cfg.SupportsIN && rule.ListJoiner != "" {
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = r.formatValue(rule, v)
		}
		return strings.ReplaceAll(strings.ReplaceAll(rule.Template, "%FIELD%", field), "%VALUES%", strings.Join(quoted, rule.ListJoiner))
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = r.renderOne(field, rule, v)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func (r *Renderer) renderOne(field string, rule OperatorRule, value any) string {
	formatted := r.formatValue(rule, value)
	return strings.ReplaceAll(strings.ReplaceAll(rule.Template, "%FIELD%", field), "%VALUE%", formatted)
}

func (r *Renderer) formatValue(rule OperatorRule, value any) string {
	raw := toString(value)
	escaped := r.cfg.Escape.Escape(raw, rule.ValueType)
	wrapped := r.applyWildcardWrap(escaped, rule.WildcardWrap)
	return r.quote(wrapped)
}

func (r *Renderer) applyWildcardWrap(value string, wrap WildcardWrap) string {
	if wrap == NoWrap || r.cfg.WildcardSymbol == "" {
		return value
	}
	switch wrap {
	case WrapBoth:
		return r.cfg.WildcardSymbol + value + r.cfg.WildcardSymbol
	case WrapPrefix:
		return r.cfg.WildcardSymbol + value
	case WrapSuffix:
		return value + r.cfg.WildcardSymbol
	default:
		return value
	}
}

// quote wraps a string value in double quotes when QuoteStrings is set;
// integer values render bare.
func (r *Renderer) quote(value string) string {
	if !r.cfg.QuoteStrings {
		return value
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return value
	}
	return strconv.Quote(value)
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return fmt.Sprintf("%d", t)
	case int64:
		return fmt.Sprintf("%d", t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// renderFunctions renders the pipeline's functions in order, accumulating a
// diagnostic (and a rendered comment) for every unsupported function name
// instead of failing the whole render, per spec.md §4.7/§7.
func (r *Renderer) renderFunctions(pf ir.ParsedFunctions, sourceMappingID string, sm *mapping.SourceMapping) (string, []xerrors.Diagnostic) {
	var diags []xerrors.Diagnostic
	var parts []string
	for _, fn := range pf.Functions {
		rule, ok := r.cfg.Functions[fn.Name]
		if !ok {
			diags = append(diags, xerrors.UnmappedFunctionDiagnostic(fn.Name))
			parts = append(parts, fmt.Sprintf("/* unsupported function: %s */", fn.Name))
			continue
		}
		text, err := rule.Render(fn, r)
		if err != nil {
			diags = append(diags, xerrors.UnmappedFunctionDiagnostic(fn.Name))
			parts = append(parts, fmt.Sprintf("/* unsupported function: %s */", fn.Name))
			continue
		}
		parts = append(parts, text)
	}
	for _, name := range pf.Unsupported {
		diags = append(diags, xerrors.UnmappedFunctionDiagnostic(name))
		parts = append(parts, fmt.Sprintf("/* unsupported function: %s */", name))
	}
	return strings.Join(parts, r.pipeFunctionJoiner()), diags
}

func (r *Renderer) pipeFunctionJoiner() string {
	if r.cfg.FunctionPipeJoin == "" {
		return " | "
	}
	return r.cfg.FunctionPipeJoin
}

// RenderFieldText resolves and returns a field's dialect name, exported for
// FunctionRule.Render implementations that need it.
func (r *Renderer) RenderFieldText(f *ir.Field, sourceMappingID string, sm *mapping.SourceMapping) string {
	text, _ := r.resolveField(f, sourceMappingID, sm)
	return text
}
