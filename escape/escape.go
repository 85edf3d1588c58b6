// Package escape implements the Escape Manager (C1): per-dialect
// character-class escape tables for literal and regex-embedded values.
package escape

import "regexp"

// ValueType selects which escape rule applies: a plain literal value, or a
// value that will be embedded inside a dialect's regex syntax.
type ValueType string

const (
	Value            ValueType = "value"
	RegexValue       ValueType = "regex_value"
	WildcardValue    ValueType = "wildcard_value"
)

// Rule pairs a compiled pattern with the escape character to prefix every
// match with.
type Rule struct {
	Pattern *regexp.Regexp
	Escape  string
}

// NewRule compiles pattern and defaults Escape to a single backslash, the
// typical case across every supported dialect.
func NewRule(pattern string, escapeChar ...string) Rule {
	char := `\`
	if len(escapeChar) > 0 {
		char = escapeChar[0]
	}
	return Rule{Pattern: regexp.MustCompile(pattern), Escape: char}
}

// Table is an immutable, per-dialect value_type -> Rule map, built once at
// dialect-config construction and never mutated afterward.
type Table map[ValueType]Rule

// Escape prefixes every character matched by the rule's pattern with the
// rule's escape character. An unknown ValueType returns value unchanged.
func (t Table) Escape(value string, valueType ValueType) string {
	rule, ok := t[valueType]
	if !ok {
		return value
	}
	return rule.Pattern.ReplaceAllStringFunc(value, func(m string) string {
		return rule.Escape + m
	})
}
