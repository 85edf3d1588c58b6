package tokenizer

import (
	"regexp"

	"github.com/saltar-ua/Uncoder-IO/ir"
)

// DialectConfig is the per-dialect configuration consumed by Tokenizer,
// the teacher's "assemble patterns once, at construction" idiom
// (graph.Config / info.Config) generalized from per-language code grammars
// to per-dialect query grammars, per spec.md §9's metaclass-hook redesign
// flag.
//
// FieldPattern, KeywordPattern, and LogicalOperatorPattern must be anchored
// with `^` — the tokenizer always matches against the head of the
// remaining query, never searches mid-string.
type DialectConfig struct {
	Name string

	FieldPattern           *regexp.Regexp // named group "field_name"
	ValuePattern           string         // regex fragment, no anchors, named group "value"
	MultiValuePattern      string         // regex fragment, no anchors, named group "value"
	KeywordPattern         *regexp.Regexp // optional; named group "value"
	LogicalOperatorPattern *regexp.Regexp // named group "logical_operator"

	SingleValueOperators map[string]ir.TokenType // operator text (lowercase) -> token type
	MultiValueOperators  map[string]ir.TokenType

	WildcardSymbol string // typically "*"; empty disables wildcard normalization
}

// NewDialectConfig lower-cases every operator map key at construction time,
// per spec.md §9's second Open Question: search_operator lower-cases the
// matched text but the map itself was case-defined by the dialect author,
// so normalizing here avoids a silent lookup miss later.
func NewDialectConfig(name string, cfg DialectConfig) *DialectConfig {
	cfg.Name = name
	cfg.SingleValueOperators = lowerKeys(cfg.SingleValueOperators)
	cfg.MultiValueOperators = lowerKeys(cfg.MultiValueOperators)
	return &cfg
}

func lowerKeys(m map[string]ir.TokenType) map[string]ir.TokenType {
	out := make(map[string]ir.TokenType, len(m))
	for k, v := range m {
		out[toLower(k)] = v
	}
	return out
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// AllOperators merges single- and multi-value operator maps.
func (c *DialectConfig) AllOperators() map[string]ir.TokenType {
	out := make(map[string]ir.TokenType, len(c.SingleValueOperators)+len(c.MultiValueOperators))
	for k, v := range c.SingleValueOperators {
		out[k] = v
	}
	for k, v := range c.MultiValueOperators {
		out[k] = v
	}
	return out
}

// OperatorToken maps operator source text to its IR token type, per
// spec.md §8's "operator closure" invariant: every Identifier the tokenizer
// emits belongs to the dialect's operators_map.
func (c *DialectConfig) OperatorToken(operator string) (ir.TokenType, bool) {
	lower := toLower(operator)
	if t, ok := c.SingleValueOperators[lower]; ok {
		return t, true
	}
	if t, ok := c.MultiValueOperators[lower]; ok {
		return t, true
	}
	return "", false
}

func (c *DialectConfig) IsMultiValueOperator(operator string) bool {
	_, ok := c.MultiValueOperators[toLower(operator)]
	return ok
}
