// Package tokenizer implements the Tokenizer (C4): lexing a query string
// into an ordered list of ir.Token, generalized across source dialects by
// DialectConfig instead of per-dialect subclassing.
package tokenizer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

// Tokenizer turns query text into a flat ir.Token stream for one dialect.
type Tokenizer struct {
	cfg *DialectConfig
}

func New(cfg *DialectConfig) *Tokenizer { return &Tokenizer{cfg: cfg} }

// Tokenize is the tokenizer's main loop (spec.md §4.4): at each step it
// tries, in order, paren / logical-operator / field-value / keyword, and
// fails with TokenizerGeneral if none match.
func (t *Tokenizer) Tokenize(query string) ([]ir.Token, error) {
	remaining := strings.TrimSpace(query)
	var tokens []ir.Token
	for remaining != "" {
		tok, rest, err := t.next(remaining)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		remaining = strings.TrimSpace(rest)
	}
	if err := ValidateParentheses(tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (t *Tokenizer) next(query string) (ir.Token, string, error) {
	if strings.HasPrefix(query, "(") {
		return ir.NewIdentifier(ir.LParen), query[1:], nil
	}
	if strings.HasPrefix(query, ")") {
		return ir.NewIdentifier(ir.RParen), query[1:], nil
	}
	if t.cfg.LogicalOperatorPattern != nil {
		if m := t.cfg.LogicalOperatorPattern.FindStringSubmatchIndex(query); m != nil && m[0] == 0 {
			name := t.cfg.LogicalOperatorPattern.SubexpNames()
			text := submatchByName(t.cfg.LogicalOperatorPattern, query, name, "logical_operator")
			return ir.NewIdentifier(ir.TokenType(toLower(text))), query[m[1]:], nil
		}
	}
	if fv, rest, ok, err := t.matchFieldValue(query); err != nil {
		return nil, "", err
	} else if ok {
		return fv, rest, nil
	}
	if t.cfg.KeywordPattern != nil {
		if loc := t.cfg.KeywordPattern.FindStringSubmatchIndex(query); loc != nil && loc[0] == 0 {
			value := submatchByName(t.cfg.KeywordPattern, query, t.cfg.KeywordPattern.SubexpNames(), "value")
			return &ir.Keyword{Value: value}, query[loc[1]:], nil
		}
	}
	return nil, "", xerrors.TokenizerGeneral("Unsupported query entry", query)
}

func submatchByName(re *regexp.Regexp, s string, names []string, want string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	for i, n := range names {
		if n == want && i < len(m) {
			return m[i]
		}
	}
	return ""
}

// operatorAlternation builds an `op1|op2|...` alternation over operator
// texts, longest first, so ">=" is tried before ">" etc. The caller wraps
// it in whatever group syntax it needs (capturing or not).
func operatorAlternation(ops map[string]ir.TokenType) string {
	texts := make([]string, 0, len(ops))
	for k := range ops {
		texts = append(texts, regexp.QuoteMeta(k))
	}
	sort.Slice(texts, func(i, j int) bool { return len(texts[i]) > len(texts[j]) })
	return strings.Join(texts, "|")
}

// matchFieldValue implements _match_field_value + search_field/search_operator
// /search_value from the original tokenizer.py: it tries the single-value
// shape first, then the multi-value shape, building the field/operator/value
// regex dynamically around the concrete field name found at the head of the
// remaining query.
func (t *Tokenizer) matchFieldValue(query string) (*ir.FieldValue, string, bool, error) {
	fieldMatch := t.cfg.FieldPattern.FindStringSubmatch(query)
	if fieldMatch == nil {
		return nil, "", false, nil
	}
	fieldName := submatchByName(t.cfg.FieldPattern, query, t.cfg.FieldPattern.SubexpNames(), "field_name")
	if fieldName == "" {
		return nil, "", false, nil
	}
	quotedField := regexp.QuoteMeta(fieldName)

	// Try single-value first.
	if len(t.cfg.SingleValueOperators) > 0 {
		pattern := `(?is)^` + quotedField + `\s*(?P<operator>` + operatorAlternation(t.cfg.SingleValueOperators) + `)` +
			`\s*` + t.cfg.ValuePattern
		re, err := regexp.Compile(pattern)
		if err == nil {
			if loc := re.FindStringSubmatchIndex(query); loc != nil && loc[0] == 0 {
				names := re.SubexpNames()
				operatorText := submatchByName(re, query, names, "operator")
				valueText := submatchByName(re, query, names, "value")
				rest := query[loc[1]:]
				// An unquoted value hands back trailing ")" it has no "(" for,
				// so `User=admin)` still closes its group.
				if !strings.HasPrefix(valueText, `"`) && !strings.HasPrefix(valueText, `'`) {
					for strings.HasSuffix(valueText, ")") && strings.Count(valueText, ")") > strings.Count(valueText, "(") {
						valueText = valueText[:len(valueText)-1]
						rest = ")" + rest
					}
				}
				return t.buildFieldValue(fieldName, operatorText, valueText, false, rest)
			}
		}
	}

	// Then multi-value.
	if len(t.cfg.MultiValueOperators) > 0 {
		pattern := `(?is)^` + quotedField + `\s*(?P<operator>` + operatorAlternation(t.cfg.MultiValueOperators) + `)` +
			`\s*` + t.cfg.MultiValuePattern
		re, err := regexp.Compile(pattern)
		if err == nil {
			if loc := re.FindStringSubmatchIndex(query); loc != nil && loc[0] == 0 {
				names := re.SubexpNames()
				operatorText := submatchByName(re, query, names, "operator")
				valueText := submatchByName(re, query, names, "value")
				return t.buildFieldValue(fieldName, operatorText, valueText, true, query[loc[1]:])
			}
		}
	}

	return nil, "", false, nil
}

func (t *Tokenizer) buildFieldValue(fieldName, operatorText, valueText string, multi bool, rest string) (*ir.FieldValue, string, bool, error) {
	tokenType, ok := t.cfg.OperatorToken(operatorText)
	if !ok {
		return nil, "", false, xerrors.UnsupportedOperator(operatorText)
	}

	var value any
	if multi {
		parts := strings.Split(valueText, ",")
		list := make([]any, 0, len(parts))
		for _, p := range parts {
			list = append(list, cleanMultiValue(p))
		}
		value = list
	} else {
		value = valueText
	}

	value, tokenType = t.processWildcards(value, tokenType)

	field := ir.NewField(fieldName)
	return ir.NewFieldValue(field, ir.NewIdentifier(tokenType), value), rest, true, nil
}

func cleanMultiValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		if (v[0] == '\'' && v[len(v)-1] == '\'') || (v[0] == '"' && v[len(v)-1] == '"') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// processWildcards implements process_value_wildcard_symbols (spec.md
// §4.4's Wildcard normalization, and the "wildcard idempotence" testable
// property of §8): *v* -> CONTAINS, *v -> ENDSWITH, v* -> STARTSWITH,
// bookends stripped; REGEX without both bookends stays REGEX.
func (t *Tokenizer) processWildcards(value any, operator ir.TokenType) (any, ir.TokenType) {
	if t.cfg.WildcardSymbol == "" {
		return value, operator
	}
	if list, ok := value.([]any); ok {
		if len(list) == 0 {
			return value, operator
		}
		first, _ := list[0].(string)
		_, op := t.wildcardOp(first, operator)
		out := make([]any, len(list))
		for i, v := range list {
			if s, ok := v.(string); ok {
				out[i] = t.stripWildcards(s)
			} else {
				out[i] = v
			}
		}
		return out, op
	}
	s, _ := value.(string)
	stripped, op := t.wildcardOp(s, operator)
	return stripped, op
}

func (t *Tokenizer) wildcardOp(value string, operator ir.TokenType) (string, ir.TokenType) {
	w := t.cfg.WildcardSymbol
	hasPrefix := strings.HasPrefix(value, w)
	hasSuffix := strings.HasSuffix(value, w)

	op := operator
	switch {
	case operator == ir.Regex && !(hasPrefix && hasSuffix):
		op = ir.Regex
	case hasPrefix && hasSuffix:
		op = ir.Contains
	case hasPrefix:
		op = ir.EndsWith
	case hasSuffix:
		op = ir.StartsWith
	default:
		op = operator
	}
	return t.stripWildcards(value), op
}

func (t *Tokenizer) stripWildcards(value string) string {
	return strings.Trim(value, t.cfg.WildcardSymbol)
}

// ValidateParentheses enforces the parentheses-balance invariant of
// spec.md §8 in a single pass, per spec.md §4.4.
func ValidateParentheses(tokens []ir.Token) error {
	depth := 0
	for _, tok := range tokens {
		id, ok := tok.(*ir.Identifier)
		if !ok || !id.IsParen() {
			continue
		}
		if id.TokenType == ir.LParen {
			depth++
		} else {
			depth--
			if depth < 0 {
				return xerrors.QueryParentheses()
			}
		}
	}
	if depth != 0 {
		return xerrors.QueryParentheses()
	}
	return nil
}

// FieldTokensFromFuncArgs recursively harvests Field references from
// nested Function argument lists and SortArg (spec.md §4.4); thin wrapper
// kept here because tokenizers, not just the IR, are expected to expose it.
func FieldTokensFromFuncArgs(pf ir.ParsedFunctions) []*ir.Field {
	return pf.FieldTokens()
}
