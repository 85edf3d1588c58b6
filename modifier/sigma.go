// Package modifier implements the Modifier Engine (C5): Sigma's
// field|modifier|modifier suffix syntax, rewritten into IR subtrees.
// Grounded directly on
// original_source/translator/app/translator/platforms/sigma/models/modifiers.py.
package modifier

import (
	"strings"

	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

// MaxModifierChainLen is MULTY_MODIFIER_LEN from spec.md §3: modifier
// chains exceed depth 2 only for the documented two-modifier combos.
const MaxModifierChainLen = 2

// modifierMap translates a Sigma modifier name to its IR operator, when the
// modifier name isn't already the operator's own name (contains,
// startswith, endswith, gt, lt, ... pass through unchanged).
var modifierMap = map[string]ir.TokenType{
	"re":         ir.Regex,
	"contains":   ir.Contains,
	"startswith": ir.StartsWith,
	"endswith":   ir.EndsWith,
	"gt":         ir.GT,
	"gte":        ir.GTE,
	"lt":         ir.LT,
	"lte":        ir.LTE,
}

var andToken = ir.NewIdentifier(ir.And)
var orToken = ir.NewIdentifier(ir.Or)

func mapModifier(modifier string) *ir.Identifier {
	if t, ok := modifierMap[modifier]; ok {
		return ir.NewIdentifier(t)
	}
	return ir.NewIdentifier(ir.TokenType(modifier))
}

// Manager builds IR subtrees from a Sigma field name, its modifier chain,
// and its value.
type Manager struct{}

func New() *Manager { return &Manager{} }

func validate(modifiers []string) error {
	if len(modifiers) > MaxModifierChainLen {
		return xerrors.ModifierChainTooLong(strings.Join(modifiers, "|"), len(modifiers))
	}
	return nil
}

// Generate is the engine's single entrypoint (modifiers.py's `generate`):
// it validates the modifier chain, then dispatches to the one- or
// two-modifier case.
func (m *Manager) Generate(field string, modifiers []string, value any) ([]ir.Token, error) {
	if err := validate(modifiers); err != nil {
		return nil, err
	}
	if len(modifiers) == MaxModifierChainLen {
		return m.applyMulti(field, modifiers, value)
	}
	return m.applySingle(field, modifiers[0], value)
}

// applySingle handles a lone modifier: `windash` expands EQ into the
// slash/dash disjunction; every other modifier maps straight to an
// operator and a single FieldValue (spec.md §4.5).
func (m *Manager) applySingle(field, modifierName string, value any) ([]ir.Token, error) {
	if modifierName == "windash" {
		return m.windash(field, ir.EQ, value)
	}
	operator := mapModifier(modifierName)
	return []ir.Token{ir.NewFieldValue(ir.NewField(field), operator, value)}, nil
}

// applyMulti handles the two documented two-modifier combinations:
// `{...,all}` AND-joins per-value subtrees; `{...,windash}` OR-joins them.
func (m *Manager) applyMulti(field string, modifiers []string, value any) ([]ir.Token, error) {
	switch modifiers[len(modifiers)-1] {
	case "all":
		return m.all(field, modifiers[0], value)
	case "windash":
		return m.windashAll(field, modifiers[0], value)
	default:
		return nil, xerrors.UnsupportedRoot("unsupported two-modifier combination: " + strings.Join(modifiers, "|"))
	}
}

// all AND-joins the per-value subtrees for the preceding modifier, wrapped
// in parens: CommandLine|contains|all: [a, b] -> (CL CONTAINS a) AND (CL CONTAINS b).
func (m *Manager) all(field, modifierName string, value any) ([]ir.Token, error) {
	values := toList(value)
	if len(values) <= 1 {
		operator := mapModifier(modifierName)
		return []ir.Token{ir.NewFieldValue(ir.NewField(field), operator, firstOrSelf(value))}, nil
	}
	operator := mapModifier(modifierName)
	var inner []ir.Token
	for i, v := range values {
		if i > 0 {
			inner = append(inner, andToken)
		}
		inner = append(inner, ir.NewFieldValue(ir.NewField(field), operator, v))
	}
	return wrapParens(inner), nil
}

// windash expands a single value starting with `/` or `-` into both forms,
// OR-joined and wrapped in parens (spec.md §8 scenario 3: `"-verb"` ->
// `(CommandLine = "-verb" OR CommandLine = "/verb")`); values with neither
// prefix render as a single, unwrapped FieldValue.
func (m *Manager) windash(field string, operator ir.TokenType, value any) ([]ir.Token, error) {
	if list, ok := value.([]any); ok {
		var inner []ir.Token
		for i, v := range list {
			if i > 0 {
				inner = append(inner, orToken)
			}
			sub, err := m.windash(field, operator, v)
			if err != nil {
				return nil, err
			}
			inner = append(inner, sub...)
		}
		return wrapParens(inner), nil
	}
	s, _ := value.(string)
	variants := windashVariants(s)
	if len(variants) == 1 {
		return []ir.Token{ir.NewFieldValue(ir.NewField(field), ir.NewIdentifier(operator), variants[0])}, nil
	}
	var inner []ir.Token
	for i, v := range variants {
		if i > 0 {
			inner = append(inner, orToken)
		}
		inner = append(inner, ir.NewFieldValue(ir.NewField(field), ir.NewIdentifier(operator), v))
	}
	return wrapParens(inner), nil
}

// windashAll OR-joins the per-value windash expansions for two-modifier
// chains whose last modifier is `windash`.
func (m *Manager) windashAll(field, modifierName string, value any) ([]ir.Token, error) {
	values := toList(value)
	var inner []ir.Token
	for i, v := range values {
		if i > 0 {
			inner = append(inner, orToken)
		}
		sub, err := m.windash(field, ir.EQ, v)
		if err != nil {
			return nil, err
		}
		inner = append(inner, sub...)
	}
	return wrapParens(inner), nil
}

func windashVariants(value string) []string {
	switch {
	case strings.HasPrefix(value, "/"):
		return []string{value, "-" + value[1:]}
	case strings.HasPrefix(value, "-"):
		return []string{value, "/" + value[1:]}
	default:
		return []string{value}
	}
}

func wrapParens(inner []ir.Token) []ir.Token {
	out := make([]ir.Token, 0, len(inner)+2)
	out = append(out, ir.NewIdentifier(ir.LParen))
	out = append(out, inner...)
	out = append(out, ir.NewIdentifier(ir.RParen))
	return out
}

func toList(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}
	return []any{value}
}

func firstOrSelf(value any) any {
	if list, ok := value.([]any); ok && len(list) > 0 {
		return list[0]
	}
	return value
}
