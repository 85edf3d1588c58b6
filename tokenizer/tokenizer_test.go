package tokenizer

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

func testDialect() *DialectConfig {
	return NewDialectConfig("test", DialectConfig{
		FieldPattern:           regexp.MustCompile(`(?i)^(?P<field_name>[a-zA-Z_][a-zA-Z0-9_.]*)\s*(?:=|!=|\bin\b)`),
		ValuePattern:           `(?P<value>"(?:[^"\\]|\\.)*"|\S+)`,
		MultiValuePattern:      `\(\s*(?P<value>[^)]*)\)`,
		KeywordPattern:         regexp.MustCompile(`(?P<value>\S+)`),
		LogicalOperatorPattern: regexp.MustCompile(`(?i)^(?P<logical_operator>and|or|not)\b`),
		SingleValueOperators:   map[string]ir.TokenType{"=": ir.EQ, "!=": ir.NEQ},
		MultiValueOperators:    map[string]ir.TokenType{"in": ir.In},
		WildcardSymbol:         "*",
	})
}

func TestTokenizeSimpleFieldValue(t *testing.T) {
	tok := New(testDialect())
	tokens, err := tok.Tokenize(`EventID=4688`)
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	fv, ok := tokens[0].(*ir.FieldValue)
	require.True(t, ok)
	assert.Equal(t, "EventID", fv.Field.SourceName)
	assert.Equal(t, ir.EQ, fv.Operator.TokenType)
	assert.Equal(t, "4688", fv.Value)
}

func TestTokenizeLogicalOperatorsAndParens(t *testing.T) {
	tok := New(testDialect())
	tokens, err := tok.Tokenize(`(EventID=1 and User=admin) or not EventID=2`)
	require.NoError(t, err)

	var kinds []string
	for _, tk := range tokens {
		switch v := tk.(type) {
		case *ir.Identifier:
			kinds = append(kinds, string(v.TokenType))
		case *ir.FieldValue:
			kinds = append(kinds, "FV:"+v.Field.SourceName)
		}
	}
	assert.Equal(t, []string{"l_paren", "FV:EventID", "and", "FV:User", "r_paren", "or", "not", "FV:EventID"}, kinds)
}

func TestTokenizeMultiValueIN(t *testing.T) {
	tok := New(testDialect())
	tokens, err := tok.Tokenize(`EventID in (4624, 4625)`)
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	fv := tokens[0].(*ir.FieldValue)
	assert.Equal(t, ir.In, fv.Operator.TokenType)
	assert.True(t, fv.IsMultiValue())
	assert.Equal(t, []any{"4624", "4625"}, fv.Value)
}

// TestWildcardIdempotence is spec.md §8's quantified testable property:
// *s* -> CONTAINS, *s -> ENDSWITH, s* -> STARTSWITH, bookends stripped.
func TestWildcardIdempotence(t *testing.T) {
	tok := New(testDialect())

	cases := []struct {
		raw      string
		wantOp   ir.TokenType
		wantText string
	}{
		{`*foo*`, ir.Contains, "foo"},
		{`*foo`, ir.EndsWith, "foo"},
		{`foo*`, ir.StartsWith, "foo"},
		{`foo`, ir.EQ, "foo"},
	}
	for _, tc := range cases {
		tokens, err := tok.Tokenize(`CommandLine=` + tc.raw)
		require.NoError(t, err)
		fv := tokens[0].(*ir.FieldValue)
		assert.Equal(t, tc.wantOp, fv.Operator.TokenType, tc.raw)
		assert.Equal(t, tc.wantText, fv.Value, tc.raw)
	}
}

func TestValidateParenthesesBalance(t *testing.T) {
	ok := []ir.Token{ir.NewIdentifier(ir.LParen), ir.NewIdentifier(ir.RParen)}
	assert.NoError(t, ValidateParentheses(ok))

	unbalanced := []ir.Token{ir.NewIdentifier(ir.LParen), ir.NewIdentifier(ir.LParen), ir.NewIdentifier(ir.RParen)}
	assert.Error(t, ValidateParentheses(unbalanced))

	adjacentUnopened := []ir.Token{ir.NewIdentifier(ir.RParen)}
	err := ValidateParentheses(adjacentUnopened)
	require.Error(t, err)
	var coreErr *xerrors.CoreError
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, xerrors.KindQueryParentheses, coreErr.Kind)
}

func TestTokenizeUnsupportedEntryRaisesTokenizerGeneral(t *testing.T) {
	cfg := NewDialectConfig("strict", DialectConfig{
		FieldPattern:           regexp.MustCompile(`(?P<field_name>[a-zA-Z_][a-zA-Z0-9_.]*)\s*=`),
		ValuePattern:           `(?P<value>\S+)`,
		LogicalOperatorPattern: regexp.MustCompile(`(?i)^(?P<logical_operator>and|or|not)\b`),
		SingleValueOperators:   map[string]ir.TokenType{"=": ir.EQ},
	})
	tok := New(cfg)
	_, err := tok.Tokenize(`###not-a-field###`)
	require.Error(t, err)
	var coreErr *xerrors.CoreError
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, xerrors.KindTokenizerGeneral, coreErr.Kind)
}

func TestOperatorMapKeysLoweredAtConstruction(t *testing.T) {
	cfg := NewDialectConfig("case", DialectConfig{
		SingleValueOperators: map[string]ir.TokenType{"EQ": ir.EQ},
	})
	tt, ok := cfg.OperatorToken("eq")
	assert.True(t, ok)
	assert.Equal(t, ir.EQ, tt)
}
