package modifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

func tokenKinds(tokens []ir.Token) []string {
	var out []string
	for _, tok := range tokens {
		switch v := tok.(type) {
		case *ir.Identifier:
			out = append(out, string(v.TokenType))
		case *ir.FieldValue:
			out = append(out, string(v.Operator.TokenType)+":"+toStr(v.Value))
		}
	}
	return out
}

func toStr(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// spec.md §8 scenario 2: CommandLine|contains|all: ["-enc", "powershell"]
// -> (CommandLine CONTAINS "-enc") AND (CommandLine CONTAINS "powershell").
func TestContainsAllExpandsToAndJoinedSubtree(t *testing.T) {
	m := New()
	tokens, err := m.Generate("CommandLine", []string{"contains", "all"}, []any{"-enc", "powershell"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"l_paren", "contains:-enc", "and", "contains:powershell", "r_paren",
	}, tokenKinds(tokens))
}

// spec.md §8 scenario 3: |windash on "-verb" expands to
// (CommandLine = "-verb" OR CommandLine = "/verb").
func TestWindashExpandsSlashDashVariants(t *testing.T) {
	m := New()
	tokens, err := m.Generate("CommandLine", []string{"windash"}, "-verb")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"l_paren", "eq:-verb", "or", "eq:/verb", "r_paren",
	}, tokenKinds(tokens))
}

func TestWindashWithSlashPrefix(t *testing.T) {
	m := New()
	tokens, err := m.Generate("CommandLine", []string{"windash"}, "/verb")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"l_paren", "eq:/verb", "or", "eq:-verb", "r_paren",
	}, tokenKinds(tokens))
}

func TestWindashWithNoRecognizedPrefixStaysSingleValue(t *testing.T) {
	m := New()
	tokens, err := m.Generate("CommandLine", []string{"windash"}, "verb")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	fv := tokens[0].(*ir.FieldValue)
	assert.Equal(t, ir.EQ, fv.Operator.TokenType)
	assert.Equal(t, "verb", fv.Value)
}

func TestSingleModifierMapsToOperator(t *testing.T) {
	m := New()
	tokens, err := m.Generate("TargetFilename", []string{"endswith"}, ".exe")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	fv := tokens[0].(*ir.FieldValue)
	assert.Equal(t, ir.EndsWith, fv.Operator.TokenType)
}

func TestModifierChainDeeperThanTwoRaisesError(t *testing.T) {
	m := New()
	_, err := m.Generate("CommandLine", []string{"contains", "all", "windash"}, "x")
	require.Error(t, err)
	var coreErr *xerrors.CoreError
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, xerrors.KindModifierChainTooLong, coreErr.Kind)
}

func TestAllWithSingleValueSkipsWrapping(t *testing.T) {
	m := New()
	tokens, err := m.Generate("CommandLine", []string{"contains", "all"}, []any{"only"})
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	fv := tokens[0].(*ir.FieldValue)
	assert.Equal(t, ir.Contains, fv.Operator.TokenType)
}
