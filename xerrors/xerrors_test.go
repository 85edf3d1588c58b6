package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSuccess(t *testing.T) {
	env := Handle(func() (string, []Diagnostic, error) {
		return "EventID=4688", []Diagnostic{UnmappedFieldDiagnostic("Image")}, nil
	})

	assert.True(t, env.Status)
	assert.Equal(t, "EventID=4688", env.Result)
	assert.Empty(t, env.Error)
	require.Len(t, env.Diagnostics, 1)
	assert.Equal(t, KindUnmappedField, env.Diagnostics[0].Kind)
}

func TestHandleFatalErrorNeverSetsResult(t *testing.T) {
	env := Handle(func() (string, []Diagnostic, error) {
		return "", nil, QueryParentheses()
	})

	assert.False(t, env.Status)
	assert.Empty(t, env.Result)
	assert.Contains(t, env.Error, "unbalanced parentheses")
}

func TestDiagnosticsAloneNeverFlipStatus(t *testing.T) {
	env := Handle(func() (string, []Diagnostic, error) {
		return "ok", []Diagnostic{UnsupportedOperatorDiagnostic("regex")}, nil
	})
	assert.True(t, env.Status)
}

func TestHandleMulti(t *testing.T) {
	env := HandleMulti(func() ([]string, []Diagnostic, error) {
		return []string{"q1", "q2"}, nil, nil
	})
	assert.True(t, env.Status)
	assert.Equal(t, []string{"q1", "q2"}, env.Results)
}

func TestCoreErrorUnwrapsToStackedCause(t *testing.T) {
	err := UnsupportedOperator("foo")
	var coreErr *CoreError
	require.True(t, errors.As(err, &coreErr))
	assert.Equal(t, KindUnsupportedOperator, coreErr.Kind)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestModifierChainTooLongCarriesDepth(t *testing.T) {
	err := ModifierChainTooLong("CommandLine|contains|all|windash", 3)
	assert.Equal(t, KindModifierChainTooLong, err.Kind)
	assert.Contains(t, err.Error(), "3")
}
