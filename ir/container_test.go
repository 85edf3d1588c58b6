package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintStableAndDiscriminating(t *testing.T) {
	a := NewSiemContainer([]Token{
		NewFieldValue(NewField("EventID"), NewIdentifier(EQ), "4688"),
	}, NewMetaInfo("default"), ParsedFunctions{}, nil)

	b := NewSiemContainer([]Token{
		NewFieldValue(NewField("EventID"), NewIdentifier(EQ), "4688"),
	}, NewMetaInfo("default"), ParsedFunctions{}, nil)

	c := NewSiemContainer([]Token{
		NewFieldValue(NewField("EventID"), NewIdentifier(EQ), "4624"),
	}, NewMetaInfo("default"), ParsedFunctions{}, nil)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	fc, err := c.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, fa, fb, "identical query trees must fingerprint identically")
	assert.NotEqual(t, fa, fc, "differing query trees must fingerprint differently")
}

func TestFunctionFieldTokensRecursesIntoNestedFunctions(t *testing.T) {
	inner := &Function{
		Name: "count",
		Args: []FuncArg{NewField("CommandLine")},
	}
	outer := &Function{
		Name:      "stats",
		Args:      []FuncArg{inner},
		ByClauses: []*Field{NewField("User")},
	}

	fields := outer.FieldTokens()
	require.Len(t, fields, 2)
	assert.Equal(t, "CommandLine", fields[0].SourceName)
	assert.Equal(t, "User", fields[1].SourceName)
}
