package escape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableEscapesMatchedCharacters(t *testing.T) {
	table := Table{
		Value:      NewRule(`(["\\])`),
		RegexValue: NewRule(`([.^$|()\[\]{}*+?\\])`),
	}

	assert.Equal(t, `foo\"bar`, table.Escape(`foo"bar`, Value))
	assert.Equal(t, `foo\\bar`, table.Escape(`foo\bar`, Value))
	assert.Equal(t, `foo\.bar`, table.Escape(`foo.bar`, RegexValue))
}

func TestTableUnknownValueTypeReturnsUnchanged(t *testing.T) {
	table := Table{Value: NewRule(`(["\\])`)}
	assert.Equal(t, `a"b`, table.Escape(`a"b`, WildcardValue))
}

func TestNewRuleDefaultsEscapeCharToBackslash(t *testing.T) {
	rule := NewRule(`(x)`)
	assert.Equal(t, `\`, rule.Escape)
}
