// Package ir defines the dialect-independent intermediate representation
// (the Token Model, C3) that every tokenizer/parser produces and every
// renderer consumes.
package ir

// TokenType is the closed set a lexical Identifier can carry: logical
// operators, grouping, and comparison operators (spec.md §3).
type TokenType string

const (
	And TokenType = "and"
	Or  TokenType = "or"
	Not TokenType = "not"

	LParen TokenType = "l_paren"
	RParen TokenType = "r_paren"

	EQ         TokenType = "eq"
	NEQ        TokenType = "neq"
	GT         TokenType = "gt"
	GTE        TokenType = "gte"
	LT         TokenType = "lt"
	LTE        TokenType = "lte"
	Contains   TokenType = "contains"
	StartsWith TokenType = "startswith"
	EndsWith   TokenType = "endswith"
	Regex      TokenType = "regex"
	In         TokenType = "in"
	KeywordOp  TokenType = "keyword"
)

// MultiValueOperators is the set of operator token types whose FieldValue
// carries a list rather than a scalar.
var MultiValueOperators = map[TokenType]bool{
	In: true,
}

// Token is the tagged-variant interface every IR node implements: the
// duck-typed FieldValue|Keyword|Identifier union of the original is
// replaced here with an exhaustive, compiler-checked closed set, per
// spec.md §9's "Duck-typed token unions" redesign flag.
type Token interface {
	tokenNode()
}

// Identifier is a structural or operator token: and/or/not, parens, or a
// comparison-operator tag attached to a FieldValue.
type Identifier struct {
	TokenType TokenType
}

func (*Identifier) tokenNode() {}

// NewIdentifier is a small convenience constructor used pervasively by
// tokenizers and the modifier engine.
func NewIdentifier(t TokenType) *Identifier { return &Identifier{TokenType: t} }

func (i *Identifier) IsParen() bool {
	return i.TokenType == LParen || i.TokenType == RParen
}

func (i *Identifier) IsLogical() bool {
	return i.TokenType == And || i.TokenType == Or || i.TokenType == Not
}
