package parser

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/tokenizer"
)

func testTokenizer() *tokenizer.Tokenizer {
	cfg := tokenizer.NewDialectConfig("test", tokenizer.DialectConfig{
		FieldPattern:           regexp.MustCompile(`(?i)^(?P<field_name>[a-zA-Z_][a-zA-Z0-9_.]*)\s*(?:=|\bin\b)`),
		ValuePattern:           `(?P<value>"(?:[^"\\]|\\.)*"|\S+)`,
		MultiValuePattern:      `\(\s*(?P<value>[^)]*)\)`,
		LogicalOperatorPattern: regexp.MustCompile(`(?i)^(?P<logical_operator>and|or|not)\b`),
		SingleValueOperators:   map[string]ir.TokenType{"=": ir.EQ},
		MultiValueOperators:    map[string]ir.TokenType{"in": ir.In},
		WildcardSymbol:         "*",
	})
	return tokenizer.New(cfg)
}

func testCatalog() *mapping.Catalog {
	c := mapping.NewCatalog()
	c.Register(mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, ""))
	c.Register(mapping.NewSourceMapping("windows", mapping.LogSource{"product": "windows"}, map[string]string{
		"EventID": "EventCode",
	}, `source="WinEventLog:*"`))
	return c
}

func extractLogSource(query string) (mapping.LogSource, string) {
	if strings.HasPrefix(query, "product=windows ") {
		return mapping.LogSource{"product": "windows"}, strings.TrimPrefix(query, "product=windows ")
	}
	return mapping.LogSource{}, query
}

func TestParserParseResolvesMappingAndFields(t *testing.T) {
	p := New(Config{
		Tokenizer:        testTokenizer(),
		Catalog:          testCatalog(),
		ExtractLogSource: extractLogSource,
	})

	container, err := p.Parse(`product=windows EventID=4688`)
	require.NoError(t, err)
	require.Len(t, container.Query, 1)

	fv := container.Query[0].(*ir.FieldValue)
	assert.Equal(t, "EventID", fv.Field.SourceName)
	assert.Equal(t, "EventCode", fv.Field.GenericNamesMap["windows"])
	assert.Equal(t, []string{"windows", mapping.DefaultMappingName}, container.MetaInfo.SourceMappingIDs)
}

func TestParserPropagatesTokenizerErrors(t *testing.T) {
	p := New(Config{Tokenizer: testTokenizer(), Catalog: testCatalog()})
	_, err := p.Parse(`###bad###`)
	assert.Error(t, err)
}

type stubRuleLoader struct {
	query string
	meta  map[string]any
}

func (s stubRuleLoader) LoadRule(string) (string, map[string]any, error) {
	return s.query, s.meta, nil
}

func TestRuleParserComposesLoaderAndParser(t *testing.T) {
	p := New(Config{Tokenizer: testTokenizer(), Catalog: testCatalog(), ExtractLogSource: extractLogSource})
	rp := NewRuleParser(p, stubRuleLoader{
		query: "product=windows EventID=4688",
		meta:  map[string]any{"title": "Test rule"},
	}, func(ids []string, meta map[string]any) *ir.MetaInfoContainer {
		title, _ := meta["title"].(string)
		return ir.NewMetaInfo(mapping.DefaultMappingName, ir.WithTitle(title), ir.WithSourceMappingIDs(ids))
	})

	container, err := rp.ParseRule("irrelevant raw text")
	require.NoError(t, err)
	assert.Equal(t, "Test rule", container.MetaInfo.Title)
	require.Len(t, container.Query, 1)
}
