package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltar-ua/Uncoder-IO/escape"
	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
)

func testCatalog() *mapping.Catalog {
	c := mapping.NewCatalog()
	c.Register(mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, ""))
	c.Register(mapping.NewSourceMapping("windows", mapping.LogSource{"product": "windows"}, map[string]string{
		"EventID": "EventCode",
	}, `source="WinEventLog:*"`))
	return c
}

func splunkLikeConfig() *DialectConfig {
	eq := OperatorRule{Template: `%FIELD%=%VALUE%`, ValueType: escape.Value}
	return &DialectConfig{
		Name: "test",
		OperatorMap: map[ir.TokenType]OperatorRule{
			ir.EQ:       eq,
			ir.Contains: {Template: `%FIELD%=%VALUE%`, WildcardWrap: WrapBoth, ValueType: escape.WildcardValue},
			ir.In:       {Template: `%FIELD% IN (%VALUES%)`, ListJoiner: ", ", ValueType: escape.Value},
		},
		DefaultOperator: eq,
		LogicalSpelling: map[ir.TokenType]string{ir.And: "AND", ir.Or: "OR", ir.Not: "NOT"},
		Escape:          escape.Table{escape.Value: escape.NewRule(`(["\\])`)},
		WildcardSymbol:  "*",
		QuoteStrings:    true,
		SupportsIN:      true,
		Finalize: func(body string, sm *mapping.SourceMapping) string {
			if sm == nil || sm.DefaultLogSourceExpression == "" {
				return body
			}
			return sm.DefaultLogSourceExpression + " " + body
		},
	}
}

// TestRenderSimpleFieldValueWithFinalize is spec.md §8 scenario 1.
func TestRenderSimpleFieldValueWithFinalize(t *testing.T) {
	catalog := testCatalog()
	r := New(splunkLikeConfig(), catalog)

	field := ir.NewField("EventID")
	field.GenericNamesMap["windows"] = "EventID"

	container := ir.NewSiemContainer(
		[]ir.Token{ir.NewFieldValue(field, ir.NewIdentifier(ir.EQ), "4688")},
		ir.NewMetaInfo("windows", ir.WithSourceMappingIDs([]string{"windows"})),
		ir.ParsedFunctions{},
		ir.LogSource{"product": "windows"},
	)

	out, diags, err := r.Render(container)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, `source="WinEventLog:*" EventCode=4688`, out)
}

func TestRenderAndOrParensTightenSpacing(t *testing.T) {
	catalog := testCatalog()
	r := New(splunkLikeConfig(), catalog)

	f1 := ir.NewField("EventID")
	f2 := ir.NewField("User")
	tokens := []ir.Token{
		ir.NewIdentifier(ir.LParen),
		ir.NewFieldValue(f1, ir.NewIdentifier(ir.EQ), "1"),
		ir.NewIdentifier(ir.And),
		ir.NewFieldValue(f2, ir.NewIdentifier(ir.EQ), "admin"),
		ir.NewIdentifier(ir.RParen),
	}
	container := ir.NewSiemContainer(tokens, ir.NewMetaInfo(mapping.DefaultMappingName), ir.ParsedFunctions{}, nil)

	out, _, err := r.Render(container)
	require.NoError(t, err)
	assert.Equal(t, `(EventID=1 AND User="admin")`, out)
}

// TestRenderMultiValueWithoutINFallsBackToOR mirrors spec.md §8 scenario 4
// (KQL IN -> Lucene without native IN becomes an OR-disjunction).
func TestRenderMultiValueWithoutINFallsBackToOR(t *testing.T) {
	cfg := splunkLikeConfig()
	cfg.SupportsIN = false
	catalog := testCatalog()
	r := New(cfg, catalog)

	field := ir.NewField("EventID")
	container := ir.NewSiemContainer(
		[]ir.Token{ir.NewFieldValue(field, ir.NewIdentifier(ir.In), []any{"4624", "4625"})},
		ir.NewMetaInfo(mapping.DefaultMappingName),
		ir.ParsedFunctions{},
		nil,
	)

	out, _, err := r.Render(container)
	require.NoError(t, err)
	assert.Equal(t, `(EventID=4624 OR EventID=4625)`, out)
}

func TestRenderUnmappedFieldAttachesDiagnostic(t *testing.T) {
	catalog := testCatalog()
	r := New(splunkLikeConfig(), catalog)

	field := ir.NewField("VendorSpecificField")
	field.Unmapped = true
	container := ir.NewSiemContainer(
		[]ir.Token{ir.NewFieldValue(field, ir.NewIdentifier(ir.EQ), "1")},
		ir.NewMetaInfo(mapping.DefaultMappingName),
		ir.ParsedFunctions{},
		nil,
	)

	out, diags, err := r.Render(container)
	require.NoError(t, err)
	assert.Equal(t, `VendorSpecificField=1`, out)
	require.Len(t, diags, 1)
	assert.Equal(t, "VendorSpecificField", diags[0].Fragment)
}

func TestRenderUnsupportedOperatorFallsBackToDefault(t *testing.T) {
	catalog := testCatalog()
	r := New(splunkLikeConfig(), catalog)

	field := ir.NewField("CommandLine")
	container := ir.NewSiemContainer(
		[]ir.Token{ir.NewFieldValue(field, ir.NewIdentifier(ir.Regex), "foo.*")},
		ir.NewMetaInfo(mapping.DefaultMappingName),
		ir.ParsedFunctions{},
		nil,
	)

	out, diags, err := r.Render(container)
	require.NoError(t, err)
	assert.Equal(t, `CommandLine="foo.*"`, out)
	require.Len(t, diags, 1)
	assert.Equal(t, "regex", diags[0].Fragment)
}

func TestDescribeRuleComposesFreeTextFromMeta(t *testing.T) {
	meta := ir.NewMetaInfo(mapping.DefaultMappingName,
		ir.WithDescription("Detects suspicious PowerShell"),
		ir.WithAuthor("detect-eng"),
		ir.WithMitreAttack(map[string][]string{"execution": {"T1059.001"}}),
		ir.WithReferences([]string{"https://example.com"}),
	)
	desc := DescribeRule(meta)
	assert.Contains(t, desc, "Detects suspicious PowerShell.")
	assert.Contains(t, desc, "Author: detect-eng.")
	assert.Contains(t, desc, "T1059.001")
	assert.Contains(t, desc, "https://example.com")
}
