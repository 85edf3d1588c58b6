// Package lucene wires the Elasticsearch/OpenSearch Lucene query-string
// dialect — the shared base Graylog's own Lucene variant (dialects/graylog)
// wraps under its own SourceID and mapping table.
package lucene

import (
	"regexp"

	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/escape"
	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/parser"
	"github.com/saltar-ua/Uncoder-IO/render"
	"github.com/saltar-ua/Uncoder-IO/tokenizer"
)

const SourceID = "elasticsearch"

var logicalOperatorPattern = regexp.MustCompile(`(?i)^(?P<logical_operator>and|or|not)\b`)

const valuePattern = `(?P<value>"(?:[^"\\]|\\.)*"|\/(?:[^\/\\]|\\.)*\/|\S+)`
const multiValuePattern = valuePattern

// NewTokenizer builds a Lucene query-string tokenizer under the given
// dialect name (Elasticsearch/OpenSearch or Graylog). Lucene has a single
// native operator, `:`; EQ is the only SingleValueOperator the tokenizer
// matches, and the renderer distinguishes range/wildcard/regex semantics by
// the IR operator the parser/modifier layer attaches, not by source text.
func NewTokenizer(name string) *tokenizer.Tokenizer {
	fieldPattern := regexp.MustCompile(`(?i)^(?P<field_name>[a-zA-Z_][a-zA-Z0-9_.]*):`)
	cfg := tokenizer.NewDialectConfig(name, tokenizer.DialectConfig{
		FieldPattern:           fieldPattern,
		ValuePattern:           valuePattern,
		MultiValuePattern:      multiValuePattern,
		LogicalOperatorPattern: logicalOperatorPattern,
		SingleValueOperators:   map[string]ir.TokenType{":": ir.EQ},
		MultiValueOperators:    map[string]ir.TokenType{},
		WildcardSymbol:         "*",
	})
	return tokenizer.New(cfg)
}

func escapeTable() escape.Table {
	return escape.Table{
		escape.Value:         escape.NewRule(`([+\-!(){}\[\]^"~*?:\\/])`),
		escape.WildcardValue: escape.NewRule(`([+\-!(){}\[\]^"~?:\\/])`),
		escape.RegexValue:    escape.NewRule(`([\/\\])`),
	}
}

// NewRenderConfig builds a Lucene render.DialectConfig under the given name.
// Multi-value fields have no native IN syntax, so SupportsIN is false and
// the generic renderer falls back to an OR-disjunction, matching spec.md
// §8 scenario 4 (KQL IN -> Lucene `(EventID:4624 OR EventID:4625)`).
func NewRenderConfig(name string) *render.DialectConfig {
	eq := render.OperatorRule{Template: `%FIELD%:%VALUE%`, ValueType: escape.Value}
	return &render.DialectConfig{
		Name: name,
		OperatorMap: map[ir.TokenType]render.OperatorRule{
			ir.EQ:         eq,
			ir.NEQ:        {Template: `NOT %FIELD%:%VALUE%`, ValueType: escape.Value},
			ir.GT:         {Template: `%FIELD%:>%VALUE%`, ValueType: escape.Value},
			ir.GTE:        {Template: `%FIELD%:>=%VALUE%`, ValueType: escape.Value},
			ir.LT:         {Template: `%FIELD%:<%VALUE%`, ValueType: escape.Value},
			ir.LTE:        {Template: `%FIELD%:<=%VALUE%`, ValueType: escape.Value},
			ir.Contains:   {Template: `%FIELD%:%VALUE%`, WildcardWrap: render.WrapBoth, ValueType: escape.WildcardValue},
			ir.StartsWith: {Template: `%FIELD%:%VALUE%`, WildcardWrap: render.WrapSuffix, ValueType: escape.WildcardValue},
			ir.EndsWith:   {Template: `%FIELD%:%VALUE%`, WildcardWrap: render.WrapPrefix, ValueType: escape.WildcardValue},
			ir.Regex:      {Template: `%FIELD%:/%VALUE%/`, ValueType: escape.RegexValue},
			ir.In:         {Template: `%FIELD%:%VALUE%`, ValueType: escape.Value},
		},
		DefaultOperator:  eq,
		LogicalSpelling:  map[ir.TokenType]string{ir.And: "AND", ir.Or: "OR", ir.Not: "NOT"},
		Escape:           escapeTable(),
		WildcardSymbol:   "*",
		QuoteStrings:     false,
		SupportsIN:       false,
		FunctionPipeJoin: " | ",
	}
}

func Build(catalog *mapping.Catalog) (*parser.Parser, *render.Renderer) {
	p := parser.New(parser.Config{
		Tokenizer: NewTokenizer(SourceID),
		Catalog:   catalog,
	})
	r := render.New(NewRenderConfig(SourceID), catalog)
	return p, r
}

func DefaultMapping() *mapping.SourceMapping {
	return mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, "")
}

func WindowsMapping() *mapping.SourceMapping {
	fields := map[string]string{
		"EventID":     "event.code",
		"CommandLine": "process.command_line",
		"Image":       "process.executable",
		"User":        "user.name",
		"ParentImage": "process.parent.executable",
	}
	return mapping.NewSourceMapping(SourceID+"_windows", mapping.LogSource{"product": "windows"}, fields, "event.module:windows")
}

func CTIMapping() cti.Mapping {
	return cti.Mapping{
		string(cti.IP):           {"source.ip", "destination.ip"},
		string(cti.Domain):       {"dns.question.name"},
		string(cti.URL):          {"url.full"},
		string(cti.MD5):          {"file.hash.md5"},
		string(cti.SHA1):         {"file.hash.sha1"},
		string(cti.SHA256):       {"file.hash.sha256"},
		string(cti.SHA512):       {"file.hash.sha512"},
		string(cti.Email):        {"user.email"},
		string(cti.Filename):     {"file.name"},
		string(cti.RegistryPath): {"registry.path"},
	}
}

func CTIRenderer() cti.Renderer {
	return cti.EqualityRenderer{FieldMapping: CTIMapping(), Template: `%FIELD%:"%VALUE%"`, Join: " OR "}
}

// DetectionRuleLoader loads an Elastic/OpenSearch detection rule JSON
// document ({"query": "...", ...}).
var DetectionRuleLoader = parser.JSONRuleLoader{QueryField: "query"}

// KibanaRuleLoader loads a Kibana saved-search rule JSON document, which
// nests its query string one level deeper than a detection rule.
type KibanaRuleLoader struct{}

func (KibanaRuleLoader) LoadRule(text string) (string, map[string]any, error) {
	loader := parser.JSONRuleLoader{QueryField: "query"}
	query, doc, err := loader.LoadRule(text)
	if err == nil && query == "" {
		if kuery, ok := doc["kibanaSavedObjectMeta"].(map[string]any); ok {
			if searchSource, ok := kuery["searchSourceJSON"].(map[string]any); ok {
				if q, ok := searchSource["query"].(map[string]any); ok {
					query, _ = q["query"].(string)
				}
			}
		}
	}
	return query, doc, err
}

func BuildMeta(sourceMappingIDs []string, doc map[string]any) *ir.MetaInfoContainer {
	name, _ := doc["name"].(string)
	description, _ := doc["description"].(string)
	return ir.NewMetaInfo(mapping.DefaultMappingName,
		ir.WithTitle(name),
		ir.WithDescription(description),
		ir.WithSourceMappingIDs(sourceMappingIDs),
	)
}
