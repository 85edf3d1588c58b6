// Package sentinel wires the Microsoft Sentinel KQL dialect. Microsoft
// Defender's KQL dialect shares this exact grammar (dialects/defender wraps
// NewTokenizer/NewRenderConfig under its own SourceID and mapping table).
package sentinel

import (
	"regexp"
	"strings"

	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/escape"
	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/parser"
	"github.com/saltar-ua/Uncoder-IO/render"
	"github.com/saltar-ua/Uncoder-IO/tokenizer"
)

const SourceID = "microsoft_sentinel"

var operatorAlt = `==|!=|>=|<=|>|<|!has|has|!contains|contains|startswith|endswith|matches\s+regex|in`

var fieldPattern = regexp.MustCompile(`(?i)^(?P<field_name>[a-zA-Z_][a-zA-Z0-9_.]*)\s*(?:` + operatorAlt + `)\b`)

var logicalOperatorPattern = regexp.MustCompile(`(?i)^(?P<logical_operator>and|or|not)\b`)

var singleValueOperators = map[string]ir.TokenType{
	"==":            ir.EQ,
	"!=":            ir.NEQ,
	">":             ir.GT,
	">=":            ir.GTE,
	"<":             ir.LT,
	"<=":            ir.LTE,
	"has":           ir.Contains,
	"contains":      ir.Contains,
	"startswith":    ir.StartsWith,
	"endswith":      ir.EndsWith,
	"matches regex": ir.Regex,
}

var multiValueOperators = map[string]ir.TokenType{
	"in": ir.In,
}

const valuePattern = `(?P<value>"(?:[^"\\]|\\.)*"|\S+)`
const multiValuePattern = `\(\s*(?P<value>[^)]*)\)`

// NewTokenizer builds a KQL tokenizer under the given dialect name (Sentinel
// or Defender both use this grammar).
func NewTokenizer(name string) *tokenizer.Tokenizer {
	cfg := tokenizer.NewDialectConfig(name, tokenizer.DialectConfig{
		FieldPattern:           fieldPattern,
		ValuePattern:           valuePattern,
		MultiValuePattern:      multiValuePattern,
		LogicalOperatorPattern: logicalOperatorPattern,
		SingleValueOperators:   singleValueOperators,
		MultiValueOperators:    multiValueOperators,
		WildcardSymbol:         "",
	})
	return tokenizer.New(cfg)
}

func escapeTable() escape.Table {
	return escape.Table{
		escape.Value:      escape.NewRule(`(["\\])`),
		escape.RegexValue: escape.NewRule(`([.^$|()\[\]{}*+?\\])`),
	}
}

// NewRenderConfig builds a KQL render.DialectConfig under the given name.
func NewRenderConfig(name string) *render.DialectConfig {
	eq := render.OperatorRule{Template: `%FIELD% == %VALUE%`, ValueType: escape.Value}
	return &render.DialectConfig{
		Name: name,
		OperatorMap: map[ir.TokenType]render.OperatorRule{
			ir.EQ:         eq,
			ir.NEQ:        {Template: `%FIELD% != %VALUE%`, ValueType: escape.Value},
			ir.GT:         {Template: `%FIELD% > %VALUE%`, ValueType: escape.Value},
			ir.GTE:        {Template: `%FIELD% >= %VALUE%`, ValueType: escape.Value},
			ir.LT:         {Template: `%FIELD% < %VALUE%`, ValueType: escape.Value},
			ir.LTE:        {Template: `%FIELD% <= %VALUE%`, ValueType: escape.Value},
			ir.Contains:   {Template: `%FIELD% contains %VALUE%`, ValueType: escape.Value},
			ir.StartsWith: {Template: `%FIELD% startswith %VALUE%`, ValueType: escape.Value},
			ir.EndsWith:   {Template: `%FIELD% endswith %VALUE%`, ValueType: escape.Value},
			ir.Regex:      {Template: `%FIELD% matches regex %VALUE%`, ValueType: escape.RegexValue},
			ir.In:         {Template: `%FIELD% in (%VALUES%)`, ListJoiner: ", ", ValueType: escape.Value},
		},
		DefaultOperator:  eq,
		LogicalSpelling:  map[ir.TokenType]string{ir.And: "and", ir.Or: "or", ir.Not: "not"},
		Escape:           escapeTable(),
		QuoteStrings:     true,
		SupportsIN:       true,
		FunctionPipeJoin: " | ",
	}
}

func extractLogSource(query string) (mapping.LogSource, string) {
	ls := mapping.LogSource{}
	if m := regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9_]*)\s*\|\s*where\s+`).FindStringSubmatch(query); m != nil {
		ls["table"] = m[1]
		return ls, strings.TrimPrefix(query, m[0])
	}
	return ls, query
}

// Build assembles the Sentinel query Parser and Renderer against catalog.
func Build(catalog *mapping.Catalog) (*parser.Parser, *render.Renderer) {
	p := parser.New(parser.Config{
		Tokenizer:        NewTokenizer(SourceID),
		Catalog:          catalog,
		ExtractLogSource: extractLogSource,
	})
	r := render.New(NewRenderConfig(SourceID), catalog)
	return p, r
}

func DefaultMapping() *mapping.SourceMapping {
	return mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, "")
}

// SecurityEventMapping is a representative SecurityEvent-table SourceMapping.
func SecurityEventMapping() *mapping.SourceMapping {
	fields := map[string]string{
		"EventID":     "EventID",
		"CommandLine": "CommandLine",
		"Image":       "NewProcessName",
		"User":        "Account",
		"ParentImage": "ParentProcessName",
	}
	return mapping.NewSourceMapping(SourceID+"_security_event", mapping.LogSource{"product": "windows"}, fields, "SecurityEvent")
}

func CTIMapping() cti.Mapping {
	return cti.Mapping{
		string(cti.IP):           {"IPAddress"},
		string(cti.Domain):       {"DomainName"},
		string(cti.URL):          {"Url"},
		string(cti.MD5):          {"FileHashValue"},
		string(cti.SHA1):         {"FileHashValue"},
		string(cti.SHA256):       {"FileHashValue"},
		string(cti.SHA512):       {"FileHashValue"},
		string(cti.Email):        {"SenderFromAddress"},
		string(cti.Filename):     {"FileName"},
		string(cti.RegistryPath): {"RegistryKey"},
	}
}

func CTIRenderer() cti.Renderer {
	return cti.EqualityRenderer{FieldMapping: CTIMapping(), Template: `%FIELD% =~ "%VALUE%"`, Join: " or "}
}

// RuleLoader loads Sentinel analytics-rule JSON ({"query": "...", ...}).
var RuleLoader = parser.JSONRuleLoader{QueryField: "query"}

func BuildMeta(sourceMappingIDs []string, doc map[string]any) *ir.MetaInfoContainer {
	title, _ := doc["displayName"].(string)
	description, _ := doc["description"].(string)
	severity, _ := doc["severity"].(string)
	sev, ok := severityFromSentinel(severity)
	opts := []ir.MetaInfoOption{
		ir.WithTitle(title),
		ir.WithDescription(description),
		ir.WithSourceMappingIDs(sourceMappingIDs),
	}
	if ok {
		opts = append(opts, ir.WithSeverity(sev))
	}
	return ir.NewMetaInfo(mapping.DefaultMappingName, opts...)
}

func severityFromSentinel(s string) (ir.Severity, bool) {
	switch strings.ToLower(s) {
	case "informational":
		return ir.SeverityInformational, true
	case "low":
		return ir.SeverityLow, true
	case "medium":
		return ir.SeverityMedium, true
	case "high":
		return ir.SeverityHigh, true
	default:
		return "", false
	}
}
