// Package chronicle wires Google Chronicle's UDM query dialect
// (`field = "value" and ...` over dotted UDM paths) plus a YAML rule
// wrapper for Chronicle's YARA-L rule format.
package chronicle

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/escape"
	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/parser"
	"github.com/saltar-ua/Uncoder-IO/render"
	"github.com/saltar-ua/Uncoder-IO/tokenizer"
)

const SourceID = "chronicle"

var fieldPattern = regexp.MustCompile(`(?i)^(?P<field_name>[a-zA-Z_][a-zA-Z0-9_.]*)\s*(?:=|!=|>=|<=|>|<|\bin\b)`)

var logicalOperatorPattern = regexp.MustCompile(`(?i)^(?P<logical_operator>and|or|not)\b`)

var singleValueOperators = map[string]ir.TokenType{
	"=":  ir.EQ,
	"!=": ir.NEQ,
	">":  ir.GT,
	">=": ir.GTE,
	"<":  ir.LT,
	"<=": ir.LTE,
}

var multiValueOperators = map[string]ir.TokenType{
	"in": ir.In,
}

const valuePattern = `(?P<value>"(?:[^"\\]|\\.)*"|\S+)`
const multiValuePattern = `\(\s*(?P<value>[^)]*)\)`

func Tokenizer() *tokenizer.Tokenizer {
	cfg := tokenizer.NewDialectConfig(SourceID, tokenizer.DialectConfig{
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

func renderConfig() *render.DialectConfig {
	eq := render.OperatorRule{Template: `%FIELD% = %VALUE%`, ValueType: escape.Value}
	return &render.DialectConfig{
		Name: SourceID,
		OperatorMap: map[ir.TokenType]render.OperatorRule{
			ir.EQ:         eq,
			ir.NEQ:        {Template: `%FIELD% != %VALUE%`, ValueType: escape.Value},
			ir.GT:         {Template: `%FIELD% > %VALUE%`, ValueType: escape.Value},
			ir.GTE:        {Template: `%FIELD% >= %VALUE%`, ValueType: escape.Value},
			ir.LT:         {Template: `%FIELD% < %VALUE%`, ValueType: escape.Value},
			ir.LTE:        {Template: `%FIELD% <= %VALUE%`, ValueType: escape.Value},
			ir.Contains:   {Template: `re.regex(%FIELD%, %VALUE%)`, ValueType: escape.RegexValue},
			ir.StartsWith: {Template: `re.regex(%FIELD%, %VALUE%)`, ValueType: escape.RegexValue},
			ir.EndsWith:   {Template: `re.regex(%FIELD%, %VALUE%)`, ValueType: escape.RegexValue},
			ir.Regex:      {Template: `re.regex(%FIELD%, %VALUE%)`, ValueType: escape.RegexValue},
			ir.In:         {Template: `%FIELD% in (%VALUES%)`, ListJoiner: ", ", ValueType: escape.Value},
		},
		DefaultOperator: eq,
		LogicalSpelling: map[ir.TokenType]string{ir.And: "and", ir.Or: "or", ir.Not: "not"},
		Escape:          escapeTable(),
		QuoteStrings:    true,
		SupportsIN:      true,
	}
}

func Build(catalog *mapping.Catalog) (*parser.Parser, *render.Renderer) {
	p := parser.New(parser.Config{Tokenizer: Tokenizer(), Catalog: catalog})
	r := render.New(renderConfig(), catalog)
	return p, r
}

func DefaultMapping() *mapping.SourceMapping {
	return mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, "")
}

func ProcessMapping() *mapping.SourceMapping {
	fields := map[string]string{
		"EventID":     "metadata.product_event_type",
		"CommandLine": "principal.process.command_line",
		"Image":       "principal.process.file.full_path",
		"User":        "principal.user.userid",
		"ParentImage": "principal.process.parent_process.file.full_path",
	}
	return mapping.NewSourceMapping(SourceID+"_process", mapping.LogSource{"product": "windows"}, fields, `metadata.event_type = "PROCESS_LAUNCH"`)
}

func CTIMapping() cti.Mapping {
	return cti.Mapping{
		string(cti.IP):       {"principal.ip", "target.ip"},
		string(cti.Domain):   {"network.dns_domain"},
		string(cti.URL):      {"target.url"},
		string(cti.MD5):      {"target.file.md5"},
		string(cti.SHA1):     {"target.file.sha1"},
		string(cti.SHA256):   {"target.file.sha256"},
		string(cti.Filename): {"target.file.full_path"},
	}
}

func CTIRenderer() cti.Renderer {
	return cti.EqualityRenderer{FieldMapping: CTIMapping(), Template: `%FIELD% = "%VALUE%"`, Join: " or "}
}

// RuleLoader extracts the `events:` block text of a Chronicle YARA-L rule
// document (simplified to the single-boolean-expression subset this core
// supports — nested event variables/joins are Non-goals).
type RuleLoader struct{}

type chronicleRuleDoc struct {
	Rule struct {
		Meta struct {
			Author      string `yaml:"author"`
			Description string `yaml:"description"`
			Severity    string `yaml:"severity"`
		} `yaml:"meta"`
		Events    string `yaml:"events"`
		Condition string `yaml:"condition"`
	} `yaml:"rule"`
}

func (RuleLoader) LoadRule(text string) (string, map[string]any, error) {
	var doc chronicleRuleDoc
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return "", nil, err
	}
	meta := map[string]any{
		"author":      doc.Rule.Meta.Author,
		"description": doc.Rule.Meta.Description,
		"severity":    doc.Rule.Meta.Severity,
	}
	return strings.TrimSpace(doc.Rule.Events), meta, nil
}

func BuildMeta(sourceMappingIDs []string, doc map[string]any) *ir.MetaInfoContainer {
	author, _ := doc["author"].(string)
	description, _ := doc["description"].(string)
	return ir.NewMetaInfo(mapping.DefaultMappingName,
		ir.WithAuthor(author),
		ir.WithDescription(description),
		ir.WithSourceMappingIDs(sourceMappingIDs),
	)
}
