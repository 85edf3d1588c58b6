// Package fortisiem wires the FortiSIEM rule dialect. FortiSIEM ships rules
// as XML report definitions whose `SingleEvtConstr` filter is a small
// field-comparison language, so this package parses that filter text with
// the generic tokenizer (reusing dialects/qradar's flat-comparison grammar
// shape) but carries no render.DialectConfig — FortiSIEM is a translation
// source only, per spec.md's rule-only classification for this platform.
package fortisiem

import (
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/parser"
	"github.com/saltar-ua/Uncoder-IO/tokenizer"
)

const SourceID = "fortisiem"

type ruleDoc struct {
	XMLName xml.Name  `xml:"Reports"`
	Report  reportDoc `xml:"Report"`
}

type reportDoc struct {
	Name        string `xml:"name,attr"`
	Description string `xml:"Descriptions>Description"`
	Group       string `xml:"AggregateAttributes>Filter>SingleEvtConstr"`
}

var fieldPattern = regexp.MustCompile(`(?i)^(?P<field_name>[a-zA-Z_][a-zA-Z0-9_.]*)\s*(?:=|!=|>=|<=|>|<|\bIN\b)`)

var logicalOperatorPattern = regexp.MustCompile(`(?i)^(?P<logical_operator>AND|OR|NOT)\b`)

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

// Tokenizer builds the tokenizer for a FortiSIEM report's filter expression.
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

// QueryParser builds the bare-filter Parser (the RuleLoader strips the XML
// scaffold ahead of this).
func QueryParser(catalog *mapping.Catalog) *parser.Parser {
	return parser.New(parser.Config{Tokenizer: Tokenizer(), Catalog: catalog})
}

func DefaultMapping() *mapping.SourceMapping {
	return mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, "")
}

// RuleLoader parses a FortiSIEM report XML document and returns the filter
// expression (`SingleEvtConstr`) as the translatable query body.
type RuleLoader struct{}

func (RuleLoader) LoadRule(text string) (string, map[string]any, error) {
	var doc ruleDoc
	if err := xml.Unmarshal([]byte(text), &doc); err != nil {
		return "", nil, err
	}
	meta := map[string]any{
		"name":        doc.Report.Name,
		"description": doc.Report.Description,
	}
	return strings.TrimSpace(doc.Report.Group), meta, nil
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
