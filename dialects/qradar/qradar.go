// Package qradar wires the QRadar AQL dialect: a SQL-flavored
// `SELECT ... FROM events WHERE <boolean expression>` query, of which only
// the WHERE clause is tokenized — the SELECT/FROM prefix is treated as a
// log-source expression.
package qradar

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

const SourceID = "qradar"

var fieldPattern = regexp.MustCompile(`(?i)^(?P<field_name>[a-zA-Z_][a-zA-Z0-9_.]*)\s*(?:=|!=|>=|<=|>|<|I?LIKE|MATCHES|\bIN\b)`)

var logicalOperatorPattern = regexp.MustCompile(`(?i)^(?P<logical_operator>and|or|not)\b`)

var singleValueOperators = map[string]ir.TokenType{
	"=":       ir.EQ,
	"!=":      ir.NEQ,
	">":       ir.GT,
	">=":      ir.GTE,
	"<":       ir.LT,
	"<=":      ir.LTE,
	"like":    ir.Contains,
	"ilike":   ir.Contains,
	"matches": ir.Regex,
}

var multiValueOperators = map[string]ir.TokenType{
	"in": ir.In,
}

const valuePattern = `(?P<value>'(?:[^'\\]|\\.)*'|\S+)`
const multiValuePattern = `\(\s*(?P<value>[^)]*)\)`

func Tokenizer() *tokenizer.Tokenizer {
	cfg := tokenizer.NewDialectConfig(SourceID, tokenizer.DialectConfig{
		FieldPattern:           fieldPattern,
		ValuePattern:           valuePattern,
		MultiValuePattern:      multiValuePattern,
		LogicalOperatorPattern: logicalOperatorPattern,
		SingleValueOperators:   singleValueOperators,
		MultiValueOperators:    multiValueOperators,
		WildcardSymbol:         "%",
	})
	return tokenizer.New(cfg)
}

func escapeTable() escape.Table {
	return escape.Table{
		escape.Value:      escape.NewRule(`(['\\])`),
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
			ir.Contains:   {Template: `%FIELD% ILIKE %VALUE%`, WildcardWrap: render.WrapBoth, ValueType: escape.WildcardValue},
			ir.StartsWith: {Template: `%FIELD% ILIKE %VALUE%`, WildcardWrap: render.WrapSuffix, ValueType: escape.WildcardValue},
			ir.EndsWith:   {Template: `%FIELD% ILIKE %VALUE%`, WildcardWrap: render.WrapPrefix, ValueType: escape.WildcardValue},
			ir.Regex:      {Template: `%FIELD% MATCHES %VALUE%`, ValueType: escape.RegexValue},
			ir.In:         {Template: `%FIELD% IN (%VALUES%)`, ListJoiner: ", ", ValueType: escape.Value},
		},
		DefaultOperator: eq,
		LogicalSpelling: map[ir.TokenType]string{ir.And: "AND", ir.Or: "OR", ir.Not: "NOT"},
		Escape:          escapeTable(),
		WildcardSymbol:  "%",
		QuoteStrings:    true,
		SupportsIN:      true,
		Finalize: func(body string, sm *mapping.SourceMapping) string {
			source := "events"
			if sm != nil && sm.DefaultLogSourceExpression != "" {
				source = sm.DefaultLogSourceExpression
			}
			return "SELECT * FROM " + source + " WHERE " + body
		},
	}
}

var wherePattern = regexp.MustCompile(`(?is)^\s*SELECT\s+.*?\s+FROM\s+(?P<source>\w+)\s+WHERE\s+`)

func extractLogSource(query string) (mapping.LogSource, string) {
	ls := mapping.LogSource{}
	if m := wherePattern.FindStringSubmatch(query); m != nil {
		names := wherePattern.SubexpNames()
		for i, n := range names {
			if n == "source" && i < len(m) {
				ls["category"] = m[i]
			}
		}
		return ls, query[wherePattern.FindStringIndex(query)[1]:]
	}
	return ls, query
}

func Build(catalog *mapping.Catalog) (*parser.Parser, *render.Renderer) {
	p := parser.New(parser.Config{
		Tokenizer:        Tokenizer(),
		Catalog:          catalog,
		ExtractLogSource: extractLogSource,
	})
	r := render.New(renderConfig(), catalog)
	return p, r
}

func DefaultMapping() *mapping.SourceMapping {
	return mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, "events")
}

func WindowsMapping() *mapping.SourceMapping {
	fields := map[string]string{
		"EventID":     "QIDNAME(qid)",
		"CommandLine": "UTF8(payload)",
		"User":        "username",
	}
	return mapping.NewSourceMapping(SourceID+"_windows", mapping.LogSource{"product": "windows"}, fields, "events")
}

func CTIMapping() cti.Mapping {
	return cti.Mapping{
		string(cti.IP):       {"sourceip", "destinationip"},
		string(cti.Domain):   {"URL"},
		string(cti.URL):      {"URL"},
		string(cti.MD5):      {"filehash"},
		string(cti.SHA1):     {"filehash"},
		string(cti.SHA256):   {"filehash"},
		string(cti.Filename): {"filename"},
	}
}

func CTIRenderer() cti.Renderer {
	return cti.EqualityRenderer{FieldMapping: CTIMapping(), Template: `%FIELD% = '%VALUE%'`, Join: " OR "}
}
