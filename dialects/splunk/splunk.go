// Package splunk wires the Splunk SPL dialect: tokenizer, renderer, and
// source mappings, plus a CTI renderer and a Splunk alert (.conf-style
// `search = ...` stanza) rule wrapper.
package splunk

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

const SourceID = "splunk"

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

// Tokenizer builds the Splunk query tokenizer. Exported so dialects without
// their own grammar (none currently) could embed it; also used directly by
// Build.
func Tokenizer() *tokenizer.Tokenizer {
	cfg := tokenizer.NewDialectConfig(SourceID, tokenizer.DialectConfig{
		FieldPattern:           fieldPattern,
		ValuePattern:           valuePattern,
		MultiValuePattern:      multiValuePattern,
		LogicalOperatorPattern: logicalOperatorPattern,
		SingleValueOperators:   singleValueOperators,
		MultiValueOperators:    multiValueOperators,
		WildcardSymbol:         "*",
	})
	return tokenizer.New(cfg)
}

func escapeTable() escape.Table {
	return escape.Table{
		escape.Value:         escape.NewRule(`(["\\])`),
		escape.WildcardValue: escape.NewRule(`(["\\])`),
		escape.RegexValue:    escape.NewRule(`([.^$|()\[\]{}*+?\\])`),
	}
}

func renderConfig(catalog *mapping.Catalog) *render.DialectConfig {
	eq := render.OperatorRule{Template: `%FIELD%=%VALUE%`, ValueType: escape.Value}
	return &render.DialectConfig{
		Name: SourceID,
		OperatorMap: map[ir.TokenType]render.OperatorRule{
			ir.EQ:         eq,
			ir.NEQ:        {Template: `%FIELD%!=%VALUE%`, ValueType: escape.Value},
			ir.GT:         {Template: `%FIELD%>%VALUE%`, ValueType: escape.Value},
			ir.GTE:        {Template: `%FIELD%>=%VALUE%`, ValueType: escape.Value},
			ir.LT:         {Template: `%FIELD%<%VALUE%`, ValueType: escape.Value},
			ir.LTE:        {Template: `%FIELD%<=%VALUE%`, ValueType: escape.Value},
			ir.Contains:   {Template: `%FIELD%=%VALUE%`, WildcardWrap: render.WrapBoth, ValueType: escape.WildcardValue},
			ir.StartsWith: {Template: `%FIELD%=%VALUE%`, WildcardWrap: render.WrapSuffix, ValueType: escape.WildcardValue},
			ir.EndsWith:   {Template: `%FIELD%=%VALUE%`, WildcardWrap: render.WrapPrefix, ValueType: escape.WildcardValue},
			ir.Regex:      {Template: `%FIELD%=%VALUE%`, ValueType: escape.RegexValue},
			ir.In:         {Template: `%FIELD% IN (%VALUES%)`, ListJoiner: ", ", ValueType: escape.Value},
		},
		DefaultOperator: eq,
		LogicalSpelling: map[ir.TokenType]string{ir.And: "AND", ir.Or: "OR", ir.Not: "NOT"},
		Escape:          escapeTable(),
		WildcardSymbol:  "*",
		QuoteStrings:    true,
		SupportsIN:      true,
		FunctionPipeJoin: " | ",
		Finalize: func(body string, sm *mapping.SourceMapping) string {
			if sm == nil || sm.DefaultLogSourceExpression == "" {
				return body
			}
			return sm.DefaultLogSourceExpression + " " + body
		},
	}
}

func extractLogSource(query string) (mapping.LogSource, string) {
	// Splunk carries log-source context in an `index=`/`sourcetype=`
	// leading clause; since these are ordinary field comparisons the
	// generic tokenizer already parses them, the log-source extractor
	// here is a thin best-effort peek that doesn't consume input. It records
	// a `sourcetype=` value as the "product" log source; the SourceMapping
	// choice uses only that, falling back to the default mapping when no
	// mapping's signature matches it.
	ls := mapping.LogSource{}
	if m := regexp.MustCompile(`(?i)sourcetype\s*=\s*"?([\w:.\-*]+)"?`).FindStringSubmatch(query); m != nil {
		ls["product"] = strings.Trim(m[1], `"`)
	}
	return ls, query
}

// Build assembles the Splunk query Parser and Renderer against catalog.
func Build(catalog *mapping.Catalog) (*parser.Parser, *render.Renderer) {
	p := parser.New(parser.Config{
		Tokenizer:        Tokenizer(),
		Catalog:          catalog,
		ExtractLogSource: extractLogSource,
	})
	r := render.New(renderConfig(catalog), catalog)
	return p, r
}

// DefaultMapping is the always-present SourceMapping, mirroring the
// generic-field identity mapping most Splunk CIM-aligned indexes use.
func DefaultMapping() *mapping.SourceMapping {
	return mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, "")
}

// WindowsMapping is a representative product=windows SourceMapping (spec.md
// §8 scenario 1: Sigma EventID -> Splunk EventCode under a WinEventLog
// sourcetype).
func WindowsMapping() *mapping.SourceMapping {
	fields := map[string]string{
		"EventID":     "EventCode",
		"CommandLine": "CommandLine",
		"Image":       "Image",
		"User":        "User",
		"ParentImage": "ParentImage",
	}
	return mapping.NewSourceMapping(SourceID+"_windows", mapping.LogSource{"product": "windows"}, fields, `source="WinEventLog:*"`)
}

// CTIMapping maps generic IOC fields to Splunk CIM field names. src_ip maps
// to both src_ip and dest_ip when includeSourceIP is set (spec.md §8
// scenario 5).
func CTIMapping(includeSourceIP bool) cti.Mapping {
	m := cti.Mapping{
		string(cti.Domain):       {"query"},
		string(cti.URL):          {"url"},
		string(cti.MD5):          {"file_hash"},
		string(cti.SHA1):         {"file_hash"},
		string(cti.SHA256):       {"file_hash"},
		string(cti.SHA512):       {"file_hash"},
		string(cti.Email):        {"src_user"},
		string(cti.Filename):     {"file_name"},
		string(cti.RegistryPath): {"registry_path"},
	}
	if includeSourceIP {
		m[string(cti.IP)] = []string{"src_ip", "dest_ip"}
	} else {
		m[string(cti.IP)] = []string{"dest_ip"}
	}
	return m
}

// CTIRenderer builds this platform's CTI renderer.
func CTIRenderer(includeSourceIP bool) cti.Renderer {
	return cti.EqualityRenderer{
		FieldMapping: CTIMapping(includeSourceIP),
		Template:     `%FIELD%="%VALUE%"`,
		Join:         " OR ",
	}
}

// AlertRuleLoader extracts the `search = ...` stanza from a Splunk alert
// saved-search (.conf-style key=value text) rule document.
type AlertRuleLoader struct{}

var searchStanzaPattern = regexp.MustCompile(`(?ims)^\s*search\s*=\s*(.+?)\s*$`)

func (AlertRuleLoader) LoadRule(text string) (string, map[string]any, error) {
	doc := map[string]any{}
	var query string
	for _, line := range strings.Split(text, "\n") {
		if m := searchStanzaPattern.FindStringSubmatch(line); m != nil {
			query = m[1]
			continue
		}
		if idx := strings.Index(line, "="); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			val := strings.TrimSpace(line[idx+1:])
			if key != "" {
				doc[key] = val
			}
		}
	}
	return query, doc, nil
}

// BuildMeta builds a MetaInfoContainer from a Splunk alert stanza's raw
// key=value document.
func BuildMeta(sourceMappingIDs []string, doc map[string]any) *ir.MetaInfoContainer {
	title, _ := doc["description"].(string)
	author, _ := doc["action.email.from"].(string)
	return ir.NewMetaInfo(mapping.DefaultMappingName,
		ir.WithTitle(title),
		ir.WithAuthor(author),
		ir.WithSourceMappingIDs(sourceMappingIDs),
	)
}
