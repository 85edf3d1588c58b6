// Package logscale wires the CrowdStrike Falcon LogScale (Humio) query
// dialect and its YAML alert rule wrapper.
package logscale

import (
	"gopkg.in/yaml.v3"

	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/escape"
	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/render"
)

const SourceID = "logscale"

func escapeTable() escape.Table {
	return escape.Table{
		escape.Value:         escape.NewRule(`(["\\])`),
		escape.WildcardValue: escape.NewRule(`(["\\])`),
		escape.RegexValue:    escape.NewRule(`([.^$|()\[\]{}*+?\\])`),
	}
}

func RenderConfig() *render.DialectConfig {
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
			ir.Regex:      {Template: `regex("%VALUE%", field=%FIELD%)`, ValueType: escape.RegexValue},
			ir.In:         {Template: `%FIELD% in (%VALUES%)`, ListJoiner: ", ", ValueType: escape.Value},
		},
		DefaultOperator: eq,
		LogicalSpelling: map[ir.TokenType]string{ir.And: "AND", ir.Or: "OR", ir.Not: "NOT"},
		Escape:          escapeTable(),
		WildcardSymbol:  "*",
		QuoteStrings:    true,
		SupportsIN:      true,
	}
}

func Build(catalog *mapping.Catalog) *render.Renderer {
	return render.New(RenderConfig(), catalog)
}

func DefaultMapping() *mapping.SourceMapping {
	return mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, "")
}

func ProcessMapping() *mapping.SourceMapping {
	fields := map[string]string{
		"EventID":     "event_simpleName",
		"CommandLine": "CommandLine",
		"Image":       "ImageFileName",
		"User":        "UserName",
	}
	return mapping.NewSourceMapping(SourceID+"_process", mapping.LogSource{"product": "windows"}, fields, `event_simpleName=ProcessRollup2`)
}

func CTIMapping() cti.Mapping {
	return cti.Mapping{
		string(cti.IP):       {"src_ip", "dst_ip"},
		string(cti.Domain):   {"domain"},
		string(cti.MD5):      {"md5"},
		string(cti.SHA1):     {"sha1"},
		string(cti.SHA256):   {"sha256"},
		string(cti.Filename): {"file_name"},
	}
}

func CTIRenderer() cti.Renderer {
	return cti.EqualityRenderer{FieldMapping: CTIMapping(), Template: `%FIELD%="%VALUE%"`, Join: " OR "}
}

// AlertDoc models a LogScale scheduled-search alert YAML document: the
// query lives under `queryString`, and the alert carries a free-text
// `description` composed by render.DescribeRule rather than structured
// per-field metadata.
type AlertDoc struct {
	Name        string `yaml:"name"`
	QueryString string `yaml:"queryString"`
	Description string `yaml:"description,omitempty"`
}

// RenderAlert produces a LogScale alert YAML document from a translated
// query and its metadata, using render.DescribeRule for the free-text body.
func RenderAlert(query string, meta *ir.MetaInfoContainer) (string, error) {
	doc := AlertDoc{
		Name:        meta.Title,
		QueryString: query,
		Description: render.DescribeRule(meta),
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
