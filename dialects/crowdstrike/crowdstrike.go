// Package crowdstrike wires the CrowdStrike Event Search query dialect.
// CrowdStrike ships no public query-pull API for its detection rules, so
// this package is render-only: there is no Tokenizer/Parser, only the
// render.DialectConfig a translation targets and the CTI mapping/renderer.
package crowdstrike

import (
	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/escape"
	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/render"
)

const SourceID = "crowdstrike"

func escapeTable() escape.Table {
	return escape.Table{
		escape.Value:         escape.NewRule(`(['\\])`),
		escape.WildcardValue: escape.NewRule(`(['\\])`),
		escape.RegexValue:    escape.NewRule(`([.^$|()\[\]{}*+?\\])`),
	}
}

func RenderConfig() *render.DialectConfig {
	eq := render.OperatorRule{Template: `%FIELD%='%VALUE%'`, ValueType: escape.Value}
	return &render.DialectConfig{
		Name: SourceID,
		OperatorMap: map[ir.TokenType]render.OperatorRule{
			ir.EQ:         eq,
			ir.NEQ:        {Template: `%FIELD%!='%VALUE%'`, ValueType: escape.Value},
			ir.GT:         {Template: `%FIELD%>'%VALUE%'`, ValueType: escape.Value},
			ir.GTE:        {Template: `%FIELD%>='%VALUE%'`, ValueType: escape.Value},
			ir.LT:         {Template: `%FIELD%<'%VALUE%'`, ValueType: escape.Value},
			ir.LTE:        {Template: `%FIELD%<='%VALUE%'`, ValueType: escape.Value},
			ir.Contains:   {Template: `%FIELD%='%VALUE%'`, WildcardWrap: render.WrapBoth, ValueType: escape.WildcardValue},
			ir.StartsWith: {Template: `%FIELD%='%VALUE%'`, WildcardWrap: render.WrapSuffix, ValueType: escape.WildcardValue},
			ir.EndsWith:   {Template: `%FIELD%='%VALUE%'`, WildcardWrap: render.WrapPrefix, ValueType: escape.WildcardValue},
			ir.Regex:      {Template: `%FIELD%=/%VALUE%/`, ValueType: escape.RegexValue},
			ir.In:         {Template: `%FIELD% IN (%VALUES%)`, ListJoiner: ", ", ValueType: escape.Value},
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
		"ParentImage": "ParentBaseFileName",
	}
	return mapping.NewSourceMapping(SourceID+"_process", mapping.LogSource{"product": "windows"}, fields, `event_simpleName=ProcessRollup2`)
}

func CTIMapping() cti.Mapping {
	return cti.Mapping{
		string(cti.IP):       {"LocalAddressIP4", "RemoteAddressIP4"},
		string(cti.Domain):   {"DomainName"},
		string(cti.MD5):      {"MD5HashData"},
		string(cti.SHA1):     {"SHA1HashData"},
		string(cti.SHA256):   {"SHA256HashData"},
		string(cti.Filename): {"FileName"},
	}
}

func CTIRenderer() cti.Renderer {
	return cti.EqualityRenderer{FieldMapping: CTIMapping(), Template: `%FIELD%='%VALUE%'`, Join: " OR "}
}
