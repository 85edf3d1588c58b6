// Package defender wires Microsoft Defender's KQL dialect, which shares
// Sentinel's grammar (dialects/sentinel) but has its own table/field naming
// (advanced hunting schema) and CTI mapping.
package defender

import (
	"regexp"

	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/dialects/sentinel"
	"github.com/saltar-ua/Uncoder-IO/parser"
	"github.com/saltar-ua/Uncoder-IO/render"
)

const SourceID = "microsoft_defender"

func extractLogSource(query string) (mapping.LogSource, string) {
	ls := mapping.LogSource{}
	if m := regexp.MustCompile(`^\s*(DeviceProcessEvents|DeviceNetworkEvents|DeviceFileEvents)\s*\|\s*where\s+`).FindStringSubmatch(query); m != nil {
		ls["service"] = m[1]
		return ls, query[len(m[0]):]
	}
	return ls, query
}

func Build(catalog *mapping.Catalog) (*parser.Parser, *render.Renderer) {
	p := parser.New(parser.Config{
		Tokenizer:        sentinel.NewTokenizer(SourceID),
		Catalog:          catalog,
		ExtractLogSource: extractLogSource,
	})
	r := render.New(sentinel.NewRenderConfig(SourceID), catalog)
	return p, r
}

func DefaultMapping() *mapping.SourceMapping {
	return mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, "")
}

func DeviceProcessMapping() *mapping.SourceMapping {
	fields := map[string]string{
		"EventID":     "ActionType",
		"CommandLine": "ProcessCommandLine",
		"Image":       "FileName",
		"User":        "AccountName",
		"ParentImage": "InitiatingProcessFileName",
	}
	return mapping.NewSourceMapping(SourceID+"_device_process", mapping.LogSource{"product": "windows"}, fields, "DeviceProcessEvents")
}

func CTIMapping() cti.Mapping {
	return cti.Mapping{
		string(cti.IP):           {"RemoteIP"},
		string(cti.Domain):       {"RemoteUrl"},
		string(cti.URL):          {"RemoteUrl"},
		string(cti.MD5):          {"MD5"},
		string(cti.SHA1):         {"SHA1"},
		string(cti.SHA256):       {"SHA256"},
		string(cti.Email):        {"SenderFromAddress"},
		string(cti.Filename):     {"FileName"},
		string(cti.RegistryPath): {"RegistryKey"},
	}
}

func CTIRenderer() cti.Renderer {
	return cti.EqualityRenderer{FieldMapping: CTIMapping(), Template: `%FIELD% =~ "%VALUE%"`, Join: " or "}
}

var RuleLoader = parser.JSONRuleLoader{QueryField: "query"}

func BuildMeta(sourceMappingIDs []string, doc map[string]any) *ir.MetaInfoContainer {
	title, _ := doc["displayName"].(string)
	description, _ := doc["description"].(string)
	return ir.NewMetaInfo(mapping.DefaultMappingName,
		ir.WithTitle(title),
		ir.WithDescription(description),
		ir.WithSourceMappingIDs(sourceMappingIDs),
	)
}
