// Package graylog wires Graylog's Lucene query-string variant, reusing
// dialects/lucene's grammar under Graylog's own SourceID, streams-based
// log-source extraction, and GIM-aligned CTI field mapping.
package graylog

import (
	"regexp"

	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/dialects/lucene"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/parser"
	"github.com/saltar-ua/Uncoder-IO/render"
)

const SourceID = "graylog"

func extractLogSource(query string) (mapping.LogSource, string) {
	ls := mapping.LogSource{}
	if m := regexp.MustCompile(`(?i)^\s*streams:\s*"?([\w\-]+)"?\s+`).FindStringSubmatch(query); m != nil {
		ls["service"] = m[1]
		return ls, query[len(m[0]):]
	}
	return ls, query
}

func Build(catalog *mapping.Catalog) (*parser.Parser, *render.Renderer) {
	p := parser.New(parser.Config{
		Tokenizer:        lucene.NewTokenizer(SourceID),
		Catalog:          catalog,
		ExtractLogSource: extractLogSource,
	})
	r := render.New(lucene.NewRenderConfig(SourceID), catalog)
	return p, r
}

func DefaultMapping() *mapping.SourceMapping {
	return mapping.NewSourceMapping(mapping.DefaultMappingName, mapping.LogSource{}, map[string]string{}, "")
}

func WindowsMapping() *mapping.SourceMapping {
	fields := map[string]string{
		"EventID":     "EventID",
		"CommandLine": "CommandLine",
		"Image":       "process_path",
		"User":        "user_name",
	}
	return mapping.NewSourceMapping(SourceID+"_windows", mapping.LogSource{"product": "windows"}, fields, `streams:"windows"`)
}

func CTIMapping() cti.Mapping {
	return cti.Mapping{
		string(cti.IP):       {"src_ip", "dst_ip"},
		string(cti.Domain):   {"dns_query"},
		string(cti.URL):      {"http_url"},
		string(cti.MD5):      {"file_hash"},
		string(cti.SHA1):     {"file_hash"},
		string(cti.SHA256):   {"file_hash"},
		string(cti.Filename): {"file_name"},
	}
}

func CTIRenderer() cti.Renderer {
	return cti.EqualityRenderer{FieldMapping: CTIMapping(), Template: `%FIELD%:"%VALUE%"`, Join: " OR "}
}
