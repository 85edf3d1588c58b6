package parser

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/saltar-ua/Uncoder-IO/ir"
)

// RuleLoader is the "rule loader" capability of spec.md §9's mixin-split
// redesign flag: extract {query, meta} from a rule document, independent of
// which query-dialect grammar the query string itself needs.
type RuleLoader interface {
	LoadRule(text string) (query string, meta map[string]any, err error)
}

// JSONRuleLoader loads rule documents shaped like Sentinel/Elastic/Kibana/
// XPack Watcher rules: a JSON object with one field holding the query text.
type JSONRuleLoader struct {
	QueryField string
}

func (l JSONRuleLoader) LoadRule(text string) (string, map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return "", nil, err
	}
	query, _ := doc[l.QueryField].(string)
	return query, doc, nil
}

// YAMLRuleLoader loads rule documents shaped like Sigma/LogScale alert/
// Chronicle/ElastAlert rules: a YAML mapping with one field holding the
// query text.
type YAMLRuleLoader struct {
	QueryField string
}

func (l YAMLRuleLoader) LoadRule(text string) (string, map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return "", nil, err
	}
	query, _ := doc[l.QueryField].(string)
	return query, doc, nil
}

// MetaBuilder turns a rule document's raw meta map (plus the resolved
// SourceMapping ids) into a MetaInfoContainer; every rule dialect supplies
// its own field-name mapping (e.g. Sentinel's "displayName" vs Sigma's
// "title").
type MetaBuilder func(sourceMappingIDs []string, meta map[string]any) *ir.MetaInfoContainer

// RuleParsing is the capability the registry stores per platform: parse a
// full rule document (not a bare query string) into a SiemContainer. Both
// *RuleParser (JSON/YAML wrapper + delegated query Parser) and Sigma's
// bespoke direct-to-IR dialects/sigma.Parser satisfy it.
type RuleParsing interface {
	ParseRule(text string) (*ir.SiemContainer, error)
}

// RuleParser composes the query-parsing capability (Parser) with a
// RuleLoader by delegation, instead of the original's JsonRuleMixin /
// YamlRuleMixin multiple-inheritance (spec.md §9).
type RuleParser struct {
	*Parser
	Loader      RuleLoader
	BuildMeta   MetaBuilder
}

func NewRuleParser(p *Parser, loader RuleLoader, buildMeta MetaBuilder) *RuleParser {
	return &RuleParser{Parser: p, Loader: loader, BuildMeta: buildMeta}
}

// ParseRule loads the rule document, parses its query with the composed
// Parser, then overlays rule-level metadata built from the raw document.
func (rp *RuleParser) ParseRule(text string) (*ir.SiemContainer, error) {
	query, rawMeta, err := rp.Loader.LoadRule(text)
	if err != nil {
		return nil, err
	}
	container, err := rp.Parser.Parse(query)
	if err != nil {
		return nil, err
	}
	if rp.BuildMeta != nil {
		container.MetaInfo = rp.BuildMeta(container.MetaInfo.SourceMappingIDs, rawMeta)
	}
	return container, nil
}
