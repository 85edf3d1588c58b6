package lucene

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
)

// ElastAlertRuleLoader loads an ElastAlert YAML rule, whose Lucene/ES query
// body is nested under filter[0].query.query_string.query.
type ElastAlertRuleLoader struct{}

type elastAlertDoc struct {
	Name   string `yaml:"name"`
	Index  string `yaml:"index"`
	Filter []struct {
		Query struct {
			QueryString struct {
				Query string `yaml:"query"`
			} `yaml:"query_string"`
		} `yaml:"query"`
	} `yaml:"filter"`
}

func (ElastAlertRuleLoader) LoadRule(text string) (string, map[string]any, error) {
	var doc elastAlertDoc
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return "", nil, err
	}
	query := ""
	if len(doc.Filter) > 0 {
		query = doc.Filter[0].Query.QueryString.Query
	}
	meta := map[string]any{
		"name":  doc.Name,
		"index": doc.Index,
	}
	return query, meta, nil
}

// XPackWatcherRuleLoader loads an Elasticsearch X-Pack Watcher JSON rule,
// whose query body lives at input.search.request.body.query.query_string.query.
type XPackWatcherRuleLoader struct{}

func (XPackWatcherRuleLoader) LoadRule(text string) (string, map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return "", nil, err
	}
	path := []string{"input", "search", "request", "body", "query", "query_string", "query"}
	node := any(doc)
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return "", doc, nil
		}
		node = m[key]
	}
	query, _ := node.(string)
	return query, doc, nil
}

func RulesBuildMeta(sourceMappingIDs []string, doc map[string]any) *ir.MetaInfoContainer {
	name, _ := doc["name"].(string)
	return ir.NewMetaInfo(mapping.DefaultMappingName,
		ir.WithTitle(name),
		ir.WithSourceMappingIDs(sourceMappingIDs),
	)
}
