// Package mapping implements the Mapping Catalog (C2): per-dialect
// SourceMapping records and the log-source-driven lookup that selects which
// of them apply to a given query.
package mapping

import (
	"sort"

	"github.com/saltar-ua/Uncoder-IO/ir"
)

// DefaultMappingName is the catalog's always-present fallback mapping id,
// recovered from original_source/translator/app/translator/core/mapping.py's
// DEFAULT_MAPPING_NAME and referenced by MetaInfoContainer's default
// SourceMappingIDs.
const DefaultMappingName = "default"

// LogSource is the small map extracted from a query's log-source expression
// (product/service/category/index, ...).
type LogSource map[string]any

// SourceMapping binds a dialect's field names to the generic schema for one
// log-source signature (spec.md §3).
type SourceMapping struct {
	SourceID                 string
	LogSourceSignature       LogSource
	FieldTable                map[string]string // generic name -> dialect field name
	DefaultLogSourceExpression string

	inverse map[string]string // dialect field name -> generic name, built lazily
}

func NewSourceMapping(id string, signature LogSource, fieldTable map[string]string, defaultExpr string) *SourceMapping {
	return &SourceMapping{SourceID: id, LogSourceSignature: signature, FieldTable: fieldTable, DefaultLogSourceExpression: defaultExpr}
}

// GenericName performs the inverse lookup: dialect field -> generic name.
// Returns ok=false when the field is unmapped in this mapping.
func (m *SourceMapping) GenericName(dialectField string) (string, bool) {
	if m.inverse == nil {
		m.inverse = make(map[string]string, len(m.FieldTable))
		for generic, dialect := range m.FieldTable {
			m.inverse[dialect] = generic
		}
	}
	name, ok := m.inverse[dialectField]
	return name, ok
}

// DialectField maps a generic field name forward to this mapping's dialect
// field name; used by renderers translating IR fields back to target text.
func (m *SourceMapping) DialectField(generic string) (string, bool) {
	name, ok := m.FieldTable[generic]
	return name, ok
}

// signatureSubset reports whether sig is a subset-match of query: every key
// in sig must be present in query with an overlapping value (a query value
// may be a list; a mapping value may be scalar or list too).
func signatureSubset(sig, query LogSource) bool {
	for k, want := range sig {
		got, ok := query[k]
		if !ok {
			return false
		}
		if !valuesOverlap(want, got) {
			return false
		}
	}
	return true
}

func valuesOverlap(a, b any) bool {
	aList := toStringList(a)
	bList := toStringList(b)
	for _, x := range aList {
		for _, y := range bList {
			if x == y {
				return true
			}
		}
	}
	return false
}

func toStringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Catalog holds a dialect's SourceMapping records, keyed by SourceID.
type Catalog struct {
	mappings map[string]*SourceMapping
	order    []string // preserves registration order for deterministic output
}

func NewCatalog() *Catalog {
	return &Catalog{mappings: map[string]*SourceMapping{}}
}

// Register adds a SourceMapping to the catalog.
func (c *Catalog) Register(m *SourceMapping) {
	if _, exists := c.mappings[m.SourceID]; !exists {
		c.order = append(c.order, m.SourceID)
	}
	c.mappings[m.SourceID] = m
}

// GetSourceMapping returns the mapping with the given id, or nil.
func (c *Catalog) GetSourceMapping(id string) *SourceMapping {
	return c.mappings[id]
}

// GetSuitableSourceMappings returns every mapping whose signature is a
// subset-match of the query's extracted log sources, most-specific first
// (largest matching signature), with the default mapping always appended
// last — the tie-break rule of spec.md §4.2.
func (c *Catalog) GetSuitableSourceMappings(logSources LogSource) []*SourceMapping {
	var matched []*SourceMapping
	var def *SourceMapping
	for _, id := range c.order {
		m := c.mappings[id]
		if id == DefaultMappingName {
			def = m
			continue
		}
		if signatureSubset(m.LogSourceSignature, logSources) {
			matched = append(matched, m)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return len(matched[i].LogSourceSignature) > len(matched[j].LogSourceSignature)
	})
	if def != nil {
		matched = append(matched, def)
	}
	if len(matched) == 0 && def != nil {
		matched = []*SourceMapping{def}
	}
	return matched
}

// GetChained returns the mappings for the given ids, in order, skipping ids
// the catalog doesn't recognize.
func (c *Catalog) GetChained(ids []string) []*SourceMapping {
	out := make([]*SourceMapping, 0, len(ids))
	for _, id := range ids {
		if m := c.mappings[id]; m != nil {
			out = append(out, m)
		}
	}
	return out
}

// SetFieldGenericNames resolves GenericNamesMap for every Field against
// every candidate SourceMapping, setting Field.Unmapped when no mapping
// could resolve a generic name — the field-mapping coverage invariant of
// spec.md §8.
func SetFieldGenericNames(fields []*ir.Field, candidates []*SourceMapping) {
	for _, f := range fields {
		resolved := false
		for _, m := range candidates {
			if generic, ok := m.GenericName(f.SourceName); ok {
				f.GenericNamesMap[m.SourceID] = generic
				resolved = true
			} else {
				f.GenericNamesMap[m.SourceID] = f.SourceName
			}
		}
		f.Unmapped = !resolved
	}
}
