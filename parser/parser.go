// Package parser implements the Parser (C6): the three-phase per-dialect
// pipeline (strip log source -> strip pipeline/function tail -> tokenize
// the residual boolean expression -> resolve SourceMappings) described in
// spec.md §4.6.
package parser

import (
	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/tokenizer"
)

// LogSourceExtractor strips a leading log-source expression from query and
// returns the extracted signature plus the residual text.
type LogSourceExtractor func(query string) (mapping.LogSource, string)

// FunctionExtractor strips a trailing pipeline/function chain (Splunk
// `| stats ...`, KQL `| summarize ...`) and returns the parsed functions
// plus the residual boolean-expression text.
type FunctionExtractor func(query string) (ir.ParsedFunctions, string, error)

// Config wires one dialect's parsing capabilities together. ExtractFunctions
// may be nil for dialects with no pipeline syntax.
type Config struct {
	Tokenizer        *tokenizer.Tokenizer
	Catalog          *mapping.Catalog
	ExtractLogSource LogSourceExtractor
	ExtractFunctions FunctionExtractor
}

// Parser is the query-parsing capability, reusable standalone (bare query
// translation) or composed into a RuleParser (rule-document translation).
type Parser struct {
	cfg Config
}

func New(cfg Config) *Parser { return &Parser{cfg: cfg} }

// Parse runs the three-phase pipeline and resolves every Field's generic
// name against every candidate SourceMapping, satisfying the field-mapping
// coverage invariant of spec.md §8.
func (p *Parser) Parse(query string) (*ir.SiemContainer, error) {
	logSources, residual := p.logSources(query)

	var functions ir.ParsedFunctions
	if p.cfg.ExtractFunctions != nil {
		var err error
		functions, residual, err = p.cfg.ExtractFunctions(residual)
		if err != nil {
			return nil, err
		}
	}

	tokens, err := p.cfg.Tokenizer.Tokenize(residual)
	if err != nil {
		return nil, err
	}

	candidates := p.cfg.Catalog.GetSuitableSourceMappings(logSources)
	fields := CollectFields(tokens)
	fields = append(fields, functions.FieldTokens()...)
	mapping.SetFieldGenericNames(fields, candidates)

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.SourceID)
	}

	defaultID := mapping.DefaultMappingName
	if len(candidates) > 0 {
		defaultID = candidates[0].SourceID
	}
	meta := ir.NewMetaInfo(defaultID, ir.WithSourceMappingIDs(ids))
	return ir.NewSiemContainer(tokens, meta, functions, ir.LogSource(logSources)), nil
}

func (p *Parser) logSources(query string) (mapping.LogSource, string) {
	if p.cfg.ExtractLogSource == nil {
		return mapping.LogSource{}, query
	}
	return p.cfg.ExtractLogSource(query)
}

// CollectFields walks a flat token stream and returns every *ir.Field
// reachable from its FieldValue tokens.
func CollectFields(tokens []ir.Token) []*ir.Field {
	var out []*ir.Field
	for _, tok := range tokens {
		if fv, ok := tok.(*ir.FieldValue); ok {
			out = append(out, fv.Field)
		}
	}
	return out
}
