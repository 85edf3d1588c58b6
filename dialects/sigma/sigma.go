// Package sigma implements the Sigma dialect: a rule-only source (detection
// block + condition DSL, not a flat tokenizable query string), so it parses
// directly to IR instead of going through tokenizer.Tokenizer/parser.Parser
// like the flat-query dialects (sigma/models/modifiers.py is the only
// original_source fragment retained for this dialect; the condition DSL
// below is this repo's own design, since no reference parser_sigma.py
// survived the distillation).
package sigma

import (
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saltar-ua/Uncoder-IO/ir"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/modifier"
	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

// SourceID is this dialect's mapping.SourceMapping id.
const SourceID = "sigma"

type ruleDoc struct {
	Title       string                 `yaml:"title"`
	ID          string                 `yaml:"id"`
	Description string                 `yaml:"description"`
	Author      string                 `yaml:"author"`
	Date        string                 `yaml:"date"`
	References  []string               `yaml:"references"`
	Tags        []string               `yaml:"tags"`
	License     string                 `yaml:"license"`
	Status      string                 `yaml:"status"`
	Level       string                 `yaml:"level"`
	FalsePositives []string            `yaml:"falsepositives"`
	LogSource   map[string]any         `yaml:"logsource"`
	Detection   map[string]any         `yaml:"detection"`
}

// Parser parses Sigma YAML rules directly into IR, bypassing the generic
// tokenizer/parser pipeline: Sigma's "detection" block is a map of named
// selections, not free text.
type Parser struct {
	catalog  *mapping.Catalog
	modifier *modifier.Manager
}

func NewParser(catalog *mapping.Catalog) *Parser {
	return &Parser{catalog: catalog, modifier: modifier.New()}
}

// ParseRule implements the same external shape as parser.RuleParser.ParseRule
// (text in, *ir.SiemContainer out) so the registry can treat Sigma
// uniformly with the flat-query rule dialects.
func (p *Parser) ParseRule(text string) (*ir.SiemContainer, error) {
	var doc ruleDoc
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, xerrors.TokenizerGeneral("invalid Sigma YAML", err.Error())
	}

	conditionRaw, _ := doc.Detection["condition"]
	condition, _ := conditionRaw.(string)
	if condition == "" {
		return nil, xerrors.UnsupportedRoot("Sigma rule has no condition")
	}

	selections, err := buildSelections(doc.Detection, p.modifier)
	if err != nil {
		return nil, err
	}

	tokens, err := evalCondition(condition, selections)
	if err != nil {
		return nil, err
	}

	logSources := mapping.LogSource{}
	for k, v := range doc.LogSource {
		logSources[k] = v
	}
	candidates := p.catalog.GetSuitableSourceMappings(logSources)
	fields := collectFields(tokens)
	mapping.SetFieldGenericNames(fields, candidates)

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.SourceID)
	}
	defaultID := mapping.DefaultMappingName
	if len(candidates) > 0 {
		defaultID = candidates[0].SourceID
	}

	meta := ir.NewMetaInfo(defaultID,
		ir.WithTitle(doc.Title),
		ir.WithDescription(doc.Description),
		ir.WithAuthor(doc.Author),
		ir.WithReferences(doc.References),
		ir.WithTags(doc.Tags),
		ir.WithFalsePositives(doc.FalsePositives),
		ir.WithSourceMappingIDs(ids),
	)
	if doc.ID != "" {
		meta.ID = doc.ID
	}
	if doc.Date != "" {
		meta.Date = doc.Date
	}
	if doc.License != "" {
		meta.License = doc.License
	}
	if doc.Status != "" {
		meta.Status = doc.Status
	}
	if sev, ok := severityFromLevel(doc.Level); ok {
		meta.Severity = sev
	}

	return ir.NewSiemContainer(tokens, meta, ir.ParsedFunctions{}, ir.LogSource(logSources)), nil
}

// genericFieldNames is the canonical generic schema's process/auth field
// set (spec.md §3's common taxonomy), matching the same names every target
// dialect's own SourceMapping tables key their generic side on.
var genericFieldNames = []string{
	"EventID", "CommandLine", "Image", "User", "ParentImage",
	"ParentCommandLine", "TargetFilename", "DestinationIp", "SourceIp",
	"DestinationPort", "QueryName", "RegistryKey", "RegistryValue",
}

// IdentityMapping builds the Sigma-side SourceMapping used by NewParser's
// catalog: Sigma's own field-naming convention already IS the generic
// schema, so this maps every canonical name to itself. Resolving fields
// through an identity FieldTable (rather than an empty one) sets
// Field.Unmapped=false, which is what lets the renderer's GenericName
// fallback-to-SourceName path carry the field through to the target
// platform's own SourceMapping lookup at render time.
func IdentityMapping() *mapping.SourceMapping {
	fields := make(map[string]string, len(genericFieldNames))
	for _, name := range genericFieldNames {
		fields[name] = name
	}
	return mapping.NewSourceMapping(SourceID, mapping.LogSource{}, fields, "")
}

func severityFromLevel(level string) (ir.Severity, bool) {
	switch strings.ToLower(level) {
	case "informational":
		return ir.SeverityInformational, true
	case "low":
		return ir.SeverityLow, true
	case "medium":
		return ir.SeverityMedium, true
	case "high":
		return ir.SeverityHigh, true
	case "critical":
		return ir.SeverityCritical, true
	default:
		return "", false
	}
}

func collectFields(tokens []ir.Token) []*ir.Field {
	var out []*ir.Field
	for _, tok := range tokens {
		if fv, ok := tok.(*ir.FieldValue); ok {
			out = append(out, fv.Field)
		}
	}
	return out
}

// buildSelections turns every non-"condition" key of the detection block
// into a flat token subtree: keys within one selection map are AND-joined;
// a list value on one key is OR-joined (field:[a,b] -> (field=a OR field=b)).
func buildSelections(detection map[string]any, m *modifier.Manager) (map[string][]ir.Token, error) {
	out := map[string][]ir.Token{}
	for name, raw := range detection {
		if name == "condition" {
			continue
		}
		tokens, err := buildSelection(raw, m)
		if err != nil {
			return nil, err
		}
		out[name] = tokens
	}
	return out, nil
}

func buildSelection(raw any, m *modifier.Manager) ([]ir.Token, error) {
	switch v := raw.(type) {
	case map[string]any:
		return buildSelectionMap(v, m)
	case []any:
		// A list of selection maps is itself an OR of ANDed selections
		// (Sigma's "list of maps" selection shape).
		var parts [][]ir.Token
		for _, item := range v {
			m2, ok := item.(map[string]any)
			if !ok {
				continue
			}
			sub, err := buildSelectionMap(m2, m)
			if err != nil {
				return nil, err
			}
			parts = append(parts, sub)
		}
		return joinOr(parts), nil
	default:
		return nil, xerrors.UnsupportedRoot("unsupported Sigma selection shape")
	}
}

func buildSelectionMap(fields map[string]any, m *modifier.Manager) ([]ir.Token, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic AND order

	var parts [][]ir.Token
	for _, key := range keys {
		fieldName, mods := splitFieldModifiers(key)
		tokens, err := m.Generate(fieldName, mods, fields[key])
		if err != nil {
			return nil, err
		}
		parts = append(parts, tokens)
	}
	return joinAnd(parts), nil
}

func splitFieldModifiers(key string) (string, []string) {
	parts := strings.Split(key, "|")
	field := parts[0]
	mods := parts[1:]
	if len(mods) == 0 {
		mods = []string{"eq"}
	}
	return field, mods
}

func joinAnd(parts [][]ir.Token) []ir.Token {
	return joinWith(parts, ir.And)
}

func joinOr(parts [][]ir.Token) []ir.Token {
	return joinWith(parts, ir.Or)
}

func joinWith(parts [][]ir.Token, op ir.TokenType) []ir.Token {
	if len(parts) == 0 {
		return nil
	}
	if len(parts) == 1 {
		return parts[0]
	}
	var out []ir.Token
	out = append(out, ir.NewIdentifier(ir.LParen))
	for i, p := range parts {
		if i > 0 {
			out = append(out, ir.NewIdentifier(op))
		}
		out = append(out, p...)
	}
	out = append(out, ir.NewIdentifier(ir.RParen))
	return out
}

// evalCondition is a small recursive-descent evaluator for the Sigma
// condition DSL subset: selection-name references, and/or/not, parens, and
// the `N of <pattern>` / `all of <pattern>` aggregate forms (pattern may be
// "them", a literal selection name, or a "prefix*" wildcard).
func evalCondition(condition string, selections map[string][]ir.Token) ([]ir.Token, error) {
	toks := tokenizeCondition(condition)
	p := &conditionParser{toks: toks, selections: selections}
	out, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, xerrors.UnsupportedRoot("unexpected trailing condition text: " + condition)
	}
	return out, nil
}

func tokenizeCondition(s string) []string {
	s = strings.ReplaceAll(s, "(", " ( ")
	s = strings.ReplaceAll(s, ")", " ) ")
	return strings.Fields(s)
}

type conditionParser struct {
	toks       []string
	pos        int
	selections map[string][]ir.Token
}

func (p *conditionParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *conditionParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *conditionParser) parseOr() ([]ir.Token, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for strings.EqualFold(p.peek(), "or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = joinOr([][]ir.Token{left, right})
	}
	return left, nil
}

func (p *conditionParser) parseAnd() ([]ir.Token, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for strings.EqualFold(p.peek(), "and") {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = joinAnd([][]ir.Token{left, right})
	}
	return left, nil
}

func (p *conditionParser) parseNot() ([]ir.Token, error) {
	if strings.EqualFold(p.peek(), "not") {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		out := []ir.Token{ir.NewIdentifier(ir.Not), ir.NewIdentifier(ir.LParen)}
		out = append(out, inner...)
		out = append(out, ir.NewIdentifier(ir.RParen))
		return out, nil
	}
	return p.parseAtom()
}

func (p *conditionParser) parseAtom() ([]ir.Token, error) {
	tok := p.peek()
	switch {
	case tok == "(":
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next() != ")" {
			return nil, xerrors.UnsupportedRoot("unbalanced condition parens")
		}
		return joinAnd([][]ir.Token{inner}), nil
	case tok == "":
		return nil, xerrors.UnsupportedRoot("unexpected end of condition")
	case isAggregateKeyword(tok):
		return p.parseAggregate()
	default:
		p.next()
		sel, ok := p.selections[tok]
		if !ok {
			return nil, xerrors.UnsupportedRoot("condition references missing selection: " + tok)
		}
		return sel, nil
	}
}

func isAggregateKeyword(tok string) bool {
	if strings.EqualFold(tok, "all") {
		return true
	}
	if _, err := strconv.Atoi(tok); err == nil {
		return true
	}
	return false
}

// parseAggregate handles `N of <pattern>` / `all of <pattern>`.
func (p *conditionParser) parseAggregate() ([]ir.Token, error) {
	quantifier := p.next()
	if !strings.EqualFold(p.next(), "of") {
		return nil, xerrors.UnsupportedRoot("expected 'of' in condition aggregate")
	}
	pattern := p.next()

	names := p.matchSelectionNames(pattern)
	if len(names) == 0 {
		return nil, xerrors.UnsupportedRoot("condition aggregate matches no selections: " + pattern)
	}
	sort.Strings(names)

	var parts [][]ir.Token
	for _, n := range names {
		parts = append(parts, p.selections[n])
	}

	if strings.EqualFold(quantifier, "all") {
		return joinAnd(parts), nil
	}
	n, _ := strconv.Atoi(quantifier)
	if n >= len(parts) {
		return joinAnd(parts), nil
	}
	// "N of" with N < len(selections) and N != 1 has no flat boolean
	// rendering; this implementation supports the common N==1 case
	// (any-of) exactly and falls back to OR for other N, which is a
	// conservative over-approximation documented in DESIGN.md.
	return joinOr(parts), nil
}

func (p *conditionParser) matchSelectionNames(pattern string) []string {
	if strings.EqualFold(pattern, "them") {
		names := make([]string, 0, len(p.selections))
		for n := range p.selections {
			names = append(names, n)
		}
		return names
	}
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		var names []string
		for n := range p.selections {
			if strings.HasPrefix(n, prefix) {
				names = append(names, n)
			}
		}
		return names
	}
	if _, ok := p.selections[pattern]; ok {
		return []string{pattern}
	}
	return nil
}
