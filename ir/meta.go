package ir

import "time"

// Severity is the closed severity enumeration of spec.md §6.
type Severity string

const (
	SeverityInformational Severity = "informational"
	SeverityLow           Severity = "low"
	SeverityMedium        Severity = "medium"
	SeverityHigh          Severity = "high"
	SeverityCritical      Severity = "critical"
)

const (
	DefaultLicense = "DRL 1.1"
	DefaultStatus  = "stable"
)

// uuidFunc and nowFunc are indirected so tests can pin deterministic
// defaults without reaching into time.Now/uuid.New directly.
var (
	uuidFunc = newUUIDv4
	nowFunc  = time.Now
)

// MetaInfoContainer is rule-level metadata (spec.md §3). Every field has a
// defined default: ID is a fresh v4 UUID, Date defaults to today in
// ISO-8601, Severity to low, License to "DRL 1.1", Status to "stable".
type MetaInfoContainer struct {
	ID               string
	Title            string
	Description      string
	Author           string
	Date             string
	License          string
	Severity         Severity
	References       []string
	Tags             []string
	MitreAttack      map[string][]string // tactic -> technique ids
	Status           string
	FalsePositives   []string
	SourceMappingIDs []string
}

// MetaInfoOption customizes a MetaInfoContainer built by NewMetaInfo.
type MetaInfoOption func(*MetaInfoContainer)

func WithID(id string) MetaInfoOption                { return func(m *MetaInfoContainer) { m.ID = id } }
func WithTitle(title string) MetaInfoOption          { return func(m *MetaInfoContainer) { m.Title = title } }
func WithDescription(d string) MetaInfoOption        { return func(m *MetaInfoContainer) { m.Description = d } }
func WithAuthor(a string) MetaInfoOption             { return func(m *MetaInfoContainer) { m.Author = a } }
func WithDate(d string) MetaInfoOption               { return func(m *MetaInfoContainer) { m.Date = d } }
func WithLicense(l string) MetaInfoOption            { return func(m *MetaInfoContainer) { m.License = l } }
func WithSeverity(s Severity) MetaInfoOption         { return func(m *MetaInfoContainer) { m.Severity = s } }
func WithReferences(r []string) MetaInfoOption       { return func(m *MetaInfoContainer) { m.References = r } }
func WithTags(t []string) MetaInfoOption             { return func(m *MetaInfoContainer) { m.Tags = t } }
func WithMitreAttack(m map[string][]string) MetaInfoOption {
	return func(c *MetaInfoContainer) { c.MitreAttack = m }
}
func WithStatus(s string) MetaInfoOption { return func(m *MetaInfoContainer) { m.Status = s } }
func WithFalsePositives(fp []string) MetaInfoOption {
	return func(m *MetaInfoContainer) { m.FalsePositives = fp }
}
func WithSourceMappingIDs(ids []string) MetaInfoOption {
	return func(m *MetaInfoContainer) { m.SourceMappingIDs = ids }
}

// NewMetaInfo builds a MetaInfoContainer, applying spec.md §3's defaults for
// every field the caller doesn't set explicitly.
func NewMetaInfo(defaultMappingID string, opts ...MetaInfoOption) *MetaInfoContainer {
	m := &MetaInfoContainer{
		ID:               uuidFunc(),
		Date:             nowFunc().UTC().Format("2006-01-02"),
		License:          DefaultLicense,
		Severity:         SeverityLow,
		Status:           DefaultStatus,
		SourceMappingIDs: []string{defaultMappingID},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
