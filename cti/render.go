package cti

import "strings"

// Renderer is the platform-specific CTI renderer of spec.md §4.9 step 5: it
// turns one chunk of ChunkValue records into a single standalone query
// string, typically an OR-joined disjunction of field-value equalities.
type Renderer interface {
	RenderChunk(chunk []ChunkValue) string
	Mapping() Mapping
}

// EqualityRenderer is a reusable Renderer for dialects whose CTI syntax is a
// flat `field="value"` equality joined by a keyword (Splunk/QRadar/Athena:
// "OR"; Lucene: "OR" with `field:"value"` instead of `field="value"`, etc).
// Join joins ChunkValue groups together and also joins the equalities of one
// ChunkValue's multiple PlatformFields, which are wrapped in parens.
type EqualityRenderer struct {
	FieldMapping Mapping
	Template     string // %FIELD% / %VALUE%, e.g. `%FIELD%="%VALUE%"` or `%FIELD%:"%VALUE%"`
	Join         string // e.g. " OR "
}

func (e EqualityRenderer) Mapping() Mapping { return e.FieldMapping }

func (e EqualityRenderer) RenderChunk(chunk []ChunkValue) string {
	joiner := e.Join
	if joiner == "" {
		joiner = " OR "
	}
	groups := make([]string, 0, len(chunk))
	for _, cv := range chunk {
		groups = append(groups, e.renderGroup(cv))
	}
	return strings.Join(groups, joiner)
}

func (e EqualityRenderer) renderGroup(cv ChunkValue) string {
	joiner := e.Join
	if joiner == "" {
		joiner = " OR "
	}
	parts := make([]string, 0, len(cv.PlatformFields))
	for _, field := range cv.PlatformFields {
		one := strings.ReplaceAll(e.Template, "%FIELD%", field)
		one = strings.ReplaceAll(one, "%VALUE%", cv.Value)
		parts = append(parts, one)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, joiner) + ")"
}
