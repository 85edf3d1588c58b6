// Package registry implements the Manager Registry (C10): name-keyed
// tables of query renderers, rule renderers, query parsers, rule parsers,
// and CTI renderers, assembled by an explicit Build step rather than import-time
// side effects (spec.md's "Implicit global registries" REDESIGN FLAG).
package registry

import (
	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/parser"
	"github.com/saltar-ua/Uncoder-IO/render"
	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

// PlatformDetails describes one registered platform for UI presentation,
// per spec.md §6.
type PlatformDetails struct {
	SIEMType        string
	Name            string
	GroupName       string
	PlatformName    string
	GroupID         string
	AltPlatformName string
	FirstChoice     int
}

// Platform bundles everything one dialect can contribute to the registry;
// any of the five capabilities may be nil when the dialect doesn't support
// it (e.g. a write-only rule wrapper has no QueryParser).
type Platform struct {
	Details PlatformDetails

	QueryRenderer *render.Renderer
	RuleRenderer  *render.Renderer
	QueryParser   *parser.Parser
	RuleParser    parser.RuleParsing
	CTIRenderer   cti.Renderer
}

// Registry is the immutable, built table of registered platforms.
type Registry struct {
	platforms map[string]Platform
	order     []string
}

// Builder accumulates platform registrations before Build freezes them.
type Builder struct {
	platforms map[string]Platform
	order     []string
}

func NewBuilder() *Builder {
	return &Builder{platforms: map[string]Platform{}}
}

// Register adds or replaces a platform's registration. Call order is
// preserved for EnumeratePlatforms.
func (b *Builder) Register(name string, p Platform) *Builder {
	if _, exists := b.platforms[name]; !exists {
		b.order = append(b.order, name)
	}
	b.platforms[name] = p
	return b
}

// Build freezes the accumulated registrations into an immutable Registry.
// This is the explicit boot-path step that replaces import-time
// registration side effects.
func (b *Builder) Build() *Registry {
	platforms := make(map[string]Platform, len(b.platforms))
	for k, v := range b.platforms {
		platforms[k] = v
	}
	order := make([]string, len(b.order))
	copy(order, b.order)
	return &Registry{platforms: platforms, order: order}
}

func (r *Registry) lookup(name string) (Platform, error) {
	p, ok := r.platforms[name]
	if !ok {
		return Platform{}, xerrors.UnsupportedPlatform(name)
	}
	return p, nil
}

// QueryRenderer returns the registered query renderer for name, or
// UnsupportedPlatform.
func (r *Registry) QueryRenderer(name string) (*render.Renderer, error) {
	p, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if p.QueryRenderer == nil {
		return nil, xerrors.UnsupportedPlatform(name)
	}
	return p.QueryRenderer, nil
}

// RuleRenderer returns the registered rule renderer for name, or
// UnsupportedPlatform.
func (r *Registry) RuleRenderer(name string) (*render.Renderer, error) {
	p, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if p.RuleRenderer == nil {
		return nil, xerrors.UnsupportedPlatform(name)
	}
	return p.RuleRenderer, nil
}

// QueryParser returns the registered bare-query parser for name, or
// UnsupportedPlatform.
func (r *Registry) QueryParser(name string) (*parser.Parser, error) {
	p, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if p.QueryParser == nil {
		return nil, xerrors.UnsupportedPlatform(name)
	}
	return p.QueryParser, nil
}

// RuleParser returns the registered rule-document parser for name, or
// UnsupportedPlatform.
func (r *Registry) RuleParser(name string) (parser.RuleParsing, error) {
	p, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if p.RuleParser == nil {
		return nil, xerrors.UnsupportedPlatform(name)
	}
	return p.RuleParser, nil
}

// CTIRenderer returns the registered CTI renderer for name, or
// UnsupportedPlatform.
func (r *Registry) CTIRenderer(name string) (cti.Renderer, error) {
	p, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if p.CTIRenderer == nil {
		return nil, xerrors.UnsupportedPlatform(name)
	}
	return p.CTIRenderer, nil
}

// EnumeratePlatforms returns every registered platform's descriptor, in
// registration order, for presentation in a UI platform list.
func (r *Registry) EnumeratePlatforms() []PlatformDetails {
	out := make([]PlatformDetails, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.platforms[name].Details)
	}
	return out
}
