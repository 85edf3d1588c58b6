package translate

import (
	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/mitre"
	"github.com/saltar-ua/Uncoder-IO/registry"
	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

// Service is the single public entrypoint: it resolves a source/target
// platform pair against the Registry and drives the parse -> render
// pipeline for one request, or the CTI extract -> chunk -> render pipeline.
// Every method returns an Envelope/MultiEnvelope rather than a raw error,
// per spec.md §6/§7's "handle_translation_exceptions" boundary contract.
type Service struct {
	registry *registry.Registry
	mitre    *mitre.Catalog
}

// New builds a Service against a Registry assembled by BuildRegistry.
func New(reg *registry.Registry, catalog *mitre.Catalog) *Service {
	return &Service{registry: reg, mitre: catalog}
}

// Translate parses text as sourcePlatform's query dialect and renders it in
// targetPlatform's dialect.
func (s *Service) Translate(sourcePlatform, targetPlatform, text string) xerrors.Envelope {
	return xerrors.Handle(func() (string, []xerrors.Diagnostic, error) {
		p, err := s.registry.QueryParser(sourcePlatform)
		if err != nil {
			return "", nil, err
		}
		r, err := s.registry.QueryRenderer(targetPlatform)
		if err != nil {
			return "", nil, err
		}
		container, err := p.Parse(text)
		if err != nil {
			return "", nil, err
		}
		return r.Render(container)
	})
}

// TranslateRule parses a rule document (Sigma YAML, Sentinel/Elastic/Kibana
// JSON, ElastAlert YAML, FortiSIEM report XML, Chronicle
// YARA-L) and renders its query in targetPlatform's dialect.
func (s *Service) TranslateRule(sourcePlatform, targetPlatform, text string) xerrors.Envelope {
	return xerrors.Handle(func() (string, []xerrors.Diagnostic, error) {
		rp, err := s.registry.RuleParser(sourcePlatform)
		if err != nil {
			return "", nil, err
		}
		r, err := s.registry.QueryRenderer(targetPlatform)
		if err != nil {
			return "", nil, err
		}
		container, err := rp.ParseRule(text)
		if err != nil {
			return "", nil, err
		}
		return r.Render(container)
	})
}

// ConvertCTI runs the CTI pipeline (C9): extract IOCs from free text,
// bucket by generic type, chunk to cti.DefaultIocsPerQuery IOCs per query, and
// render each chunk with targetPlatform's CTI renderer.
func (s *Service) ConvertCTI(targetPlatform, text string, opts cti.Options) xerrors.MultiEnvelope {
	return xerrors.HandleMulti(func() ([]string, []xerrors.Diagnostic, error) {
		renderer, err := s.registry.CTIRenderer(targetPlatform)
		if err != nil {
			return nil, nil, err
		}
		converter := cti.NewConverter()
		env := converter.Convert(text, renderer, cti.DefaultIocsPerQuery, opts)
		if !env.Status {
			return nil, env.Diagnostics, xerrors.TokenizerGeneral(env.Error, "")
		}
		return env.Results, env.Diagnostics, nil
	})
}

// EnumeratePlatforms lists every registered platform descriptor, for a UI
// platform-picker.
func (s *Service) EnumeratePlatforms() []registry.PlatformDetails {
	return s.registry.EnumeratePlatforms()
}
