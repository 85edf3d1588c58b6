// Package translate implements the top-level Service: the single
// public entrypoint that resolves a source/target platform pair against the
// Manager Registry (C10) and drives Parser -> Renderer (or RuleParser ->
// Renderer, or the CTI pipeline) for one request.
package translate

import (
	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/dialects/athena"
	"github.com/saltar-ua/Uncoder-IO/dialects/chronicle"
	"github.com/saltar-ua/Uncoder-IO/dialects/crowdstrike"
	"github.com/saltar-ua/Uncoder-IO/dialects/defender"
	"github.com/saltar-ua/Uncoder-IO/dialects/fortisiem"
	"github.com/saltar-ua/Uncoder-IO/dialects/graylog"
	"github.com/saltar-ua/Uncoder-IO/dialects/logscale"
	"github.com/saltar-ua/Uncoder-IO/dialects/lucene"
	"github.com/saltar-ua/Uncoder-IO/dialects/qradar"
	"github.com/saltar-ua/Uncoder-IO/dialects/sentinel"
	"github.com/saltar-ua/Uncoder-IO/dialects/sigma"
	"github.com/saltar-ua/Uncoder-IO/dialects/splunk"
	"github.com/saltar-ua/Uncoder-IO/mapping"
	"github.com/saltar-ua/Uncoder-IO/parser"
	"github.com/saltar-ua/Uncoder-IO/registry"
)

// BuildRegistry assembles every dialect's catalog, parser, renderer and CTI
// renderer and freezes them into an immutable Registry via the explicit
// Builder.Build boot step (spec.md's "Implicit global registries" REDESIGN
// FLAG) — this replaces the original's import-time platform registration.
func BuildRegistry() *registry.Registry {
	b := registry.NewBuilder()

	splunkCatalog := mapping.NewCatalog()
	splunkCatalog.Register(splunk.DefaultMapping())
	splunkCatalog.Register(splunk.WindowsMapping())
	splunkParser, splunkRenderer := splunk.Build(splunkCatalog)
	splunkAlertParser := parser.NewRuleParser(splunkParser, splunk.AlertRuleLoader{}, splunk.BuildMeta)
	b.Register(splunk.SourceID, registry.Platform{
		Details:       registry.PlatformDetails{SIEMType: "siem", Name: "Splunk", PlatformName: "Splunk Search Processing Language", GroupName: "Splunk"},
		QueryParser:   splunkParser,
		QueryRenderer: splunkRenderer,
		RuleRenderer:  splunkRenderer,
		RuleParser:    splunkAlertParser,
		CTIRenderer:   splunk.CTIRenderer(true),
	})

	sentinelCatalog := mapping.NewCatalog()
	sentinelCatalog.Register(sentinel.DefaultMapping())
	sentinelCatalog.Register(sentinel.SecurityEventMapping())
	sentinelParser, sentinelRenderer := sentinel.Build(sentinelCatalog)
	sentinelRuleParser := parser.NewRuleParser(sentinelParser, sentinel.RuleLoader, sentinel.BuildMeta)
	b.Register(sentinel.SourceID, registry.Platform{
		Details:       registry.PlatformDetails{SIEMType: "siem", Name: "Microsoft Sentinel", PlatformName: "Kusto Query Language", GroupName: "Microsoft"},
		QueryParser:   sentinelParser,
		QueryRenderer: sentinelRenderer,
		RuleRenderer:  sentinelRenderer,
		RuleParser:    sentinelRuleParser,
		CTIRenderer:   sentinel.CTIRenderer(),
	})

	defenderCatalog := mapping.NewCatalog()
	defenderCatalog.Register(defender.DefaultMapping())
	defenderCatalog.Register(defender.DeviceProcessMapping())
	defenderParser, defenderRenderer := defender.Build(defenderCatalog)
	defenderRuleParser := parser.NewRuleParser(defenderParser, defender.RuleLoader, defender.BuildMeta)
	b.Register(defender.SourceID, registry.Platform{
		Details:       registry.PlatformDetails{SIEMType: "edr", Name: "Microsoft Defender", PlatformName: "Kusto Query Language", GroupName: "Microsoft"},
		QueryParser:   defenderParser,
		QueryRenderer: defenderRenderer,
		RuleRenderer:  defenderRenderer,
		RuleParser:    defenderRuleParser,
		CTIRenderer:   defender.CTIRenderer(),
	})

	qradarCatalog := mapping.NewCatalog()
	qradarCatalog.Register(qradar.DefaultMapping())
	qradarCatalog.Register(qradar.WindowsMapping())
	qradarParser, qradarRenderer := qradar.Build(qradarCatalog)
	b.Register(qradar.SourceID, registry.Platform{
		Details:       registry.PlatformDetails{SIEMType: "siem", Name: "IBM QRadar", PlatformName: "Ariel Query Language", GroupName: "IBM"},
		QueryParser:   qradarParser,
		QueryRenderer: qradarRenderer,
		CTIRenderer:   qradar.CTIRenderer(),
	})

	chronicleCatalog := mapping.NewCatalog()
	chronicleCatalog.Register(chronicle.DefaultMapping())
	chronicleCatalog.Register(chronicle.ProcessMapping())
	chronicleParser, chronicleRenderer := chronicle.Build(chronicleCatalog)
	chronicleRuleParser := parser.NewRuleParser(chronicleParser, chronicle.RuleLoader{}, chronicle.BuildMeta)
	b.Register(chronicle.SourceID, registry.Platform{
		Details:       registry.PlatformDetails{SIEMType: "siem", Name: "Chronicle", PlatformName: "Unified Data Model", GroupName: "Google"},
		QueryParser:   chronicleParser,
		QueryRenderer: chronicleRenderer,
		RuleRenderer:  chronicleRenderer,
		RuleParser:    chronicleRuleParser,
		CTIRenderer:   chronicle.CTIRenderer(),
	})

	luceneCatalog := mapping.NewCatalog()
	luceneCatalog.Register(lucene.DefaultMapping())
	luceneCatalog.Register(lucene.WindowsMapping())
	luceneParser, luceneRenderer := lucene.Build(luceneCatalog)
	detectionRuleParser := parser.NewRuleParser(luceneParser, lucene.DetectionRuleLoader, lucene.RulesBuildMeta)
	kibanaRuleParser := parser.NewRuleParser(luceneParser, lucene.KibanaRuleLoader{}, lucene.BuildMeta)
	elastAlertRuleParser := parser.NewRuleParser(luceneParser, lucene.ElastAlertRuleLoader{}, lucene.RulesBuildMeta)
	watcherRuleParser := parser.NewRuleParser(luceneParser, lucene.XPackWatcherRuleLoader{}, lucene.RulesBuildMeta)
	b.Register(lucene.SourceID, registry.Platform{
		Details:       registry.PlatformDetails{SIEMType: "siem", Name: "Elasticsearch", PlatformName: "Lucene Query String", GroupName: "Elastic"},
		QueryParser:   luceneParser,
		QueryRenderer: luceneRenderer,
		RuleRenderer:  luceneRenderer,
		RuleParser:    detectionRuleParser,
		CTIRenderer:   lucene.CTIRenderer(),
	})
	b.Register("kibana", registry.Platform{
		Details:      registry.PlatformDetails{SIEMType: "siem", Name: "Kibana", PlatformName: "Lucene Query String", GroupName: "Elastic"},
		RuleRenderer: luceneRenderer,
		RuleParser:   kibanaRuleParser,
	})
	b.Register("elastalert", registry.Platform{
		Details:      registry.PlatformDetails{SIEMType: "siem", Name: "ElastAlert", PlatformName: "Lucene Query String", GroupName: "Elastic"},
		RuleRenderer: luceneRenderer,
		RuleParser:   elastAlertRuleParser,
	})
	b.Register("xpack_watcher", registry.Platform{
		Details:      registry.PlatformDetails{SIEMType: "siem", Name: "XPack Watcher", PlatformName: "Lucene Query String", GroupName: "Elastic"},
		RuleRenderer: luceneRenderer,
		RuleParser:   watcherRuleParser,
	})

	graylogCatalog := mapping.NewCatalog()
	graylogCatalog.Register(graylog.DefaultMapping())
	graylogCatalog.Register(graylog.WindowsMapping())
	graylogParser, graylogRenderer := graylog.Build(graylogCatalog)
	b.Register(graylog.SourceID, registry.Platform{
		Details:       registry.PlatformDetails{SIEMType: "siem", Name: "Graylog", PlatformName: "Lucene Query String", GroupName: "Graylog"},
		QueryParser:   graylogParser,
		QueryRenderer: graylogRenderer,
		CTIRenderer:   graylog.CTIRenderer(),
	})

	athenaCatalog := mapping.NewCatalog()
	athenaCatalog.Register(athena.DefaultMapping())
	athenaCatalog.Register(athena.CloudTrailMapping())
	athenaParser, athenaRenderer := athena.Build(athenaCatalog)
	b.Register(athena.SourceID, registry.Platform{
		Details:       registry.PlatformDetails{SIEMType: "siem", Name: "AWS Athena", PlatformName: "Presto SQL", GroupName: "AWS"},
		QueryParser:   athenaParser,
		QueryRenderer: athenaRenderer,
		CTIRenderer:   athena.CTIRenderer(),
	})

	crowdstrikeCatalog := mapping.NewCatalog()
	crowdstrikeCatalog.Register(crowdstrike.DefaultMapping())
	crowdstrikeCatalog.Register(crowdstrike.ProcessMapping())
	b.Register(crowdstrike.SourceID, registry.Platform{
		Details:       registry.PlatformDetails{SIEMType: "edr", Name: "CrowdStrike", PlatformName: "Event Search", GroupName: "CrowdStrike"},
		QueryRenderer: crowdstrike.Build(crowdstrikeCatalog),
		CTIRenderer:   crowdstrike.CTIRenderer(),
	})

	logscaleCatalog := mapping.NewCatalog()
	logscaleCatalog.Register(logscale.DefaultMapping())
	logscaleCatalog.Register(logscale.ProcessMapping())
	b.Register(logscale.SourceID, registry.Platform{
		Details: registry.PlatformDetails{SIEMType: "siem", Name: "LogScale", PlatformName: "LogScale Query Language", GroupName: "CrowdStrike"},
		// LogScale has no public query-pull grammar to tokenize back into
		// IR, so it carries only a render target (QueryRenderer) and the
		// RuleRenderer half of the alert wrapper (logscale.RenderAlert
		// composes the rendered query with render.DescribeRule); there is
		// no RuleParser/QueryParser entry.
		QueryRenderer: logscale.Build(logscaleCatalog),
		RuleRenderer:  logscale.Build(logscaleCatalog),
		CTIRenderer:   logscale.CTIRenderer(),
	})

	sigmaCatalog := mapping.NewCatalog()
	sigmaCatalog.Register(sigma.IdentityMapping())
	b.Register(sigma.SourceID, registry.Platform{
		Details:    registry.PlatformDetails{SIEMType: "rule", Name: "Sigma", PlatformName: "Sigma Rule", GroupName: "SigmaHQ"},
		RuleParser: sigma.NewParser(sigmaCatalog),
	})

	fortisiemCatalog := mapping.NewCatalog()
	fortisiemCatalog.Register(fortisiem.DefaultMapping())
	fortisiemQueryParser := fortisiem.QueryParser(fortisiemCatalog)
	b.Register(fortisiem.SourceID, registry.Platform{
		Details:    registry.PlatformDetails{SIEMType: "siem", Name: "FortiSIEM", PlatformName: "Report XML", GroupName: "Fortinet"},
		RuleParser: parser.NewRuleParser(fortisiemQueryParser, fortisiem.RuleLoader{}, fortisiem.BuildMeta),
	})

	return b.Build()
}

// CTIFieldMapping re-exports the per-platform CTI mapping builders so
// callers of ConvertCTI can inspect which generic fields a platform
// supports without constructing a full renderer.
func CTIFieldMapping(platform string) (cti.Mapping, bool) {
	switch platform {
	case splunk.SourceID:
		return splunk.CTIMapping(true), true
	case sentinel.SourceID:
		return sentinel.CTIMapping(), true
	case defender.SourceID:
		return defender.CTIMapping(), true
	case qradar.SourceID:
		return qradar.CTIMapping(), true
	case chronicle.SourceID:
		return chronicle.CTIMapping(), true
	case lucene.SourceID:
		return lucene.CTIMapping(), true
	case graylog.SourceID:
		return graylog.CTIMapping(), true
	case athena.SourceID:
		return athena.CTIMapping(), true
	case crowdstrike.SourceID:
		return crowdstrike.CTIMapping(), true
	case logscale.SourceID:
		return logscale.CTIMapping(), true
	default:
		return nil, false
	}
}
