package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltar-ua/Uncoder-IO/cti"
	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

const sigmaRule = `
title: Suspicious Process Creation
id: 11111111-1111-1111-1111-111111111111
status: stable
logsource:
  product: windows
  category: process_creation
detection:
  selection:
    EventID: 4688
  condition: selection
`

// TestTranslateRuleSigmaToSplunk is spec.md §8 scenario 1: Sigma EventID ->
// Splunk EventCode under a WinEventLog sourcetype.
func TestTranslateRuleSigmaToSplunk(t *testing.T) {
	svc := New(BuildRegistry(), nil)

	env := svc.TranslateRule("sigma", "splunk", sigmaRule)
	require.True(t, env.Status, env.Error)
	assert.Equal(t, `source="WinEventLog:*" EventCode=4688`, env.Result)
}

// TestTranslateSentinelInToLucene is spec.md §8 scenario 4: KQL's `in (...)`
// multi-value operator has no native IN syntax in Lucene, so it renders as
// an OR-disjunction.
func TestTranslateSentinelInToLucene(t *testing.T) {
	svc := New(BuildRegistry(), nil)

	env := svc.Translate("microsoft_sentinel", "elasticsearch", `EventID in (4624, 4625)`)
	require.True(t, env.Status, env.Error)
	assert.Equal(t, `(EventID:4624 OR EventID:4625)`, env.Result)
}

// TestTranslateUnbalancedParenthesesReportsQueryParentheses is spec.md §8
// scenario 6.
func TestTranslateUnbalancedParenthesesReportsQueryParentheses(t *testing.T) {
	svc := New(BuildRegistry(), nil)

	env := svc.Translate("splunk", "splunk", `(EventID=4688 AND User=admin`)
	require.False(t, env.Status)
	assert.Contains(t, env.Error, string(xerrors.KindQueryParentheses))
}

func TestTranslateUnknownPlatformReportsUnsupportedPlatform(t *testing.T) {
	svc := New(BuildRegistry(), nil)

	env := svc.Translate("splunk", "not_a_real_platform", `EventID=4688`)
	require.False(t, env.Status)
	assert.Contains(t, env.Error, string(xerrors.KindUnsupportedPlatform))
}

func TestConvertCTISplunkScenario(t *testing.T) {
	svc := New(BuildRegistry(), nil)

	env := svc.ConvertCTI("splunk", "8.8.8.8 evil.example.com", cti.Options{})
	require.True(t, env.Status, env.Error)
	require.Len(t, env.Results, 1)
	assert.Contains(t, env.Results[0], `src_ip="8.8.8.8"`)
	assert.Contains(t, env.Results[0], `query="evil.example.com"`)
}

func TestEnumeratePlatformsListsRegisteredPlatforms(t *testing.T) {
	svc := New(BuildRegistry(), nil)
	details := svc.EnumeratePlatforms()
	assert.NotEmpty(t, details)

	var names []string
	for _, d := range details {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "Splunk")
	assert.Contains(t, names, "Sigma")
}
