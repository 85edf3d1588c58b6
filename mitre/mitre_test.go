package mitre

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const sampleBundle = `{
  "objects": [
    {"type": "x-mitre-tactic", "name": "Execution", "x_mitre_shortname": "execution",
     "external_references": [{"source_name": "mitre-attack", "external_id": "TA0002", "url": "https://attack.mitre.org/tactics/TA0002/"}]},
    {"type": "x-mitre-tactic", "name": "Retired Tactic", "x_mitre_shortname": "retired", "revoked": true,
     "external_references": [{"source_name": "mitre-attack", "external_id": "TA9999"}]},
    {"type": "attack-pattern", "name": "Command and Scripting Interpreter",
     "external_references": [{"source_name": "mitre-attack", "external_id": "T1059", "url": "https://attack.mitre.org/techniques/T1059/"}],
     "kill_chain_phases": [{"kill_chain_name": "mitre-attack", "phase_name": "execution"}]},
    {"type": "attack-pattern", "name": "PowerShell", "x_mitre_is_subtechnique": true,
     "external_references": [{"source_name": "mitre-attack", "external_id": "T1059.001", "url": "https://attack.mitre.org/techniques/T1059/001/"}],
     "kill_chain_phases": [{"kill_chain_name": "mitre-attack", "phase_name": "execution"}]},
    {"type": "attack-pattern", "name": "Deprecated Technique", "x_mitre_deprecated": true,
     "external_references": [{"source_name": "mitre-attack", "external_id": "T0000"}]}
  ]
}`

func TestBuildTablesSkipsRevokedAndDeprecated(t *testing.T) {
	var bundle stixBundle
	require.NoError(t, json.Unmarshal([]byte(sampleBundle), &bundle))

	tables := buildTables(bundle)

	_, ok := tables.Tactics["retired"]
	assert.False(t, ok, "revoked tactics must never appear in the final table")

	_, ok = tables.Techniques["t0000"]
	assert.False(t, ok, "deprecated techniques must never appear in the final table")

	tactic, ok := tables.Tactics["execution"]
	require.True(t, ok)
	assert.Equal(t, "TA0002", tactic.ExternalID)

	technique, ok := tables.Techniques["t1059"]
	require.True(t, ok)
	assert.Equal(t, []string{"Execution"}, technique.Tactic)
}

func TestBuildTablesSubtechniqueInheritsParentTacticsAndName(t *testing.T) {
	var bundle stixBundle
	require.NoError(t, json.Unmarshal([]byte(sampleBundle), &bundle))

	tables := buildTables(bundle)

	sub, ok := tables.Techniques["t1059.001"]
	require.True(t, ok)
	assert.Equal(t, "Command and Scripting Interpreter : PowerShell", sub.Technique)
	assert.Equal(t, []string{"Execution"}, sub.Tactic)
}

func TestEnrichTagsResolvesTechniquesAndTactics(t *testing.T) {
	var bundle stixBundle
	require.NoError(t, json.Unmarshal([]byte(sampleBundle), &bundle))
	tables := buildTables(bundle)

	c := New(WithLogger(logrus.New()))
	c.snapshot.Store(tables)

	out := c.EnrichTags(context.Background(), []string{"attack.t1059.001", "attack.execution", "attack.unknown_tag"})
	assert.ElementsMatch(t, []string{"T1059.001"}, out["Execution"])
}

func TestRefreshFallsBackToLocalOnRemoteFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c := New(
		WithConfigURL(srv.URL),
		WithLocalDir("../dictionaries"),
		WithLogger(logger),
	)

	err := c.Refresh(context.Background())
	require.NoError(t, err, "remote failure must degrade silently to the local fallback, not abort")

	technique, ok := c.GetTechnique(context.Background(), "T1059.003")
	require.True(t, ok)
	assert.Contains(t, technique.Technique, "Windows Command Shell")
}

func TestGetTacticLooksUpByDisplayName(t *testing.T) {
	var bundle stixBundle
	require.NoError(t, json.Unmarshal([]byte(sampleBundle), &bundle))
	c := New()
	c.snapshot.Store(buildTables(bundle))

	_, ok := c.GetTactic(context.Background(), "Execution")
	assert.True(t, ok)
}
