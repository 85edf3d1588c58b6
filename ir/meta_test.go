package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewMetaInfoDefaults(t *testing.T) {
	oldUUID, oldNow := uuidFunc, nowFunc
	defer func() { uuidFunc, nowFunc = oldUUID, oldNow }()

	uuidFunc = func() string { return "11111111-1111-1111-1111-111111111111" }
	nowFunc = func() time.Time { return time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC) }

	m := NewMetaInfo("splunk_windows")

	assert.Equal(t, "11111111-1111-1111-1111-111111111111", m.ID)
	assert.Equal(t, "2026-07-30", m.Date)
	assert.Equal(t, DefaultLicense, m.License)
	assert.Equal(t, SeverityLow, m.Severity)
	assert.Equal(t, DefaultStatus, m.Status)
	assert.Equal(t, []string{"splunk_windows"}, m.SourceMappingIDs)
}

func TestNewMetaInfoOptionsOverrideDefaults(t *testing.T) {
	m := NewMetaInfo("default",
		WithTitle("Suspicious PowerShell"),
		WithSeverity(SeverityCritical),
		WithTags([]string{"attack.execution"}),
		WithMitreAttack(map[string][]string{"execution": {"T1059.001"}}),
	)

	assert.Equal(t, "Suspicious PowerShell", m.Title)
	assert.Equal(t, SeverityCritical, m.Severity)
	assert.Equal(t, []string{"attack.execution"}, m.Tags)
	assert.Equal(t, []string{"T1059.001"}, m.MitreAttack["execution"])
}
