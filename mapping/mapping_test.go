package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltar-ua/Uncoder-IO/ir"
)

func buildCatalog() *Catalog {
	c := NewCatalog()
	c.Register(NewSourceMapping(DefaultMappingName, LogSource{}, map[string]string{}, ""))
	c.Register(NewSourceMapping("windows", LogSource{"product": "windows"}, map[string]string{
		"EventID": "EventCode",
	}, `source="WinEventLog:*"`))
	c.Register(NewSourceMapping("windows_process_creation", LogSource{"product": "windows", "category": "process_creation"}, map[string]string{
		"EventID":     "EventCode",
		"CommandLine": "CommandLine",
	}, `source="WinEventLog:Security"`))
	return c
}

func TestGetSuitableSourceMappingsMostSpecificFirstDefaultLast(t *testing.T) {
	c := buildCatalog()
	matches := c.GetSuitableSourceMappings(LogSource{"product": "windows", "category": "process_creation"})

	require.Len(t, matches, 3)
	assert.Equal(t, "windows_process_creation", matches[0].SourceID)
	assert.Equal(t, "windows", matches[1].SourceID)
	assert.Equal(t, DefaultMappingName, matches[2].SourceID)
}

func TestGetSuitableSourceMappingsFallsBackToDefaultOnly(t *testing.T) {
	c := buildCatalog()
	matches := c.GetSuitableSourceMappings(LogSource{"product": "linux"})
	require.Len(t, matches, 1)
	assert.Equal(t, DefaultMappingName, matches[0].SourceID)
}

func TestSourceMappingGenericNameInverseLookup(t *testing.T) {
	sm := NewSourceMapping("windows", LogSource{}, map[string]string{"EventID": "EventCode"}, "")
	name, ok := sm.GenericName("EventCode")
	require.True(t, ok)
	assert.Equal(t, "EventID", name)

	_, ok = sm.GenericName("Unknown")
	assert.False(t, ok)
}

// TestFieldMappingCoverage is spec.md §8's "field mapping coverage"
// invariant: after resolution, every Field has GenericNamesMap populated
// for every candidate SourceMapping.
func TestFieldMappingCoverage(t *testing.T) {
	c := buildCatalog()
	candidates := c.GetSuitableSourceMappings(LogSource{"product": "windows"})

	mapped := ir.NewField("EventCode")
	unmapped := ir.NewField("SomeVendorField")
	SetFieldGenericNames([]*ir.Field{mapped, unmapped}, candidates)

	for _, sm := range candidates {
		_, ok := mapped.GenericNamesMap[sm.SourceID]
		assert.True(t, ok, "every candidate mapping must have an entry, even a fallback one")
	}
	assert.False(t, mapped.Unmapped)
	assert.True(t, unmapped.Unmapped)
}
