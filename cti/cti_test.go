package cti

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClassifiesAndDeduplicates(t *testing.T) {
	text := "Beacon to 8.8.8.8 and evil.example.com, also 8.8.8.8 again. See https://evil.example.com/payload"
	iocs := Extract(text, Options{})

	var ips, domains, urls int
	for _, ioc := range iocs {
		switch ioc.Type {
		case IP:
			ips++
		case Domain:
			domains++
		case URL:
			urls++
		}
	}
	assert.Equal(t, 1, ips, "duplicate IP must be deduplicated")
	assert.GreaterOrEqual(t, domains, 1)
	assert.Equal(t, 1, urls)
}

func TestExtractRespectsIncludeIOCTypes(t *testing.T) {
	iocs := Extract("8.8.8.8 evil.example.com", Options{IncludeIOCTypes: []Type{IP}})
	require.Len(t, iocs, 1)
	assert.Equal(t, IP, iocs[0].Type)
}

func TestExtractRespectsExceptions(t *testing.T) {
	iocs := Extract("8.8.8.8 1.1.1.1", Options{Exceptions: []string{"8.8.8.8"}})
	require.Len(t, iocs, 1)
	assert.Equal(t, "1.1.1.1", iocs[0].Value)
}

func TestExtractTruncatesAtLimit(t *testing.T) {
	iocs := Extract("1.1.1.1 2.2.2.2 3.3.3.3", Options{Limit: 2})
	assert.Len(t, iocs, 2)
}

// TestChunkingLaw is spec.md §8's quantified property: flatten(chunks) ==
// values, and every chunk has size <= k.
func TestChunkingLaw(t *testing.T) {
	bucketed := map[string][]string{
		"src_ip": {"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4", "5.5.5.5"},
	}
	mapping := Mapping{"src_ip": {"src_ip"}}

	chunks := ChunkIOCs(bucketed, mapping, 2)

	var total int
	var flat []string
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 2)
		total += len(c)
		for _, cv := range c {
			flat = append(flat, cv.Value)
		}
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, bucketed["src_ip"], flat)
}

func TestChunkIOCsDropsUnmappedGenericFields(t *testing.T) {
	bucketed := map[string][]string{
		"src_ip":   {"1.1.1.1"},
		"registry_path": {`HKEY_LOCAL_MACHINE\Software\Foo`},
	}
	mapping := Mapping{"src_ip": {"src_ip"}}

	chunks := ChunkIOCs(bucketed, mapping, 25)
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0], 1)
	assert.Equal(t, "src_ip", chunks[0][0].GenericField)
}

// TestCTIEndToEndSplunkScenario mirrors spec.md §8 scenario 5.
func TestCTIEndToEndSplunkScenario(t *testing.T) {
	iocs := Extract("8.8.8.8 evil.example.com", Options{})
	bucketed := Bucket(iocs)

	mapping := Mapping{
		string(IP):     {"src_ip", "dest_ip"},
		string(Domain): {"query"},
	}
	chunks := ChunkIOCs(bucketed, mapping, DefaultIocsPerQuery)
	require.Len(t, chunks, 1)

	renderer := EqualityRenderer{FieldMapping: mapping, Template: `%FIELD%="%VALUE%"`, Join: " OR "}
	rendered := renderer.RenderChunk(chunks[0])

	assert.Contains(t, rendered, `(src_ip="8.8.8.8" OR dest_ip="8.8.8.8")`)
	assert.Contains(t, rendered, `query="evil.example.com"`)
}

func TestConverterConvertReturnsOneQueryPerChunk(t *testing.T) {
	c := NewConverter()
	renderer := EqualityRenderer{
		FieldMapping: Mapping{string(IP): {"src_ip"}},
		Template:     `%FIELD%="%VALUE%"`,
		Join:         " OR ",
	}
	env := c.Convert("1.1.1.1 2.2.2.2 3.3.3.3", renderer, 2, Options{})
	assert.True(t, env.Status)
	assert.Len(t, env.Results, 2)
}
