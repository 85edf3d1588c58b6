package cti

import "sort"

// ChunkValue is one IOC slot after field mapping — ir.IocsChunkValue of
// spec.md §3. PlatformFields holds every target field this generic field
// maps to: most IOC types map one-to-one, but a platform's CTI mapping can
// map an IP IOC to both a source- and destination-IP field (e.g.
// splunk.CTIMapping(true)), per the "src_ip=... OR dest_ip=..." grouping in
// spec.md §8 scenario 5.
type ChunkValue struct {
	GenericField   string
	PlatformFields []string
	Value          string
}

// DefaultIocsPerQuery is CTI_IOCS_PER_QUERY_LIMIT from spec.md §6.
const DefaultIocsPerQuery = 25

// Mapping maps generic IOC field names to one platform's query field
// name(s). Generic fields absent from the mapping are dropped, per spec.md
// §4.9 step 3.
type Mapping map[string][]string

// ChunkIOCs maps a {generic_field: [value,...]} bucket map through mapping
// into ChunkValue records, dropping unmapped generic fields, then splits the
// resulting flat stream into chunks of at most chunkSize records (spec.md
// §4.9 steps 3-4, the "CTI chunking law" tested property: flatten(chunks)
// == values and every chunk has len <= chunkSize). Generic fields are
// visited in sorted order — map iteration order is randomized per run, and
// without a fixed order here both the within-chunk rendering order and, once
// the IOC count exceeds chunkSize, chunk membership itself would vary from
// run to run.
func ChunkIOCs(bucketed map[string][]string, mapping Mapping, chunkSize int) [][]ChunkValue {
	if chunkSize <= 0 {
		chunkSize = DefaultIocsPerQuery
	}

	genericFields := make([]string, 0, len(bucketed))
	for genericField := range bucketed {
		genericFields = append(genericFields, genericField)
	}
	sort.Strings(genericFields)

	var flat []ChunkValue
	for _, genericField := range genericFields {
		platformFields, ok := mapping[genericField]
		if !ok || len(platformFields) == 0 {
			continue
		}
		for _, v := range bucketed[genericField] {
			flat = append(flat, ChunkValue{GenericField: genericField, PlatformFields: platformFields, Value: v})
		}
	}

	var chunks [][]ChunkValue
	for i := 0; i < len(flat); i += chunkSize {
		end := i + chunkSize
		if end > len(flat) {
			end = len(flat)
		}
		chunks = append(chunks, flat[i:end])
	}
	return chunks
}
