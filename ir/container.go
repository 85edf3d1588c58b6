package ir

import (
	"fmt"
	"strings"

	"github.com/minio/highwayhash"
)

// fingerprintKey is a fixed 32-byte HighwayHash key. The fingerprint only
// needs to be stable within one process's lifetime (it keys a parse-result
// cache and a log-correlation field), not cryptographically secret, so a
// fixed key is adequate — the same tradeoff the teacher's graph.Hash makes.
var fingerprintKey = []byte("UNCODERIO-FINGERPRINT-KEY-0123AB")

// LogSource is the log-source signature extracted from a query/rule during
// parsing (product/service/category/index, ...). It is the mapping
// package's own LogSource type under another name: ir can't import mapping
// (mapping already imports ir), so the renderer re-imports mapping and
// converts this value back with mapping.LogSource(c.LogSource) to resolve
// the *target* dialect's SourceMapping at render time, instead of keying
// the target catalog by the source catalog's mapping ids.
type LogSource map[string]any

// SiemContainer is the translation unit: the parsed IR query tree, its
// rule-level metadata, its pipeline functions, and the log-source signature
// extracted from the source text (spec.md §3).
type SiemContainer struct {
	Query     []Token
	MetaInfo  *MetaInfoContainer
	Functions ParsedFunctions
	LogSource LogSource
}

func NewSiemContainer(query []Token, meta *MetaInfoContainer, functions ParsedFunctions, logSource LogSource) *SiemContainer {
	return &SiemContainer{Query: query, MetaInfo: meta, Functions: functions, LogSource: logSource}
}

// Fingerprint returns a stable content hash of the parsed query tree, used
// as a cache key and as a log-correlation field so two requests that parsed
// to the same IR can be recognized without re-rendering either.
func (c *SiemContainer) Fingerprint() (uint64, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	var b strings.Builder
	writeTokens(&b, c.Query)
	if _, err := hash.Write([]byte(b.String())); err != nil {
		return 0, err
	}
	return hash.Sum64(), nil
}

func writeTokens(b *strings.Builder, tokens []Token) {
	for _, t := range tokens {
		switch v := t.(type) {
		case *Identifier:
			fmt.Fprintf(b, "I(%s)", v.TokenType)
		case *Keyword:
			fmt.Fprintf(b, "K(%s)", v.Value)
		case *FieldValue:
			fmt.Fprintf(b, "F(%s,%s,%v)", v.Field.SourceName, v.Operator.TokenType, v.Value)
		}
	}
}
