package cti

// Options controls IOC extraction, mirroring cti_translator.py's
// CTIConverter.convert keyword arguments. Whether an extracted IP IOC also
// targets a source-IP field (vs. destination-IP only) is a per-platform CTI
// mapping choice (e.g. splunk.CTIMapping's includeSourceIP), not an
// extraction-time one, so it has no counterpart here.
type Options struct {
	IncludeIOCTypes  []Type // empty means all types
	IncludeHashTypes []Type // empty means all hash types
	Exceptions       []string // deny-listed literal values
	Limit            int      // 0 means DefaultLimit
}

// DefaultLimit is CTI_MIN_LIMIT_QUERY from spec.md §6.
const DefaultLimit = 10_000

type span struct{ start, end int }

func overlaps(a, b span) bool { return a.start < b.end && b.start < a.end }

// Extract regex-scans text for candidate IOCs, classifies them, deduplicates
// while preserving first-seen order, applies the include/exclude filters,
// and truncates at the effective limit (spec.md §4.9 step 1).
func Extract(text string, opts Options) []IOC {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	allow := typeSet(opts.IncludeIOCTypes)
	hashAllow := typeSet(opts.IncludeHashTypes)
	deny := stringSet(opts.Exceptions)

	var claimed []span
	seen := map[IOC]bool{}
	var out []IOC

	for _, p := range patterns {
		if len(allow) > 0 && !allow[p.typ] {
			continue
		}
		if isHashType(p.typ) && len(hashAllow) > 0 && !hashAllow[p.typ] {
			continue
		}

		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			s := span{loc[0], loc[1]}
			claimedHere := false
			for _, c := range claimed {
				if overlaps(s, c) {
					claimedHere = true
					break
				}
			}
			if claimedHere {
				continue
			}
			value := text[loc[0]:loc[1]]
			if deny[value] {
				continue
			}
			ioc := IOC{Type: p.typ, Value: value}
			if seen[ioc] {
				continue
			}
			claimed = append(claimed, s)
			seen[ioc] = true
			out = append(out, ioc)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

func isHashType(t Type) bool {
	for _, h := range HashTypes {
		if h == t {
			return true
		}
	}
	return false
}

func typeSet(types []Type) map[Type]bool {
	if len(types) == 0 {
		return nil
	}
	m := make(map[Type]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

func stringSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// Bucket groups extracted IOCs into a {generic_field: [value, ...]} map,
// spec.md §4.9 step 2.
func Bucket(iocs []IOC) map[string][]string {
	out := map[string][]string{}
	for _, ioc := range iocs {
		key := string(ioc.Type)
		out[key] = append(out[key], ioc.Value)
	}
	return out
}
