package render

import (
	"fmt"
	"strings"

	"github.com/saltar-ua/Uncoder-IO/ir"
)

// DescribeRule composes a free-text description from rule metadata, used by
// rule dialects that carry the description as a single prose string rather
// than structured fields (here: LogScale alert rendering). Ported
// from original_source/translator/app/translator/tools/utils.py's
// get_rule_description_str family.
func DescribeRule(meta *ir.MetaInfoContainer) string {
	description := meta.Description
	if description != "" && !strings.HasSuffix(description, ".") {
		description += "."
	}

	var b strings.Builder
	b.WriteString(description)

	appendSentence := func(s string) {
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s)
	}

	if meta.Author != "" {
		appendSentence(fmt.Sprintf("Author: %s.", meta.Author))
	}
	if meta.ID != "" {
		appendSentence(fmt.Sprintf("Rule ID: %s.", meta.ID))
	}
	if meta.License != "" {
		license := meta.License
		if !strings.HasSuffix(license, ".") {
			license += "."
		}
		appendSentence(fmt.Sprintf("License: %s", license))
	}
	if techniques := flattenTechniques(meta.MitreAttack); len(techniques) > 0 {
		appendSentence(fmt.Sprintf("MITRE ATT&CK: %s.", strings.ToUpper(strings.Join(techniques, ", "))))
	}
	if len(meta.References) > 0 {
		appendSentence(fmt.Sprintf("References: %s.", strings.Join(meta.References, ", ")))
	}
	return b.String()
}

func flattenTechniques(mitreAttack map[string][]string) []string {
	var out []string
	for _, techniques := range mitreAttack {
		out = append(out, techniques...)
	}
	return out
}
