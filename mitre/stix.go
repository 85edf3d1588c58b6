package mitre

import "strings"

// stixBundle is the minimal shape of the MITRE ATT&CK STIX 2.1 bundle this
// package cares about: a flat list of typed objects.
type stixBundle struct {
	Objects []stixObject `json:"objects"`
}

type stixObject struct {
	Type                 string           `json:"type"`
	Name                 string           `json:"name"`
	Revoked              bool             `json:"revoked"`
	Deprecated           bool             `json:"x_mitre_deprecated"`
	IsSubtechnique       bool             `json:"x_mitre_is_subtechnique"`
	ShortName            string           `json:"x_mitre_shortname"`
	ExternalReferences   []stixExternalRef `json:"external_references"`
	KillChainPhases      []stixKillChain  `json:"kill_chain_phases"`
}

type stixExternalRef struct {
	SourceName string `json:"source_name"`
	ExternalID string `json:"external_id"`
	URL        string `json:"url"`
}

type stixKillChain struct {
	KillChainName string `json:"kill_chain_name"`
	PhaseName     string `json:"phase_name"`
}

func revokedOrDeprecated(o stixObject) bool { return o.Revoked || o.Deprecated }

// buildTables runs the three passes of the original MitreConfig.update_mitre_config:
// tactics, then top-level techniques, then sub-techniques (which need the
// first two passes' output to resolve their parent technique/tactics).
func buildTables(bundle stixBundle) *tables {
	tacticShortNameToName := map[string]string{}
	tactics := map[string]Tactic{}
	technique := map[string]string{} // external_id -> name, top-level only

	for _, entry := range bundle.Objects {
		if entry.Type != "x-mitre-tactic" || revokedOrDeprecated(entry) {
			continue
		}
		for _, ref := range entry.ExternalReferences {
			if ref.SourceName != mitreAttackSource {
				continue
			}
			tacticShortNameToName[entry.ShortName] = entry.Name
			key := strings.ToLower(strings.ReplaceAll(entry.Name, " ", "_"))
			tactics[key] = Tactic{ExternalID: ref.ExternalID, URL: ref.URL, Tactic: entry.Name}
			break
		}
	}

	techniques := map[string]Technique{}

	for _, entry := range bundle.Objects {
		if entry.Type != "attack-pattern" || revokedOrDeprecated(entry) || entry.IsSubtechnique {
			continue
		}
		for _, ref := range entry.ExternalReferences {
			if ref.SourceName != mitreAttackSource {
				continue
			}
			technique[ref.ExternalID] = entry.Name
			var subTactics []string
			for _, kc := range entry.KillChainPhases {
				if kc.KillChainName != mitreAttackSource {
					continue
				}
				if name, ok := tacticShortNameToName[kc.PhaseName]; ok {
					subTactics = append(subTactics, name)
				}
			}
			techniques[strings.ToLower(ref.ExternalID)] = Technique{
				TechniqueID: ref.ExternalID,
				Technique:   entry.Name,
				URL:         ref.URL,
				Tactic:      subTactics,
			}
			break
		}
	}

	for _, entry := range bundle.Objects {
		if entry.Type != "attack-pattern" || revokedOrDeprecated(entry) || !entry.IsSubtechnique {
			continue
		}
		for _, ref := range entry.ExternalReferences {
			if ref.SourceName != mitreAttackSource {
				continue
			}
			parentID := strings.Split(ref.ExternalID, ".")[0]
			parentName := technique[parentID]
			parentTactics := techniques[strings.ToLower(parentID)].Tactic
			name := entry.Name
			if parentName != "" {
				name = parentName + " : " + entry.Name
			}
			techniques[strings.ToLower(ref.ExternalID)] = Technique{
				TechniqueID: ref.ExternalID,
				Technique:   name,
				URL:         ref.URL,
				Tactic:      parentTactics,
			}
			break
		}
	}

	return &tables{Tactics: tactics, Techniques: techniques}
}
