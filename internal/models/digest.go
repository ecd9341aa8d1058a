package models

import "sort"

// DigestSummary is the narrative briefing for the current day.
type DigestSummary struct {
	NarrativeSummary string   `json:"narrativeSummary,omitempty"`
	KeyPeople        []string `json:"keyPeople,omitempty"`
	KeyTopics        []string `json:"keyTopics,omitempty"`
}

// NormalizedSet de-duplicates and sorts a string set. Order carries no meaning
// for KeyPeople and KeyTopics, so sorting makes two digests comparable.
func NormalizedSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// HasChips reports whether the digest has any people or topics to show.
func (d *DigestSummary) HasChips() bool {
	return d != nil && (len(d.KeyPeople) > 0 || len(d.KeyTopics) > 0)
}
