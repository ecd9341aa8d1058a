package normalize

import "github.com/tOgg1/pedrito/internal/models"

// ParseDigest reads {summary?: {narrativeSummary?, keyPeople?, keyTopics?}}.
// It returns nil when there is no summary object.
func ParseDigest(body any) *models.DigestSummary {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	summary, ok := obj["summary"].(map[string]any)
	if !ok {
		return nil
	}
	narrative, _ := summary["narrativeSummary"].(string)
	return &models.DigestSummary{
		NarrativeSummary: narrative,
		KeyPeople:        models.NormalizedSet(stringList(summary["keyPeople"])),
		KeyTopics:        models.NormalizedSet(stringList(summary["keyTopics"])),
	}
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
