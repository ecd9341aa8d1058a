package assistant

import (
	"sort"
	"time"

	"github.com/tOgg1/pedrito/internal/models"
)

// Snapshot is an immutable copy of the dashboard state.
type Snapshot struct {
	Version     uint64                 `json:"version"`
	View        models.View            `json:"view"`
	ViewLabel   string                 `json:"viewLabel"`
	State       models.ConnectionState `json:"state"`
	Onboarded   bool                   `json:"onboarded"`
	Loops       []models.Loop          `json:"loops"`
	LoopsLoaded bool                   `json:"loopsLoaded"`
	Digest      *models.DigestSummary  `json:"digest,omitempty"`
	Pairing     models.PairingImage    `json:"pairing"`
	Advisories  []models.Advisory      `json:"advisories,omitempty"`
	Refreshing  bool                   `json:"refreshing"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// Advisory returns the advisory for source, if any.
func (s Snapshot) Advisory(source models.AdvisorySource) (models.Advisory, bool) {
	for _, adv := range s.Advisories {
		if adv.Source == source {
			return adv, true
		}
	}
	return models.Advisory{}, false
}

func sortedAdvisories(m map[models.AdvisorySource]models.Advisory) []models.Advisory {
	if len(m) == 0 {
		return nil
	}
	out := make([]models.Advisory, 0, len(m))
	for _, adv := range m {
		out = append(out, adv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].Source < out[j].Source
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}
