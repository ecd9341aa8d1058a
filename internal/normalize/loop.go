package normalize

import (
	"github.com/rs/zerolog"

	"github.com/tOgg1/pedrito/internal/logging"
	"github.com/tOgg1/pedrito/internal/models"
)

// Normalizer maps raw upstream loop records onto models.Loop.
type Normalizer struct {
	id        accessor
	who       accessor
	what      accessor
	when      accessor
	category  accessor
	status    accessor
	lane      accessor
	createdAt accessor
	chatIDs   []accessor
	display   accessor

	paths  CollectionPaths
	logger zerolog.Logger
}

// NewNormalizer builds a normalizer from field priorities. Empty lists fall
// back to DefaultFields; a nil paths list falls back to DefaultCollectionPaths.
func NewNormalizer(fields Fields, paths CollectionPaths) *Normalizer {
	f := fields.withDefaults()
	if len(paths) == 0 {
		paths = DefaultCollectionPaths()
	}

	whenAccs := keys(f.When)
	for _, name := range f.WhenLists {
		whenAccs = append(whenAccs, firstElement(name))
	}

	return &Normalizer{
		id:        firstOf(keys(f.ID)...),
		who:       firstOf(keys(f.Who)...),
		what:      firstOf(keys(f.What)...),
		when:      firstOf(whenAccs...),
		category:  firstOf(keys(f.Category)...),
		status:    firstOf(keys(f.Status)...),
		lane:      firstOf(keys(f.Lane)...),
		createdAt: firstOf(keys(f.CreatedAt)...),
		chatIDs:   keys(f.ChatID),
		display:   nonEmpty(key("displayName")),
		paths:     paths,
		logger:    logging.Component("normalize"),
	}
}

// Default is a normalizer with the observed upstream priorities.
func Default() *Normalizer {
	return NewNormalizer(Fields{}, nil)
}

// Normalize maps one raw record. It is pure: the same inputs always give the
// same loop, and normalizing loop.Record() again gives the loop back.
func (n *Normalizer) Normalize(raw Record, dir Directory) models.Loop {
	loop := models.Loop{
		ID:       textOf(n.id, raw),
		Who:      textOf(n.who, raw),
		What:     textOf(n.what, raw),
		Category: models.LoopCategory(textOf(n.category, raw)),
		Status:   models.LoopStatus(textOf(n.status, raw)),
		Lane:     textOf(n.lane, raw),
	}

	if v, ok := n.when(raw); ok {
		if s, isText := toText(v); isText {
			loop.When = &s
		}
	}
	if v, ok := n.createdAt(raw); ok {
		loop.CreatedAt = CoercePtr(v)
	}

	chatIDs := make([]string, 0, len(n.chatIDs))
	for _, acc := range n.chatIDs {
		if id := textOf(acc, raw); id != "" {
			chatIDs = append(chatIDs, id)
		}
	}
	if len(chatIDs) > 0 {
		loop.ChatID = chatIDs[0]
	}
	loop.DisplayName = n.displayName(raw, dir, chatIDs)
	return loop
}

// displayName resolves the conversation label: the record's own name, then the
// directory by each chat id, then the raw chat id, then "Unknown".
func (n *Normalizer) displayName(raw Record, dir Directory, chatIDs []string) string {
	if name := textOf(n.display, raw); name != "" {
		return name
	}
	for _, id := range chatIDs {
		if name, ok := dir.Lookup(id); ok {
			return name
		}
	}
	if len(chatIDs) > 0 {
		return chatIDs[0]
	}
	return models.UnknownDisplayName
}

// NormalizeAll extracts the loop collection from a response body and
// normalizes every record. Records without an id are dropped because they
// cannot be completed or dismissed; for duplicated ids the first record wins.
// Upstream order is preserved.
func (n *Normalizer) NormalizeAll(body any, dir Directory) []models.Loop {
	records := n.paths.Extract(body)
	loops := make([]models.Loop, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, raw := range records {
		loop := n.Normalize(raw, dir)
		if loop.ID == "" {
			n.logger.Debug().Int("index", i).Msg("dropping loop record without id")
			continue
		}
		if _, dup := seen[loop.ID]; dup {
			logger := logging.WithLoop(n.logger, loop.ID)
			logger.Debug().Msg("dropping duplicate loop id")
			continue
		}
		seen[loop.ID] = struct{}{}
		loops = append(loops, loop)
	}
	return loops
}
