package normalize

// Fields lists, for each canonical loop field, the upstream field names tried
// in priority order. The upstream contract is unversioned, so these orders are
// best guesses from observed payloads and can be overridden from config.
type Fields struct {
	ID        []string `mapstructure:"id" yaml:"id"`
	Who       []string `mapstructure:"who" yaml:"who"`
	What      []string `mapstructure:"what" yaml:"what"`
	When      []string `mapstructure:"when" yaml:"when"`
	WhenLists []string `mapstructure:"when_lists" yaml:"when_lists"`
	Category  []string `mapstructure:"category" yaml:"category"`
	Status    []string `mapstructure:"status" yaml:"status"`
	Lane      []string `mapstructure:"lane" yaml:"lane"`
	ChatID    []string `mapstructure:"chat_id" yaml:"chat_id"`
	CreatedAt []string `mapstructure:"created_at" yaml:"created_at"`
}

// DefaultFields returns the observed upstream priorities.
func DefaultFields() Fields {
	return Fields{
		ID:        []string{"id", "loopId", "loop_id"},
		Who:       []string{"who", "actor", "from"},
		What:      []string{"what", "summary", "title", "text"},
		When:      []string{"when", "whenDate"},
		WhenLists: []string{"whenOptions"},
		Category:  []string{"category", "type"},
		Status:    []string{"status"},
		Lane:      []string{"lane"},
		ChatID:    []string{"chatId", "chat_id"},
		CreatedAt: []string{
			"lastSeenTs",
			"createdAt",
			"created_at",
			"timestamp",
			"time",
			"messageTimestamp",
			"message_timestamp",
			"firstSeenTs",
			"lastSeen_ts",
			"lastSeen",
		},
	}
}

// withDefaults fills empty lists from DefaultFields and pins each canonical
// name where normalizing a normalized loop needs it.
func (f Fields) withDefaults() Fields {
	def := DefaultFields()
	pick := func(list, fallback []string) []string {
		if len(list) == 0 {
			return append([]string(nil), fallback...)
		}
		return append([]string(nil), list...)
	}
	out := Fields{
		ID:        leading("id", pick(f.ID, def.ID)),
		Who:       leading("who", pick(f.Who, def.Who)),
		What:      leading("what", pick(f.What, def.What)),
		When:      leading("when", pick(f.When, def.When)),
		WhenLists: pick(f.WhenLists, def.WhenLists),
		Category:  leading("category", pick(f.Category, def.Category)),
		Status:    leading("status", pick(f.Status, def.Status)),
		Lane:      leading("lane", pick(f.Lane, def.Lane)),
		ChatID:    leading("chatId", pick(f.ChatID, def.ChatID)),
		CreatedAt: pick(f.CreatedAt, def.CreatedAt),
	}
	// createdAt is the only canonical name allowed behind alternates
	// (lastSeenTs outranks it upstream), but it must be present.
	if !contains(out.CreatedAt, "createdAt") {
		out.CreatedAt = append(out.CreatedAt, "createdAt")
	}
	return out
}

// leading moves canonical to the front of list.
func leading(canonical string, list []string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, canonical)
	for _, name := range list {
		if name != canonical {
			out = append(out, name)
		}
	}
	return out
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}
