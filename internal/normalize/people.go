package normalize

// Directory maps conversation ids to human-readable names. A nil Directory is
// valid and empty.
type Directory map[string]string

// Lookup returns the name for a chat id.
func (d Directory) Lookup(chatID string) (string, bool) {
	if d == nil || chatID == "" {
		return "", false
	}
	name, ok := d[chatID]
	return name, ok
}

// ParseDirectory reads {people: [{chatId, displayName}]}. Entries missing
// either field are skipped; any other shape yields an empty directory.
func ParseDirectory(body any) Directory {
	obj, ok := body.(map[string]any)
	if !ok {
		return Directory{}
	}
	people, ok := obj["people"].([]any)
	if !ok {
		return Directory{}
	}
	dir := make(Directory, len(people))
	for _, item := range people {
		person, ok := item.(map[string]any)
		if !ok {
			continue
		}
		chatID, _ := toText(person["chatId"])
		name, _ := person["displayName"].(string)
		if chatID == "" || name == "" {
			continue
		}
		dir[chatID] = name
	}
	return dir
}
