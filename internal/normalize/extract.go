package normalize

import "strings"

// CollectionPaths lists where a loop array may live in a response, in
// priority order. An empty path addresses the body itself.
type CollectionPaths [][]string

// DefaultCollectionPaths returns the shapes observed upstream: a bare array,
// {loops}, {openLoops}, {openLoops: {active}}, {activeOpenLoops}, and the
// legacy {open_loop}.
func DefaultCollectionPaths() CollectionPaths {
	return CollectionPaths{
		{},
		{"loops"},
		{"openLoops"},
		{"openLoops", "active"},
		{"activeOpenLoops"},
		{"open_loop"},
	}
}

// ParseCollectionPaths reads dotted paths such as "openLoops.active". "." or
// "" address the body itself.
func ParseCollectionPaths(specs []string) CollectionPaths {
	if len(specs) == 0 {
		return nil
	}
	out := make(CollectionPaths, 0, len(specs))
	for _, spec := range specs {
		spec = strings.Trim(strings.TrimSpace(spec), ".")
		if spec == "" {
			out = append(out, []string{})
			continue
		}
		out = append(out, strings.Split(spec, "."))
	}
	return out
}

// Extract returns the records of the first path holding an array. Non-object
// elements are skipped. No match is a normal outcome and yields an empty slice.
func (p CollectionPaths) Extract(body any) []Record {
	for _, path := range p {
		if list, ok := lookup(body, path).([]any); ok {
			return records(list)
		}
	}
	return []Record{}
}

// Extract applies DefaultCollectionPaths.
func Extract(body any) []Record {
	return DefaultCollectionPaths().Extract(body)
}

// ExtractBytes decodes a JSON body and applies DefaultCollectionPaths.
func ExtractBytes(body []byte) []Record {
	return Extract(Decode(body))
}

func lookup(body any, path []string) any {
	cur := body
	for _, segment := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[segment]
	}
	return cur
}

func records(list []any) []Record {
	out := make([]Record, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out
}
