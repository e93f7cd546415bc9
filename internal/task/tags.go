package task

import "strings"

// TagSeparator joins tags on the wire and in storage. There is no escaping,
// so a tag can never contain it.
const TagSeparator = ","

// Tags is an ordered set: insertion order is kept, duplicates and blanks are dropped.
type Tags []string

// ParseTags splits a delimited tag string.
func ParseTags(s string) Tags {
	return NewTags(strings.Split(s, TagSeparator)...)
}

func NewTags(items ...string) Tags {
	var out Tags
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, TagSeparator) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func (t Tags) String() string {
	return strings.Join(t, TagSeparator)
}

func (t Tags) Contains(tag string) bool {
	for _, existing := range t {
		if existing == tag {
			return true
		}
	}
	return false
}
