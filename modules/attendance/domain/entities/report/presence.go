package report

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

// Presence is the set of person ids marked present in one category of a report.
// An invalid presence came from a malformed source and counts as empty.
type Presence struct {
	ids   []string
	valid bool
}

// NewPresence builds a valid presence from ids, dropping blanks and duplicates.
func NewPresence(ids ...string) Presence {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return Presence{ids: out, valid: true}
}

func InvalidPresence() Presence {
	return Presence{}
}

// ParsePresence decodes a JSON array of strings. Any other shape, including null, yields an invalid presence.
func ParsePresence(raw []byte) Presence {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return InvalidPresence()
	}
	var ids []string
	if err := json.Unmarshal(trimmed, &ids); err != nil {
		return InvalidPresence()
	}
	return NewPresence(ids...)
}

func (p Presence) Valid() bool { return p.valid }

// Count returns the number of distinct ids, or zero for an invalid presence.
func (p Presence) Count() int {
	if !p.valid {
		return 0
	}
	return len(p.ids)
}

func (p Presence) IDs() []string {
	return slices.Clone(p.ids)
}

func (p Presence) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	if p.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.ids)
}

func (p *Presence) UnmarshalJSON(data []byte) error {
	*p = ParsePresence(data)
	return nil
}
