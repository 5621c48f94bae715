package tags

import (
	"encoding/json"
	"fmt"
	"os"
)

// Trait is one entry of the flat trait definition file.
type Trait struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TraitSet validates trait IDs referenced by forms.
type TraitSet map[string]struct{}

// LoadTraits reads the trait definition file, returning both the ordered
// list (for serving to clients) and the set (for validation).
func LoadTraits(path string) ([]Trait, TraitSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read traits %s: %w", path, err)
	}
	return ParseTraits(raw)
}

// ParseTraits builds the trait list and set from a JSON array, rejecting
// duplicates.
func ParseTraits(raw []byte) ([]Trait, TraitSet, error) {
	var traits []Trait
	if err := json.Unmarshal(raw, &traits); err != nil {
		return nil, nil, fmt.Errorf("parse traits: %w", err)
	}

	set := make(TraitSet, len(traits))
	for _, tr := range traits {
		if tr.ID == "" {
			return nil, nil, fmt.Errorf("traits: entry with empty id")
		}
		if _, dup := set[tr.ID]; dup {
			return nil, nil, fmt.Errorf("traits: duplicate trait id %q", tr.ID)
		}
		set[tr.ID] = struct{}{}
	}
	return traits, set, nil
}

// Contains reports whether the trait ID is known.
func (s TraitSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}
