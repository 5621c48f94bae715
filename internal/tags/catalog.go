// Package tags implements the hierarchical interest taxonomy: the catalog
// loaded at startup and the per-population usage statistics that feed
// IDF-weighted scoring.
package tags

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Node is one entry of the tag definition file. IsMatchable is a pointer so
// an omitted value can be rejected at load time; defaults are disallowed.
type Node struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Desc        string `json:"desc,omitempty"`
	IsMatchable *bool  `json:"is_matchable"`
	Children    []Node `json:"children,omitempty"`
}

// Catalog answers O(1) structural queries over the tag tree. It is built
// once at startup and immutable afterwards, so it is safe for concurrent use
// without locking.
type Catalog struct {
	nodes     []Node
	parent    map[string]string
	matchable map[string]bool
	leaf      map[string]bool
}

// LoadCatalog reads and parses the tag definition file. Any structural error
// is fatal for the process; callers are expected to exit.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tag catalog %s: %w", path, err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog builds a catalog from the JSON tree, rejecting duplicate IDs
// and nodes without an explicit is_matchable flag.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var nodes []Node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("parse tag catalog: %w", err)
	}

	c := &Catalog{
		nodes:     nodes,
		parent:    make(map[string]string),
		matchable: make(map[string]bool),
		leaf:      make(map[string]bool),
	}
	if err := c.addNodes(nodes, ""); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) addNodes(nodes []Node, parentID string) error {
	for _, node := range nodes {
		if node.ID == "" {
			return fmt.Errorf("tag catalog: node with empty id under %q", parentID)
		}
		if _, exists := c.matchable[node.ID]; exists {
			return fmt.Errorf("tag catalog: duplicate tag id %q", node.ID)
		}
		if node.IsMatchable == nil {
			return fmt.Errorf("tag catalog: tag %q is missing is_matchable", node.ID)
		}

		c.matchable[node.ID] = *node.IsMatchable
		if parentID != "" {
			c.parent[node.ID] = parentID
		}

		if len(node.Children) == 0 {
			c.leaf[node.ID] = true
			continue
		}
		if err := c.addNodes(node.Children, node.ID); err != nil {
			return err
		}
	}
	return nil
}

// Tree returns the catalog as loaded, for serving to clients. Callers must
// not mutate it.
func (c *Catalog) Tree() []Node { return c.nodes }

// Known reports whether the tag exists in the catalog.
func (c *Catalog) Known(id string) bool {
	_, ok := c.matchable[id]
	return ok
}

// IsLeaf reports whether the tag exists and has no children.
func (c *Catalog) IsLeaf(id string) bool { return c.leaf[id] }

// IsMatchable reports the tag's own flag; unknown tags are not matchable.
func (c *Catalog) IsMatchable(id string) bool { return c.matchable[id] }

// MatchableChain reports whether the tag and every ancestor up to the root
// are matchable. Only tags passing this test contribute to scoring.
func (c *Catalog) MatchableChain(id string) bool {
	if !c.matchable[id] {
		return false
	}
	for _, ancestor := range c.Ancestors(id) {
		if !c.matchable[ancestor] {
			return false
		}
	}
	return true
}

// Ancestors returns the tag's ancestors ordered root-ward, immediate parent
// first.
func (c *Catalog) Ancestors(id string) []string {
	var ancestors []string
	current := id
	for {
		parent, ok := c.parent[current]
		if !ok {
			return ancestors
		}
		ancestors = append(ancestors, parent)
		current = parent
	}
}

// Leaves returns all leaf tag IDs in sorted order.
func (c *Catalog) Leaves() []string {
	leaves := make([]string, 0, len(c.leaf))
	for id := range c.leaf {
		leaves = append(leaves, id)
	}
	sort.Strings(leaves)
	return leaves
}
