package history

import (
	"sort"

	"essaycoach/internal/domain"
	"essaycoach/internal/domain/models/essay"
)

// Node is a version placed in its forest.
type Node struct {
	essay.Version

	// Order is the 1-based chronological position across all versions.
	Order int `json:"order"`

	// Children are the ids of versions based on this one, oldest first.
	Children []string `json:"children"`

	// parent is the resolved parent id; empty for roots, including versions
	// whose parent_id dangles or loops back onto themselves.
	parent string
}

// Forest is the set of version trees of one essay.
type Forest struct {
	Nodes   map[string]*Node `json:"nodes"`
	RootIDs []string         `json:"root_ids"`

	// chronological holds every id in Order sequence
	chronological []string
}

// BuildForest arranges a flat version list into a forest.
//
// Versions are ordered by CreatedAt with ties kept in input order. A version
// becomes a root when it has no parent_id, when the parent is not in the
// list, or when following parents upward leads back to itself. Duplicate ids
// keep the earliest version.
func BuildForest(versions []essay.Version) *Forest {
	sorted := make([]essay.Version, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	f := &Forest{
		Nodes:         make(map[string]*Node, len(sorted)),
		RootIDs:       []string{},
		chronological: make([]string, 0, len(sorted)),
	}

	// First pass: create all nodes
	for _, v := range sorted {
		if _, exists := f.Nodes[v.ID]; exists {
			continue
		}
		f.chronological = append(f.chronological, v.ID)
		f.Nodes[v.ID] = &Node{
			Version:  v,
			Order:    len(f.chronological),
			Children: []string{},
		}
	}

	// Second pass: link children to parents in chronological order
	for _, id := range f.chronological {
		node := f.Nodes[id]
		if parentID, ok := f.declaredParent(node); ok && !f.onCycle(id) {
			node.parent = parentID
			parent := f.Nodes[parentID]
			parent.Children = append(parent.Children, id)
			continue
		}
		f.RootIDs = append(f.RootIDs, id)
	}

	return f
}

// declaredParent returns the node's parent_id if it names a known version.
func (f *Forest) declaredParent(node *Node) (string, bool) {
	if !node.HasParent() {
		return "", false
	}
	parentID := *node.ParentID
	if _, ok := f.Nodes[parentID]; !ok {
		return "", false
	}
	return parentID, true
}

// onCycle reports whether walking parent_id upward from id returns to id.
func (f *Forest) onCycle(id string) bool {
	seen := map[string]bool{id: true}
	current := f.Nodes[id]
	for {
		parentID, ok := f.declaredParent(current)
		if !ok {
			return false
		}
		if parentID == id {
			return true
		}
		if seen[parentID] {
			// Loop above us that does not include id
			return false
		}
		seen[parentID] = true
		current = f.Nodes[parentID]
	}
}

// Len returns the number of versions in the forest.
func (f *Forest) Len() int {
	return len(f.chronological)
}

// Get returns the node with the given id.
func (f *Forest) Get(id string) (*Node, bool) {
	node, ok := f.Nodes[id]
	return node, ok
}

// Parent returns the resolved parent of id, or nil for roots and unknown ids.
func (f *Forest) Parent(id string) *Node {
	node, ok := f.Nodes[id]
	if !ok || node.parent == "" {
		return nil
	}
	return f.Nodes[node.parent]
}

// IsRoot reports whether id is a known root.
func (f *Forest) IsRoot(id string) bool {
	node, ok := f.Nodes[id]
	return ok && node.parent == ""
}

// Siblings returns the ids sharing id's parent, id included, oldest first.
// Roots are siblings of each other.
func (f *Forest) Siblings(id string) []string {
	if parent := f.Parent(id); parent != nil {
		return parent.Children
	}
	return f.RootIDs
}

// SiblingIndex returns id's 0-based position among its siblings, or -1.
func (f *Forest) SiblingIndex(id string) int {
	for i, sibling := range f.Siblings(id) {
		if sibling == id {
			return i
		}
	}
	return -1
}

// Ancestors returns id's ancestors from the furthest root down to the
// direct parent. Roots have no ancestors.
func (f *Forest) Ancestors(id string) []*Node {
	var chain []*Node
	for parent := f.Parent(id); parent != nil; parent = f.Parent(parent.ID) {
		chain = append(chain, parent)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// IsDescendant reports whether id sits strictly below ancestorID.
func (f *Forest) IsDescendant(id, ancestorID string) bool {
	for parent := f.Parent(id); parent != nil; parent = f.Parent(parent.ID) {
		if parent.ID == ancestorID {
			return true
		}
	}
	return false
}

// Chronological returns every node in Order sequence.
func (f *Forest) Chronological() []*Node {
	nodes := make([]*Node, len(f.chronological))
	for i, id := range f.chronological {
		nodes[i] = f.Nodes[id]
	}
	return nodes
}

// Versions returns the forest's versions in chronological order, with their
// original parent_id values.
func (f *Forest) Versions() []essay.Version {
	versions := make([]essay.Version, len(f.chronological))
	for i, id := range f.chronological {
		versions[i] = f.Nodes[id].Version
	}
	return versions
}

// Latest returns the most recently created node, or nil for an empty forest.
func (f *Forest) Latest() *Node {
	if len(f.chronological) == 0 {
		return nil
	}
	return f.Nodes[f.chronological[len(f.chronological)-1]]
}

// RemoveVersion returns a new forest without versionID. The input forest is
// not modified.
//
// Removing the only version, or the only root, is an invalid operation.
// Children of the removed version keep their parent_id and become roots of
// the rebuilt forest; they are not re-parented to their grandparent.
func RemoveVersion(f *Forest, versionID string) (*Forest, error) {
	if _, ok := f.Nodes[versionID]; !ok {
		return nil, domain.NewNotFound("version", versionID)
	}
	if f.Len() <= 1 {
		return nil, domain.NewInvalidOperation("cannot delete the only version of an essay")
	}
	if f.IsRoot(versionID) && len(f.RootIDs) == 1 {
		return nil, domain.NewInvalidOperation("cannot delete the only root version of an essay")
	}

	remaining := make([]essay.Version, 0, f.Len()-1)
	for _, v := range f.Versions() {
		if v.ID != versionID {
			remaining = append(remaining, v)
		}
	}

	return BuildForest(remaining), nil
}
