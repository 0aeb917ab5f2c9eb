package history

import (
	"fmt"

	"essaycoach/internal/domain"
)

// Direction selects the neighbouring sibling to switch to.
type Direction string

const (
	DirectionPrev Direction = "prev"
	DirectionNext Direction = "next"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionPrev || d == DirectionNext
}

// SwitchResult is the outcome of a sibling switch.
type SwitchResult struct {
	Path []*Node `json:"path"`

	// SelectionChanged is the sibling switched to when the caller's selected
	// version was the switched node or one of its descendants; nil otherwise.
	SelectionChanged *Node `json:"selection_changed,omitempty"`
}

// InitPath returns the default path: the first root, then the first (oldest)
// child at every level down to a leaf.
func InitPath(f *Forest) []*Node {
	if len(f.RootIDs) == 0 {
		return []*Node{}
	}
	return descend(f, f.Nodes[f.RootIDs[0]], nil)
}

// PathTo returns the path through versionID: its ancestors from the furthest
// root, the version itself, then first children down to a leaf.
func PathTo(f *Forest, versionID string) ([]*Node, error) {
	node, ok := f.Get(versionID)
	if !ok {
		return nil, domain.NewNotFound("version", versionID)
	}
	return descend(f, node, f.Ancestors(versionID)), nil
}

// descend appends node and its first-child chain to prefix.
func descend(f *Forest, node *Node, prefix []*Node) []*Node {
	path := make([]*Node, 0, len(prefix)+1)
	path = append(path, prefix...)
	for node != nil {
		path = append(path, node)
		if len(node.Children) == 0 {
			break
		}
		node = f.Nodes[node.Children[0]]
	}
	return path
}

// Navigator is a cursor over a forest tracking the displayed root-to-leaf path.
// It is not safe for concurrent use.
type Navigator struct {
	path []*Node
}

// NewNavigator creates a navigator positioned on f's default path.
func NewNavigator(f *Forest) *Navigator {
	n := &Navigator{}
	n.Init(f)
	return n
}

// Path returns a copy of the current path.
func (n *Navigator) Path() []*Node {
	out := make([]*Node, len(n.path))
	copy(out, n.path)
	return out
}

// Init resets the cursor to f's default path.
func (n *Navigator) Init(f *Forest) []*Node {
	n.path = InitPath(f)
	return n.Path()
}

// NavigateTo moves the cursor onto the path through versionID.
func (n *Navigator) NavigateTo(f *Forest, versionID string) ([]*Node, error) {
	path, err := PathTo(f, versionID)
	if err != nil {
		return nil, err
	}
	n.path = path
	return n.Path(), nil
}

// SwitchSibling replaces versionID on the current path with its previous or
// next sibling, then rebuilds everything below it by following first children.
//
// selectedID is the version the caller currently shows in detail. When it is
// versionID or lies below versionID, the result's SelectionChanged carries the
// new sibling so the caller can follow along.
//
// Switching past the first or last sibling is a no-op. If versionID is not on
// the current path, the cursor first moves onto the path through it.
func (n *Navigator) SwitchSibling(f *Forest, versionID string, dir Direction, selectedID string) (SwitchResult, error) {
	if !dir.Valid() {
		return SwitchResult{}, &domain.ValidationError{Message: fmt.Sprintf("invalid direction: %q", dir)}
	}
	if _, ok := f.Get(versionID); !ok {
		return SwitchResult{}, domain.NewNotFound("version", versionID)
	}

	siblings := f.Siblings(versionID)
	idx := f.SiblingIndex(versionID)
	target := idx + 1
	if dir == DirectionPrev {
		target = idx - 1
	}
	if target < 0 || target >= len(siblings) {
		return SwitchResult{Path: n.Path()}, nil
	}

	pos := n.indexOf(versionID)
	if pos < 0 {
		if _, err := n.NavigateTo(f, versionID); err != nil {
			return SwitchResult{}, err
		}
		pos = n.indexOf(versionID)
	}

	sibling := f.Nodes[siblings[target]]
	n.path = descend(f, sibling, n.path[:pos])

	result := SwitchResult{Path: n.Path()}
	if selectedID != "" && (selectedID == versionID || f.IsDescendant(selectedID, versionID)) {
		result.SelectionChanged = sibling
	}
	return result, nil
}

func (n *Navigator) indexOf(versionID string) int {
	for i, node := range n.path {
		if node.ID == versionID {
			return i
		}
	}
	return -1
}
