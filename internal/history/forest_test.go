package history

import (
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"essaycoach/internal/domain"
	"essaycoach/internal/domain/models/essay"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// version builds a test version created t seconds after baseTime.
func version(id, parent string, t int) essay.Version {
	v := essay.Version{
		ID:          id,
		Content:     "content of " + id,
		ActionItems: []essay.ActionItem{},
		CreatedAt:   baseTime.Add(time.Duration(t) * time.Second),
	}
	if parent != "" {
		p := parent
		v.ParentID = &p
	}
	return v
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestBuildForest_BasicBranching(t *testing.T) {
	f := BuildForest([]essay.Version{
		version("A", "", 1),
		version("B", "A", 2),
		version("C", "A", 3),
	})

	if !reflect.DeepEqual(f.RootIDs, []string{"A"}) {
		t.Fatalf("RootIDs = %v, want [A]", f.RootIDs)
	}
	if got := f.Nodes["A"].Children; !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Errorf("children of A = %v, want [B C]", got)
	}
	wantOrder := map[string]int{"A": 1, "B": 2, "C": 3}
	for id, order := range wantOrder {
		if f.Nodes[id].Order != order {
			t.Errorf("order of %s = %d, want %d", id, f.Nodes[id].Order, order)
		}
	}
}

func TestBuildForest_DanglingParentBecomesRoot(t *testing.T) {
	f := BuildForest([]essay.Version{
		version("A", "", 1),
		version("B", "missing", 2),
	})

	if !reflect.DeepEqual(f.RootIDs, []string{"A", "B"}) {
		t.Fatalf("RootIDs = %v, want [A B]", f.RootIDs)
	}
	if f.Parent("B") != nil {
		t.Error("dangling parent should not resolve")
	}
	if *f.Nodes["B"].ParentID != "missing" {
		t.Error("parent_id should be preserved on the node")
	}
}

func TestBuildForest_CycleMembersBecomeRoots(t *testing.T) {
	f := BuildForest([]essay.Version{
		version("A", "B", 1),
		version("B", "A", 2),
		version("C", "A", 3),
		version("D", "D", 4),
	})

	if !reflect.DeepEqual(f.RootIDs, []string{"A", "B", "D"}) {
		t.Fatalf("RootIDs = %v, want [A B D]", f.RootIDs)
	}
	if got := f.Nodes["A"].Children; !reflect.DeepEqual(got, []string{"C"}) {
		t.Errorf("children of A = %v, want [C]", got)
	}
	if got := len(f.Ancestors("C")); got != 1 {
		t.Errorf("C should have one ancestor, got %d", got)
	}
}

func TestBuildForest_TiesKeepInputOrder(t *testing.T) {
	f := BuildForest([]essay.Version{
		version("X", "", 5),
		version("Y", "", 5),
		version("Z", "", 1),
	})

	if !reflect.DeepEqual(f.RootIDs, []string{"Z", "X", "Y"}) {
		t.Errorf("RootIDs = %v, want [Z X Y]", f.RootIDs)
	}
}

func TestBuildForest_DuplicateIDKeepsEarliest(t *testing.T) {
	first := version("A", "", 1)
	dup := version("A", "", 2)
	dup.Content = "later"

	f := BuildForest([]essay.Version{dup, first})

	if f.Len() != 1 {
		t.Fatalf("Len = %d, want 1", f.Len())
	}
	if f.Nodes["A"].Content != first.Content {
		t.Errorf("expected earliest duplicate to win, got %q", f.Nodes["A"].Content)
	}
}

// TestBuildForest_PermutationInvariant checks that every permutation of the same
// version list yields the same roots, edges and orders.
func TestBuildForest_PermutationInvariant(t *testing.T) {
	versions := []essay.Version{
		version("A", "", 1),
		version("B", "A", 2),
		version("C", "A", 3),
		version("D", "B", 4),
		version("E", "", 5),
		version("F", "E", 6),
	}
	want := BuildForest(versions)

	permute(versions, 0, func(p []essay.Version) {
		got := BuildForest(p)
		if !reflect.DeepEqual(got.RootIDs, want.RootIDs) {
			t.Fatalf("RootIDs = %v, want %v", got.RootIDs, want.RootIDs)
		}
		for id, node := range want.Nodes {
			if got.Nodes[id].Order != node.Order {
				t.Fatalf("order of %s = %d, want %d", id, got.Nodes[id].Order, node.Order)
			}
			if !reflect.DeepEqual(got.Nodes[id].Children, node.Children) {
				t.Fatalf("children of %s = %v, want %v", id, got.Nodes[id].Children, node.Children)
			}
		}
	})
}

func permute(vs []essay.Version, k int, visit func([]essay.Version)) {
	if k == len(vs) {
		visit(vs)
		return
	}
	for i := k; i < len(vs); i++ {
		vs[k], vs[i] = vs[i], vs[k]
		permute(vs, k+1, visit)
		vs[k], vs[i] = vs[i], vs[k]
	}
}

func TestForest_SiblingsAndAncestors(t *testing.T) {
	f := BuildForest([]essay.Version{
		version("A", "", 1),
		version("B", "A", 2),
		version("C", "A", 3),
		version("D", "C", 4),
		version("R", "", 5),
	})

	if got := f.Siblings("C"); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Errorf("Siblings(C) = %v", got)
	}
	if got := f.Siblings("R"); !reflect.DeepEqual(got, []string{"A", "R"}) {
		t.Errorf("Siblings(R) = %v", got)
	}
	if got := f.SiblingIndex("C"); got != 1 {
		t.Errorf("SiblingIndex(C) = %d, want 1", got)
	}
	if got := ids(f.Ancestors("D")); !reflect.DeepEqual(got, []string{"A", "C"}) {
		t.Errorf("Ancestors(D) = %v, want [A C]", got)
	}
	if !f.IsDescendant("D", "A") || f.IsDescendant("B", "C") {
		t.Error("IsDescendant gave wrong answer")
	}
	if f.Latest().ID != "R" {
		t.Errorf("Latest = %s, want R", f.Latest().ID)
	}
}

func TestRemoveVersion(t *testing.T) {
	f := BuildForest([]essay.Version{
		version("A", "", 1),
		version("B", "A", 2),
		version("C", "B", 3),
		version("D", "B", 4),
	})

	got, err := RemoveVersion(f, "B")
	if err != nil {
		t.Fatalf("RemoveVersion failed: %v", err)
	}

	if _, ok := got.Get("B"); ok {
		t.Error("B should be gone")
	}
	if !reflect.DeepEqual(got.RootIDs, []string{"A", "C", "D"}) {
		t.Errorf("orphaned children should become roots, RootIDs = %v", got.RootIDs)
	}
	if *got.Nodes["C"].ParentID != "B" {
		t.Error("orphaned child should keep its parent_id")
	}
	if got.Nodes["D"].Order != 3 {
		t.Errorf("orders should be recomputed, D = %d", got.Nodes["D"].Order)
	}

	// Input forest is untouched
	if _, ok := f.Get("B"); !ok || len(f.RootIDs) != 1 {
		t.Error("RemoveVersion must not mutate its input")
	}
}

func TestRemoveVersion_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		versions []essay.Version
		remove   string
		wantErr  error
	}{
		{
			name:     "only version",
			versions: []essay.Version{version("A", "", 1)},
			remove:   "A",
			wantErr:  domain.ErrInvalidOperation,
		},
		{
			name:     "only root",
			versions: []essay.Version{version("A", "", 1), version("B", "A", 2)},
			remove:   "A",
			wantErr:  domain.ErrInvalidOperation,
		},
		{
			name:     "unknown version",
			versions: []essay.Version{version("A", "", 1), version("B", "A", 2)},
			remove:   "Z",
			wantErr:  domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := BuildForest(tt.versions)
			before := ids(f.Chronological())

			_, err := RemoveVersion(f, tt.remove)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if after := ids(f.Chronological()); !reflect.DeepEqual(before, after) {
				t.Errorf("forest changed: %v -> %v", before, after)
			}
		})
	}
}

func TestRemoveVersion_OneOfSeveralRoots(t *testing.T) {
	f := BuildForest([]essay.Version{
		version("A", "", 1),
		version("B", "", 2),
	})

	got, err := RemoveVersion(f, "A")
	if err != nil {
		t.Fatalf("RemoveVersion failed: %v", err)
	}
	roots := append([]string(nil), got.RootIDs...)
	sort.Strings(roots)
	if !reflect.DeepEqual(roots, []string{"B"}) {
		t.Errorf("RootIDs = %v, want [B]", roots)
	}
}
