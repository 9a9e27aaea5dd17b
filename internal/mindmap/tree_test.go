package mindmap

import (
	"reflect"
	"strings"
	"testing"
)

// sampleTree builds:
//
//	r
//	├── a
//	│   ├── b
//	│   │   └── d
//	│   └── c
//	└── e
func sampleTree() *Node {
	return &Node{ID: "r", Label: "root", Kind: KindRoot, Children: []*Node{
		{ID: "a", Label: "A", Kind: KindPrimary, Children: []*Node{
			{ID: "b", Label: "B", Kind: KindLeaf, Children: []*Node{
				{ID: "d", Label: "D", Kind: KindLeaf},
			}},
			{ID: "c", Label: "C", Kind: KindLeaf},
		}},
		{ID: "e", Label: "E", Kind: KindPrimaryTarget},
	}}
}

func ids(root *Node) []string {
	var out []string
	Walk(root, func(n *Node, _ int) bool {
		out = append(out, n.ID)
		return true
	})
	return out
}

func TestFindPath(t *testing.T) {
	root := sampleTree()
	tests := []struct {
		id   string
		want []string
	}{
		{"r", []string{"r"}},
		{"a", []string{"r", "a"}},
		{"d", []string{"r", "a", "b", "d"}},
		{"c", []string{"r", "a", "c"}},
		{"e", []string{"r", "e"}},
		{"missing", nil},
	}
	for _, tt := range tests {
		got := FindPath(root, tt.id)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FindPath(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestFindPath_FirstMatchWins(t *testing.T) {
	root := &Node{ID: "r", Kind: KindRoot, Children: []*Node{
		{ID: "x", Children: []*Node{{ID: "dup"}}},
		{ID: "dup"},
	}}
	got := FindPath(root, "dup")
	want := []string{"r", "x", "dup"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindPath = %v, want %v", got, want)
	}
}

func TestFindPath_NilRoot(t *testing.T) {
	if got := FindPath(nil, "r"); len(got) != 0 {
		t.Errorf("FindPath(nil) = %v, want empty", got)
	}
}

func TestUpdateNode_ReplacesTarget(t *testing.T) {
	root := sampleTree()
	out := UpdateNode(root, "b", func(n Node) Node {
		n.Label = "renamed"
		return n
	})
	if got := Find(out, "b").Label; got != "renamed" {
		t.Errorf("label = %q, want renamed", got)
	}
	if got := Find(root, "b").Label; got != "B" {
		t.Errorf("input mutated: label = %q, want B", got)
	}
}

func TestUpdateNode_StructuralSharing(t *testing.T) {
	root := sampleTree()
	out := UpdateNode(root, "d", func(n Node) Node {
		n.Status = StatusCompleted
		return n
	})

	// Ancestors on the path are rebuilt.
	for _, id := range []string{"r", "a", "b", "d"} {
		if Find(out, id) == Find(root, id) {
			t.Errorf("node %q shared, want copy", id)
		}
	}
	// Siblings and cousins are shared.
	for _, id := range []string{"c", "e"} {
		if Find(out, id) != Find(root, id) {
			t.Errorf("node %q copied, want shared", id)
		}
	}
}

func TestUpdateNode_MissingIDIsNoOp(t *testing.T) {
	root := sampleTree()
	out := UpdateNode(root, "nonexistent-id", func(n Node) Node {
		n.Label = "changed"
		return n
	})
	if out != root {
		t.Error("UpdateNode on missing id returned a new root")
	}
	if !Equal(out, sampleTree()) {
		t.Error("UpdateNode on missing id changed the tree")
	}
}

func TestAddChild_AppendsAtEnd(t *testing.T) {
	root := sampleTree()
	out := AddChild(root, "a", NewChild("n1", "new", ""))

	a := Find(out, "a")
	if len(a.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(a.Children))
	}
	last := a.Children[2]
	if last.ID != "n1" || last.Kind != KindLeaf || last.Status != StatusPending || len(last.Children) != 0 {
		t.Errorf("new child = %+v, want leaf/pending/no children", last)
	}
	if len(Find(root, "a").Children) != 2 {
		t.Error("AddChild mutated the input tree")
	}
}

func TestAddChild_CreatesChildrenSlice(t *testing.T) {
	root := sampleTree()
	out := AddChild(root, "e", NewChild("n1", "first", KindLeaf))
	e := Find(out, "e")
	if len(e.Children) != 1 || e.Children[0].ID != "n1" {
		t.Errorf("e.Children = %v, want [n1]", ids(e)[1:])
	}
}

func TestAddChild_MissingParentIsNoOp(t *testing.T) {
	root := sampleTree()
	out := AddChild(root, "ghost", NewChild("n1", "x", ""))
	if out != root {
		t.Error("AddChild with missing parent returned a new root")
	}
}

func TestAddChild_ThenFindPath(t *testing.T) {
	root := sampleTree()
	out := AddChild(root, "d", NewChild("n9", "deep", ""))
	path := FindPath(out, "n9")
	if len(path) == 0 || path[0] != "r" || path[len(path)-1] != "n9" {
		t.Errorf("path = %v, want r ... n9", path)
	}
}

func TestDeleteNode_Cascades(t *testing.T) {
	root := sampleTree()
	out := DeleteNode(root, "a")
	for _, id := range []string{"a", "b", "c", "d"} {
		if Find(out, id) != nil {
			t.Errorf("node %q still present after deleting a", id)
		}
	}
	if got := strings.Join(ids(out), ","); got != "r,e" {
		t.Errorf("remaining = %s, want r,e", got)
	}
	if Find(root, "a") == nil {
		t.Error("DeleteNode mutated the input tree")
	}
}

func TestDeleteNode_RemovesAtAnyDepth(t *testing.T) {
	root := &Node{ID: "r", Kind: KindRoot, Children: []*Node{
		{ID: "x", Children: []*Node{{ID: "dup"}, {ID: "y"}}},
		{ID: "dup"},
	}}
	out := DeleteNode(root, "dup")
	if Find(out, "dup") != nil {
		t.Error("dup still present")
	}
	if got := strings.Join(ids(out), ","); got != "r,x,y" {
		t.Errorf("remaining = %s, want r,x,y", got)
	}
}

func TestDeleteNode_RootIsKept(t *testing.T) {
	root := sampleTree()
	out := DeleteNode(root, "r")
	if out != root {
		t.Error("deleting the root id changed the tree")
	}
}

func TestDeleteNode_MissingIsNoOp(t *testing.T) {
	root := sampleTree()
	if out := DeleteNode(root, "ghost"); out != root {
		t.Error("DeleteNode on missing id returned a new root")
	}
}

func TestCount(t *testing.T) {
	if got := Count(sampleTree()); got != 6 {
		t.Errorf("Count = %d, want 6", got)
	}
	if got := Count(nil); got != 0 {
		t.Errorf("Count(nil) = %d, want 0", got)
	}
}

func TestWalk_StopsEarly(t *testing.T) {
	var seen []string
	Walk(sampleTree(), func(n *Node, _ int) bool {
		seen = append(seen, n.ID)
		return n.ID != "b"
	})
	if got := strings.Join(seen, ","); got != "r,a,b" {
		t.Errorf("visited = %s, want r,a,b", got)
	}
}

// The end-to-end scenario: activate, add a child under the active node,
// then delete the branch.
func TestScenario_ActivateAddDelete(t *testing.T) {
	root := &Node{ID: "r", Kind: KindRoot, Children: []*Node{
		{ID: "a", Kind: KindPrimary, Status: StatusPending, Children: []*Node{}},
	}}

	result := UpdateNode(root, "a", func(n Node) Node {
		n.Status = StatusActive
		n.Progress = 40
		return n
	})
	h := ResolveHighlight(result)
	if h.CurrentID != "a" {
		t.Errorf("CurrentID = %q, want a", h.CurrentID)
	}
	if len(h.PathIDs) != 2 || !h.OnPath("r") || !h.OnPath("a") {
		t.Errorf("PathIDs = %v, want {r, a}", h.PathIDs)
	}

	result2 := AddChild(result, "a", &Node{ID: "b", Label: "sub", Kind: KindLeaf})
	if got := FindPath(result2, "b"); !reflect.DeepEqual(got, []string{"r", "a", "b"}) {
		t.Errorf("FindPath(b) = %v, want [r a b]", got)
	}

	result3 := DeleteNode(result2, "a")
	if len(result3.Children) != 0 {
		t.Errorf("root children = %d, want 0", len(result3.Children))
	}
	if Find(result3, "a") != nil || Find(result3, "b") != nil {
		t.Error("a or b still present")
	}
}
