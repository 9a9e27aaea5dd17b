package mindmap

import (
	"encoding/json"
	"testing"
)

func TestDecode_DropsUnknownIcons(t *testing.T) {
	data := `{"id":"r","label":"me","kind":"root","icon":"Rocket","children":[
		{"id":"a","label":"A","kind":"primary","icon":"Star"},
		{"id":"b","label":"B","kind":"leaf","icon":{"$$typeof":"react.forward_ref","render":{}}},
		{"id":"c","label":"C","kind":"leaf","icon":42}
	]}`
	root, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if root.Icon != "" {
		t.Errorf("root icon = %q, want empty", root.Icon)
	}
	want := map[string]Icon{"a": IconStar, "b": "", "c": ""}
	for id, icon := range want {
		if got := Find(root, id).Icon; got != icon {
			t.Errorf("icon of %s = %q, want %q", id, got, icon)
		}
	}
}

func TestDecode_LegacyShapes(t *testing.T) {
	data := `{"id":1700000000000,"label":"me","type":"root","progress":"35","status":"active",
		"children":[null, "junk", {"id":"x","label":"X"}]}`
	root, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if root.ID != "1700000000000" {
		t.Errorf("ID = %q, want 1700000000000", root.ID)
	}
	if root.Kind != KindRoot {
		t.Errorf("Kind = %q, want root (from legacy type field)", root.Kind)
	}
	if root.Progress != 35 {
		t.Errorf("Progress = %d, want 35", root.Progress)
	}
	if len(root.Children) != 1 || root.Children[0].ID != "x" {
		t.Errorf("children = %+v, want only x", root.Children)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{"id":`},
		{"array", `[1,2]`},
		{"string", `"root"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []*Node{
		sampleTree(),
		{ID: "r", Kind: KindRoot, Icon: "NotAnIcon", Children: []*Node{
			{ID: "a", Icon: IconZap, Children: []*Node{{ID: "b", Icon: "<svg/>"}}},
			nil,
		}},
		{ID: "solo", Icon: IconBookOpen},
	}
	for _, x := range inputs {
		once := x.Normalize()
		twice := once.Normalize()
		if !Equal(once, twice) {
			t.Errorf("Normalize not idempotent for %q", x.ID)
		}
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := &Node{ID: "r", Icon: "Bad", Children: []*Node{{ID: "a", Icon: "Worse"}}}
	out := in.Normalize()
	if in.Icon != "Bad" || in.Children[0].Icon != "Worse" {
		t.Error("Normalize mutated its input")
	}
	if out.Icon != "" || out.Children[0].Icon != "" {
		t.Errorf("icons = %q/%q, want empty", out.Icon, out.Children[0].Icon)
	}
}

func TestDecode_NormalizeIdempotent(t *testing.T) {
	data := `{"id":"r","kind":"root","icon":{"render":1},"children":[{"id":"a","icon":"Lightbulb"}]}`
	decoded, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !Equal(decoded, decoded.Normalize()) {
		t.Error("Decode output changes under Normalize")
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	root := DefaultTree()
	data, err := Encode(root)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !Equal(root, back) {
		t.Error("tree changed across Encode/Decode")
	}
}

func TestEncode_OmitsEmptyIcon(t *testing.T) {
	data, err := Encode(&Node{ID: "r", Kind: KindRoot, Icon: "bogus"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["icon"]; ok {
		t.Errorf("icon serialized: %s", data)
	}
}

func TestEncode_Nil(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Error("expected error for nil tree")
	}
}

func TestValidators(t *testing.T) {
	for _, i := range Icons {
		if !ValidIcon(string(i)) {
			t.Errorf("ValidIcon(%q) = false", i)
		}
	}
	if ValidIcon("user") {
		t.Error("icon names are case-sensitive")
	}
	if !ValidStatus("abandoned") || ValidStatus("done") {
		t.Error("ValidStatus mismatch")
	}
	if !ValidKind("primary-target") || ValidKind("branch") {
		t.Error("ValidKind mismatch")
	}
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if len(id) != 12 || id[:2] != "n-" {
			t.Errorf("id %q, want n- + 10 hex chars", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestDefaultTree(t *testing.T) {
	root := DefaultTree()
	if !root.IsRoot() {
		t.Error("default root kind is not root")
	}
	if len(root.Children) != 2 {
		t.Errorf("default children = %d, want 2", len(root.Children))
	}
	if ActiveID(root) != "" {
		t.Error("default tree has an active node")
	}
}
