package mindmap

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Decode parses a persisted tree blob and normalizes it. Only syntactically
// invalid JSON (or a top-level value that is not an object) is an error;
// every other irregularity is healed: unknown or non-string icons are
// dropped, numeric IDs are formatted as strings, and children that are not
// objects are skipped.
func Decode(data []byte) (*Node, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("mindmap: decode: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("mindmap: decode: top-level value is %T, want object", v)
	}
	return normalizeObject(obj), nil
}

// Encode serializes a normalized copy of root.
func Encode(root *Node) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("mindmap: encode: nil tree")
	}
	data, err := json.Marshal(root.Normalize())
	if err != nil {
		return nil, fmt.Errorf("mindmap: encode: %w", err)
	}
	return data, nil
}

// Normalize returns a copy of n whose icon, and every descendant icon, is
// either a member of Icons or empty. Other fields are kept as-is.
// Normalize(Normalize(x)) is equal to Normalize(x).
func (n *Node) Normalize() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if !ValidIcon(string(out.Icon)) {
		out.Icon = ""
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, 0, len(n.Children))
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			out.Children = append(out.Children, c.Normalize())
		}
	}
	return &out
}

func normalizeObject(obj map[string]any) *Node {
	n := &Node{
		ID:          scalarString(obj["id"]),
		Label:       scalarString(obj["label"]),
		Description: scalarString(obj["description"]),
		Status:      Status(scalarString(obj["status"])),
		Progress:    intValue(obj["progress"]),
	}

	kind := scalarString(obj["kind"])
	if kind == "" {
		kind = scalarString(obj["type"])
	}
	n.Kind = Kind(kind)

	if s, ok := obj["icon"].(string); ok && ValidIcon(s) {
		n.Icon = Icon(s)
	}

	if list, ok := obj["children"].([]any); ok {
		for _, c := range list {
			child, ok := c.(map[string]any)
			if !ok {
				continue
			}
			n.Children = append(n.Children, normalizeObject(child))
		}
	}
	return n
}

// scalarString returns strings unchanged and formats JSON numbers, which
// older clients used for time-based IDs. Anything else yields "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func intValue(v any) int {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int(t)
	case string:
		i, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
