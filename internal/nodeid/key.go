package nodeid

import "strings"

// String returns the raw key.
func (k *Key) String() string {
	if k == nil {
		return ""
	}
	return k.Raw
}

// LastSegment returns the final name of a callable or class path, which is
// how bare kind names are recovered from "/Script/Nodes.K2Node_Knot".
func (k *Key) LastSegment() string {
	if k == nil {
		return ""
	}
	switch k.Shape {
	case ShapeMember:
		return k.Member
	default:
		if len(k.Path) == 0 {
			return ""
		}
		last := k.Path[len(k.Path)-1]
		if i := strings.LastIndex(last, "."); i >= 0 {
			return last[i+1:]
		}
		return last
	}
}

// LastPathSegment returns the part of s after the last '/' or '.', used when
// looking up aliases by their short name.
func LastPathSegment(s string) string {
	if i := strings.LastIndexAny(s, "/."); i >= 0 {
		return s[i+1:]
	}
	return s
}
