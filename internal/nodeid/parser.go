package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches one segment of a callable identifier or class path.
var segmentRegex = regexp.MustCompile(`^[A-Za-z0-9_\-$ ]+$`)

// isValidSegmentName rejects names that are technically matched but meaningless.
func isValidSegmentName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && trimmed != "-"
}

// Parse classifies a raw spawner key.
func Parse(raw string) (*Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("spawner key cannot be empty")
	}

	switch {
	case strings.Contains(raw, ":"):
		owner, member, _ := strings.Cut(raw, ":")
		if strings.Contains(member, ":") {
			return nil, fmt.Errorf("spawner key %q has more than one ':'", raw)
		}
		if owner == "" || member == "" {
			return nil, fmt.Errorf("spawner key %q must have both owner and member", raw)
		}
		ownerSegments := strings.FieldsFunc(owner, func(r rune) bool { return r == '.' || r == '/' })
		if len(ownerSegments) == 0 {
			return nil, fmt.Errorf("spawner key %q has an empty owner", raw)
		}
		if err := checkSegments(raw, ownerSegments); err != nil {
			return nil, err
		}
		if err := checkSegments(raw, []string{member}); err != nil {
			return nil, err
		}
		return &Key{Raw: raw, Shape: ShapeMember, Owner: owner, Member: member}, nil

	case strings.Contains(raw, "/"):
		path := strings.Split(strings.Trim(raw, "/"), "/")
		if err := checkSegments(raw, splitDots(path)); err != nil {
			return nil, err
		}
		return &Key{Raw: raw, Shape: ShapeKindPath, Path: path}, nil

	default:
		path := strings.Split(raw, ".")
		if err := checkSegments(raw, path); err != nil {
			return nil, err
		}
		return &Key{Raw: raw, Shape: ShapeCallable, Path: path}, nil
	}
}

func splitDots(path []string) []string {
	var out []string
	for _, p := range path {
		out = append(out, strings.Split(p, ".")...)
	}
	return out
}

func checkSegments(raw string, groups ...[]string) error {
	for _, segments := range groups {
		for _, seg := range segments {
			if seg == "" {
				return fmt.Errorf("spawner key %q contains an empty segment", raw)
			}
			if !segmentRegex.MatchString(seg) || !isValidSegmentName(seg) {
				return fmt.Errorf("invalid segment %q in spawner key %q", seg, raw)
			}
		}
	}
	return nil
}
