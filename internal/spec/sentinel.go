package spec

import (
	"strconv"
	"strings"
)

// Reserved node ids that resolve to nodes owned by the function itself.
const (
	SentinelEntry  = "Entry"
	SentinelResult = "Result"
)

// IsSentinel reports whether id is Entry, Result or ResultN (N >= 1).
func IsSentinel(id string) bool {
	if id == SentinelEntry || id == SentinelResult {
		return true
	}
	_, ok := ResultIndex(id)
	return ok
}

// ResultIndex parses the N of a "ResultN" sentinel.
func ResultIndex(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, SentinelResult)
	if !ok || rest == "" || rest[0] == '0' || rest[0] == '+' || rest[0] == '-' {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
