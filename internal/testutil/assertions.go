package testutil

import (
	"strings"
	"testing"

	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/stretchr/testify/assert"
)

// AssertCodes checks that exactly the given codes were recorded, in any order.
func AssertCodes(t *testing.T, got []report.Code, want ...report.Code) {
	t.Helper()
	if len(want) == 0 {
		assert.Empty(t, got, "expected no error codes")
		return
	}
	assert.ElementsMatch(t, want, got)
}

// AssertLogContains checks that the captured log output contains every
// fragment.
func AssertLogContains(t *testing.T, buf *SafeBuffer, fragments ...string) {
	t.Helper()
	logs := buf.String()
	for _, f := range fragments {
		if !strings.Contains(logs, f) {
			t.Errorf("expected log output to contain %q.\n--- Full Log Output ---\n%s", f, logs)
		}
	}
}
