package pins

import (
	"testing"

	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/pintype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode() *node.Node {
	return &node.Node{
		ID:       "N5",
		Kind:     node.KindCall,
		Function: "Text.Format",
		Pins: []*node.Pin{
			{Name: "execute", Direction: node.Input, Category: pintype.Exec},
			{Name: "then", Direction: node.Output, Category: pintype.Exec},
			{Name: "self", Direction: node.Input, Category: pintype.Object},
			{Name: "InString", Direction: node.Input, Category: pintype.String},
			{Name: "Count", Direction: node.Input, Category: pintype.Int},
			{Name: "CountOut", Direction: node.Output, Category: pintype.Int},
			{Name: "ReturnValue", Direction: node.Output, Category: pintype.Text},
		},
	}
}

func TestFind(t *testing.T) {
	n := testNode()

	m, err := Find(n, "then", node.AnyDirection)
	require.NoError(t, err)
	assert.Equal(t, MethodExact, m.Method)
	assert.False(t, m.Heuristic())

	m, err = Find(n, "Then", node.AnyDirection)
	require.NoError(t, err)
	assert.Equal(t, "then", m.Pin.Name)
	assert.Equal(t, MethodCaseInsensitive, m.Method)
	assert.True(t, m.Heuristic())

	_, err = Find(n, "exec", node.AnyDirection)
	assert.ErrorIs(t, err, ErrNotFound, "plain lookups never use aliases")
}

func TestFindHeuristic(t *testing.T) {
	testCases := []struct {
		name     string
		request  string
		prefer   node.Direction
		expected string
		method   Method
		err      error
	}{
		{name: "exact wins", request: "Count", expected: "Count", method: MethodExact},
		{name: "alias exec", request: "exec", expected: "execute", method: MethodAlias},
		{name: "alias out", request: "Completed", expected: "then", method: MethodAlias},
		{name: "alias return", request: "Result", expected: "ReturnValue", method: MethodAlias},
		{name: "alias target", request: "Target", expected: "self", method: MethodAlias},
		{name: "substring unique", request: "instr", expected: "InString", method: MethodSubstring},
		{name: "substring reverse containment", request: "ReturnValueOfFormat", expected: "ReturnValue", method: MethodSubstring},
		{name: "substring ambiguous without preference", request: "coun", err: ErrAmbiguous},
		{name: "substring disambiguated by direction", request: "coun", prefer: node.Output, expected: "CountOut", method: MethodSubstring},
		{name: "nothing matches", request: "zzz", err: ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := FindHeuristic(testNode(), tc.request, tc.prefer)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, m.Pin.Name)
			assert.Equal(t, tc.method, m.Method)
		})
	}
}

func TestFind_FoldedCollision(t *testing.T) {
	n := &node.Node{ID: "N1", Kind: node.KindReroute, Pins: []*node.Pin{
		{Name: "value", Direction: node.Input, Category: pintype.Int},
		{Name: "VALUE", Direction: node.Output, Category: pintype.Int},
	}}

	_, err := Find(n, "Value", node.AnyDirection)
	assert.ErrorIs(t, err, ErrAmbiguous)

	m, err := Find(n, "Value", node.Output)
	require.NoError(t, err)
	assert.Equal(t, "VALUE", m.Pin.Name)
}
