package graph

import (
	"errors"
	"testing"

	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/pintype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callNode(inputs, outputs map[string]pintype.Category) *node.Node {
	n := &node.Node{Kind: node.KindCall, Function: "Test.Fn"}
	n.Pins = append(n.Pins,
		&node.Pin{Name: "execute", Direction: node.Input, Category: pintype.Exec},
		&node.Pin{Name: "then", Direction: node.Output, Category: pintype.Exec},
	)
	for name, c := range inputs {
		n.Pins = append(n.Pins, &node.Pin{Name: name, Direction: node.Input, Category: c})
	}
	for name, c := range outputs {
		n.Pins = append(n.Pins, &node.Pin{Name: name, Direction: node.Output, Category: c})
	}
	return n
}

func TestNewFunction(t *testing.T) {
	g := NewFunction("FUNCTION", "Tick", []Param{{Name: "Delta", Category: pintype.Float}}, []Param{{Name: "Ok", Category: pintype.Bool}})

	require.Len(t, g.Nodes, 2)
	entry := g.Entry()
	require.NotNil(t, entry)
	assert.Equal(t, "N1", entry.ID)
	assert.NotNil(t, entry.Pin("then"))
	assert.NotNil(t, entry.Pin("Delta"))

	results := g.NodesOfKind(node.KindResult)
	require.Len(t, results, 1)
	assert.Equal(t, "N2", results[0].ID)
	assert.NotNil(t, results[0].Pin("Ok"))
	assert.Equal(t, "FUNCTION.Tick", g.Key())
	assert.NoError(t, g.Validate())
}

func TestAddNode_IdsAreNeverReused(t *testing.T) {
	g := New("FUNCTION", "F")
	a := g.AddNode(&node.Node{Kind: node.KindReroute})
	b := g.AddNode(&node.Node{Kind: node.KindReroute})
	_, err := g.RemoveNode(b.ID)
	require.NoError(t, err)
	c := g.AddNode(&node.Node{Kind: node.KindReroute})

	assert.Equal(t, "N1", a.ID)
	assert.Equal(t, "N3", c.ID)
}

func TestCanConnect(t *testing.T) {
	g := NewFunction("FUNCTION", "F", nil, nil)
	a := g.AddNode(callNode(map[string]pintype.Category{"In": pintype.Int}, map[string]pintype.Category{"Flag": pintype.Bool, "Num": pintype.Int}))
	b := g.AddNode(callNode(map[string]pintype.Category{"Count": pintype.Int, "Any": pintype.Wildcard}, nil))

	testCases := []struct {
		name   string
		link   Link
		reason RejectReason
		err    error
	}{
		{name: "exec ok", link: Link{a.ID, "then", b.ID, "execute"}},
		{name: "data ok", link: Link{a.ID, "Num", b.ID, "Count"}},
		{name: "wildcard ok", link: Link{a.ID, "Flag", b.ID, "Any"}},
		{name: "type mismatch", link: Link{a.ID, "Flag", b.ID, "Count"}, reason: ReasonType},
		{name: "reversed", link: Link{b.ID, "Count", a.ID, "Num"}, reason: ReasonReversed},
		{name: "input to input", link: Link{a.ID, "In", b.ID, "Count"}, reason: ReasonDirection},
		{name: "exec to data", link: Link{a.ID, "then", b.ID, "Any"}, reason: ReasonExecMismatch},
		{name: "same node", link: Link{a.ID, "Num", a.ID, "In"}, reason: ReasonSameNode},
		{name: "missing pin", link: Link{a.ID, "Nope", b.ID, "Count"}, err: ErrPinNotFound},
		{name: "missing node", link: Link{"N99", "Num", b.ID, "Count"}, err: ErrNodeNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.CanConnect(tc.link)
			switch {
			case tc.err != nil:
				assert.ErrorIs(t, err, tc.err)
			case tc.reason != "":
				rej, ok := AsReject(err)
				require.True(t, ok, "expected a reject error, got %v", err)
				assert.Equal(t, tc.reason, rej.Reason)
				assert.True(t, errors.Is(err, ErrSchemaRejected))
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestConnect_SingleLinkEndpoints(t *testing.T) {
	g := NewFunction("FUNCTION", "F", nil, nil)
	a := g.AddNode(callNode(nil, map[string]pintype.Category{"Num": pintype.Int}))
	b := g.AddNode(callNode(nil, map[string]pintype.Category{"Num": pintype.Int}))
	c := g.AddNode(callNode(map[string]pintype.Category{"Count": pintype.Int}, nil))

	require.NoError(t, g.Connect(Link{a.ID, "Num", c.ID, "Count"}))
	require.NoError(t, g.Connect(Link{b.ID, "Num", c.ID, "Count"}))
	assert.Equal(t, []Link{{b.ID, "Num", c.ID, "Count"}}, g.LinksOf(c.ID, "Count"), "data input keeps only the newest link")

	require.NoError(t, g.Connect(Link{a.ID, "then", c.ID, "execute"}))
	require.NoError(t, g.Connect(Link{a.ID, "then", b.ID, "execute"}))
	assert.Len(t, g.LinksOf(a.ID, "then"), 1, "exec output keeps only the newest link")

	// Exec inputs and data outputs fan in and out freely.
	require.NoError(t, g.Connect(Link{b.ID, "then", c.ID, "execute"}))
	assert.Len(t, g.LinksOf(c.ID, "execute"), 1)
	require.NoError(t, g.Connect(Link{g.Entry().ID, "then", c.ID, "execute"}))
	assert.Len(t, g.LinksOf(c.ID, "execute"), 2)

	// Connecting an existing link is a no-op.
	before := len(g.Links)
	require.NoError(t, g.Connect(Link{b.ID, "Num", c.ID, "Count"}))
	assert.Len(t, g.Links, before)
}

func TestConnectRaw(t *testing.T) {
	g := NewFunction("FUNCTION", "F", nil, nil)
	a := g.AddNode(callNode(nil, map[string]pintype.Category{"Flag": pintype.Bool}))
	b := g.AddNode(callNode(map[string]pintype.Category{"Count": pintype.Int}, nil))

	require.NoError(t, g.ConnectRaw(Link{a.ID, "Flag", b.ID, "Count"}))
	assert.True(t, g.HasLink(Link{a.ID, "Flag", b.ID, "Count"}))
	assert.ErrorIs(t, g.ConnectRaw(Link{a.ID, "Missing", b.ID, "Count"}), ErrPinNotFound)
}

func TestRemoveNodeAndBreakLinks(t *testing.T) {
	g := NewFunction("FUNCTION", "F", nil, nil)
	a := g.AddNode(callNode(nil, map[string]pintype.Category{"Num": pintype.Int}))
	b := g.AddNode(callNode(map[string]pintype.Category{"Count": pintype.Int}, nil))
	require.NoError(t, g.Connect(Link{g.Entry().ID, "then", a.ID, "execute"}))
	require.NoError(t, g.Connect(Link{a.ID, "Num", b.ID, "Count"}))

	broken := g.BreakPinLinks(b.ID, "Count")
	assert.Len(t, broken, 1)
	assert.Len(t, g.Links, 1)

	dropped, err := g.RemoveNode(a.ID)
	require.NoError(t, err)
	assert.Len(t, dropped, 1)
	assert.Empty(t, g.Links)
	assert.Nil(t, g.Node(a.ID))

	_, err = g.RemoveNode(a.ID)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestValidate(t *testing.T) {
	t.Run("duplicate stable ids", func(t *testing.T) {
		g := NewFunction("FUNCTION", "F", nil, nil)
		g.AddNode(&node.Node{Kind: node.KindReroute, StableID: "x"})
		g.AddNode(&node.Node{Kind: node.KindReroute, StableID: "x"})
		assert.ErrorContains(t, g.Validate(), `stable id "x"`)
	})

	t.Run("pure data cycle", func(t *testing.T) {
		g := NewFunction("FUNCTION", "F", nil, nil)
		pure := func() *node.Node {
			return &node.Node{Kind: node.KindCall, Function: "Math.Id", Pins: []*node.Pin{
				{Name: "In", Direction: node.Input, Category: pintype.Int},
				{Name: "Out", Direction: node.Output, Category: pintype.Int},
			}}
		}
		a := g.AddNode(pure())
		b := g.AddNode(pure())
		require.NoError(t, g.Connect(Link{a.ID, "Out", b.ID, "In"}))
		require.NoError(t, g.Connect(Link{b.ID, "Out", a.ID, "In"}))
		assert.ErrorContains(t, g.Validate(), "data flow cycle detected")
	})

	t.Run("dangling link", func(t *testing.T) {
		g := NewFunction("FUNCTION", "F", nil, nil)
		g.Links = append(g.Links, Link{"N1", "then", "N42", "execute"})
		assert.ErrorContains(t, g.Validate(), "dangling link")
	})
}

func TestClone(t *testing.T) {
	g := NewFunction("FUNCTION", "F", nil, nil)
	cp := g.Clone()
	cp.Nodes[0].StableID = "changed"
	cp.AddNode(&node.Node{Kind: node.KindReroute})

	assert.Empty(t, g.Nodes[0].StableID)
	assert.Len(t, g.Nodes, 2)
}
