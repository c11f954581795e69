package spawner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/pinpatch/internal/catalog"
	"github.com/specialistvlad/pinpatch/internal/graph"
	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/pintype"
)

// ErrSpawn is wrapped by every factory failure.
var ErrSpawn = errors.New("node spawn failed")

// ExtraTargetType names the extra-data key carrying a cast's target type.
const ExtraTargetType = "target_type"

// Factory builds nodes of one concrete kind and identity. Spawn returns a
// node that has not been added to the graph yet.
type Factory interface {
	Kind() node.Kind
	Identity() string
	Spawn(g *graph.Graph, pos node.Position, extra map[string]string) (*node.Node, error)
}

type callFactory struct {
	fn *catalog.Function
}

func (f *callFactory) Kind() node.Kind  { return node.KindCall }
func (f *callFactory) Identity() string { return f.fn.ID }

func (f *callFactory) Spawn(_ *graph.Graph, pos node.Position, _ map[string]string) (*node.Node, error) {
	n := &node.Node{Kind: node.KindCall, Function: f.fn.ID, Title: f.fn.Member, Pos: pos}
	if !f.fn.Pure {
		n.Pins = append(n.Pins,
			&node.Pin{Name: "execute", Direction: node.Input, Category: pintype.Exec},
			&node.Pin{Name: "then", Direction: node.Output, Category: pintype.Exec},
		)
	}
	for _, p := range f.fn.Inputs {
		n.Pins = append(n.Pins, &node.Pin{Name: p.Name, Direction: node.Input, Category: p.Category, Default: p.Default})
	}
	for _, p := range f.fn.Outputs {
		n.Pins = append(n.Pins, &node.Pin{Name: p.Name, Direction: node.Output, Category: p.Category})
	}
	return n, nil
}

type variableFactory struct {
	v   *catalog.Variable
	set bool
}

func (f *variableFactory) Kind() node.Kind {
	if f.set {
		return node.KindVariableSet
	}
	return node.KindVariableGet
}

func (f *variableFactory) Identity() string { return f.v.ID() }

func (f *variableFactory) Spawn(_ *graph.Graph, pos node.Position, _ map[string]string) (*node.Node, error) {
	n := &node.Node{Kind: f.Kind(), Variable: f.v.ID(), Pos: pos}
	if !f.set {
		n.Title = "Get " + f.v.Name
		n.Pins = []*node.Pin{{Name: f.v.Name, Direction: node.Output, Category: f.v.Category}}
		return n, nil
	}
	n.Title = "Set " + f.v.Name
	n.Pins = []*node.Pin{
		{Name: "execute", Direction: node.Input, Category: pintype.Exec},
		{Name: "then", Direction: node.Output, Category: pintype.Exec},
		{Name: f.v.Name, Direction: node.Input, Category: f.v.Category},
		{Name: "Output_Get", Direction: node.Output, Category: f.v.Category},
	}
	return n, nil
}

// kindFactory builds the generic, catalog-independent node kinds.
type kindFactory struct {
	kind node.Kind
}

func (f *kindFactory) Kind() node.Kind  { return f.kind }
func (f *kindFactory) Identity() string { return string(f.kind) }

func (f *kindFactory) Spawn(g *graph.Graph, pos node.Position, extra map[string]string) (*node.Node, error) {
	n := &node.Node{Kind: f.kind, Pos: pos}
	switch f.kind {
	case node.KindResult:
		if g == nil {
			return nil, fmt.Errorf("%w: result nodes need a function signature", ErrSpawn)
		}
		n = g.NewResultNode(pos)
	case node.KindCast:
		target := strings.TrimSpace(extra[ExtraTargetType])
		if target == "" {
			return nil, fmt.Errorf("%w: cast nodes need extra_data %q", ErrSpawn, ExtraTargetType)
		}
		n.Title = "Cast To " + target
		n.Pins = []*node.Pin{
			{Name: "execute", Direction: node.Input, Category: pintype.Exec},
			{Name: "then", Direction: node.Output, Category: pintype.Exec},
			{Name: "cast_failed", Direction: node.Output, Category: pintype.Exec},
			{Name: "object", Direction: node.Input, Category: pintype.Object},
			{Name: "as_" + target, Direction: node.Output, Category: pintype.Object},
		}
		n.SetExtra(ExtraTargetType, target)
	case node.KindSelect:
		n.Title = "Select"
		n.Pins = []*node.Pin{
			{Name: "index", Direction: node.Input, Category: pintype.Bool},
			{Name: "option_false", Direction: node.Input, Category: pintype.Wildcard},
			{Name: "option_true", Direction: node.Input, Category: pintype.Wildcard},
			{Name: "return_value", Direction: node.Output, Category: pintype.Wildcard},
		}
	case node.KindReroute:
		n.Pins = []*node.Pin{
			{Name: "input", Direction: node.Input, Category: pintype.Wildcard},
			{Name: "output", Direction: node.Output, Category: pintype.Wildcard},
		}
	default:
		return nil, fmt.Errorf("%w: %s nodes cannot be spawned directly", ErrSpawn, f.kind)
	}
	return n, nil
}

// genericKinds are the kinds buildable without a catalog definition.
var genericKinds = map[node.Kind]bool{
	node.KindEntry:   true,
	node.KindResult:  true,
	node.KindCast:    true,
	node.KindSelect:  true,
	node.KindReroute: true,
}

// ForKind returns the generic factory for a bare kind, if one exists. Entry
// resolves (so keys are recognised) but refuses to spawn: a function owns
// exactly one entry node.
func ForKind(k node.Kind) (Factory, bool) {
	if !genericKinds[k] {
		return nil, false
	}
	return &kindFactory{kind: k}, true
}
