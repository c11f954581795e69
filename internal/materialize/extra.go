package materialize

import (
	"sort"
	"strings"

	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/pintype"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/spawner"
	"github.com/specialistvlad/pinpatch/internal/spec"
)

// Recognised extra_data keys.
const (
	ExtraTitle     = "title"
	ExtraPinPrefix = "pin."
)

// touchUp applies position and extra data from the spec onto n.
func (s *State) touchUp(n *node.Node, sn spec.GraphNode) {
	n.Pos = node.Position{X: sn.Position.X, Y: sn.Position.Y}

	keys := make([]string, 0, len(sn.ExtraData))
	for k := range sn.ExtraData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := sn.ExtraData[key]
		switch {
		case key == ExtraTitle:
			n.Title = value
		case key == spawner.ExtraTargetType:
			if n.Kind == node.KindCast && n.Extra[key] != strings.TrimSpace(value) {
				s.Result.Warn(report.CodeExtraDataInvalid, "node %s: cast target %q cannot be changed to %q on an existing node", sn.ID, n.Extra[key], value)
			}
		case strings.HasPrefix(key, ExtraPinPrefix):
			s.setPinDefault(n, sn.ID, strings.TrimPrefix(key, ExtraPinPrefix), value)
		default:
			n.SetExtra(key, value)
		}
	}
}

func (s *State) setPinDefault(n *node.Node, specID, pinName, literal string) {
	pin := n.Pin(pinName)
	if pin == nil || pin.Direction != node.Input {
		s.Result.Warn(report.CodeExtraDataInvalid, "node %s: no input pin %q for default value", specID, pinName)
		return
	}
	value, err := pintype.CoerceLiteral(pin.Category, literal)
	if err != nil {
		s.Result.Warn(report.CodeExtraDataInvalid, "node %s: pin %q: %v", specID, pinName, err)
		return
	}
	pin.Default = value
}
