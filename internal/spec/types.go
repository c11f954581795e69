package spec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RepairMode controls how aggressively nodes that lost their stable id are
// matched against untagged graph nodes.
type RepairMode string

const (
	RepairNone       RepairMode = "none"
	RepairSoft       RepairMode = "soft"
	RepairAggressive RepairMode = "aggressive"
)

// DefaultAutoFixMaxSteps is used when auto_fix_max_steps is absent.
const DefaultAutoFixMaxSteps = 10

// Valid reports whether m is a known repair mode.
func (m RepairMode) Valid() bool {
	switch m {
	case RepairNone, RepairSoft, RepairAggressive:
		return true
	}
	return false
}

// Position is the canvas location requested for a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Param is one entry of the target function's signature.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// GraphTarget identifies the container and function body being patched.
type GraphTarget struct {
	AssetPath       string  `json:"asset_path"`
	TargetType      string  `json:"target_type"`
	Name            string  `json:"name"`
	CreateIfMissing bool    `json:"create_if_missing"`
	Inputs          []Param `json:"inputs,omitempty"`
	Outputs         []Param `json:"outputs,omitempty"`
}

// GraphNode is one desired node.
type GraphNode struct {
	ID               string            `json:"id"`
	NodeKind         string            `json:"node_kind"`
	SpawnerKey       string            `json:"spawner_key,omitempty"`
	Function         string            `json:"function,omitempty"`
	NodeID           string            `json:"node_id,omitempty"`
	CreateOrUpdate   bool              `json:"create_or_update"`
	AllowCreate      bool              `json:"allow_create"`
	AllowUpdate      bool              `json:"allow_update"`
	PreferSpawnerKey bool              `json:"prefer_spawner_key"`
	Position         Position          `json:"position"`
	ExtraData        map[string]string `json:"extra_data,omitempty"`
}

// NewGraphNode returns a node with every default applied.
func NewGraphNode(id, kind string) GraphNode {
	return GraphNode{
		ID:               id,
		NodeKind:         kind,
		CreateOrUpdate:   true,
		AllowCreate:      true,
		AllowUpdate:      true,
		PreferSpawnerKey: true,
	}
}

// UnmarshalJSON applies the boolean defaults for absent fields.
func (n *GraphNode) UnmarshalJSON(data []byte) error {
	type plain GraphNode
	p := plain(NewGraphNode("", ""))
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = GraphNode(p)
	return nil
}

// ResolvedFunction is the function identifier this node refers to: the
// explicit function field, else the spawner key.
func (n *GraphNode) ResolvedFunction() string {
	if n.Function != "" {
		return n.Function
	}
	return n.SpawnerKey
}

// GraphLink is one desired connection.
type GraphLink struct {
	FromNodeID             string `json:"from_node_id"`
	FromPin                string `json:"from_pin"`
	ToNodeID               string `json:"to_node_id"`
	ToPin                  string `json:"to_pin"`
	BreakExistingFrom      bool   `json:"break_existing_from"`
	BreakExistingTo        bool   `json:"break_existing_to"`
	UseSchema              bool   `json:"use_schema"`
	AllowHeuristicPinMatch bool   `json:"allow_heuristic_pin_match"`
}

// NewGraphLink returns a link with every default applied.
func NewGraphLink(from, fromPin, to, toPin string) GraphLink {
	return GraphLink{FromNodeID: from, FromPin: fromPin, ToNodeID: to, ToPin: toPin, UseSchema: true}
}

// UnmarshalJSON applies use_schema=true when absent.
func (l *GraphLink) UnmarshalJSON(data []byte) error {
	type plain GraphLink
	p := plain(NewGraphLink("", "", "", ""))
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = GraphLink(p)
	return nil
}

func (l GraphLink) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", l.FromNodeID, l.FromPin, l.ToNodeID, l.ToPin)
}

// GraphSpec is the full patch request.
type GraphSpec struct {
	SpecVersion              int         `json:"spec_version"`
	SpecSchema               string      `json:"spec_schema"`
	RepairMode               RepairMode  `json:"repair_mode"`
	Target                   GraphTarget `json:"target"`
	Nodes                    []GraphNode `json:"nodes"`
	Links                    []GraphLink `json:"links"`
	AutoFix                  bool        `json:"auto_fix"`
	AutoFixMaxSteps          int         `json:"auto_fix_max_steps"`
	AutoFixInsertConversions bool        `json:"auto_fix_insert_conversions"`
}

// New returns an empty spec with every default applied.
func New() *GraphSpec {
	return &GraphSpec{
		RepairMode:               RepairNone,
		AutoFixMaxSteps:          DefaultAutoFixMaxSteps,
		AutoFixInsertConversions: true,
		Nodes:                    []GraphNode{},
		Links:                    []GraphLink{},
	}
}

// UnmarshalJSON applies the spec-level defaults for absent fields.
func (s *GraphSpec) UnmarshalJSON(data []byte) error {
	type plain GraphSpec
	p := plain(*New())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.RepairMode == "" {
		p.RepairMode = RepairNone
	}
	p.RepairMode = RepairMode(strings.ToLower(string(p.RepairMode)))
	if p.Nodes == nil {
		p.Nodes = []GraphNode{}
	}
	if p.Links == nil {
		p.Links = []GraphLink{}
	}
	*s = GraphSpec(p)
	return nil
}

// Clone returns a deep copy of the spec.
func (s *GraphSpec) Clone() *GraphSpec {
	cp := *s
	cp.Target.Inputs = append([]Param(nil), s.Target.Inputs...)
	cp.Target.Outputs = append([]Param(nil), s.Target.Outputs...)
	cp.Nodes = make([]GraphNode, len(s.Nodes))
	for i, n := range s.Nodes {
		cp.Nodes[i] = n
		if n.ExtraData != nil {
			cp.Nodes[i].ExtraData = make(map[string]string, len(n.ExtraData))
			for k, v := range n.ExtraData {
				cp.Nodes[i].ExtraData[k] = v
			}
		}
	}
	cp.Links = append([]GraphLink{}, s.Links...)
	return &cp
}

// NodeByID returns the spec node with the given spec-local id.
func (s *GraphSpec) NodeByID(id string) (*GraphNode, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}
