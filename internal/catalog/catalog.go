package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/pinpatch/internal/pintype"
)

// ErrDuplicate is returned when a definition id is registered twice.
var ErrDuplicate = errors.New("duplicate catalog definition")

// Param is one typed input or output of a function.
type Param struct {
	Name        string
	Category    pintype.Category
	Default     string
	Description string
}

// Function is a callable that call nodes are spawned from.
type Function struct {
	ID          string
	Owner       string
	Member      string
	Description string
	// Pure functions have no execution pins.
	Pure    bool
	Inputs  []Param
	Outputs []Param
	Builtin bool
	Source  string
}

// Variable is a named, typed member that get/set nodes are spawned from.
type Variable struct {
	Owner       string
	Name        string
	Category    pintype.Category
	Description string
	Source      string
}

// ID returns the "owner:name" identifier of the variable.
func (v *Variable) ID() string {
	return v.Owner + ":" + v.Name
}

// Catalog holds all known functions and variables.
type Catalog struct {
	functions map[string]*Function
	variables map[string]*Variable
}

// New creates a catalog pre-populated with the built-in conversions.
func New() *Catalog {
	c := &Catalog{
		functions: make(map[string]*Function),
		variables: make(map[string]*Variable),
	}
	for _, f := range builtinConversions() {
		c.functions[f.ID] = f
	}
	return c
}

// AddFunction registers a function definition.
func (c *Catalog) AddFunction(f *Function) error {
	if f.ID == "" {
		return fmt.Errorf("function id cannot be empty")
	}
	if existing, ok := c.functions[f.ID]; ok {
		return fmt.Errorf("%w: function %q already defined (%s)", ErrDuplicate, f.ID, describeSource(existing.Source, existing.Builtin))
	}
	if f.Owner == "" && f.Member == "" {
		f.Owner, f.Member = splitOwner(f.ID)
	}
	c.functions[f.ID] = f
	return nil
}

// AddVariable registers a variable definition.
func (c *Catalog) AddVariable(v *Variable) error {
	if v.Name == "" {
		return fmt.Errorf("variable name cannot be empty")
	}
	if v.Owner == "" {
		v.Owner = DefaultOwner
	}
	if existing, ok := c.variables[v.ID()]; ok {
		return fmt.Errorf("%w: variable %q already defined (%s)", ErrDuplicate, v.ID(), describeSource(existing.Source, false))
	}
	c.variables[v.ID()] = v
	return nil
}

// DefaultOwner is the owner assumed for variables declared without one.
const DefaultOwner = "Self"

// Function looks up a function by its exact id.
func (c *Catalog) Function(id string) (*Function, bool) {
	f, ok := c.functions[id]
	return f, ok
}

// Variable looks up a variable by its "owner:name" id.
func (c *Catalog) Variable(id string) (*Variable, bool) {
	v, ok := c.variables[id]
	return v, ok
}

// FindMember scans for functions and variables matching an owner+member
// pair. Owners are compared by their full name or their last path segment
// so "/Game/BP_Player" and "BP_Player" address the same owner.
func (c *Catalog) FindMember(owner, member string) ([]*Function, []*Variable) {
	var fns []*Function
	for _, f := range c.Functions() {
		if f.Member == member && ownerMatches(f.Owner, owner) {
			fns = append(fns, f)
		}
	}
	var vars []*Variable
	for _, v := range c.Variables() {
		if v.Name == member && ownerMatches(v.Owner, owner) {
			vars = append(vars, v)
		}
	}
	return fns, vars
}

// Functions returns all functions sorted by id.
func (c *Catalog) Functions() []*Function {
	out := make([]*Function, 0, len(c.functions))
	for _, f := range c.functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Variables returns all variables sorted by id.
func (c *Catalog) Variables() []*Variable {
	out := make([]*Variable, 0, len(c.variables))
	for _, v := range c.variables {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func ownerMatches(defined, requested string) bool {
	if defined == requested {
		return true
	}
	return lastSegment(defined) == lastSegment(requested)
}

func lastSegment(s string) string {
	if i := strings.LastIndexAny(s, "/."); i >= 0 {
		return s[i+1:]
	}
	return s
}

func splitOwner(id string) (string, string) {
	if i := strings.LastIndex(id, "."); i >= 0 {
		return id[:i], id[i+1:]
	}
	return "", id
}

func describeSource(source string, builtin bool) string {
	if builtin {
		return "built-in"
	}
	if source == "" {
		return "registered in code"
	}
	return "from " + source
}

func builtinConversions() []*Function {
	var out []*Function
	for _, conv := range pintype.Conversions() {
		owner, member := splitOwner(conv.Function)
		out = append(out, &Function{
			ID:          conv.Function,
			Owner:       owner,
			Member:      member,
			Description: fmt.Sprintf("Converts %s to %s.", conv.From, conv.To),
			Pure:        true,
			Inputs:      []Param{{Name: "Value", Category: conv.From}},
			Outputs:     []Param{{Name: "ReturnValue", Category: conv.To}},
			Builtin:     true,
		})
	}
	return out
}
