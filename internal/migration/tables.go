package migration

// PinAlias maps known alias spellings to a canonical pin name. NodeKind and
// Function scope the entry; empty means any.
type PinAlias struct {
	Canonical string
	NodeKind  string
	Function  string
	Aliases   []string
}

// specificity orders entries so that the most narrowly scoped wins.
func (p PinAlias) specificity() int {
	s := 0
	if p.NodeKind != "" {
		s++
	}
	if p.Function != "" {
		s += 2
	}
	return s
}

func (p PinAlias) applies(kind, function string) bool {
	return (p.NodeKind == "" || p.NodeKind == kind) && (p.Function == "" || p.Function == function)
}

func (p PinAlias) hasAlias(name string) bool {
	for _, a := range p.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// Tables holds the three alias tables.
type Tables struct {
	NodeKinds map[string]string
	Functions map[string]string
	Pins      []PinAlias
}

// NewTables returns empty tables.
func NewTables() *Tables {
	return &Tables{
		NodeKinds: make(map[string]string),
		Functions: make(map[string]string),
	}
}

// Merge copies other's entries over t's. Later pin entries are appended and
// take precedence over earlier ones of the same specificity.
func (t *Tables) Merge(other *Tables) {
	for k, v := range other.NodeKinds {
		t.NodeKinds[k] = v
	}
	for k, v := range other.Functions {
		t.Functions[k] = v
	}
	t.Pins = append(t.Pins, other.Pins...)
}

// Defaults returns the built-in tables.
func Defaults() *Tables {
	t := NewTables()
	for old, kind := range map[string]string{
		"K2Node_CallFunction":   "call",
		"K2Node_VariableGet":    "variable_get",
		"K2Node_VariableSet":    "variable_set",
		"K2Node_DynamicCast":    "cast",
		"K2Node_Select":         "select",
		"K2Node_Knot":           "reroute",
		"K2Node_FunctionEntry":  "entry",
		"K2Node_FunctionResult": "result",
	} {
		t.NodeKinds[old] = kind
	}
	for old, fn := range map[string]string{
		"KismetMathLibrary.Conv_BoolToInt":      "Conv.BoolToInt",
		"KismetMathLibrary.Conv_IntToBool":      "Conv.IntToBool",
		"KismetMathLibrary.Conv_IntToFloat":     "Conv.IntToFloat",
		"KismetMathLibrary.FTrunc":              "Conv.FloatToInt",
		"KismetStringLibrary.Conv_NameToString": "Conv.NameToString",
		"KismetStringLibrary.Conv_StringToName": "Conv.StringToName",
		"KismetTextLibrary.Conv_StringToText":   "Conv.StringToText",
		"KismetTextLibrary.Conv_TextToString":   "Conv.TextToString",
	} {
		t.Functions[old] = fn
	}
	t.Pins = []PinAlias{
		{Canonical: "execute", Aliases: []string{"exec", "execIn"}},
		{Canonical: "then", Aliases: []string{"execOut"}},
		{Canonical: "ReturnValue", NodeKind: "call", Aliases: []string{"Return Value", "ReturnVal"}},
		{Canonical: "self", NodeKind: "call", Aliases: []string{"Target"}},
		{Canonical: "return_value", NodeKind: "select", Aliases: []string{"ReturnValue", "Return Value"}},
	}
	return t
}
