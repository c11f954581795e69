// Package pintype defines the closed set of pin value categories, the rule
// deciding which categories may be wired together and the table of known
// conversions used when two data pins disagree.
package pintype

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Category is the static type of a pin.
type Category string

const (
	Exec     Category = "exec"
	Bool     Category = "bool"
	Int      Category = "int"
	Float    Category = "float"
	String   Category = "string"
	Name     Category = "name"
	Text     Category = "text"
	Object   Category = "object"
	Wildcard Category = "wildcard"
)

var all = []Category{Exec, Bool, Int, Float, String, Name, Text, Object, Wildcard}

// keywords maps accepted spellings to their category. "number" and "any"
// are kept for manifests written against cty's vocabulary.
var keywords = map[string]Category{
	"exec":     Exec,
	"bool":     Bool,
	"boolean":  Bool,
	"int":      Int,
	"integer":  Int,
	"float":    Float,
	"number":   Float,
	"real":     Float,
	"string":   String,
	"name":     Name,
	"text":     Text,
	"object":   Object,
	"wildcard": Wildcard,
	"any":      Wildcard,
}

// All returns every known category in declaration order.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// Parse converts a keyword into a Category.
func Parse(s string) (Category, error) {
	c, ok := keywords[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown pin type %q", s)
	}
	return c, nil
}

// IsExec reports whether the category carries execution flow rather than data.
func (c Category) IsExec() bool { return c == Exec }

// CtyType returns the cty type used to hold literal values of this category.
func (c Category) CtyType() cty.Type {
	switch c {
	case Bool:
		return cty.Bool
	case Int, Float:
		return cty.Number
	case String, Name, Text:
		return cty.String
	default:
		return cty.DynamicPseudoType
	}
}

// Compatible reports whether an output of category from may be wired to an
// input of category to without an adapter.
func Compatible(from, to Category) bool {
	if from.IsExec() || to.IsExec() {
		return from == to
	}
	if from == Wildcard || to == Wildcard {
		return true
	}
	return from == to
}
