package pintype

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// CoerceLiteral checks that a default literal can be held by a pin of this
// category and returns its normalized spelling. Values are converted through
// cty so that "1", "1.0" and "true" follow the same rules HCL manifests use.
func CoerceLiteral(c Category, literal string) (string, error) {
	if c.IsExec() {
		return "", fmt.Errorf("exec pins cannot hold a default value")
	}

	target := c.CtyType()
	if target == cty.DynamicPseudoType {
		return literal, nil
	}

	val, err := convert.Convert(cty.StringVal(literal), target)
	if err != nil {
		return "", fmt.Errorf("value %q is not a valid %s: %w", literal, c, err)
	}

	switch c {
	case Bool:
		if val.True() {
			return "true", nil
		}
		return "false", nil
	case Int:
		bf := val.AsBigFloat()
		if !bf.IsInt() {
			return "", fmt.Errorf("value %q is not a whole number", literal)
		}
		i, _ := bf.Int(nil)
		return i.String(), nil
	case Float:
		return val.AsBigFloat().Text('g', -1), nil
	default:
		return val.AsString(), nil
	}
}
