package pintype

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// FromHCL converts an HCL expression naming a type (the `int` in
// `type = int`) into a Category.
func FromHCL(expr hcl.Expression) (Category, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	// A bare keyword, not a string or a complex expression.
	traversal, travDiags := hcl.AbsTraversalForExpr(expr)
	if travDiags.HasErrors() || len(traversal) != 1 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid type specification",
			Detail:   "The 'type' attribute must be a simple type keyword like 'int', 'string' or 'bool'.",
			Subject:  expr.Range().Ptr(),
		})
		return "", diags
	}

	name := traversal.RootName()
	c, err := Parse(name)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   fmt.Sprintf("The keyword '%s' is not a valid pin type.", name),
			Subject:  expr.Range().Ptr(),
		})
		return "", diags
	}
	if c.IsExec() {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   "Execution pins are implied by the function's purity and cannot be declared.",
			Subject:  expr.Range().Ptr(),
		})
		return "", diags
	}
	return c, diags
}
