// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file parses action catalog manifests: HCL files declaring the
// functions and variables that nodes can be spawned from.
//
// Why declare pins in manifests?
//
// A call node is only as good as its pins. The patch engine never executes a
// function, but it has to know every function's input and output pins and
// their types to resolve pin names, validate links and decide whether an
// adapter node could fix a mismatch. Keeping those signatures in manifests
// means new functions can be made available to specs without a rebuild:
//
//	function "Math.AddInt" {
//	  pure = true
//	  input "A" { type = int }
//	  input "B" { type = int  default = 0 }
//	  output "ReturnValue" { type = int }
//	}
//
//	variable "Health" {
//	  owner = "BP_Player"
//	  type  = float
//	}
package catalog

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/fsutil"
	"github.com/specialistvlad/pinpatch/internal/pintype"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// manifestRoot defines the top-level structure of a manifest file.
type manifestRoot struct {
	Functions []*hclFunction `hcl:"function,block"`
	Variables []*hclVariable `hcl:"variable,block"`
}

// hclFunction represents a single 'function' block for decoding purposes.
type hclFunction struct {
	ID   string   `hcl:"id,label"`
	Body hcl.Body `hcl:",remain"`
}

// hclVariable represents a single 'variable' block.
type hclVariable struct {
	Name        string         `hcl:"name,label"`
	Owner       *string        `hcl:"owner,optional"`
	Type        hcl.Expression `hcl:"type"`
	Description *string        `hcl:"description,optional"`
}

// functionBodySchema defines the body of a 'function' block.
var functionBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "owner"},
		{Name: "member"},
		{Name: "pure"},
		{Name: "description"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
	},
}

// paramBodySchema defines the body of 'input' and 'output' blocks.
var paramBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// `type` is required, but checked manually for a better message.
		{Name: "type"},
		{Name: "default"},
		{Name: "description"},
	},
}

// reservedPins are the execution pins added to every impure call node.
var reservedPins = map[string]bool{"execute": true, "then": true}

// ParseManifest decodes an HCL file containing function and variable blocks.
func ParseManifest(ctx context.Context, hclFile *hcl.File, filePath string) ([]*Function, []*Variable, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing catalog manifest", "file_path", filePath)

	var allDiags hcl.Diagnostics
	if hclFile == nil {
		allDiags = append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
		})
		return nil, nil, allDiags
	}

	root := &manifestRoot{}
	diags := gohcl.DecodeBody(hclFile.Body, nil, root)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, nil, allDiags
	}

	functions := make([]*Function, 0, len(root.Functions))
	for _, parsed := range root.Functions {
		fn, fnDiags := decodeFunction(parsed, filePath)
		allDiags = append(allDiags, fnDiags...)
		if fnDiags.HasErrors() {
			continue // Skip this function but continue parsing others.
		}
		functions = append(functions, fn)
	}

	variables := make([]*Variable, 0, len(root.Variables))
	for _, parsed := range root.Variables {
		category, typeDiags := pintype.FromHCL(parsed.Type)
		allDiags = append(allDiags, typeDiags...)
		if typeDiags.HasErrors() {
			continue
		}
		v := &Variable{Name: parsed.Name, Category: category, Source: filePath}
		if parsed.Owner != nil {
			v.Owner = *parsed.Owner
		}
		if parsed.Description != nil {
			v.Description = *parsed.Description
		}
		variables = append(variables, v)
	}

	return functions, variables, allDiags
}

func decodeFunction(parsed *hclFunction, filePath string) (*Function, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	content, contentDiags := parsed.Body.Content(functionBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	fn := &Function{ID: parsed.ID, Source: filePath}
	fn.Owner, fn.Member = splitOwner(parsed.ID)

	stringAttrs := map[string]*string{
		"owner":       &fn.Owner,
		"member":      &fn.Member,
		"description": &fn.Description,
	}
	for name, target := range stringAttrs {
		if attr, exists := content.Attributes[name]; exists {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, target)...)
		}
	}
	if attr, exists := content.Attributes["pure"]; exists {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &fn.Pure)...)
	}

	seen := make(map[string]bool)
	for _, kind := range []string{"input", "output"} {
		for _, block := range content.Blocks.OfType(kind) {
			// The schema guarantees us one label.
			name := block.Labels[0]
			if seen[name] {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate pin definition",
					Detail:   fmt.Sprintf("A pin named '%s' has already been defined for function '%s'.", name, parsed.ID),
					Subject:  &block.DefRange,
				})
				continue
			}
			seen[name] = true
			if !fn.Pure && reservedPins[name] {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Reserved pin name",
					Detail:   fmt.Sprintf("'%s' is the execution pin of impure functions and cannot be declared.", name),
					Subject:  &block.DefRange,
				})
				continue
			}

			param, paramDiags := decodeParam(name, block)
			diags = append(diags, paramDiags...)
			if paramDiags.HasErrors() {
				continue
			}
			if kind == "input" {
				fn.Inputs = append(fn.Inputs, param)
			} else {
				fn.Outputs = append(fn.Outputs, param)
			}
		}
	}

	return fn, diags
}

func decodeParam(name string, block *hcl.Block) (Param, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	param := Param{Name: name}

	content, contentDiags := block.Body.Content(paramBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return param, diags
	}

	typeAttr, exists := content.Attributes["type"]
	if !exists {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing type",
			Detail:   fmt.Sprintf("Pin '%s' must declare a type.", name),
			Subject:  &block.DefRange,
		})
		return param, diags
	}
	category, typeDiags := pintype.FromHCL(typeAttr.Expr)
	diags = append(diags, typeDiags...)
	if typeDiags.HasErrors() {
		return param, diags
	}
	param.Category = category

	if attr, exists := content.Attributes["description"]; exists {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &param.Description)...)
	}

	if attr, exists := content.Attributes["default"]; exists {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			return param, diags
		}
		literal, err := literalOf(val)
		if err == nil {
			literal, err = pintype.CoerceLiteral(category, literal)
		}
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid default value",
				Detail:   fmt.Sprintf("Default for pin '%s': %s.", name, err),
				Subject:  attr.Expr.Range().Ptr(),
			})
			return param, diags
		}
		param.Default = literal
	}

	return param, diags
}

// literalOf renders a primitive cty value as the string literal stored on pins.
func literalOf(val cty.Value) (string, error) {
	if val.IsNull() || !val.IsKnown() {
		return "", fmt.Errorf("default must be a known, non-null value")
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("default must be a primitive value")
	}
	return str.AsString(), nil
}

// LoadPath parses every .hcl manifest under path into the catalog.
func (c *Catalog) LoadPath(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Catalog loading manifests...", "path", path)

	filePaths, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		logger.Error("Failed to walk catalog path", "path", path, "error", err)
		return err
	}
	if len(filePaths) == 0 {
		logger.Warn("No .hcl manifest files found in path", "path", path)
		return nil
	}

	parser := hclparse.NewParser()
	for _, filePath := range filePaths {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
		}
		if err := c.addManifest(ctx, hclFile, filePath); err != nil {
			return err
		}
		logger.Debug("Successfully loaded manifest", "file", filePath)
	}

	logger.Info("Catalog loaded successfully.", "functions", len(c.functions), "variables", len(c.variables))
	return nil
}

// LoadSource parses a single in-memory manifest.
func (c *Catalog) LoadSource(ctx context.Context, src []byte, filename string) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	return c.addManifest(ctx, hclFile, filename)
}

func (c *Catalog) addManifest(ctx context.Context, hclFile *hcl.File, filePath string) error {
	functions, variables, diags := ParseManifest(ctx, hclFile, filePath)
	if diags.HasErrors() {
		return fmt.Errorf("failed to process manifest %s: %w", filePath, diags)
	}
	for _, f := range functions {
		if err := c.AddFunction(f); err != nil {
			return err
		}
	}
	for _, v := range variables {
		if err := c.AddVariable(v); err != nil {
			return err
		}
	}
	return nil
}
