package migration

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/fsutil"
)

// fileSchema is the top-level structure of a migration file:
//
//	node_kind_alias "K2Node_CallFunction" { to = "call" }
//	function_alias "Old.Fn" { to = "New.Fn" }
//	pin_alias "ReturnValue" {
//	  node_kind = "call"
//	  aliases   = ["Return Value"]
//	}
type fileSchema struct {
	NodeKinds []*hclRename  `hcl:"node_kind_alias,block"`
	Functions []*hclRename  `hcl:"function_alias,block"`
	Pins      []*hclPinRule `hcl:"pin_alias,block"`
}

type hclRename struct {
	From string `hcl:"from,label"`
	To   string `hcl:"to"`
}

type hclPinRule struct {
	Canonical string   `hcl:"canonical,label"`
	NodeKind  *string  `hcl:"node_kind,optional"`
	Function  *string  `hcl:"function,optional"`
	Aliases   []string `hcl:"aliases"`
}

// ParseFile decodes one migration file into tables.
func ParseFile(hclFile *hcl.File) (*Tables, hcl.Diagnostics) {
	var body fileSchema
	diags := gohcl.DecodeBody(hclFile.Body, nil, &body)
	if diags.HasErrors() {
		return nil, diags
	}

	t := NewTables()
	for _, r := range body.NodeKinds {
		t.NodeKinds[r.From] = r.To
	}
	for _, r := range body.Functions {
		t.Functions[r.From] = r.To
	}
	for _, r := range body.Pins {
		rule := PinAlias{Canonical: r.Canonical, Aliases: r.Aliases}
		if r.NodeKind != nil {
			rule.NodeKind = *r.NodeKind
		}
		if r.Function != nil {
			rule.Function = *r.Function
		}
		for _, a := range rule.Aliases {
			if a == rule.Canonical {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Alias equals canonical name",
					Detail:   fmt.Sprintf("pin_alias %q lists itself as an alias.", rule.Canonical),
				})
			}
		}
		t.Pins = append(t.Pins, rule)
	}
	return t, diags
}

// LoadPath returns the built-in defaults merged with every .hcl file under
// path. An empty path, or one that does not exist, yields the defaults.
func LoadPath(ctx context.Context, path string) (*Tables, error) {
	logger := ctxlog.FromContext(ctx)
	tables := Defaults()
	if path == "" {
		return tables, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug("Migration path does not exist, using built-in tables.", "path", path)
		return tables, nil
	}

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to walk migration path %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		t, diags := ParseFile(hclFile)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode migration file %s: %w", file, diags)
		}
		tables.Merge(t)
		logger.Debug("Loaded migration file", "file", file, "node_kinds", len(t.NodeKinds), "functions", len(t.Functions), "pins", len(t.Pins))
	}
	return tables, nil
}

// Loader loads the tables on first use and hands out the same instance
// afterwards. A fresh process is needed to pick up file changes.
type Loader struct {
	path string

	once   sync.Once
	tables *Tables
	err    error
}

// NewLoader creates a loader for the given directory or file.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Tables returns the loaded tables, loading them on the first call.
func (l *Loader) Tables(ctx context.Context) (*Tables, error) {
	l.once.Do(func() {
		l.tables, l.err = LoadPath(ctx, l.path)
	})
	return l.tables, l.err
}
