package testutil

import (
	"context"
	"testing"

	"github.com/specialistvlad/pinpatch/internal/catalog"
	"github.com/specialistvlad/pinpatch/internal/registry"
	"github.com/stretchr/testify/require"
)

// Manifest is the catalog most tests run against.
const Manifest = `
function "Math.AddInt" {
  pure = true
  description = "Adds two integers."
  input "A" { type = int }
  input "B" {
    type    = int
    default = 1
  }
  output "ReturnValue" { type = int }
}

function "adder" {
  description = "Adds B to A and continues."
  input "A" { type = int }
  input "B" { type = int }
  output "ReturnValue" { type = int }
}

function "Actor.IsAlive" {
  pure = true
  input "self" { type = object }
  output "ReturnValue" { type = bool }
}

function "Actor.Destroy" {
  input "self" { type = object }
}

function "String.Append" {
  pure = true
  input "A" { type = string }
  input "B" { type = string }
  output "ReturnValue" { type = string }
}

variable "Health" {
  owner = "BP_Player"
  type  = float
}

variable "Label" {
  type = text
}
`

// NewCatalog returns a catalog loaded with Manifest.
func NewCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	require.NoError(t, c.LoadSource(context.Background(), []byte(Manifest), "testutil.hcl"))
	return c
}

// NewRegistry returns a validated registry over NewCatalog with the
// built-in migration tables.
func NewRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(NewCatalog(t), "")
	require.NoError(t, reg.Validate(context.Background()))
	return reg
}
