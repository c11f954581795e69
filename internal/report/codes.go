package report

// Code is a stable, machine-readable error code.
type Code string

const (
	CodeSpecParseFailed    Code = "SPEC_PARSE_FAILED"
	CodeSpecInvalid        Code = "SPEC_INVALID"
	CodeTargetLoadFailed   Code = "TARGET_LOAD_FAILED"
	CodeTargetNotFound     Code = "TARGET_NOT_FOUND"
	CodeSpawnerUnresolved  Code = "SPAWNER_UNRESOLVED"
	CodeNodeSpawnFailed    Code = "NODE_SPAWN_FAILED"
	CodeLinkNodeMissing    Code = "LINK_NODE_MISSING"
	CodePinNotFound        Code = "PIN_NOT_FOUND"
	CodePinAmbiguous       Code = "PIN_AMBIGUOUS"
	CodeLinkSchemaRejected Code = "LINK_SCHEMA_REJECTED"
	CodeExtraDataInvalid   Code = "EXTRA_DATA_INVALID"
	CodeGraphInvalid       Code = "GRAPH_INVALID"
	CodeSaveFailed         Code = "SAVE_FAILED"
	CodeNodeNotFound       Code = "NODE_NOT_FOUND"
	CodeLinkNotFound       Code = "LINK_NOT_FOUND"
	CodeEditRejected       Code = "EDIT_REJECTED"
	CodeInternalError      Code = "INTERNAL_ERROR"
)

// Step codes recorded in auto_fix_steps and repair_steps.
const (
	FixPinAlias         = "FIX_PIN_ALIAS"
	FixSwapConnection   = "FIX_SWAP_CONNECTION"
	FixInsertConversion = "FIX_INSERT_CONVERSION"
	RepairNodeID        = "REPAIR_NODE_ID"
)
