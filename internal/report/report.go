package report

import (
	"fmt"
	"slices"
)

// Step is one entry of the auto-fix or repair log.
type Step struct {
	StepIndex       int      `json:"step_index"`
	Code            string   `json:"code"`
	Description     string   `json:"description"`
	AffectedNodeIDs []string `json:"affected_node_ids"`
	AffectedPins    []string `json:"affected_pins,omitempty"`
	Before          string   `json:"before"`
	After           string   `json:"after"`
}

// LinkRef names a link by its endpoints.
type LinkRef struct {
	FromNodeID string `json:"from_node_id"`
	FromPin    string `json:"from_pin"`
	ToNodeID   string `json:"to_node_id"`
	ToPin      string `json:"to_pin"`
}

func (l LinkRef) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", l.FromNodeID, l.FromPin, l.ToNodeID, l.ToPin)
}

// FailedLink records a link that did not end up connected.
type FailedLink struct {
	LinkRef
	Code   Code   `json:"code"`
	Reason string `json:"reason"`
}

// issues carries the warning/error bookkeeping shared by both result types.
type issues struct {
	Warnings   []string `json:"warnings"`
	Errors     []string `json:"errors"`
	ErrorCodes []Code   `json:"error_codes"`
}

func newIssues() issues {
	return issues{Warnings: []string{}, Errors: []string{}, ErrorCodes: []Code{}}
}

// Warn records a recoverable problem. A non-empty code is added to
// error_codes as well.
func (l *issues) Warn(code Code, format string, args ...any) {
	l.Warnings = append(l.Warnings, fmt.Sprintf(format, args...))
	l.AddCode(code)
}

// Fail records a fatal problem.
func (l *issues) Fail(code Code, format string, args ...any) {
	l.Errors = append(l.Errors, fmt.Sprintf(format, args...))
	l.AddCode(code)
}

// AddCode appends code once.
func (l *issues) AddCode(code Code) {
	if code == "" || slices.Contains(l.ErrorCodes, code) {
		return
	}
	l.ErrorCodes = append(l.ErrorCodes, code)
}

// HasCode reports whether code was recorded.
func (l *issues) HasCode(code Code) bool {
	return slices.Contains(l.ErrorCodes, code)
}

// ApplyResult is the full audit trail of one apply call.
type ApplyResult struct {
	Success        bool         `json:"success"`
	CreatedNodeIDs []string     `json:"created_node_ids"`
	UpdatedNodeIDs []string     `json:"updated_node_ids"`
	SkippedNodeIDs []string     `json:"skipped_node_ids"`
	AutoFixSteps   []Step       `json:"auto_fix_steps"`
	RepairSteps    []Step       `json:"repair_steps"`
	SpecMigrated   bool         `json:"spec_migrated"`
	MigrationNotes []string     `json:"migration_notes"`
	DiffNotes      []string     `json:"diff_notes"`
	FailedLinks    []FailedLink `json:"failed_links"`
	ConnectedLinks int          `json:"connected_links"`
	CanonicalHash  string       `json:"canonical_hash"`
	issues
}

// NewApplyResult returns a result whose slices encode as [] rather than null.
func NewApplyResult() *ApplyResult {
	return &ApplyResult{
		CreatedNodeIDs: []string{},
		UpdatedNodeIDs: []string{},
		SkippedNodeIDs: []string{},
		AutoFixSteps:   []Step{},
		RepairSteps:    []Step{},
		MigrationNotes: []string{},
		DiffNotes:      []string{},
		FailedLinks:    []FailedLink{},
		issues:         newIssues(),
	}
}

// FailLink records a failed link as a warning with its code.
func (r *ApplyResult) FailLink(fl FailedLink) {
	r.FailedLinks = append(r.FailedLinks, fl)
	r.Warn(fl.Code, "link %s: %s", fl.LinkRef, fl.Reason)
}

// Created, Updated and Skipped append an id once.
func (r *ApplyResult) Created(id string) { r.CreatedNodeIDs = appendOnce(r.CreatedNodeIDs, id) }
func (r *ApplyResult) Updated(id string) { r.UpdatedNodeIDs = appendOnce(r.UpdatedNodeIDs, id) }
func (r *ApplyResult) Skipped(id string) { r.SkippedNodeIDs = appendOnce(r.SkippedNodeIDs, id) }

// Finalize sets Success from the recorded errors.
func (r *ApplyResult) Finalize() *ApplyResult {
	r.Success = len(r.Errors) == 0
	return r
}

// EditResult is returned by delete_node, delete_link and replace_node.
type EditResult struct {
	Success      bool         `json:"success"`
	NodeID       string       `json:"node_id,omitempty"`
	Relinked     []LinkRef    `json:"relinked"`
	DroppedLinks []FailedLink `json:"dropped_links"`
	issues
}

// NewEditResult returns an empty edit result.
func NewEditResult() *EditResult {
	return &EditResult{
		Relinked:     []LinkRef{},
		DroppedLinks: []FailedLink{},
		issues:       newIssues(),
	}
}

// Finalize sets Success from the recorded errors.
func (r *EditResult) Finalize() *EditResult {
	r.Success = len(r.Errors) == 0
	return r
}

func appendOnce(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
