package autofix

import "github.com/specialistvlad/pinpatch/internal/report"

// State is the fix budget and log shared by every link of one apply.
type State struct {
	Enabled           bool
	InsertConversions bool
	MaxSteps          int
	StepIndex         int
	Steps             []report.Step
}

// NewState creates a budget of maxSteps fixes.
func NewState(enabled, insertConversions bool, maxSteps int) *State {
	return &State{
		Enabled:           enabled,
		InsertConversions: insertConversions,
		MaxSteps:          maxSteps,
		Steps:             []report.Step{},
	}
}

// fits reports whether one more fix may be taken after pending unrecorded
// ones.
func (s *State) fits(pending int) bool {
	return s.Enabled && s.StepIndex+pending < s.MaxSteps
}

func (s *State) record(step report.Step) {
	step.StepIndex = s.StepIndex
	s.StepIndex++
	s.Steps = append(s.Steps, step)
}
