package web

import "fmt"

// State is the lifecycle of one form submission.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Submission tracks a form through idle -> submitting -> success | failed.
// Terminal states may be submitted again.
type Submission struct {
	state State
}

func NewSubmission() *Submission {
	return &Submission{state: StateIdle}
}

func (s *Submission) State() State { return s.state }

// Begin moves to submitting. A submission already in flight is rejected.
func (s *Submission) Begin() error {
	switch s.state {
	case StateIdle, StateSuccess, StateFailed:
		s.state = StateSubmitting
		return nil
	default:
		return s.illegal(StateSubmitting)
	}
}

func (s *Submission) Succeed() error {
	return s.finish(StateSuccess)
}

func (s *Submission) Fail() error {
	return s.finish(StateFailed)
}

func (s *Submission) finish(to State) error {
	if s.state != StateSubmitting {
		return s.illegal(to)
	}
	s.state = to
	return nil
}

func (s *Submission) illegal(to State) error {
	return fmt.Errorf("illegal submission transition %s -> %s", s.state, to)
}
