// internal/common/errors/steps.go
package errors

import (
	"fmt"
	"strings"
)

// StepResult records the outcome of one step of a multi-step orchestration
// or one strategy of a fallback chain.
type StepResult struct {
	Step string `json:"step"`
	OK   bool   `json:"ok"`
	Err  error  `json:"-"`
}

// StepErrors collects the failed steps of an ordered strategy chain. It is
// the shared result type for primary/fallback sequences; the chain succeeds
// as soon as any strategy does.
type StepErrors struct {
	Results []StepResult
}

func (s *StepErrors) Record(step string, err error) {
	s.Results = append(s.Results, StepResult{Step: step, OK: err == nil, Err: err})
}

// Succeeded reports whether any recorded step completed without error.
func (s *StepErrors) Succeeded() bool {
	for _, r := range s.Results {
		if r.OK {
			return true
		}
	}
	return false
}

func (s *StepErrors) Error() string {
	if len(s.Results) == 0 {
		return "no steps attempted"
	}
	parts := make([]string, 0, len(s.Results))
	for _, r := range s.Results {
		if r.OK {
			parts = append(parts, fmt.Sprintf("%s: ok", r.Step))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %v", r.Step, r.Err))
		}
	}
	return strings.Join(parts, "; ")
}
