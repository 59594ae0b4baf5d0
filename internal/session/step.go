package session

import (
	"fmt"
	"strings"
)

// Step is one state of the upload workflow. Steps advance strictly forward
// through the publish pipeline, with a single-step back transition from the
// three middle states.
type Step int

const (
	StepUpload Step = iota
	StepDetails
	StepMint
	StepLicense
	StepComplete
)

var stepNames = map[Step]string{
	StepUpload:   "upload",
	StepDetails:  "details",
	StepMint:     "mint",
	StepLicense:  "license",
	StepComplete: "complete",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Next returns the following step. Complete has no successor.
func (s Step) Next() (Step, bool) {
	if s < StepUpload || s >= StepComplete {
		return s, false
	}
	return s + 1, true
}

// Back returns the preceding step. Upload and Complete do not step back.
func (s Step) Back() (Step, bool) {
	if s <= StepUpload || s >= StepComplete {
		return s, false
	}
	return s - 1, true
}

// ParseStep resolves a step name.
func ParseStep(value string) (Step, error) {
	needle := strings.ToLower(strings.TrimSpace(value))
	for step, name := range stepNames {
		if name == needle {
			return step, nil
		}
	}
	return StepUpload, fmt.Errorf("unknown workflow step %q", value)
}
