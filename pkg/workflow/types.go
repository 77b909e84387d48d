// Package workflow implements the workflow execution core: the document
// model, template resolution against run state, and the step execution
// engine driving sequential, parallel, conditional, and switch patterns.
package workflow

import (
	"fmt"
	"time"
)

// DefaultStepTimeout applies when a step does not declare its own timeout.
const DefaultStepTimeout = 300 * time.Second

// StepType selects the execution pattern for a step.
type StepType string

const (
	StepTypeSequential  StepType = "sequential"
	StepTypeParallel    StepType = "parallel"
	StepTypeConditional StepType = "conditional"
	StepTypeSwitch      StepType = "switch"
)

// ParseStepType converts a string tag to a StepType.
// The empty string defaults to sequential.
func ParseStepType(s string) (StepType, error) {
	switch s {
	case "", "sequential":
		return StepTypeSequential, nil
	case "parallel":
		return StepTypeParallel, nil
	case "conditional":
		return StepTypeConditional, nil
	case "switch":
		return StepTypeSwitch, nil
	default:
		return "", fmt.Errorf("unknown step type: %s", s)
	}
}

// Branch keys with fixed meaning per step type.
const (
	BranchIfTrue  = "if_true"
	BranchIfFalse = "if_false"
	BranchDefault = "default"
	BranchSteps   = "steps"
)

// Metadata identifies a workflow document. Immutable once loaded.
type Metadata struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Version     string   `yaml:"version" json:"version"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Tags        []string `yaml:"tags" json:"tags,omitempty"`
}

// Step is a single unit of work in a workflow.
//
// Inputs may contain template expressions ({{ ... }} strings) anywhere,
// including in nested maps and sequences. Branches holds the nested step
// lists for parallel, conditional, and switch steps; its keys depend on
// the step type. Steps are declarative and never mutated after load.
type Step struct {
	ID        string             `yaml:"id" json:"id"`
	Skill     string             `yaml:"skill" json:"skill"`
	Inputs    map[string]any     `yaml:"inputs" json:"inputs,omitempty"`
	Outputs   string             `yaml:"outputs" json:"outputs,omitempty"`
	Timeout   int                `yaml:"timeout" json:"timeout,omitempty"`
	Type      StepType           `yaml:"step_type" json:"step_type,omitempty"`
	Condition string             `yaml:"condition" json:"condition,omitempty"`
	Branches  map[string][]*Step `yaml:"branches" json:"branches,omitempty"`
}

// UnmarshalYAML applies step defaults after decoding.
func (s *Step) UnmarshalYAML(unmarshal func(any) error) error {
	type rawStep Step
	var raw rawStep
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*s = Step(raw)
	s.applyDefaults()
	return nil
}

func (s *Step) applyDefaults() {
	if s.Type == "" {
		s.Type = StepTypeSequential
	}
	if s.Timeout <= 0 {
		s.Timeout = int(DefaultStepTimeout / time.Second)
	}
}

// TimeoutDuration returns the step timeout as a time.Duration.
func (s *Step) TimeoutDuration() time.Duration {
	if s.Timeout <= 0 {
		return DefaultStepTimeout
	}
	return time.Duration(s.Timeout) * time.Second
}

// Definition is a complete workflow document: metadata plus the ordered
// top-level step list. ErrorHandling is accepted but not interpreted by
// the engine; it is carried through for external policy layers.
type Definition struct {
	Metadata      Metadata       `yaml:"metadata" json:"metadata"`
	Steps         []*Step        `yaml:"steps" json:"steps"`
	ErrorHandling map[string]any `yaml:"error_handling" json:"error_handling,omitempty"`
}
