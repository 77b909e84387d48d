package workflow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Load parses a workflow document from YAML and validates the whole step
// tree, including steps nested inside branches. Validating eagerly means
// a malformed step that is only reachable through a never-taken branch
// still fails at load time rather than never surfacing.
func Load(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse workflow document: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the document's metadata and every step in the tree.
func (d *Definition) Validate() error {
	if d.Metadata.ID == "" {
		return &ConfigurationError{Reason: "metadata.id is required"}
	}
	if d.Metadata.Name == "" {
		return &ConfigurationError{Reason: "metadata.name is required"}
	}
	if d.Metadata.Version == "" {
		return &ConfigurationError{Reason: "metadata.version is required"}
	}
	if len(d.Steps) == 0 {
		return &ConfigurationError{Reason: "workflow has no steps"}
	}

	seen := make(map[string]struct{})
	for _, step := range d.Steps {
		if err := validateStep(step, seen); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks one step and recurses into its branches. The seen
// set spans the entire tree so duplicate ids are rejected even across
// sibling branches.
func validateStep(step *Step, seen map[string]struct{}) error {
	if step == nil {
		return &ConfigurationError{Reason: "step is null"}
	}
	if step.ID == "" {
		return &ConfigurationError{Reason: "step id is required"}
	}
	if _, dup := seen[step.ID]; dup {
		return &ConfigurationError{StepID: step.ID, Reason: "duplicate step id"}
	}
	seen[step.ID] = struct{}{}

	step.applyDefaults()
	if _, err := ParseStepType(string(step.Type)); err != nil {
		return &ConfigurationError{StepID: step.ID, Reason: err.Error()}
	}

	switch step.Type {
	case StepTypeSequential:
		if step.Skill == "" {
			return &ConfigurationError{StepID: step.ID, Reason: "skill is required"}
		}

	case StepTypeParallel:
		if step.Branches == nil || step.Branches[BranchSteps] == nil {
			return &ConfigurationError{StepID: step.ID, Reason: "parallel step missing branches.steps"}
		}

	case StepTypeConditional:
		if step.Condition == "" {
			return &ConfigurationError{StepID: step.ID, Reason: "conditional step missing condition"}
		}
		if step.Branches == nil {
			return &ConfigurationError{StepID: step.ID, Reason: "conditional step missing branches"}
		}

	case StepTypeSwitch:
		if step.Condition == "" {
			return &ConfigurationError{StepID: step.ID, Reason: "switch step missing condition"}
		}
		if step.Branches == nil {
			return &ConfigurationError{StepID: step.ID, Reason: "switch step missing branches"}
		}
	}

	for _, branch := range step.Branches {
		for _, nested := range branch {
			if err := validateStep(nested, seen); err != nil {
				return err
			}
		}
	}
	return nil
}
