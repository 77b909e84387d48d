package workflow

import "sync"

// ExecutionContext holds the mutable state of a single workflow run: the
// initial input and the outputs of completed steps. It is owned by one
// engine run but must tolerate concurrent inserts from parallel groups.
type ExecutionContext struct {
	mu            sync.RWMutex
	workflowInput map[string]any
	stepOutputs   map[string]map[string]any
}

// NewExecutionContext creates a context for a run with the given initial
// input. A nil input is treated as empty.
func NewExecutionContext(input map[string]any) *ExecutionContext {
	if input == nil {
		input = map[string]any{}
	}
	return &ExecutionContext{
		workflowInput: input,
		stepOutputs:   make(map[string]map[string]any),
	}
}

// SetStepOutput records a completed step's output under its step id as
// {"outputs": output}. A prior value for the same id is overwritten
// silently; enforcing id uniqueness is the loader's concern.
func (ec *ExecutionContext) SetStepOutput(stepID string, output any) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.stepOutputs[stepID] = map[string]any{"outputs": output}
}

// WorkflowInput returns the run's initial input.
func (ec *ExecutionContext) WorkflowInput() map[string]any {
	return ec.workflowInput
}

// StepOutput returns the recorded {"outputs": ...} entry for a step id.
func (ec *ExecutionContext) StepOutput(stepID string) (map[string]any, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	out, ok := ec.stepOutputs[stepID]
	return out, ok
}

// StepOutputs returns a shallow snapshot of all recorded step outputs.
func (ec *ExecutionContext) StepOutputs() map[string]map[string]any {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	snapshot := make(map[string]map[string]any, len(ec.stepOutputs))
	for id, out := range ec.stepOutputs {
		snapshot[id] = out
	}
	return snapshot
}
