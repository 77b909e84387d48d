package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Engine walks a workflow's step list and drives the four execution
// patterns. A fresh ExecutionContext is built per run; the engine itself
// carries no per-run state and may execute multiple workflows.
type Engine struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine dispatching through the given resolver and
// invoker. The skill-endpoint cache lives on the per-engine dispatcher.
func NewEngine(resolver SkillResolver, invoker Invoker, opts ...EngineOption) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.dispatcher = NewDispatcher(resolver, invoker, e.logger)
	return e
}

// ExecuteWorkflow runs a workflow definition against an initial input and
// returns the populated context. Top-level steps run strictly in
// declaration order; the first failure aborts the run, leaving outputs of
// already completed steps in the returned context for diagnostics.
func (e *Engine) ExecuteWorkflow(ctx context.Context, def *Definition, input map[string]any) (*ExecutionContext, error) {
	ec := NewExecutionContext(input)

	e.logger.Info("executing workflow",
		"workflow", def.Metadata.ID,
		"version", def.Metadata.Version,
		"steps", len(def.Steps))

	for _, step := range def.Steps {
		if err := ctx.Err(); err != nil {
			return ec, err
		}
		if err := e.executeStep(ctx, step, ec); err != nil {
			return ec, err
		}
	}
	return ec, nil
}

// executeStep dispatches one step to its pattern handler. Nested branch
// steps come back through here, so branches may themselves contain
// parallel or branching steps.
func (e *Engine) executeStep(ctx context.Context, step *Step, ec *ExecutionContext) error {
	switch step.Type {
	case StepTypeSequential, "":
		return e.executeSequentialStep(ctx, step, ec)
	case StepTypeParallel:
		return e.executeParallelStep(ctx, step, ec)
	case StepTypeConditional:
		return e.executeConditionalStep(ctx, step, ec)
	case StepTypeSwitch:
		return e.executeSwitchStep(ctx, step, ec)
	default:
		return &ConfigurationError{StepID: step.ID, Reason: fmt.Sprintf("unknown step type: %s", step.Type)}
	}
}

// executeSequentialStep resolves the step's inputs, invokes its skill,
// and records the result.
func (e *Engine) executeSequentialStep(ctx context.Context, step *Step, ec *ExecutionContext) error {
	params := ec.ResolveInputs(step.Inputs)

	e.logger.Debug("dispatching step", "step", step.ID, "skill", step.Skill)

	result, err := e.dispatcher.Dispatch(ctx, step, params)
	if err != nil {
		return fmt.Errorf("step %q failed: %w", step.ID, err)
	}

	ec.SetStepOutput(step.ID, e.namespaceOutput(step, result))
	return nil
}

// namespaceOutput applies the step's outputs name if one is declared.
func (e *Engine) namespaceOutput(step *Step, result any) any {
	if step.Outputs != "" {
		return map[string]any{step.Outputs: result}
	}
	return result
}

// executeParallelStep fans the branches.steps list out concurrently and
// waits for all of them at the fan-in barrier. The first failure cancels
// the group context; in-flight siblings observe the cancellation and
// their results are discarded rather than recorded.
func (e *Engine) executeParallelStep(ctx context.Context, step *Step, ec *ExecutionContext) error {
	group := step.Branches[BranchSteps]
	if group == nil {
		return &ConfigurationError{StepID: step.ID, Reason: "parallel step missing branches.steps"}
	}

	e.logger.Debug("executing parallel group", "step", step.ID, "size", len(group))

	g, gctx := errgroup.WithContext(ctx)
	for _, nested := range group {
		nested := nested
		g.Go(func() error {
			return e.executeStep(gctx, nested, ec)
		})
	}
	return g.Wait()
}

// executeConditionalStep resolves the condition and runs the selected
// branch's steps in order. The other branch's steps are never touched.
func (e *Engine) executeConditionalStep(ctx context.Context, step *Step, ec *ExecutionContext) error {
	if step.Condition == "" {
		return &ConfigurationError{StepID: step.ID, Reason: "conditional step missing condition"}
	}
	if step.Branches == nil {
		return &ConfigurationError{StepID: step.ID, Reason: "conditional step missing branches"}
	}

	value := ec.ResolveExpression(step.Condition)

	branch := BranchIfFalse
	if isTruthy(value) {
		branch = BranchIfTrue
	}

	e.logger.Debug("conditional branch selected", "step", step.ID, "branch", branch)

	return e.executeBranch(ctx, step.Branches[branch], ec)
}

// executeSwitchStep resolves the condition, stringifies it, and runs the
// matching case's steps. An unmatched value falls back to the default
// branch; with no default the step is a silent no-op.
func (e *Engine) executeSwitchStep(ctx context.Context, step *Step, ec *ExecutionContext) error {
	if step.Condition == "" {
		return &ConfigurationError{StepID: step.ID, Reason: "switch step missing condition"}
	}
	if step.Branches == nil {
		return &ConfigurationError{StepID: step.ID, Reason: "switch step missing branches"}
	}

	value := ec.ResolveExpression(step.Condition)
	key := fmt.Sprintf("%v", value)

	branch, ok := step.Branches[key]
	if !ok {
		branch, ok = step.Branches[BranchDefault]
		if !ok {
			e.logger.Debug("switch matched no case, skipping", "step", step.ID, "value", key)
			return nil
		}
	}

	e.logger.Debug("switch case selected", "step", step.ID, "value", key)

	return e.executeBranch(ctx, branch, ec)
}

// executeBranch runs a branch's steps one at a time, in order.
func (e *Engine) executeBranch(ctx context.Context, steps []*Step, ec *ExecutionContext) error {
	for _, nested := range steps {
		if err := e.executeStep(ctx, nested, ec); err != nil {
			return err
		}
	}
	return nil
}

// isTruthy reports whether a resolved condition value counts as true.
// Follows general truthiness rules: nil, false, zero numbers, and empty
// strings, slices, and maps are false.
func isTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
