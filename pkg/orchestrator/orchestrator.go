// Package orchestrator is the thin driver over the workflow engine: it
// pulls a workflow document from the artifact store, runs it, and shapes
// the final result.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/palletlabs/pallet/pkg/workflow"
)

// WorkflowStore fetches workflow documents by id and version. The
// registry client satisfies it.
type WorkflowStore interface {
	PullWorkflow(ctx context.Context, workflowID, version string) ([]byte, error)
}

// Result is the outcome of a completed workflow run.
type Result struct {
	WorkflowID      string                    `json:"workflow_id"`
	WorkflowName    string                    `json:"workflow_name"`
	WorkflowVersion string                    `json:"workflow_version"`
	InitialInput    map[string]any            `json:"initial_input"`
	StepOutputs     map[string]map[string]any `json:"step_outputs"`
	FinalOutput     any                       `json:"final_output"`
}

// Orchestrator wires the store, discovery, and invoker into runs.
type Orchestrator struct {
	store    WorkflowStore
	resolver workflow.SkillResolver
	invoker  workflow.Invoker
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an orchestrator.
func New(store WorkflowStore, resolver workflow.SkillResolver, invoker workflow.Invoker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		resolver: resolver,
		invoker:  invoker,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunWorkflowByID pulls workflows/<id>:<version> from the store, parses
// and validates it, and executes it with the given input.
func (o *Orchestrator) RunWorkflowByID(ctx context.Context, workflowID string, input map[string]any, version string) (*Result, error) {
	if version == "" {
		version = "v1"
	}

	o.logger.Info("running workflow", "workflow", workflowID, "version", version)

	data, err := o.store.PullWorkflow(ctx, workflowID, version)
	if err != nil {
		return nil, fmt.Errorf("workflow %s:%s not found: %w", workflowID, version, err)
	}

	def, err := workflow.Load(data)
	if err != nil {
		return nil, err
	}

	return o.RunDefinition(ctx, def, input)
}

// RunDefinition executes an already loaded definition. A fresh engine is
// built per run so the skill-endpoint cache never leaks across runs.
func (o *Orchestrator) RunDefinition(ctx context.Context, def *workflow.Definition, input map[string]any) (*Result, error) {
	engine := workflow.NewEngine(o.resolver, o.invoker, workflow.WithLogger(o.logger))

	ec, err := engine.ExecuteWorkflow(ctx, def, input)
	if err != nil {
		return nil, err
	}

	result := &Result{
		WorkflowID:      def.Metadata.ID,
		WorkflowName:    def.Metadata.Name,
		WorkflowVersion: def.Metadata.Version,
		InitialInput:    input,
		StepOutputs:     ec.StepOutputs(),
		FinalOutput:     finalOutput(def, ec),
	}

	o.logger.Info("workflow completed", "workflow", def.Metadata.ID, "steps", len(result.StepOutputs))
	return result, nil
}

// finalOutput is the outputs payload of the last top-level step in
// declaration order. A run whose last step recorded nothing (an
// unmatched switch with no default) has no final output.
func finalOutput(def *workflow.Definition, ec *workflow.ExecutionContext) any {
	if len(def.Steps) == 0 {
		return nil
	}
	last := def.Steps[len(def.Steps)-1]
	record, ok := ec.StepOutput(last.ID)
	if !ok {
		return nil
	}
	return record["outputs"]
}
