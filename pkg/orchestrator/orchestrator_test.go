package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/palletlabs/pallet/pkg/discovery"
	"github.com/palletlabs/pallet/pkg/workflow"
)

// fakeStore serves workflow documents from memory.
type fakeStore struct {
	docs map[string][]byte // "id:version" -> document
}

func (s *fakeStore) PullWorkflow(_ context.Context, workflowID, version string) ([]byte, error) {
	doc, ok := s.docs[workflowID+":"+version]
	if !ok {
		return nil, fmt.Errorf("workflow %s:%s does not exist", workflowID, version)
	}
	return doc, nil
}

type echoInvoker struct{}

func (echoInvoker) Invoke(_ context.Context, _, skillID string, params map[string]any) (any, error) {
	return map[string]any{"skill": skillID, "params": params}, nil
}

var testResolver = discovery.Static{
	"create_plan": "http://localhost:8001",
	"write_code":  "http://localhost:8002",
}

const planBuildYAML = `
metadata:
  id: gen
  name: Gen
  version: v1
steps:
  - id: plan
    skill: create_plan
    inputs:
      task: "{{ workflow.input.task_description }}"
  - id: build
    skill: write_code
    outputs: result
    inputs:
      plan: "{{ steps.plan.outputs.skill }}"
`

func TestRunWorkflowByID(t *testing.T) {
	store := &fakeStore{docs: map[string][]byte{
		"gen:v1": []byte(planBuildYAML),
	}}
	o := New(store, testResolver, echoInvoker{})

	result, err := o.RunWorkflowByID(context.Background(), "gen", map[string]any{
		"task_description": "do it",
	}, "v1")
	if err != nil {
		t.Fatalf("RunWorkflowByID() error = %v", err)
	}

	if result.WorkflowID != "gen" || result.WorkflowName != "Gen" || result.WorkflowVersion != "v1" {
		t.Errorf("metadata = %s/%s/%s", result.WorkflowID, result.WorkflowName, result.WorkflowVersion)
	}
	if result.InitialInput["task_description"] != "do it" {
		t.Errorf("InitialInput = %v", result.InitialInput)
	}
	if len(result.StepOutputs) != 2 {
		t.Errorf("StepOutputs = %v", result.StepOutputs)
	}

	// Final output is the last declared step's outputs payload;
	// the declared outputs name wraps the raw result.
	final, ok := result.FinalOutput.(map[string]any)
	if !ok {
		t.Fatalf("FinalOutput = %T", result.FinalOutput)
	}
	if _, ok := final["result"]; !ok {
		t.Errorf("FinalOutput = %v, want result key", final)
	}
}

func TestRunWorkflowByID_DefaultVersion(t *testing.T) {
	store := &fakeStore{docs: map[string][]byte{
		"gen:v1": []byte(planBuildYAML),
	}}
	o := New(store, testResolver, echoInvoker{})

	if _, err := o.RunWorkflowByID(context.Background(), "gen", nil, ""); err != nil {
		t.Fatalf("RunWorkflowByID() error = %v", err)
	}
}

func TestRunWorkflowByID_NotFound(t *testing.T) {
	o := New(&fakeStore{}, testResolver, echoInvoker{})

	_, err := o.RunWorkflowByID(context.Background(), "missing", nil, "v1")
	if err == nil {
		t.Fatal("RunWorkflowByID() error = nil, want error")
	}
}

func TestRunWorkflowByID_InvalidDocument(t *testing.T) {
	store := &fakeStore{docs: map[string][]byte{
		"bad:v1": []byte("metadata:\n  id: bad\n"),
	}}
	o := New(store, testResolver, echoInvoker{})

	_, err := o.RunWorkflowByID(context.Background(), "bad", nil, "v1")
	var cfgErr *workflow.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want ConfigurationError", err)
	}
}

func TestRunDefinition_NoFinalOutputFromSilentSwitch(t *testing.T) {
	// A switch with no matching case and no default records nothing, so
	// the run completes with a nil final output.
	def := &workflow.Definition{
		Metadata: workflow.Metadata{ID: "x", Name: "X", Version: "v1"},
		Steps: []*workflow.Step{
			{ID: "plan", Skill: "create_plan"},
			{
				ID:        "choose",
				Type:      workflow.StepTypeSwitch,
				Condition: "{{ workflow.input.mode }}",
				Branches: map[string][]*workflow.Step{
					"fast": {{ID: "f", Skill: "write_code"}},
				},
			},
		},
	}

	o := New(&fakeStore{}, testResolver, echoInvoker{})
	result, err := o.RunDefinition(context.Background(), def, map[string]any{"mode": "slow"})
	if err != nil {
		t.Fatalf("RunDefinition() error = %v", err)
	}
	if result.FinalOutput != nil {
		t.Errorf("FinalOutput = %v, want nil", result.FinalOutput)
	}
	if len(result.StepOutputs) != 1 {
		t.Errorf("StepOutputs = %v, want only plan", result.StepOutputs)
	}
}

func TestRunDefinition_ExecutionFailurePropagates(t *testing.T) {
	def := &workflow.Definition{
		Metadata: workflow.Metadata{ID: "x", Name: "X", Version: "v1"},
		Steps: []*workflow.Step{
			{ID: "plan", Skill: "unmapped_skill"},
		},
	}

	o := New(&fakeStore{}, testResolver, echoInvoker{})
	_, err := o.RunDefinition(context.Background(), def, nil)

	var notFound *workflow.SkillNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want SkillNotFoundError", err)
	}
}
