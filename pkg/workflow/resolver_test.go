package workflow

import (
	"reflect"
	"testing"
)

func newTestContext() *ExecutionContext {
	ec := NewExecutionContext(map[string]any{
		"task_description": "build a parser",
		"options": map[string]any{
			"language": "go",
		},
	})
	ec.SetStepOutput("plan", map[string]any{
		"plan": "1. write lexer\n2. write parser",
		"step_count": 2,
	})
	return ec
}

func TestResolveExpression_WorkflowInput(t *testing.T) {
	ec := newTestContext()

	got := ec.ResolveExpression("{{ workflow.input.task_description }}")
	if got != "build a parser" {
		t.Errorf("ResolveExpression = %v, want %v", got, "build a parser")
	}
}

func TestResolveExpression_NestedInput(t *testing.T) {
	ec := newTestContext()

	got := ec.ResolveExpression("{{ workflow.input.options.language }}")
	if got != "go" {
		t.Errorf("ResolveExpression = %v, want %v", got, "go")
	}
}

func TestResolveExpression_StepOutputs(t *testing.T) {
	ec := newTestContext()

	got := ec.ResolveExpression("{{ steps.plan.outputs.plan }}")
	if got != "1. write lexer\n2. write parser" {
		t.Errorf("ResolveExpression = %v, want %v", got, "1. write lexer\n2. write parser")
	}
}

func TestResolveExpression_WholeOutputs(t *testing.T) {
	ec := newTestContext()

	got := ec.ResolveExpression("{{ steps.plan.outputs }}")
	want := map[string]any{
		"plan": "1. write lexer\n2. write parser",
		"step_count": 2,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveExpression = %v, want %v", got, want)
	}
}

func TestResolveExpression_NotFound(t *testing.T) {
	ec := newTestContext()

	tests := []struct {
		name string
		expr string
	}{
		{"missing input key", "{{ workflow.input.missing }}"},
		{"missing step", "{{ steps.build.outputs }}"},
		{"missing output key", "{{ steps.plan.outputs.missing }}"},
		{"unknown root", "{{ environment.home }}"},
		{"bare workflow", "{{ workflow }}"},
		{"bare steps", "{{ steps }}"},
		{"empty expression", "{{ }}"},
		{"path through scalar", "{{ steps.plan.outputs.plan.deeper }}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ec.ResolveExpression(tt.expr); got != nil {
				t.Errorf("ResolveExpression(%q) = %v, want nil", tt.expr, got)
			}
		})
	}
}

func TestResolveExpression_NonTemplates(t *testing.T) {
	ec := newTestContext()

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"plain string", "hello", "hello"},
		{"partial template", "prefix {{ workflow.input.task_description }}", "prefix {{ workflow.input.task_description }}"},
		{"integer", 42, 42},
		{"bool", true, true},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ec.ResolveExpression(tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveExpression(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestResolveExpression_WhitespaceTolerant(t *testing.T) {
	ec := newTestContext()

	for _, expr := range []string{
		"{{workflow.input.task_description}}",
		"{{   workflow.input.task_description   }}",
		"  {{ workflow.input.task_description }}  ",
	} {
		if got := ec.ResolveExpression(expr); got != "build a parser" {
			t.Errorf("ResolveExpression(%q) = %v, want %v", expr, got, "build a parser")
		}
	}
}

func TestResolveInputs(t *testing.T) {
	ec := newTestContext()

	inputs := map[string]any{
		"task":    "{{ workflow.input.task_description }}",
		"literal": "no template here",
		"count":   3,
		"nested": map[string]any{
			"plan": "{{ steps.plan.outputs.plan }}",
		},
		"list": []any{
			"{{ workflow.input.task_description }}",
			7,
			map[string]any{"inner": "{{ steps.plan.outputs.plan }}"},
		},
	}

	got := ec.ResolveInputs(inputs)

	want := map[string]any{
		"task":    "build a parser",
		"literal": "no template here",
		"count":   3,
		"nested": map[string]any{
			"plan": "1. write lexer\n2. write parser",
		},
		"list": []any{
			"build a parser",
			7,
			// Maps inside sequences are not resolved.
			map[string]any{"inner": "{{ steps.plan.outputs.plan }}"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveInputs = %v, want %v", got, want)
	}
}

func TestResolveInputs_DoesNotMutateOriginal(t *testing.T) {
	ec := newTestContext()

	inputs := map[string]any{"task": "{{ workflow.input.task_description }}"}
	_ = ec.ResolveInputs(inputs)

	if inputs["task"] != "{{ workflow.input.task_description }}" {
		t.Errorf("original inputs mutated: %v", inputs["task"])
	}
}
