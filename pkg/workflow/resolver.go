package workflow

import (
	"regexp"
	"strings"
)

// Template expressions have the form {{ path.to.value }} and are only
// recognized when the whole (trimmed) string is a single expression.
// Partially templated text is treated as a literal.
var templatePattern = regexp.MustCompile(`^\{\{\s*(.*?)\s*\}\}$`)

// ResolveExpression resolves a single value against the context.
//
// Non-string values pass through unchanged. Strings that are not a full
// template expression are returned as-is. Recognized roots are
// "workflow.input" and "steps.<id>.outputs"; any other root, an empty
// expression, or a path that walks off the recorded data resolves to nil.
func (ec *ExecutionContext) ResolveExpression(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}

	m := templatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return s
	}
	expr := m[1]
	if expr == "" {
		return nil
	}

	path := strings.Split(expr, ".")

	var data any
	switch path[0] {
	case "workflow":
		if len(path) < 2 || path[1] != "input" {
			return nil
		}
		data = any(ec.workflowInput)
		path = path[2:]
	case "steps":
		if len(path) < 2 {
			return nil
		}
		record, ok := ec.StepOutput(path[1])
		if !ok {
			return nil
		}
		// The record is {"outputs": ...}, so the next segment is
		// expected to be the literal "outputs".
		data = any(record)
		path = path[2:]
	default:
		return nil
	}

	for _, key := range path {
		m, ok := data.(map[string]any)
		if !ok {
			return nil
		}
		data, ok = m[key]
		if !ok {
			return nil
		}
	}
	return data
}

// ResolveInputs resolves every template expression in an inputs map,
// returning a new map. Nested maps are resolved recursively. In
// sequences, only string elements are resolved; non-string elements,
// including nested maps inside sequences, pass through untouched. This
// mirrors the documented behavior of the workflow format and must not
// be deepened silently.
func (ec *ExecutionContext) ResolveInputs(inputs map[string]any) map[string]any {
	resolved := make(map[string]any, len(inputs))
	for key, value := range inputs {
		switch v := value.(type) {
		case string:
			resolved[key] = ec.ResolveExpression(v)
		case map[string]any:
			resolved[key] = ec.ResolveInputs(v)
		case []any:
			items := make([]any, len(v))
			for i, item := range v {
				if s, ok := item.(string); ok {
					items[i] = ec.ResolveExpression(s)
				} else {
					items[i] = item
				}
			}
			resolved[key] = items
		default:
			resolved[key] = value
		}
	}
	return resolved
}
