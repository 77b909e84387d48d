package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// RunCmd executes a workflow pulled from the registry and prints the
// result as JSON.
type RunCmd struct {
	WorkflowID string `arg:"" help:"Workflow id to execute."`

	Version   string `help:"Workflow version tag." default:"v1"`
	Input     string `help:"Initial input as a JSON object." placeholder:"JSON"`
	InputFile string `name:"input-file" help:"Read initial input from a JSON file." type:"path"`
}

func (c *RunCmd) Run(cli *CLI) error {
	ctx := context.Background()

	input, err := c.parseInput()
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.orch.RunWorkflowByID(ctx, c.WorkflowID, input, c.Version)
	if err != nil {
		return fmt.Errorf("workflow execution failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func (c *RunCmd) parseInput() (map[string]any, error) {
	raw := []byte(c.Input)
	if c.InputFile != "" {
		if c.Input != "" {
			return nil, fmt.Errorf("--input and --input-file are mutually exclusive")
		}
		data, err := os.ReadFile(c.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		raw = data
	}
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var input map[string]any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}
	return input, nil
}
