package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/palletlabs/pallet/pkg/registry"
	"github.com/palletlabs/pallet/pkg/workflow"
)

// ValidateCmd validates a workflow definition file without executing it.
type ValidateCmd struct {
	Path string `arg:"" help:"Path to workflow YAML file." type:"path"`
}

func (c *ValidateCmd) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read workflow file: %w", err)
	}

	def, err := workflow.Load(data)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ %s is valid\n", c.Path)
	fmt.Printf("  ID:      %s\n", def.Metadata.ID)
	fmt.Printf("  Name:    %s\n", def.Metadata.Name)
	fmt.Printf("  Version: %s\n", def.Metadata.Version)
	fmt.Printf("  Steps:   %d (%s)\n", len(def.Steps), strings.Join(stepIDs(def.Steps), ", "))
	return nil
}

func stepIDs(steps []*workflow.Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}

// WorkflowsCmd lists workflows published to the registry.
type WorkflowsCmd struct{}

func (c *WorkflowsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	repos, err := a.registry.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to query registry: %w", err)
	}

	found := false
	for _, repo := range repos {
		if !strings.HasPrefix(repo, registry.WorkflowRepoPrefix) {
			continue
		}
		found = true
		id := strings.TrimPrefix(repo, registry.WorkflowRepoPrefix)
		tags, err := a.registry.Tags(ctx, repo)
		if err != nil {
			fmt.Printf("  %s (tags unavailable: %v)\n", id, err)
			continue
		}
		fmt.Printf("  %s [%s]\n", id, strings.Join(tags, ", "))
	}
	if !found {
		fmt.Println("  (no workflows found)")
	}
	return nil
}

// AgentsCmd lists agents discovered from the registry.
type AgentsCmd struct{}

func (c *AgentsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.lister == nil {
		return fmt.Errorf("registry discovery is disabled by static skill mapping")
	}

	agents, err := a.lister.Agents(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	if len(agents) == 0 {
		fmt.Println("  (no agents found)")
		return nil
	}
	for name, agent := range agents {
		fmt.Printf("  %s (%s)\n", name, agent.URL)
		for _, skill := range agent.Skills {
			fmt.Printf("    - %s: %s\n", skill.ID, skill.Description)
		}
	}
	return nil
}

// SkillsCmd lists skills advertised by discovered agents.
type SkillsCmd struct{}

func (c *SkillsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.lister == nil {
		for skill, endpoint := range a.cfg.Discovery.Static {
			fmt.Printf("  %s -> %s (static)\n", skill, endpoint)
		}
		return nil
	}

	skills, err := a.lister.Skills(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	if len(skills) == 0 {
		fmt.Println("  (no skills found)")
		return nil
	}
	for _, s := range skills {
		fmt.Printf("  %s -> %s (%s)\n", s.ID, s.AgentURL, s.AgentName)
	}
	return nil
}
