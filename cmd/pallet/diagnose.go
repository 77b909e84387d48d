package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/palletlabs/pallet/pkg/registry"
	"github.com/palletlabs/pallet/pkg/workflow"
)

// DiagnoseCmd groups debugging subcommands.
type DiagnoseCmd struct {
	Health   DiagnoseHealthCmd   `cmd:"" help:"Check registry and agent health."`
	Workflow DiagnoseWorkflowCmd `cmd:"" help:"Pull and validate a workflow from the registry."`
	Skill    DiagnoseSkillCmd    `cmd:"" help:"Resolve a skill to an agent endpoint."`
}

// DiagnoseHealthCmd checks system readiness: registry reachability,
// discovered agents, and published workflows.
type DiagnoseHealthCmd struct{}

func (c *DiagnoseHealthCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	healthy := true

	fmt.Println("[Registry]")
	if a.registry.Ping(ctx) {
		fmt.Printf("  %s: healthy\n", a.cfg.Registry.URL)
	} else {
		fmt.Printf("  %s: unreachable\n", a.cfg.Registry.URL)
		healthy = false
	}

	fmt.Println("\n[Agents]")
	if a.lister != nil {
		agents, err := a.lister.Agents(ctx)
		switch {
		case err != nil:
			fmt.Printf("  discovery failed: %v\n", err)
			healthy = false
		case len(agents) == 0:
			fmt.Println("  (none found)")
		default:
			for name, agent := range agents {
				fmt.Printf("  %s: %s (%d skills)\n", name, agent.URL, len(agent.Skills))
			}
		}
	} else {
		for skill, endpoint := range a.cfg.Discovery.Static {
			fmt.Printf("  %s -> %s (static)\n", skill, endpoint)
		}
	}

	fmt.Println("\n[Workflows]")
	repos, err := a.registry.Catalog(ctx)
	if err != nil {
		fmt.Printf("  catalog failed: %v\n", err)
		healthy = false
	} else {
		found := false
		for _, repo := range repos {
			if strings.HasPrefix(repo, registry.WorkflowRepoPrefix) {
				fmt.Printf("  - %s\n", strings.TrimPrefix(repo, registry.WorkflowRepoPrefix))
				found = true
			}
		}
		if !found {
			fmt.Println("  (none found)")
		}
	}

	if !healthy {
		return fmt.Errorf("system has issues, see details above")
	}
	fmt.Println("\n✓ System is ready for orchestration")
	return nil
}

// DiagnoseWorkflowCmd pulls a workflow and walks it through the loader,
// surfacing pull and validation failures separately.
type DiagnoseWorkflowCmd struct {
	WorkflowID string `arg:"" help:"Workflow id to look up."`
	Version    string `help:"Workflow version tag." default:"v1"`
}

func (c *DiagnoseWorkflowCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Pulling %s:%s from registry...\n", c.WorkflowID, c.Version)
	data, err := a.registry.PullWorkflow(ctx, c.WorkflowID, c.Version)
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	fmt.Printf("✓ Pulled %d bytes\n", len(data))

	def, err := workflow.Load(data)
	if err != nil {
		return fmt.Errorf("definition is invalid: %w", err)
	}
	fmt.Println("✓ Definition is valid")
	fmt.Printf("  ID:      %s\n", def.Metadata.ID)
	fmt.Printf("  Name:    %s\n", def.Metadata.Name)
	fmt.Printf("  Version: %s\n", def.Metadata.Version)
	fmt.Printf("  Steps:   %s\n", strings.Join(stepIDs(def.Steps), ", "))
	return nil
}

// DiagnoseSkillCmd resolves a skill id the same way the engine would.
type DiagnoseSkillCmd struct {
	SkillID string `arg:"" help:"Skill id to resolve."`
}

func (c *DiagnoseSkillCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := buildApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	endpoint, err := a.resolver.ResolveSkill(ctx, c.SkillID)
	if err != nil {
		return fmt.Errorf("skill not found: %w", err)
	}
	fmt.Printf("✓ %s -> %s\n", c.SkillID, endpoint)
	return nil
}
