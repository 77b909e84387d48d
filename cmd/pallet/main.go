// Command pallet is the CLI for the Pallet workflow orchestrator.
//
// Usage:
//
//	pallet serve --config config.yaml
//	pallet run code-generation-v1 --input '{"task_description": "..."}'
//	pallet validate workflow.yaml
//	pallet diagnose health
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/palletlabs/pallet"
	"github.com/palletlabs/pallet/pkg/config"
	"github.com/palletlabs/pallet/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version   VersionCmd   `cmd:"" help:"Show version information."`
	Serve     ServeCmd     `cmd:"" help:"Start the orchestrator HTTP server."`
	Run       RunCmd       `cmd:"" help:"Execute a workflow from the registry."`
	Validate  ValidateCmd  `cmd:"" help:"Validate a workflow definition file."`
	Workflows WorkflowsCmd `cmd:"" help:"List workflows in the registry."`
	Agents    AgentsCmd    `cmd:"" help:"List agents discovered from the registry."`
	Skills    SkillsCmd    `cmd:"" help:"List skills advertised by discovered agents."`
	Diagnose  DiagnoseCmd  `cmd:"" help:"Debug and inspect system state."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	Registry  string `help:"Registry URL override." placeholder:"URL"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFormat string `help:"Log format (text, json)." default:"text"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(pallet.VersionInfo())
	return nil
}

func main() {
	_ = config.LoadDotEnv()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("pallet"),
		kong.Description("Pallet - declarative workflow orchestration for agent services"),
		kong.UsageOnError(),
	)

	if _, err := logger.Setup(logger.Options{
		Level:  cli.LogLevel,
		Format: cli.LogFormat,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
