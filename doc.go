// Package pallet is a declarative workflow orchestrator for agent
// microservices.
//
// Workflows are YAML documents describing ordered steps, each invoking a
// named skill on a remote agent over HTTP. Documents and agent cards are
// stored as OCI artifacts in a standard container registry; the
// orchestrator pulls a workflow by id, discovers which agent serves each
// skill, and drives the run through sequential, parallel, conditional,
// and switch execution patterns.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/palletlabs/pallet/cmd/pallet@latest
//
// Execute a workflow published to the registry:
//
//	pallet run code-generation-v1 --input '{"task_description": "add a CLI flag"}'
//
// Or start the HTTP server:
//
//	pallet serve --config config.yaml
//
// # Using as a Go Library
//
// Import the packages directly:
//
//	import (
//		"github.com/palletlabs/pallet/pkg/orchestrator"
//		"github.com/palletlabs/pallet/pkg/registry"
//		"github.com/palletlabs/pallet/pkg/workflow"
//	)
//
// The engine in pkg/workflow runs already loaded definitions; the
// orchestrator in pkg/orchestrator adds registry pull and discovery on
// top of it.
package pallet
