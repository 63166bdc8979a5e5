package services

import (
	"github.com/fyrsmithlabs/agentd/internal/checkpoint"
	"github.com/fyrsmithlabs/agentd/internal/memory"
	"github.com/fyrsmithlabs/agentd/internal/orchestrator"
	"github.com/fyrsmithlabs/agentd/internal/search"
	"github.com/fyrsmithlabs/agentd/internal/tools"
	"github.com/fyrsmithlabs/agentd/internal/workflow"
	"github.com/fyrsmithlabs/agentd/internal/workspace"
)

// Registry provides access to all agentd services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Orchestrator() orchestrator.Service
	Memory() memory.Store
	Checkpoint() checkpoint.Store
	Workflow() workflow.Tracker
	Tools() *tools.Registry
	Search() *search.Index
	Workspace() *workspace.Workspace
}

// Options configures the registry with service instances.
type Options struct {
	Orchestrator orchestrator.Service
	Memory       memory.Store
	Checkpoint   checkpoint.Store
	Workflow     workflow.Tracker
	Tools        *tools.Registry
	Search       *search.Index
	Workspace    *workspace.Workspace
}

// registry is the concrete implementation of Registry.
type registry struct {
	orchestrator orchestrator.Service
	memory       memory.Store
	checkpoint   checkpoint.Store
	workflow     workflow.Tracker
	tools        *tools.Registry
	search       *search.Index
	workspace    *workspace.Workspace
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		orchestrator: opts.Orchestrator,
		memory:       opts.Memory,
		checkpoint:   opts.Checkpoint,
		workflow:     opts.Workflow,
		tools:        opts.Tools,
		search:       opts.Search,
		workspace:    opts.Workspace,
	}
}

func (r *registry) Orchestrator() orchestrator.Service { return r.orchestrator }
func (r *registry) Memory() memory.Store               { return r.memory }
func (r *registry) Checkpoint() checkpoint.Store       { return r.checkpoint }
func (r *registry) Workflow() workflow.Tracker         { return r.workflow }
func (r *registry) Tools() *tools.Registry             { return r.tools }
func (r *registry) Search() *search.Index              { return r.search }
func (r *registry) Workspace() *workspace.Workspace    { return r.workspace }
