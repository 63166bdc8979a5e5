package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentd/internal/checkpoint"
	"github.com/fyrsmithlabs/agentd/internal/memory"
	"github.com/fyrsmithlabs/agentd/internal/tools"
	"github.com/fyrsmithlabs/agentd/internal/workflow"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry(Options{})
	require.NotNil(t, reg)
	assert.Nil(t, reg.Orchestrator())
	assert.Nil(t, reg.Memory())
}

func TestRegistryAccessors(t *testing.T) {
	logger := zap.NewNop()
	mem := memory.NewInMemoryStore(logger)
	cps := checkpoint.NewInMemoryStore(logger)
	wf := workflow.NewInMemoryTracker(logger)
	registry := tools.NewRegistry()

	reg := NewRegistry(Options{
		Memory:     mem,
		Checkpoint: cps,
		Workflow:   wf,
		Tools:      registry,
	})

	assert.Same(t, mem, reg.Memory())
	assert.Same(t, cps, reg.Checkpoint())
	assert.Same(t, wf, reg.Workflow())
	assert.Same(t, registry, reg.Tools())
}
