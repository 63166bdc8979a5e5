// Package orchestrator runs the agent turn loop: it streams model
// completions, dispatches tool calls sequentially, intercepts file
// mutations into approval checkpoints, and records every turn in the
// memory store and workflow tracker.
package orchestrator
