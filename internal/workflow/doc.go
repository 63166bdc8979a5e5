// Package workflow tracks the per-turn introspection tree of steps.
//
// Each turn has one run with a root task step; tool invocations and
// checkpoint proposals are recorded as child steps. The tracker exists
// purely for observability; orchestration never reads it back to make
// decisions.
package workflow
