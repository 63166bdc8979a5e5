// Package tools defines the tool contract, the registry the orchestrator
// dispatches through, and the built-in workspace tools.
//
// Tools are pure capabilities: given validated arguments and a
// session-scoped execution context they return a result string or fail
// with a typed error. The registry performs no caching, retries, or rate
// limiting.
package tools
