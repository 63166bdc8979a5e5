// Package services provides the centralized service registry for agentd.
//
// Registry pattern for accessing all core services (orchestrator, memory,
// checkpoint, workflow, tools, search, workspace). Use NewRegistry() to
// create a registry with service instances, then accessor methods to
// retrieve individual services.
package services
