package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ReadFileTool returns the full content of a workspace file.
type ReadFileTool struct{}

// ReadFileArgs are the arguments for read_file.
type ReadFileArgs struct {
	Path string `json:"path"`
}

func (ReadFileTool) Name() string        { return "read_file" }
func (ReadFileTool) Description() string { return "Read the full content of a file in the workspace." }
func (ReadFileTool) Mutates() bool       { return false }

func (ReadFileTool) Schema() ParameterSchema {
	return ParameterSchema{
		Type: "object",
		Properties: map[string]Property{
			"path": {Type: "string", Description: "Workspace-relative file path"},
		},
		Required: []string{"path"},
	}
}

func (ReadFileTool) Execute(_ context.Context, ec ExecContext, raw json.RawMessage) (string, error) {
	var args ReadFileArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	if args.Path == "" {
		return "", fmt.Errorf("%w: path is required", ErrInvalidArguments)
	}

	content, err := ec.Workspace.ReadStrict(args.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}
	return content, nil
}

// ListFilesTool lists the entries of a workspace directory.
type ListFilesTool struct{}

// ListFilesArgs are the arguments for list_files.
type ListFilesArgs struct {
	Path string `json:"path,omitempty"`
}

func (ListFilesTool) Name() string { return "list_files" }
func (ListFilesTool) Description() string {
	return "List the files and directories at a workspace path."
}
func (ListFilesTool) Mutates() bool { return false }

func (ListFilesTool) Schema() ParameterSchema {
	return ParameterSchema{
		Type: "object",
		Properties: map[string]Property{
			"path": {Type: "string", Description: "Workspace-relative directory path (default: workspace root)"},
		},
	}
}

func (ListFilesTool) Execute(_ context.Context, ec ExecContext, raw json.RawMessage) (string, error) {
	var args ListFilesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	if args.Path == "" {
		args.Path = "."
	}

	names, err := ec.Workspace.List(args.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}
	if len(names) == 0 {
		return "(empty directory)", nil
	}
	return strings.Join(names, "\n"), nil
}

// WriteFileTool proposes replacing the full content of a workspace file.
// It is a mutation tool: the orchestrator never executes it directly but
// turns its arguments into a pending checkpoint.
type WriteFileTool struct{}

// WriteFileArgs are the arguments for write_file.
type WriteFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (WriteFileTool) Name() string { return "write_file" }
func (WriteFileTool) Description() string {
	return "Replace the full content of a file in the workspace. Requires human approval before the change is committed."
}
func (WriteFileTool) Mutates() bool { return true }

func (WriteFileTool) Schema() ParameterSchema {
	return ParameterSchema{
		Type: "object",
		Properties: map[string]Property{
			"path":    {Type: "string", Description: "Workspace-relative file path"},
			"content": {Type: "string", Description: "Full replacement content for the file"},
		},
		Required: []string{"path", "content"},
	}
}

// Execute always fails: mutations are committed through checkpoint
// resolution, never by direct dispatch.
func (WriteFileTool) Execute(context.Context, ExecContext, json.RawMessage) (string, error) {
	return "", fmt.Errorf("%w: write_file must be resolved through a checkpoint", ErrExecutionFailed)
}

// ParseWriteFileArgs validates and decodes mutation-tool arguments for
// checkpoint creation.
func ParseWriteFileArgs(raw json.RawMessage) (*WriteFileArgs, error) {
	var args WriteFileArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidArguments)
	}
	return &args, nil
}

// decodeArgs strictly decodes raw JSON arguments into a typed struct.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
