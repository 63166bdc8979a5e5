package orchestrator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentd/internal/checkpoint"
	"github.com/fyrsmithlabs/agentd/internal/memory"
)

func (s *service) ResolveCheckpoint(ctx context.Context, checkpointID string, approve bool) (*checkpoint.Checkpoint, error) {
	ctx, span := s.tracer.Start(ctx, "orchestrator.resolve_checkpoint",
		trace.WithAttributes(
			attribute.String("checkpoint.id", checkpointID),
			attribute.Bool("checkpoint.approved", approve),
		))
	defer span.End()

	cp, err := s.checkpoint.Resolve(ctx, checkpointID, approve)
	if err != nil {
		return nil, err
	}

	if approve {
		if err := s.workspace.Write(cp.FilePath, cp.ProposedContent); err != nil {
			s.failCheckpointStep(ctx, cp, "apply failed: "+err.Error())
			return nil, fmt.Errorf("apply checkpoint %s to %s: %w", cp.ID, cp.FilePath, err)
		}
	}

	s.updateCheckpointStep(ctx, cp, approve)
	s.recordResolution(ctx, cp, approve)

	s.logger.Info("checkpoint resolved",
		zap.String("session_id", cp.SessionID),
		zap.String("checkpoint_id", cp.ID),
		zap.String("file_path", cp.FilePath),
		zap.String("status", string(cp.Status)))

	return cp, nil
}

// updateCheckpointStep moves the checkpoint's workflow step to its
// terminal state. A missing step means the run was replaced; that is
// not an error.
func (s *service) updateCheckpointStep(ctx context.Context, cp *checkpoint.Checkpoint, approve bool) {
	step, err := s.workflow.FindByCheckpoint(ctx, cp.SessionID, cp.ID)
	if err != nil {
		s.logger.Debug("no workflow step for checkpoint",
			zap.String("checkpoint_id", cp.ID), zap.Error(err))
		return
	}

	if approve {
		err = s.workflow.CompleteStep(ctx, cp.SessionID, step.ID, nil)
	} else {
		err = s.workflow.FailStep(ctx, cp.SessionID, step.ID, "rejected by user")
	}
	if err != nil {
		s.logger.Error("update checkpoint step", zap.Error(err))
	}
}

func (s *service) failCheckpointStep(ctx context.Context, cp *checkpoint.Checkpoint, reason string) {
	step, err := s.workflow.FindByCheckpoint(ctx, cp.SessionID, cp.ID)
	if err != nil {
		return
	}
	if err := s.workflow.FailStep(ctx, cp.SessionID, step.ID, reason); err != nil {
		s.logger.Error("fail checkpoint step", zap.Error(err))
	}
}

func (s *service) recordResolution(ctx context.Context, cp *checkpoint.Checkpoint, approve bool) {
	verb := "rejected"
	if approve {
		verb = "applied"
	}
	if _, err := s.memory.Append(ctx, cp.SessionID, memory.KindToolOperation,
		fmt.Sprintf("write to %s %s", cp.FilePath, verb),
		map[string]string{
			memory.AttrTool:         "write_file",
			memory.AttrCheckpointID: cp.ID,
		}); err != nil {
		s.logger.Error("record checkpoint resolution", zap.Error(err))
	}
}
