// Package checkpoint holds pending file-mutation proposals awaiting an
// explicit approve/reject decision.
//
// A checkpoint is created in pending status when the model proposes a file
// write. It transitions exactly once, pending → applied or pending →
// rejected; Resolve is the single serialization point that prevents
// double-application of a file write.
package checkpoint
