package model

import (
	"context"
	"errors"
)

// ErrEmptyCompletion indicates the model finished without producing
// text or tool calls.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Streamer produces chat completions, delivering assistant text
// incrementally through onDelta as it arrives. The returned Completion
// holds the accumulated text and any tool calls once the stream ends.
// Implementations must respect ctx cancellation.
type Streamer interface {
	StreamCompletion(ctx context.Context, req Request, onDelta func(delta string)) (*Completion, error)
}
