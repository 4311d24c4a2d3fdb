// Package pipeline provides the shared types, error kinds and stage
// abstraction of the timelapse pipeline.
package pipeline

import "context"

// Stage transforms one input item into one output item.
// Implementations check ctx before doing work so a cancelled run stops
// at the next item.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a function to Stage.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute calls f.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}
