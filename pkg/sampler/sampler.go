package sampler

import (
	"context"

	"wifi-sampler/internal/tasks"
)

// Options re-exposes the tasks.Options type for external callers.
type Options = tasks.Options

// Run starts the sampling agent with the given options using the internal tasks implementation.
func Run(ctx context.Context, opts Options) error {
	return tasks.InitAndRunSampler(ctx, opts)
}
