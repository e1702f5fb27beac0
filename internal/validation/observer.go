package validation

import "context"

// Observer receives stage progress. Calls are made from the goroutine running
// the pipeline, in stage order.
type Observer interface {
	StageStarted(ctx context.Context, stage string)
	StageFinished(ctx context.Context, stage string, res StageResult)
}

type nopObserver struct{}

func (nopObserver) StageStarted(context.Context, string) {}
func (nopObserver) StageFinished(context.Context, string, StageResult) {}
