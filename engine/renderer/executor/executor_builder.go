package executor

import "github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"

// ExecutorBuilderOption is a functional option for configuring an Executor via NewExecutor.
type ExecutorBuilderOption func(*executor)

// WithCapacity sets how many instances each bounded buffer holds. Zero keeps instance.DefaultCapacity.
//
// Parameters:
//   - n: the instance capacity
//
// Returns:
//   - ExecutorBuilderOption: a function that applies the capacity to an executor
func WithCapacity(n uint32) ExecutorBuilderOption {
	return func(e *executor) {
		if n > 0 {
			e.capacity = n
		}
	}
}

// WithTextDrawer sets the collaborator that draws text batches. Without one, text batches are skipped.
//
// Parameters:
//   - t: the text drawer
//
// Returns:
//   - ExecutorBuilderOption: a function that applies the text drawer to an executor
func WithTextDrawer(t gpu.TextDrawer) ExecutorBuilderOption {
	return func(e *executor) {
		e.text = t
	}
}
