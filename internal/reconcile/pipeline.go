package reconcile

import (
	"context"
	"fmt"
)

// Step rewrites a value on its way to the destination. A step that has
// nothing to do returns its input.
type Step[T any] func(ctx context.Context, in T) (T, error)

// Pipeline applies its steps left to right, feeding each the previous output.
type Pipeline[T any] struct {
	steps []Step[T]
}

func NewPipeline[T any](steps ...Step[T]) *Pipeline[T] {
	return &Pipeline[T]{steps: steps}
}

// Then appends a step and returns the pipeline.
func (p *Pipeline[T]) Then(step Step[T]) *Pipeline[T] {
	p.steps = append(p.steps, step)
	return p
}

func (p *Pipeline[T]) Len() int {
	return len(p.steps)
}

// Run stops at the first failing step and returns its error.
func (p *Pipeline[T]) Run(ctx context.Context, in T) (T, error) {
	out := in
	for i, step := range p.steps {
		next, err := step(ctx, out)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("transform step %d failed: %w", i, err)
		}
		out = next
	}
	return out, nil
}
