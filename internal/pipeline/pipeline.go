package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Step is one stage of the scraper. Steps communicate only through files, so
// any step can be run on its own.
type Step interface {
	Name() string
	Run(ctx context.Context) error
}

// Pipeline runs a fixed list of steps in order.
type Pipeline struct {
	steps []Step
}

func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// RunFrom executes steps starting at index start and stops at the first error.
func (p *Pipeline) RunFrom(ctx context.Context, start int) error {
	if start < 0 || start >= len(p.steps) {
		return fmt.Errorf("start index %d out of range", start)
	}

	for i := start; i < len(p.steps); i++ {
		step := p.steps[i]
		slog.Info("iniciando etapa",
			slog.String("step", step.Name()),
			slog.Int("current", i+1),
			slog.Int("total", len(p.steps)))
		t0 := time.Now()

		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("step %s failed after %s: %w", step.Name(), time.Since(t0).Truncate(time.Millisecond), err)
		}

		slog.Info("etapa concluída",
			slog.String("step", step.Name()),
			slog.Duration("duration", time.Since(t0).Truncate(time.Millisecond)))
	}
	return nil
}

// FindIndex returns the position of a step by name or -1.
func (p *Pipeline) FindIndex(name string) int {
	for i, s := range p.steps {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

func (p *Pipeline) Steps() []Step {
	return p.steps
}
