// Package saga runs a fixed list of steps across stores that share no
// transaction. When a step fails, the steps that already succeeded are undone
// in reverse order.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Step is one forward action and the compensation that reverses it. Undo may
// be nil when there is nothing to reverse.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Saga is an ordered list of steps for one operation.
type Saga struct {
	name   string
	steps  []Step
	logger zerolog.Logger
}

func New(name string, logger zerolog.Logger, steps ...Step) *Saga {
	return &Saga{
		name:   name,
		steps:  steps,
		logger: logger.With().Str("saga", name).Logger(),
	}
}

// Add appends steps to the saga.
func (s *Saga) Add(steps ...Step) *Saga {
	s.steps = append(s.steps, steps...)
	return s
}

// Run executes every step in order. If step k fails, Undo runs for steps
// k-1 down to 1 and the returned *Error carries the step failure and any
// compensation failures. A step failing with Halt stops the run without
// compensating.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		err := step.Do(ctx)
		if err == nil {
			continue
		}

		var halt *haltErr
		if errors.As(err, &halt) {
			s.logger.Error().Err(halt.err).Str("step", step.Name).Msg("saga halted without compensation")
			return &Error{Saga: s.name, Step: step.Name, Err: halt.err, Halted: true}
		}

		s.logger.Warn().Err(err).Str("step", step.Name).Msg("saga step failed, compensating")
		return &Error{
			Saga:         s.name,
			Step:         step.Name,
			Err:          err,
			Compensation: s.compensate(ctx, s.steps[:i]),
		}
	}
	return nil
}

// compensate undoes done in reverse. It keeps going when an undo fails so
// that as much state as possible is restored.
func (s *Saga) compensate(ctx context.Context, done []Step) []CompensationError {
	// compensations must run even when the request was cancelled
	ctx = context.WithoutCancel(ctx)

	var failed []CompensationError
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			s.logger.Error().Err(err).Str("step", step.Name).Msg("compensation failed")
			failed = append(failed, CompensationError{Step: step.Name, Err: err})
			continue
		}
		s.logger.Info().Str("step", step.Name).Msg("compensated")
	}
	return failed
}

// Halt marks err as a failure that must not trigger compensation.
func Halt(err error) error {
	if err == nil {
		return nil
	}
	return &haltErr{err: err}
}

type haltErr struct {
	err error
}

func (h *haltErr) Error() string { return h.err.Error() }
func (h *haltErr) Unwrap() error { return h.err }

// CompensationError is an Undo that failed.
type CompensationError struct {
	Step string
	Err  error
}

// Error describes a failed run. Unwrap exposes the step failure so callers
// can match it with errors.Is and errors.As.
type Error struct {
	Saga         string
	Step         string
	Err          error
	Halted       bool
	Compensation []CompensationError
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: step %s: %v", e.Saga, e.Step, e.Err)
	if e.Halted {
		msg += " (halted)"
	}
	if len(e.Compensation) > 0 {
		msg += fmt.Sprintf(" (%d compensations failed)", len(e.Compensation))
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Clean reports whether the saga left no state behind: it was neither halted
// nor did any compensation fail.
func (e *Error) Clean() bool {
	return !e.Halted && len(e.Compensation) == 0
}

// FailedSteps lists the step that failed followed by each step whose
// compensation failed.
func (e *Error) FailedSteps() []string {
	steps := []string{e.Step}
	for _, c := range e.Compensation {
		steps = append(steps, "undo "+c.Step)
	}
	return steps
}
