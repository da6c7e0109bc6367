package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

func (r *recorder) step(name string, doErr, undoErr error) Step {
	return Step{
		Name: name,
		Do: func(context.Context) error {
			r.calls = append(r.calls, "do "+name)
			return doErr
		},
		Undo: func(context.Context) error {
			r.calls = append(r.calls, "undo "+name)
			return undoErr
		},
	}
}

func TestRunAllStepsSucceed(t *testing.T) {
	rec := &recorder{}
	s := New("test", zerolog.Nop(), rec.step("a", nil, nil), rec.step("b", nil, nil))

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{"do a", "do b"}, rec.calls)
}

func TestRunCompensatesInReverse(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	s := New("test", zerolog.Nop()).Add(
		rec.step("a", nil, nil),
		rec.step("b", nil, nil),
		rec.step("c", boom, nil),
		rec.step("d", nil, nil),
	)

	err := s.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"do a", "do b", "do c", "undo b", "undo a"}, rec.calls)

	var sagaErr *Error
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, "c", sagaErr.Step)
	assert.True(t, sagaErr.Clean())
}

func TestRunKeepsCompensatingAfterUndoFailure(t *testing.T) {
	rec := &recorder{}
	undoErr := errors.New("undo failed")
	s := New("test", zerolog.Nop(),
		rec.step("a", nil, nil),
		rec.step("b", nil, undoErr),
		rec.step("c", errors.New("boom"), nil),
	)

	err := s.Run(context.Background())

	var sagaErr *Error
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, []string{"do a", "do b", "do c", "undo b", "undo a"}, rec.calls)
	require.Len(t, sagaErr.Compensation, 1)
	assert.Equal(t, "b", sagaErr.Compensation[0].Step)
	assert.False(t, sagaErr.Clean())
	assert.Equal(t, []string{"c", "undo b"}, sagaErr.FailedSteps())
}

func TestRunHaltSkipsCompensation(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	s := New("test", zerolog.Nop(),
		rec.step("a", nil, nil),
		rec.step("b", Halt(boom), nil),
		rec.step("c", nil, nil),
	)

	err := s.Run(context.Background())

	var sagaErr *Error
	require.ErrorAs(t, err, &sagaErr)
	assert.True(t, sagaErr.Halted)
	assert.False(t, sagaErr.Clean())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"do a", "do b"}, rec.calls)
}

func TestCompensationRunsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var undoCtxErr error
	s := New("test", zerolog.Nop(),
		Step{
			Name: "a",
			Do:   func(context.Context) error { return nil },
			Undo: func(ctx context.Context) error {
				undoCtxErr = ctx.Err()
				return nil
			},
		},
		Step{
			Name: "b",
			Do: func(context.Context) error {
				cancel()
				return context.Canceled
			},
		},
	)

	err := s.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, undoCtxErr)
}

func TestHaltNil(t *testing.T) {
	assert.NoError(t, Halt(nil))
}
