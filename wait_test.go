package libemit

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSubscriber struct {
	mock.Mock

	subscribed chan func(args ...any)
}

func (m *mockSubscriber) Subscribe(event any, fn func(args ...any)) func() {
	args := m.Called(event)
	m.subscribed <- fn
	return args.Get(0).(func())
}

func TestWaitForResolves(t *testing.T) {
	emitter := newTestEmitter()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		for emitter.ListenerCount("ready") == 0 {
			time.Sleep(time.Millisecond)
		}
		_, _ = emitter.Emit("ready", "a", 1)
	}()

	args, err := WaitFor(ctx, emitter, "ready")
	require.NoError(t, err)
	assert.Equal(t, Args{"a", 1}, args)
	assert.Empty(t, emitter.EventNames())
}

func TestWaitForRejectsOnError(t *testing.T) {
	emitter := newTestEmitter()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	fault := errors.New("broken")

	go func() {
		for emitter.ListenerCount(EventError) == 0 {
			time.Sleep(time.Millisecond)
		}
		_, _ = emitter.Emit(EventError, fault)
	}()

	args, err := WaitFor(ctx, emitter, "ready")
	assert.Nil(t, args)
	assert.Same(t, fault, err)
	assert.Empty(t, emitter.EventNames())
}

func TestWaitForRejectsWithNonErrorValue(t *testing.T) {
	emitter := newTestEmitter()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		for emitter.ListenerCount(EventError) == 0 {
			time.Sleep(time.Millisecond)
		}
		_, _ = emitter.Emit(EventError, 42)
	}()

	_, err := WaitFor(ctx, emitter, "ready")
	require.ErrorIs(t, err, ErrUnhandled)
}

func TestWaitForErrorEvent(t *testing.T) {
	emitter := newTestEmitter()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	fault := errors.New("expected")

	go func() {
		for emitter.ListenerCount(EventError) == 0 {
			time.Sleep(time.Millisecond)
		}
		// exactly one listener: waiting on "error" adds no auxiliary error listener
		if emitter.ListenerCount(EventError) == 1 {
			_, _ = emitter.Emit(EventError, fault)
		}
	}()

	args, err := WaitFor(ctx, emitter, EventError)
	require.NoError(t, err)
	assert.Equal(t, Args{fault}, args)
}

func TestWaitForContextCancelled(t *testing.T) {
	emitter := newTestEmitter()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := WaitFor(ctx, emitter, "never")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, emitter.EventNames())
}

func TestWaitForSubscriber(t *testing.T) {
	sub := &mockSubscriber{subscribed: make(chan func(args ...any), 1)}
	var unsubscribed bool
	sub.On("Subscribe", "ready").Return(func() { unsubscribed = true })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result := make(chan Args, 1)
	go func() {
		args, err := WaitFor(ctx, sub, "ready")
		assert.NoError(t, err)
		result <- args
	}()

	fn := <-sub.subscribed
	fn("x")
	fn("ignored")

	assert.Equal(t, Args{"x"}, <-result)
	assert.True(t, unsubscribed)
	sub.AssertExpectations(t)
}

func TestWaitForInvalidTarget(t *testing.T) {
	_, err := WaitFor(context.Background(), struct{}{}, "ready")
	require.ErrorIs(t, err, ErrInvalidType)
}
