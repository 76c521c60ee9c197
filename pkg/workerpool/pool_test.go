package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsInvalidSize(t *testing.T) {
	_, err := New(Config{Size: 0})
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = New(Config{Size: 1, EnableDynamicScaling: true, MinWorkers: 0})
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = New(Config{Size: 1, EnableDynamicScaling: true, MinWorkers: 4, MaxWorkers: 2})
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestNewRebuildPool_IsSingleWorker(t *testing.T) {
	pool, err := NewRebuildPool()
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	defer pool.Close()

	assert.Equal(t, 1, pool.WorkerCount())
}

func TestPool_SubmitWaitRunsTask(t *testing.T) {
	pool, err := NewWithSize(2)
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	defer pool.Close()

	var ran atomic.Bool
	err = pool.SubmitWait(context.Background(), func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran.Load())
}

func TestPool_SubmitWaitPropagatesTaskError(t *testing.T) {
	pool, err := NewWithSize(1)
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	defer pool.Close()

	wantErr := errors.New("boom")
	err = pool.SubmitWait(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.TasksExecuted)
	assert.Equal(t, int64(1), stats.TasksFailed)
}

func TestPool_SubmitBeforeStartFails(t *testing.T) {
	pool, err := NewWithSize(1)
	require.NoError(t, err)

	_, err = pool.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_TaskPanicIsRecovered(t *testing.T) {
	pool, err := NewWithSize(1)
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	defer pool.Close()

	resultCh, err := pool.Submit(context.Background(), func(ctx context.Context) error {
		panic("task exploded")
	})
	require.NoError(t, err)

	result := <-resultCh
	assert.ErrorIs(t, result.Error, ErrTaskPanic)
}

func TestPool_SubmitBatchCollectsAllResults(t *testing.T) {
	pool, err := NewWithSize(4)
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	defer pool.Close()

	var completed atomic.Int32
	tasks := make([]Task, 5)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			completed.Add(1)
			return nil
		}
	}

	results, err := pool.SubmitBatch(context.Background(), tasks)
	require.NoError(t, err)

	var count int
	for range results {
		count++
	}
	assert.Equal(t, 5, count)
	assert.EqualValues(t, 5, completed.Load())
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	pool, err := NewWithSize(1)
	require.NoError(t, err)
	require.NoError(t, pool.Start())

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
	assert.True(t, pool.IsClosed())
	assert.False(t, pool.IsRunning())
}

func TestPool_CloseWithTimeoutExpires(t *testing.T) {
	pool, err := NewWithSize(1)
	require.NoError(t, err)
	require.NoError(t, pool.Start())

	block := make(chan struct{})
	_, err = pool.Submit(context.Background(), func(ctx context.Context) error {
		<-block
		return nil
	})
	require.NoError(t, err)

	err = pool.CloseWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(block)
}

func TestPool_StartTwiceFails(t *testing.T) {
	pool, err := NewWithSize(1)
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	defer pool.Close()

	assert.ErrorIs(t, pool.Start(), ErrPoolRunning)
}
