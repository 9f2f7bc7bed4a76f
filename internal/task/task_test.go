package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arloliu/go-telex/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Go(t *testing.T) {
	mgr := NewManager(context.Background(), logger.GetLogger())

	errCh := make(chan error, 1)
	errBoom := errors.New("boom")

	err := mgr.Go("oneShot", func(ctx context.Context) error {
		return errBoom
	}, func(err error) {
		errCh <- err
	})
	require.NoError(t, err)

	select {
	case got := <-errCh:
		require.ErrorIs(t, got, errBoom)
	case <-time.After(time.Second):
		t.Fatal("done callback not invoked")
	}

	mgr.Wait()
	assert.Equal(t, 0, mgr.Count())
}

func TestManager_GoRecoversPanic(t *testing.T) {
	mgr := NewManager(context.Background(), logger.GetLogger())

	errCh := make(chan error, 1)
	err := mgr.Go("panicky", func(ctx context.Context) error {
		panic("line noise")
	}, func(err error) {
		errCh <- err
	})
	require.NoError(t, err)

	got := <-errCh
	require.ErrorIs(t, got, ErrPanic)
	assert.Contains(t, got.Error(), "line noise")
}

func TestManager_StopCancelsTasks(t *testing.T) {
	mgr := NewManager(context.Background(), logger.GetLogger())

	var iterations atomic.Int32
	require.NoError(t, mgr.Start("loop", func() bool {
		iterations.Add(1)
		time.Sleep(time.Millisecond)
		return true
	}))

	ctxDone := make(chan struct{})
	require.NoError(t, mgr.Go("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		close(ctxDone)
		return ctx.Err()
	}, nil))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, mgr.Count())

	mgr.Stop()
	mgr.Wait()

	<-ctxDone
	assert.Equal(t, 0, mgr.Count())
	assert.Positive(t, iterations.Load())
}

func TestManager_LoopStopsOnFalse(t *testing.T) {
	mgr := NewManager(context.Background(), logger.GetLogger())

	var n atomic.Int32
	require.NoError(t, mgr.Start("countdown", func() bool {
		return n.Add(1) < 5
	}))

	mgr.Wait()
	assert.Equal(t, int32(5), n.Load())
}

func TestManager_StartAfterStop(t *testing.T) {
	mgr := NewManager(context.Background(), logger.GetLogger())
	mgr.Stop()

	err := mgr.Go("late", func(ctx context.Context) error { return nil }, nil)
	require.ErrorIs(t, err, ErrStopped)

	// Wait re-arms the manager.
	mgr.Wait()
	require.NoError(t, mgr.Go("again", func(ctx context.Context) error { return nil }, nil))
	mgr.Wait()
}
