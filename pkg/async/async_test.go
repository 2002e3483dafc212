package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rzbill/folio/pkg/sched"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleIsLazy(t *testing.T) {
	var runs int32
	s := NewSingle(sched.NewPool(4), func(context.Context) (int, error) {
		atomic.AddInt32(&runs, 1)
		return 7, nil
	})
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&runs))

	v, err := s.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	_, _ = s.Await(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs), "each start reruns the work")
}

func TestPanicBecomesError(t *testing.T) {
	s := NewSingle(nil, func(context.Context) (int, error) { panic("bad") })
	_, err := s.Await(context.Background())
	assert.ErrorIs(t, err, ErrPanic)
	assert.ErrorContains(t, err, "bad")
}

func TestCancelledContextSkipsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	f := NewSingle(nil, func(context.Context) (int, error) { ran = true; return 1, nil }).Start(ctx)
	_, err := f.Result()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestScheduleErrorCompletesFuture(t *testing.T) {
	p := sched.NewPool(1)
	p.Close()
	_, err := NewSingle(p, func(context.Context) (int, error) { return 1, nil }).Await(context.Background())
	assert.ErrorIs(t, err, sched.ErrClosed)
}

func TestStartDoesNotWaitForSaturatedPool(t *testing.T) {
	p := sched.NewPool(1)
	release := make(chan struct{})
	require.NoError(t, p.Schedule(func() { <-release }))
	defer func() {
		close(release)
		p.Close()
	}()

	var runs int32
	s := NewSingle(p, func(context.Context) (int, error) {
		atomic.AddInt32(&runs, 1)
		return 1, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	f := s.Start(ctx)
	assert.Less(t, time.Since(started), 40*time.Millisecond, "Start blocked the caller")

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("future did not complete after ctx deadline")
	}
	_, err := f.Result()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, atomic.LoadInt32(&runs))
}

func TestMapAndThen(t *testing.T) {
	s := Map(Just(20), func(v int) (int, error) { return v + 1, nil })
	s2 := AndThen(s, func(_ context.Context, v int) (string, error) {
		if v != 21 {
			return "", errors.New("wrong")
		}
		return "ok", nil
	})
	got, err := s2.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	boom := errors.New("boom")
	called := false
	_, err = Map(Fail[int](boom), func(int) (int, error) { called = true; return 0, nil }).Await(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestSubscribe(t *testing.T) {
	got := make(chan int, 1)
	NewSingle(sched.IO(), func(context.Context) (int, error) { return 3, nil }).
		Subscribe(context.Background(), func(v int) { got <- v }, func(err error) { t.Errorf("unexpected: %v", err) })
	select {
	case v := <-got:
		assert.Equal(t, 3, v)
	case <-time.After(time.Second):
		t.Fatal("no result")
	}

	errs := make(chan error, 1)
	NewCompletion(nil, func(context.Context) error { return errors.New("nope") }).
		Subscribe(context.Background(), func() { t.Error("unexpected success") }, func(err error) { errs <- err })
	select {
	case err := <-errs:
		assert.EqualError(t, err, "nope")
	case <-time.After(time.Second):
		t.Fatal("no error")
	}
}

func TestCancelSuppressesCallbacks(t *testing.T) {
	release := make(chan struct{})
	called := make(chan struct{}, 1)
	cancel := NewSingle(sched.NewPool(1), func(context.Context) (int, error) {
		<-release
		return 1, nil
	}).Subscribe(context.Background(), func(int) { called <- struct{}{} }, func(error) { called <- struct{}{} })
	cancel()
	close(release)
	select {
	case <-called:
		t.Fatal("callback after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestThen(t *testing.T) {
	var order []string
	c := NewCompletion(nil, func(context.Context) error { order = append(order, "write"); return nil })
	v, err := Then(c, func(context.Context) (string, error) { order = append(order, "next"); return "done", nil }).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Equal(t, []string{"write", "next"}, order)
}
