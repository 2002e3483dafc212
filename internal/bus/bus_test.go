package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func change(n int) Change { return Change{Key: "k", Value: n} }

// collect reads until C closes or nothing arrives for idle.
func collect(s *Subscriber, idle time.Duration) []int {
	var got []int
	for {
		select {
		case c, ok := <-s.C():
			if !ok {
				return got
			}
			got = append(got, c.Value.(int))
		case <-time.After(idle):
			return got
		}
	}
}

func increasing(t *testing.T, xs []int) {
	t.Helper()
	for i := 1; i < len(xs); i++ {
		require.Less(t, xs[i-1], xs[i], "out of order: %v", xs)
	}
}

func TestBufferDeliversEverythingInOrder(t *testing.T) {
	b := New()
	s, err := b.Subscribe(Options{})
	require.NoError(t, err)
	defer s.Close()

	for i := 1; i <= 1000; i++ {
		require.NoError(t, b.Publish(change(i)))
	}
	got := collect(s, 200*time.Millisecond)
	require.Len(t, got, 1000)
	increasing(t, got)
	assert.Equal(t, 1, got[0])
}

func TestDropLatest(t *testing.T) {
	b := New()
	s, err := b.Subscribe(Options{Policy: PolicyDropLatest, Buffer: 2})
	require.NoError(t, err)
	defer s.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, b.Publish(change(i)))
	}
	got := collect(s, 100*time.Millisecond)
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0])
	assert.GreaterOrEqual(t, len(got), 2)
	assert.LessOrEqual(t, len(got), 3)
	increasing(t, got)
	assert.Equal(t, uint64(5-len(got)), s.Dropped())
}

func TestDropOldest(t *testing.T) {
	b := New()
	s, err := b.Subscribe(Options{Policy: PolicyDropOldest, Buffer: 2})
	require.NoError(t, err)
	defer s.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, b.Publish(change(i)))
	}
	got := collect(s, 100*time.Millisecond)
	require.NotEmpty(t, got)
	assert.Equal(t, 5, got[len(got)-1])
	assert.LessOrEqual(t, len(got), 3)
	increasing(t, got)
	assert.Equal(t, uint64(5-len(got)), s.Dropped())
}

func TestErrorPolicyTerminates(t *testing.T) {
	b := New()
	s, err := b.Subscribe(Options{Policy: PolicyError, Buffer: 1})
	require.NoError(t, err)

	var faults int
	for i := 1; i <= 5; i++ {
		if err := b.Publish(change(i)); err != nil {
			assert.ErrorIs(t, err, ErrOverflow)
			assert.Contains(t, err.Error(), s.ID().String())
			faults++
		}
	}
	// the subscriber is gone after its first overflow
	assert.Equal(t, 1, faults)
	got := collect(s, time.Second)
	assert.LessOrEqual(t, len(got), 3)
	assert.ErrorIs(t, s.Err(), ErrOverflow)
	assert.Equal(t, 0, b.Len())

	_, open := <-s.C()
	assert.False(t, open)
}

func TestFilter(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	s, err := b.Subscribe(Options{Filter: func(c Change) (bool, error) {
		switch c.Key {
		case "bad":
			return false, boom
		case "panic":
			panic("filter")
		}
		return c.Key == "a", nil
	}})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, b.Publish(Change{Key: "b", Value: 1}))
	require.NoError(t, b.Publish(Change{Key: "a", Value: 2}))
	assert.ErrorIs(t, b.Publish(Change{Key: "bad", Value: 3}), boom)
	assert.ErrorContains(t, b.Publish(Change{Key: "panic", Value: 4}), "filter panic")
	require.NoError(t, b.Publish(Change{Key: "a", Value: 5}))

	assert.Equal(t, []int{2, 5}, collect(s, 100*time.Millisecond))
}

func TestSubscriberClose(t *testing.T) {
	b := New()
	s, err := b.Subscribe(Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())
	assert.NotEqual(t, s.ID().String(), "")

	s.Close()
	s.Close()
	assert.Equal(t, 0, b.Len())
	_, open := <-s.C()
	assert.False(t, open)
	assert.NoError(t, s.Err())
	require.NoError(t, b.Publish(change(1)))
}

func TestBusClose(t *testing.T) {
	b := New()
	s, err := b.Subscribe(Options{})
	require.NoError(t, err)
	require.NoError(t, b.Publish(change(1)))
	b.Close()
	b.Close()

	assert.Equal(t, []int{1}, collect(s, time.Second))
	assert.ErrorIs(t, s.Err(), ErrClosed)
	assert.ErrorIs(t, b.Publish(change(2)), ErrClosed)
	_, err = b.Subscribe(Options{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{PolicyBuffer, PolicyDropLatest, PolicyDropOldest, PolicyError} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePolicy("missing")
	assert.Error(t, err)
}
