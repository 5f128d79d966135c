package input

import (
	"testing"
	"time"

	"github.com/kilnworks/ovenpanel/internal/types"
	"github.com/kilnworks/ovenpanel/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterDebounceClamp(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in     time.Duration
		expect time.Duration
	}{
		{0, 500 * time.Millisecond},
		{50 * time.Millisecond, 100 * time.Millisecond},
		{300 * time.Millisecond, 300 * time.Millisecond},
		{2 * time.Second, 500 * time.Millisecond},
	}
	for _, c := range cases {
		r := NewRouter(nil, make(chan types.ButtonEvent), c.in, nil)
		assert.Equal(t, c.expect, r.Debounce(), "in=%v", c.in)
	}
}

func TestRouterAccept(t *testing.T) {
	t.Parallel()
	r := NewRouter(log2.NewTest(t, log2.LDebug), make(chan types.ButtonEvent), 500*time.Millisecond, nil)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, r.accept(types.ButtonA, t0))
	assert.False(t, r.accept(types.ButtonA, t0.Add(100*time.Millisecond)))
	assert.True(t, r.accept(types.ButtonB, t0.Add(100*time.Millisecond)))
	assert.False(t, r.accept(types.ButtonA, t0.Add(499*time.Millisecond)))
	assert.True(t, r.accept(types.ButtonA, t0.Add(600*time.Millisecond)))
}

func TestRouterDropWhenFull(t *testing.T) {
	t.Parallel()
	out := make(chan types.ButtonEvent, 1)
	r := NewRouter(log2.NewTest(t, log2.LDebug), out, 0, nil)
	r.forward(types.ButtonEvent{Source: "test", Button: types.ButtonA})
	r.forward(types.ButtonEvent{Source: "test", Button: types.ButtonB}) // must not block
	r.forward(types.ButtonEvent{Source: "test"})                        // zero ignored
	require.Len(t, out, 1)
	e := <-out
	assert.Equal(t, types.ButtonA, e.Button)
	assert.False(t, e.At.IsZero())
}

func TestRouterRun(t *testing.T) {
	t.Parallel()
	stop := make(chan struct{})
	out := make(chan types.ButtonEvent, 8)
	r := NewRouter(log2.NewTest(t, log2.LDebug), out, 500*time.Millisecond, stop)
	src := NewChanSource("console", stop)
	done := make(chan struct{})
	go func() {
		r.Run([]Source{src})
		close(done)
	}()

	require.True(t, src.Press(types.ButtonX))
	select {
	case e := <-out:
		assert.Equal(t, types.ButtonX, e.Button)
		assert.Equal(t, "console", e.Source)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for press")
	}
	// bounce within window is swallowed
	require.True(t, src.Press(types.ButtonX))
	require.True(t, src.Press(types.ButtonY))
	select {
	case e := <-out:
		assert.Equal(t, types.ButtonY, e.Button)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for press")
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
}
