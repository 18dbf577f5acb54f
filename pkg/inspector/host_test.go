package inspector

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vtree/pkg/treespec"
	"github.com/vango-dev/vtree/pkg/vtree"
)

const listYAML = `
type: List
reuse: list
header:
  type: Label
  reuse: title
  key: title
children:
  - type: Row
    reuse: row
  - type: Row
    reuse: row
`

func startHost(t *testing.T, opts ...HostOption) *Host {
	t.Helper()
	h := NewHost(vtree.Size{Width: 320, Height: 480}, vtree.OptionNone, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return h
}

func mustParse(t *testing.T, doc string) *treespec.Spec {
	t.Helper()
	spec, err := treespec.Parse([]byte(doc))
	require.NoError(t, err)
	return spec
}

func TestHostApplyMountsThenReconciles(t *testing.T) {
	h := startHost(t)
	ctx := context.Background()

	stats, err := h.Apply(ctx, mustParse(t, listYAML))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Constructed)

	stats, err = h.Apply(ctx, mustParse(t, listYAML))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Constructed)
	assert.Equal(t, 4, stats.Reused)

	rows, err := h.ViewsWithReuseIdentifier(ctx, "row")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	title, err := h.ViewWithKey(ctx, "title")
	require.NoError(t, err)
	assert.Contains(t, title, "Label#")

	missing, err := h.ViewWithKey(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestHostResize(t *testing.T) {
	h := startHost(t)
	ctx := context.Background()

	_, err := h.Resize(ctx, vtree.Size{Width: 10, Height: 10})
	assert.ErrorIs(t, err, vtree.ErrNotMounted)

	_, err = h.Apply(ctx, mustParse(t, listYAML))
	require.NoError(t, err)

	stats, err := h.Resize(ctx, vtree.Size{Width: 10, Height: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Configured)
	assert.Zero(t, stats.Constructed)

	dump, err := h.Dump(ctx)
	require.NoError(t, err)
	assert.Contains(t, dump, "List#")
}

func TestHostDescribeBeforeApply(t *testing.T) {
	h := startHost(t)
	d, err := h.Describe(context.Background())
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestHostSubscribe(t *testing.T) {
	h := startHost(t)
	events, cancel := h.Subscribe(4)
	defer cancel()

	_, err := h.Apply(context.Background(), mustParse(t, listYAML))
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, "build", ev.Pass)
		assert.Equal(t, 4, ev.Stats.Constructed)
		assert.Equal(t, vtree.Size{Width: 320, Height: 480}, ev.Size)
		assert.Empty(t, ev.Error)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	cancel()
	_, ok := <-events
	assert.False(t, ok, "channel closed after cancel")
	cancel()
}

func TestHostDoRecoversPanics(t *testing.T) {
	h := startHost(t)
	err := h.Do(context.Background(), func(*vtree.Hierarchy) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	// The loop keeps serving.
	assert.NoError(t, h.Do(context.Background(), func(*vtree.Hierarchy) error { return nil }))
}

func TestHostDefaultLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := startHost(t)
	require.Error(t, h.Do(context.Background(), func(*vtree.Hierarchy) error {
		panic("boom")
	}))
	assert.Contains(t, buf.String(), "component=inspector")
}

func TestHostStopped(t *testing.T) {
	h := NewHost(vtree.Size{}, vtree.OptionNone)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Run(ctx), context.Canceled)

	err := h.Do(context.Background(), func(*vtree.Hierarchy) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)

	events, _ := h.Subscribe(1)
	_, ok := <-events
	assert.False(t, ok)
}

func TestHostMiddleware(t *testing.T) {
	var kinds []string
	h := startHost(t, WithHostMiddleware(func(p *vtree.Pass, next func() error) error {
		kinds = append(kinds, p.Kind.String())
		return next()
	}))
	ctx := context.Background()
	_, err := h.Apply(ctx, mustParse(t, listYAML))
	require.NoError(t, err)
	_, err = h.Resize(ctx, vtree.Size{Width: 1, Height: 1})
	require.NoError(t, err)

	require.NoError(t, h.Do(ctx, func(*vtree.Hierarchy) error {
		assert.Equal(t, []string{"build", "layout"}, kinds)
		return nil
	}))
}
