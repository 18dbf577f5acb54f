package inspector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vango-dev/vtree/pkg/headless"
	"github.com/vango-dev/vtree/pkg/treespec"
	"github.com/vango-dev/vtree/pkg/vtree"
)

// ErrStopped is returned by Do once the host loop has exited.
var ErrStopped = errors.New("inspector: host stopped")

// Event reports one finished pass to subscribers.
type Event struct {
	Pass       string      `json:"pass"`
	Size       vtree.Size  `json:"size"`
	Options    string      `json:"options"`
	Stats      vtree.Stats `json:"stats"`
	DurationMS float64     `json:"durationMs"`
	Error      string      `json:"error,omitempty"`
	Time       time.Time   `json:"time"`
}

// Host owns a hierarchy mounted in a headless container. All access to the
// hierarchy goes through Do, which runs on the goroutine executing Run.
type Host struct {
	platform  *headless.Platform
	container *headless.View
	hierarchy *vtree.Hierarchy
	size      vtree.Size
	options   vtree.LayoutOptions

	dispatchCh chan func()
	stopped    chan struct{}
	stopOnce   sync.Once

	mu   sync.Mutex
	subs map[chan Event]struct{}

	middleware []vtree.Middleware
	logger     *slog.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostLogger sets the logger used by the host and its hierarchy.
func WithHostLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithHostMiddleware adds pass middleware, outermost first.
func WithHostMiddleware(mw ...vtree.Middleware) HostOption {
	return func(h *Host) {
		h.middleware = append(h.middleware, mw...)
	}
}

// NewHost creates a host that renders at size with options.
func NewHost(size vtree.Size, options vtree.LayoutOptions, opts ...HostOption) *Host {
	p := headless.New()
	h := &Host{
		platform:   p,
		container:  p.NewContainer(),
		size:       size,
		options:    options,
		dispatchCh: make(chan func(), 64),
		stopped:    make(chan struct{}),
		subs:       make(map[chan Event]struct{}),
		logger:     slog.Default().With("component", "inspector"),
	}
	for _, opt := range opts {
		opt(h)
	}
	mw := append(append([]vtree.Middleware(nil), h.middleware...), h.publish)
	h.hierarchy = vtree.NewHierarchy(vtree.NewContext(p, nil),
		vtree.WithMiddleware(mw...),
		vtree.WithLogger(h.logger),
	)
	return h
}

// Run executes dispatched work until ctx is done. It returns ctx.Err().
func (h *Host) Run(ctx context.Context) error {
	defer h.stop()
	for {
		select {
		case fn := <-h.dispatchCh:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Host) stop() {
	h.stopOnce.Do(func() {
		close(h.stopped)
		h.mu.Lock()
		for ch := range h.subs {
			close(ch)
			delete(h.subs, ch)
		}
		h.mu.Unlock()
	})
}

// Do runs fn on the host loop and waits for its result. A panic in fn is
// returned as an error.
func (h *Host) Do(ctx context.Context, fn func(*vtree.Hierarchy) error) error {
	result := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("host panic", "panic", r, "stack", string(debug.Stack()))
				result <- fmt.Errorf("inspector: panic: %v", r)
			}
		}()
		result <- fn(h.hierarchy)
	}

	select {
	case h.dispatchCh <- task:
	case <-h.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-h.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply makes spec the tree of the host. The first call mounts the tree into
// the container; later calls reconcile against the mounted views.
func (h *Host) Apply(ctx context.Context, spec *treespec.Spec) (vtree.Stats, error) {
	var stats vtree.Stats
	err := h.Do(ctx, func(hier *vtree.Hierarchy) error {
		hier.SetBuilder(spec.Builder())
		var err error
		if hier.State() == vtree.StateMounted {
			err = hier.SetNeedsReconcile()
		} else {
			err = hier.BuildHierarchy(h.container, h.size, h.options)
		}
		stats = hier.LastStats()
		return err
	})
	return stats, err
}

// Resize lays the mounted tree out at size.
func (h *Host) Resize(ctx context.Context, size vtree.Size) (vtree.Stats, error) {
	var stats vtree.Stats
	err := h.Do(ctx, func(hier *vtree.Hierarchy) error {
		if err := hier.Layout(size, h.options); err != nil {
			return err
		}
		h.size = size
		stats = hier.LastStats()
		return nil
	})
	return stats, err
}

// Describe returns the description of the current tree, or nil before the
// first Apply.
func (h *Host) Describe(ctx context.Context) (*vtree.Description, error) {
	var d *vtree.Description
	err := h.Do(ctx, func(hier *vtree.Hierarchy) error {
		d = hier.Describe()
		return nil
	})
	return d, err
}

// Dump returns the text dump of the container.
func (h *Host) Dump(ctx context.Context) (string, error) {
	var out string
	err := h.Do(ctx, func(*vtree.Hierarchy) error {
		out = headless.Dump(h.container)
		return nil
	})
	return out, err
}

// ViewWithKey returns the name of the view for key, or "".
func (h *Host) ViewWithKey(ctx context.Context, key string) (string, error) {
	var name string
	err := h.Do(ctx, func(hier *vtree.Hierarchy) error {
		if v, ok := hier.ViewWithKey(key).(*headless.View); ok && v != nil {
			name = v.String()
		}
		return nil
	})
	return name, err
}

// ViewsWithReuseIdentifier returns the names of the views carrying id.
func (h *Host) ViewsWithReuseIdentifier(ctx context.Context, id string) ([]string, error) {
	names := []string{}
	err := h.Do(ctx, func(hier *vtree.Hierarchy) error {
		for _, v := range hier.ViewsWithReuseIdentifier(id) {
			names = append(names, v.(*headless.View).String())
		}
		return nil
	})
	return names, err
}

// Subscribe returns a channel receiving an Event per finished pass and a
// function that cancels the subscription. Events are dropped for subscribers
// that fall behind by more than buffer events.
func (h *Host) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	h.mu.Lock()
	select {
	case <-h.stopped:
		close(ch)
		h.mu.Unlock()
		return ch, func() {}
	default:
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// publish is the innermost pass middleware; it reports the pass to subscribers.
func (h *Host) publish(p *vtree.Pass, next func() error) error {
	start := time.Now()
	err := next()
	ev := Event{
		Pass:       p.Kind.String(),
		Size:       p.Size,
		Options:    p.Options.String(),
		Stats:      p.Stats,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
		Time:       start.UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("event subscriber is behind, dropping event", "pass", ev.Pass)
		}
	}
	return err
}
