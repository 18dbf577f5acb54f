package vtree

import (
	"context"
	"fmt"
	"log/slog"
)

// State is the lifecycle state of a Hierarchy.
type State uint8

const (
	StateEmpty   State = iota // No container bound
	StateMounted              // Bound to a container
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateMounted:
		return "mounted"
	default:
		return "unknown"
	}
}

// Builder produces a fresh node tree for a pass.
type Builder func(ctx *Context) (*Node, error)

// Hierarchy owns a root node and remembers where and how it was last rendered.
type Hierarchy struct {
	ctx        *Context
	builder    Builder
	root       *Node
	container  View
	size       Size
	options    LayoutOptions
	state      State
	reversed   bool
	middleware []Middleware
	logger     *slog.Logger
	last       Stats
}

// HierarchyOption configures a Hierarchy.
type HierarchyOption func(*Hierarchy)

// WithBuilder sets the builder used by BuildHierarchy and SetNeedsReconcile.
func WithBuilder(b Builder) HierarchyOption {
	return func(h *Hierarchy) {
		h.builder = b
	}
}

// WithMiddleware appends pass middleware. The first one runs outermost.
func WithMiddleware(mw ...Middleware) HierarchyOption {
	return func(h *Hierarchy) {
		h.middleware = append(h.middleware, mw...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HierarchyOption {
	return func(h *Hierarchy) {
		h.logger = logger
	}
}

// NewHierarchy creates an empty hierarchy. The root is supplied later through
// Setup or the builder.
func NewHierarchy(ctx *Context, opts ...HierarchyOption) *Hierarchy {
	h := &Hierarchy{ctx: ctx}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default().With("component", "vtree")
	}
	return h
}

// NewHierarchyWithBuilder creates a hierarchy and invokes builder once to
// establish the initial root. Nothing is rendered until the first pass.
func NewHierarchyWithBuilder(ctx *Context, builder Builder, opts ...HierarchyOption) (*Hierarchy, error) {
	h := NewHierarchy(ctx, append(opts, WithBuilder(builder))...)
	root, err := h.invokeBuilder()
	if err != nil {
		return nil, err
	}
	if err := h.adoptRoot("NewHierarchy", root); err != nil {
		return nil, err
	}
	h.root = root
	return h, nil
}

// Context returns the hierarchy's context.
func (h *Hierarchy) Context() *Context { return h.ctx }

// Root returns the current root node, or nil.
func (h *Hierarchy) Root() *Node { return h.root }

// Container returns the last container view, or nil.
func (h *Hierarchy) Container() View { return h.container }

// Size returns the last constrained size.
func (h *Hierarchy) Size() Size { return h.size }

// Options returns the last layout options.
func (h *Hierarchy) Options() LayoutOptions { return h.options }

// State returns the lifecycle state.
func (h *Hierarchy) State() State { return h.state }

// LastStats returns the statistics of the most recent pass.
func (h *Hierarchy) LastStats() Stats { return h.last }

// Logger returns the hierarchy's logger.
func (h *Hierarchy) Logger() *slog.Logger { return h.logger }

// SetBuilder replaces the builder used by later rebuilds.
func (h *Hierarchy) SetBuilder(b Builder) { h.builder = b }

// Setup binds container, size, options and an already built root without
// reconciling anything. It is meant for the first mount. A different root that
// was mounted before has its views dismantled.
func (h *Hierarchy) Setup(container View, size Size, options LayoutOptions, root *Node) error {
	if err := h.adoptRoot("Setup", root); err != nil {
		return err
	}
	if prev := h.root; prev != nil && prev != root {
		if prev.view != nil {
			err := h.run(PassDismantle, h.size, h.options, func(r *reconciler) error {
				r.dismantle(prev)
				return nil
			})
			if err != nil {
				return err
			}
		}
		prev.setHierarchy(nil)
	}
	h.root = root
	h.container = container
	h.size = size
	h.options = options
	h.state = StateMounted
	return nil
}

// BuildHierarchy invokes the builder for a new root and reconciles it against
// the current root inside container. This is the only pass that can change the
// structure of the tree. When the builder fails nothing is touched.
func (h *Hierarchy) BuildHierarchy(container View, size Size, options LayoutOptions) error {
	return h.run(PassBuild, size, options, func(r *reconciler) error {
		next, err := h.invokeBuilder()
		if err != nil {
			return err
		}
		if err := h.adoptRoot("BuildHierarchy", next); err != nil {
			return err
		}

		prev := h.root
		var candidate View
		if prev != nil && prev != next {
			if prev.view != nil {
				if prev.StructureMatches(next) && prev.superview == container {
					candidate = prev.view
				} else {
					r.dismantle(prev)
				}
			}
		} else {
			candidate = next.locate(r.platform, container)
		}
		r.build(next, container, candidate)

		if prev != nil && prev != next {
			prev.setHierarchy(nil)
		}
		h.mount(next, container, size, options)
		r.notify(next)
		return nil
	})
}

// Reconcile reconciles the current root against container, or against the
// remembered container when container is nil.
func (h *Hierarchy) Reconcile(container View, size Size, options LayoutOptions) error {
	if h.root == nil {
		return nodeError("Reconcile", nil, ErrNilRoot)
	}
	if container == nil {
		container = h.container
	}
	if container == nil {
		return nodeError("Reconcile", h.root, ErrNotMounted)
	}
	return h.run(PassReconcile, size, options, func(r *reconciler) error {
		root := h.root
		r.build(root, container, root.locate(r.platform, container))
		h.mount(root, container, size, options)
		r.notify(root)
		return nil
	})
}

// Layout re-applies layout to the views of the current root.
func (h *Hierarchy) Layout(size Size, options LayoutOptions) error {
	if h.root == nil || h.state == StateEmpty {
		return nodeError("Layout", h.root, ErrNotMounted)
	}
	return h.run(PassLayout, size, options, func(r *reconciler) error {
		r.layout(h.root)
		h.size, h.options = size, options
		r.notify(h.root)
		return nil
	})
}

// SetNeedsReconcile rebuilds the tree with the builder and reconciles it using
// the remembered container, size and options. Always correct, but costlier
// than SetNeedsLayout.
func (h *Hierarchy) SetNeedsReconcile() error {
	if h.builder == nil {
		return nodeError("SetNeedsReconcile", h.root, ErrNoBuilder)
	}
	if h.container == nil {
		return nodeError("SetNeedsReconcile", h.root, ErrNotMounted)
	}
	return h.BuildHierarchy(h.container, h.size, h.options)
}

// SetNeedsLayout re-lays out the current views with the remembered size and
// options. Only valid when the structure did not change. No-op while empty.
func (h *Hierarchy) SetNeedsLayout() error {
	if h.root == nil || h.state == StateEmpty {
		return nil
	}
	return h.Layout(h.size, h.options)
}

// Reverse flips the layout direction of the whole tree. Roots produced by
// later rebuilds are flipped as well.
func (h *Hierarchy) Reverse() {
	h.reversed = !h.reversed
	if h.root != nil {
		h.root.Reverse()
	}
}

// Dismantle tears down every view of the hierarchy and returns it to the empty
// state. The builder is kept, so the hierarchy can be built again.
func (h *Hierarchy) Dismantle() error {
	if h.root == nil {
		h.state = StateEmpty
		return nil
	}
	return h.run(PassDismantle, h.size, h.options, func(r *reconciler) error {
		r.dismantle(h.root)
		h.root.setHierarchy(nil)
		h.root = nil
		h.container = nil
		h.state = StateEmpty
		return nil
	})
}

// ViewWithKey returns the first view with the given coordinator key, or nil.
func (h *Hierarchy) ViewWithKey(key string) View {
	if h.root == nil {
		return nil
	}
	return h.root.ViewWithKey(key)
}

// ViewsWithReuseIdentifier returns the views with the given reuse identifier.
func (h *Hierarchy) ViewsWithReuseIdentifier(id string) []View {
	if h.root == nil {
		return nil
	}
	return h.root.ViewsWithReuseIdentifier(id)
}

// Index builds a lookup index over the current tree.
func (h *Hierarchy) Index() *Index {
	return NewIndex(h.root)
}

// Describe returns the description of the current tree, or nil.
func (h *Hierarchy) Describe() *Description {
	return Describe(h.root)
}

func (h *Hierarchy) mount(root *Node, container View, size Size, options LayoutOptions) {
	h.root = root
	h.container = container
	h.size = size
	h.options = options
	h.state = StateMounted
}

func (h *Hierarchy) invokeBuilder() (*Node, error) {
	if h.builder == nil {
		return nil, nodeError("Build", nil, ErrNoBuilder)
	}
	root, err := h.builder(h.ctx)
	if err != nil {
		return nil, fmt.Errorf("vtree: builder: %w", err)
	}
	if root == nil {
		return nil, nodeError("Build", nil, ErrNilRoot)
	}
	return root, nil
}

func (h *Hierarchy) adoptRoot(op string, root *Node) error {
	if root == nil {
		return nodeError(op, nil, ErrNilRoot)
	}
	if root.parent != nil || (root.hierarchy != nil && root.hierarchy != h) {
		return nodeError(op, root, ErrForeignNode)
	}
	if h.reversed && root != h.root && root.hierarchy != h {
		root.Reverse()
	}
	root.setHierarchy(h)
	root.setContext(h.ctx)
	return nil
}

func (h *Hierarchy) run(kind PassKind, size Size, options LayoutOptions, fn func(r *reconciler) error) error {
	p := h.ctx.Platform()
	if p == nil {
		return nodeError(kind.String(), h.root, ErrNoPlatform)
	}
	r := newReconciler(p, size, options, kind == PassLayout)
	pass := &Pass{
		Kind:      kind,
		Hierarchy: h,
		Size:      size,
		Options:   options,
		Ctx:       context.Background(),
	}
	err := chain(h.middleware, pass, func() error {
		err := fn(r)
		pass.Stats = r.stats
		return err
	})()
	h.last = pass.Stats
	if err != nil {
		h.logger.Warn("pass failed", "pass", kind.String(), "error", err)
		return err
	}
	h.logger.Debug("pass finished",
		"pass", kind.String(),
		"constructed", r.stats.Constructed,
		"reused", r.stats.Reused,
		"dismantled", r.stats.Dismantled,
		"configured", r.stats.Configured,
	)
	return nil
}
