package vtree_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/vtree/pkg/headless"
	"github.com/vango-dev/vtree/pkg/vtree"
)

func TestSetNeedsLayoutOnlyReconcilesViews(t *testing.T) {
	f := newFixture(t, func() *vtree.Node { return stack(label("a"), label("b")) })
	f.mount()
	f.platform.ResetEvents()

	if err := f.h.SetNeedsLayout(); err != nil {
		t.Fatalf("SetNeedsLayout: %v", err)
	}
	want := []string{"reconcile Stack#v2", "reconcile Label#v3", "reconcile Label#v4"}
	if diff := cmp.Diff(want, f.events()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if got := f.h.LastStats(); got != (vtree.Stats{Configured: 3}) {
		t.Errorf("stats = %+v", got)
	}
}

func TestLayoutAppliesNewSize(t *testing.T) {
	f := newFixture(t, func() *vtree.Node { return stack(label("a")) })
	f.mount()

	size := vtree.Size{Width: 100, Height: 50}
	if err := f.h.Layout(size, vtree.OptionSizeContainerViewToFit); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if got := viewOf(t, f.h.Root().Children()[0]).Frame(); got != size {
		t.Errorf("frame = %v, want %v", got, size)
	}
	if f.h.Size() != size || f.h.Options() != vtree.OptionSizeContainerViewToFit {
		t.Errorf("hierarchy remembered %v %v", f.h.Size(), f.h.Options())
	}
}

func TestLayoutBeforeMount(t *testing.T) {
	f := newFixture(t, func() *vtree.Node { return stack() })

	if err := f.h.SetNeedsLayout(); err != nil {
		t.Errorf("SetNeedsLayout on empty hierarchy: %v", err)
	}
	if err := f.h.Layout(testSize, vtree.OptionNone); !errors.Is(err, vtree.ErrNotMounted) {
		t.Errorf("Layout err = %v, want ErrNotMounted", err)
	}
	if err := f.h.SetNeedsReconcile(); !errors.Is(err, vtree.ErrNotMounted) {
		t.Errorf("SetNeedsReconcile err = %v, want ErrNotMounted", err)
	}
}

func TestSetNeedsReconcileWithoutBuilder(t *testing.T) {
	p := headless.New()
	h := vtree.NewHierarchy(vtree.NewContext(p, nil))
	if err := h.Setup(p.NewContainer(), testSize, vtree.OptionNone, stack()); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := h.SetNeedsReconcile(); !errors.Is(err, vtree.ErrNoBuilder) {
		t.Errorf("err = %v, want ErrNoBuilder", err)
	}
	// Reconcile still works on the supplied root.
	if err := h.Reconcile(nil, testSize, vtree.OptionNone); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if h.Root().View() == nil {
		t.Error("root has no view after Reconcile")
	}
}

func TestBuilderErrorLeavesTreeUntouched(t *testing.T) {
	f := newFixture(t, func() *vtree.Node { return stack(label("a")) })
	f.mount()
	root := f.h.Root()
	boom := errors.New("boom")

	f.platform.ResetEvents()
	f.h.SetBuilder(func(*vtree.Context) (*vtree.Node, error) { return nil, boom })
	err := f.h.SetNeedsReconcile()
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if f.h.Root() != root || root.View() == nil {
		t.Error("failed build replaced or released the root")
	}
	if len(f.events()) != 0 {
		t.Errorf("failed build reached the platform: %v", f.events())
	}

	f.h.SetBuilder(func(*vtree.Context) (*vtree.Node, error) { return nil, nil })
	if err := f.h.SetNeedsReconcile(); !errors.Is(err, vtree.ErrNilRoot) {
		t.Errorf("err = %v, want ErrNilRoot", err)
	}
}

func TestDelegateNotifications(t *testing.T) {
	var mounts, layouts int
	p := headless.New()
	ctx := vtree.NewContext(p, vtree.DelegateFuncs{
		DidMount:  func(*vtree.Node) { mounts++ },
		DidLayout: func(*vtree.Node) { layouts++ },
	})
	h, err := vtree.NewHierarchyWithBuilder(ctx, func(*vtree.Context) (*vtree.Node, error) {
		return stack(label("a")), nil
	})
	if err != nil {
		t.Fatalf("NewHierarchyWithBuilder: %v", err)
	}
	if h.Root() == nil || h.Root().View() != nil {
		t.Fatal("initial root missing or already rendered")
	}
	container := p.NewContainer()
	if err := h.BuildHierarchy(container, testSize, vtree.OptionNone); err != nil {
		t.Fatalf("BuildHierarchy: %v", err)
	}
	if err := h.SetNeedsReconcile(); err != nil {
		t.Fatalf("SetNeedsReconcile: %v", err)
	}
	if err := h.SetNeedsLayout(); err != nil {
		t.Fatalf("SetNeedsLayout: %v", err)
	}
	if mounts != 1 || layouts != 3 {
		t.Errorf("mounts = %d, layouts = %d; want 1 and 3", mounts, layouts)
	}
}

func TestInitialRootIsReconciled(t *testing.T) {
	p := headless.New()
	ctx := vtree.NewContext(p, nil)
	calls := 0
	h, err := vtree.NewHierarchyWithBuilder(ctx, func(*vtree.Context) (*vtree.Node, error) {
		calls++
		return stack(), nil
	})
	if err != nil {
		t.Fatalf("NewHierarchyWithBuilder: %v", err)
	}
	initial := h.Root()
	if err := h.Reconcile(p.NewContainer(), testSize, vtree.OptionNone); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if calls != 1 || h.Root() != initial || initial.View() == nil {
		t.Errorf("calls = %d, root replaced = %v", calls, h.Root() != initial)
	}
}

func TestMiddlewareOrderAndStats(t *testing.T) {
	var trace []string
	var seen []vtree.Stats
	record := func(name string) vtree.Middleware {
		return func(p *vtree.Pass, next func() error) error {
			trace = append(trace, name+">"+p.Kind.String())
			err := next()
			trace = append(trace, name+"<")
			if name == "outer" {
				seen = append(seen, p.Stats)
			}
			return err
		}
	}
	f := newFixture(t, func() *vtree.Node { return stack(label("a")) },
		vtree.WithMiddleware(record("outer"), record("inner")))
	f.mount()
	if err := f.h.SetNeedsLayout(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"outer>build", "inner>build", "inner<", "outer<",
		"outer>layout", "inner>layout", "inner<", "outer<",
	}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	wantStats := []vtree.Stats{{Constructed: 2, Configured: 2}, {Configured: 2}}
	if diff := cmp.Diff(wantStats, seen); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestMiddlewareCanAbortPass(t *testing.T) {
	denied := errors.New("denied")
	f := newFixture(t, func() *vtree.Node { return stack() },
		vtree.WithMiddleware(func(*vtree.Pass, func() error) error { return denied }))
	if err := f.h.BuildHierarchy(f.container, testSize, vtree.OptionNone); !errors.Is(err, denied) {
		t.Fatalf("err = %v, want denied", err)
	}
	if f.h.State() != vtree.StateEmpty || f.h.Root() != nil {
		t.Error("aborted pass changed the hierarchy")
	}
}

func TestHierarchyDismantle(t *testing.T) {
	f := newFixture(t, func() *vtree.Node { return stack(label("a"), label("b")) })
	f.mount()
	root := f.h.Root()

	if err := f.h.Dismantle(); err != nil {
		t.Fatalf("Dismantle: %v", err)
	}
	if f.h.State() != vtree.StateEmpty || f.h.Root() != nil || f.h.Container() != nil {
		t.Error("hierarchy not reset")
	}
	if got := f.h.LastStats().Dismantled; got != 3 {
		t.Errorf("dismantled %d views, want 3", got)
	}
	if root.Hierarchy() != nil {
		t.Error("old root still attached")
	}
	if len(f.container.Subviews()) != 0 {
		t.Errorf("container still has %v", subviewNames(f.container))
	}
	if err := f.h.Dismantle(); err != nil {
		t.Errorf("second Dismantle: %v", err)
	}

	// The builder survives, so the hierarchy can be mounted again.
	f.mount()
	if f.h.State() != vtree.StateMounted || len(f.container.Subviews()) != 1 {
		t.Error("remount failed")
	}
}

func TestSetupRejectsForeignNodes(t *testing.T) {
	p := headless.New()
	ctx := vtree.NewContext(p, nil)
	a := vtree.NewHierarchy(ctx)
	b := vtree.NewHierarchy(ctx)
	root := stack()
	if err := a.Setup(p.NewContainer(), testSize, vtree.OptionNone, root); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := b.Setup(p.NewContainer(), testSize, vtree.OptionNone, root); !errors.Is(err, vtree.ErrForeignNode) {
		t.Errorf("err = %v, want ErrForeignNode", err)
	}

	child := label("x")
	stack(child)
	if err := b.Setup(p.NewContainer(), testSize, vtree.OptionNone, child); !errors.Is(err, vtree.ErrForeignNode) {
		t.Errorf("non-root err = %v, want ErrForeignNode", err)
	}
	if err := b.Setup(p.NewContainer(), testSize, vtree.OptionNone, nil); !errors.Is(err, vtree.ErrNilRoot) {
		t.Errorf("nil root err = %v, want ErrNilRoot", err)
	}
}

func TestRootTypeChangeReplacesRoot(t *testing.T) {
	f := newFixture(t, func() *vtree.Node { return stack(label("a")) })
	f.mount()
	old := viewOf(t, f.h.Root())

	f.rebuild(func() *vtree.Node {
		return vtree.Must("Grid", nil, vtree.WithReuseID("root")).AppendChildren(label("a"))
	})
	if old.DismantleCount() != 1 {
		t.Errorf("old root dismantled %d times", old.DismantleCount())
	}
	if diff := cmp.Diff([]string{viewOf(t, f.h.Root()).String()}, subviewNames(f.container)); diff != "" {
		t.Errorf("container mismatch (-want +got):\n%s", diff)
	}
}

type counter struct{ n int }

func TestCoordinatorPersistsAcrossPasses(t *testing.T) {
	desc := &vtree.CoordinatorDescriptor{Name: "counter", New: func() any { return &counter{} }}
	var seen []*counter
	f := newFixture(t, func() *vtree.Node {
		n := vtree.Must("Label", func(s *vtree.LayoutSpec) {
			c := s.Node.Coordinator().(*counter)
			c.n++
			seen = append(seen, c)
		}, vtree.WithReuseID("count"), vtree.WithKey("k"))
		return stack(n.BindCoordinator(desc))
	})
	f.mount()
	f.rebuild(f.build)
	if err := f.h.SetNeedsLayout(); err != nil {
		t.Fatal(err)
	}

	if len(seen) != 3 {
		t.Fatalf("layout ran %d times", len(seen))
	}
	if seen[0] != seen[1] || seen[1] != seen[2] || seen[2].n != 3 {
		t.Errorf("coordinator not shared: %p %p %p n=%d", seen[0], seen[1], seen[2], seen[2].n)
	}
	if f.h.ViewWithKey("k") != f.h.Root().Children()[0].View() {
		t.Error("ViewWithKey did not find the keyed view")
	}
}

func TestPassesAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newFixture(t, func() *vtree.Node { return stack() }, vtree.WithLogger(logger))
	f.mount()

	out := buf.String()
	for _, want := range []string{"pass finished", "pass=build", "constructed=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestReverseReachesPlatform(t *testing.T) {
	f := newFixture(t, func() *vtree.Node { return stack(label("a")) })
	f.mount()
	f.h.Reverse()
	if err := f.h.SetNeedsLayout(); err != nil {
		t.Fatal(err)
	}
	if !viewOf(t, f.h.Root().Children()[0]).Reversed() {
		t.Error("child view not reversed")
	}
}
