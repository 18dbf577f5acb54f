package vtree_test

import (
	"testing"

	"github.com/vango-dev/vtree/pkg/headless"
	"github.com/vango-dev/vtree/pkg/vtree"
)

var testSize = vtree.Size{Width: 320, Height: 480}

func label(id string) *vtree.Node {
	return vtree.Must("Label", nil, vtree.WithReuseID(id))
}

func stack(children ...*vtree.Node) *vtree.Node {
	return vtree.Must("Stack", nil, vtree.WithReuseID("root")).AppendChildren(children...)
}

// fixture mounts a hierarchy whose builder returns whatever build currently
// returns.
type fixture struct {
	t         *testing.T
	platform  *headless.Platform
	container *headless.View
	h         *vtree.Hierarchy
	build     func() *vtree.Node
}

func newFixture(t *testing.T, build func() *vtree.Node, opts ...vtree.HierarchyOption) *fixture {
	t.Helper()
	f := &fixture{t: t, platform: headless.New(), build: build}
	f.container = f.platform.NewContainer()
	ctx := vtree.NewContext(f.platform, nil)
	opts = append(opts, vtree.WithBuilder(func(*vtree.Context) (*vtree.Node, error) {
		return f.build(), nil
	}))
	f.h = vtree.NewHierarchy(ctx, opts...)
	return f
}

func (f *fixture) mount() {
	f.t.Helper()
	if err := f.h.BuildHierarchy(f.container, testSize, vtree.OptionNone); err != nil {
		f.t.Fatalf("BuildHierarchy: %v", err)
	}
}

func (f *fixture) rebuild(build func() *vtree.Node) {
	f.t.Helper()
	f.build = build
	f.platform.ResetEvents()
	if err := f.h.SetNeedsReconcile(); err != nil {
		f.t.Fatalf("SetNeedsReconcile: %v", err)
	}
}

func (f *fixture) events() []string {
	var out []string
	for _, e := range f.platform.Events() {
		out = append(out, e.String())
	}
	return out
}

func viewOf(t *testing.T, n *vtree.Node) *headless.View {
	t.Helper()
	v, ok := n.View().(*headless.View)
	if !ok || v == nil {
		t.Fatalf("%v has no headless view", n)
	}
	return v
}

func subviewNames(v *headless.View) []string {
	var out []string
	for _, s := range v.Subviews() {
		out = append(out, s.String())
	}
	return out
}

// requireDismantledOnce fails unless every view p ever constructed was
// dismantled exactly once.
func requireDismantledOnce(t *testing.T, p *headless.Platform) {
	t.Helper()
	for _, v := range p.Constructed() {
		if got := v.DismantleCount(); got != 1 {
			t.Errorf("%v dismantled %d times, want 1", v, got)
		}
	}
}

func sharedRoot() *vtree.Node {
	return vtree.Must("Stack", nil).AppendChildren(label("x"))
}
