package vtree

// Stats counts the view operations performed by one pass.
type Stats struct {
	Constructed int `json:"constructed"`
	Reused      int `json:"reused"`
	Dismantled  int `json:"dismantled"`
	Configured  int `json:"configured"`
}

// Add returns the sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Constructed: s.Constructed + o.Constructed,
		Reused:      s.Reused + o.Reused,
		Dismantled:  s.Dismantled + o.Dismantled,
		Configured:  s.Configured + o.Configured,
	}
}

// reconciler performs one pass over a node tree.
type reconciler struct {
	platform Platform
	size     Size
	options  LayoutOptions
	force    bool
	stats    Stats

	// mounted is the root whose view was constructed during the pass.
	mounted *Node
}

func newReconciler(p Platform, size Size, options LayoutOptions, force bool) *reconciler {
	return &reconciler{
		platform: p,
		size:     size,
		options:  options,
		force:    force,
	}
}

// build resolves the view of n inside parentView, reusing candidate when
// possible, then recurses into the slots of n.
func (r *reconciler) build(n *Node, parentView, candidate View) {
	if n.IsNull() {
		if candidate != nil {
			r.release(candidate)
		}
		return
	}

	if n.view != nil && n.view != candidate {
		// n is moving to another view; its current subtree goes first.
		owned := candidate != nil && candidate.Record().Registered()
		r.dismantle(n)
		if owned && !candidate.Record().Registered() {
			candidate = nil
		}
	}

	var previous *Node
	if candidate != nil {
		previous = candidate.Record().Node()
	}

	if n.CanReuseView(candidate) {
		if previous != nil && previous != n {
			previous.view = nil
			previous.superview = nil
		}
		n.bindView(candidate, parentView)
		if n.viewUpdate != nil {
			n.viewUpdate(candidate)
		}
		r.stats.Reused++
	} else {
		view := r.platform.ConstructView(n, parentView, candidate)
		if candidate != nil {
			// Releasing may dismantle n itself when it owned the candidate.
			r.release(candidate)
		}
		previous = nil
		n.bindView(view, parentView)
		r.stats.Constructed++
		if n.parent == nil {
			r.mounted = n
		}
	}

	r.configure(n)
	r.buildSlots(n, previous)
}

// buildSlots matches the slots of n against those of previous, the node that
// owned n's view before this pass.
func (r *reconciler) buildSlots(n, previous *Node) {
	var oldHeader, oldFooter *Node
	var oldChildren []*Node
	if previous != nil {
		oldHeader, oldFooter, oldChildren = previous.header, previous.footer, previous.children
	}

	r.buildSlot(n.header, oldHeader, n.view)
	for i, child := range n.children {
		var old *Node
		if i < len(oldChildren) {
			old = oldChildren[i]
		}
		r.buildSlot(child, old, n.view)
	}
	for i := len(n.children); i < len(oldChildren); i++ {
		r.dismantle(oldChildren[i])
	}
	r.buildSlot(n.footer, oldFooter, n.view)

	r.order(n)
}

func (r *reconciler) buildSlot(next, old *Node, parentView View) {
	if next.IsNull() {
		if old != next {
			r.dismantle(old)
		}
		return
	}
	var candidate View
	if !old.IsNull() && old.view != nil {
		if old.StructureMatches(next) {
			candidate = old.view
		} else {
			r.dismantle(old)
		}
	}
	r.build(next, parentView, candidate)
}

// order hands the managed subviews of n to the platform in node order.
func (r *reconciler) order(n *Node) {
	views := make([]View, 0, len(n.children)+2)
	for _, s := range n.slots() {
		if !s.IsNull() && s.view != nil {
			views = append(views, s.view)
		}
	}
	if len(views) > 1 {
		r.platform.OrderSubviews(n.view, views)
	}
}

// configure applies the layout functions of n and lets the platform lay out
// its view.
func (r *reconciler) configure(n *Node) {
	spec := &LayoutSpec{
		Node:     n,
		View:     n.view,
		Size:     r.size,
		Options:  r.options,
		Context:  n.ctx,
		Reversed: n.reversed,
	}
	for _, fn := range n.layout {
		fn(spec)
	}
	n.lastSize, n.lastOptions = r.size, r.options
	r.platform.ReconcileView(n, n.view, r.size, n.superview, r.force)
	r.stats.Configured++
}

// layout reconfigures the existing views of the subtree rooted at n.
func (r *reconciler) layout(n *Node) {
	if n.IsNull() || n.view == nil {
		return
	}
	r.configure(n)
	for _, s := range n.slots() {
		r.layout(s)
	}
}

// release dismantles a candidate view nobody claimed, together with the
// subtree of the node that owns it.
func (r *reconciler) release(view View) {
	if owner := view.Record().Node(); owner != nil && owner.view == view {
		r.dismantle(owner)
		return
	}
	view.Record().clear()
	r.platform.DismantleView(view)
	r.stats.Dismantled++
}

// dismantle tears down the views of the subtree rooted at n, descendants first.
func (r *reconciler) dismantle(n *Node) {
	if n.IsNull() {
		return
	}
	for _, s := range n.slots() {
		r.dismantle(s)
	}
	if n.view == nil {
		return
	}
	view := n.view
	n.view, n.superview = nil, nil
	if rec := view.Record(); rec.node == n {
		rec.clear()
	}
	r.platform.DismantleView(view)
	r.stats.Dismantled++
}

// notify sends the delegate notifications for a finished pass on root.
func (r *reconciler) notify(root *Node) {
	if root.IsNull() || root.parent != nil || root.view == nil {
		return
	}
	d := root.ctx.Delegate()
	if r.mounted == root {
		d.RootNodeDidMount(root)
	}
	d.RootNodeDidLayout(root)
}

// locate returns the subview of container that n should treat as its
// candidate: the registered root view carrying n's reuse identifier. Views
// owned by another hierarchy are never returned.
func (n *Node) locate(p Platform, container View) View {
	if container == nil {
		return nil
	}
	if n.view != nil && n.superview == container {
		return n.view
	}
	for _, sub := range p.Subviews(container) {
		rec := sub.Record()
		if !rec.Registered() || rec.node.parent != nil {
			continue
		}
		if rec.node.hierarchy != nil && rec.node.hierarchy != n.hierarchy {
			continue
		}
		if rec.ReuseID == n.reuseID {
			return sub
		}
	}
	return nil
}

// Build resolves the view of n inside parentView, reusing candidate when
// CanReuseView allows it and constructing a new view otherwise, then
// recursively builds children, header and footer against the previous owner of
// candidate.
func (n *Node) Build(parentView, candidate View, size Size, options LayoutOptions, forceLayout bool) error {
	p, err := n.platform()
	if err != nil {
		return nodeError("Build", n, err)
	}
	r := newReconciler(p, size, options, forceLayout)
	r.build(n, parentView, candidate)
	r.notify(n)
	return nil
}

// Reconcile diffs n against the view hierarchy currently mounted in container.
// This also performs layout and configuration.
func (n *Node) Reconcile(container View, size Size, options LayoutOptions) error {
	p, err := n.platform()
	if err != nil {
		return nodeError("Reconcile", n, err)
	}
	r := newReconciler(p, size, options, false)
	r.build(n, container, n.locate(p, container))
	r.notify(n)
	return nil
}

// Layout re-applies layout functions and platform layout to the views already
// bound to the subtree. Nothing is constructed or dismantled.
func (n *Node) Layout(size Size, options LayoutOptions) error {
	p, err := n.platform()
	if err != nil {
		return nodeError("Layout", n, err)
	}
	r := newReconciler(p, size, options, true)
	r.layout(n)
	r.notify(n)
	return nil
}

// SetNeedsConfigure re-runs the layout functions of n on its current view with
// the last size and options. The layout is not invalidated.
func (n *Node) SetNeedsConfigure() {
	if n.IsNull() || n.view == nil {
		return
	}
	spec := &LayoutSpec{
		Node:          n,
		View:          n.view,
		Size:          n.lastSize,
		Options:       n.lastOptions,
		Context:       n.ctx,
		Reversed:      n.reversed,
		ConfigureOnly: true,
	}
	for _, fn := range n.layout {
		fn(spec)
	}
}

// Dismantle tears down every view bound to the subtree rooted at n.
// Calling it on a node without views is a no-op.
func (n *Node) Dismantle() {
	if n.IsNull() {
		return
	}
	p, err := n.platform()
	if err != nil {
		return
	}
	newReconciler(p, Size{}, 0, false).dismantle(n)
}
