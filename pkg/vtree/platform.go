package vtree

// View is a live platform view managed by the engine.
//
// Implementations store a ViewRecord and return the same pointer on every call;
// the engine uses it to remember which node a view was built for. Views are
// compared by identity and must be comparable, typically pointer types.
type View interface {
	Record() *ViewRecord
}

// ViewRecord is the bookkeeping the engine attaches to a managed view.
type ViewRecord struct {
	TypeID  string // Type identifier of the node that built the view
	ReuseID string // Reuse identifier of the owning node
	Key     string // Coordinator key of the owning node

	node *Node
}

// Node returns the node currently owning the view, or nil.
func (r *ViewRecord) Node() *Node {
	if r == nil {
		return nil
	}
	return r.node
}

// Registered reports whether the view is bound to a node.
func (r *ViewRecord) Registered() bool {
	return r != nil && r.node != nil
}

func (r *ViewRecord) bind(n *Node) {
	r.TypeID = n.typeID
	r.ReuseID = n.reuseID
	r.Key = n.key
	r.node = n
}

func (r *ViewRecord) clear() {
	*r = ViewRecord{}
}

// Platform is the view system the engine drives.
type Platform interface {
	// ConstructView builds a view for n and inserts it into parent.
	// When candidate is a subview of parent the new view takes its position;
	// otherwise it is appended. Implementations must honor n.ViewInit().
	ConstructView(n *Node, parent, candidate View) View

	// ReconcileView applies geometry for n to view within the constrained size.
	ReconcileView(n *Node, view View, size Size, parent View, forceLayout bool)

	// DismantleView removes view from its parent and releases its resources.
	// The engine calls it exactly once per constructed view.
	DismantleView(view View)

	// Subviews returns the current subviews of view in display order.
	Subviews(view View) []View

	// OrderSubviews reorders the given subviews of parent to match ordered.
	// Subviews of parent that are not listed keep their relative position.
	OrderSubviews(parent View, ordered []View)
}

// Delegate receives informational notifications about a root node.
// Notifications never influence reconciliation.
type Delegate interface {
	// RootNodeDidLayout is called after the root was configured and laid out.
	// Use ViewWithKey or ViewsWithReuseIdentifier to add manual layout here.
	RootNodeDidLayout(n *Node)

	// RootNodeDidMount is called after the root view was inserted into its container.
	RootNodeDidMount(n *Node)
}

// NopDelegate implements Delegate with no-op hooks. Embed it to override one hook.
type NopDelegate struct{}

// RootNodeDidLayout implements Delegate.
func (NopDelegate) RootNodeDidLayout(*Node) {}

// RootNodeDidMount implements Delegate.
func (NopDelegate) RootNodeDidMount(*Node) {}

// DelegateFuncs adapts plain functions to Delegate. Nil fields are ignored.
type DelegateFuncs struct {
	DidLayout func(n *Node)
	DidMount  func(n *Node)
}

// RootNodeDidLayout implements Delegate.
func (d DelegateFuncs) RootNodeDidLayout(n *Node) {
	if d.DidLayout != nil {
		d.DidLayout(n)
	}
}

// RootNodeDidMount implements Delegate.
func (d DelegateFuncs) RootNodeDidMount(n *Node) {
	if d.DidMount != nil {
		d.DidMount(n)
	}
}
