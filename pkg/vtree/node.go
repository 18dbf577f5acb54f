package vtree

import "fmt"

// Kind is the node variant discriminator.
type Kind uint8

const (
	KindConcrete Kind = iota // Backed by a platform view
	KindNull                 // Placeholder for "no node here"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindConcrete:
		return "Concrete"
	case KindNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// Slot identifies which structural slot of its parent a node occupies.
type Slot uint8

const (
	SlotRoot   Slot = iota // No parent
	SlotChild              // Member of the parent's children
	SlotHeader             // Parent's header
	SlotFooter             // Parent's footer
)

// String returns the string representation of the Slot.
func (s Slot) String() string {
	switch s {
	case SlotRoot:
		return "root"
	case SlotChild:
		return "child"
	case SlotHeader:
		return "header"
	case SlotFooter:
		return "footer"
	default:
		return "unknown"
	}
}

// Node describes one position of the view tree and the view that backs it.
//
// Identity (type, reuse identifier, key) is fixed at construction. Children,
// slots and flags may be changed until the node takes part in a pass.
type Node struct {
	kind    Kind
	typeID  string
	reuseID string
	key     string

	index    int
	slot     Slot
	children []*Node
	header   *Node
	footer   *Node
	parent   *Node

	view       View
	superview  View
	layout     []LayoutFunc
	viewInit   ViewInitFunc
	viewUpdate ViewUpdateFunc

	canReuse     bool
	isController bool
	reversed     bool
	tag          int64

	coordinator *CoordinatorDescriptor
	ctx         *Context
	hierarchy   *Hierarchy

	lastSize    Size
	lastOptions LayoutOptions
}

// NodeOption configures a node at construction.
type NodeOption func(*nodeConfig)

type nodeConfig struct {
	reuseID    string
	key        string
	viewInit   ViewInitFunc
	viewUpdate ViewUpdateFunc
}

// WithReuseID sets the reuse identifier. Identifiers tell the engine which
// nodes denote the same view across passes.
func WithReuseID(id string) NodeOption {
	return func(c *nodeConfig) {
		c.reuseID = id
	}
}

// WithKey sets the coordinator key. Requires WithReuseID.
func WithKey(key string) NodeOption {
	return func(c *nodeConfig) {
		c.key = key
	}
}

// WithViewInit sets a custom view constructor. Requires WithReuseID.
func WithViewInit(fn ViewInitFunc) NodeOption {
	return func(c *nodeConfig) {
		c.viewInit = fn
	}
}

// WithViewUpdate sets the callback run when a view is reused by the node.
func WithViewUpdate(fn ViewUpdateFunc) NodeOption {
	return func(c *nodeConfig) {
		c.viewUpdate = fn
	}
}

// New creates a concrete node for the given view type.
func New(typeID string, layout LayoutFunc, opts ...NodeOption) (*Node, error) {
	var cfg nodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if typeID == "" {
		return nil, &NodeError{Op: "New", ReuseID: cfg.reuseID, Err: ErrEmptyType}
	}
	if cfg.key != "" && cfg.reuseID == "" {
		return nil, &NodeError{Op: "New", TypeID: typeID, Err: ErrKeyWithoutReuseID}
	}
	if cfg.viewInit != nil && cfg.reuseID == "" {
		return nil, &NodeError{Op: "New", TypeID: typeID, Err: ErrViewInitWithoutReuseID}
	}

	n := &Node{
		kind:       KindConcrete,
		typeID:     typeID,
		reuseID:    cfg.reuseID,
		key:        cfg.key,
		viewInit:   cfg.viewInit,
		viewUpdate: cfg.viewUpdate,
		canReuse:   true,
	}
	if n.reuseID == "" {
		n.reuseID = typeID
	}
	if layout != nil {
		n.layout = []LayoutFunc{layout}
	}
	return n, nil
}

// Must is like New but panics on error.
func Must(typeID string, layout LayoutFunc, opts ...NodeOption) *Node {
	n, err := New(typeID, layout, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// Null returns a new null node.
func Null() *Node {
	return &Node{kind: KindNull}
}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// IsNull reports whether n is nil or a null node.
func (n *Node) IsNull() bool {
	return n == nil || n.kind == KindNull
}

// TypeID returns the type identifier of the backing view.
func (n *Node) TypeID() string { return n.typeID }

// ReuseID returns the reuse identifier.
func (n *Node) ReuseID() string { return n.reuseID }

// Key returns the coordinator key, or "".
func (n *Node) Key() string { return n.key }

// Index returns the position of the node among its parent's children.
func (n *Node) Index() int { return n.index }

// Slot returns the parent slot the node occupies.
func (n *Node) Slot() Slot { return n.slot }

// Children returns the child nodes. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Header returns the header node, or nil.
func (n *Node) Header() *Node { return n.header }

// Footer returns the footer node, or nil.
func (n *Node) Footer() *Node { return n.footer }

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// View returns the rendered view, or nil if none is bound.
func (n *Node) View() View { return n.view }

// ViewInit returns the custom view constructor, or nil.
func (n *Node) ViewInit() ViewInitFunc { return n.viewInit }

// Context returns the context the node was registered in.
func (n *Node) Context() *Context { return n.ctx }

// Hierarchy returns the hierarchy the node belongs to, or nil.
func (n *Node) Hierarchy() *Hierarchy { return n.hierarchy }

// CanReuseNodes reports whether views may be reused at this position.
func (n *Node) CanReuseNodes() bool { return n.canReuse }

// SetCanReuseNodes opts the node in or out of view reuse.
func (n *Node) SetCanReuseNodes(v bool) { n.canReuse = v }

// IsControllerNode reports whether the view is owned by an external controller.
func (n *Node) IsControllerNode() bool { return n.isController }

// SetControllerNode marks the node as backed by an external controller.
func (n *Node) SetControllerNode(v bool) { n.isController = v }

// Tag returns the caller-defined tag.
func (n *Node) Tag() int64 { return n.tag }

// SetTag sets a caller-defined tag. The engine never reads it.
func (n *Node) SetTag(tag int64) { n.tag = tag }

// Reversed reports whether the node lays out right-to-left.
func (n *Node) Reversed() bool { return n.reversed }

// String returns a short description such as "Label(title)#2".
func (n *Node) String() string {
	if n.IsNull() {
		return "Null"
	}
	if n.reuseID != n.typeID {
		return fmt.Sprintf("%s(%s)#%d", n.typeID, n.reuseID, n.index)
	}
	return fmt.Sprintf("%s#%d", n.typeID, n.index)
}

// AppendChildren appends children in order and returns n.
func (n *Node) AppendChildren(children ...*Node) *Node {
	for _, child := range children {
		n.AddChild(child)
	}
	return n
}

// AddChild appends one child and returns n.
// It panics if n is a null node or child already has a parent.
func (n *Node) AddChild(child *Node) *Node {
	if child == nil {
		child = Null()
	}
	n.adopt(child, SlotChild, len(n.children))
	n.children = append(n.children, child)
	return n
}

// SetHeader places h in the header slot and returns n. A nil h clears the slot.
func (n *Node) SetHeader(h *Node) *Node {
	if h != nil {
		n.adopt(h, SlotHeader, 0)
	}
	n.header = h
	return n
}

// SetFooter places f in the footer slot and returns n. A nil f clears the slot.
func (n *Node) SetFooter(f *Node) *Node {
	if f != nil {
		n.adopt(f, SlotFooter, 0)
	}
	n.footer = f
	return n
}

func (n *Node) adopt(child *Node, slot Slot, index int) {
	if n.IsNull() {
		panic("vtree: null nodes cannot have children")
	}
	if child.parent != nil {
		panic(fmt.Sprintf("vtree: %v already has parent %v; build fresh nodes for every pass instead of reusing nodes from an earlier tree", child, child.parent))
	}
	child.parent = n
	child.slot = slot
	child.index = index
	child.setContext(n.ctx)
	child.setHierarchy(n.hierarchy)
	child.setReversed(n.reversed)
}

// AddLayoutSpec chains another layout function after the existing ones.
func (n *Node) AddLayoutSpec(fn LayoutFunc) *Node {
	if fn != nil {
		n.layout = append(n.layout, fn)
	}
	return n
}

// BindCoordinator associates a coordinator descriptor with n and returns n.
// The association is only resolved for nodes with a key.
func (n *Node) BindCoordinator(desc *CoordinatorDescriptor) *Node {
	n.coordinator = desc
	return n
}

// CoordinatorDescriptor returns the bound descriptor, or nil.
func (n *Node) CoordinatorDescriptor() *CoordinatorDescriptor { return n.coordinator }

// Coordinator returns the coordinator for the node's key, creating it on first
// use. It returns nil if the node has no key, no descriptor or no context.
func (n *Node) Coordinator() any {
	if n.key == "" || n.coordinator == nil || n.ctx == nil {
		return nil
	}
	return n.ctx.coordinator(n.key, n.coordinator)
}

// SetContext registers n and its descendants in ctx.
func (n *Node) SetContext(ctx *Context) {
	n.setContext(ctx)
}

func (n *Node) setContext(ctx *Context) {
	n.walkAll(func(cur *Node) { cur.ctx = ctx })
}

func (n *Node) setHierarchy(h *Hierarchy) {
	n.walkAll(func(cur *Node) { cur.hierarchy = h })
}

func (n *Node) setReversed(v bool) {
	n.walkAll(func(cur *Node) { cur.reversed = v })
}

// Reverse flips the layout direction of n and sets every descendant to the
// same direction.
func (n *Node) Reverse() {
	n.setReversed(!n.reversed)
}

// walkAll visits n, its header, children and footer in pre-order, including
// null nodes.
func (n *Node) walkAll(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	n.header.walkAll(fn)
	for _, child := range n.children {
		child.walkAll(fn)
	}
	n.footer.walkAll(fn)
}

// slots returns the structural slots of n in display order. Entries may be nil.
func (n *Node) slots() []*Node {
	out := make([]*Node, 0, len(n.children)+2)
	out = append(out, n.header)
	out = append(out, n.children...)
	return append(out, n.footer)
}

func (n *Node) platform() (Platform, error) {
	if n.ctx == nil {
		return nil, ErrNoContext
	}
	p := n.ctx.Platform()
	if p == nil {
		return nil, ErrNoPlatform
	}
	return p, nil
}

// bindView makes n the owner of view.
func (n *Node) bindView(view View, superview View) {
	n.view = view
	n.superview = superview
	view.Record().bind(n)
}
