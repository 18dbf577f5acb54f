package vtree

// walkViews visits every node of the subtree that has a bound view, in
// pre-order: the node, its header, its children, its footer. Returning false
// from fn stops the walk.
func (n *Node) walkViews(fn func(*Node) bool) bool {
	if n.IsNull() {
		return true
	}
	if n.view != nil && !fn(n) {
		return false
	}
	for _, s := range n.slots() {
		if !s.walkViews(fn) {
			return false
		}
	}
	return true
}

// ViewWithKey returns the first view in the subtree whose node has the given
// coordinator key, or nil.
func (n *Node) ViewWithKey(key string) View {
	if key == "" {
		return nil
	}
	var found View
	n.walkViews(func(cur *Node) bool {
		if cur.key == key {
			found = cur.view
			return false
		}
		return true
	})
	return found
}

// ViewsWithReuseIdentifier returns every view in the subtree whose node has the
// given reuse identifier, in traversal order.
func (n *Node) ViewsWithReuseIdentifier(id string) []View {
	var views []View
	n.walkViews(func(cur *Node) bool {
		if cur.reuseID == id {
			views = append(views, cur.view)
		}
		return true
	})
	return views
}

// Index is a lookup table over the views of a resolved tree.
// It is a snapshot: later passes are not reflected.
type Index struct {
	byKey   map[string]View
	byReuse map[string][]View
	nodes   map[View]*Node
}

// NewIndex builds an index over the subtree rooted at root.
func NewIndex(root *Node) *Index {
	idx := &Index{
		byKey:   make(map[string]View),
		byReuse: make(map[string][]View),
		nodes:   make(map[View]*Node),
	}
	if root == nil {
		return idx
	}
	root.walkViews(func(n *Node) bool {
		if n.key != "" {
			if _, ok := idx.byKey[n.key]; !ok {
				idx.byKey[n.key] = n.view
			}
		}
		idx.byReuse[n.reuseID] = append(idx.byReuse[n.reuseID], n.view)
		idx.nodes[n.view] = n
		return true
	})
	return idx
}

// ViewWithKey returns the first indexed view with the given key, or nil.
func (idx *Index) ViewWithKey(key string) View {
	return idx.byKey[key]
}

// ViewsWithReuseIdentifier returns the indexed views with the given reuse
// identifier in traversal order.
func (idx *Index) ViewsWithReuseIdentifier(id string) []View {
	return idx.byReuse[id]
}

// NodeFor returns the node that owned view when the index was built.
func (idx *Index) NodeFor(view View) *Node {
	return idx.nodes[view]
}

// Len returns the number of indexed views.
func (idx *Index) Len() int {
	return len(idx.nodes)
}
