package vtree

// StructureMatches reports whether n and other denote the same view at the
// same tree position.
//
// Concrete nodes match when type, reuse identifier and index are equal, unless
// both opted out of reuse. A null node only matches another null node.
func (n *Node) StructureMatches(other *Node) bool {
	if n.IsNull() || other.IsNull() {
		return n.IsNull() && other.IsNull()
	}
	if !n.canReuse && !other.canReuse {
		return false
	}
	return n.typeID == other.typeID &&
		n.reuseID == other.reuseID &&
		n.index == other.index
}

// CanReuseView reports whether n may adopt view instead of constructing a new one.
func (n *Node) CanReuseView(view View) bool {
	if n.IsNull() || view == nil || !n.canReuse {
		return false
	}
	rec := view.Record()
	if !rec.Registered() {
		return false
	}
	return rec.TypeID == n.typeID && rec.ReuseID == n.reuseID
}
