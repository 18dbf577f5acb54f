// Package vtree provides the node-tree reconciliation engine for declarative views.
//
// Callers describe the desired UI as a tree of Nodes. Each Node names a platform
// view type, carries configuration in the form of layout functions, and holds
// ordered children plus optional header and footer slots. The engine mutates a
// live platform view hierarchy to match the description while keeping view
// identity wherever the previous pass rendered "the same" node at the same
// position.
//
// # Core Types
//
// Node is the declarative description of one tree position. Nodes are cheap and
// are rebuilt on every pass. Null nodes stand for "nothing here" and are used for
// conditional children and empty header/footer slots.
//
// Hierarchy owns the current root, the container it is mounted in, and the last
// constrained size and options, so that callers can rebuild or re-layout without
// re-supplying them.
//
// Platform is the collaborator that constructs, configures, orders and tears down
// real views. The engine never touches a view except through it.
//
// # Passes
//
// Three passes exist, from most to least expensive:
//
//	h.SetNeedsReconcile() // rebuild the node tree and reconcile structure
//	h.SetNeedsLayout()    // re-apply layout to existing views only
//	n.SetNeedsConfigure() // re-run one node's layout functions, no geometry
//
// # Matching
//
// Children are matched positionally. Two nodes at the same position denote the
// same view when they share type, reuse identifier and index and at least one of
// them allows reuse. A matched node adopts the previous view; an unmatched one
// causes the previous subtree to be dismantled and a fresh view to be built.
// Nodes are never matched across parents or across the header, children and
// footer slots.
//
// # Concurrency
//
// Nothing in this package is safe for concurrent use. Confine a Hierarchy and its
// nodes to one goroutine, the way platform view systems confine views to the UI
// thread.
package vtree
