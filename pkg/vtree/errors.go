package vtree

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyType is returned when a node is created without a type identifier.
	ErrEmptyType = errors.New("vtree: empty type identifier")

	// ErrKeyWithoutReuseID is returned when a node has a coordinator key but no
	// explicit reuse identifier.
	ErrKeyWithoutReuseID = errors.New("vtree: coordinator key requires a reuse identifier")

	// ErrViewInitWithoutReuseID is returned when a node has a custom view
	// constructor but no explicit reuse identifier.
	ErrViewInitWithoutReuseID = errors.New("vtree: custom view constructor requires a reuse identifier")

	// ErrNoContext is returned when a pass runs on a node without a context.
	ErrNoContext = errors.New("vtree: node has no context")

	// ErrNoPlatform is returned when a context carries no platform.
	ErrNoPlatform = errors.New("vtree: context has no platform")

	// ErrNoBuilder is returned when a hierarchy must rebuild but has no builder.
	ErrNoBuilder = errors.New("vtree: hierarchy has no builder")

	// ErrNilRoot is returned when a builder or caller supplies a nil root.
	ErrNilRoot = errors.New("vtree: nil root node")

	// ErrForeignNode is returned when a node already belongs to another hierarchy.
	ErrForeignNode = errors.New("vtree: node belongs to another hierarchy")

	// ErrNotMounted is returned when a pass needs a container that was never set.
	ErrNotMounted = errors.New("vtree: hierarchy is not mounted")
)

// NodeError describes a failed operation on a node.
type NodeError struct {
	// Op is the operation that failed (e.g. "New", "Reconcile").
	Op string
	// TypeID is the node's type identifier, if known.
	TypeID string
	// ReuseID is the node's reuse identifier, if known.
	ReuseID string
	// Err is the underlying error.
	Err error
}

func (e *NodeError) Error() string {
	if e.ReuseID != "" && e.ReuseID != e.TypeID {
		return fmt.Sprintf("%s %s(%s): %v", e.Op, e.TypeID, e.ReuseID, e.Err)
	}
	if e.TypeID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.TypeID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func nodeError(op string, n *Node, err error) error {
	e := &NodeError{Op: op, Err: err}
	if n != nil {
		e.TypeID = n.typeID
		e.ReuseID = n.reuseID
	}
	return e
}
