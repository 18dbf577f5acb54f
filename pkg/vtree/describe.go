package vtree

import "fmt"

// Description is a read-only, serializable picture of a resolved node tree.
type Description struct {
	Kind       string         `json:"kind"`
	Type       string         `json:"type,omitempty"`
	ReuseID    string         `json:"reuseId,omitempty"`
	Key        string         `json:"key,omitempty"`
	Index      int            `json:"index"`
	Slot       string         `json:"slot"`
	Tag        int64          `json:"tag,omitempty"`
	View       string         `json:"view,omitempty"`
	Reversed   bool           `json:"reversed,omitempty"`
	NoReuse    bool           `json:"noReuse,omitempty"`
	Controller bool           `json:"controller,omitempty"`
	Header     *Description   `json:"header,omitempty"`
	Footer     *Description   `json:"footer,omitempty"`
	Children   []*Description `json:"children,omitempty"`
}

// Describe returns the description of the subtree rooted at n, or nil for a
// nil node. Views are named by their String method when they have one.
func Describe(n *Node) *Description {
	if n == nil {
		return nil
	}
	d := &Description{
		Kind:  n.kind.String(),
		Index: n.index,
		Slot:  n.slot.String(),
	}
	if n.IsNull() {
		return d
	}
	d.Type = n.typeID
	d.ReuseID = n.reuseID
	d.Key = n.key
	d.Tag = n.tag
	d.Reversed = n.reversed
	d.NoReuse = !n.canReuse
	d.Controller = n.isController
	if n.view != nil {
		d.View = viewName(n.view)
	}
	d.Header = Describe(n.header)
	d.Footer = Describe(n.footer)
	for _, child := range n.children {
		d.Children = append(d.Children, Describe(child))
	}
	return d
}

func viewName(v View) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}

// Count returns the number of descriptions in the tree, null nodes included.
func (d *Description) Count() int {
	if d == nil {
		return 0
	}
	total := 1 + d.Header.Count() + d.Footer.Count()
	for _, c := range d.Children {
		total += c.Count()
	}
	return total
}
