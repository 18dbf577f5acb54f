package headless

import (
	"strconv"
	"strings"

	"github.com/vango-dev/vtree/pkg/vtree"
)

// Op is the kind of a recorded platform call.
type Op uint8

const (
	OpConstruct Op = iota + 1 // View created and inserted
	OpReconcile               // View laid out
	OpDismantle               // View torn down
	OpOrder                   // Subviews reordered
)

// String returns the string representation of the Op.
func (op Op) String() string {
	switch op {
	case OpConstruct:
		return "construct"
	case OpReconcile:
		return "reconcile"
	case OpDismantle:
		return "dismantle"
	case OpOrder:
		return "order"
	default:
		return "unknown"
	}
}

// Event is one recorded platform call.
type Event struct {
	Op     Op     `json:"op"`
	View   string `json:"view"`
	Type   string `json:"type"`
	Parent string `json:"parent,omitempty"`
}

// String returns "op Type#id".
func (e Event) String() string {
	return e.Op.String() + " " + e.View
}

// Platform is an in-memory vtree.Platform. It is not safe for concurrent use.
type Platform struct {
	counter     uint32
	events      []Event
	constructed []*View
}

var _ vtree.Platform = (*Platform)(nil)

// New creates an empty platform.
func New() *Platform {
	return &Platform{}
}

// nextID returns the next view identifier (e.g., "v1", "v2", ...).
func (p *Platform) nextID() string {
	p.counter++
	return "v" + strconv.FormatUint(uint64(p.counter), 10)
}

// NewContainer creates a view that is not managed by any node.
func (p *Platform) NewContainer() *View {
	return &View{id: p.nextID(), typ: ContainerType}
}

// Events returns a copy of the event log.
func (p *Platform) Events() []Event {
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// ResetEvents clears the event log.
func (p *Platform) ResetEvents() {
	p.events = nil
}

// Constructed returns every view built by ConstructView, in construction order.
func (p *Platform) Constructed() []*View {
	out := make([]*View, len(p.constructed))
	copy(out, p.constructed)
	return out
}

// Count returns how many events of the given kind were recorded.
func (p *Platform) Count(op Op) int {
	n := 0
	for _, e := range p.events {
		if e.Op == op {
			n++
		}
	}
	return n
}

func (p *Platform) record(op Op, v, parent *View) {
	e := Event{Op: op, View: v.String(), Type: v.typ}
	if parent != nil {
		e.Parent = parent.String()
	}
	p.events = append(p.events, e)
}

// ConstructView implements vtree.Platform.
func (p *Platform) ConstructView(n *vtree.Node, parent, candidate vtree.View) vtree.View {
	var v *View
	if init := n.ViewInit(); init != nil {
		if custom, ok := init(n).(*View); ok && custom != nil {
			v = custom
		}
	}
	if v == nil {
		v = &View{}
	}
	if v.id == "" {
		v.id = p.nextID()
	}
	v.typ = n.TypeID()
	v.controller = n.IsControllerNode()

	pv, _ := parent.(*View)
	if pv != nil {
		at := -1
		if cv, ok := candidate.(*View); ok && cv != nil && cv.parent == pv {
			at = pv.indexOf(cv)
		}
		pv.insert(v, at)
	}
	p.constructed = append(p.constructed, v)
	p.record(OpConstruct, v, pv)
	return v
}

// ReconcileView implements vtree.Platform.
func (p *Platform) ReconcileView(n *vtree.Node, view vtree.View, size vtree.Size, parent vtree.View, forceLayout bool) {
	v := view.(*View)
	v.frame = size
	v.reversed = n.Reversed()
	v.configured++
	pv, _ := parent.(*View)
	p.record(OpReconcile, v, pv)
}

// DismantleView implements vtree.Platform.
func (p *Platform) DismantleView(view vtree.View) {
	v := view.(*View)
	parent := v.parent
	if parent != nil {
		parent.remove(v)
	}
	v.dismantled++
	p.record(OpDismantle, v, parent)
}

// Subviews implements vtree.Platform.
func (p *Platform) Subviews(view vtree.View) []vtree.View {
	v, ok := view.(*View)
	if !ok || v == nil {
		return nil
	}
	out := make([]vtree.View, len(v.subviews))
	for i, s := range v.subviews {
		out[i] = s
	}
	return out
}

// OrderSubviews implements vtree.Platform.
func (p *Platform) OrderSubviews(parent vtree.View, ordered []vtree.View) {
	pv, ok := parent.(*View)
	if !ok || pv == nil {
		return
	}
	want := make([]*View, 0, len(ordered))
	member := make(map[*View]bool, len(ordered))
	for _, o := range ordered {
		if v, ok := o.(*View); ok && v.parent == pv && !member[v] {
			want = append(want, v)
			member[v] = true
		}
	}
	changed := false
	next := 0
	for i, s := range pv.subviews {
		if !member[s] {
			continue
		}
		if pv.subviews[i] != want[next] {
			pv.subviews[i] = want[next]
			changed = true
		}
		next++
	}
	if changed {
		p.record(OpOrder, pv, pv.parent)
	}
}

// Dump renders the subtree of v as indented text, one view per line.
func Dump(v *View) string {
	var b strings.Builder
	dump(&b, v, 0)
	return b.String()
}

func dump(b *strings.Builder, v *View, depth int) {
	if v == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(v.String())
	if rec := v.Record(); rec.Registered() && rec.ReuseID != rec.TypeID {
		b.WriteString(" (" + rec.ReuseID + ")")
	}
	if props := v.sortedProps(); len(props) > 0 {
		b.WriteString(" [" + strings.Join(props, " ") + "]")
	}
	b.WriteString("\n")
	for _, s := range v.subviews {
		dump(b, s, depth+1)
	}
}
