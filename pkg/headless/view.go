package headless

import (
	"fmt"
	"sort"

	"github.com/vango-dev/vtree/pkg/vtree"
)

// ContainerType is the type name of views created by NewContainer.
const ContainerType = "Container"

// View is an in-memory platform view.
type View struct {
	record vtree.ViewRecord

	id         string
	typ        string
	parent     *View
	subviews   []*View
	props      map[string]any
	frame      vtree.Size
	controller bool
	reversed   bool

	configured int
	dismantled int
}

// Record implements vtree.View.
func (v *View) Record() *vtree.ViewRecord { return &v.record }

// ID returns the platform identifier, e.g. "v3".
func (v *View) ID() string { return v.id }

// Type returns the type the view was constructed for.
func (v *View) Type() string { return v.typ }

// Parent returns the superview, or nil.
func (v *View) Parent() *View { return v.parent }

// Subviews returns a copy of the subviews in display order.
func (v *View) Subviews() []*View {
	out := make([]*View, len(v.subviews))
	copy(out, v.subviews)
	return out
}

// Frame returns the size applied by the last layout.
func (v *View) Frame() vtree.Size { return v.frame }

// Controller reports whether the view was built for a controller node.
func (v *View) Controller() bool { return v.controller }

// Reversed reports whether the last layout was right-to-left.
func (v *View) Reversed() bool { return v.reversed }

// ConfigureCount returns how many times the platform laid out the view.
func (v *View) ConfigureCount() int { return v.configured }

// DismantleCount returns how many times the view was dismantled.
func (v *View) DismantleCount() int { return v.dismantled }

// Dismantled reports whether the view was torn down.
func (v *View) Dismantled() bool { return v.dismantled > 0 }

// SetProp sets a configuration property.
func (v *View) SetProp(key string, value any) {
	if v.props == nil {
		v.props = make(map[string]any)
	}
	v.props[key] = value
}

// Prop returns a configuration property.
func (v *View) Prop(key string) (any, bool) {
	val, ok := v.props[key]
	return val, ok
}

// Props returns a copy of the configuration properties.
func (v *View) Props() map[string]any {
	out := make(map[string]any, len(v.props))
	for k, val := range v.props {
		out[k] = val
	}
	return out
}

// String returns "Type#id".
func (v *View) String() string {
	if v == nil {
		return "<nil>"
	}
	return v.typ + "#" + v.id
}

func (v *View) indexOf(child *View) int {
	for i, s := range v.subviews {
		if s == child {
			return i
		}
	}
	return -1
}

func (v *View) insert(child *View, at int) {
	child.parent = v
	if at < 0 || at >= len(v.subviews) {
		v.subviews = append(v.subviews, child)
		return
	}
	v.subviews = append(v.subviews, nil)
	copy(v.subviews[at+1:], v.subviews[at:])
	v.subviews[at] = child
}

func (v *View) remove(child *View) {
	if i := v.indexOf(child); i >= 0 {
		v.subviews = append(v.subviews[:i], v.subviews[i+1:]...)
	}
	child.parent = nil
}

func (v *View) sortedProps() []string {
	keys := make([]string, 0, len(v.props))
	for k := range v.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s=%v", k, v.props[k])
	}
	return out
}
