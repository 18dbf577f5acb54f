package vtree

import (
	"strconv"
	"strings"
)

// Size is a constrained size in platform points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// String returns the size as "WxH".
func (s Size) String() string {
	return strconv.FormatFloat(s.Width, 'f', -1, 64) + "x" + strconv.FormatFloat(s.Height, 'f', -1, 64)
}

// LayoutOptions is a bit set of layout behaviors passed through to layout functions
// and the platform.
type LayoutOptions uint8

const (
	OptionNone                   LayoutOptions = 1 << 0
	OptionSizeContainerViewToFit LayoutOptions = 1 << 1 // Resize the container to the root's size
	OptionUseSafeAreaInsets      LayoutOptions = 1 << 2 // Inset the root by the container's safe area
)

// Has reports whether all bits of o are set.
func (opts LayoutOptions) Has(o LayoutOptions) bool {
	return opts&o == o
}

// String returns the option names joined by "|".
func (opts LayoutOptions) String() string {
	var names []string
	if opts.Has(OptionNone) {
		names = append(names, "none")
	}
	if opts.Has(OptionSizeContainerViewToFit) {
		names = append(names, "sizeContainerViewToFit")
	}
	if opts.Has(OptionUseSafeAreaInsets) {
		names = append(names, "useSafeAreaInsets")
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

// ParseLayoutOption returns the option with the given name.
func ParseLayoutOption(name string) (LayoutOptions, bool) {
	switch name {
	case "none":
		return OptionNone, true
	case "sizeContainerViewToFit":
		return OptionSizeContainerViewToFit, true
	case "useSafeAreaInsets":
		return OptionUseSafeAreaInsets, true
	default:
		return 0, false
	}
}

// LayoutSpec is handed to a node's layout functions whenever its view is configured.
type LayoutSpec struct {
	Node    *Node
	View    View
	Size    Size
	Options LayoutOptions
	Context *Context

	// Reversed is true for right-to-left presentation.
	Reversed bool

	// ConfigureOnly is true when the call comes from SetNeedsConfigure and no
	// layout pass follows.
	ConfigureOnly bool
}

// LayoutFunc configures a view and registers its layout intent.
type LayoutFunc func(spec *LayoutSpec)

// ViewInitFunc creates a custom view for a node instead of the platform default.
type ViewInitFunc func(n *Node) View

// ViewUpdateFunc is called on a view that is being reused by a new node.
type ViewUpdateFunc func(view View)
