package vtree

import "context"

// PassKind identifies a hierarchy pass.
type PassKind uint8

const (
	PassBuild     PassKind = iota // Builder invoked, structure reconciled
	PassReconcile                 // Current root reconciled against its container
	PassLayout                    // Layout re-applied to existing views
	PassDismantle                 // Every view torn down
)

// String returns the string representation of the PassKind.
func (k PassKind) String() string {
	switch k {
	case PassBuild:
		return "build"
	case PassReconcile:
		return "reconcile"
	case PassLayout:
		return "layout"
	case PassDismantle:
		return "dismantle"
	default:
		return "unknown"
	}
}

// Pass describes a running hierarchy pass to middleware.
type Pass struct {
	Kind      PassKind
	Hierarchy *Hierarchy
	Size      Size
	Options   LayoutOptions

	// Ctx carries request-scoped values such as trace spans. Middleware may
	// replace it before calling next.
	Ctx context.Context

	// Stats is filled in once next returns.
	Stats Stats
}

// Middleware wraps a pass. It must call next exactly once and return its error
// unless it deliberately replaces it.
type Middleware func(p *Pass, next func() error) error

// chain composes middleware around final so that mw[0] runs outermost.
func chain(mw []Middleware, p *Pass, final func() error) func() error {
	next := final
	for i := len(mw) - 1; i >= 0; i-- {
		m, inner := mw[i], next
		next = func() error { return m(p, inner) }
	}
	return next
}
