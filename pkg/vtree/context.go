package vtree

// Context carries the collaborators and lookup values shared by a node tree.
//
// Contexts form a chain through Previous. Derived contexts inherit the platform,
// delegate and coordinator table of the context they were derived from.
type Context struct {
	platform     Platform
	delegate     Delegate
	previous     *Context
	key          any
	value        any
	coordinators map[string]any
}

// NewContext creates a root context for the given platform.
// A nil delegate is replaced by NopDelegate.
func NewContext(platform Platform, delegate Delegate) *Context {
	if delegate == nil {
		delegate = NopDelegate{}
	}
	return &Context{
		platform:     platform,
		delegate:     delegate,
		coordinators: make(map[string]any),
	}
}

// Platform returns the view platform.
func (c *Context) Platform() Platform {
	if c == nil {
		return nil
	}
	return c.platform
}

// Delegate returns the root node delegate.
func (c *Context) Delegate() Delegate {
	if c == nil || c.delegate == nil {
		return NopDelegate{}
	}
	return c.delegate
}

// Previous returns the context this one was derived from.
func (c *Context) Previous() *Context {
	if c == nil {
		return nil
	}
	return c.previous
}

// WithValue returns a derived context in which key maps to value.
func (c *Context) WithValue(key, value any) *Context {
	return &Context{
		platform:     c.platform,
		delegate:     c.delegate,
		previous:     c,
		key:          key,
		value:        value,
		coordinators: c.coordinators,
	}
}

// Value walks the chain and returns the innermost value for key, or nil.
func (c *Context) Value(key any) any {
	for cur := c; cur != nil; cur = cur.previous {
		if cur.previous != nil && cur.key == key {
			return cur.value
		}
	}
	return nil
}

// coordinator returns the coordinator stored under key, creating it with desc
// on first use.
func (c *Context) coordinator(key string, desc *CoordinatorDescriptor) any {
	if c == nil || c.coordinators == nil {
		return nil
	}
	if existing, ok := c.coordinators[key]; ok {
		return existing
	}
	if desc.New == nil {
		return nil
	}
	coord := desc.New()
	c.coordinators[key] = coord
	return coord
}

// CoordinatorDescriptor describes the stateful coordinator bound to a node.
type CoordinatorDescriptor struct {
	// Name identifies the coordinator type.
	Name string
	// New creates the coordinator the first time its key is seen.
	New func() any
}
