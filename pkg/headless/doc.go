// Package headless provides an in-memory vtree.Platform.
//
// Views are plain Go values that remember their type, properties, frame and
// subviews. Every platform call is appended to an event log, which makes the
// platform useful for tooling (dumping what a tree renders to) and for tests
// (asserting exactly which views were constructed, reused or dismantled).
//
//	p := headless.New()
//	ctx := vtree.NewContext(p, nil)
//	container := p.NewContainer()
//	root.SetContext(ctx)
//	root.Reconcile(container, vtree.Size{Width: 320, Height: 480}, vtree.OptionNone)
//	fmt.Print(headless.Dump(container))
package headless
