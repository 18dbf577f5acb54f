// Package errors provides structured, actionable error messages for the vtree
// tools.
//
// Every error the CLI or the inspector reports carries:
//   - A stable code (e.g. "V003") and a category
//   - A short message and an optional longer explanation
//   - The location in a tree file when one is known
//   - A hint on how to fix the problem
//
// # Error Categories
//
//   - tree: Invalid tree descriptions (unknown fields, missing types)
//   - pass: Reconciliation failures (no builder, not mounted, foreign node)
//   - config: Invalid vtree.json
//   - store: Snapshot store failures
//   - inspector: Inspector server failures
//   - cli: Command-line usage errors
//
// # Usage
//
//	err := errors.New("V003").
//	    WithLocation("tree.yaml", 7, 5).
//	    WithSuggestion("Add a reuse: field next to key:")
//
//	fmt.Print(err.Format())
//	// Output:
//	// ERROR V003: Coordinator key without reuse identifier
//	//
//	//   tree.yaml:7:5
//	//   ...
//
// Engine errors are mapped onto codes with Classify.
package errors
