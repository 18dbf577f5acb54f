package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Tree Errors (V001-V009)
	// ============================================

	"V001": {
		Category:   CategoryTree,
		Message:    "Tree description could not be parsed",
		Detail:     "The file is not valid YAML, is empty, or uses a field the tree format does not know.",
		Suggestion: "Known fields: type, reuse, key, tag, reuseNodes, controller, reversed, placeholder, props, header, footer, children",
	},
	"V002": {
		Category:   CategoryTree,
		Message:    "Node without type",
		Detail:     "Every node that is not a placeholder needs a type identifier naming the view it renders.",
		Suggestion: "Add a type: field, or mark the node with placeholder: true",
	},
	"V003": {
		Category:   CategoryTree,
		Message:    "Coordinator key without reuse identifier",
		Detail:     "Keyed nodes are looked up across passes, which needs an explicit reuse identifier.",
		Suggestion: "Add a reuse: field next to key:",
	},
	"V004": {
		Category:   CategoryTree,
		Message:    "Custom view constructor without reuse identifier",
		Detail:     "Nodes that build their own views must name a reuse identifier so the view can be matched later.",
		Suggestion: "Pass vtree.WithReuseID together with vtree.WithViewInit",
	},

	// ============================================
	// Pass Errors (V010-V019)
	// ============================================

	"V010": {
		Category:   CategoryPass,
		Message:    "Hierarchy is not mounted",
		Detail:     "The pass needs a container view, but the hierarchy was never built into one.",
		Suggestion: "Call BuildHierarchy or POST /reconcile first",
	},
	"V011": {
		Category: CategoryPass,
		Message:  "Hierarchy has no builder",
		Detail:   "A rebuild was requested, but no builder was configured.",
	},
	"V012": {
		Category: CategoryPass,
		Message:  "Node belongs to another hierarchy",
		Detail:   "A root node can only be mounted by one hierarchy, and child nodes cannot become roots.",
	},
	"V013": {
		Category: CategoryPass,
		Message:  "Builder returned no root",
		Detail:   "The builder must return a root node or an error.",
	},
	"V014": {
		Category: CategoryPass,
		Message:  "No platform",
		Detail:   "The node is not registered in a context that carries a view platform.",
	},
	"V019": {
		Category: CategoryPass,
		Message:  "Pass failed",
	},

	// ============================================
	// Config Errors (V020-V029)
	// ============================================

	"V020": {
		Category:   CategoryConfig,
		Message:    "Configuration could not be read",
		Detail:     "vtree.json exists but could not be read or decoded.",
		Suggestion: "Check that vtree.json is valid JSON",
	},
	"V021": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},

	// ============================================
	// Store Errors (V030-V039)
	// ============================================

	"V030": {
		Category:   CategoryStore,
		Message:    "Snapshot not found",
		Suggestion: "Run vtree snapshot list to see the stored snapshots",
	},
	"V031": {
		Category: CategoryStore,
		Message:  "Snapshot store unavailable",
		Detail:   "The configured snapshot backend could not be opened.",
	},

	// ============================================
	// Inspector and CLI Errors (V040-V059)
	// ============================================

	"V040": {
		Category: CategoryInspector,
		Message:  "Inspector server failed",
	},
	"V050": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns every registered code.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
