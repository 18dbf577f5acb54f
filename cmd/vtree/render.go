package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/headless"
	"github.com/vango-dev/vtree/pkg/treespec"
	"github.com/vango-dev/vtree/pkg/vtree"
)

// layoutFlags override the layout section of vtree.json.
type layoutFlags struct {
	width   float64
	height  float64
	options []string
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "Constrained width (default from vtree.json)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "Constrained height (default from vtree.json)")
	cmd.Flags().StringSliceVar(&f.options, "option", nil, "Layout option: none, sizeContainerViewToFit, useSafeAreaInsets")
}

func (a *app) layout(f *layoutFlags) (vtree.Size, vtree.LayoutOptions, error) {
	size := a.cfg.Size()
	if f.width > 0 {
		size.Width = f.width
	}
	if f.height > 0 {
		size.Height = f.height
	}
	if len(f.options) == 0 {
		opts, err := a.cfg.LayoutOptions()
		return size, opts, err
	}
	var opts vtree.LayoutOptions
	for _, name := range f.options {
		o, ok := vtree.ParseLayoutOption(name)
		if !ok {
			return size, 0, errors.New("V050").WithDetail(fmt.Sprintf("Unknown layout option %q.", name))
		}
		opts |= o
	}
	return size, opts, nil
}

// loadSpec reads a YAML tree and attaches its location to parse failures.
func loadSpec(path string) (*treespec.Spec, error) {
	spec, err := treespec.Load(path)
	if err != nil {
		return nil, errors.Classify(err, "V001").WithLocationFromError(path, err)
	}
	return spec, nil
}

// mounted is a tree rendered into a fresh headless container.
type mounted struct {
	platform  *headless.Platform
	container *headless.View
	hierarchy *vtree.Hierarchy
}

func (a *app) mount(spec *treespec.Spec, size vtree.Size, opts vtree.LayoutOptions, mw ...vtree.Middleware) (*mounted, error) {
	p := headless.New()
	m := &mounted{
		platform:  p,
		container: p.NewContainer(),
	}
	m.hierarchy = vtree.NewHierarchy(vtree.NewContext(p, nil),
		vtree.WithBuilder(spec.Builder()),
		vtree.WithLogger(a.logger),
		vtree.WithMiddleware(mw...),
	)
	if err := m.hierarchy.BuildHierarchy(m.container, size, opts); err != nil {
		return nil, errors.Classify(err, "V019")
	}
	return m, nil
}

func writeStats(w io.Writer, s vtree.Stats) {
	fmt.Fprintf(w, "constructed=%d reused=%d dismantled=%d configured=%d\n",
		s.Constructed, s.Reused, s.Dismantled, s.Configured)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderCmd(a *app) *cobra.Command {
	var (
		lf     layoutFlags
		format string
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a tree and print the resulting views",
		Long: `Render a YAML tree into a headless container and print the view hierarchy.

Examples:
  vtree render tree.yaml
  vtree render tree.yaml --width=320 --option=useSafeAreaInsets
  vtree render tree.yaml --format=json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadSpec(args[0])
			if err != nil {
				return err
			}
			size, opts, err := a.layout(&lf)
			if err != nil {
				return err
			}
			m, err := a.mount(spec, size, opts)
			if err != nil {
				return err
			}

			switch format {
			case "text":
				io.WriteString(a.stdout, headless.Dump(m.container))
			case "json":
				if err := writeIndented(a.stdout, m.hierarchy.Describe()); err != nil {
					return err
				}
			default:
				return errors.New("V050").WithDetail(fmt.Sprintf("Unknown format %q; use text or json.", format))
			}
			if stats {
				writeStats(a.stderr, m.hierarchy.LastStats())
			}
			return nil
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print pass statistics to stderr")

	return cmd
}

// change is one platform call made while reconciling a new tree.
type change struct {
	Op     string `json:"op"`
	View   string `json:"view"`
	Parent string `json:"parent,omitempty"`
}

func diffCmd(a *app) *cobra.Command {
	var (
		lf     layoutFlags
		format string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show which views a tree change constructs, reuses and dismantles",
		Long: `Render OLD, then reconcile NEW against the views OLD produced and print
the platform calls the reconciliation made.

Layout calls are omitted unless --all is given.

Examples:
  vtree diff before.yaml after.yaml
  vtree diff before.yaml after.yaml --format=json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldSpec, err := loadSpec(args[0])
			if err != nil {
				return err
			}
			newSpec, err := loadSpec(args[1])
			if err != nil {
				return err
			}
			size, opts, err := a.layout(&lf)
			if err != nil {
				return err
			}
			m, err := a.mount(oldSpec, size, opts)
			if err != nil {
				return err
			}

			m.platform.ResetEvents()
			m.hierarchy.SetBuilder(newSpec.Builder())
			if err := m.hierarchy.SetNeedsReconcile(); err != nil {
				return errors.Classify(err, "V019")
			}

			changes := []change{}
			for _, e := range m.platform.Events() {
				if e.Op == headless.OpReconcile && !all {
					continue
				}
				changes = append(changes, change{Op: e.Op.String(), View: e.View, Parent: e.Parent})
			}
			stats := m.hierarchy.LastStats()

			switch format {
			case "text":
				for _, c := range changes {
					if c.Parent != "" {
						fmt.Fprintf(a.stdout, "%-10s %s in %s\n", c.Op, c.View, c.Parent)
					} else {
						fmt.Fprintf(a.stdout, "%-10s %s\n", c.Op, c.View)
					}
				}
				writeStats(a.stdout, stats)
				return nil
			case "json":
				return writeIndented(a.stdout, map[string]any{"changes": changes, "stats": stats})
			default:
				return errors.New("V050").WithDetail(fmt.Sprintf("Unknown format %q; use text or json.", format))
			}
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&all, "all", false, "Include layout calls")

	return cmd
}

func queryCmd(a *app) *cobra.Command {
	var (
		lf    layoutFlags
		key   string
		reuse string
	)

	cmd := &cobra.Command{
		Use:   "query FILE",
		Short: "Find the views of a rendered tree by key or reuse identifier",
		Long: `Render a tree and print the views matching a coordinator key or a
reuse identifier, one per line.

Examples:
  vtree query tree.yaml --key=title
  vtree query tree.yaml --reuse=row`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadSpec(args[0])
			if err != nil {
				return err
			}
			size, opts, err := a.layout(&lf)
			if err != nil {
				return err
			}
			m, err := a.mount(spec, size, opts)
			if err != nil {
				return err
			}

			var views []vtree.View
			if key != "" {
				if v := m.hierarchy.ViewWithKey(key); v != nil {
					views = append(views, v)
				}
			} else {
				views = m.hierarchy.ViewsWithReuseIdentifier(reuse)
			}
			if len(views) == 0 {
				return errors.Newf(errors.CategoryCLI, "no view matches")
			}
			for _, v := range views {
				fmt.Fprintln(a.stdout, v.(*headless.View).String())
			}
			return nil
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVar(&key, "key", "", "Coordinator key")
	cmd.Flags().StringVar(&reuse, "reuse", "", "Reuse identifier")
	cmd.MarkFlagsMutuallyExclusive("key", "reuse")
	cmd.MarkFlagsOneRequired("key", "reuse")

	return cmd
}
