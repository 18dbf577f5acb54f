package main

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/snapshot"
)

func snapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store and compare rendered trees",
		Long: `Store descriptions of rendered trees in the configured snapshot store
(bbolt or S3, see the snapshot section of vtree.json) and compare
them with later renders.`,
	}
	cmd.AddCommand(
		snapshotSaveCmd(a),
		snapshotGetCmd(a),
		snapshotListCmd(a),
		snapshotDeleteCmd(a),
	)
	return cmd
}

// withStore opens the configured store for the duration of fn.
func (a *app) withStore(fn func(snapshot.Store) error) error {
	store, err := snapshot.Open(a.cfg)
	if err != nil {
		return errors.New("V031").Wrap(err)
	}
	defer store.Close()
	return storeError(fn(store))
}

func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, snapshot.ErrNotFound):
		return errors.New("V030").Wrap(err)
	case stderrors.Is(err, snapshot.ErrInvalidName):
		return errors.New("V050").Wrap(err)
	}
	return err
}

func snapshotSaveCmd(a *app) *cobra.Command {
	var lf layoutFlags

	cmd := &cobra.Command{
		Use:   "save NAME FILE",
		Short: "Render FILE and store its description as NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadSpec(args[1])
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
			snap, err := snapshot.Take(args[0], m.hierarchy)
			if err != nil {
				return storeError(err)
			}
			return a.withStore(func(store snapshot.Store) error {
				if err := store.Put(cmd.Context(), snap); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "saved %s (%d nodes)\n", snap.Name, snap.Root.Count())
				return nil
			})
		},
	}
	lf.register(cmd)
	return cmd
}

func snapshotGetCmd(a *app) *cobra.Command {
	var (
		lf        layoutFlags
		against   string
		withViews bool
	)

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print a stored snapshot, or diff it against a tree",
		Long: `Print the stored snapshot NAME as JSON.

With --diff, render FILE and print how its tree differs from the
snapshot instead. The command fails when they differ.

Examples:
  vtree snapshot get home
  vtree snapshot get home --diff=tree.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store snapshot.Store) error {
				snap, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if against == "" {
					return writeIndented(a.stdout, snap)
				}
				return a.compare(snap, against, &lf, withViews)
			})
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVar(&against, "diff", "", "Render this tree and compare it with the snapshot")
	cmd.Flags().BoolVar(&withViews, "views", false, "Also compare view identifiers")

	return cmd
}

func (a *app) compare(snap *snapshot.Snapshot, path string, lf *layoutFlags, withViews bool) error {
	spec, err := loadSpec(path)
	if err != nil {
		return err
	}
	size, opts, err := a.layout(lf)
	if err != nil {
		return err
	}
	m, err := a.mount(spec, size, opts)
	if err != nil {
		return err
	}
	live, err := snapshot.Take(snap.Name, m.hierarchy)
	if err != nil {
		return err
	}
	diff := snapshot.Diff(snap, live, withViews)
	if diff == "" {
		fmt.Fprintf(a.stdout, "%s: no changes\n", snap.Name)
		return nil
	}
	fmt.Fprintf(a.stdout, "%s: tree changed (-snapshot +render):\n%s", snap.Name, diff)
	return errors.Newf(errors.CategoryStore, "snapshot %s does not match %s", snap.Name, path)
}

func snapshotListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store snapshot.Store) error {
				names, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(a.stdout, name)
				}
				return nil
			})
		},
	}
}

func snapshotDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store snapshot.Store) error {
				return store.Delete(cmd.Context(), args[0])
			})
		},
	}
}
