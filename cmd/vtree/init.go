package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/internal/templates"
)

func initCmd(a *app) *cobra.Command {
	var (
		template string
		name     string
		cfg      templates.Config
	)

	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Scaffold vtree.json and example trees",
		Long: `Write a vtree.json and example YAML trees into DIR (default: the
current directory). Existing files are never overwritten.

Templates:
  minimal   A stack with two labels
  list      A list with header, footer and a second revision to diff (default)
  s3        The list scaffold with snapshots stored in S3

Examples:
  vtree init
  vtree init demo --template=minimal
  vtree init demo --template=s3 --bucket=ui-snapshots`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(abs)
			}
			if !isValidProjectName(name) {
				return errors.New("V050").
					WithDetail(fmt.Sprintf("Project name %q cannot be used in file names", name)).
					WithSuggestion("Use letters, numbers, dots, dashes and underscores")
			}

			tmpl, err := templates.Get(template)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return err
			}
			cfg.ProjectName = name
			if err := tmpl.Create(abs, cfg); err != nil {
				return err
			}

			for _, p := range tmpl.Paths() {
				fmt.Fprintf(a.stdout, "  created %s\n", filepath.Join(dir, p))
			}
			fmt.Fprintln(a.stdout)
			fmt.Fprintln(a.stdout, "  To get started:")
			fmt.Fprintf(a.stdout, "    cd %s\n", dir)
			fmt.Fprintln(a.stdout, "    vtree render tree.yaml")
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "list", "Scaffold template ("+strings.Join(templates.List(), ", ")+")")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: directory name)")
	cmd.Flags().Float64Var(&cfg.Width, "width", 0, "Layout width written to vtree.json")
	cmd.Flags().Float64Var(&cfg.Height, "height", 0, "Layout height written to vtree.json")
	cmd.Flags().StringVar(&cfg.Bucket, "bucket", "", "S3 bucket for the s3 template (default: <name>-snapshots)")

	return cmd
}

func isValidProjectName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
