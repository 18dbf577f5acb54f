// Package templates provides scaffolding for new vtree projects.
//
// A scaffold writes a vtree.json and one or more YAML trees:
//
//   - minimal: a single stack with two labels
//   - list: a list with header, footer, placeholder rows and a keyed title
//   - s3: the list scaffold with snapshots stored in S3
//
// # Usage
//
//	tmpl, err := templates.Get("list")
//	if err != nil {
//	    return err
//	}
//	err = tmpl.Create(dir, templates.Config{ProjectName: "demo"})
//
// # Template Variables
//
//	{{.ProjectName}}  - Name of the project
//	{{.Width}}        - Layout width
//	{{.Height}}       - Layout height
//	{{.Bucket}}       - S3 bucket for snapshots
package templates
