package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/vango-dev/vtree/internal/errors"
)

// Config contains template configuration.
type Config struct {
	// ProjectName is the name of the project.
	ProjectName string

	// Width and Height are written to the layout section of vtree.json.
	Width  float64
	Height float64

	// Bucket is the S3 bucket used by the s3 template.
	Bucket string
}

// Template represents a project scaffold.
type Template struct {
	Name        string
	Description string

	// Files maps relative paths to template text.
	Files map[string]string
}

var templates = map[string]*Template{
	"minimal": minimalTemplate(),
	"list":    listTemplate(),
	"s3":      s3Template(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, errors.New("V050").
			WithDetail("Template '" + name + "' not found").
			WithSuggestion("Available templates: minimal, list, s3")
	}
	return tmpl, nil
}

// List returns the template names in order.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paths returns the relative paths the template writes, in order.
func (t *Template) Paths() []string {
	paths := make([]string, 0, len(t.Files))
	for p := range t.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Create writes the template into dir. Existing files are never overwritten;
// if any target exists nothing is written.
func (t *Template) Create(dir string, cfg Config) error {
	if cfg.Width == 0 {
		cfg.Width = 375
	}
	if cfg.Height == 0 {
		cfg.Height = 812
	}
	if cfg.Bucket == "" {
		cfg.Bucket = cfg.ProjectName + "-snapshots"
	}

	rendered := make(map[string][]byte, len(t.Files))
	for _, relPath := range t.Paths() {
		fullPath := filepath.Join(dir, relPath)
		if _, err := os.Stat(fullPath); err == nil {
			return errors.New("V050").
				WithDetail(relPath + " already exists in " + dir).
				WithSuggestion("Choose an empty directory")
		}

		tmpl, err := template.New(relPath).Parse(t.Files[relPath])
		if err != nil {
			return errors.Newf(errors.CategoryCLI, "invalid template %s: %v", relPath, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return errors.Newf(errors.CategoryCLI, "template execute error %s: %v", relPath, err)
		}
		rendered[relPath] = buf.Bytes()
	}

	for _, relPath := range t.Paths() {
		fullPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(fullPath, rendered[relPath], 0o644); err != nil {
			return err
		}
	}
	return nil
}

const configBolt = `{
  "layout": {
    "width": {{.Width}},
    "height": {{.Height}},
    "options": ["none"]
  },
  "log": {
    "level": "info"
  },
  "inspector": {
    "address": "localhost:7070"
  },
  "snapshot": {
    "backend": "bolt",
    "bolt": {
      "path": ".vtree/snapshots.db"
    }
  }
}
`

const minimalTree = `# {{.ProjectName}}
type: Stack
reuse: root
children:
  - type: Label
    reuse: title
    key: title
    props:
      text: {{.ProjectName}}
  - type: Label
    reuse: body
    props:
      text: Hello from vtree
`

func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "A stack with two labels",
		Files: map[string]string{
			"vtree.json": configBolt,
			"tree.yaml":  minimalTree,
		},
	}
}

const listTree = `# {{.ProjectName}}: render with "vtree render tree.yaml"
type: List
reuse: list
header:
  type: Label
  reuse: title
  key: title
  props:
    text: {{.ProjectName}}
children:
  - type: Row
    reuse: row
    props:
      text: First
  - placeholder: true
  - type: Row
    reuse: row
    props:
      text: Third
footer:
  type: Button
  reuse: more
  controller: true
  props:
    text: Load more
`

const listTreeNext = `# Compare with "vtree diff tree.yaml tree.next.yaml"
type: List
reuse: list
header:
  type: Label
  reuse: title
  key: title
  props:
    text: {{.ProjectName}}
children:
  - type: Row
    reuse: row
    props:
      text: First
  - type: Row
    reuse: row
    props:
      text: Second
  - type: Row
    reuse: row
    props:
      text: Third
  - type: Row
    reuse: row
    props:
      text: Fourth
footer:
  type: Button
  reuse: more
  controller: true
  props:
    text: Load more
`

func listTemplate() *Template {
	return &Template{
		Name:        "list",
		Description: "A list with header, footer and a follow-up revision to diff against",
		Files: map[string]string{
			"vtree.json":     configBolt,
			"tree.yaml":      listTree,
			"tree.next.yaml": listTreeNext,
		},
	}
}

func s3Template() *Template {
	return &Template{
		Name:        "s3",
		Description: "The list scaffold with snapshots stored in S3",
		Files: map[string]string{
			"vtree.json": `{
  "layout": {
    "width": {{.Width}},
    "height": {{.Height}}
  },
  "snapshot": {
    "backend": "s3",
    "s3": {
      "bucket": "{{.Bucket}}",
      "prefix": "{{.ProjectName}}/",
      "region": "us-east-1"
    }
  }
}
`,
			"tree.yaml":      listTree,
			"tree.next.yaml": listTreeNext,
		},
	}
}
