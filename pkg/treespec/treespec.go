// Package treespec describes vtree node trees in YAML.
//
// A spec mirrors the node model one to one:
//
//	type: Stack
//	reuse: root
//	children:
//	  - type: Label
//	    reuse: title
//	    key: title
//	    props:
//	      text: Hello
//	  - placeholder: true
//	  - type: Button
//	    reuseNodes: false
//	footer:
//	  type: Label
//	  props:
//	    text: footer
//
// Props are copied onto views that implement PropSetter whenever the node is
// configured.
package treespec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/vango-dev/vtree/pkg/vtree"
	"gopkg.in/yaml.v3"
)

// PropSetter is implemented by views that accept props from a spec.
type PropSetter interface {
	SetProp(key string, value any)
}

// Spec is one node of a YAML tree description.
type Spec struct {
	Type       string         `yaml:"type,omitempty" json:"type,omitempty"`
	Reuse      string         `yaml:"reuse,omitempty" json:"reuse,omitempty"`
	Key        string         `yaml:"key,omitempty" json:"key,omitempty"`
	Tag        int64          `yaml:"tag,omitempty" json:"tag,omitempty"`
	ReuseNodes *bool          `yaml:"reuseNodes,omitempty" json:"reuseNodes,omitempty"`
	Controller bool           `yaml:"controller,omitempty" json:"controller,omitempty"`
	Reversed   bool           `yaml:"reversed,omitempty" json:"reversed,omitempty"`
	Null       bool           `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Props      map[string]any `yaml:"props,omitempty" json:"props,omitempty"`
	Header     *Spec          `yaml:"header,omitempty" json:"header,omitempty"`
	Footer     *Spec          `yaml:"footer,omitempty" json:"footer,omitempty"`
	Children   []*Spec        `yaml:"children,omitempty" json:"children,omitempty"`
}

// ErrEmpty is returned when a document contains no tree.
var ErrEmpty = errors.New("treespec: empty document")

// Error reports an invalid node, identified by its path from the root
// (e.g. "children[1].footer").
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("treespec: root: %v", e.Err)
	}
	return fmt.Sprintf("treespec: %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Parse decodes and validates a YAML tree. Unknown fields are rejected.
func Parse(data []byte) (*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Spec
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("treespec: failed to parse: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses the YAML tree at path.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("treespec: failed to read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Marshal encodes s as YAML.
func (s *Spec) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks the tree without building it.
func (s *Spec) Validate() error {
	return s.validate("")
}

func (s *Spec) validate(path string) error {
	if s == nil {
		return nil
	}
	if s.Null {
		if s.Type != "" || len(s.Children) > 0 || s.Header != nil || s.Footer != nil {
			return &Error{Path: path, Err: errors.New("null node cannot have a type or slots")}
		}
		return nil
	}
	if s.Type == "" {
		return &Error{Path: path, Err: vtree.ErrEmptyType}
	}
	if s.Key != "" && s.Reuse == "" {
		return &Error{Path: path, Err: vtree.ErrKeyWithoutReuseID}
	}
	if err := s.Header.validate(join(path, "header")); err != nil {
		return err
	}
	for i, c := range s.Children {
		if c == nil {
			continue
		}
		if err := c.validate(join(path, fmt.Sprintf("children[%d]", i))); err != nil {
			return err
		}
	}
	return s.Footer.validate(join(path, "footer"))
}

// Node builds the node tree described by s and registers it in ctx.
// A nil ctx leaves the tree unregistered.
func (s *Spec) Node(ctx *vtree.Context) (*vtree.Node, error) {
	n, err := s.build("")
	if err != nil {
		return nil, err
	}
	s.applyReversed(n)
	if ctx != nil {
		n.SetContext(ctx)
	}
	return n, nil
}

// Builder returns a hierarchy builder that builds a fresh tree from s on
// every call.
func (s *Spec) Builder() vtree.Builder {
	return func(ctx *vtree.Context) (*vtree.Node, error) {
		return s.Node(ctx)
	}
}

// Count returns the number of nodes in the tree, null nodes included.
func (s *Spec) Count() int {
	if s == nil {
		return 0
	}
	total := 1 + s.Header.Count() + s.Footer.Count()
	for _, c := range s.Children {
		if c == nil {
			total++
			continue
		}
		total += c.Count()
	}
	return total
}

func (s *Spec) build(path string) (*vtree.Node, error) {
	if s == nil || s.Null {
		return vtree.Null(), nil
	}

	var opts []vtree.NodeOption
	if s.Reuse != "" {
		opts = append(opts, vtree.WithReuseID(s.Reuse))
	}
	if s.Key != "" {
		opts = append(opts, vtree.WithKey(s.Key))
	}
	n, err := vtree.New(s.Type, s.layout(), opts...)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if s.ReuseNodes != nil {
		n.SetCanReuseNodes(*s.ReuseNodes)
	}
	n.SetControllerNode(s.Controller)
	n.SetTag(s.Tag)

	if s.Header != nil {
		h, err := s.Header.build(join(path, "header"))
		if err != nil {
			return nil, err
		}
		n.SetHeader(h)
	}
	for i, c := range s.Children {
		child, err := c.build(join(path, fmt.Sprintf("children[%d]", i)))
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	if s.Footer != nil {
		f, err := s.Footer.build(join(path, "footer"))
		if err != nil {
			return nil, err
		}
		n.SetFooter(f)
	}
	return n, nil
}

// applyReversed flips the subtrees marked reversed, top down. Adoption resets
// the direction of children, so this runs once the tree is complete.
func (s *Spec) applyReversed(n *vtree.Node) {
	if s == nil || s.Null {
		return
	}
	if s.Reversed && !n.Reversed() {
		n.Reverse()
	}
	if s.Header != nil {
		s.Header.applyReversed(n.Header())
	}
	for i, c := range s.Children {
		c.applyReversed(n.Children()[i])
	}
	if s.Footer != nil {
		s.Footer.applyReversed(n.Footer())
	}
}

// layout returns the layout function copying props onto the view, or nil.
func (s *Spec) layout() vtree.LayoutFunc {
	if len(s.Props) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s.Props))
	for k := range s.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	props := s.Props
	return func(spec *vtree.LayoutSpec) {
		ps, ok := spec.View.(PropSetter)
		if !ok {
			return
		}
		for _, k := range keys {
			ps.SetProp(k, props[k])
		}
	}
}

func join(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "." + elem
}
