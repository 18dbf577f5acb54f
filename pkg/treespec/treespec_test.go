package treespec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vtree/pkg/headless"
	"github.com/vango-dev/vtree/pkg/vtree"
)

const sample = `
type: Stack
reuse: root
header:
  type: Label
  reuse: title
  key: title
  props:
    text: Hello
children:
  - type: Label
    reuse: row
    tag: 7
  - placeholder: true
  - type: Button
    reuse: ok
    reuseNodes: false
    controller: true
footer:
  type: Label
  reuse: footer
`

func TestParseBuildsNodes(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 6, s.Count())

	n, err := s.Node(nil)
	require.NoError(t, err)

	assert.Equal(t, "Stack", n.TypeID())
	assert.Equal(t, "root", n.ReuseID())
	assert.Equal(t, "title", n.Header().Key())
	require.Len(t, n.Children(), 3)
	assert.Equal(t, int64(7), n.Children()[0].Tag())
	assert.True(t, n.Children()[1].IsNull())
	assert.False(t, n.Children()[2].CanReuseNodes())
	assert.True(t, n.Children()[2].IsControllerNode())
	assert.Equal(t, 2, n.Children()[2].Index())
	assert.Equal(t, vtree.SlotFooter, n.Footer().Slot())
	assert.Nil(t, n.Context())
}

func TestPropsReachViews(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	p := headless.New()
	h := vtree.NewHierarchy(vtree.NewContext(p, nil), vtree.WithBuilder(s.Builder()))
	require.NoError(t, h.BuildHierarchy(p.NewContainer(), vtree.Size{Width: 10, Height: 10}, vtree.OptionNone))

	title, ok := h.ViewWithKey("title").(*headless.View)
	require.True(t, ok)
	text, ok := title.Prop("text")
	require.True(t, ok)
	assert.Equal(t, "Hello", text)
}

func TestBuilderReturnsFreshTrees(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	ctx := vtree.NewContext(headless.New(), nil)

	b := s.Builder()
	a, err := b(ctx)
	require.NoError(t, err)
	c, err := b(ctx)
	require.NoError(t, err)

	assert.NotSame(t, a, c)
	assert.Same(t, ctx, a.Context())
	assert.True(t, a.StructureMatches(c))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
		is   error
	}{
		{"missing type", "reuse: x\n", "", vtree.ErrEmptyType},
		{"key without reuse", "type: A\nkey: k\n", "", vtree.ErrKeyWithoutReuseID},
		{"nested", "type: A\nchildren:\n  - type: B\n  - reuse: r\n", "children[1]", vtree.ErrEmptyType},
		{"footer", "type: A\nfooter:\n  key: k\n  type: B\n", "footer", vtree.ErrKeyWithoutReuseID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
			var se *Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.path, se.Path)
		})
	}
}

func TestParseRejectsUnknownFieldsAndNullWithType(t *testing.T) {
	_, err := Parse([]byte("type: A\ncolour: red\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("type: A\nchildren:\n  - placeholder: true\n    type: B\n"))
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "children[0]", se.Path)

	_, err = Parse(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReversedSubtree(t *testing.T) {
	s, err := Parse([]byte("type: A\nchildren:\n  - type: B\n    reversed: true\n    children:\n      - type: C\n  - type: D\n"))
	require.NoError(t, err)
	n, err := s.Node(nil)
	require.NoError(t, err)

	assert.False(t, n.Reversed())
	assert.True(t, n.Children()[0].Reversed())
	assert.True(t, n.Children()[0].Children()[0].Reversed())
	assert.False(t, n.Children()[1].Reversed())
}

func TestLoadAndMarshal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	out, err := s.Marshal()
	require.NoError(t, err)
	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, s, again)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
