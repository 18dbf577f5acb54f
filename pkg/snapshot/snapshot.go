// Package snapshot stores descriptions of resolved view trees so that passes
// can be compared across runs.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/vango-dev/vtree/pkg/vtree"
)

var (
	// ErrNotFound is returned when no snapshot has the requested name.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrInvalidName is returned for names a store cannot use as a key.
	ErrInvalidName = errors.New("snapshot: invalid name")

	// ErrEmpty is returned when taking a snapshot of an unbuilt hierarchy.
	ErrEmpty = errors.New("snapshot: hierarchy has no root")
)

// Snapshot is a named description of a resolved tree.
type Snapshot struct {
	Name  string             `json:"name"`
	Taken time.Time          `json:"taken"`
	Size  vtree.Size         `json:"size"`
	Stats vtree.Stats        `json:"stats"`
	Root  *vtree.Description `json:"root"`
}

// Store persists snapshots by name.
type Store interface {
	Put(ctx context.Context, s *Snapshot) error
	Get(ctx context.Context, name string) (*Snapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateName reports whether name can be used as a snapshot name.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Take describes the current tree of h.
func Take(name string, h *vtree.Hierarchy) (*Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	root := h.Describe()
	if root == nil {
		return nil, ErrEmpty
	}
	return &Snapshot{
		Name:  name,
		Taken: time.Now().UTC(),
		Size:  h.Size(),
		Stats: h.LastStats(),
		Root:  root,
	}, nil
}

// Diff returns a human-readable diff between the trees of a and b, or "" when
// they describe the same structure. View identifiers are ignored unless
// withViews is set.
func Diff(a, b *Snapshot, withViews bool) string {
	var opts []cmp.Option
	if !withViews {
		opts = append(opts, cmpopts.IgnoreFields(vtree.Description{}, "View"))
	}
	return cmp.Diff(a.Root, b.Root, opts...)
}
