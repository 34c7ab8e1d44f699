package kmerdb

import (
	"fmt"
	"slices"
	"strings"
)

// maxNameLen is Bolt's key size limit.
const maxNameLen = 32768

// Cell is a node of a container's namespace: a group, a partition or a
// collection.
type Cell interface {
	Name() string
	// Parent returns the enclosing group, nil for the root.
	Parent() *Group
	// FullPath is the /-joined list of ancestor names, "/" for the root.
	FullPath() string
	// Container walks the parent chain up to the root.
	Container() *Container
}

// Group is a named namespace path segment. Groups hold a non-owning
// reference to their parent; the root holds the container.
type Group struct {
	container *Container // root only
	parent    *Group
	name      string
	path      []string
}

var _ Cell = (*Group)(nil)

// CreateGroup returns the group name under parent, creating it in the
// backend if it doesn't exist yet. Creating an existing group returns a new
// handle to the same path. An empty name refers to parent itself.
func CreateGroup(parent *Group, name string) (*Group, error) {
	if name == "" {
		return parent, nil
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	g := &Group{
		parent: parent,
		name:   name,
		path:   childPath(parent.path, name),
	}
	if err := parent.Container().ensureBucket(nil, g.path, kindGroup); err != nil {
		return nil, err
	}
	return g, nil
}

// Group is CreateGroup(g, name).
func (g *Group) Group(name string) (*Group, error) {
	return CreateGroup(g, name)
}

func (g *Group) Name() string { return g.name }

func (g *Group) Parent() *Group { return g.parent }

func (g *Group) IsRoot() bool { return g.parent == nil }

func (g *Group) FullPath() string { return joinPath(g.path) }

// Path returns the segments of FullPath.
func (g *Group) Path() []string { return slices.Clone(g.path) }

func (g *Group) Container() *Container {
	for g.parent != nil {
		g = g.parent
	}
	return g.container
}

// List returns the names of the groups and collections directly under g,
// sorted.
func (g *Group) List() ([]string, error) {
	c := g.Container()
	var names []string
	err := c.view(func(tx StorageTx) error {
		names = tx.Buckets(g.path)
		return nil
	})
	if err != nil {
		return nil, backendErrf(c, g.path, err, "cannot list")
	}
	return names, nil
}

func (g *Group) String() string {
	return g.Container().Name() + ":" + g.FullPath()
}

func childPath(parent []string, name string) []string {
	path := make([]string, len(parent)+1)
	copy(path, parent)
	path[len(parent)] = name
	return path
}

func checkName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
	case len(name) > maxNameLen:
	case strings.ContainsAny(name, "/\x00"):
	default:
		return nil
	}
	return fmt.Errorf("kmerdb: %w: %q", ErrInvalidName, name[:min(len(name), 64)])
}
