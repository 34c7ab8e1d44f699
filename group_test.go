package kmerdb

import (
	"errors"
	"strings"
	"testing"
)

func TestCreateGroup_Idempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		c := setup(t, opt, name)
		root := c.Root()

		g1 := must(CreateGroup(root, "graph"))
		g2 := must(CreateGroup(root, "graph"))
		deepEqual(t, g2.FullPath(), g1.FullPath())
		deepEqual(t, must(root.List()), []string{"graph"})

		sub := must(g1.Group("branching"))
		deepEqual(t, sub.FullPath(), "/graph/branching")
		deepEqual(t, sub.Path(), []string{"graph", "branching"})
		deepEqual(t, sub.Name(), "branching")
		if sub.Parent() != g1 {
			t.Errorf("Parent() = %v, wanted %v", sub.Parent(), g1)
		}
		if sub.Container() != c {
			t.Errorf("Container() is not the opening container")
		}
		deepEqual(t, sub.String(), c.Name()+":/graph/branching")
	})
}

func TestCreateGroup_EmptyNameIsParent(t *testing.T) {
	c := setup(t, Options{Backend: NewMemBackend()}, "g")
	g := must(CreateGroup(c.Root(), ""))
	if g != c.Root() {
		t.Errorf("CreateGroup(root, \"\") = %v, wanted root", g)
	}
	isempty(t, must(c.Root().List()))
}

func TestCreateGroup_InvalidNames(t *testing.T) {
	c := setup(t, Options{Backend: NewMemBackend()}, "g")
	for _, name := range []string{".", "..", "a/b", "/", "nul\x00", strings.Repeat("x", maxNameLen+1)} {
		if _, err := CreateGroup(c.Root(), name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("CreateGroup(%q) err = %v, wanted ErrInvalidName", name, err)
		}
		if _, err := CreateCollection[int](c.Root(), name, nil); !errors.Is(err, ErrInvalidName) {
			t.Errorf("CreateCollection(%q) err = %v, wanted ErrInvalidName", name, err)
		}
	}
	_, err := CreateCollection[int](c.Root(), "", nil)
	iserr(t, err, ErrInvalidName)
}

func TestCreate_KindMismatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opt Options, name string) {
		c := setup(t, opt, name)
		must(c.Root().Group("g"))
		must(CreateCollection[int](c.Root(), "c", nil))

		_, err := CreateCollection[int](c.Root(), "g", nil)
		iserr(t, err, ErrKindMismatch)
		if errors.Is(err, ErrBackend) {
			t.Errorf("kind mismatch reported as a backend error: %v", err)
		}

		_, err = CreateGroup(c.Root(), "c")
		iserr(t, err, ErrKindMismatch)

		_, err = CreateSet(c.Root(), "c", nil)
		iserr(t, err, ErrKindMismatch)
	})
}

func TestGroup_NestedCreationMakesAncestors(t *testing.T) {
	c := setup(t, Options{Backend: NewMemBackend()}, "g")
	a := must(c.Root().Group("a"))
	b := must(a.Group("b"))
	must(CreateCollection[int](b, "leaf", nil))

	deepEqual(t, must(c.Root().List()), []string{"a"})
	deepEqual(t, must(a.List()), []string{"b"})
	deepEqual(t, must(b.List()), []string{"leaf"})
}
