// Package ordered implements an in-memory ordered set with stable node
// handles.
//
// The set is a treap. Every comparison an operation needs is made before the
// tree is modified, and Remove works on a handle without comparing at all,
// so a panicking less function never leaves a Tree half-updated and a
// removal can always be used to undo an insertion.
package ordered

import (
	"iter"
	"math/rand/v2"
)

type Node[T any] struct {
	parent *Node[T]
	left   *Node[T]
	right  *Node[T]

	item T
	pri  uint64
}

func (n *Node[T]) Item() T {
	return n.item
}

// Next returns the node following n in order, or nil.
func (n *Node[T]) Next() *Node[T] {
	if n.right != nil {
		return n.right.minNode()
	}

	x := n
	for x.parent != nil && x.parent.right == x {
		x = x.parent
	}

	return x.parent
}

// Prev returns the node preceding n in order, or nil.
func (n *Node[T]) Prev() *Node[T] {
	if n.left != nil {
		return n.left.maxNode()
	}

	x := n
	for x.parent != nil && x.parent.left == x {
		x = x.parent
	}

	return x.parent
}

func (n *Node[T]) minNode() *Node[T] {
	for n.left != nil {
		n = n.left
	}

	return n
}

func (n *Node[T]) maxNode() *Node[T] {
	for n.right != nil {
		n = n.right
	}

	return n
}

type Tree[T any] struct {
	root   *Node[T]
	less   func(a, b T) bool
	length int
}

// New returns an empty set ordered by less, which must be a strict weak order.
// Items that are mutually non-less are equivalent and kept only once.
func New[T any](less func(a, b T) bool) *Tree[T] {
	return &Tree[T]{
		less: less,
	}
}

func (t *Tree[T]) Len() int {
	return t.length
}

func (t *Tree[T]) First() *Node[T] {
	if t.root == nil {
		return nil
	}

	return t.root.minNode()
}

func (t *Tree[T]) Last() *Node[T] {
	if t.root == nil {
		return nil
	}

	return t.root.maxNode()
}

// LowerBound returns the first node whose item is not before the probe, or
// nil. before(item) must report whether item orders strictly before the
// probe, which lets callers search with a key that is not a T.
func (t *Tree[T]) LowerBound(before func(item T) bool) (n *Node[T]) {
	for x := t.root; x != nil; {
		if before(x.item) {
			x = x.right
		} else {
			n = x
			x = x.left
		}
	}

	return
}

// Find returns the node holding an item equivalent to item, or nil.
func (t *Tree[T]) Find(item T) *Node[T] {
	n := t.LowerBound(func(x T) bool {
		return t.less(x, item)
	})
	if n == nil || t.less(item, n.item) {
		return nil
	}

	return n
}

// Insert adds item unless an equivalent item is present. It returns the node
// holding the item and whether it was newly inserted.
func (t *Tree[T]) Insert(item T) (n *Node[T], inserted bool) {
	pos := &t.root

	var parent *Node[T]

	for x := *pos; x != nil; x = *pos {
		switch {
		case t.less(item, x.item):
			pos = &x.left
		case t.less(x.item, item):
			pos = &x.right
		default:
			n = x

			return
		}

		parent = x
	}

	n = &Node[T]{
		parent: parent,
		item:   item,
		pri:    rand.Uint64() | 1,
	}
	*pos = n
	t.length++

	t.rotateUp(n)

	inserted = true

	return
}

// Remove unlinks n, which must belong to t. It makes no comparisons.
func (t *Tree[T]) Remove(n *Node[T]) {
	if n.pri == 0 {
		panic("ordered: node removed twice")
	}

	for n.left != nil || n.right != nil {
		if n.right == nil || n.left != nil && n.left.pri < n.right.pri {
			t.rotateRight(n)
		} else {
			t.rotateLeft(n)
		}
	}

	switch p := n.parent; {
	case p == nil:
		t.root = nil
	case p.left == n:
		p.left = nil
	default:
		p.right = nil
	}

	n.parent = nil
	n.pri = 0
	t.length--
}

// CloneFunc returns a copy of t with the same shape whose items are fn applied
// to the items of t. fn must preserve the order of the items.
func (t *Tree[T]) CloneFunc(fn func(T) T) *Tree[T] {
	return &Tree[T]{
		root:   t.root.clone(nil, fn),
		less:   t.less,
		length: t.length,
	}
}

func (n *Node[T]) clone(parent *Node[T], fn func(T) T) *Node[T] {
	if n == nil {
		return nil
	}

	c := &Node[T]{
		parent: parent,
		item:   fn(n.item),
		pri:    n.pri,
	}
	c.left = n.left.clone(c, fn)
	c.right = n.right.clone(c, fn)

	return c
}

func (t *Tree[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := t.First(); n != nil; n = n.Next() {
			if !yield(n.item) {
				return
			}
		}
	}
}

func (t *Tree[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := t.Last(); n != nil; n = n.Prev() {
			if !yield(n.item) {
				return
			}
		}
	}
}

func (t *Tree[T]) rotateUp(x *Node[T]) {
	for x.parent != nil && x.parent.pri > x.pri {
		if x.parent.left == x {
			t.rotateRight(x.parent)
		} else {
			t.rotateLeft(x.parent)
		}
	}
}

func (t *Tree[T]) rotateLeft(x *Node[T]) {
	// p -> (x a (y b c))
	p := x.parent
	y := x.right
	b := y.left

	y.left = x
	x.parent = y

	x.right = b
	if b != nil {
		b.parent = x
	}

	t.replaceChild(p, x, y)
}

func (t *Tree[T]) rotateRight(y *Node[T]) {
	// p -> (y (x a b) c)
	p := y.parent
	x := y.left
	b := x.right

	x.right = y
	y.parent = x

	y.left = b
	if b != nil {
		b.parent = y
	}

	t.replaceChild(p, y, x)
}

func (t *Tree[T]) replaceChild(p, old, n *Node[T]) {
	n.parent = p

	switch {
	case p == nil:
		t.root = n
	case p.left == old:
		p.left = n
	case p.right == old:
		p.right = n
	default:
		panic("ordered: corrupt treap")
	}
}
