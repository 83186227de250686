package fnmaxima

import "github.com/sgostarter/libmaxima/ordered"

// Iterator is a bidirectional position in either the domain or the maxima of
// a FunctionMaxima. The end position is not Valid; Prev of the end position
// is the last element. A domain Iterator stays usable until its point is
// erased; a maxima Iterator until its point gets a new value or stops being a
// local maximum.
type Iterator[A, V any] struct {
	tree *ordered.Tree[*Point[A, V]]
	node *ordered.Node[*Point[A, V]]
}

func (it Iterator[A, V]) Valid() bool {
	return it.node != nil
}

func (it Iterator[A, V]) Next() Iterator[A, V] {
	if it.node == nil {
		return it
	}

	return Iterator[A, V]{
		tree: it.tree,
		node: it.node.Next(),
	}
}

func (it Iterator[A, V]) Prev() Iterator[A, V] {
	if it.node == nil {
		return Iterator[A, V]{
			tree: it.tree,
			node: it.tree.Last(),
		}
	}

	return Iterator[A, V]{
		tree: it.tree,
		node: it.node.Prev(),
	}
}

func (it Iterator[A, V]) Equal(other Iterator[A, V]) bool {
	return it.tree == other.tree && it.node == other.node
}

// Point panics when it is not Valid.
func (it Iterator[A, V]) Point() Point[A, V] {
	return *it.node.Item()
}

func (it Iterator[A, V]) Arg() A {
	return it.Point().Arg()
}

func (it Iterator[A, V]) Value() V {
	return it.Point().Value()
}
