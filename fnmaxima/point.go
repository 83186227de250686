package fnmaxima

import "github.com/sgostarter/libmaxima/ordered"

// valueSlot is the single stored copy of one distinct value. The stored value
// is never modified, so the pointer is shared freely between clones; owners
// and node are bookkeeping of one FunctionMaxima.
type valueSlot[V any] struct {
	v      *V
	owners int
	node   *ordered.Node[*valueSlot[V]]
}

// Point is an (argument, value) pair of the function. Points are only handed
// out by a FunctionMaxima; the zero Point is not usable.
type Point[A, V any] struct {
	arg  *A
	slot *valueSlot[V]
}

func (p Point[A, V]) Arg() A {
	return *p.arg
}

func (p Point[A, V]) Value() V {
	return *p.slot.v
}

func (p *Point[A, V]) record() *Point[A, V] {
	return &Point[A, V]{
		arg:  p.arg,
		slot: p.slot,
	}
}
