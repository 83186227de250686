// Package fnmaxima keeps a partial function from an ordered domain to ordered
// values together with the set of its local maxima.
//
// A point is a local maximum when neither of its neighbours in argument order
// has a strictly greater value. The maxima are kept ordered by value
// descending, then argument ascending, and are updated incrementally by
// SetValue and Erase. Equal values share one stored copy.
//
// If a less function panics during SetValue or Erase, the FunctionMaxima is
// left exactly as it was before the call and the panic continues unchanged.
//
// A FunctionMaxima is not safe for concurrent use by multiple goroutines
// while any of them is mutating it.
package fnmaxima

import (
	"cmp"
	"iter"

	"github.com/sgostarter/i/commerr"
	"github.com/sgostarter/i/l"
	"github.com/sgostarter/libmaxima/ordered"
)

type FunctionMaxima[A, V any] struct {
	logger l.Wrapper

	argLess   func(a, b A) bool
	valueLess func(a, b V) bool

	domain   *ordered.Tree[*Point[A, V]]
	maxima   *ordered.Tree[*Point[A, V]]
	registry *valueRegistry[V]
}

// New returns an empty function. argLess and valueLess must be strict weak
// orders; two values are equal when neither is less than the other.
func New[A, V any](argLess func(a, b A) bool, valueLess func(a, b V) bool, options ...Option) *FunctionMaxima[A, V] {
	opts := optionNew(options...)

	logger := opts.logger
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}

	logger = logger.WithFields(l.StringField(l.ClsKey, "functionMaxima"))

	if argLess == nil || valueLess == nil {
		logger.Fatal("no less functions")
	}

	fm := &FunctionMaxima[A, V]{
		logger:    logger,
		argLess:   argLess,
		valueLess: valueLess,
		registry:  newValueRegistry[V](valueLess, logger),
	}

	fm.domain = ordered.New[*Point[A, V]](func(x, y *Point[A, V]) bool {
		return argLess(*x.arg, *y.arg)
	})
	fm.maxima = ordered.New[*Point[A, V]](fm.maximaLess)

	return fm
}

func NewOrdered[A, V cmp.Ordered](options ...Option) *FunctionMaxima[A, V] {
	return New[A, V](cmp.Less[A], cmp.Less[V], options...)
}

// maximaLess orders by value descending, then by argument ascending.
func (fm *FunctionMaxima[A, V]) maximaLess(x, y *Point[A, V]) bool {
	if x.slot != y.slot {
		if fm.valueLess(*y.slot.v, *x.slot.v) {
			return true
		}

		if fm.valueLess(*x.slot.v, *y.slot.v) {
			return false
		}
	}

	return fm.argLess(*x.arg, *y.arg)
}

// valueBelow reports whether x's value is less than y's.
func (fm *FunctionMaxima[A, V]) valueBelow(x, y *Point[A, V]) bool {
	if x.slot == y.slot {
		return false
	}

	return fm.valueLess(*x.slot.v, *y.slot.v)
}

func (fm *FunctionMaxima[A, V]) Size() int {
	return fm.domain.Len()
}

func (fm *FunctionMaxima[A, V]) MaximaSize() int {
	return fm.maxima.Len()
}

func (fm *FunctionMaxima[A, V]) findNode(a A) *ordered.Node[*Point[A, V]] {
	n := fm.domain.LowerBound(func(p *Point[A, V]) bool {
		return fm.argLess(*p.arg, a)
	})
	if n == nil || fm.argLess(a, *n.Item().arg) {
		return nil
	}

	return n
}

// ValueAt returns f(a), or commerr.ErrInvalidArgument when a is not in the
// domain.
func (fm *FunctionMaxima[A, V]) ValueAt(a A) (v V, err error) {
	n := fm.findNode(a)
	if n == nil {
		err = commerr.ErrInvalidArgument

		return
	}

	v = *n.Item().slot.v

	return
}

// isLocalMaximum evaluates the maximum predicate for n as if excluding were
// already gone from the domain. excluding may be nil.
func (fm *FunctionMaxima[A, V]) isLocalMaximum(n, excluding *ordered.Node[*Point[A, V]]) bool {
	p := n.Item()

	left := n.Prev()
	if left != nil && left == excluding {
		left = left.Prev()
	}

	if left != nil && fm.valueBelow(p, left.Item()) {
		return false
	}

	right := n.Next()
	if right != nil && right == excluding {
		right = right.Next()
	}

	if right != nil && fm.valueBelow(p, right.Item()) {
		return false
	}

	return true
}

func (fm *FunctionMaxima[A, V]) insertMaximum(undo *undoLog, p *Point[A, V]) {
	n, inserted := fm.maxima.Insert(p.record())
	if !inserted {
		fm.logicError("maximum recorded twice")
	}

	undo.push(func() {
		fm.maxima.Remove(n)
	})
}

func (fm *FunctionMaxima[A, V]) finish(undo *undoLog, op string) {
	if undo.rollback() {
		fm.logger.WithFields(l.StringField("op", op)).Debug("less panicked, changes rolled back")
	}
}

func (fm *FunctionMaxima[A, V]) logicError(msg string) {
	fm.logger.WithFields(l.IntField("size", fm.domain.Len()), l.IntField("maxima", fm.maxima.Len())).
		Error("logic error: " + msg)

	panic("fnmaxima: logic error: " + msg)
}

// SetValue makes f(a) = v, adding a to the domain if needed.
// nolint: funlen
func (fm *FunctionMaxima[A, V]) SetValue(a A, v V) {
	var (
		p       *Point[A, V]
		oldSlot *valueSlot[V]
		mxOld   *ordered.Node[*Point[A, V]]
	)

	dn := fm.findNode(a)
	if dn != nil {
		p = dn.Item()

		if !fm.valueLess(*p.slot.v, v) && !fm.valueLess(v, *p.slot.v) {
			return
		}

		oldSlot = p.slot
		mxOld = fm.maxima.Find(p)
	}

	slot := fm.registry.find(v)
	newSlot := slot == nil

	if newSlot {
		stored := v
		slot = &valueSlot[V]{
			v: &stored,
		}
	}

	var undo undoLog

	defer fm.finish(&undo, "setValue")

	if newSlot {
		fm.registry.register(slot)
		undo.push(func() {
			fm.registry.unregister(slot)
		})
	}

	slot.owners++
	undo.push(func() {
		slot.owners--
	})

	if p != nil {
		p.slot = slot
		undo.push(func() {
			p.slot = oldSlot
		})
	} else {
		arg := a
		p = &Point[A, V]{
			arg:  &arg,
			slot: slot,
		}

		var inserted bool

		dn, inserted = fm.domain.Insert(p)
		if !inserted {
			fm.logicError("argument appeared during insertion")
		}

		node := dn
		undo.push(func() {
			fm.domain.Remove(node)
		})
	}

	var (
		mxLeft, mxRight   *ordered.Node[*Point[A, V]]
		leftMax, rightMax bool
	)

	isMax := fm.isLocalMaximum(dn, nil)

	left, right := dn.Prev(), dn.Next()

	if left != nil {
		leftMax = fm.isLocalMaximum(left, nil)
		mxLeft = fm.maxima.Find(left.Item())
	}

	if right != nil {
		rightMax = fm.isLocalMaximum(right, nil)
		mxRight = fm.maxima.Find(right.Item())
	}

	if isMax {
		fm.insertMaximum(&undo, p)
	}

	if leftMax && mxLeft == nil {
		fm.insertMaximum(&undo, left.Item())
	}

	if rightMax && mxRight == nil {
		fm.insertMaximum(&undo, right.Item())
	}

	undo.commit()

	// Nothing below compares.
	if mxOld != nil {
		fm.maxima.Remove(mxOld)
	}

	if mxLeft != nil && !leftMax {
		fm.maxima.Remove(mxLeft)
	}

	if mxRight != nil && !rightMax {
		fm.maxima.Remove(mxRight)
	}

	if oldSlot != nil {
		fm.registry.release(oldSlot)
	}
}

// Erase removes a from the domain. Erasing an absent argument does nothing.
func (fm *FunctionMaxima[A, V]) Erase(a A) {
	dn := fm.findNode(a)
	if dn == nil {
		return
	}

	var (
		mxLeft, mxRight   *ordered.Node[*Point[A, V]]
		leftMax, rightMax bool
	)

	p := dn.Item()
	mxSelf := fm.maxima.Find(p)

	left, right := dn.Prev(), dn.Next()

	if left != nil {
		mxLeft = fm.maxima.Find(left.Item())
		leftMax = fm.isLocalMaximum(left, dn)
	}

	if right != nil {
		mxRight = fm.maxima.Find(right.Item())
		rightMax = fm.isLocalMaximum(right, dn)
	}

	var undo undoLog

	defer fm.finish(&undo, "erase")

	if leftMax && mxLeft == nil {
		fm.insertMaximum(&undo, left.Item())
	}

	if rightMax && mxRight == nil {
		fm.insertMaximum(&undo, right.Item())
	}

	undo.commit()

	// Nothing below compares.
	if mxSelf != nil {
		fm.maxima.Remove(mxSelf)
	}

	fm.domain.Remove(dn)

	if mxLeft != nil && !leftMax {
		fm.maxima.Remove(mxLeft)
	}

	if mxRight != nil && !rightMax {
		fm.maxima.Remove(mxRight)
	}

	fm.registry.release(p.slot)
}

// Clone returns an independent copy that shares stored arguments and values
// with fm. Mutating either one afterwards does not affect the other.
func (fm *FunctionMaxima[A, V]) Clone() *FunctionMaxima[A, V] {
	registry, slots := fm.registry.clone()

	fnCopy := func(p *Point[A, V]) *Point[A, V] {
		slot, ok := slots[p.slot]
		if !ok {
			fm.logicError("point references an unregistered value")
		}

		return &Point[A, V]{
			arg:  p.arg,
			slot: slot,
		}
	}

	c := &FunctionMaxima[A, V]{
		logger:    fm.logger,
		argLess:   fm.argLess,
		valueLess: fm.valueLess,
		domain:    fm.domain.CloneFunc(fnCopy),
		registry:  registry,
	}
	c.maxima = fm.maxima.CloneFunc(fnCopy)

	return c
}

func (fm *FunctionMaxima[A, V]) Find(a A) Iterator[A, V] {
	return Iterator[A, V]{
		tree: fm.domain,
		node: fm.findNode(a),
	}
}

func (fm *FunctionMaxima[A, V]) Begin() Iterator[A, V] {
	return Iterator[A, V]{
		tree: fm.domain,
		node: fm.domain.First(),
	}
}

func (fm *FunctionMaxima[A, V]) End() Iterator[A, V] {
	return Iterator[A, V]{
		tree: fm.domain,
	}
}

func (fm *FunctionMaxima[A, V]) MxBegin() Iterator[A, V] {
	return Iterator[A, V]{
		tree: fm.maxima,
		node: fm.maxima.First(),
	}
}

func (fm *FunctionMaxima[A, V]) MxEnd() Iterator[A, V] {
	return Iterator[A, V]{
		tree: fm.maxima,
	}
}

// Points yields the points by ascending argument.
func (fm *FunctionMaxima[A, V]) Points() iter.Seq[Point[A, V]] {
	return points(fm.domain.All())
}

func (fm *FunctionMaxima[A, V]) PointsBackward() iter.Seq[Point[A, V]] {
	return points(fm.domain.Backward())
}

// Maxima yields the local maxima by descending value, ties by ascending
// argument.
func (fm *FunctionMaxima[A, V]) Maxima() iter.Seq[Point[A, V]] {
	return points(fm.maxima.All())
}

func (fm *FunctionMaxima[A, V]) MaximaBackward() iter.Seq[Point[A, V]] {
	return points(fm.maxima.Backward())
}

func points[A, V any](seq iter.Seq[*Point[A, V]]) iter.Seq[Point[A, V]] {
	return func(yield func(Point[A, V]) bool) {
		for p := range seq {
			if !yield(*p) {
				return
			}
		}
	}
}
