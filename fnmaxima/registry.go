package fnmaxima

import (
	"github.com/sgostarter/i/l"
	"github.com/sgostarter/libmaxima/ordered"
)

type valueRegistry[V any] struct {
	logger l.Wrapper
	less   func(a, b V) bool
	slots  *ordered.Tree[*valueSlot[V]]
}

func newValueRegistry[V any](less func(a, b V) bool, logger l.Wrapper) *valueRegistry[V] {
	return &valueRegistry[V]{
		logger: logger,
		less:   less,
		slots: ordered.New[*valueSlot[V]](func(a, b *valueSlot[V]) bool {
			return less(*a.v, *b.v)
		}),
	}
}

// find returns the live slot holding a value equal to v, or nil.
func (r *valueRegistry[V]) find(v V) *valueSlot[V] {
	n := r.slots.LowerBound(func(s *valueSlot[V]) bool {
		return r.less(*s.v, v)
	})
	if n == nil || r.less(v, *n.Item().v) {
		return nil
	}

	return n.Item()
}

func (r *valueRegistry[V]) register(s *valueSlot[V]) {
	n, inserted := r.slots.Insert(s)
	if !inserted {
		r.logger.Error("logic error: value registered twice")

		panic("fnmaxima: logic error: value registered twice")
	}

	s.node = n
}

func (r *valueRegistry[V]) unregister(s *valueSlot[V]) {
	if s.node == nil {
		r.logger.Error("logic error: value slot not registered")

		panic("fnmaxima: logic error: value slot not registered")
	}

	r.slots.Remove(s.node)
	s.node = nil
}

// release drops one owner of s and unregisters it once nothing owns it.
func (r *valueRegistry[V]) release(s *valueSlot[V]) {
	if s.owners <= 0 {
		r.logger.WithFields(l.IntField("owners", s.owners)).Error("logic error: release of unowned value slot")

		panic("fnmaxima: logic error: release of unowned value slot")
	}

	s.owners--
	if s.owners == 0 {
		r.unregister(s)
	}
}

func (r *valueRegistry[V]) len() int {
	return r.slots.Len()
}

// clone copies the registry, sharing the stored values. The returned map
// sends every slot of r to its copy.
func (r *valueRegistry[V]) clone() (*valueRegistry[V], map[*valueSlot[V]]*valueSlot[V]) {
	m := make(map[*valueSlot[V]]*valueSlot[V], r.slots.Len())

	slots := r.slots.CloneFunc(func(s *valueSlot[V]) *valueSlot[V] {
		c := &valueSlot[V]{
			v:      s.v,
			owners: s.owners,
		}
		m[s] = c

		return c
	})

	for n := slots.First(); n != nil; n = n.Next() {
		n.Item().node = n
	}

	return &valueRegistry[V]{
		logger: r.logger,
		less:   r.less,
		slots:  slots,
	}, m
}
