package fnmaxima

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pair struct {
	Arg   int
	Value int
}

type state struct {
	Domain   []pair
	Maxima   []pair
	Size     int
	Registry []int
}

func dumpPoints(seq iter.Seq[Point[int, int]]) []pair {
	ps := make([]pair, 0)

	for p := range seq {
		ps = append(ps, pair{Arg: p.Arg(), Value: p.Value()})
	}

	return ps
}

func dump(fm *FunctionMaxima[int, int]) state {
	registry := make([]int, 0)

	for s := range fm.registry.slots.All() {
		registry = append(registry, *s.v)
	}

	return state{
		Domain:   dumpPoints(fm.Points()),
		Maxima:   dumpPoints(fm.Maxima()),
		Size:     fm.Size(),
		Registry: registry,
	}
}

// checkInvariants verifies the three indices against each other without
// going through the less functions of fm.
func checkInvariants[A, V any](t *testing.T, fm *FunctionMaxima[A, V], argLess func(a, b A) bool, valueLess func(a, b V) bool) {
	t.Helper()

	owners := make(map[*valueSlot[V]]int)

	var prev *Point[A, V]

	maximaCount := 0

	for n := fm.domain.First(); n != nil; n = n.Next() {
		p := n.Item()
		owners[p.slot]++

		if prev != nil {
			assert.True(t, argLess(*prev.arg, *p.arg), "domain order")
		}

		prev = p

		isMax := true
		if l := n.Prev(); l != nil && valueLess(*p.slot.v, *l.Item().slot.v) {
			isMax = false
		}

		if r := n.Next(); r != nil && valueLess(*p.slot.v, *r.Item().slot.v) {
			isMax = false
		}

		var rec *Point[A, V]

		for m := fm.maxima.First(); m != nil; m = m.Next() {
			if !argLess(*m.Item().arg, *p.arg) && !argLess(*p.arg, *m.Item().arg) {
				assert.Nil(t, rec, "argument recorded twice in maxima")

				rec = m.Item()
			}
		}

		if isMax {
			maximaCount++

			if assert.NotNil(t, rec, "missing maximum") {
				assert.True(t, rec.slot == p.slot, "maximum record holds a stale value")
			}
		} else {
			assert.Nil(t, rec, "record for a point that is not a maximum")
		}
	}

	assert.Equal(t, maximaCount, fm.maxima.Len())

	var prevMx *Point[A, V]

	for m := fm.maxima.First(); m != nil; m = m.Next() {
		p := m.Item()

		if prevMx != nil {
			assert.False(t, valueLess(*prevMx.slot.v, *p.slot.v), "maxima value order")

			if !valueLess(*p.slot.v, *prevMx.slot.v) {
				assert.True(t, argLess(*prevMx.arg, *p.arg), "maxima tie order")
			}
		}

		prevMx = p
	}

	assert.Equal(t, len(owners), fm.registry.len())

	var prevSlot *valueSlot[V]

	for n := fm.registry.slots.First(); n != nil; n = n.Next() {
		s := n.Item()

		assert.True(t, s.node == n, "registry handle")
		assert.True(t, s.owners > 0, "unowned value left registered")
		assert.Equal(t, owners[s], s.owners, "owner count")

		if prevSlot != nil {
			assert.True(t, valueLess(*prevSlot.v, *s.v), "registry holds distinct ordered values")
		}

		prevSlot = s
	}
}

func intLess(a, b int) bool {
	return a < b
}

func checkIntInvariants(t *testing.T, fm *FunctionMaxima[int, int]) {
	t.Helper()

	checkInvariants(t, fm, intLess, intLess)
}
