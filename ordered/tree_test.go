package ordered

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intLess(a, b int) bool {
	return a < b
}

func checkTree[T any](t *testing.T, tr *Tree[T]) {
	t.Helper()

	var count int

	var walk func(n *Node[T])

	walk = func(n *Node[T]) {
		if n == nil {
			return
		}

		count++

		if n.left != nil {
			assert.True(t, n.left.parent == n, "left parent link")
			assert.True(t, tr.less(n.left.maxNode().item, n.item), "left order")
			assert.True(t, n.pri <= n.left.pri, "left priority")
		}

		if n.right != nil {
			assert.True(t, n.right.parent == n, "right parent link")
			assert.True(t, tr.less(n.item, n.right.minNode().item), "right order")
			assert.True(t, n.pri <= n.right.pri, "right priority")
		}

		walk(n.left)
		walk(n.right)
	}

	if tr.root != nil {
		assert.Nil(t, tr.root.parent)
	}

	walk(tr.root)
	assert.Equal(t, tr.length, count)
}

func collect[T any](tr *Tree[T]) (items []T) {
	for item := range tr.All() {
		items = append(items, item)
	}

	return
}

func TestInsertFindRemove(t *testing.T) {
	tr := New[int](intLess)
	assert.Equal(t, 0, tr.Len())
	assert.Nil(t, tr.First())
	assert.Nil(t, tr.Last())
	assert.Nil(t, tr.Find(1))

	for _, v := range []int{5, 3, 8, 1, 4, 7, 9} {
		n, inserted := tr.Insert(v)
		assert.True(t, inserted)
		assert.Equal(t, v, n.Item())
	}

	n, inserted := tr.Insert(4)
	assert.False(t, inserted)
	assert.Equal(t, 4, n.Item())
	assert.Equal(t, 7, tr.Len())
	checkTree(t, tr)

	assert.Equal(t, []int{1, 3, 4, 5, 7, 8, 9}, collect(tr))
	assert.Equal(t, 1, tr.First().Item())
	assert.Equal(t, 9, tr.Last().Item())

	n = tr.Find(5)
	assert.NotNil(t, n)
	assert.Equal(t, 4, n.Prev().Item())
	assert.Equal(t, 7, n.Next().Item())
	assert.Nil(t, tr.Find(6))

	tr.Remove(n)
	checkTree(t, tr)
	assert.Equal(t, []int{1, 3, 4, 7, 8, 9}, collect(tr))
	assert.Nil(t, tr.Find(5))

	assert.Panics(t, func() {
		tr.Remove(n)
	})
}

func TestLowerBound(t *testing.T) {
	tr := New[int](intLess)
	for _, v := range []int{10, 20, 30} {
		tr.Insert(v)
	}

	fnBefore := func(probe int) func(int) bool {
		return func(item int) bool {
			return item < probe
		}
	}

	assert.Equal(t, 10, tr.LowerBound(fnBefore(5)).Item())
	assert.Equal(t, 20, tr.LowerBound(fnBefore(20)).Item())
	assert.Equal(t, 30, tr.LowerBound(fnBefore(21)).Item())
	assert.Nil(t, tr.LowerBound(fnBefore(31)))
}

func TestBackward(t *testing.T) {
	tr := New[int](intLess)
	for _, v := range []int{2, 1, 3} {
		tr.Insert(v)
	}

	var items []int

	for item := range tr.Backward() {
		items = append(items, item)

		if len(items) == 2 {
			break
		}
	}

	assert.Equal(t, []int{3, 2}, items)

	var walked []int

	for n := tr.Last(); n != nil; n = n.Prev() {
		walked = append(walked, n.Item())
	}

	assert.Equal(t, []int{3, 2, 1}, walked)
}

func TestInsertPanicLeavesTreeUnchanged(t *testing.T) {
	var calls, failAt int

	tr := New[int](func(a, b int) bool {
		calls++
		if failAt > 0 && calls == failAt {
			panic("less failed")
		}

		return a < b
	})

	for _, v := range []int{50, 20, 80, 10, 30, 70, 90} {
		tr.Insert(v)
	}

	for failAt = 1; ; failAt++ {
		calls = 0

		var panicked bool

		func() {
			defer func() {
				if r := recover(); r != nil {
					panicked = true
				}
			}()

			tr.Insert(60)
		}()

		if !panicked {
			break
		}

		assert.Equal(t, 7, tr.Len())
		assert.Equal(t, []int{10, 20, 30, 50, 70, 80, 90}, collect(tr))
	}

	failAt = 0
	assert.Equal(t, 8, tr.Len())
	checkTree(t, tr)
}

func TestRemoveMakesNoComparisons(t *testing.T) {
	var calls int

	tr := New[int](func(a, b int) bool {
		calls++

		return a < b
	})

	nodes := make([]*Node[int], 0, 100)

	for v := 0; v < 100; v++ {
		n, _ := tr.Insert(v)
		nodes = append(nodes, n)
	}

	calls = 0

	for _, idx := range rand.Perm(len(nodes)) {
		tr.Remove(nodes[idx])
	}

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, tr.Len())
	assert.Nil(t, tr.root)
}

func TestRandomAgainstSortedSlice(t *testing.T) {
	tr := New[int](intLess)
	present := make(map[int]*Node[int])

	// nolint: gosec
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 3000; i++ {
		v := r.IntN(200)

		if n, ok := present[v]; ok && r.IntN(2) == 0 {
			tr.Remove(n)
			delete(present, v)
		} else {
			n, inserted := tr.Insert(v)
			assert.Equal(t, !ok, inserted)
			present[v] = n
		}
	}

	checkTree(t, tr)

	want := make([]int, 0, len(present))
	for v := range present {
		want = append(want, v)
	}

	sort.Ints(want)

	assert.Equal(t, want, collect(tr))
}

func TestCloneFunc(t *testing.T) {
	tr := New[int](intLess)
	for _, v := range []int{4, 2, 6, 1, 3, 5, 7} {
		tr.Insert(v)
	}

	c := tr.CloneFunc(func(v int) int {
		return v
	})
	checkTree(t, c)
	assert.Equal(t, collect(tr), collect(c))

	c.Remove(c.Find(4))
	c.Insert(10)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, collect(tr))
	assert.Equal(t, []int{1, 2, 3, 5, 6, 7, 10}, collect(c))
	checkTree(t, tr)
	checkTree(t, c)
}
