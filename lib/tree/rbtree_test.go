package tree

import (
	"math"
	randv2 "math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree/walk"
)

type checkData[T any] struct {
	color RBColor
	key   T
}

func requireSequence[T any](t *testing.T, tree RBTree[T], expected []checkData[T]) {
	t.Helper()
	require.Equal(t, int64(len(expected)), tree.Len())
	tree.Foreach(func(idx int64, color RBColor, key T) bool {
		require.Equal(t, expected[idx].color, color)
		require.Equal(t, expected[idx].key, key)
		return true
	})
	requireInvariants[T](t, tree)
}

func requireInvariants[T any](t *testing.T, tree RBTree[T]) {
	t.Helper()
	require.NoError(t, tree.(*rbTree[T]).validateAll())
	require.True(t, tree.Validate())
	require.True(t, tree.IsBalanced())
}

func snapshot[T any](tree RBTree[T]) []checkData[T] {
	res := make([]checkData[T], 0, tree.Len())
	tree.Foreach(func(idx int64, color RBColor, key T) bool {
		res = append(res, checkData[T]{color, key})
		return true
	})
	return res
}

func TestRBColorAndDirection_String(t *testing.T) {
	require.Equal(t, "Black", Black.String())
	require.Equal(t, "Red", Red.String())
	require.Equal(t, "RBColor(2)", RBColor(2).String())
	require.Equal(t, "Left", Left.String())
	require.Equal(t, "Root", Root.String())
	require.Equal(t, "Right", Right.String())
	require.Equal(t, "RBDirection(2)", RBDirection(2).String())
	require.Equal(t, Right, Left.opposite())
	require.Equal(t, Left, Right.opposite())
}

func TestRbtreeLeftAndRightRotate_Pred(t *testing.T) {
	tree := NewRBTree[uint64](WithRBTreeRemoveBorrowPred[uint64]())

	_, err := tree.Add(52)
	require.NoError(t, err)
	requireSequence(t, tree, []checkData[uint64]{
		{Black, 52},
	})

	_, err = tree.Add(47)
	require.NoError(t, err)
	requireSequence(t, tree, []checkData[uint64]{
		{Red, 47}, {Black, 52},
	})

	_, err = tree.Add(3)
	require.NoError(t, err)
	requireSequence(t, tree, []checkData[uint64]{
		{Red, 3}, {Black, 47}, {Red, 52},
	})

	_, err = tree.Add(35)
	require.NoError(t, err)
	requireSequence(t, tree, []checkData[uint64]{
		{Black, 3},
		{Red, 35},
		{Black, 47},
		{Black, 52},
	})

	_, err = tree.Add(24)
	require.NoError(t, err)
	requireSequence(t, tree, []checkData[uint64]{
		{Red, 3},
		{Black, 24},
		{Red, 35},
		{Black, 47},
		{Black, 52},
	})

	// remove

	x, err := tree.Delete(24)
	require.NoError(t, err)
	require.Equal(t, uint64(24), x)
	requireSequence(t, tree, []checkData[uint64]{
		{Black, 3},
		{Red, 35},
		{Black, 47},
		{Black, 52},
	})

	x, err = tree.Delete(47)
	require.NoError(t, err)
	require.Equal(t, uint64(47), x)
	requireSequence(t, tree, []checkData[uint64]{
		{Black, 3},
		{Black, 35},
		{Black, 52},
	})

	require.True(t, tree.Remove(52))
	requireSequence(t, tree, []checkData[uint64]{
		{Red, 3}, {Black, 35},
	})

	require.True(t, tree.Remove(3))
	requireSequence(t, tree, []checkData[uint64]{
		{Black, 35},
	})

	require.True(t, tree.Remove(35))
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
}

func TestRbtree_RemoveMin(t *testing.T) {
	tree := NewRBTree[uint64]()
	for _, key := range []uint64{52, 47, 3, 35, 24} {
		_, err := tree.Add(key)
		require.NoError(t, err)
	}
	requireSequence(t, tree, []checkData[uint64]{
		{Red, 3},
		{Black, 24},
		{Red, 35},
		{Black, 47},
		{Black, 52},
	})

	// remove min

	x, err := tree.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, uint64(3), x)
	requireSequence(t, tree, []checkData[uint64]{
		{Black, 24},
		{Red, 35},
		{Black, 47},
		{Black, 52},
	})

	x, err = tree.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, uint64(24), x)
	requireSequence(t, tree, []checkData[uint64]{
		{Black, 35},
		{Black, 47},
		{Black, 52},
	})

	x, err = tree.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, uint64(35), x)
	requireSequence(t, tree, []checkData[uint64]{
		{Black, 47}, {Red, 52},
	})

	x, err = tree.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, uint64(47), x)
	requireSequence(t, tree, []checkData[uint64]{
		{Black, 52},
	})

	x, err = tree.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, uint64(52), x)
	require.Equal(t, int64(0), tree.Len())

	_, err = tree.RemoveMin()
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestRbtree_RemoveMax(t *testing.T) {
	tree := NewRBTree[int]()
	for i := 1; i <= 64; i++ {
		_, err := tree.Add(i)
		require.NoError(t, err)
	}
	for i := 64; i >= 1; i-- {
		x, err := tree.RemoveMax()
		require.NoError(t, err)
		require.Equal(t, i, x)
		requireInvariants(t, tree)
	}
	_, err := tree.RemoveMax()
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestRBTree_Scenarios(t *testing.T) {
	t.Run("right-right rotation", func(tt *testing.T) {
		tree := NewRBTree[int]()
		for _, v := range []int{10, 20, 30} {
			_, err := tree.Add(v)
			require.NoError(tt, err)
		}
		root := tree.Root()
		require.Equal(tt, 20, root.Val())
		require.Equal(tt, Black, root.Color())
		require.Equal(tt, 10, root.Left().Val())
		require.Equal(tt, Red, root.Left().Color())
		require.Equal(tt, 30, root.Right().Val())
		require.Equal(tt, Red, root.Right().Color())
		requireInvariants(tt, tree)
	})
	t.Run("ascending inserts height bound", func(tt *testing.T) {
		tree := NewRBTree[int]()
		for _, v := range []int{10, 20, 30, 40, 50} {
			_, err := tree.Add(v)
			require.NoError(tt, err)
		}
		require.LessOrEqual(tt, float64(Height[int](tree)), 2*math.Log2(float64(tree.Len()+1)))
		vals := make([]int, 0, 5)
		tree.Foreach(func(idx int64, color RBColor, val int) bool {
			vals = append(vals, val)
			return true
		})
		require.Equal(tt, []int{10, 20, 30, 40, 50}, vals)
		requireInvariants(tt, tree)
	})
	t.Run("remove root with two children", func(tt *testing.T) {
		tree := NewRBTree[int]()
		for _, v := range []int{20, 10, 30, 5, 15, 25, 35} {
			_, err := tree.Add(v)
			require.NoError(tt, err)
		}
		require.True(tt, tree.Remove(20))
		require.Equal(tt, 25, tree.Root().Val())
		require.Equal(tt, Black, tree.Root().Color())
		require.False(tt, tree.Contains(20))
		require.Equal(tt, int64(6), tree.Len())
		requireInvariants(tt, tree)
	})
	t.Run("remove missing value", func(tt *testing.T) {
		tree := NewRBTree[int]()
		for _, v := range []int{20, 10, 30, 5, 15, 25, 35} {
			_, err := tree.Add(v)
			require.NoError(tt, err)
		}
		before, version := snapshot(tree), tree.Version()
		require.False(tt, tree.Remove(99))
		require.Equal(tt, before, snapshot(tree))
		require.Equal(tt, version, tree.Version())
		require.Equal(tt, int64(7), tree.Len())

		_, err := tree.Delete(99)
		require.ErrorIs(tt, err, ErrNotFound)
		require.Equal(tt, before, snapshot(tree))
	})
	t.Run("duplicate key", func(tt *testing.T) {
		tree := NewRBTree[int]()
		_, err := tree.Add(10)
		require.NoError(tt, err)
		version := tree.Version()
		node, err := tree.Add(10)
		require.ErrorIs(tt, err, ErrDuplicateKey)
		require.Nil(tt, node)
		require.Equal(tt, int64(1), tree.Len())
		require.Equal(tt, version, tree.Version())

		es, ok := err.(infra.ErrorStack)
		require.True(tt, ok)
		require.NotEmpty(tt, es.Frames())
	})
	t.Run("random fill then drain", func(tt *testing.T) {
		tree := NewRBTree[int]()
		n := 2048
		vals := randv2.Perm(n * 8)[:n]
		for _, v := range vals {
			_, err := tree.Add(v)
			require.NoError(tt, err)
		}
		require.Equal(tt, int64(n), tree.Len())
		requireInvariants(tt, tree)

		randv2.Shuffle(len(vals), func(i, j int) {
			vals[i], vals[j] = vals[j], vals[i]
		})
		for i, v := range vals {
			require.True(tt, tree.Remove(v))
			if i%97 == 0 {
				requireInvariants(tt, tree)
			}
		}
		require.Equal(tt, int64(0), tree.Len())
		require.Nil(tt, tree.Root())
		requireInvariants(tt, tree)
	})
}

func rbtreeRandomInsertAndRemoveSequentialNumberRunCore(t *testing.T, rmByPred bool) {
	total := uint64(1000)
	insertTotal := uint64(float64(total) * 0.8)
	removeTotal := uint64(float64(total) * 0.2)

	opts := make([]RBTreeOpt[uint64], 0, 1)
	if rmByPred {
		opts = append(opts, WithRBTreeRemoveBorrowPred[uint64]())
	}
	tree := NewRBTree[uint64](opts...)

	for i := uint64(0); i < insertTotal; i++ {
		_, err := tree.Add(i)
		require.NoError(t, err)
		require.NoError(t, RedViolationValidate(tree))
		require.NoError(t, BlackViolationValidate(tree))
	}
	tree.Foreach(func(idx int64, color RBColor, key uint64) bool {
		require.Equal(t, uint64(idx), key)
		return true
	})

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		require.NoError(t, tree.Insert(i))
		require.NoError(t, RedViolationValidate(tree))
		require.NoError(t, BlackViolationValidate(tree))
	}

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		if i == 892 {
			x := tree.Find(i)
			require.NotNil(t, x)
			require.Equal(t, uint64(892), x.Val())
		}
		x, err := tree.Delete(i)
		require.NoError(t, err)
		require.Equal(t, i, x)
		require.NoError(t, RedViolationValidate(tree))
		require.NoError(t, BlackViolationValidate(tree))
	}
	tree.Foreach(func(idx int64, color RBColor, key uint64) bool {
		require.Equal(t, uint64(idx), key)
		return true
	})
	require.Equal(t, int64(insertTotal), tree.Len())
	requireInvariants(t, tree)
}

func TestRbtreeRandomInsertAndRemove_SequentialNumber(t *testing.T) {
	testcases := []struct {
		name     string
		rmByPred bool
	}{
		{
			name: "rm by succ",
		},
		{
			name:     "rm by pred",
			rmByPred: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeRandomInsertAndRemoveSequentialNumberRunCore(tt, tc.rmByPred)
		})
	}
}

func TestRBTreeRandomInsertAndRemove_SequentialNumber_Release(t *testing.T) {
	insertTotal := uint64(100_000)
	tree := NewRBTree[uint64](WithRBTreeCapacity[uint64](int(insertTotal)))

	rand := uint64(randv2.Uint32() % 1_000)
	for i := uint64(0); i < insertTotal; i++ {
		_, err := tree.Add(i)
		require.NoError(t, err)
		if i%1000 == rand {
			require.NoError(t, RedViolationValidate(tree))
			require.NoError(t, BlackViolationValidate(tree))
		}
	}
	tree.Foreach(func(idx int64, color RBColor, key uint64) bool {
		require.Equal(t, uint64(idx), key)
		return true
	})
	require.LessOrEqual(t, float64(Height[uint64](tree)), 2*math.Log2(float64(insertTotal+1)))
	tree.Release()
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
}

func TestRbtreeRandomInsertAndRemove_ReverseSequentialNumber(t *testing.T) {
	total := int64(10000)
	insertTotal := int64(float64(total) * 0.8)
	removeTotal := int64(float64(total) * 0.2)

	tree := NewRBTree[int64](WithRBTreeDesc[int64]())

	rand := int64(randv2.Uint32() % 1_000)
	for i := insertTotal - 1; i >= 0; i-- {
		_, err := tree.Add(i)
		require.NoError(t, err)
		if i%1000 == rand {
			require.NoError(t, RedViolationValidate(tree))
			require.NoError(t, BlackViolationValidate(tree))
		}
	}
	tree.Foreach(func(idx int64, color RBColor, key int64) bool {
		require.Equal(t, insertTotal-1-idx, key)
		return true
	})

	for i := removeTotal + insertTotal - 1; i >= insertTotal; i-- {
		_, err := tree.Add(i)
		require.NoError(t, err)
	}
	tree.Foreach(func(idx int64, color RBColor, key int64) bool {
		require.Equal(t, removeTotal+insertTotal-1-idx, key)
		return true
	})
	first, err := tree.Min()
	require.NoError(t, err)
	require.Equal(t, removeTotal+insertTotal-1, first)
	last, err := tree.Max()
	require.NoError(t, err)
	require.Equal(t, int64(0), last)

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		require.True(t, tree.Remove(i))
	}
	tree.Foreach(func(idx int64, color RBColor, key int64) bool {
		require.Equal(t, insertTotal-1-idx, key)
		return true
	})
	requireInvariants(t, tree)
}

func rbtreeRandomInsertAndRemoveRandomMonoNumberRunCore(t *testing.T, total int, rmByPred bool, violationCheck bool) {
	insertTotal := int(float64(total) * 0.8)
	removeTotal := int(float64(total) * 0.2)

	opts := []RBTreeOpt[uint64]{WithRBTreeCapacity[uint64](total)}
	if rmByPred {
		opts = append(opts, WithRBTreeRemoveBorrowPred[uint64]())
	}
	tree := NewRBTree[uint64](opts...)

	uniques := make(map[uint64]struct{}, total)
	elements := make([]uint64, 0, total)
	for len(elements) < insertTotal+removeTotal {
		v := randv2.Uint64() % uint64(total*16)
		if _, ok := uniques[v]; ok {
			continue
		}
		uniques[v] = struct{}{}
		elements = append(elements, v)
	}
	insertElements, removeElements := elements[:insertTotal], elements[insertTotal:]

	for _, v := range insertElements {
		_, err := tree.Add(v)
		require.NoError(t, err)
		if violationCheck {
			require.NoError(t, RedViolationValidate(tree))
			require.NoError(t, BlackViolationValidate(tree))
		}
	}
	for _, v := range removeElements {
		_, err := tree.Add(v)
		require.NoError(t, err)
	}
	for _, v := range removeElements {
		x, err := tree.Delete(v)
		require.NoError(t, err)
		require.Equal(t, v, x)
		if violationCheck {
			require.NoError(t, RedViolationValidate(tree))
			require.NoError(t, BlackViolationValidate(tree))
		}
	}

	sort.Slice(insertElements, func(i, j int) bool {
		return insertElements[i] < insertElements[j]
	})
	tree.Foreach(func(idx int64, color RBColor, key uint64) bool {
		require.Equal(t, insertElements[idx], key)
		return true
	})
	requireInvariants(t, tree)
}

func TestRbtreeRandomInsertAndRemove_RandomMonotonicNumber(t *testing.T) {
	testcases := []struct {
		name           string
		total          int
		rmByPred       bool
		violationCheck bool
	}{
		{"rm by succ 1000", 1000, false, true},
		{"rm by pred 1000", 1000, true, true},
		{"rm by succ 100000", 100_000, false, false},
		{"rm by pred 100000", 100_000, true, false},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeRandomInsertAndRemoveRandomMonoNumberRunCore(tt, tc.total, tc.rmByPred, tc.violationCheck)
		})
	}
}

func TestRBTree_RoundTrip(t *testing.T) {
	tree := NewRBTree[int]()
	for _, v := range randv2.Perm(200) {
		_, err := tree.Add(v * 2)
		require.NoError(t, err)
	}
	for _, v := range []int{-1, 1, 77, 199, 401} {
		before := snapshot(tree)
		_, err := tree.Add(v)
		require.NoError(t, err)
		require.True(t, tree.Remove(v))
		after := snapshot(tree)
		require.Equal(t, len(before), len(after))
		for i := range before {
			require.Equal(t, before[i].key, after[i].key)
		}
		requireInvariants(t, tree)
	}
}

func TestRBTree_ValidationIdempotence(t *testing.T) {
	tree := NewRBTree[int]()
	for _, v := range randv2.Perm(128) {
		_, err := tree.Add(v)
		require.NoError(t, err)
	}
	version, before := tree.Version(), snapshot(tree)
	for i := 0; i < 3; i++ {
		require.True(t, tree.Validate())
		require.True(t, tree.IsBalanced())
		require.NoError(t, BlackViolationValidate(tree))
		_, err := BlackHeight(tree)
		require.NoError(t, err)
	}
	require.Equal(t, version, tree.Version())
	require.Equal(t, before, snapshot(tree))
}

type kv struct {
	key int
	val string
}

func TestRBTree_InsertReplace(t *testing.T) {
	tree := NewRBTreeFunc[kv](func(i, j kv) int64 {
		return int64(i.key - j.key)
	})
	require.NoError(t, tree.Insert(kv{1, "a"}))
	require.NoError(t, tree.Insert(kv{2, "x"}))
	require.NoError(t, tree.Insert(kv{1, "b"}))
	require.Equal(t, int64(2), tree.Len())
	require.Equal(t, "b", tree.Find(kv{key: 1}).Val().val)

	err := tree.Insert(kv{1, "c"}, true)
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.Equal(t, "b", tree.Find(kv{key: 1}).Val().val)

	require.NoError(t, tree.Insert(kv{3, "c"}, true))
	require.True(t, tree.Contains(kv{key: 3}))
	requireInvariants(t, tree)
}

func TestRBTree_Strings(t *testing.T) {
	tree := NewRBTree[string]()
	words := []string{"pear", "apple", "fig", "kiwi", "banana", "cherry"}
	for _, w := range words {
		_, err := tree.Add(w)
		require.NoError(t, err)
	}
	sort.Strings(words)
	tree.Foreach(func(idx int64, color RBColor, val string) bool {
		require.Equal(t, words[idx], val)
		return true
	})
	first, err := tree.Min()
	require.NoError(t, err)
	require.Equal(t, "apple", first)
	last, err := tree.Max()
	require.NoError(t, err)
	require.Equal(t, "pear", last)
}

func TestRBTree_EmptyTree(t *testing.T) {
	tree := NewRBTree[int]()
	require.Nil(t, tree.Root())
	require.False(t, tree.Contains(1))
	require.Nil(t, tree.Find(1))
	require.False(t, tree.Remove(1))
	_, err := tree.Delete(1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = tree.Min()
	require.ErrorIs(t, err, ErrInvalidOperation)
	_, err = tree.Max()
	require.ErrorIs(t, err, ErrInvalidOperation)
	require.True(t, tree.Validate())
	require.True(t, tree.IsBalanced())
	height, err := BlackHeight(tree)
	require.NoError(t, err)
	require.Equal(t, 0, height)
	require.Equal(t, 0, Height(tree))

	tree.Foreach(func(idx int64, color RBColor, val int) bool {
		require.FailNow(t, "empty tree must not be visited")
		return false
	})

	require.Panics(t, func() {
		NewRBTreeFunc[int](nil)
	})
}

func TestRBTree_NodeHandles(t *testing.T) {
	tree := NewRBTree[int]()
	handles := make(map[int]RBNode[int], 7)
	for _, v := range []int{20, 10, 30, 5, 15, 25, 35} {
		node, err := tree.Add(v)
		require.NoError(t, err)
		require.True(t, node.Valid())
		handles[v] = node
	}

	root := tree.Root()
	require.True(t, root.IsRoot())
	require.Equal(t, Root, root.Direction())
	require.Nil(t, root.Parent())
	require.Nil(t, root.Sibling())
	require.Nil(t, root.Uncle())
	require.Equal(t, 5, root.Minimum().Val())
	require.Equal(t, 35, root.Maximum().Val())

	h5 := handles[5]
	require.Equal(t, Red, h5.Color())
	require.True(t, h5.IsLeaf())
	require.False(t, h5.IsRoot())
	require.Equal(t, Left, h5.Direction())
	require.Equal(t, 10, h5.Parent().Val())
	require.Equal(t, 15, h5.Sibling().Val())
	require.Equal(t, 30, h5.Uncle().Val())
	require.Nil(t, h5.Pred())
	require.Equal(t, 10, h5.Succ().Val())

	h10 := handles[10]
	require.Equal(t, Black, h10.Color())
	require.Equal(t, 5, h10.Left().Val())
	require.Equal(t, 15, h10.Right().Val())
	require.Equal(t, 5, h10.Minimum().Val())
	require.Equal(t, 15, h10.Maximum().Val())
	require.Equal(t, Left, h10.Direction())

	require.Equal(t, 20, handles[15].Succ().Val())
	require.Equal(t, 10, handles[15].Pred().Val())
	require.Equal(t, 20, handles[25].Pred().Val())
	require.Nil(t, handles[35].Succ())
	require.Equal(t, Right, handles[35].Direction())

	// The successor takes the place of the removed root, its handle
	// stays valid.
	require.True(t, tree.Remove(20))
	h20, h25 := handles[20], handles[25]
	require.False(t, h20.Valid())
	require.True(t, h25.Valid())
	require.True(t, h25.IsRoot())
	require.Equal(t, 25, h25.Val())
	for _, v := range []int{5, 10, 15, 30, 35} {
		require.True(t, handles[v].Valid())
		require.Equal(t, v, handles[v].Val())
	}

	// Stale handle.
	require.Equal(t, 0, h20.Val())
	require.Equal(t, Black, h20.Color())
	require.Nil(t, h20.Left())
	require.Nil(t, h20.Succ())
	require.False(t, h20.IsRoot())
	require.False(t, h20.IsLeaf())
	require.Panics(t, func() {
		h20.Direction()
	})
	ok, err := tree.RemoveNode(h20)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrInvalidOperation)

	ok, err = tree.RemoveNode(nil)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrInvalidOperation)

	other := NewRBTree[int]()
	foreign, err := other.Add(10)
	require.NoError(t, err)
	ok, err = tree.RemoveNode(foreign)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrInvalidOperation)
	require.True(t, tree.Contains(10))

	ok, err = tree.RemoveNode(handles[10])
	require.True(t, ok)
	require.NoError(t, err)
	require.False(t, tree.Contains(10))
	require.False(t, handles[10].Valid())
	requireInvariants(t, tree)
}

func TestRBTree_Version(t *testing.T) {
	tree := NewRBTree[int]()
	v0 := tree.Version()
	_, err := tree.Add(1)
	require.NoError(t, err)
	v1 := tree.Version()
	require.Greater(t, v1, v0)

	_, err = tree.Add(1)
	require.Error(t, err)
	require.Equal(t, v1, tree.Version())

	for i := 2; i <= 10; i++ {
		_, err = tree.Add(i)
		require.NoError(t, err)
	}
	v2 := tree.Version()
	require.Greater(t, v2, v1)

	require.True(t, tree.Validate())
	require.True(t, tree.IsBalanced())
	require.Equal(t, v2, tree.Version())
	require.False(t, tree.Remove(99))
	require.Equal(t, v2, tree.Version())

	// Replacing a value keeps the shape.
	require.NoError(t, tree.Insert(5))
	require.Equal(t, v2, tree.Version())

	require.True(t, tree.Remove(5))
	v3 := tree.Version()
	require.Greater(t, v3, v2)

	tree.Clear()
	require.Greater(t, tree.Version(), v3)
}

func TestRBTree_ClearAndRelease(t *testing.T) {
	tree := NewRBTree[int](WithRBTreeCapacity[int](16)).(*rbTree[int])
	for i := 1; i <= 10; i++ {
		_, err := tree.Add(i)
		require.NoError(t, err)
	}
	slots := len(tree.arena.nodes)
	require.Equal(t, 11, slots)

	h3 := tree.Find(3)
	tree.Clear()
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
	require.False(t, h3.Valid())

	// The slots are recycled.
	for i := 11; i <= 20; i++ {
		_, err := tree.Add(i)
		require.NoError(t, err)
	}
	require.Equal(t, slots, len(tree.arena.nodes))
	require.False(t, h3.Valid())
	require.False(t, tree.Contains(3))
	requireInvariants[int](t, tree)

	h11 := tree.Find(11)
	tree.Release()
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
	require.Equal(t, 1, len(tree.arena.nodes))
	require.False(t, h11.Valid())

	for i := 11; i <= 20; i++ {
		_, err := tree.Add(i)
		require.NoError(t, err)
	}
	require.False(t, h11.Valid())
	require.False(t, h3.Valid())
	require.True(t, tree.Find(11).Valid())
	requireInvariants[int](t, tree)
}

func TestRBTree_ArenaFreeList(t *testing.T) {
	arena := newRBArena[int](4)
	a := arena.alloc(1, Black)
	b := arena.alloc(2, Red)
	c := arena.alloc(3, Red)
	require.Equal(t, []nodeID{1, 2, 3}, []nodeID{a, b, c})
	gen := arena.nodes[b].gen

	arena.release(b)
	require.False(t, arena.live(b, gen))
	arena.release(a)
	// LIFO
	require.Equal(t, a, arena.alloc(4, Red))
	require.Equal(t, b, arena.alloc(5, Red))
	require.True(t, arena.live(b, gen+1))
	require.Equal(t, 5, arena.nodes[b].val)
	require.Equal(t, nodeID(4), arena.alloc(6, Red))

	require.Panics(t, func() {
		arena.release(nilID)
	})
	arena.release(c)
	require.Panics(t, func() {
		arena.release(c)
	})
	require.Equal(t, Black, arena.nodes[nilID].color)
	require.Equal(t, nilID, arena.nodes[nilID].parent)
}

func TestRBTree_Source(t *testing.T) {
	tree := NewRBTree[int]()
	vals := randv2.Perm(100)
	for _, v := range vals {
		_, err := tree.Add(v)
		require.NoError(t, err)
	}

	nodes, err := walk.Collect(tree.Source(), walk.InOrder, walk.LeftToRight)
	require.NoError(t, err)
	require.Len(t, nodes, 100)
	for i, node := range nodes {
		require.Equal(t, i, node.Val())
	}

	nodes, err = walk.Collect(tree.Source(), walk.InOrder, walk.RightToLeft)
	require.NoError(t, err)
	require.Equal(t, 99, nodes[0].Val())

	levels := 0
	err = walk.Levels(tree.Source(), walk.LeftToRight, func(level int, nodes []RBNode[int]) bool {
		levels++
		return true
	})
	require.NoError(t, err)
	require.Equal(t, Height[int](tree), levels)

	top, err := walk.Level(tree.Source(), 0, walk.LeftToRight)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, tree.Root().Val(), top[0].Val())

	err = walk.Walk(tree.Source(), walk.PreOrder, walk.LeftToRight, func(node RBNode[int]) bool {
		tree.Remove(node.Val())
		return true
	})
	require.ErrorIs(t, err, walk.ErrConcurrentModification)
	require.Equal(t, int64(99), tree.Len())

	nodes, err = walk.Collect(NewRBTree[int]().Source(), walk.LevelOrder, walk.LeftToRight)
	require.NoError(t, err)
	require.Empty(t, nodes)
}

func TestRBTree_ValidatorsDetectCorruption(t *testing.T) {
	build := func() *rbTree[int] {
		tree := NewRBTree[int](WithRBTreeDebugValidate[int]()).(*rbTree[int])
		for _, v := range []int{20, 10, 30, 5, 15, 25, 35} {
			_, err := tree.Add(v)
			require.NoError(t, err)
		}
		return tree
	}

	tree := build()
	tree.arena.nodes[tree.root].color = Red
	require.False(t, tree.IsBalanced())
	require.ErrorIs(t, RedViolationValidate[int](tree), ErrRedViolation)

	tree = build()
	h10, _, _ := tree.search(10)
	tree.arena.nodes[h10].color = Red
	require.ErrorIs(t, RedViolationValidate[int](tree), ErrRedViolation)
	require.ErrorIs(t, BlackViolationValidate[int](tree), ErrBlackViolation)
	_, err := BlackHeight[int](tree)
	require.ErrorIs(t, err, ErrBlackViolation)
	tree.audit("corrupted")

	tree = build()
	h5, _, _ := tree.search(5)
	tree.arena.nodes[h5].val = 17
	require.False(t, tree.Validate())
	require.ErrorIs(t, ValidateOrder[int](tree, tree.cmp), ErrOrderViolation)

	tree = build()
	h15, _, _ := tree.search(15)
	tree.arena.nodes[h15].parent = tree.root
	require.ErrorIs(t, tree.validateAll(), ErrStructureViolation)

	tree = build()
	tree.count++
	require.ErrorIs(t, tree.linkValidate(), ErrStructureViolation)

	tree = build()
	height, err := BlackHeight[int](tree)
	require.NoError(t, err)
	require.Equal(t, 2, height)
	require.Equal(t, 3, Height[int](tree))
}

func TestRBTree_DebugValidate(t *testing.T) {
	tree := NewRBTree[int](WithRBTreeDebugValidate[int]())
	for _, v := range randv2.Perm(256) {
		_, err := tree.Add(v)
		require.NoError(t, err)
	}
	for v := 0; v < 256; v += 2 {
		require.True(t, tree.Remove(v))
	}
	requireInvariants(t, tree)
}

func BenchmarkRBTree_Random(b *testing.B) {
	rngArr := make([]uint64, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Uint64())
	}
	tree := NewRBTree[uint64](WithRBTreeCapacity[uint64](b.N))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tree.Insert(rngArr[i])
	}
	b.ReportAllocs()
}

func BenchmarkRBTree_Serial(b *testing.B) {
	tree := NewRBTree[uint64](WithRBTreeCapacity[uint64](b.N))

	b.ResetTimer()
	for i := uint64(0); i < uint64(b.N); i++ {
		_ = tree.Insert(i)
	}
	b.ReportAllocs()
}

func BenchmarkRBTree_AddRemove(b *testing.B) {
	tree := NewRBTree[uint64](WithRBTreeCapacity[uint64](1024))
	for i := uint64(0); i < 1024; i++ {
		_ = tree.Insert(i << 1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v := uint64(i%1024)<<1 | 1
		_, _ = tree.Add(v)
		tree.Remove(v)
	}
	b.ReportAllocs()
}

func TestRbtreeRotate_Shape(t *testing.T) {
	// Both cases rotate the root of 20(10(5, 15), 30(25, 35)).
	testcases := []struct {
		name     string
		dir      RBDirection
		root     int
		children map[int][2]int
	}{
		{
			name: "right",
			dir:  Right,
			root: 10,
			children: map[int][2]int{
				10: {5, 20},
				20: {15, 30},
				30: {25, 35},
			},
		},
		{
			name: "left",
			dir:  Left,
			root: 30,
			children: map[int][2]int{
				30: {20, 35},
				20: {10, 25},
				10: {5, 15},
			},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := NewRBTree[int]().(*rbTree[int])
			for _, v := range []int{20, 10, 30, 5, 15, 25, 35} {
				_, err := tree.Add(v)
				require.NoError(tt, err)
			}
			require.Equal(tt, 20, tree.arena.nodes[tree.root].val)
			version := tree.Version()

			tree.rotate(tree.root, tc.dir)
			require.Equal(tt, version+1, tree.Version())
			require.Equal(tt, tc.root, tree.arena.nodes[tree.root].val)
			require.Equal(tt, nilID, tree.parentOf(tree.root))
			for parent, kids := range tc.children {
				p, _, _ := tree.search(parent)
				require.NotEqual(tt, nilID, p)
				l, r := tree.leftOf(p), tree.rightOf(p)
				require.Equal(tt, kids[0], tree.arena.nodes[l].val)
				require.Equal(tt, kids[1], tree.arena.nodes[r].val)
				require.Equal(tt, p, tree.parentOf(l))
				require.Equal(tt, p, tree.parentOf(r))
			}
			require.Equal(tt, []int{5, 10, 15, 20, 25, 30, 35}, collectVals(tree))
		})
	}
}

func collectVals(tree RBTree[int]) []int {
	res := make([]int, 0, tree.Len())
	tree.Foreach(func(_ int64, _ RBColor, val int) bool {
		res = append(res, val)
		return true
	})
	return res
}
