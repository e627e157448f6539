package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

var (
	ErrRedViolation       = errors.New("[rbtree] red violation")
	ErrBlackViolation     = errors.New("[rbtree] black violation")
	ErrOrderViolation     = errors.New("[rbtree] order violation")
	ErrStructureViolation = errors.New("[rbtree] structure violation")
)

func isBlack[T any](node RBNode[T]) bool {
	return node == nil || node.Color() == Black
}

func isRed[T any](node RBNode[T]) bool {
	return node != nil && node.Color() == Red
}

// blackDepth counts the black nodes from the target up to the root,
// both included.
func blackDepth[T any](target RBNode[T]) int {
	depth := 0
	for aux := target; aux != nil; aux = aux.Parent() {
		if isBlack[T](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

type orderFrame[T any] struct {
	node, lower, upper RBNode[T]
}

// ValidateOrder checks every node against the bounds inherited from
// its ancestors, its parent and grandparent included.
func ValidateOrder[T any](tree RBTree[T], cmp infra.Comparator[T]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}

	var merr error
	stack := make([]orderFrame[T], 0, 64)
	stack = append(stack, orderFrame[T]{node: root})
	for size := len(stack); size > 0; size = len(stack) {
		frame := stack[size-1]
		stack = stack[:size-1]
		val := frame.node.Val()
		if frame.lower != nil && cmp(val, frame.lower.Val()) <= 0 {
			merr = multierr.Append(merr, fmt.Errorf("%w: %v is not greater than %v", ErrOrderViolation, val, frame.lower.Val()))
		}
		if frame.upper != nil && cmp(val, frame.upper.Val()) >= 0 {
			merr = multierr.Append(merr, fmt.Errorf("%w: %v is not less than %v", ErrOrderViolation, val, frame.upper.Val()))
		}
		if r := frame.node.Right(); r != nil {
			stack = append(stack, orderFrame[T]{node: r, lower: frame.node, upper: frame.upper})
		}
		if l := frame.node.Left(); l != nil {
			stack = append(stack, orderFrame[T]{node: l, lower: frame.lower, upper: frame.node})
		}
	}
	return merr
}

// Inorder traversal to validate the rbtree properties locally.
// A red node must not have a red parent or a red child and the
// root must be black.
func RedViolationValidate[T any](tree RBTree[T]) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	var merr error
	if isRed[T](aux) {
		merr = multierr.Append(merr, fmt.Errorf("%w: red root %v", ErrRedViolation, aux.Val()))
	}

	stack := make([]RBNode[T], 0, 64)
	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; isRed[T](aux) {
			if isRed[T](aux.Parent()) || isRed[T](aux.Left()) || isRed[T](aux.Right()) {
				merr = multierr.Append(merr, fmt.Errorf("%w: red node %v", ErrRedViolation, aux.Val()))
			}
		}

		stack = stack[:size-1]
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return merr
}

// BFS traversal to load all the nodes owning a NIL child.
func bfsLeaves[T any](tree RBTree[T]) []RBNode[T] {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	leaves := make([]RBNode[T], 0, tree.Len()>>1+1)
	queue := make([]RBNode[T], 0, tree.Len()>>1+1)
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		queue = queue[1:]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

2-3-4 tree like:

	       <8> --- [13] --- <15>
		  /  \             /    \
		 /    \           /      \
	  <1>-[6][11]      [14] <16>-[17]

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[T any](tree RBTree[T]) error {
	leaves := bfsLeaves[T](tree)
	if leaves == nil {
		return nil
	}

	var merr error
	depth := blackDepth[T](leaves[0])
	for i := 1; i < len(leaves); i++ {
		if d := blackDepth[T](leaves[i]); d != depth {
			merr = multierr.Append(merr, fmt.Errorf("%w: black depth %d below %v, expected %d",
				ErrBlackViolation, d, leaves[i].Val(), depth))
		}
	}
	return merr
}

// BlackHeight is the number of black nodes on every path from the root
// (included) to a NIL leaf (excluded).
func BlackHeight[T any](tree RBTree[T]) (int, error) {
	if err := BlackViolationValidate[T](tree); err != nil {
		return 0, err
	}
	leaves := bfsLeaves[T](tree)
	if len(leaves) == 0 {
		return 0, nil
	}
	return blackDepth[T](leaves[0]), nil
}

// Height is the number of nodes on the longest path from the root.
func Height[T any](tree RBTree[T]) int {
	root := tree.Root()
	if root == nil {
		return 0
	}
	height := 0
	level := []RBNode[T]{root}
	for len(level) > 0 {
		height++
		next := make([]RBNode[T], 0, len(level)<<1)
		for _, node := range level {
			if l := node.Left(); l != nil {
				next = append(next, l)
			}
			if r := node.Right(); r != nil {
				next = append(next, r)
			}
		}
		level = next
	}
	return height
}

// linkValidate checks the back references and the node count.
func (tree *rbTree[T]) linkValidate() error {
	if tree.root == nilID {
		if tree.count != 0 {
			return fmt.Errorf("%w: empty tree counts %d", ErrStructureViolation, tree.count)
		}
		return nil
	}
	if tree.parentOf(tree.root) != nilID {
		return fmt.Errorf("%w: root has a parent", ErrStructureViolation)
	}

	var merr error
	reachable := int64(0)
	stack := []nodeID{tree.root}
	for size := len(stack); size > 0; size = len(stack) {
		id := stack[size-1]
		stack = stack[:size-1]
		reachable++
		for _, c := range [2]nodeID{tree.leftOf(id), tree.rightOf(id)} {
			if c == nilID {
				continue
			}
			if tree.parentOf(c) != id {
				merr = multierr.Append(merr, fmt.Errorf("%w: broken back reference of %v",
					ErrStructureViolation, tree.arena.nodes[c].val))
				continue
			}
			stack = append(stack, c)
		}
	}
	if reachable != tree.count {
		merr = multierr.Append(merr, fmt.Errorf("%w: %d reachable nodes, %d counted",
			ErrStructureViolation, reachable, tree.count))
	}
	return merr
}

func (tree *rbTree[T]) validateAll() error {
	return multierr.Combine(
		ValidateOrder[T](tree, tree.cmp),
		RedViolationValidate[T](tree),
		BlackViolationValidate[T](tree),
		tree.linkValidate(),
	)
}
