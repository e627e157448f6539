package tree

import (
	"github.com/benz9527/xtree/xlog"
)

type RBTreeOpt[T any] func(*rbTree[T])

// WithRBTreeDesc reverses the order of the comparator.
func WithRBTreeDesc[T any]() RBTreeOpt[T] {
	return func(tree *rbTree[T]) {
		tree.isDesc = true
	}
}

// WithRBTreeRemoveBorrowPred removes a node with two children by its
// predecessor instead of its successor.
func WithRBTreeRemoveBorrowPred[T any]() RBTreeOpt[T] {
	return func(tree *rbTree[T]) {
		tree.isRmBorrowPred = true
	}
}

// WithRBTreeCapacity preallocates the node storage.
func WithRBTreeCapacity[T any](capacity int) RBTreeOpt[T] {
	return func(tree *rbTree[T]) {
		if capacity > 0 {
			tree.capacity = capacity
		}
	}
}

func WithRBTreeLogger[T any](logger xlog.XLogger) RBTreeOpt[T] {
	return func(tree *rbTree[T]) {
		tree.logger = logger
	}
}

// WithRBTreeDebugValidate audits all the invariants after every
// mutation and logs the violations. It costs O(n) per mutation.
func WithRBTreeDebugValidate[T any]() RBTreeOpt[T] {
	return func(tree *rbTree[T]) {
		tree.isDebugValidate = true
	}
}

// WithRBTreeStats publishes the tree metrics under the meter
// "xtree/rbtree/<name>".
func WithRBTreeStats[T any](name string) RBTreeOpt[T] {
	return func(tree *rbTree[T]) {
		tree.statsName = name
	}
}
