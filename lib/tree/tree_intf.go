package tree

import (
	"github.com/benz9527/xtree/lib/tree/walk"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

func (dir RBDirection) opposite() RBDirection {
	return -dir
}

// RBNode is a handle to a node stored in the tree. The handle becomes
// stale after its node has been removed, then all the navigations
// return nil and Valid reports false.
type RBNode[T any] interface {
	Val() T
	Color() RBColor
	Left() RBNode[T]
	Right() RBNode[T]
	Parent() RBNode[T]
	IsRoot() bool
	IsLeaf() bool
	Direction() RBDirection
	Sibling() RBNode[T]
	Uncle() RBNode[T]
	Minimum() RBNode[T]
	Maximum() RBNode[T]
	Pred() RBNode[T]
	Succ() RBNode[T]
	Valid() bool
}

// RBTree is not thread-safe. Callers sharing a tree between
// goroutines have to serialize the accesses.
type RBTree[T any] interface {
	Len() int64
	// Version changes after every structural mutation.
	Version() uint64
	Root() RBNode[T]
	Add(val T) (RBNode[T], error)
	Insert(val T, ifNotPresent ...bool) error
	Remove(val T) bool
	Delete(val T) (T, error)
	RemoveNode(node RBNode[T]) (bool, error)
	RemoveMin() (T, error)
	RemoveMax() (T, error)
	Contains(val T) bool
	Find(val T) RBNode[T]
	Min() (T, error)
	Max() (T, error)
	Clear()
	Release()
	Validate() bool
	IsBalanced() bool
	Foreach(action func(idx int64, color RBColor, val T) bool)
	Source() walk.Source[RBNode[T]]
}
