package walk

import (
	"errors"

	"github.com/benz9527/xtree/lib/infra"
)

//go:generate stringer -type=Order,Flow -output=walk_string.go
type Order uint8

const (
	PreOrder Order = iota
	InOrder
	PostOrder
	LevelOrder
)

type Flow uint8

const (
	LeftToRight Flow = iota
	RightToLeft
)

var (
	ErrConcurrentModification = errors.New("[walk] tree modified during the walk")
	ErrArgumentOutOfRange     = errors.New("[walk] argument out of range")
)

// Source exposes the shape of a binary tree. The bool results report
// whether the node exists. Version has to change on every structural
// mutation of the tree.
type Source[N any] interface {
	Root() (N, bool)
	Left(node N) (N, bool)
	Right(node N) (N, bool)
	Version() uint64
}

// Visitor stops the walk by returning false.
type Visitor[N any] func(node N) bool

type walker[N any] struct {
	src     Source[N]
	flow    Flow
	version uint64
}

func newWalker[N any](src Source[N], flow Flow) (*walker[N], error) {
	if flow != LeftToRight && flow != RightToLeft {
		return nil, infra.WrapErrorStackWithMessage(ErrArgumentOutOfRange, "unknown flow "+flow.String())
	}
	return &walker[N]{
		src:     src,
		flow:    flow,
		version: src.Version(),
	}, nil
}

// first is the child visited first in the flow.
func (w *walker[N]) first(node N) (N, bool) {
	if w.flow == RightToLeft {
		return w.src.Right(node)
	}
	return w.src.Left(node)
}

func (w *walker[N]) second(node N) (N, bool) {
	if w.flow == RightToLeft {
		return w.src.Left(node)
	}
	return w.src.Right(node)
}

func (w *walker[N]) check() error {
	if w.src.Version() != w.version {
		return infra.WrapErrorStack(ErrConcurrentModification)
	}
	return nil
}

func (w *walker[N]) visit(visit Visitor[N], node N) (bool, error) {
	goOn := visit(node)
	if err := w.check(); err != nil {
		return false, err
	}
	return goOn, nil
}

func (w *walker[N]) preOrder(visit Visitor[N]) error {
	root, ok := w.src.Root()
	if !ok {
		return nil
	}
	stack := []N{root}
	for size := len(stack); size > 0; size = len(stack) {
		node := stack[size-1]
		stack = stack[:size-1]
		if goOn, err := w.visit(visit, node); err != nil || !goOn {
			return err
		}
		if c, ok := w.second(node); ok {
			stack = append(stack, c)
		}
		if c, ok := w.first(node); ok {
			stack = append(stack, c)
		}
	}
	return nil
}

func (w *walker[N]) inOrder(visit Visitor[N]) error {
	node, ok := w.src.Root()
	stack := make([]N, 0, 32)
	for ; ok; node, ok = w.first(node) {
		stack = append(stack, node)
	}
	for size := len(stack); size > 0; size = len(stack) {
		node = stack[size-1]
		stack = stack[:size-1]
		if goOn, err := w.visit(visit, node); err != nil || !goOn {
			return err
		}
		for node, ok = w.second(node); ok; node, ok = w.first(node) {
			stack = append(stack, node)
		}
	}
	return nil
}

type postFrame[N any] struct {
	node     N
	expanded bool
}

func (w *walker[N]) postOrder(visit Visitor[N]) error {
	root, ok := w.src.Root()
	if !ok {
		return nil
	}
	stack := []postFrame[N]{{node: root}}
	for size := len(stack); size > 0; size = len(stack) {
		frame := stack[size-1]
		stack = stack[:size-1]
		if frame.expanded {
			if goOn, err := w.visit(visit, frame.node); err != nil || !goOn {
				return err
			}
			continue
		}
		stack = append(stack, postFrame[N]{node: frame.node, expanded: true})
		if c, ok := w.second(frame.node); ok {
			stack = append(stack, postFrame[N]{node: c})
		}
		if c, ok := w.first(frame.node); ok {
			stack = append(stack, postFrame[N]{node: c})
		}
	}
	return nil
}

// levels hands over the nodes level by level, fn returns false to stop.
func (w *walker[N]) levels(fn func(level int, nodes []N) (bool, error)) error {
	root, ok := w.src.Root()
	if !ok {
		return nil
	}
	level := []N{root}
	for depth := 0; len(level) > 0; depth++ {
		if goOn, err := fn(depth, level); err != nil || !goOn {
			return err
		}
		if err := w.check(); err != nil {
			return err
		}
		next := make([]N, 0, len(level)<<1)
		for _, node := range level {
			if c, ok := w.first(node); ok {
				next = append(next, c)
			}
			if c, ok := w.second(node); ok {
				next = append(next, c)
			}
		}
		level = next
	}
	return nil
}

func (w *walker[N]) levelOrder(visit Visitor[N]) error {
	return w.levels(func(_ int, nodes []N) (bool, error) {
		for _, node := range nodes {
			if goOn, err := w.visit(visit, node); err != nil || !goOn {
				return false, err
			}
		}
		return true, nil
	})
}

// Walk visits the nodes of src in the order and the flow. It fails
// with ErrConcurrentModification as soon as the version of src changes.
func Walk[N any](src Source[N], order Order, flow Flow, visit Visitor[N]) error {
	if src == nil || visit == nil {
		return nil
	}
	w, err := newWalker[N](src, flow)
	if err != nil {
		return err
	}
	switch order {
	case PreOrder:
		return w.preOrder(visit)
	case InOrder:
		return w.inOrder(visit)
	case PostOrder:
		return w.postOrder(visit)
	case LevelOrder:
		return w.levelOrder(visit)
	default:
	}
	return infra.WrapErrorStackWithMessage(ErrArgumentOutOfRange, "unknown order "+order.String())
}

// Collect returns the nodes of src in the order and the flow.
func Collect[N any](src Source[N], order Order, flow Flow) ([]N, error) {
	nodes := make([]N, 0, 32)
	err := Walk[N](src, order, flow, func(node N) bool {
		nodes = append(nodes, node)
		return true
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// Levels hands over the nodes of src level by level starting from the
// root. fn owns the slice and returns false to stop.
func Levels[N any](src Source[N], flow Flow, fn func(level int, nodes []N) bool) error {
	if src == nil || fn == nil {
		return nil
	}
	w, err := newWalker[N](src, flow)
	if err != nil {
		return err
	}
	return w.levels(func(level int, nodes []N) (bool, error) {
		return fn(level, nodes), nil
	})
}

// Level returns the nodes at the depth idx, the root is at 0. A level
// below the deepest leaf is empty.
func Level[N any](src Source[N], idx int, flow Flow) ([]N, error) {
	if idx < 0 {
		return nil, infra.WrapErrorStackWithMessage(ErrArgumentOutOfRange, "negative level index")
	}
	var res []N
	err := Levels[N](src, flow, func(level int, nodes []N) bool {
		if level == idx {
			res = nodes
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
