package tree

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree/walk"
	"github.com/benz9527/xtree/xlog"
)

var (
	ErrDuplicateKey     = errors.New("[rbtree] duplicate key")
	ErrNotFound         = errors.New("[rbtree] key not found")
	ErrInvalidOperation = errors.New("[rbtree] invalid operation")
)

var _ RBTree[int] = (*rbTree[int])(nil)

type rbTree[T any] struct {
	arena           *rbArena[T]
	root            nodeID
	count           int64
	version         uint64
	cmp             infra.Comparator[T]
	logger          xlog.XLogger
	stats           *rbTreeStats
	statsName       string
	capacity        int
	isDesc          bool
	isRmBorrowPred  bool
	isDebugValidate bool
}

func (tree *rbTree[T]) Len() int64 {
	return tree.count
}

func (tree *rbTree[T]) Version() uint64 {
	return tree.version
}

func (tree *rbTree[T]) Root() RBNode[T] {
	return tree.handle(tree.root)
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.
// So the shortest path nodes are black nodes. Otherwise,
// the path must contain red node.
// The longest path nodes' number is 2 * shortest path nodes' number.

// search returns the node equal to val. If there is none, it returns
// nilID, the last visited node and the side of it where val belongs.
func (tree *rbTree[T]) search(val T) (found, parent nodeID, dir RBDirection) {
	dir = Root
	for aux := tree.root; aux != nilID; {
		res := tree.cmp(val, tree.arena.nodes[aux].val)
		if /* equal */ res == 0 {
			return aux, nilID, Root
		}
		parent = aux
		if /* less */ res < 0 {
			dir, aux = Left, tree.leftOf(aux)
		} else /* greater */ {
			dir, aux = Right, tree.rightOf(aux)
		}
	}
	return nilID, parent, dir
}

// i1: Empty rbtree, insert directly, but root node is painted to black.
// i2: Attach a red leaf under the last visited node and rebalance.
func (tree *rbTree[T]) attach(val T, parent nodeID, dir RBDirection) nodeID {
	var z nodeID
	if /* i1 */ parent == nilID {
		z = tree.arena.alloc(val, Black)
		tree.link(nilID, z, Root)
	} else /* i2 */ {
		z = tree.arena.alloc(val, Red)
		tree.link(parent, z, dir)
	}
	tree.count++
	tree.version++
	tree.stats.IncreaseInsertCount()
	if parent != nilID {
		tree.insertRebalance(z)
	}
	return z
}

func (tree *rbTree[T]) Add(val T) (RBNode[T], error) {
	x, p, dir := tree.search(val)
	if x != nilID {
		return nil, infra.WrapErrorStackWithMessage(ErrDuplicateKey, fmt.Sprintf("add %v", val))
	}
	z := tree.attach(val, p, dir)
	tree.audit("add")
	return tree.handle(z), nil
}

// Insert stores val. An equal value already in the tree is replaced in
// place, unless ifNotPresent is true, then ErrDuplicateKey is returned.
// It suits the values ordered by a part of them only, like a key.
func (tree *rbTree[T]) Insert(val T, ifNotPresent ...bool) error {
	x, p, dir := tree.search(val)
	if x != nilID {
		if /* replace disabled */ len(ifNotPresent) > 0 && ifNotPresent[0] {
			return infra.WrapErrorStackWithMessage(ErrDuplicateKey, fmt.Sprintf("insert %v", val))
		}
		tree.arena.nodes[x].val = val
		return nil
	}
	tree.attach(val, p, dir)
	tree.audit("insert")
	return nil
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

im1: Current node X's parent P is black, nothing to fix.

im2: Current node X is the root, repaint it into black.

im3: If both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Continue to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im4: The parent P is red but the uncle U is black. (red-violation)
X is opposite direction to P. Rotate P to opposite direction.
After rotation it is still red-violation. Here must enter im5 to fix.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im5: Handle im4 scenario, current node is the same direction as parent.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (tree *rbTree[T]) insertRebalance(x nodeID) {
	for /* im1 */ x != tree.root && tree.isRed(tree.parentOf(x)) {
		p := tree.parentOf(x)
		gp := tree.parentOf(p) // A red parent is never the root.
		if gp == nilID {
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] insert violate, red root")
		}

		if u := tree.siblingOf(p); /* im3 */ tree.isRed(u) {
			tree.paint(p, Black)
			tree.paint(u, Black)
			tree.paint(gp, Red)
			x = gp
			continue
		}

		pDir := tree.directionOf(p)
		if /* im4 */ tree.directionOf(x) != pDir {
			tree.rotate(p, pDir)
			x, p = p, x // enter im5 to fix
		}

		/* im5 */
		tree.paint(p, Black)
		tree.paint(gp, Red)
		tree.rotate(gp, pDir.opposite())
		break
	}
	/* im2 */
	tree.paint(tree.root, Black)
}

func (tree *rbTree[T]) Contains(val T) bool {
	x, _, _ := tree.search(val)
	return x != nilID
}

func (tree *rbTree[T]) Find(val T) RBNode[T] {
	x, _, _ := tree.search(val)
	return tree.handle(x)
}

func (tree *rbTree[T]) extreme(dir RBDirection) (T, error) {
	if tree.root == nilID {
		var zero T
		return zero, infra.WrapErrorStackWithMessage(ErrInvalidOperation, "empty tree has no "+dir.String()+" extreme")
	}
	return tree.arena.nodes[tree.extremeOf(tree.root, dir)].val, nil
}

func (tree *rbTree[T]) Min() (T, error) {
	return tree.extreme(Left)
}

func (tree *rbTree[T]) Max() (T, error) {
	return tree.extreme(Right)
}

// Inorder traversal to implement the DFS.
func (tree *rbTree[T]) Foreach(action func(idx int64, color RBColor, val T) bool) {
	aux := tree.root
	if tree.count <= 0 || aux == nilID || action == nil {
		return
	}

	stack := make([]nodeID, 0, 64)
	for ; aux != nilID; aux = tree.leftOf(aux) {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		rec := &tree.arena.nodes[aux]
		if !action(idx, rec.color, rec.val) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = tree.rightOf(aux); aux != nilID; aux = tree.leftOf(aux) {
			stack = append(stack, aux)
		}
	}
}

// Clear removes all the values but keeps the node storage for reuse.
func (tree *rbTree[T]) Clear() {
	size := tree.count
	tree.arena.reset()
	tree.root = nilID
	tree.count = 0
	tree.version++
	tree.stats.RecordLen(0)
	tree.logger.Debug("[rbtree] cleared", zap.Int64("len", size))
}

// Release removes all the values and gives the node storage back.
func (tree *rbTree[T]) Release() {
	size := tree.count
	tree.arena.drop()
	tree.root = nilID
	tree.count = 0
	tree.version++
	tree.stats.RecordLen(0)
	tree.logger.Debug("[rbtree] released", zap.Int64("len", size))
}

func (tree *rbTree[T]) Validate() bool {
	return ValidateOrder[T](tree, tree.cmp) == nil
}

func (tree *rbTree[T]) IsBalanced() bool {
	return RedViolationValidate[T](tree) == nil
}

// audit runs the full validation after a mutation in debug mode.
func (tree *rbTree[T]) audit(op string) {
	if !tree.isDebugValidate {
		return
	}
	if err := tree.validateAll(); err != nil {
		tree.logger.Warn("[rbtree] invariant violation",
			zap.String("op", op),
			zap.Int64("len", tree.count),
			zap.Error(err),
		)
	}
}

var _ walk.Source[RBNode[int]] = rbSource[int]{}

// rbSource exposes the tree shape to the walkers.
type rbSource[T any] struct {
	tree *rbTree[T]
}

func (src rbSource[T]) Root() (RBNode[T], bool) {
	root := src.tree.Root()
	return root, root != nil
}

func (src rbSource[T]) Left(node RBNode[T]) (RBNode[T], bool) {
	if node == nil {
		return nil, false
	}
	l := node.Left()
	return l, l != nil
}

func (src rbSource[T]) Right(node RBNode[T]) (RBNode[T], bool) {
	if node == nil {
		return nil, false
	}
	r := node.Right()
	return r, r != nil
}

func (src rbSource[T]) Version() uint64 {
	return src.tree.version
}

func (tree *rbTree[T]) Source() walk.Source[RBNode[T]] {
	return rbSource[T]{tree: tree}
}

func newRBTree[T any](cmp infra.Comparator[T], opts ...RBTreeOpt[T]) *rbTree[T] {
	if cmp == nil {
		panic( /* debug assertion */ "[rbtree] nil comparator")
	}
	tree := &rbTree[T]{
		root:           nilID,
		isDesc:         false,
		isRmBorrowPred: false,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o(tree)
	}

	tree.cmp = cmp
	if tree.isDesc {
		tree.cmp = func(i, j T) int64 {
			return cmp(j, i)
		}
	}
	if tree.logger == nil {
		tree.logger = xlog.NewNopXLogger()
	}
	tree.arena = newRBArena[T](tree.capacity)
	if len(tree.statsName) > 0 {
		tree.stats = newRBTreeStats(tree.statsName)
	}
	return tree
}

// NewRBTree orders the values by the builtin operators.
func NewRBTree[T infra.OrderedKey](opts ...RBTreeOpt[T]) RBTree[T] {
	return newRBTree[T](infra.OrderedKeyComparator[T](false), opts...)
}

// NewRBTreeFunc orders the values by cmp, which has to be a strict
// total order.
func NewRBTreeFunc[T any](cmp infra.Comparator[T], opts ...RBTreeOpt[T]) RBTree[T] {
	return newRBTree[T](cmp, opts...)
}
