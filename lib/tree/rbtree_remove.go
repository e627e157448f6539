package tree

import (
	"fmt"

	"github.com/benz9527/xtree/lib/infra"
)

/*
r1: Only a root node, remove directly.

r2: Current node X has left and right node.
Find node X's succ (or pred) S to be removed instead.
X and S exchange their positions and colors, the values stay in
their own nodes, so the handles of the other values are still valid.
After the exchange X has no more than one child.

Borrow succ:

	  |                    |
	  X                    S
	 / \                  / \
	L  ..   swap(X, S)   L  ..
		|   =========>       |
		P                    P
	   / \                  / \
	  S  ..                X  ..

r3: (1) Current node X is a red leaf node, remove directly.

r3: (2) Current node X is a black leaf node, we have to rebalance before
unlink it, then its parent and sibling are still reachable.
(black-violation)

r4: Current node X is not a leaf node but contains a not nil child node.
The child node must be a red node. (See conclusion. Otherwise, black-violation)
Splice the child into X's slot and repaint it into black.
*/
func (tree *rbTree[T]) removeNode(z nodeID) T {
	val := tree.arena.nodes[z].val
	if /* r2 */ tree.leftOf(z) != nilID && tree.rightOf(z) != nilID {
		tree.swapWithNeighbor(z)
	}

	replace := tree.leftOf(z)
	if replace == nilID {
		replace = tree.rightOf(z)
	}

	p, dir := tree.parentOf(z), tree.directionOf(z)
	switch {
	case /* r4 */ replace != nilID:
		if !tree.hasOneChild(z) {
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] remove a node with two children, violate (r4)")
		}
		doubleBlack := tree.isBlack(z) && tree.isBlack(replace)
		tree.link(p, replace, dir)
		if doubleBlack {
			tree.removeRebalance(replace)
		} else if tree.isBlack(z) {
			tree.paint(replace, Black)
		}
	case /* r1 */ p == nilID:
		tree.link(nilID, nilID, Root)
	default: // r3
		if /* r3 (2) */ tree.isBlack(z) {
			tree.removeRebalance(z)
		}
		tree.link(tree.parentOf(z), nilID, tree.directionOf(z))
	}

	tree.arena.release(z)
	tree.count--
	tree.version++
	tree.stats.IncreaseRemoveCount()
	return val
}

// swapWithNeighbor exchanges z with its in-order neighbor y. y is the
// extreme node of z's subtree on the borrow side, so it has no child
// towards z.
func (tree *rbTree[T]) swapWithNeighbor(z nodeID) {
	d := Right
	if tree.isRmBorrowPred {
		d = Left
	}
	o := d.opposite()
	y := tree.extremeOf(tree.childOf(z, d), o)
	zp, zDir, yp := tree.parentOf(z), tree.directionOf(z), tree.parentOf(y)
	zo, zd, yd := tree.childOf(z, o), tree.childOf(z, d), tree.childOf(y, d)

	tree.link(zp, y, zDir)
	tree.link(y, zo, o)
	if /* y is z's child */ y == zd {
		tree.link(y, z, d)
	} else {
		tree.link(y, zd, d)
		tree.link(yp, z, o)
	}
	tree.link(z, nilID, o)
	tree.link(z, yd, d)

	nodes := tree.arena.nodes
	nodes[z].color, nodes[y].color = nodes[y].color, nodes[z].color
	tree.version++
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

Sc is the same direction to X and it X's sibling's child node.
Sd is the opposite direction to X and it X's sibling's child node.

rm0: Current node X has no sibling. Push the black deficit up to the
parent P.

rm1: Current node X's sibling S is red, so the parent P, nephew node Sc and Sd
must be black. (Otherwise, red-violation)
(1) X is left node of P, left rotate P
(2) X is right node of P, right rotate P.
(3) repaint S into black, P into red.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [D]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: Current node X's parent P is red, the sibling S, nephew node Sc and Sd
is black.
Repaint S into red and P into black.

	  <P>             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: All of current node X's parent P, the sibling S, nephew node Sc and Sd
are black.
Unable to satisfy p3 and p4. We have to paint the S into red to satisfy
p4 locally. Then continue to handle P.

	  [P]             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm4: Current node X's sibling S is black, nephew node Sc is red and Sd
is black. Ignore X's parent P's color (red or black is okay)
Unable to satisfy p3 and p4.
(1) If X is left node of P, right rotate S.
(2) If X is right node of P, left rotate S.
(3) Repaint S into red, Sc into black
Enter into rm5 to fix.

	                        {P}                {P}
	  {P}                   / \                / \
	  / \    r-rotate(S)  [X] <Sc>   repaint  [X] [Sc]
	[X] [S]  ==========>        \    ======>       \
	    / \                     [S]                <S>
	  <Sc> [Sd]                   \                  \
	                              [Sd]               [Sd]

rm5: Current node X's sibling S is black, nephew node Sd is red.
Ignore X's parent P's color (red or black is okay)
Unable to satisfy p4 (black-violation)
(1) If X is left node of P, left rotate P.
(2) If X is right node of P, right rotate P.
(3) S takes P's color, P is repainted into black.
(4) Repaint Sd into black.

	  {P}                   [S]                {S}
	  / \    l-rotate(P)    / \     repaint    / \
	[X] [S]  ==========>  {P} <Sd>  ======>  [P] [Sd]
	    / \               / \                / \
	 [Sc] <Sd>          [X] [Sc]           [X] [Sc]
*/
func (tree *rbTree[T]) removeRebalance(x nodeID) {
	for x != tree.root && tree.isBlack(x) {
		p, dir := tree.parentOf(x), tree.directionOf(x)
		sibling := tree.childOf(p, dir.opposite())
		if /* rm0 */ sibling == nilID {
			x = p
			continue
		}

		if /* rm1 */ tree.isRed(sibling) {
			tree.paint(sibling, Black)
			tree.paint(p, Red) // ready to enter rm2
			tree.rotate(p, dir)
			if sibling = tree.childOf(p, dir.opposite()); sibling == nilID {
				x = p
				continue
			}
		}

		sc, sd := tree.childOf(sibling, dir), tree.childOf(sibling, dir.opposite())
		if tree.isBlack(sc) && tree.isBlack(sd) {
			tree.paint(sibling, Red)
			if /* rm2 */ tree.isRed(p) {
				tree.paint(p, Black)
				break
			}
			/* rm3 */
			x = p
			continue
		}

		if /* rm4 */ tree.isBlack(sd) {
			tree.paint(sc, Black)
			tree.paint(sibling, Red)
			tree.rotate(sibling, dir.opposite())
			sibling = tree.childOf(p, dir.opposite())
			sd = tree.childOf(sibling, dir.opposite())
		}

		/* rm5 */
		tree.paint(sibling, tree.colorOf(p))
		tree.paint(p, Black)
		tree.paint(sd, Black)
		tree.rotate(p, dir)
		break
	}
	// A red node that receives the deficit absorbs it.
	tree.paint(x, Black)
	tree.paint(tree.root, Black)
}

// Delete removes the value equal to val and returns the stored one.
func (tree *rbTree[T]) Delete(val T) (T, error) {
	var zero T
	if tree.count <= 0 {
		return zero, infra.WrapErrorStackWithMessage(ErrNotFound, "delete from empty tree")
	}
	z, _, _ := tree.search(val)
	if z == nilID {
		return zero, infra.WrapErrorStackWithMessage(ErrNotFound, fmt.Sprintf("delete %v", val))
	}
	removed := tree.removeNode(z)
	tree.audit("delete")
	return removed, nil
}

// Remove reports whether the value was in the tree. A missing value
// leaves the tree untouched.
func (tree *rbTree[T]) Remove(val T) bool {
	z, _, _ := tree.search(val)
	if z == nilID {
		return false
	}
	tree.removeNode(z)
	tree.audit("remove")
	return true
}

func (tree *rbTree[T]) RemoveNode(node RBNode[T]) (bool, error) {
	h, ok := node.(*rbHandle[T])
	if !ok || h == nil || h.tree != tree || !h.Valid() {
		return false, infra.WrapErrorStackWithMessage(ErrInvalidOperation, "remove a stale or foreign node")
	}
	tree.removeNode(h.id)
	tree.audit("remove node")
	return true, nil
}

func (tree *rbTree[T]) removeExtreme(dir RBDirection) (T, error) {
	if tree.root == nilID {
		var zero T
		return zero, infra.WrapErrorStackWithMessage(ErrInvalidOperation, "remove "+dir.String()+" extreme from empty tree")
	}
	val := tree.removeNode(tree.extremeOf(tree.root, dir))
	tree.audit("remove extreme")
	return val, nil
}

func (tree *rbTree[T]) RemoveMin() (T, error) {
	return tree.removeExtreme(Left)
}

func (tree *rbTree[T]) RemoveMax() (T, error) {
	return tree.removeExtreme(Right)
}
