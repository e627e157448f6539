package tree

// Record queries. They address the records by id and treat nilID as
// a black NIL leaf.

func (tree *rbTree[T]) parentOf(id nodeID) nodeID {
	return tree.arena.nodes[id].parent
}

func (tree *rbTree[T]) leftOf(id nodeID) nodeID {
	return tree.arena.nodes[id].left
}

func (tree *rbTree[T]) rightOf(id nodeID) nodeID {
	return tree.arena.nodes[id].right
}

func (tree *rbTree[T]) childOf(id nodeID, dir RBDirection) nodeID {
	switch dir {
	case Left:
		return tree.arena.nodes[id].left
	case Right:
		return tree.arena.nodes[id].right
	default:
	}
	// impossible run to here
	panic( /* debug assertion */ "[rbtree] child direction must be left or right")
}

func (tree *rbTree[T]) colorOf(id nodeID) RBColor {
	if id == nilID {
		return Black
	}
	return tree.arena.nodes[id].color
}

func (tree *rbTree[T]) isRed(id nodeID) bool {
	return id != nilID && tree.arena.nodes[id].color == Red
}

func (tree *rbTree[T]) isBlack(id nodeID) bool {
	return !tree.isRed(id)
}

func (tree *rbTree[T]) isRoot(id nodeID) bool {
	return id != nilID && tree.arena.nodes[id].parent == nilID
}

func (tree *rbTree[T]) isLeaf(id nodeID) bool {
	rec := &tree.arena.nodes[id]
	return id != nilID && rec.left == nilID && rec.right == nilID
}

func (tree *rbTree[T]) hasOneChild(id nodeID) bool {
	rec := &tree.arena.nodes[id]
	return id != nilID && (rec.left == nilID) != (rec.right == nilID)
}

func (tree *rbTree[T]) directionOf(id nodeID) RBDirection {
	if id == nilID {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] nil leaf node without direction")
	}
	p := tree.arena.nodes[id].parent
	if p == nilID {
		return Root
	}
	if tree.arena.nodes[p].left == id {
		return Left
	}
	return Right
}

func (tree *rbTree[T]) siblingOf(id nodeID) nodeID {
	switch dir := tree.directionOf(id); dir {
	case Left, Right:
		return tree.childOf(tree.parentOf(id), dir.opposite())
	default:
	}
	return nilID
}

func (tree *rbTree[T]) uncleOf(id nodeID) nodeID {
	p := tree.parentOf(id)
	if p == nilID {
		return nilID
	}
	return tree.siblingOf(p)
}

// extremeOf walks down to the last node in the dir of the subtree.
func (tree *rbTree[T]) extremeOf(id nodeID, dir RBDirection) nodeID {
	aux := id
	for ; aux != nilID && tree.childOf(aux, dir) != nilID; aux = tree.childOf(aux, dir) {
	}
	return aux
}

func (tree *rbTree[T]) minimumOf(id nodeID) nodeID {
	return tree.extremeOf(id, Left)
}

func (tree *rbTree[T]) maximumOf(id nodeID) nodeID {
	return tree.extremeOf(id, Right)
}

// neighborOf returns the in-order successor (Right) or the predecessor
// (Left) of the node.
func (tree *rbTree[T]) neighborOf(id nodeID, dir RBDirection) nodeID {
	if id == nilID {
		return nilID
	}
	if c := tree.childOf(id, dir); c != nilID {
		return tree.extremeOf(c, dir.opposite())
	}
	// Backtrack to the first ancestor reached from the other side.
	x, aux := id, tree.parentOf(id)
	for aux != nilID && x == tree.childOf(aux, dir) {
		x, aux = aux, tree.parentOf(aux)
	}
	return aux
}

func (tree *rbTree[T]) predOf(id nodeID) nodeID {
	return tree.neighborOf(id, Left)
}

func (tree *rbTree[T]) succOf(id nodeID) nodeID {
	return tree.neighborOf(id, Right)
}

// link is the only way to change the structure. It places child into
// the dir slot of parent (or into the root slot when dir is Root) and
// points the child back to the parent. The node that occupied the slot
// loses its back reference unless it has been relinked somewhere else
// already.
func (tree *rbTree[T]) link(parent, child nodeID, dir RBDirection) {
	nodes := tree.arena.nodes
	var old nodeID
	switch dir {
	case Root:
		if parent != nilID {
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] root link with a parent")
		}
		old, tree.root = tree.root, child
	case Left:
		if parent == nilID {
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] left link without parent")
		}
		old, nodes[parent].left = nodes[parent].left, child
	case Right:
		if parent == nilID {
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] right link without parent")
		}
		old, nodes[parent].right = nodes[parent].right, child
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown link direction")
	}
	if old != nilID && old != child && nodes[old].parent == parent {
		nodes[old].parent = nilID
	}
	if child != nilID {
		nodes[child].parent = parent
	}
}

// paint counts as a mutation only when the color changes.
func (tree *rbTree[T]) paint(id nodeID, color RBColor) {
	if id == nilID || tree.arena.nodes[id].color == color {
		return
	}
	tree.arena.nodes[id].color = color
	tree.version++
	tree.stats.IncreaseRecolorCount()
}

var _ RBNode[int] = (*rbHandle[int])(nil)

type rbHandle[T any] struct {
	tree *rbTree[T]
	id   nodeID
	gen  uint32
}

func (tree *rbTree[T]) handle(id nodeID) RBNode[T] {
	if id == nilID {
		return nil
	}
	return &rbHandle[T]{
		tree: tree,
		id:   id,
		gen:  tree.arena.nodes[id].gen,
	}
}

func (h *rbHandle[T]) Valid() bool {
	return h != nil && h.tree != nil && h.tree.arena.live(h.id, h.gen)
}

func (h *rbHandle[T]) Val() T {
	if !h.Valid() {
		var zero T
		return zero
	}
	return h.tree.arena.nodes[h.id].val
}

func (h *rbHandle[T]) Color() RBColor {
	if !h.Valid() {
		return Black
	}
	return h.tree.arena.nodes[h.id].color
}

func (h *rbHandle[T]) navigate(fn func(tree *rbTree[T], id nodeID) nodeID) RBNode[T] {
	if !h.Valid() {
		return nil
	}
	return h.tree.handle(fn(h.tree, h.id))
}

func (h *rbHandle[T]) Left() RBNode[T] {
	return h.navigate((*rbTree[T]).leftOf)
}

func (h *rbHandle[T]) Right() RBNode[T] {
	return h.navigate((*rbTree[T]).rightOf)
}

func (h *rbHandle[T]) Parent() RBNode[T] {
	return h.navigate((*rbTree[T]).parentOf)
}

func (h *rbHandle[T]) Sibling() RBNode[T] {
	return h.navigate((*rbTree[T]).siblingOf)
}

func (h *rbHandle[T]) Uncle() RBNode[T] {
	return h.navigate((*rbTree[T]).uncleOf)
}

// Minimum is the leftmost node of the subtree rooted at h.
func (h *rbHandle[T]) Minimum() RBNode[T] {
	return h.navigate((*rbTree[T]).minimumOf)
}

// Maximum is the rightmost node of the subtree rooted at h.
func (h *rbHandle[T]) Maximum() RBNode[T] {
	return h.navigate((*rbTree[T]).maximumOf)
}

func (h *rbHandle[T]) Pred() RBNode[T] {
	return h.navigate((*rbTree[T]).predOf)
}

func (h *rbHandle[T]) Succ() RBNode[T] {
	return h.navigate((*rbTree[T]).succOf)
}

func (h *rbHandle[T]) IsRoot() bool {
	return h.Valid() && h.tree.isRoot(h.id)
}

func (h *rbHandle[T]) IsLeaf() bool {
	return h.Valid() && h.tree.isLeaf(h.id)
}

func (h *rbHandle[T]) Direction() RBDirection {
	if !h.Valid() {
		// A removed node has no position.
		panic( /* debug assertion */ "[rbtree] stale node without direction")
	}
	return h.tree.directionOf(h.id)
}
