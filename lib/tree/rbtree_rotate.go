package tree

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *rbTree[T]) leftRotate(x nodeID) {
	if x == nilID || tree.rightOf(x) == nilID {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] left rotate node x is nil or x.right is nil")
	}

	p, y, dir := tree.parentOf(x), tree.rightOf(x), tree.directionOf(x)
	tree.link(x, tree.leftOf(y), Right)
	tree.link(p, y, dir)
	tree.link(y, x, Left)

	tree.version++
	tree.stats.IncreaseRotateCount()
}

/*
		 |                         |
		 X                         S
		/ \     rightRotate(X)    / \
	   S   R    ============>   Sc   X
	  / \                           / \
	Sc   Sd                        Sd  R
*/
func (tree *rbTree[T]) rightRotate(x nodeID) {
	if x == nilID || tree.leftOf(x) == nilID {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] right rotate node x is nil or x.left is nil")
	}

	p, y, dir := tree.parentOf(x), tree.leftOf(x), tree.directionOf(x)
	tree.link(x, tree.rightOf(y), Left)
	tree.link(p, y, dir)
	tree.link(y, x, Right)

	tree.version++
	tree.stats.IncreaseRotateCount()
}

// rotate moves x down to its dir side.
func (tree *rbTree[T]) rotate(x nodeID, dir RBDirection) {
	switch dir {
	case Left:
		tree.leftRotate(x)
	case Right:
		tree.rightRotate(x)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown rotate direction")
	}
}
