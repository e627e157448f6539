package tree

// References:
// https://github.com/src-d/hercules/blob/master/internal/rbtree/rbtree.go
// https://github.com/google/btree/blob/master/btree_generic.go (FreeList)

type nodeID uint32

// nilID addresses the sentinel slot. It stands for every absent link,
// so a node record never holds a pointer.
const nilID nodeID = 0

type rbRecord[T any] struct {
	val    T
	parent nodeID
	left   nodeID
	right  nodeID
	gen    uint32
	color  RBColor
	inUse  bool
}

// rbArena stores the node records of a single tree in one slice.
// Released slots are recycled in LIFO order. The generation of a slot
// moves forward on every release, so a handle {id, gen} taken before
// the release no longer matches.
type rbArena[T any] struct {
	nodes   []rbRecord[T]
	free    []nodeID
	baseGen uint32
	maxGen  uint32
}

func newRBArena[T any](capacity int) *rbArena[T] {
	if capacity < 0 {
		capacity = 0
	}
	arena := &rbArena[T]{
		nodes: make([]rbRecord[T], 1, capacity+1),
	}
	arena.nodes[nilID].color = Black
	return arena
}

// alloc may grow the slice, so any *rbRecord taken before the call
// has to be fetched again.
func (arena *rbArena[T]) alloc(val T, color RBColor) nodeID {
	var id nodeID
	if n := len(arena.free); n > 0 {
		id = arena.free[n-1]
		arena.free = arena.free[:n-1]
	} else {
		if uint64(len(arena.nodes)) > uint64(^uint32(0)) {
			panic( /* debug assertion */ "[rbtree] arena exhausted")
		}
		arena.nodes = append(arena.nodes, rbRecord[T]{gen: arena.baseGen})
		id = nodeID(len(arena.nodes) - 1)
	}
	rec := &arena.nodes[id]
	rec.val = val
	rec.color = color
	rec.parent, rec.left, rec.right = nilID, nilID, nilID
	rec.inUse = true
	return id
}

func (arena *rbArena[T]) release(id nodeID) {
	if id == nilID || !arena.nodes[id].inUse {
		panic( /* debug assertion */ "[rbtree] release a free arena slot")
	}
	var zero T
	rec := &arena.nodes[id]
	rec.val = zero
	rec.parent, rec.left, rec.right = nilID, nilID, nilID
	rec.color = Black
	rec.inUse = false
	rec.gen++
	if rec.gen > arena.maxGen {
		arena.maxGen = rec.gen
	}
	arena.free = append(arena.free, id)
}

// reset releases every slot but keeps the allocated capacity.
func (arena *rbArena[T]) reset() {
	arena.free = arena.free[:0]
	for i := len(arena.nodes) - 1; i > int(nilID); i-- {
		if arena.nodes[i].inUse {
			arena.release(nodeID(i))
			continue
		}
		arena.free = append(arena.free, nodeID(i))
	}
}

// drop gives the storage back to the runtime. Fresh slots start from a
// generation no earlier handle has seen.
func (arena *rbArena[T]) drop() {
	arena.baseGen = arena.maxGen + 1
	arena.maxGen = arena.baseGen
	clear(arena.nodes)
	arena.nodes = make([]rbRecord[T], 1)
	arena.nodes[nilID].color = Black
	arena.free = nil
}

func (arena *rbArena[T]) live(id nodeID, gen uint32) bool {
	return id != nilID &&
		int(id) < len(arena.nodes) &&
		arena.nodes[id].inUse &&
		arena.nodes[id].gen == gen
}
