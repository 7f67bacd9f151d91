package ssf

// list.go implements the intrusive doubly-linked list substrate described
// in spec §4.2. Unlike container/list, the link fields live inside the
// element itself (listNode, embedded by value) rather than in a wrapper
// node allocated by the container. This mirrors _struct/ssfll.c's
// SSFLLItem_t: next, prev, and a back-pointer to the owning list, used
// to detect double-insertion and foreign-list removal.
//
// A list never allocates; every item it links is owned and allocated by
// something else (typically a Pool). The list only ever manipulates
// pointers.

// listPosition selects where Put inserts or Get removes.
type listPosition int

const (
	// PositionHead is the head of the list.
	PositionHead listPosition = iota
	// PositionTail is the tail of the list.
	PositionTail
	// PositionAtItem inserts after, or removes, a specific reference item.
	PositionAtItem
)

// listNode is the link header embedded in every list-linkable element.
// Its zero value is a valid, unlinked node.
type listNode struct {
	next, prev *listNode
	owner      *list
	// self points back to the enclosing element so list traversal can
	// hand back typed items without reflection. Set once by newListNode.
	self any
}

func newListNode(self any) listNode {
	return listNode{self: self}
}

// linked reports whether the node is currently a member of any list.
func (n *listNode) linked() bool {
	return n.owner != nil
}

// list is a capacity-bounded doubly-linked list of listNode-embedding
// elements. The zero value is not ready for use; call initList.
type list struct {
	head, tail *listNode
	items      uint32
	size       uint32
	magic      uint32
}

const listInitMagic = 0x4c4c4c4c // "LLLL"

// initList prepares l to hold up to size items. size == 0 means
// unbounded (used by the pool's debug "world" list, which tracks every
// pool block).
func initList(l *list, size uint32) {
	require(l.magic != listInitMagic, "list already initialized")
	*l = list{size: size, magic: listInitMagic}
}

func (l *list) requireInit() {
	require(l.magic == listInitMagic, "list not initialized")
}

func (l *list) IsEmpty() bool {
	l.requireInit()
	return l.items == 0
}

func (l *list) IsFull() bool {
	l.requireInit()
	return l.size != 0 && l.items >= l.size
}

func (l *list) Capacity() uint32 {
	l.requireInit()
	return l.size
}

func (l *list) Len() uint32 {
	l.requireInit()
	return l.items
}

func (l *list) Unused() uint32 {
	l.requireInit()
	if l.size == 0 {
		return 0
	}
	return l.size - l.items
}

func (l *list) Head() *listNode {
	l.requireInit()
	return l.head
}

func (l *list) Tail() *listNode {
	l.requireInit()
	return l.tail
}

func (n *listNode) Next() *listNode { return n.next }
func (n *listNode) Prev() *listNode { return n.prev }

// Put inserts item at position, relative to ref when position is
// PositionAtItem. A nil ref with PositionAtItem means "at head", matching
// spec §4.2. Aborts (precondition violation) if the list is full, the
// item is already a member of some list, or ref does not belong to l.
func (l *list) Put(item *listNode, position listPosition, ref *listNode) {
	l.requireInit()
	require(item != nil, "list: put nil item")
	require(!item.linked(), "list: item already belongs to a list")
	require(!l.IsFull(), "list: put on full list")

	switch position {
	case PositionHead:
		l.putHead(item)
	case PositionTail:
		l.putTail(item)
	case PositionAtItem:
		if ref == nil {
			l.putHead(item)
		} else {
			require(ref.owner == l, "list: ref item not owned by this list")
			l.putAfter(item, ref)
		}
	default:
		require(false, "list: invalid position")
	}

	item.owner = l
	l.items++
}

func (l *list) putHead(item *listNode) {
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
}

func (l *list) putTail(item *listNode) {
	item.next = nil
	item.prev = l.tail
	if l.tail != nil {
		l.tail.next = item
	}
	l.tail = item
	if l.head == nil {
		l.head = item
	}
}

func (l *list) putAfter(item, ref *listNode) {
	item.prev = ref
	item.next = ref.next
	if ref.next != nil {
		ref.next.prev = item
	} else {
		l.tail = item
	}
	ref.next = item
}

// Get removes and returns an item. For PositionHead/PositionTail it
// removes the corresponding end and reports ok=false on an empty list
// (a benign condition, not an abort, per spec §7). For PositionAtItem,
// ref must be non-nil and a member of l; removing it always succeeds.
func (l *list) Get(position listPosition, ref *listNode) (item *listNode, ok bool) {
	l.requireInit()

	switch position {
	case PositionHead:
		if l.head == nil {
			return nil, false
		}
		item = l.head
	case PositionTail:
		if l.tail == nil {
			return nil, false
		}
		item = l.tail
	case PositionAtItem:
		require(ref != nil, "list: get at-item requires a reference")
		require(ref.owner == l, "list: item not owned by this list")
		item = ref
	default:
		require(false, "list: invalid position")
	}

	l.unlink(item)
	return item, true
}

// Remove detaches item from l. Aborts if item does not belong to l.
func (l *list) Remove(item *listNode) {
	l.requireInit()
	require(item != nil, "list: remove nil item")
	require(item.owner == l, "list: item not owned by this list")
	l.unlink(item)
}

func (l *list) unlink(item *listNode) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.next = nil
	item.prev = nil
	item.owner = nil
	l.items--
}

// Chaining façades named per spec §4.2: the list is strictly FIFO only
// when producers push at head and consumers pop at tail.
func (l *list) StackPush(item *listNode)             { l.Put(item, PositionHead, nil) }
func (l *list) StackPop() (*listNode, bool)           { return l.Get(PositionHead, nil) }
func (l *list) FIFOPush(item *listNode)               { l.Put(item, PositionHead, nil) }
func (l *list) FIFOPop() (*listNode, bool)            { return l.Get(PositionTail, nil) }
