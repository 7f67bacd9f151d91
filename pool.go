package ssf

// pool.go implements the fixed-block memory pool of spec §4.1, grounded
// directly on _examples/original_source/ssfmpool.c: blocks are threaded
// onto a free list at construction, Acquire pops one and stamps the
// caller's owner tag into the trailing canary, Release verifies the
// canary before pushing the slot back.
//
// Where the C original returns a raw pointer into block memory and
// relies on pointer arithmetic to recover the slot header on Release,
// this implementation follows the handle-based alternative spec §9's
// Design Notes call out explicitly: Acquire returns a *Block handle that
// carries its own back-reference, so Release never has to guess where
// a slice came from.

import "fmt"

// canaryPrefix is the fixed 3-byte pattern stored in every slot's canary
// field, which sits beside the slot's payload slice rather than inside
// it. The 4th canary byte records the owner tag from
// the most recent Acquire, for post-mortem debugging (spec §4.1).
var canaryPrefix = [3]byte{0x12, 0x34, 0x56}

type poolSlot struct {
	availNode listNode
	payload   []byte
	canary    [4]byte
}

// poolWorldEntry is a permanent catalog entry used only when pool_debug
// is enabled (spec §6). Unlike availNode, a world entry never leaves the
// world list — it exists purely so DebugOutstanding can enumerate every
// slot regardless of whether it is currently on the free list.
type poolWorldEntry struct {
	node listNode
	slot *poolSlot
}

// Block is a handle to an acquired pool slot. The zero value is not a
// valid Block; only Pool.Acquire constructs one.
type Block struct {
	// Data is the slot's payload region, sized to the pool's block size.
	// Use Data[:n] for payloads smaller than the block size.
	Data []byte

	pool *Pool
	slot *poolSlot
}

// Pool is a fixed-capacity allocator of same-sized slots with O(1)
// Acquire/Release and overrun-canary detection (spec §4.1).
type Pool struct {
	avail list
	world list
	debug bool

	blocks    uint32
	blockSize uint32
	slots     []poolSlot

	magic uint32
}

const poolInitMagic = 0x43130817

// NewPool constructs a pool of blocks slots, each blockSize bytes of
// usable payload. debug enables the pool_debug leak-diagnosis tracking
// of spec §6. Aborts if blocks or blockSize is zero.
func NewPool(blocks, blockSize uint32, debug bool) *Pool {
	require(blocks > 0, "pool: blocks must be > 0")
	require(blockSize > 0, "pool: blockSize must be > 0")

	p := &Pool{
		blocks:    blocks,
		blockSize: blockSize,
		slots:     make([]poolSlot, blocks),
		debug:     debug,
		magic:     poolInitMagic,
	}

	initList(&p.avail, blocks)
	if debug {
		initList(&p.world, 0)
	}

	for i := range p.slots {
		s := &p.slots[i]
		s.payload = make([]byte, blockSize)
		s.canary[0], s.canary[1], s.canary[2] = canaryPrefix[0], canaryPrefix[1], canaryPrefix[2]
		s.availNode = newListNode(s)
		p.avail.FIFOPush(&s.availNode)

		if debug {
			entry := &poolWorldEntry{slot: s}
			entry.node = newListNode(entry)
			p.world.Put(&entry.node, PositionHead, nil)
		}
	}

	logf(LevelDebug, "pool", "init blocks=%d blockSize=%d debug=%v", blocks, blockSize, debug)
	return p
}

func (p *Pool) requireInit() {
	require(p.magic == poolInitMagic, "pool: not initialized")
}

// Acquire pops a slot from the free list and stamps ownerTag into its
// canary. Aborts if the pool is empty or requestedSize exceeds the
// pool's block size.
func (p *Pool) Acquire(requestedSize uint32, ownerTag uint8) *Block {
	p.requireInit()
	require(requestedSize <= p.blockSize, "pool: requested size exceeds block size")

	node, ok := p.avail.FIFOPop()
	require(ok, "pool: acquire on empty pool")

	s := node.self.(*poolSlot)
	require(s.canary[0] == canaryPrefix[0] && s.canary[1] == canaryPrefix[1] && s.canary[2] == canaryPrefix[2],
		"pool: canary corrupted before acquire")
	s.canary[3] = ownerTag

	return &Block{Data: s.payload, pool: p, slot: s}
}

// Release verifies the block's canary and returns its slot to the free
// list. Aborts on a nil block, a canary mismatch, or a block belonging
// to a different pool.
func (p *Pool) Release(b *Block) {
	p.requireInit()
	require(b != nil, "pool: release of nil block")
	require(b.pool == p, "pool: release of block from a different pool")

	s := b.slot
	require(s.canary[0] == canaryPrefix[0] && s.canary[1] == canaryPrefix[1] && s.canary[2] == canaryPrefix[2],
		"pool: canary mismatch on release")

	p.avail.FIFOPush(&s.availNode)
	b.pool = nil
	b.slot = nil
	b.Data = nil
}

func (p *Pool) BlockSize() uint32 { p.requireInit(); return p.blockSize }
func (p *Pool) Capacity() uint32  { p.requireInit(); return p.blocks }
func (p *Pool) FreeCount() uint32 { p.requireInit(); return p.avail.Len() }
func (p *Pool) IsEmpty() bool     { p.requireInit(); return p.avail.IsEmpty() }
func (p *Pool) IsFull() bool      { p.requireInit(); return p.avail.Len() == p.blocks }

// DebugOutstanding returns the owner tags of every slot not currently on
// the free list, i.e. every block a caller has acquired but not yet
// released. Aborts if the pool was not constructed with debug enabled.
func (p *Pool) DebugOutstanding() []uint8 {
	p.requireInit()
	require(p.debug, "pool: DebugOutstanding requires WithPoolDebug/debug=true")

	var tags []uint8
	for n := p.world.Head(); n != nil; n = n.Next() {
		entry := n.self.(*poolWorldEntry)
		if !entry.slot.availNode.linked() {
			tags = append(tags, entry.slot.canary[3])
		}
	}
	return tags
}

// Deinit requires the pool to be full (every slot released) and releases
// its backing storage. Aborts if blocks are still outstanding.
func (p *Pool) Deinit() {
	p.requireInit()
	require(p.IsFull(), fmt.Sprintf("pool: deinit with %d block(s) still outstanding", p.blocks-p.FreeCount()))
	p.slots = nil
	p.magic = 0
}
