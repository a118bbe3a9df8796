// ABOUTME: Arena-backed heap registry with index-linked generation lists
// ABOUTME: Owns every object slot; supports O(1) register, unlink and relink

package gc

// listID names the generation list a slot belongs to.
type listID uint8

const (
	listNone listID = iota
	listObjects
	listStrings
	listPending
	numLists
)

func (l listID) String() string {
	switch l {
	case listObjects:
		return "objects"
	case listStrings:
		return "strings"
	case listPending:
		return "pending"
	default:
		return "none"
	}
}

// slot is one arena entry: the object header plus its payload.
type slot struct {
	gen     uint32
	tag     Tag
	mark    Mark
	list    listID
	prev    uint32
	next    uint32
	size    uint64
	payload any
}

type objList struct {
	head  uint32
	count int
	bytes uint64
}

// Heap is the object registry. Slot 0 is reserved so that index 0 can
// terminate the intrusive lists.
type Heap struct {
	slots []slot
	free  []uint32
	lists [numLists]objList
}

func newHeap() *Heap {
	return &Heap{slots: make([]slot, 1, 64)}
}

// register places payload into a fresh slot linked at the head of list.
func (hp *Heap) register(tag Tag, size uint64, payload any, list listID, mark Mark) Handle {
	var idx uint32
	if n := len(hp.free); n > 0 {
		idx = hp.free[n-1]
		hp.free = hp.free[:n-1]
	} else {
		hp.slots = append(hp.slots, slot{})
		idx = uint32(len(hp.slots) - 1)
	}
	s := &hp.slots[idx]
	if s.gen == 0 {
		s.gen = 1
	}
	s.tag = tag
	s.mark = mark
	s.size = size
	s.payload = payload
	hp.link(idx, list)
	return makeHandle(idx, s.gen)
}

// lookup returns the live slot named by h.
func (hp *Heap) lookup(h Handle) (*slot, bool) {
	idx := h.index()
	if idx == 0 || int(idx) >= len(hp.slots) {
		return nil, false
	}
	s := &hp.slots[idx]
	if s.gen != h.gen() || s.list == listNone {
		return nil, false
	}
	return s, true
}

func (hp *Heap) handleOf(idx uint32) Handle {
	return makeHandle(idx, hp.slots[idx].gen)
}

// link pushes idx onto the head of list.
func (hp *Heap) link(idx uint32, list listID) {
	s := &hp.slots[idx]
	l := &hp.lists[list]
	s.list = list
	s.prev = 0
	s.next = l.head
	if l.head != 0 {
		hp.slots[l.head].prev = idx
	}
	l.head = idx
	l.count++
	l.bytes += s.size
}

// unlink removes idx from whichever list holds it.
func (hp *Heap) unlink(idx uint32) {
	s := &hp.slots[idx]
	l := &hp.lists[s.list]
	if s.prev != 0 {
		hp.slots[s.prev].next = s.next
	} else {
		l.head = s.next
	}
	if s.next != 0 {
		hp.slots[s.next].prev = s.prev
	}
	l.count--
	l.bytes -= s.size
	s.prev, s.next = 0, 0
	s.list = listNone
}

// move transfers ownership of idx to another list.
func (hp *Heap) move(idx uint32, list listID) {
	hp.unlink(idx)
	hp.link(idx, list)
}

// release unlinks idx and returns its slot to the free list. The generation
// is bumped so outstanding handles go stale.
func (hp *Heap) release(idx uint32) uint64 {
	s := &hp.slots[idx]
	size := s.size
	if s.list != listNone {
		hp.unlink(idx)
	}
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.payload = nil
	s.mark = 0
	s.size = 0
	s.tag = 0
	hp.free = append(hp.free, idx)
	return size
}

// each calls fn for every slot on list, head first. fn must not unlink
// slots other than the one it is given.
func (hp *Heap) each(list listID, fn func(idx uint32, s *slot)) {
	for idx := hp.lists[list].head; idx != 0; {
		next := hp.slots[idx].next
		fn(idx, &hp.slots[idx])
		idx = next
	}
}

// Len returns the number of live objects across all lists.
func (hp *Heap) Len() int {
	n := 0
	for l := listObjects; l < numLists; l++ {
		n += hp.lists[l].count
	}
	return n
}
