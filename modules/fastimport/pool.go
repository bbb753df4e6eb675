package fastimport

// bufPool is a FIFO pool of line buffers. Buffers handed out by pushBack
// are appended to by the caller; slices into them remain address-stable
// until truncateBack drops the oldest entries. Recycled buffers are kept on
// a bounded free list, mirroring the teacher's modules/streamio sync.Pool
// idiom but as a private, single-threaded deque rather than a sync.Pool,
// since the parser is the pool's sole owner and never shares it across
// goroutines (see the concurrency model in SPEC_FULL.md §5).
type bufPool struct {
	live []*[]byte
	free []*[]byte
}

const (
	initLiveCapacity = 128
	initFreeCapacity = 128
	// maxBufCapacity is the largest buffer retained in the free list; the
	// pool mostly holds short directive lines, so larger ones are simply
	// not recycled.
	maxBufCapacity = 512
	maxFreeCapacity = 1024
)

func newBufPool() *bufPool {
	return &bufPool{
		live: make([]*[]byte, 0, initLiveCapacity),
		free: make([]*[]byte, 0, initFreeCapacity),
	}
}

// pushBack pushes a new empty buffer onto the pool and returns it for the
// caller to append into.
func (p *bufPool) pushBack() *[]byte {
	var buf *[]byte
	if n := len(p.free); n > 0 {
		buf = p.free[n-1]
		p.free = p.free[:n-1]
		*buf = (*buf)[:0]
	} else {
		b := make([]byte, 0, 64)
		buf = &b
	}
	p.live = append(p.live, buf)
	return buf
}

// back returns the buffer most recently pushed, or nil if the pool is empty.
func (p *bufPool) back() []byte {
	if n := len(p.live); n > 0 {
		return *p.live[n-1]
	}
	return nil
}

// truncateBack drops all but the latest keep buffers from the front of the
// pool, recycling the dropped ones onto the free list when they qualify.
func (p *bufPool) truncateBack(keep int) {
	drop := len(p.live) - keep
	if drop <= 0 {
		return
	}
	for _, buf := range p.live[:drop] {
		if len(p.free) < maxFreeCapacity && cap(*buf) <= maxBufCapacity {
			p.free = append(p.free, buf)
		}
	}
	remaining := len(p.live) - drop
	copy(p.live, p.live[drop:])
	p.live = p.live[:remaining]
}

// iterFunc visits every buffer currently in the pool, in FIFO order, by
// index, so that buffers pushed during iteration (e.g. by a directive-parsing
// callback populating a new buffer for lookahead) are also visited — the
// slice holding a *[]byte does not move when the pool grows, only the outer
// []*[]byte header does, so indexing by position is always safe mid-loop.
func (p *bufPool) iterFunc(visit func([]byte)) {
	for i := 0; i < len(p.live); i++ {
		visit(*p.live[i])
	}
}

func (p *bufPool) len() int {
	return len(p.live)
}
