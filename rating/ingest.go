package rating

import "sync/atomic"

// IngestBuffer stages decoded client events between recalculations. The
// router writes into the current buffer; the recalculator reads the
// retired one after the writer count drops to zero.
type IngestBuffer struct {
	Registered        map[int32]string
	Renamed           map[int32]string
	ConnectionChanges map[int32]uint8
	DealsWon          map[int32]int64

	writers atomic.Int32
}

func newIngestBuffer() *IngestBuffer {
	return &IngestBuffer{
		Registered:        make(map[int32]string),
		Renamed:           make(map[int32]string),
		ConnectionChanges: make(map[int32]uint8),
		DealsWon:          make(map[int32]int64),
	}
}

// Attach claims the buffer for writing. Pairs with Detach.
func (b *IngestBuffer) Attach() {
	b.writers.Add(1)
}

// Detach releases a writer claim. The release store pairs with the
// recalculator's Writers loads: all writes made while attached are
// visible once Writers observes zero.
func (b *IngestBuffer) Detach() {
	b.writers.Add(-1)
}

// Writers returns the number of attached writers.
func (b *IngestBuffer) Writers() int32 {
	return b.writers.Load()
}

func (b *IngestBuffer) reset() {
	clear(b.Registered)
	clear(b.Renamed)
	clear(b.ConnectionChanges)
	clear(b.DealsWon)
}

// DoubleBuffer holds the two staging buffers and the atomic current
// pointer. The router follows Current; only the recalculator flips.
type DoubleBuffer struct {
	buffers [2]*IngestBuffer
	index   int // recalculator-owned
	current atomic.Pointer[IngestBuffer]
}

// NewDoubleBuffer creates a pair of empty buffers with buffer 0 current.
func NewDoubleBuffer() *DoubleBuffer {
	db := &DoubleBuffer{}
	db.buffers[0] = newIngestBuffer()
	db.buffers[1] = newIngestBuffer()
	db.current.Store(db.buffers[0])
	return db
}

// Current returns the buffer producers should write into. Producers must
// re-check it every iteration and re-attach when it changes.
func (db *DoubleBuffer) Current() *IngestBuffer {
	return db.current.Load()
}

// Flip publishes the other buffer as current and returns the retired one.
// Recalculator only. The caller must wait for the retired buffer's writer
// count to reach zero before reading it.
func (db *DoubleBuffer) Flip() *IngestBuffer {
	retired := db.buffers[db.index]
	db.index = 1 - db.index
	db.current.Store(db.buffers[db.index])
	return retired
}
