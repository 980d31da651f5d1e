package rating

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleBufferFlip(t *testing.T) {
	db := NewDoubleBuffer()
	first := db.Current()

	retired := db.Flip()
	assert.Same(t, first, retired)
	assert.NotSame(t, first, db.Current())

	retired = db.Flip()
	assert.Same(t, db.buffers[0], db.Current())
	assert.NotSame(t, retired, db.Current())
}

func TestIngestBufferReset(t *testing.T) {
	b := newIngestBuffer()
	b.Registered[1] = "a"
	b.Renamed[1] = "b"
	b.ConnectionChanges[1] = 5
	b.DealsWon[1] = 10

	b.reset()
	assert.Empty(t, b.Registered)
	assert.Empty(t, b.Renamed)
	assert.Empty(t, b.ConnectionChanges)
	assert.Empty(t, b.DealsWon)
}

// A producer that follows the attach/flip/detach protocol must never be
// attached to a buffer the consumer is reading. Run with -race: the
// consumer writes into the retired buffer's maps while the producer
// writes only into the buffer it is attached to.
func TestDoubleBufferBarrier(t *testing.T) {
	db := NewDoubleBuffer()

	var stop atomic.Bool
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := db.Current()
		buf.Attach()
		defer buf.Detach()

		for i := int64(0); !stop.Load(); i++ {
			if cur := db.Current(); cur != buf {
				buf.Detach()
				buf = cur
				buf.Attach()
			}
			buf.DealsWon[int32(i%64)] += 1
		}
	}()

	for flips := 0; flips < 2000; flips++ {
		retired := db.Flip()
		for retired.Writers() != 0 {
			runtime.Gosched()
		}
		// Consumer side: safe to read and reset now.
		total := int64(0)
		for _, v := range retired.DealsWon {
			total += v
		}
		require.GreaterOrEqual(t, total, int64(0))
		retired.reset()
	}

	stop.Store(true)
	wg.Wait()
}
