package jobs

import (
	"sync/atomic"

	"github.com/linchenxuan/ladderd/network/wire"
)

// IDJob asks a worker to send a rating packet for a user id. Promised means
// the enqueuer guarantees the id exists even if the worker's current maps
// do not show it yet; the worker then serializes the one-past-the-end
// sentinel position instead of raising an error.
type IDJob struct {
	ID       int32
	Promised bool
}

// QueuePack bundles the three job queues one worker consumes. U is the
// user-record reference carried by data jobs.
type QueuePack[U any] struct {
	Errors *Queue[wire.ProtoError]
	IDs    *Queue[IDJob]
	Users  *Queue[U]
}

func newQueuePack[U any]() *QueuePack[U] {
	return &QueuePack[U]{
		Errors: NewQueue[wire.ProtoError](),
		IDs:    NewQueue[IDJob](),
		Users:  NewQueue[U](),
	}
}

// Dispatcher fans jobs out round-robin across N queue packs, one per
// worker. Each job kind keeps its own rotation counter so a burst of one
// kind does not skew the distribution of the others. The counters are
// plain atomics shared by all producers; exact balance is not required,
// only the absence of a global lock.
type Dispatcher[U any] struct {
	packs []*QueuePack[U]

	errRR  atomic.Uint32
	idRR   atomic.Uint32
	userRR atomic.Uint32
}

// NewDispatcher creates a dispatcher with n queue packs.
func NewDispatcher[U any](n int) *Dispatcher[U] {
	d := &Dispatcher[U]{packs: make([]*QueuePack[U], n)}
	for i := range d.packs {
		d.packs[i] = newQueuePack[U]()
	}
	return d
}

// Size returns the number of queue packs.
func (d *Dispatcher[U]) Size() int {
	return len(d.packs)
}

// Pack returns the i-th pack. A worker consumes only its own pack.
func (d *Dispatcher[U]) Pack(i int) *QueuePack[U] {
	return d.packs[i]
}

func (d *Dispatcher[U]) next(rr *atomic.Uint32) *QueuePack[U] {
	return d.packs[int(rr.Add(1)-1)%len(d.packs)]
}

// EnqueueError schedules a protocol error for delivery to the client.
func (d *Dispatcher[U]) EnqueueError(e wire.ProtoError) {
	d.next(&d.errRR).Errors.Push(e)
}

// EnqueueID schedules a rating packet for a user id.
func (d *Dispatcher[U]) EnqueueID(j IDJob) {
	d.next(&d.idRR).IDs.Push(j)
}

// EnqueueUser schedules a rating packet for a resolved user record. Only
// valid while workers hold a reader slot on the current snapshot.
func (d *Dispatcher[U]) EnqueueUser(u U) {
	d.next(&d.userRR).Users.Push(u)
}
