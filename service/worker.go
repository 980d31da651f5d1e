package service

import (
	"sync"
	"time"

	"github.com/linchenxuan/ladderd/jobs"
	"github.com/linchenxuan/ladderd/log"
	"github.com/linchenxuan/ladderd/metrics"
	"github.com/linchenxuan/ladderd/network/transport"
	"github.com/linchenxuan/ladderd/network/wire"
	"github.com/linchenxuan/ladderd/rating"
)

const workerIdleSleep = 10 * time.Millisecond

// WorkerPool runs one worker per dispatcher pack. Each worker serializes
// rating and error packets onto the shared session and parks while a
// recalculation is in flight.
type WorkerPool struct {
	core    *rating.CoreData
	sync    *rating.SyncBlock
	session *transport.Session
	disp    *jobs.Dispatcher[*rating.User]

	wg sync.WaitGroup
}

// NewWorkerPool wires a pool to the session's shared state.
func NewWorkerPool(core *rating.CoreData, sb *rating.SyncBlock,
	session *transport.Session, d *jobs.Dispatcher[*rating.User]) *WorkerPool {
	return &WorkerPool{core: core, sync: sb, session: session, disp: d}
}

// Start launches the workers. Reader slots are claimed here, before the
// goroutines spawn, so a recalculation can never observe a worker that
// reads the board without holding a slot.
func (p *WorkerPool) Start() {
	for i := 0; i < p.disp.Size(); i++ {
		p.sync.DataReaders.Add(1)
		p.wg.Add(1)
		go p.work(i)
	}
}

// Wait blocks until every worker has exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// worker holds the two persistent output writers. The rating writer keeps
// the top of the leaderboard pre-serialized after its header; per job only
// the competition window is appended and the header re-stamped.
type worker struct {
	pool *WorkerPool
	pack *jobs.QueuePack[*rating.User]

	ratingW *wire.Writer
	topEnd  int

	errorW  *wire.Writer
	errBase int
}

func newWorker(p *WorkerPool, idx int) *worker {
	w := &worker{
		pool:    p,
		pack:    p.disp.Pack(idx),
		ratingW: wire.NewPacketWriter(wire.OpUserRating),
		errorW:  wire.NewPacketWriter(wire.OpProtocolError),
	}
	wire.PutRatingHeader(w.ratingW, wire.InvalidUserID, 0, 0)
	w.errBase = w.errorW.Len()
	w.cacheTop()
	return w
}

func (p *WorkerPool) work(idx int) {
	defer p.wg.Done()
	defer p.sync.DataReaders.Add(-1)

	w := newWorker(p, idx)

	if err := w.run(); err != nil {
		p.sync.Stop.Signal(!transport.IsRecoverable(err))
		// Unblock the router's pending read so teardown can proceed.
		_ = p.session.Close()
		log.Error().Err(err).Int("worker", idx).Msg("worker fault")
	}
}

func (w *worker) run() error {
	for {
		worked := false

		if w.pool.sync.Stop.Stopping() {
			return nil
		}

		if w.pool.sync.RefreshInProgress.Load() {
			// Data jobs still reference the pre-refresh board; drain them
			// before giving up the reader slot.
			if err := w.drainUsers(&worked); err != nil {
				return err
			}

			w.pool.sync.DataLock.Lock()
			w.pool.sync.DataReaders.Add(-1)
			for w.pool.sync.RefreshInProgress.Load() {
				w.pool.sync.DataRefreshed.Wait()
			}
			w.pool.sync.DataLock.Unlock()
			w.pool.sync.DataReaders.Add(1)

			w.cacheTop()
		}

		for {
			e, ok := w.pack.Errors.TryPop()
			if !ok {
				break
			}
			if err := w.serveError(e); err != nil {
				return err
			}
			worked = true
		}

		for {
			j, ok := w.pack.IDs.TryPop()
			if !ok {
				break
			}
			if err := w.serveID(j); err != nil {
				return err
			}
			worked = true
		}

		if err := w.drainUsers(&worked); err != nil {
			return err
		}

		if !worked {
			time.Sleep(workerIdleSleep)
		}
	}
}

func (w *worker) drainUsers(worked *bool) error {
	for {
		u, ok := w.pack.Users.TryPop()
		if !ok {
			return nil
		}
		if err := w.serveRating(u.ID, u.Rating); err != nil {
			return err
		}
		*worked = true
	}
}

// serveID resolves a user id against the current maps. A silent or
// promised user gets the one-past-the-end sentinel position; a completely
// unknown id is answered with an error, covering the race where the user
// vanished between enqueue and service.
func (w *worker) serveID(j jobs.IDJob) error {
	if u, ok := w.pool.core.Active[j.ID]; ok {
		return w.serveRating(u.ID, u.Rating)
	}
	if _, ok := w.pool.core.Silent[j.ID]; ok || j.Promised {
		return w.serveRating(j.ID, len(w.pool.core.Board))
	}
	return w.serveError(wire.NewUserUnrecognized(j.ID))
}

// cacheTop rebuilds the pre-serialized leaderboard head. Called once per
// refresh cycle; the writer is left positioned right after the cached
// entries.
func (w *worker) cacheTop() {
	w.ratingW.Truncate(wire.RatingHeaderOffset + wire.RatingHeaderSize)

	top := min(wire.TopPositions, len(w.pool.core.Board))
	for i := 0; i < top; i++ {
		u := w.pool.core.Board[i]
		wire.PutRatingEntry(w.ratingW, u.ID, u.Winnings, u.Name)
	}
	w.topEnd = w.ratingW.Len()
}

// serveRating appends the competition window around pos, stamps the
// header and sends. pos == len(board) is the sentinel for an unranked
// subject.
func (w *worker) serveRating(id int32, pos int) error {
	board := w.pool.core.Board

	// Subjects inside the top prefix are already covered by the cache;
	// everyone else gets the window of ten neighbours on each side.
	if pos >= wire.TopPositions {
		begin := max(wire.TopPositions, pos-wire.CompetitionDistance)
		end := min(len(board), pos+wire.CompetitionDistance+1)
		for i := begin; i < end; i++ {
			u := board[i]
			wire.PutRatingEntry(w.ratingW, u.ID, u.Winnings, u.Name)
		}
	}

	wire.PatchRatingHeader(w.ratingW, id, len(board), pos)

	err := w.sendAndRewind(w.ratingW, w.topEnd)
	if err == nil {
		metrics.IncrCounterWithDim("jobs", "served_total", 1,
			metrics.Dimension{"kind": "rating"})
	}
	return err
}

func (w *worker) serveError(e wire.ProtoError) error {
	e.Encode(w.errorW)

	err := w.sendAndRewind(w.errorW, w.errBase)
	if err == nil {
		metrics.IncrCounterWithDim("jobs", "served_total", 1,
			metrics.Dimension{"kind": "error"})
	}
	return err
}

func (w *worker) sendAndRewind(wr *wire.Writer, mark int) error {
	if err := wr.SealFrame(); err != nil {
		wr.Truncate(mark)
		return err
	}
	err := w.pool.session.WriteFrame(wr.Bytes())
	wr.Truncate(mark)
	return err
}
