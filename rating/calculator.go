package rating

import (
	"runtime"
	"sort"
	"time"

	"github.com/linchenxuan/ladderd/jobs"
	"github.com/linchenxuan/ladderd/log"
	"github.com/linchenxuan/ladderd/metrics"
	"github.com/linchenxuan/ladderd/network/wire"
	"github.com/linchenxuan/ladderd/timeutil"
)

type patchKind uint8

// newPosition sorts before oldPosition so that a user whose placement does
// not change is reinserted before its old slot is accounted as removed.
const (
	newPosition patchKind = iota
	oldPosition
)

// ratingPatch is one planned board modification: either the removal of a
// slot or the insertion of a user, both addressed by the number of board
// elements after the affected position. Patches are computed against the
// pre-recalculation board and applied in one tail-to-head walk.
type ratingPatch struct {
	user          *User
	elementsAfter int
	kind          patchKind
	amount        int64
}

// Calculator folds a retired ingest buffer into the canonical board once
// per minute. It is driven by the announcer goroutine and is the only
// writer of CoreData and the online ring.
type Calculator struct {
	core   *CoreData
	sync   *SyncBlock
	ring   *OnlineRing
	ingest *DoubleBuffer
	jobs   *jobs.Dispatcher[*User]

	patches []ratingPatch
	fresh   int
}

// NewCalculator wires a calculator to the session's shared state.
func NewCalculator(core *CoreData, sb *SyncBlock, ring *OnlineRing,
	ingest *DoubleBuffer, d *jobs.Dispatcher[*User]) *Calculator {
	return &Calculator{core: core, sync: sb, ring: ring, ingest: ingest, jobs: d}
}

// Recalculate flips the ingest buffer, waits for writers and readers to
// quiesce, applies the retired buffer to the board and wakes the workers.
// dropOldRating additionally resets the week before applying.
func (c *Calculator) Recalculate(dropOldRating bool) {
	retired := c.ingest.Flip()

	// Tell the workers to proceed to waiting.
	c.sync.RefreshInProgress.Store(true)

	// Writer quiescence first: the router must detach from the retired
	// buffer before we read it.
	for retired.Writers() != 0 {
		runtime.Gosched()
	}

	// Reader quiescence second: workers drain their data jobs against the
	// still-intact board, then release their reader slots.
	for c.sync.DataReaders.Load() != 0 {
		runtime.Gosched()
	}

	start := time.Now()
	c.apply(retired, dropOldRating)
	retired.reset()
	metrics.Observe("rating", "recalc_seconds", time.Since(start).Seconds())

	c.sync.DataLock.Lock()
	// Flipping the flag under the lock closes the window where a worker
	// has released its reader slot but not yet started waiting.
	c.sync.RefreshInProgress.Store(false)
	c.sync.DataLock.Unlock()
	c.sync.DataRefreshed.Broadcast()
}

func (c *Calculator) apply(in *IngestBuffer, dropOldRating bool) {
	if dropOldRating {
		c.dropRating()
	}

	c.processRegistrations(in)
	c.processRenames(in)
	c.processConnectionChanges(in)
	c.processDeals(in)
	c.applyPatches()

	c.patches = c.patches[:0]
	c.fresh = 0
}

// dropRating demotes every active user to silent, keeping the name and
// connected second, and empties the board and the ring.
func (c *Calculator) dropRating() {
	for id, u := range c.core.Active {
		c.core.Silent[id] = SilentUser{SecondConnected: u.SecondConnected, Name: u.Name}
	}
	clear(c.core.Active)
	c.ring.Clear()
	c.core.Board = c.core.Board[:0]

	log.Info().Int("demoted", len(c.core.Silent)).Msg("weekly rating dropped")
}

func (c *Calculator) userExists(id int32) bool {
	if _, ok := c.core.Active[id]; ok {
		return true
	}
	_, ok := c.core.Silent[id]
	return ok
}

func (c *Calculator) processRegistrations(in *IngestBuffer) {
	for id, name := range in.Registered {
		if c.userExists(id) {
			c.jobs.EnqueueError(wire.NewMultipleRegistration(id))
			continue
		}
		c.core.Silent[id] = newSilentUser(name)
	}
}

func (c *Calculator) processRenames(in *IngestBuffer) {
	for id, name := range in.Renamed {
		if u, ok := c.core.Active[id]; ok {
			u.Name = name
			continue
		}
		if s, ok := c.core.Silent[id]; ok {
			s.Name = name
			c.core.Silent[id] = s
			continue
		}
		c.jobs.EnqueueError(wire.NewUserUnrecognized(id))
	}
}

func (c *Calculator) processConnectionChanges(in *IngestBuffer) {
	for id, second := range in.ConnectionChanges {
		if u, ok := c.core.Active[id]; ok {
			if u.Online() {
				c.ring.Remove(u)
			}
			u.SecondConnected = second
			if u.Online() {
				c.ring.Add(u)
			}
			continue
		}
		if s, ok := c.core.Silent[id]; ok {
			s.SecondConnected = second
			c.core.Silent[id] = s
			continue
		}
		c.jobs.EnqueueError(wire.NewUserUnrecognized(id))
	}
}

// processDeals records board patches for every dealt user. Winnings are
// not touched here: every elementsAfter is computed against the unchanged
// pre-walk board, so the ingest iteration order cannot skew placements.
// The new amount travels on the patch and lands during the walk.
func (c *Calculator) processDeals(in *IngestBuffer) {
	for id, amount := range in.DealsWon {
		if u, ok := c.core.Active[id]; ok {
			c.patches = append(c.patches, ratingPatch{
				elementsAfter: len(c.core.Board) - u.Rating - 1,
				kind:          oldPosition,
			})
			newAmount := u.Winnings + amount
			c.patches = append(c.patches, ratingPatch{
				user:          u,
				elementsAfter: c.elementsAfter(newAmount),
				kind:          newPosition,
				amount:        newAmount,
			})
			continue
		}

		if s, ok := c.core.Silent[id]; ok {
			u := &User{
				ID:              id,
				Rating:          InvalidRating,
				SecondConnected: s.SecondConnected,
				Name:            s.Name,
			}
			if u.Online() {
				c.ring.Add(u)
			}
			c.fresh++
			c.patches = append(c.patches, ratingPatch{
				user:          u,
				elementsAfter: c.elementsAfter(amount),
				kind:          newPosition,
				amount:        amount,
			})
			c.core.Active[id] = u
			delete(c.core.Silent, id)
			continue
		}

		c.jobs.EnqueueError(wire.NewUserUnrecognized(id))
	}
}

// elementsAfter returns how many board entries a user with the given
// winnings would have below it: the count of entries whose current
// winnings are strictly smaller. The board is sorted descending, so this
// is a binary search for the first smaller entry.
func (c *Calculator) elementsAfter(winnings int64) int {
	idx := sort.Search(len(c.core.Board), func(i int) bool {
		return c.core.Board[i].Winnings < winnings
	})
	return len(c.core.Board) - idx
}

// applyPatches rebuilds the board in one tail-to-head walk. The patch set
// is ordered by elementsAfter ascending; the running offset counts how far
// the untouched block between two patches must shift right (pending fresh
// insertions plus vacated slots, minus insertions already placed).
func (c *Calculator) applyPatches() {
	oldLen := len(c.core.Board)
	offset := c.fresh

	c.core.Board = append(c.core.Board, make([]*User, c.fresh)...)

	sort.SliceStable(c.patches, func(i, j int) bool {
		a, b := c.patches[i], c.patches[j]
		if a.elementsAfter != b.elementsAfter {
			return a.elementsAfter < b.elementsAfter
		}
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		return a.amount < b.amount
	})

	oldPositions, lengthDone := 0, 0

	for _, p := range c.patches {
		blockLength := p.elementsAfter - lengthDone - oldPositions
		pos := oldLen - p.elementsAfter

		switch p.kind {
		case oldPosition:
			c.moveBlock(pos, blockLength, offset)
			offset++
			oldPositions++
		case newPosition:
			c.moveBlock(pos, blockLength, offset)
			offset--
			c.core.Board[pos+offset] = p.user
			p.user.Winnings = p.amount
		}
		lengthDone += blockLength
	}

	for i, u := range c.core.Board {
		u.Rating = i
	}
}

func (c *Calculator) moveBlock(pos, length, offset int) {
	if length <= 0 || offset <= 0 {
		return
	}
	copy(c.core.Board[pos+offset:pos+offset+length], c.core.Board[pos:pos+length])
}

// WeekTurned reports whether the wall-clock week has advanced past the
// week currently being served.
func (c *Calculator) WeekTurned(now time.Time) bool {
	return timeutil.WeekStart(now).After(c.core.WeekServed)
}
