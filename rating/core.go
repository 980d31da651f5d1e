package rating

import (
	"sync"
	"sync/atomic"
	"time"
)

// CoreData is the canonical weekly state. It is owned by the supervisor
// and survives session restarts; within a session it is written only by
// the recalculator while the quiescence barrier holds.
type CoreData struct {
	Silent map[int32]SilentUser
	Active map[int32]*User
	Board  []*User

	// WeekServed is the start of the week whose leaderboard is currently
	// being served. Zero until the announcer's first tick.
	WeekServed time.Time
}

// NewCoreData creates empty weekly state.
func NewCoreData() *CoreData {
	return &CoreData{
		Silent: make(map[int32]SilentUser),
		Active: make(map[int32]*User),
	}
}

// StopSignals is the cooperative shutdown switch shared by every
// goroutine of a session.
type StopSignals struct {
	bad   atomic.Bool
	fatal atomic.Bool
}

// Signal requests shutdown. Fatal faults also poison the supervisor loop.
func (s *StopSignals) Signal(fatal bool) {
	if fatal {
		s.fatal.Store(true)
	}
	s.bad.Store(true)
}

// Stopping reports whether any goroutine has requested shutdown.
func (s *StopSignals) Stopping() bool {
	return s.bad.Load()
}

// Fatal reports whether the pending shutdown is unrecoverable.
func (s *StopSignals) Fatal() bool {
	return s.fatal.Load()
}

// Reset clears the signals before a session restart.
func (s *StopSignals) Reset() {
	s.bad.Store(false)
	s.fatal.Store(false)
}

// SyncBlock carries the serve-phase barrier between the recalculator and
// the workers: the refresh flag parks workers, DataReaders counts workers
// still holding a snapshot, and DataRefreshed wakes them once the new
// board is in place.
type SyncBlock struct {
	DataLock      sync.Mutex
	DataRefreshed *sync.Cond

	RefreshInProgress atomic.Bool
	DataReaders       atomic.Int32

	Stop StopSignals
}

// NewSyncBlock creates a SyncBlock with its condvar bound to DataLock.
func NewSyncBlock() *SyncBlock {
	sb := &SyncBlock{}
	sb.DataRefreshed = sync.NewCond(&sb.DataLock)
	return sb
}
