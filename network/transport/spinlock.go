package transport

import (
	"runtime"
	"sync/atomic"
)

// spinlock serializes worker writes to the session socket. Writes are
// short and contention is rare (a handful of workers), so spinning beats
// parking on a mutex.
type spinlock struct {
	flag atomic.Bool
}

func (s *spinlock) Lock() {
	for !s.flag.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (s *spinlock) Unlock() {
	s.flag.Store(false)
}
