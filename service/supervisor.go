package service

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/linchenxuan/ladderd/config"
	"github.com/linchenxuan/ladderd/jobs"
	"github.com/linchenxuan/ladderd/log"
	"github.com/linchenxuan/ladderd/network/transport"
	"github.com/linchenxuan/ladderd/rating"
)

// Supervisor owns the canonical weekly state and serves one client
// session at a time. Recoverable session faults tear the session down,
// keep the core data, and re-accept; anything else terminates the run.
type Supervisor struct {
	cfg  *config.Config
	core *rating.CoreData
	sync *rating.SyncBlock
	ring *rating.OnlineRing

	// tuneAnnouncer, when set, adjusts a freshly built announcer before
	// it starts. Tests use it to compress the tick interval.
	tuneAnnouncer func(*Announcer)
}

// NewSupervisor creates a supervisor with empty weekly state.
func NewSupervisor(cfg *config.Config) *Supervisor {
	return &Supervisor{
		cfg:  cfg,
		core: rating.NewCoreData(),
		sync: rating.NewSyncBlock(),
		ring: rating.NewOnlineRing(),
	}
}

// Run binds the port and serves sessions until a fatal fault.
func (s *Supervisor) Run() error {
	listener, err := transport.Listen(&s.cfg.Transport)
	if err != nil {
		return err
	}
	defer listener.Close()

	for {
		err := s.serveSession(listener)
		if err == nil || transport.IsRecoverable(err) {
			if err != nil {
				log.Warn().Err(err).Msg("session fault, attempting recovery")
			}
			continue
		}
		log.Error().Err(err).Msg("cannot recover, terminating")
		return err
	}
}

// serveSession accepts one client and runs the whole pipeline against it:
// announcer and workers on their own goroutines, the ingest router
// inline. It returns once every goroutine of the session has unwound.
func (s *Supervisor) serveSession(listener *transport.Listener) error {
	session, err := listener.Accept()
	if err != nil {
		return err
	}
	defer session.Close()

	sessionID := uuid.NewString()
	log.Info().Str("session", sessionID).
		Str("remote", session.RemoteAddr().String()).Msg("session starting")

	s.sync.Stop.Reset()

	ingest := rating.NewDoubleBuffer()
	disp := jobs.NewDispatcher[*rating.User](s.cfg.WorkerCount)
	calc := rating.NewCalculator(s.core, s.sync, s.ring, ingest, disp)
	announcer := NewAnnouncer(s.core, s.ring, calc, disp, &s.sync.Stop)
	if s.tuneAnnouncer != nil {
		s.tuneAnnouncer(announcer)
	}
	pool := NewWorkerPool(s.core, s.sync, session, disp)
	router := NewRouter(session, ingest, disp, newIngestLimiter(s.cfg), &s.sync.Stop)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		announcer.Run()
	}()
	pool.Start()

	routerErr := router.Run()

	// Stop whatever is still running; a fault flag raised earlier (e.g. a
	// fatal worker error) is preserved.
	s.sync.Stop.Signal(false)
	wg.Wait()
	pool.Wait()

	log.Info().Str("session", sessionID).Msg("session torn down")

	if s.sync.Stop.Fatal() {
		if routerErr != nil && !transport.IsRecoverable(routerErr) {
			return routerErr
		}
		return fmt.Errorf("session %s: fatal worker fault", sessionID)
	}
	return routerErr
}
