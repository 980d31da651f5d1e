package service

import (
	"time"

	"github.com/linchenxuan/ladderd/jobs"
	"github.com/linchenxuan/ladderd/metrics"
	"github.com/linchenxuan/ladderd/network/transport"
	"github.com/linchenxuan/ladderd/network/wire"
	"github.com/linchenxuan/ladderd/rating"
	"github.com/linchenxuan/ladderd/timeutil"
)

// Router is the single-goroutine ingest loop: it reads framed messages
// off the session, stages them into the current ingest buffer and
// enqueues follow-up jobs. It owns the session's read side.
type Router struct {
	session *transport.Session
	ingest  *rating.DoubleBuffer
	jobs    *jobs.Dispatcher[*rating.User]
	limiter ingestLimiter
	stop    *rating.StopSignals

	msg wire.ClientMessage
	now func() time.Time
}

// NewRouter wires a router to a freshly accepted session.
func NewRouter(s *transport.Session, ingest *rating.DoubleBuffer,
	d *jobs.Dispatcher[*rating.User], lim ingestLimiter, stop *rating.StopSignals) *Router {
	return &Router{
		session: s,
		ingest:  ingest,
		jobs:    d,
		limiter: lim,
		stop:    stop,
		now:     time.Now,
	}
}

// Run ingests messages until a fault or a stop signal. The attachment is
// held only while a message is staged, never across the blocking read, so
// an idle connection cannot hold up a recalculation flip. The returned
// error is nil only on a clean stop; recoverable faults unwrap to
// transport.RecoverableError.
func (r *Router) Run() error {
	for !r.stop.Stopping() {
		r.limiter.Take()

		payload, err := r.session.Receive()
		if err != nil {
			return err
		}
		if err := r.msg.Decode(payload); err != nil {
			return transport.Recoverable(err)
		}

		buf := r.attach()
		r.apply(buf, &r.msg)
		buf.Detach()

		metrics.IncrCounterWithDim("ingest", "messages_total", 1,
			metrics.Dimension{"opcode": r.msg.Code.String()})
	}
	return nil
}

// attach claims the current ingest buffer, retrying across a concurrent
// flip. Either the recalculator observes the writer count and waits for
// the detach, or the re-check here lands the claim on the fresh buffer;
// a staged write can therefore never race the recalculator's read.
func (r *Router) attach() *rating.IngestBuffer {
	for {
		buf := r.ingest.Current()
		buf.Attach()
		if r.ingest.Current() == buf {
			return buf
		}
		buf.Detach()
	}
}

func (r *Router) apply(buf *rating.IngestBuffer, m *wire.ClientMessage) {
	switch m.Code {
	case wire.OpUserRegistered:
		buf.Registered[m.UserID] = m.Name
	case wire.OpUserRenamed:
		buf.Renamed[m.UserID] = m.Name
	case wire.OpUserConnected:
		buf.ConnectionChanges[m.UserID] = timeutil.SecondIndex(r.now())
		// First rating reply without waiting for the next minute tick.
		r.jobs.EnqueueID(jobs.IDJob{ID: m.UserID})
	case wire.OpUserDisconnected:
		buf.ConnectionChanges[m.UserID] = timeutil.InvalidSecond
	case wire.OpUserDealWon:
		buf.DealsWon[m.UserID] += m.Amount
	}
}
