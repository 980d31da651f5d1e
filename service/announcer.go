package service

import (
	"time"

	"github.com/linchenxuan/ladderd/jobs"
	"github.com/linchenxuan/ladderd/log"
	"github.com/linchenxuan/ladderd/rating"
	"github.com/linchenxuan/ladderd/timeutil"
)

// Announcer drives the per-minute recalculation and walks one online-ring
// bucket per second, scheduling a rating packet for every user connected
// at that second. It runs on its own goroutine; the calculator runs
// inside it, so ring reads here never race the calculator's writes.
//
// The rating served during a minute is the one frozen at the start of
// that minute. After a week rollover the stale board is therefore served
// for one more minute before the weekly reset; shortening that lag would
// desynchronize the served board from the data behind it.
type Announcer struct {
	core *rating.CoreData
	ring *rating.OnlineRing
	calc *rating.Calculator
	disp *jobs.Dispatcher[*rating.User]
	stop *rating.StopSignals

	now        func() time.Time
	sleepUntil func(time.Time)
}

// NewAnnouncer wires an announcer to the session's shared state.
func NewAnnouncer(core *rating.CoreData, ring *rating.OnlineRing,
	calc *rating.Calculator, d *jobs.Dispatcher[*rating.User],
	stop *rating.StopSignals) *Announcer {
	return &Announcer{
		core: core,
		ring: ring,
		calc: calc,
		disp: d,
		stop: stop,
		now:  time.Now,
		sleepUntil: func(t time.Time) {
			if d := time.Until(t); d > 0 {
				time.Sleep(d)
			}
		},
	}
}

// Run ticks until the stop signal is raised.
func (a *Announcer) Run() {
	dropOldRating := false

	start := a.now()
	weekStart := timeutil.WeekStart(start)
	if a.core.WeekServed.IsZero() {
		a.core.WeekServed = weekStart
	} else if !a.core.WeekServed.Equal(weekStart) {
		// The core data survived a session restart into a new week.
		dropOldRating = true
	}

	a.sleepUntil(timeutil.NextFullSecond(start))
	second := int(timeutil.SecondIndex(a.now()))

	weekJustTurned := false
	tick := time.Now() // steady per-second ticker

	for {
		a.calc.Recalculate(dropOldRating)

		if dropOldRating {
			dropOldRating = false
			a.core.WeekServed = timeutil.WeekStart(a.now())
			log.Info().Msg("serving fresh weekly rating")
		}

		for ; second < timeutil.SecondsPerMinute && !a.stop.Stopping(); second++ {
			a.announce(second)

			tick = tick.Add(time.Second)
			a.sleepUntil(tick)
		}

		if second != timeutil.SecondsPerMinute {
			return // stop signaled mid-minute
		}

		if weekJustTurned {
			// The lagging minute has been served; reset on the next pass.
			// Realigning to a full second re-syncs the steady ticker with
			// the wall clock, at the cost of part of the first minute.
			dropOldRating = true
			weekJustTurned = false

			a.sleepUntil(timeutil.NextFullSecond(a.now()))
			second = int(timeutil.SecondIndex(a.now()))
			tick = time.Now()
			continue
		}

		if a.calc.WeekTurned(a.now()) {
			weekJustTurned = true
		}
		second = 0
	}
}

func (a *Announcer) announce(second int) {
	for u := range a.ring.Bucket(second) {
		a.disp.EnqueueUser(u)
	}
}
