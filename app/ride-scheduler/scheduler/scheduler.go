// Package scheduler runs the daily ride scheduling service: a ticker loop
// that fires the scheduling pipeline at the configured time of day, plus
// the web service for run history, plan retrieval and admin control.
package scheduler

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/RideMatchTools/ridematch/business/data/rides"
	"github.com/jmoiron/sqlx"
)

// State describes what the scheduler loop is currently doing.
type State string

const (
	StateStopped  State = "stopped"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateDraining State = "draining"
)

const (
	defaultTickSeconds = 60

	// drainTimeout bounds how long shutdown waits for an in-flight
	// pipeline run to finish.
	drainTimeout   = 30 * time.Second
	drainPollEvery = time.Second
)

// pipelineRunner is the slice of pipeline the loop needs.
type pipelineRunner interface {
	RunOnce(now time.Time) rides.RunStatus
}

// Scheduler fires the scheduling pipeline once per day at the time of day
// configured in the settings store. Settings are re-read on every tick so
// admin changes take effect without a restart.
type Scheduler struct {
	log         *log.Logger
	db          *sqlx.DB
	pipeline    pipelineRunner
	tickSeconds int
	now         func() time.Time

	mu            sync.Mutex
	state         State
	executing     bool
	lastFiredDate string
	lastOutcome   rides.RunStatus
}

// NewScheduler creates a Scheduler in the stopped state. tickSeconds
// values below one fall back to the default of one minute.
func NewScheduler(log *log.Logger, db *sqlx.DB, pipeline pipelineRunner, tickSeconds int) *Scheduler {
	if tickSeconds < 1 {
		tickSeconds = defaultTickSeconds
	}
	return &Scheduler{
		log:         log,
		db:          db,
		pipeline:    pipeline,
		tickSeconds: tickSeconds,
		now:         time.Now,
		state:       StateStopped,
	}
}

// RunLoop ticks until a shutdown signal arrives, then drains any in-flight
// pipeline run before returning.
func (s *Scheduler) RunLoop(shutdownSignal chan os.Signal) error {
	s.setState(StateRunning)
	loopDuration := time.Duration(s.tickSeconds) * time.Second

	sleepChan := make(chan bool)
	sleep := time.Duration(0) //tick immediately the first time
	for {

		go func() {
			time.Sleep(sleep)
			sleepChan <- true
		}()

		select {
		case <-shutdownSignal:
			s.log.Printf("exiting on shutdown signal")
			s.drain()
			s.setState(StateStopped)
			return nil
		case <-sleepChan:
			break
		}

		start := s.now()
		s.tick(start)

		// subtract the time the tick took so ticks stay on cadence
		workTook := s.now().Sub(start)
		if workTook >= loopDuration {
			sleep = time.Duration(0)
		} else {
			sleep = loopDuration - workTook
		}
	}
}

/*
tick decides whether the pipeline should fire now. It fires at most once
per day, at the first tick at or after the configured time of day, and
only while the scheduler is not paused and no run is already executing.
The run itself happens on its own goroutine so a long solve never blocks
the loop.
*/
func (s *Scheduler) tick(now time.Time) {
	settings, err := rides.GetSchedulingSettings(s.db)
	if err != nil {
		s.log.Printf("error loading scheduling settings, skipping tick: %v", err)
		return
	}
	if !settings.Enabled {
		return
	}
	scheduledSeconds, err := rides.ParseTimeOfDay(settings.ScheduledTime)
	if err != nil {
		s.log.Printf("invalid scheduled time %q, skipping tick: %v", settings.ScheduledTime, err)
		return
	}

	nowSeconds := now.Hour()*3600 + now.Minute()*60 + now.Second()
	if nowSeconds < scheduledSeconds {
		return
	}

	today := now.Format(rides.DateLayout)
	s.mu.Lock()
	fire := s.state == StateRunning && !s.executing && s.lastFiredDate != today
	if fire {
		s.executing = true
		s.lastFiredDate = today
	}
	s.mu.Unlock()
	if !fire {
		return
	}

	go func() {
		outcome := s.pipeline.RunOnce(now)
		s.mu.Lock()
		s.executing = false
		s.lastOutcome = outcome
		s.mu.Unlock()
	}()
}

// drain waits for an in-flight run to complete, up to drainTimeout.
func (s *Scheduler) drain() {
	s.setState(StateDraining)
	deadline := s.now().Add(drainTimeout)
	for s.now().Before(deadline) {
		s.mu.Lock()
		executing := s.executing
		s.mu.Unlock()
		if !executing {
			return
		}
		s.log.Printf("waiting for in-flight scheduling run to finish")
		time.Sleep(drainPollEvery)
	}
	s.log.Printf("in-flight scheduling run did not finish within %s, abandoning it", drainTimeout)
}

// Pause stops the scheduler from firing; an in-flight run is unaffected.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StatePaused
		s.log.Printf("scheduler paused")
	}
}

// Resume re-enables firing after Pause. The once-per-day guard still
// applies, so resuming after today's run has fired does not re-fire it.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePaused {
		s.state = StateRunning
		s.log.Printf("scheduler resumed")
	}
}

// Status is a point-in-time snapshot for the web service.
type Status struct {
	State       State           `json:"state"`
	Executing   bool            `json:"executing"`
	LastOutcome rides.RunStatus `json:"last_outcome,omitempty"`
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{State: s.state, Executing: s.executing, LastOutcome: s.lastOutcome}
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
