package scheduler

import (
	"log"

	"github.com/RideMatchTools/ridematch/business/ridematch/routing"
	"github.com/RideMatchTools/ridematch/business/ridematch/solver"
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"

	"github.com/RideMatchTools/ridematch/foundation/directions"
)

// ServiceConfig carries the scheduler wiring options from main.
type ServiceConfig struct {
	TickSeconds    int
	SkipWeekends   bool
	SkipHolidays   bool
	PublishSubject string
	Solver         solver.Config
}

// NewService wires the full scheduling service: routing engine, pipeline
// and scheduler loop. A nil natsConn disables route plan publication.
func NewService(log *log.Logger,
	db *sqlx.DB,
	provider directions.Provider,
	natsConn *nats.Conn,
	cfg ServiceConfig) *Scheduler {

	var dest natsDestination
	if natsConn != nil {
		dest = natsConn
	}
	pipeline := makePipeline(log, db,
		routing.NewEngine(log, provider),
		cfg.Solver,
		makeServiceCalendar(cfg.SkipWeekends, cfg.SkipHolidays),
		makePlanPublisher(log, dest, cfg.PublishSubject))
	return NewScheduler(log, db, pipeline, cfg.TickSeconds)
}
