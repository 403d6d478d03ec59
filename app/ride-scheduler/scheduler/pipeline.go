package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/RideMatchTools/ridematch/business/data/rides"
	"github.com/RideMatchTools/ridematch/business/ridematch/routing"
	"github.com/RideMatchTools/ridematch/business/ridematch/solver"
	"github.com/jmoiron/sqlx"
)

// pipeline runs one full scheduling cycle: load tomorrow's rosters, solve
// the assignment, compute route timing, persist the plan and append the
// run outcome to the scheduling log.
type pipeline struct {
	log       *log.Logger
	db        *sqlx.DB
	engine    *routing.Engine
	solverCfg solver.Config
	calendar  *serviceCalendar
	publisher *planPublisher
}

func makePipeline(log *log.Logger,
	db *sqlx.DB,
	engine *routing.Engine,
	solverCfg solver.Config,
	calendar *serviceCalendar,
	publisher *planPublisher) *pipeline {
	return &pipeline{
		log:       log,
		db:        db,
		engine:    engine,
		solverCfg: solverCfg,
		calendar:  calendar,
		publisher: publisher,
	}
}

/*
RunOnce executes a single scheduling run for the day after "now" and
returns the logged outcome.

Skipped runs (non-service day, no destination, empty rosters) and failed
runs (solver rejected the input) are normal outcomes; both are recorded in
the scheduling log and do not stop the scheduler. Error runs indicate the
plan could not be persisted; the previous plan remains the latest.
*/
func (p *pipeline) RunOnce(now time.Time) rides.RunStatus {
	solutionDay := now.AddDate(0, 0, 1)
	solutionDate := solutionDay.Format(rides.DateLayout)
	p.log.Printf("starting scheduling run for %s", solutionDate)

	if !p.calendar.isServiceDay(solutionDay) {
		return p.skip(now, fmt.Sprintf("%s is not a service day", solutionDate))
	}

	dest, err := rides.GetDestination(p.db)
	if err != nil {
		if errors.Is(err, rides.ErrNoDestination) {
			return p.skip(now, "no destination configured")
		}
		return p.fail(now, rides.RunError, fmt.Errorf("loading destination: %w", err))
	}

	vehicles, err := rides.GetAvailableVehicles(p.db)
	if err != nil {
		return p.fail(now, rides.RunError, fmt.Errorf("loading vehicles: %w", err))
	}
	passengers, err := rides.GetAvailablePassengers(p.db)
	if err != nil {
		return p.fail(now, rides.RunError, fmt.Errorf("loading passengers: %w", err))
	}
	if len(vehicles) == 0 || len(passengers) == 0 {
		return p.skip(now, fmt.Sprintf("nothing to schedule: %d vehicles, %d passengers available",
			len(vehicles), len(passengers)))
	}

	arrivalSeconds, err := rides.ParseTimeOfDay(dest.TargetArrivalTime)
	if err != nil {
		return p.fail(now, rides.RunError, fmt.Errorf("destination arrival time: %w", err))
	}
	targetArrival := rides.AtTimeOfDay(solutionDay, arrivalSeconds)

	in := solver.Input{
		Passengers:           passengers,
		Vehicles:             vehicles,
		Destination:          dest,
		TargetArrivalMinutes: arrivalSeconds / 60,
	}
	solution, err := solver.Solve(p.log, in, p.solverCfg)
	if err != nil {
		var validationErr *solver.ValidationError
		if errors.As(err, &validationErr) {
			return p.fail(now, rides.RunFailed, fmt.Errorf("solver rejected rosters: %w", err))
		}
		return p.fail(now, rides.RunError, fmt.Errorf("solving assignment: %w", err))
	}

	details := p.engine.BuildRouteDetails(context.Background(), solution, dest, targetArrival)

	routeId, err := rides.SaveSolution(p.log, p.db, solution, details, solutionDate, now)
	if err != nil {
		return p.fail(now, rides.RunError, fmt.Errorf("saving route plan: %w", err))
	}

	routesGenerated := solution.VehiclesUsed()
	passengersAssigned := solution.AssignedCount()
	if err = rides.LogSchedulingRun(p.db, now, rides.RunSuccess, routesGenerated, passengersAssigned, ""); err != nil {
		p.log.Printf("error recording successful run: %v", err)
	}
	p.log.Printf("scheduling run for %s complete: route %d, %d vehicles, %d of %d passengers assigned",
		solutionDate, routeId, routesGenerated, passengersAssigned, len(passengers))

	p.publisher.publish(routePlanNotice{
		RouteId:            routeId,
		SolutionDate:       solutionDate,
		GeneratedAt:        now.Format(rides.TimestampLayout),
		RoutesGenerated:    routesGenerated,
		PassengersAssigned: passengersAssigned,
	})
	return rides.RunSuccess
}

func (p *pipeline) skip(now time.Time, reason string) rides.RunStatus {
	p.log.Printf("scheduling run skipped: %s", reason)
	if err := rides.LogSchedulingRun(p.db, now, rides.RunSkipped, 0, 0, reason); err != nil {
		p.log.Printf("error recording skipped run: %v", err)
	}
	return rides.RunSkipped
}

func (p *pipeline) fail(now time.Time, status rides.RunStatus, cause error) rides.RunStatus {
	p.log.Printf("scheduling run did not produce a plan: %v", cause)
	if err := rides.LogSchedulingRun(p.db, now, status, 0, 0, cause.Error()); err != nil {
		p.log.Printf("error recording failed run: %v", err)
	}
	return status
}
