// Package routing attaches road distances and clock schedules to solved
// ride solutions. Leg timing comes from a directions provider; on provider
// failure the engine falls back to straight-line estimates so a run always
// produces a complete schedule.
package routing

import (
	"context"
	"log"
	"time"

	"github.com/RideMatchTools/ridematch/business/data/rides"
	"github.com/RideMatchTools/ridematch/foundation/directions"
	"github.com/RideMatchTools/ridematch/foundation/geo"
)

const (
	// fallbackSpeedKmh converts straight-line distance to time when the
	// directions provider is unavailable.
	fallbackSpeedKmh = 30.0

	// providerTimeout bounds a single directions call. Timeouts are
	// treated as failures; there are no retries within a run.
	providerTimeout = 30 * time.Second

	// maxRouteMinutes guards back-propagation: a route longer than a day
	// cannot be scheduled against a same-day arrival time.
	maxRouteMinutes = 24 * 60.0
)

// Engine computes RouteDetails for each vehicle of a solution.
type Engine struct {
	log      *log.Logger
	provider directions.Provider
}

// NewEngine builds an Engine using provider for leg timing.
func NewEngine(log *log.Logger, provider directions.Provider) *Engine {
	return &Engine{log: log, provider: provider}
}

/*
BuildRouteDetails computes per-leg distance and duration for every vehicle
carrying passengers, then back-propagates targetArrival into a departure
time and per-stop pickup times.

For each vehicle the waypoints are start, the pickups in solver order, and
the destination. Provider failures are handled locally with straight-line
fallback legs; the engine only leaves times empty when the route is too
long to schedule within a day.

Vehicles in the solution are updated in place (totals, route path,
departure time) and each assigned passenger's estimated pickup time is
set. Returns route details keyed by vehicle id.
*/
func (e *Engine) BuildRouteDetails(ctx context.Context,
	solution *rides.Solution,
	destination *rides.Destination,
	targetArrival time.Time) map[int64]*rides.RouteDetails {

	details := make(map[int64]*rides.RouteDetails)
	for _, vehicle := range solution.Vehicles {
		if len(vehicle.AssignedPassengers) == 0 {
			continue
		}
		details[vehicle.Id] = e.buildVehicleRoute(ctx, vehicle, destination, targetArrival)
	}
	return details
}

func (e *Engine) buildVehicleRoute(ctx context.Context,
	vehicle *rides.Vehicle,
	destination *rides.Destination,
	targetArrival time.Time) *rides.RouteDetails {

	waypoints := make([]geo.Point, 0, len(vehicle.AssignedPassengers)+2)
	waypoints = append(waypoints, vehicle.Start().Point())
	for _, passenger := range vehicle.AssignedPassengers {
		waypoints = append(waypoints, passenger.Location().Point())
	}
	waypoints = append(waypoints, destination.Location().Point())

	callCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	route, err := e.provider.Directions(callCtx, waypoints)
	cancel()

	var path []rides.Coordinate
	var legs []directions.Leg
	if err != nil {
		e.log.Printf("directions unavailable for vehicle %d, using straight-line estimates: %v", vehicle.Id, err)
		legs = straightLineLegs(waypoints)
		path = coordinatePath(waypoints)
	} else {
		legs = route.Legs
		path = coordinatePath(route.Polyline)
		if len(path) == 0 {
			path = coordinatePath(waypoints)
		}
	}

	details := rides.RouteDetails{
		VehicleId: vehicle.Id,
		Path:      path,
	}
	for i, leg := range legs {
		stop := rides.Stop{
			DistanceFromPrevious: leg.DistanceMeters / 1000,
			TimeFromPrevious:     leg.DurationSeconds / 60,
		}
		if i < len(vehicle.AssignedPassengers) {
			stop.PassengerId = vehicle.AssignedPassengers[i].Id
		} else {
			stop.PassengerId = rides.DestinationStop
		}
		details.TotalDistance += stop.DistanceFromPrevious
		details.TotalTime += stop.TimeFromPrevious
		stop.CumulativeDistance = details.TotalDistance
		stop.CumulativeTime = details.TotalTime
		details.Stops = append(details.Stops, stop)
	}

	e.scheduleStops(vehicle, &details, targetArrival)

	vehicle.TotalDistance = details.TotalDistance
	vehicle.TotalTime = details.TotalTime
	vehicle.RoutePath = details.Path
	return &details
}

// scheduleStops back-propagates the target arrival: departure is arrival
// minus total time, and each stop's pickup is departure plus its
// cumulative time, rounded to the minute. A departure earlier than the
// previous midnight wraps silently in the formatted clock time.
func (e *Engine) scheduleStops(vehicle *rides.Vehicle, details *rides.RouteDetails, targetArrival time.Time) {
	if details.TotalTime > maxRouteMinutes {
		e.log.Printf("route for vehicle %d takes %.1f minutes, longer than a day; leaving schedule empty",
			vehicle.Id, details.TotalTime)
		return
	}

	departure := targetArrival.Add(-minutesDuration(details.TotalTime)).Round(time.Minute)
	details.DepartureTime = departure.Format(rides.ClockLayout)
	departureClock := details.DepartureTime
	vehicle.DepartureTime = &departureClock

	for i := range details.Stops {
		stop := &details.Stops[i]
		at := departure.Add(minutesDuration(stop.CumulativeTime)).Round(time.Minute)
		if at.After(targetArrival) {
			at = targetArrival
		}
		stop.PickupTime = at.Format(rides.ClockLayout)
	}

	for i, passenger := range vehicle.AssignedPassengers {
		pickup := details.Stops[i].PickupTime
		passenger.EstimatedPickupTime = &pickup
	}
}

func minutesDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}

// straightLineLegs estimates legs between consecutive waypoints at
// fallbackSpeedKmh.
func straightLineLegs(waypoints []geo.Point) []directions.Leg {
	legs := make([]directions.Leg, 0, len(waypoints)-1)
	for i := 1; i < len(waypoints); i++ {
		km := geo.DistanceKm(waypoints[i-1], waypoints[i])
		legs = append(legs, directions.Leg{
			DistanceMeters:  km * 1000,
			DurationSeconds: km / fallbackSpeedKmh * 3600,
		})
	}
	return legs
}

func coordinatePath(points []geo.Point) []rides.Coordinate {
	if len(points) == 0 {
		return nil
	}
	path := make([]rides.Coordinate, 0, len(points))
	for _, p := range points {
		path = append(path, rides.Coordinate{Lat: p.Lat, Lng: p.Lng})
	}
	return path
}
