// Package solver implements a genetic optimizer for daily ride matching:
// it partitions passengers among vehicles and orders each vehicle's pickups
// under seat capacity constraints, minimizing a weighted cost of travel
// distance, travel time, vehicles used and unassigned passengers.
//
// Distance and time inside the solver are straight-line estimates scaled by
// a road calibration factor at a constant average speed; accurate road
// timing is applied afterwards by the routing engine.
package solver

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/RideMatchTools/ridematch/business/data/rides"
)

// Config holds the genetic algorithm tuning knobs. Zero values fall back
// to the defaults from DefaultConfig.
type Config struct {
	PopulationSize int
	Generations    int
	// StallLimit ends the search early after this many generations
	// without improvement of the best cost.
	StallLimit     int
	TournamentSize int
	EliteCount     int
	MutationRate   float64
	// GreedyFraction is the share of the initial population built by
	// greedy nearest-vehicle insertion; the remainder is random-feasible.
	GreedyFraction float64

	DistanceWeight    float64
	TimeWeight        float64
	VehicleWeight     float64
	UnassignedPenalty float64

	// RoadFactor calibrates straight-line distance to road distance.
	RoadFactor float64
	// AverageSpeedKmh converts estimated distance to travel time.
	AverageSpeedKmh float64

	// Seed makes runs reproducible. Zero seeds from the clock.
	Seed int64
}

// DefaultConfig returns the standard tuning used by the scheduler.
func DefaultConfig() Config {
	return Config{
		PopulationSize:    200,
		Generations:       150,
		StallLimit:        30,
		TournamentSize:    3,
		EliteCount:        2,
		MutationRate:      0.2,
		GreedyFraction:    0.3,
		DistanceWeight:    1.0,
		TimeWeight:        0.5,
		VehicleWeight:     25.0,
		UnassignedPenalty: 10000.0,
		RoadFactor:        1.3,
		AverageSpeedKmh:   30.0,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.PopulationSize <= 0 {
		c.PopulationSize = defaults.PopulationSize
	}
	if c.Generations <= 0 {
		c.Generations = defaults.Generations
	}
	if c.StallLimit <= 0 {
		c.StallLimit = defaults.StallLimit
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = defaults.TournamentSize
	}
	if c.EliteCount <= 0 {
		c.EliteCount = defaults.EliteCount
	}
	if c.MutationRate <= 0 {
		c.MutationRate = defaults.MutationRate
	}
	if c.GreedyFraction <= 0 {
		c.GreedyFraction = defaults.GreedyFraction
	}
	if c.DistanceWeight <= 0 {
		c.DistanceWeight = defaults.DistanceWeight
	}
	if c.TimeWeight <= 0 {
		c.TimeWeight = defaults.TimeWeight
	}
	if c.VehicleWeight <= 0 {
		c.VehicleWeight = defaults.VehicleWeight
	}
	if c.UnassignedPenalty <= 0 {
		c.UnassignedPenalty = defaults.UnassignedPenalty
	}
	if c.RoadFactor <= 0 {
		c.RoadFactor = defaults.RoadFactor
	}
	if c.AverageSpeedKmh <= 0 {
		c.AverageSpeedKmh = defaults.AverageSpeedKmh
	}
	return c
}

// Input is one ride matching problem.
type Input struct {
	Passengers  []*rides.Passenger
	Vehicles    []*rides.Vehicle
	Destination *rides.Destination
	// TargetArrivalMinutes is the target arrival as minutes from
	// midnight; carried for callers that cost time windows.
	TargetArrivalMinutes int
}

// ValidationError reports invalid solver input. Fatal for the current run
// and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid solver input: %s", e.Reason)
}

func validate(in Input) error {
	seenVehicles := make(map[int64]bool, len(in.Vehicles))
	for _, v := range in.Vehicles {
		if v.Capacity < 1 {
			return &ValidationError{Reason: fmt.Sprintf("vehicle %d has capacity %d", v.Id, v.Capacity)}
		}
		if seenVehicles[v.Id] {
			return &ValidationError{Reason: fmt.Sprintf("duplicate vehicle id %d", v.Id)}
		}
		seenVehicles[v.Id] = true
	}
	seenPassengers := make(map[int64]bool, len(in.Passengers))
	for _, p := range in.Passengers {
		if seenPassengers[p.Id] {
			return &ValidationError{Reason: fmt.Sprintf("duplicate passenger id %d", p.Id)}
		}
		seenPassengers[p.Id] = true
	}
	if len(in.Passengers) > 0 && len(in.Vehicles) > 0 && in.Destination == nil {
		return &ValidationError{Reason: "destination is required"}
	}
	return nil
}

// Solve searches for a low-cost assignment of passengers to vehicles.
// With a fixed Config.Seed the same input always produces the same output.
//
// Edge cases: an empty passenger list yields a solution using no vehicles;
// an empty vehicle list yields an empty solution leaving every passenger
// unassigned. Insufficient total capacity is tolerated; the unassigned
// remainder is penalized, not rejected.
func Solve(log *log.Logger, in Input, cfg Config) (*rides.Solution, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	if len(in.Passengers) == 0 || len(in.Vehicles) == 0 {
		return emptySolution(in.Vehicles), nil
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	p := newProblem(in, cfg)

	start := time.Now()
	current := p.initialPopulation(rng)
	next := make([]chromosome, cfg.PopulationSize)
	for i := range next {
		next[i].genes = make([]gene, len(in.Passengers))
	}

	best := chromosome{genes: make([]gene, len(in.Passengers))}
	best.copyFrom(p.bestOf(current))

	stall := 0
	generations := 0
	for gen := 0; gen < cfg.Generations; gen++ {
		generations++
		p.nextGeneration(current, next, rng)
		current, next = next, current

		genBest := p.bestOf(current)
		if p.better(genBest, &best) {
			best.copyFrom(genBest)
			stall = 0
		} else {
			stall++
			if stall >= cfg.StallLimit {
				break
			}
		}
	}

	log.Printf("solver finished after %d generations in %s: cost=%.2f vehicles=%d assigned=%d unassigned=%d distance=%.2fkm time=%.1fmin",
		generations, time.Since(start).Round(time.Millisecond), best.cost, best.vehiclesUsed,
		len(in.Passengers)-best.unassigned, best.unassigned, best.distanceKm, best.timeMinutes)

	return p.buildSolution(&best), nil
}

// emptySolution returns the given vehicles with no assignments.
func emptySolution(vehicles []*rides.Vehicle) *rides.Solution {
	solution := rides.Solution{Vehicles: make([]*rides.Vehicle, 0, len(vehicles))}
	for _, v := range vehicles {
		out := *v
		out.AssignedPassengers = nil
		solution.Vehicles = append(solution.Vehicles, &out)
	}
	return &solution
}
