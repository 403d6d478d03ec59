package solver

import (
	"sort"

	"github.com/RideMatchTools/ridematch/business/data/rides"
	"github.com/RideMatchTools/ridematch/foundation/geo"
)

// unassigned is the sentinel vehicle index for passengers left out of the
// solution.
const unassigned = -1

// gene places one passenger: the index of its vehicle and a sort key
// ordering it within the vehicle's pickup sequence.
type gene struct {
	vehicle int
	order   float64
}

// chromosome is a candidate solution: one gene per passenger, indexed by
// passenger position in the problem input, plus its evaluated metrics.
type chromosome struct {
	genes []gene

	cost         float64
	distanceKm   float64
	timeMinutes  float64
	vehiclesUsed int
	unassigned   int
}

func (c *chromosome) copyFrom(src *chromosome) {
	copy(c.genes, src.genes)
	c.cost = src.cost
	c.distanceKm = src.distanceKm
	c.timeMinutes = src.timeMinutes
	c.vehiclesUsed = src.vehiclesUsed
	c.unassigned = src.unassigned
}

// problem holds the immutable inputs and scratch buffers for one solver run.
type problem struct {
	passengers []*rides.Passenger
	vehicles   []*rides.Vehicle
	cfg        Config

	dest   geo.Point
	points []geo.Point // passenger pickup points, by passenger index
	starts []geo.Point // vehicle start points, by vehicle index

	// routeScratch is reused by decode; one slice per vehicle.
	routeScratch [][]int
}

func newProblem(in Input, cfg Config) *problem {
	p := problem{
		passengers:   in.Passengers,
		vehicles:     in.Vehicles,
		cfg:          cfg,
		dest:         in.Destination.Location().Point(),
		points:       make([]geo.Point, len(in.Passengers)),
		starts:       make([]geo.Point, len(in.Vehicles)),
		routeScratch: make([][]int, len(in.Vehicles)),
	}
	for i, passenger := range in.Passengers {
		p.points[i] = passenger.Location().Point()
	}
	for i, vehicle := range in.Vehicles {
		p.starts[i] = vehicle.Start().Point()
		p.routeScratch[i] = make([]int, 0, len(in.Passengers))
	}
	return &p
}

// legKm estimates road distance between two points.
func (p *problem) legKm(a, b geo.Point) float64 {
	return geo.DistanceKm(a, b) * p.cfg.RoadFactor
}

// decode groups passenger indexes by vehicle, ordered by gene order key
// with passenger index as tie break. The returned slices are scratch
// storage valid until the next decode.
func (p *problem) decode(c *chromosome) [][]int {
	for v := range p.routeScratch {
		p.routeScratch[v] = p.routeScratch[v][:0]
	}
	for passengerIdx, g := range c.genes {
		if g.vehicle == unassigned {
			continue
		}
		p.routeScratch[g.vehicle] = append(p.routeScratch[g.vehicle], passengerIdx)
	}
	for v := range p.routeScratch {
		route := p.routeScratch[v]
		genes := c.genes
		sort.SliceStable(route, func(i, j int) bool {
			gi, gj := genes[route[i]], genes[route[j]]
			if gi.order != gj.order {
				return gi.order < gj.order
			}
			return route[i] < route[j]
		})
	}
	return p.routeScratch
}

// routeMetrics estimates the distance and time of one vehicle route
// start -> pickups -> destination.
func (p *problem) routeMetrics(vehicleIdx int, route []int) (km float64, minutes float64) {
	if len(route) == 0 {
		return 0, 0
	}
	at := p.starts[vehicleIdx]
	for _, passengerIdx := range route {
		km += p.legKm(at, p.points[passengerIdx])
		at = p.points[passengerIdx]
	}
	km += p.legKm(at, p.dest)
	minutes = km / p.cfg.AverageSpeedKmh * 60
	return km, minutes
}

// evaluate computes the metrics and weighted cost of a candidate.
func (p *problem) evaluate(c *chromosome) {
	routes := p.decode(c)

	c.distanceKm = 0
	c.timeMinutes = 0
	c.vehiclesUsed = 0
	for vehicleIdx, route := range routes {
		if len(route) == 0 {
			continue
		}
		km, minutes := p.routeMetrics(vehicleIdx, route)
		c.distanceKm += km
		c.timeMinutes += minutes
		c.vehiclesUsed++
	}

	c.unassigned = 0
	for _, g := range c.genes {
		if g.vehicle == unassigned {
			c.unassigned++
		}
	}

	c.cost = p.cfg.DistanceWeight*c.distanceKm +
		p.cfg.TimeWeight*c.timeMinutes +
		p.cfg.VehicleWeight*float64(c.vehiclesUsed) +
		p.cfg.UnassignedPenalty*float64(c.unassigned)
}

// better reports whether a beats b. Equal costs break ties toward fewer
// vehicles used, then lower total time, then lower total distance, then
// the lexicographically smaller assignment, which follows vehicle order.
func (p *problem) better(a, b *chromosome) bool {
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.vehiclesUsed != b.vehiclesUsed {
		return a.vehiclesUsed < b.vehiclesUsed
	}
	if a.timeMinutes != b.timeMinutes {
		return a.timeMinutes < b.timeMinutes
	}
	if a.distanceKm != b.distanceKm {
		return a.distanceKm < b.distanceKm
	}
	for i := range a.genes {
		if a.genes[i].vehicle != b.genes[i].vehicle {
			return a.genes[i].vehicle < b.genes[i].vehicle
		}
	}
	return false
}

// bestOf returns the best chromosome of the population.
func (p *problem) bestOf(population []chromosome) *chromosome {
	best := &population[0]
	for i := 1; i < len(population); i++ {
		if p.better(&population[i], best) {
			best = &population[i]
		}
	}
	return best
}

// repair evicts passengers from over-capacity vehicles, largest detour
// contribution first, and greedily reinserts them into vehicles with
// remaining seats. Passengers that fit nowhere become unassigned. Order
// keys are renumbered to stop positions afterwards so crossover offspring
// keep well-formed orderings.
func (p *problem) repair(c *chromosome) {
	routes := p.decode(c)

	var evicted []int
	for vehicleIdx, route := range routes {
		capacity := p.vehicles[vehicleIdx].Capacity
		for len(route) > capacity {
			worst := 0
			worstDetour := -1.0
			for i := range route {
				detour := p.removalSaving(vehicleIdx, route, i)
				if detour > worstDetour {
					worstDetour = detour
					worst = i
				}
			}
			evicted = append(evicted, route[worst])
			route = append(route[:worst], route[worst+1:]...)
		}
		routes[vehicleIdx] = route
	}

	for _, passengerIdx := range evicted {
		vehicleIdx, position := p.bestInsertion(routes, passengerIdx)
		if vehicleIdx == unassigned {
			c.genes[passengerIdx] = gene{vehicle: unassigned}
			continue
		}
		route := routes[vehicleIdx]
		route = append(route, 0)
		copy(route[position+1:], route[position:])
		route[position] = passengerIdx
		routes[vehicleIdx] = route
	}

	renumber(c, routes)
}

// removalSaving estimates the distance saved by removing route[i].
func (p *problem) removalSaving(vehicleIdx int, route []int, i int) float64 {
	prev := p.starts[vehicleIdx]
	if i > 0 {
		prev = p.points[route[i-1]]
	}
	next := p.dest
	if i < len(route)-1 {
		next = p.points[route[i+1]]
	}
	point := p.points[route[i]]
	return p.legKm(prev, point) + p.legKm(point, next) - p.legKm(prev, next)
}

// insertionCost estimates the added distance of inserting passengerIdx
// before position in the vehicle's route.
func (p *problem) insertionCost(vehicleIdx int, route []int, passengerIdx int, position int) float64 {
	prev := p.starts[vehicleIdx]
	if position > 0 {
		prev = p.points[route[position-1]]
	}
	next := p.dest
	if position < len(route) {
		next = p.points[route[position]]
	}
	point := p.points[passengerIdx]
	return p.legKm(prev, point) + p.legKm(point, next) - p.legKm(prev, next)
}

// bestInsertion finds the vehicle with remaining capacity and the position
// minimizing added distance, or unassigned when every vehicle is full.
func (p *problem) bestInsertion(routes [][]int, passengerIdx int) (vehicleIdx int, position int) {
	bestVehicle := unassigned
	bestPosition := 0
	bestCost := 0.0
	for v, route := range routes {
		if len(route) >= p.vehicles[v].Capacity {
			continue
		}
		for pos := 0; pos <= len(route); pos++ {
			cost := p.insertionCost(v, route, passengerIdx, pos)
			if bestVehicle == unassigned || cost < bestCost {
				bestVehicle = v
				bestPosition = pos
				bestCost = cost
			}
		}
	}
	return bestVehicle, bestPosition
}

// renumber rewrites genes from explicit routes, assigning order keys by
// stop position.
func renumber(c *chromosome, routes [][]int) {
	for vehicleIdx, route := range routes {
		for position, passengerIdx := range route {
			c.genes[passengerIdx] = gene{vehicle: vehicleIdx, order: float64(position)}
		}
	}
}
