package solver

import (
	"math/rand"
	"sort"
)

// initialPopulation builds the starting population: a greedy fraction
// seeded by nearest-vehicle best-insertion and the remainder
// random-feasible. Every individual is evaluated.
func (p *problem) initialPopulation(rng *rand.Rand) []chromosome {
	population := make([]chromosome, p.cfg.PopulationSize)
	greedyCount := int(float64(p.cfg.PopulationSize) * p.cfg.GreedyFraction)
	for i := range population {
		population[i].genes = make([]gene, len(p.passengers))
		if i < greedyCount {
			p.seedGreedy(&population[i], rng)
		} else {
			p.seedRandom(&population[i], rng)
		}
		p.evaluate(&population[i])
	}
	return population
}

// seedGreedy assigns passengers in shuffled order, each to the vehicle and
// position with the cheapest insertion among vehicles with free seats.
func (p *problem) seedGreedy(c *chromosome, rng *rand.Rand) {
	routes := make([][]int, len(p.vehicles))
	order := rng.Perm(len(p.passengers))
	for _, passengerIdx := range order {
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

// seedRandom assigns each passenger to a uniformly random vehicle with a
// free seat, or leaves it unassigned when every vehicle is full.
func (p *problem) seedRandom(c *chromosome, rng *rand.Rand) {
	free := make([]int, len(p.vehicles))
	for i, v := range p.vehicles {
		free[i] = v.Capacity
	}
	for passengerIdx := range c.genes {
		candidates := make([]int, 0, len(p.vehicles))
		for v, remaining := range free {
			if remaining > 0 {
				candidates = append(candidates, v)
			}
		}
		if len(candidates) == 0 {
			c.genes[passengerIdx] = gene{vehicle: unassigned}
			continue
		}
		vehicleIdx := candidates[rng.Intn(len(candidates))]
		free[vehicleIdx]--
		c.genes[passengerIdx] = gene{vehicle: vehicleIdx, order: rng.Float64()}
	}
}

// nextGeneration fills next from current: elites carried unchanged, the
// remainder bred by tournament selection, uniform crossover, mutation and
// capacity repair.
func (p *problem) nextGeneration(current []chromosome, next []chromosome, rng *rand.Rand) {
	eliteCount := p.cfg.EliteCount
	if eliteCount > len(current) {
		eliteCount = len(current)
	}
	eliteIdx := p.eliteIndexes(current, eliteCount)
	for i, idx := range eliteIdx {
		next[i].copyFrom(&current[idx])
	}

	for i := eliteCount; i < len(next); i++ {
		parentA := p.tournament(current, rng)
		parentB := p.tournament(current, rng)
		child := &next[i]
		p.crossover(parentA, parentB, child, rng)
		if rng.Float64() < p.cfg.MutationRate {
			p.mutate(child, rng)
		}
		p.repair(child)
		p.evaluate(child)
	}
}

// eliteIndexes returns the indexes of the best count individuals.
func (p *problem) eliteIndexes(population []chromosome, count int) []int {
	idx := make([]int, len(population))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.better(&population[idx[a]], &population[idx[b]])
	})
	return idx[:count]
}

// tournament selects the fittest of TournamentSize random individuals;
// fitness is 1/(1+cost) so the comparison reduces to lowest cost.
func (p *problem) tournament(population []chromosome, rng *rand.Rand) *chromosome {
	best := &population[rng.Intn(len(population))]
	for i := 1; i < p.cfg.TournamentSize; i++ {
		candidate := &population[rng.Intn(len(population))]
		if p.better(candidate, best) {
			best = candidate
		}
	}
	return best
}

// crossover writes a uniform mix of the parents' genes into child. The
// caller repairs any capacity violations the mix produces.
func (p *problem) crossover(parentA, parentB, child *chromosome, rng *rand.Rand) {
	for i := range child.genes {
		if rng.Intn(2) == 0 {
			child.genes[i] = parentA.genes[i]
		} else {
			child.genes[i] = parentB.genes[i]
		}
	}
}

// mutation operators
const (
	mutateReassign = iota
	mutateSwap
	mutateReorder
	mutateDrop
	mutationOpCount
)

// mutate applies one randomly chosen operator: reassign a passenger to a
// random vehicle, swap two passengers between vehicles, reorder two stops
// within a vehicle, or drop a passenger to unassigned.
func (p *problem) mutate(c *chromosome, rng *rand.Rand) {
	passengerIdx := rng.Intn(len(c.genes))
	switch rng.Intn(mutationOpCount) {
	case mutateReassign:
		c.genes[passengerIdx] = gene{vehicle: rng.Intn(len(p.vehicles)), order: rng.Float64()}
	case mutateSwap:
		other := rng.Intn(len(c.genes))
		c.genes[passengerIdx], c.genes[other] = c.genes[other], c.genes[passengerIdx]
	case mutateReorder:
		if c.genes[passengerIdx].vehicle == unassigned {
			return
		}
		vehicleIdx := c.genes[passengerIdx].vehicle
		for _, otherIdx := range rng.Perm(len(c.genes)) {
			if otherIdx != passengerIdx && c.genes[otherIdx].vehicle == vehicleIdx {
				c.genes[passengerIdx].order, c.genes[otherIdx].order =
					c.genes[otherIdx].order, c.genes[passengerIdx].order
				return
			}
		}
	case mutateDrop:
		c.genes[passengerIdx] = gene{vehicle: unassigned}
	}
}
