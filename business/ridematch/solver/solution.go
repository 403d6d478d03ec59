package solver

import (
	"github.com/RideMatchTools/ridematch/business/data/rides"
)

// buildSolution converts a chromosome into a rides.Solution. Vehicles keep
// their input order; assigned passengers appear in pickup order.
func (p *problem) buildSolution(c *chromosome) *rides.Solution {
	routes := p.decode(c)
	solution := rides.Solution{Vehicles: make([]*rides.Vehicle, 0, len(p.vehicles))}
	for vehicleIdx, vehicle := range p.vehicles {
		out := *vehicle
		out.AssignedPassengers = nil
		for _, passengerIdx := range routes[vehicleIdx] {
			out.AssignedPassengers = append(out.AssignedPassengers, p.passengers[passengerIdx])
		}
		solution.Vehicles = append(solution.Vehicles, &out)
	}
	return &solution
}
