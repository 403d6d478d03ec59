package solver

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"testing"

	"github.com/RideMatchTools/ridematch/business/data/rides"
	"github.com/matryer/is"
)

var testLog = log.New(os.Stdout, "SOLVER_TEST : ", log.LstdFlags)

func testDestination() *rides.Destination {
	return &rides.Destination{
		Id:                1,
		Name:              "Office",
		Lat:               32.0741,
		Lng:               34.7922,
		TargetArrivalTime: "08:00:00",
	}
}

func makeVehicle(id int64, capacity int, lat, lng float64) *rides.Vehicle {
	return &rides.Vehicle{Id: id, Capacity: capacity, StartLat: lat, StartLng: lng, AvailableTomorrow: true}
}

func makePassenger(id int64, lat, lng float64) *rides.Passenger {
	return &rides.Passenger{Id: id, Name: fmt.Sprintf("passenger-%d", id), Lat: lat, Lng: lng, AvailableTomorrow: true}
}

// testConfig keeps unit runs fast while exercising the full operator set.
func testConfig(seed int64) Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 60
	cfg.Generations = 60
	cfg.Seed = seed
	return cfg
}

// assertInvariants checks capacity limits and passenger uniqueness across
// the whole solution.
func assertInvariants(t *testing.T, solution *rides.Solution) {
	t.Helper()
	seen := make(map[int64]int64)
	for _, v := range solution.Vehicles {
		if len(v.AssignedPassengers) > v.Capacity {
			t.Errorf("vehicle %d carries %d passengers over capacity %d",
				v.Id, len(v.AssignedPassengers), v.Capacity)
		}
		for _, p := range v.AssignedPassengers {
			if firstVehicle, dup := seen[p.Id]; dup {
				t.Errorf("passenger %d assigned to vehicles %d and %d", p.Id, firstVehicle, v.Id)
			}
			seen[p.Id] = v.Id
		}
	}
}

func TestSolveInvariantsRandomized(t *testing.T) {
	// a spread of roster shapes, each solved with several seeds
	shapes := []struct {
		vehicles   int
		capacity   int
		passengers int
	}{
		{vehicles: 1, capacity: 4, passengers: 4},
		{vehicles: 3, capacity: 2, passengers: 6},
		{vehicles: 2, capacity: 3, passengers: 9}, // oversubscribed
		{vehicles: 5, capacity: 4, passengers: 7},
	}
	for _, shape := range shapes {
		for seed := int64(1); seed <= 3; seed++ {
			name := fmt.Sprintf("v%d_c%d_p%d_seed%d", shape.vehicles, shape.capacity, shape.passengers, seed)
			t.Run(name, func(t *testing.T) {
				rosterRng := rand.New(rand.NewSource(seed * 101))
				in := Input{Destination: testDestination()}
				for i := 0; i < shape.vehicles; i++ {
					in.Vehicles = append(in.Vehicles, makeVehicle(int64(i+1), shape.capacity,
						32.0+rosterRng.Float64()*0.2, 34.7+rosterRng.Float64()*0.2))
				}
				for i := 0; i < shape.passengers; i++ {
					in.Passengers = append(in.Passengers, makePassenger(int64(i+1),
						32.0+rosterRng.Float64()*0.2, 34.7+rosterRng.Float64()*0.2))
				}

				solution, err := Solve(testLog, in, testConfig(seed))
				if err != nil {
					t.Fatalf("Solve() error: %v", err)
				}
				assertInvariants(t, solution)

				wantAssigned := shape.passengers
				if capacityTotal := shape.vehicles * shape.capacity; capacityTotal < wantAssigned {
					wantAssigned = capacityTotal
				}
				if got := solution.AssignedCount(); got != wantAssigned {
					t.Errorf("assigned %d passengers, want %d", got, wantAssigned)
				}
			})
		}
	}
}

func TestSolveDeterministicWithSeed(t *testing.T) {
	is := is.New(t)
	in := Input{
		Destination: testDestination(),
		Vehicles: []*rides.Vehicle{
			makeVehicle(1, 2, 32.10, 34.80),
			makeVehicle(2, 2, 32.05, 34.78),
		},
		Passengers: []*rides.Passenger{
			makePassenger(1, 32.09, 34.81),
			makePassenger(2, 32.08, 34.80),
			makePassenger(3, 32.06, 34.79),
		},
	}

	fingerprint := func(s *rides.Solution) string {
		out := ""
		for _, v := range s.Vehicles {
			out += fmt.Sprintf("%d:", v.Id)
			for _, p := range v.AssignedPassengers {
				out += fmt.Sprintf("%d,", p.Id)
			}
			out += ";"
		}
		return out
	}

	first, err := Solve(testLog, in, testConfig(42))
	is.NoErr(err)
	second, err := Solve(testLog, in, testConfig(42))
	is.NoErr(err)
	is.Equal(fingerprint(first), fingerprint(second))
}

func TestSolveScenarioFullCoverage(t *testing.T) {
	is := is.New(t)
	in := Input{
		Destination: testDestination(),
		Vehicles: []*rides.Vehicle{
			makeVehicle(1, 2, 32.10, 34.80),
			makeVehicle(2, 2, 32.05, 34.78),
		},
		Passengers: []*rides.Passenger{
			makePassenger(1, 32.09, 34.81),
			makePassenger(2, 32.08, 34.80),
			makePassenger(3, 32.06, 34.79),
		},
	}

	solution, err := Solve(testLog, in, testConfig(7))
	is.NoErr(err)
	assertInvariants(t, solution)
	is.Equal(solution.AssignedCount(), 3)
	// three passengers cannot fit one two-seat vehicle
	is.Equal(solution.VehiclesUsed(), 2)
}

func TestSolveEmptyPassengers(t *testing.T) {
	is := is.New(t)
	in := Input{
		Destination: testDestination(),
		Vehicles:    []*rides.Vehicle{makeVehicle(1, 2, 32.10, 34.80)},
	}
	solution, err := Solve(testLog, in, testConfig(1))
	is.NoErr(err)
	is.Equal(solution.AssignedCount(), 0)
	is.Equal(solution.VehiclesUsed(), 0)
}

func TestSolveEmptyVehicles(t *testing.T) {
	is := is.New(t)
	in := Input{
		Destination: testDestination(),
		Passengers:  []*rides.Passenger{makePassenger(1, 32.09, 34.81)},
	}
	solution, err := Solve(testLog, in, testConfig(1))
	is.NoErr(err)
	is.Equal(len(solution.Vehicles), 0)
	is.Equal(solution.AssignedCount(), 0)
}

func TestSolveOversubscribed(t *testing.T) {
	is := is.New(t)
	in := Input{
		Destination: testDestination(),
		Vehicles:    []*rides.Vehicle{makeVehicle(1, 2, 32.10, 34.80)},
	}
	for i := int64(1); i <= 5; i++ {
		in.Passengers = append(in.Passengers, makePassenger(i, 32.0+float64(i)*0.01, 34.8))
	}

	solution, err := Solve(testLog, in, testConfig(3))
	is.NoErr(err)
	assertInvariants(t, solution)
	is.Equal(solution.AssignedCount(), 2)
	is.Equal(solution.VehiclesUsed(), 1)
}

func TestSolveValidation(t *testing.T) {
	dest := testDestination()
	tests := []struct {
		name string
		in   Input
	}{
		{
			name: "negative capacity",
			in: Input{
				Destination: dest,
				Vehicles:    []*rides.Vehicle{makeVehicle(1, -1, 32.1, 34.8)},
				Passengers:  []*rides.Passenger{makePassenger(1, 32.09, 34.81)},
			},
		},
		{
			name: "zero capacity",
			in: Input{
				Destination: dest,
				Vehicles:    []*rides.Vehicle{makeVehicle(1, 0, 32.1, 34.8)},
				Passengers:  []*rides.Passenger{makePassenger(1, 32.09, 34.81)},
			},
		},
		{
			name: "duplicate passenger ids",
			in: Input{
				Destination: dest,
				Vehicles:    []*rides.Vehicle{makeVehicle(1, 2, 32.1, 34.8)},
				Passengers: []*rides.Passenger{
					makePassenger(7, 32.09, 34.81),
					makePassenger(7, 32.08, 34.80),
				},
			},
		},
		{
			name: "duplicate vehicle ids",
			in: Input{
				Destination: dest,
				Vehicles: []*rides.Vehicle{
					makeVehicle(4, 2, 32.1, 34.8),
					makeVehicle(4, 2, 32.0, 34.7),
				},
				Passengers: []*rides.Passenger{makePassenger(1, 32.09, 34.81)},
			},
		},
		{
			name: "missing destination",
			in: Input{
				Vehicles:   []*rides.Vehicle{makeVehicle(1, 2, 32.1, 34.8)},
				Passengers: []*rides.Passenger{makePassenger(1, 32.09, 34.81)},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(testLog, tt.in, testConfig(1))
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestSolvePrefersNearbyVehicle(t *testing.T) {
	is := is.New(t)
	// one vehicle sits on top of the passenger cluster, the other is far
	// away; a single vehicle should serve everyone
	in := Input{
		Destination: testDestination(),
		Vehicles: []*rides.Vehicle{
			makeVehicle(1, 4, 32.09, 34.80),
			makeVehicle(2, 4, 32.90, 35.50),
		},
		Passengers: []*rides.Passenger{
			makePassenger(1, 32.09, 34.81),
			makePassenger(2, 32.08, 34.80),
			makePassenger(3, 32.085, 34.805),
		},
	}
	solution, err := Solve(testLog, in, testConfig(11))
	is.NoErr(err)
	assertInvariants(t, solution)
	is.Equal(solution.AssignedCount(), 3)
	is.Equal(solution.VehiclesUsed(), 1)
	is.Equal(len(solution.Vehicles[0].AssignedPassengers), 3)
}
