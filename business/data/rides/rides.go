// Package rides provides ride matching domain records and CRUD functionality
package rides

import (
	"database/sql/driver"
	"fmt"

	"github.com/RideMatchTools/ridematch/foundation/geo"
)

// Flag is a boolean persisted as 0/1.
type Flag bool

// Scan implements sql.Scanner for integer and text representations.
func (f *Flag) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(v)
	case int64:
		*f = v != 0
	case []byte:
		*f = len(v) > 0 && v[0] == '1'
	case string:
		*f = len(v) > 0 && v[0] == '1'
	default:
		return fmt.Errorf("cannot scan %T into Flag", value)
	}
	return nil
}

// Value implements driver.Valuer storing the flag as 0/1.
func (f Flag) Value() (driver.Value, error) {
	if f {
		return int64(1), nil
	}
	return int64(0), nil
}

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Point converts the coordinate for geometry and directions calls.
func (c Coordinate) Point() geo.Point {
	return geo.Point{Lat: c.Lat, Lng: c.Lng}
}

// UserType enumerates the account types in the users table.
type UserType string

const (
	UserTypeAdmin     UserType = "Admin"
	UserTypeDriver    UserType = "Driver"
	UserTypePassenger UserType = "Passenger"
)

// User is an account record. The scheduler core only needs users for
// referential integrity of vehicles and passengers.
type User struct {
	Id           int64    `db:"id"`
	Username     string   `db:"username"`
	PasswordHash string   `db:"password_hash"`
	UserType     UserType `db:"user_type"`
	Name         string   `db:"name"`
	Email        string   `db:"email"`
	Phone        string   `db:"phone"`
	CreatedDate  string   `db:"created_date"`
}

// Passenger is a rider with a pickup location.
// EstimatedPickupTime is an output slot filled by the routing engine.
type Passenger struct {
	Id                  int64   `db:"id"`
	UserId              int64   `db:"user_id"`
	Name                string  `db:"name"`
	Lat                 float64 `db:"lat"`
	Lng                 float64 `db:"lng"`
	Address             string  `db:"address"`
	AvailableTomorrow   Flag    `db:"available_tomorrow"`
	EstimatedPickupTime *string `db:"estimated_pickup_time"`
}

// Location returns the passenger pickup coordinate.
func (p *Passenger) Location() Coordinate {
	return Coordinate{Lat: p.Lat, Lng: p.Lng}
}

// Vehicle is a driver's car with a start location and seat capacity.
// AssignedPassengers, TotalDistance, TotalTime and RoutePath are output
// slots filled by the solver and routing engine; they are persisted through
// SaveSolution, not on the vehicle row.
type Vehicle struct {
	Id                int64   `db:"id"`
	UserId            int64   `db:"user_id"`
	Capacity          int     `db:"capacity"`
	StartLat          float64 `db:"start_lat"`
	StartLng          float64 `db:"start_lng"`
	StartAddress      string  `db:"start_address"`
	AvailableTomorrow Flag    `db:"available_tomorrow"`
	DepartureTime     *string `db:"departure_time"`

	AssignedPassengers []*Passenger `db:"-"`
	TotalDistance      float64      `db:"-"`
	TotalTime          float64      `db:"-"`
	RoutePath          []Coordinate `db:"-"`
}

// Start returns the vehicle start coordinate.
func (v *Vehicle) Start() Coordinate {
	return Coordinate{Lat: v.StartLat, Lng: v.StartLng}
}

// Destination is the singleton shared trip destination.
type Destination struct {
	Id      int64   `db:"id"`
	Name    string  `db:"name"`
	Lat     float64 `db:"lat"`
	Lng     float64 `db:"lng"`
	Address string  `db:"address"`
	// TargetArrivalTime is a time of day formatted "HH:MM:SS".
	TargetArrivalTime string `db:"target_arrival_time"`
}

// Location returns the destination coordinate.
func (d *Destination) Location() Coordinate {
	return Coordinate{Lat: d.Lat, Lng: d.Lng}
}

// Solution is a full vehicle-to-passengers assignment with per-vehicle
// pickup ordering. Not every passenger need be assigned.
type Solution struct {
	Vehicles []*Vehicle
}

// AssignedCount returns the number of passengers assigned across vehicles.
func (s *Solution) AssignedCount() int {
	count := 0
	for _, v := range s.Vehicles {
		count += len(v.AssignedPassengers)
	}
	return count
}

// VehiclesUsed returns the number of vehicles carrying at least one passenger.
func (s *Solution) VehiclesUsed() int {
	used := 0
	for _, v := range s.Vehicles {
		if len(v.AssignedPassengers) > 0 {
			used++
		}
	}
	return used
}

// DestinationStop is the sentinel passenger id marking the final
// destination stop in RouteDetails.
const DestinationStop int64 = 0

// Stop is a pickup or the final destination within a vehicle route.
type Stop struct {
	PassengerId          int64
	DistanceFromPrevious float64
	TimeFromPrevious     float64
	CumulativeDistance   float64
	CumulativeTime       float64
	// PickupTime is the clock time "HH:MM" for pickups, or the arrival
	// time for the destination stop. Empty when timing was impossible.
	PickupTime string
}

// RouteDetails carries the computed distance, timing and path of one
// vehicle's route.
type RouteDetails struct {
	VehicleId     int64
	TotalDistance float64 // kilometers
	TotalTime     float64 // minutes
	DepartureTime string  // "HH:MM", empty when timing was impossible
	Stops         []Stop
	Path          []Coordinate
}

// RunStatus is the outcome of one scheduling run.
type RunStatus string

const (
	RunSuccess RunStatus = "Success"
	RunFailed  RunStatus = "Failed"
	RunSkipped RunStatus = "Skipped"
	RunError   RunStatus = "Error"
)

// RunLogEntry records the outcome of one scheduling run. The scheduling
// log is append-only and is the ground truth for run outcomes.
type RunLogEntry struct {
	Id                 int64     `db:"id"`
	RunTime            string    `db:"run_time"`
	Status             RunStatus `db:"status"`
	RoutesGenerated    int       `db:"routes_generated"`
	PassengersAssigned int       `db:"passengers_assigned"`
	ErrorMessage       string    `db:"error_message"`
}

// SchedulingSettings controls when the daily pipeline fires. Read from the
// store on every tick so admins can change them at runtime.
type SchedulingSettings struct {
	Enabled bool
	// ScheduledTime is a time of day formatted "HH:MM:SS".
	ScheduledTime string
}
