package rides

import (
	"fmt"
	"log"
	"time"

	"github.com/RideMatchTools/ridematch/foundation/database"
	"github.com/jmoiron/sqlx"
)

/*
SaveSolution persists a solved route plan in a single transaction: the
Routes row for solutionDate, then per vehicle with passengers a
RouteDetails row, its PassengerAssignments in stop order, its
RoutePathPoints, and the vehicle departure and passenger pickup time
updates. All-or-nothing; on any error the transaction is rolled back and
nothing is visible to readers.

Repeated runs on the same solutionDate append a new Routes row; history
is preserved and readers take the newest.

Returns the new route id.
*/
func SaveSolution(log *log.Logger,
	db *sqlx.DB,
	solution *Solution,
	details map[int64]*RouteDetails,
	solutionDate string,
	generatedAt time.Time) (int64, error) {

	var routeId int64
	err := database.Transact(log, db, func(tx *sqlx.Tx) error {
		result, err := tx.Exec("insert into routes (solution_date, generated_time) values (?, ?)",
			solutionDate, generatedAt.Format(TimestampLayout))
		if err != nil {
			return fmt.Errorf("inserting route for %s: %w", solutionDate, err)
		}
		routeId, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("retrieving new route id: %w", err)
		}

		for _, vehicle := range solution.Vehicles {
			if len(vehicle.AssignedPassengers) == 0 {
				continue
			}
			routeDetails := details[vehicle.Id]
			if routeDetails == nil {
				return fmt.Errorf("no route details for vehicle %d", vehicle.Id)
			}
			if err = saveVehicleRoute(tx, routeId, vehicle, routeDetails); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return routeId, nil
}

func saveVehicleRoute(tx *sqlx.Tx, routeId int64, vehicle *Vehicle, details *RouteDetails) error {
	result, err := tx.Exec(
		"insert into route_details (route_id, vehicle_id, total_distance, total_time, departure_time) "+
			"values (?, ?, ?, ?, ?)",
		routeId, vehicle.Id, details.TotalDistance, details.TotalTime, details.DepartureTime)
	if err != nil {
		return fmt.Errorf("inserting route details for vehicle %d: %w", vehicle.Id, err)
	}
	detailId, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("retrieving new route detail id: %w", err)
	}

	stopOrder := 0
	for _, stop := range details.Stops {
		if stop.PassengerId == DestinationStop {
			continue
		}
		stopOrder++
		_, err = tx.Exec(
			"insert into passenger_assignments (route_detail_id, passenger_id, stop_order, estimated_pickup_time) "+
				"values (?, ?, ?, ?)",
			detailId, stop.PassengerId, stopOrder, stop.PickupTime)
		if err != nil {
			return fmt.Errorf("inserting assignment for passenger %d: %w", stop.PassengerId, err)
		}
		_, err = tx.Exec("update passengers set estimated_pickup_time = ? where id = ?",
			stop.PickupTime, stop.PassengerId)
		if err != nil {
			return fmt.Errorf("updating pickup time for passenger %d: %w", stop.PassengerId, err)
		}
	}

	for i, point := range details.Path {
		_, err = tx.Exec(
			"insert into route_path_points (route_detail_id, point_order, lat, lng) values (?, ?, ?, ?)",
			detailId, i+1, point.Lat, point.Lng)
		if err != nil {
			return fmt.Errorf("inserting path point %d for vehicle %d: %w", i+1, vehicle.Id, err)
		}
	}

	_, err = tx.Exec("update vehicles set departure_time = ? where id = ?",
		details.DepartureTime, vehicle.Id)
	if err != nil {
		return fmt.Errorf("updating departure time for vehicle %d: %w", vehicle.Id, err)
	}
	return nil
}
