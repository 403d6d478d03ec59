package rides

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// AddUser inserts an account and returns its id.
func AddUser(db *sqlx.DB, username string, userType UserType, name string) (int64, error) {
	result, err := db.Exec(
		"insert into users (username, password_hash, user_type, name, created_date) values (?, ?, ?, ?, ?)",
		username, "", string(userType), name, time.Now().Format(TimestampLayout))
	if err != nil {
		return 0, fmt.Errorf("inserting user %s: %w", username, err)
	}
	return result.LastInsertId()
}

// AddVehicle inserts a vehicle owned by userId and returns its id.
func AddVehicle(db *sqlx.DB, userId int64, capacity int, start Coordinate, availableTomorrow bool) (int64, error) {
	result, err := db.Exec(
		"insert into vehicles (user_id, capacity, start_lat, start_lng, available_tomorrow) values (?, ?, ?, ?, ?)",
		userId, capacity, start.Lat, start.Lng, Flag(availableTomorrow))
	if err != nil {
		return 0, fmt.Errorf("inserting vehicle for user %d: %w", userId, err)
	}
	return result.LastInsertId()
}

// AddPassenger inserts a passenger owned by userId and returns its id.
func AddPassenger(db *sqlx.DB, userId int64, name string, location Coordinate, availableTomorrow bool) (int64, error) {
	result, err := db.Exec(
		"insert into passengers (user_id, name, lat, lng, available_tomorrow) values (?, ?, ?, ?, ?)",
		userId, name, location.Lat, location.Lng, Flag(availableTomorrow))
	if err != nil {
		return 0, fmt.Errorf("inserting passenger for user %d: %w", userId, err)
	}
	return result.LastInsertId()
}

// SetDestination replaces the singleton destination row.
func SetDestination(db *sqlx.DB, name string, location Coordinate, targetArrivalTime string) error {
	if _, err := ParseTimeOfDay(targetArrivalTime); err != nil {
		return err
	}
	if _, err := db.Exec("delete from destination"); err != nil {
		return fmt.Errorf("clearing destination: %w", err)
	}
	_, err := db.Exec("insert into destination (name, lat, lng, target_arrival_time) values (?, ?, ?, ?)",
		name, location.Lat, location.Lng, targetArrivalTime)
	if err != nil {
		return fmt.Errorf("inserting destination: %w", err)
	}
	return nil
}
