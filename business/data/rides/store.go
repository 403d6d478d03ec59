package rides

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNoDestination is returned when the destination row has not been
// configured yet.
var ErrNoDestination = errors.New("no destination configured")

// Settings row names used by the scheduler.
const (
	settingSchedulingEnabled = "scheduling_enabled"
	settingSchedulingTime    = "scheduling_time"
)

// GetDestination retrieves the singleton destination.
func GetDestination(db *sqlx.DB) (*Destination, error) {
	query := "select id, name, lat, lng, address, target_arrival_time from destination order by id limit 1"
	dest := Destination{}
	err := db.Get(&dest, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDestination
	}
	if err != nil {
		return nil, fmt.Errorf("loading destination: %w", err)
	}
	return &dest, nil
}

// GetAvailableVehicles retrieves vehicles marked available for tomorrow,
// ordered by id for deterministic solver input.
func GetAvailableVehicles(db *sqlx.DB) ([]*Vehicle, error) {
	query := "select id, user_id, capacity, start_lat, start_lng, start_address, available_tomorrow, departure_time " +
		"from vehicles where available_tomorrow = 1 order by id"
	var vehicles []*Vehicle
	if err := db.Select(&vehicles, query); err != nil {
		return nil, fmt.Errorf("loading available vehicles: %w", err)
	}
	return vehicles, nil
}

// GetAvailablePassengers retrieves passengers marked available for
// tomorrow, ordered by id for deterministic solver input.
func GetAvailablePassengers(db *sqlx.DB) ([]*Passenger, error) {
	query := "select id, user_id, name, lat, lng, address, available_tomorrow, estimated_pickup_time " +
		"from passengers where available_tomorrow = 1 order by id"
	var passengers []*Passenger
	if err := db.Select(&passengers, query); err != nil {
		return nil, fmt.Errorf("loading available passengers: %w", err)
	}
	return passengers, nil
}

// GetSchedulingSettings reads the scheduler settings rows. Missing rows
// produce disabled settings rather than an error so a fresh database is
// valid.
func GetSchedulingSettings(db *sqlx.DB) (*SchedulingSettings, error) {
	settings := SchedulingSettings{}

	enabled, err := getSetting(db, settingSchedulingEnabled)
	if err != nil {
		return nil, err
	}
	settings.Enabled = enabled == "1"

	scheduledTime, err := getSetting(db, settingSchedulingTime)
	if err != nil {
		return nil, err
	}
	settings.ScheduledTime = scheduledTime
	return &settings, nil
}

// SetSchedulingSettings stores the scheduler settings rows.
func SetSchedulingSettings(db *sqlx.DB, settings *SchedulingSettings) error {
	if settings.ScheduledTime != "" {
		if _, err := ParseTimeOfDay(settings.ScheduledTime); err != nil {
			return err
		}
	}
	enabled := "0"
	if settings.Enabled {
		enabled = "1"
	}
	if err := setSetting(db, settingSchedulingEnabled, enabled); err != nil {
		return err
	}
	return setSetting(db, settingSchedulingTime, settings.ScheduledTime)
}

func getSetting(db *sqlx.DB, name string) (string, error) {
	var value string
	err := db.Get(&value, "select value from settings where name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading setting %s: %w", name, err)
	}
	return value, nil
}

func setSetting(db *sqlx.DB, name string, value string) error {
	statement := "insert into settings (name, value) values (?, ?) " +
		"on conflict (name) do update set value = excluded.value"
	if _, err := db.Exec(statement, name, value); err != nil {
		return fmt.Errorf("storing setting %s: %w", name, err)
	}
	return nil
}
