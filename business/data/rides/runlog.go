package rides

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// LogSchedulingRun appends an entry to the scheduling log.
func LogSchedulingRun(db *sqlx.DB,
	runTime time.Time,
	status RunStatus,
	routesGenerated int,
	passengersAssigned int,
	message string) error {

	_, err := db.Exec(
		"insert into scheduling_log (run_time, status, routes_generated, passengers_assigned, error_message) "+
			"values (?, ?, ?, ?, ?)",
		runTime.Format(TimestampLayout), string(status), routesGenerated, passengersAssigned, message)
	if err != nil {
		return fmt.Errorf("appending scheduling log entry: %w", err)
	}
	return nil
}

// GetRecentRuns retrieves up to limit scheduling log entries, newest first.
func GetRecentRuns(db *sqlx.DB, limit int) ([]RunLogEntry, error) {
	query := "select id, run_time, status, routes_generated, passengers_assigned, error_message " +
		"from scheduling_log order by id desc limit ?"
	var entries []RunLogEntry
	if err := db.Select(&entries, query, limit); err != nil {
		return nil, fmt.Errorf("loading scheduling log: %w", err)
	}
	return entries, nil
}
