package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/RideMatchTools/ridematch/business/data/rides"
	"github.com/RideMatchTools/ridematch/foundation/database"
	"github.com/RideMatchTools/ridematch/foundation/directions"
	"github.com/RideMatchTools/ridematch/foundation/geo"
	"github.com/jmoiron/sqlx"
)

var testLog = log.New(os.Stdout, "SCHEDULER_TEST : ", log.LstdFlags)

func openTestDb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err = rides.EnsureSchema(db); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func seedVehicle(t *testing.T, db *sqlx.DB, capacity int, lat, lng float64) int64 {
	t.Helper()
	userId, err := rides.AddUser(db, fmt.Sprintf("driver-%d-%d", time.Now().UnixNano(), capacity), rides.UserTypeDriver, "driver")
	if err != nil {
		t.Fatalf("seeding driver user: %v", err)
	}
	vehicleId, err := rides.AddVehicle(db, userId, capacity, rides.Coordinate{Lat: lat, Lng: lng}, true)
	if err != nil {
		t.Fatalf("seeding vehicle: %v", err)
	}
	return vehicleId
}

func seedPassenger(t *testing.T, db *sqlx.DB, name string, lat, lng float64) int64 {
	t.Helper()
	userId, err := rides.AddUser(db, "user-"+name, rides.UserTypePassenger, name)
	if err != nil {
		t.Fatalf("seeding passenger user: %v", err)
	}
	passengerId, err := rides.AddPassenger(db, userId, name, rides.Coordinate{Lat: lat, Lng: lng}, true)
	if err != nil {
		t.Fatalf("seeding passenger: %v", err)
	}
	return passengerId
}

func seedDestination(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if err := rides.SetDestination(db, "Office", rides.Coordinate{Lat: 32.0741, Lng: 34.7922}, "08:00:00"); err != nil {
		t.Fatalf("seeding destination: %v", err)
	}
}

// seedRoster loads a small solvable scenario: two vehicles near a cluster
// of three passengers with the destination to their southeast.
func seedRoster(t *testing.T, db *sqlx.DB) {
	t.Helper()
	seedDestination(t, db)
	seedVehicle(t, db, 2, 32.10, 34.80)
	seedVehicle(t, db, 2, 32.05, 34.78)
	seedPassenger(t, db, "alice", 32.09, 34.81)
	seedPassenger(t, db, "bob", 32.08, 34.80)
	seedPassenger(t, db, "carol", 32.06, 34.79)
}

// offlineProvider always fails, forcing straight-line route estimates.
type offlineProvider struct{}

func (offlineProvider) Directions(context.Context, []geo.Point) (*directions.Route, error) {
	return nil, errors.New("directions offline")
}

func latestRunEntry(t *testing.T, db *sqlx.DB) rides.RunLogEntry {
	t.Helper()
	entries, err := rides.GetRecentRuns(db, 1)
	if err != nil {
		t.Fatalf("loading run log: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected a run log entry")
	}
	return entries[0]
}
