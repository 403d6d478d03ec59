package rides

import (
	"log"
	"os"
	"testing"

	"github.com/RideMatchTools/ridematch/foundation/database"
	"github.com/jmoiron/sqlx"
)

var testLog = log.New(os.Stdout, "RIDES_TEST : ", log.LstdFlags)

// openTestDb opens a private in-memory database with the schema applied.
func openTestDb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err = EnsureSchema(db); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return db
}

// seedVehicle creates a driver user and their vehicle, returning the
// vehicle id.
func seedVehicle(t *testing.T, db *sqlx.DB, username string, capacity int, start Coordinate, available bool) int64 {
	t.Helper()
	userId, err := AddUser(db, username, UserTypeDriver, username)
	if err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	vehicleId, err := AddVehicle(db, userId, capacity, start, available)
	if err != nil {
		t.Fatalf("seeding vehicle for %s: %v", username, err)
	}
	return vehicleId
}

// seedPassenger creates a passenger user and their rider record,
// returning the passenger id.
func seedPassenger(t *testing.T, db *sqlx.DB, username string, location Coordinate, available bool) int64 {
	t.Helper()
	userId, err := AddUser(db, username, UserTypePassenger, username)
	if err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	passengerId, err := AddPassenger(db, userId, username, location, available)
	if err != nil {
		t.Fatalf("seeding passenger for %s: %v", username, err)
	}
	return passengerId
}
