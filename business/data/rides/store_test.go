package rides

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestSchedulingSettingsRoundTrip(t *testing.T) {
	is := is.New(t)
	db := openTestDb(t)

	// fresh database reads as disabled
	settings, err := GetSchedulingSettings(db)
	is.NoErr(err)
	is.Equal(settings.Enabled, false)
	is.Equal(settings.ScheduledTime, "")

	err = SetSchedulingSettings(db, &SchedulingSettings{Enabled: true, ScheduledTime: "18:30:00"})
	is.NoErr(err)

	settings, err = GetSchedulingSettings(db)
	is.NoErr(err)
	is.Equal(settings.Enabled, true)
	is.Equal(settings.ScheduledTime, "18:30:00")

	// updates overwrite in place
	err = SetSchedulingSettings(db, &SchedulingSettings{Enabled: false, ScheduledTime: "06:00:00"})
	is.NoErr(err)
	settings, err = GetSchedulingSettings(db)
	is.NoErr(err)
	is.Equal(settings.Enabled, false)
	is.Equal(settings.ScheduledTime, "06:00:00")
}

func TestSetSchedulingSettingsRejectsBadTime(t *testing.T) {
	db := openTestDb(t)
	err := SetSchedulingSettings(db, &SchedulingSettings{Enabled: true, ScheduledTime: "25:00:00"})
	if err == nil {
		t.Error("expected error for out of range scheduled time")
	}
}

func TestGetDestination(t *testing.T) {
	is := is.New(t)
	db := openTestDb(t)

	_, err := GetDestination(db)
	if !errors.Is(err, ErrNoDestination) {
		t.Fatalf("expected ErrNoDestination, got %v", err)
	}

	err = SetDestination(db, "Office", Coordinate{Lat: 32.0741, Lng: 34.7922}, "08:00:00")
	is.NoErr(err)

	dest, err := GetDestination(db)
	is.NoErr(err)
	is.Equal(dest.Name, "Office")
	is.Equal(dest.Lat, 32.0741)
	is.Equal(dest.Lng, 34.7922)
	is.Equal(dest.TargetArrivalTime, "08:00:00")
}

func TestAvailableRosterFiltering(t *testing.T) {
	is := is.New(t)
	db := openTestDb(t)

	v1 := seedVehicle(t, db, "driver1", 2, Coordinate{Lat: 32.10, Lng: 34.80}, true)
	seedVehicle(t, db, "driver2", 4, Coordinate{Lat: 32.05, Lng: 34.78}, false)
	p1 := seedPassenger(t, db, "rider1", Coordinate{Lat: 32.09, Lng: 34.81}, true)
	p2 := seedPassenger(t, db, "rider2", Coordinate{Lat: 32.08, Lng: 34.80}, true)
	seedPassenger(t, db, "rider3", Coordinate{Lat: 32.06, Lng: 34.79}, false)

	vehicles, err := GetAvailableVehicles(db)
	is.NoErr(err)
	is.Equal(len(vehicles), 1)
	is.Equal(vehicles[0].Id, v1)
	is.Equal(vehicles[0].Capacity, 2)
	is.True(bool(vehicles[0].AvailableTomorrow))

	passengers, err := GetAvailablePassengers(db)
	is.NoErr(err)
	is.Equal(len(passengers), 2)
	is.Equal(passengers[0].Id, p1)
	is.Equal(passengers[1].Id, p2)
}

func TestLogSchedulingRunAppendOnly(t *testing.T) {
	is := is.New(t)
	db := openTestDb(t)

	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.Local)
	is.NoErr(LogSchedulingRun(db, now, RunSkipped, 0, 0, "no available passengers"))
	is.NoErr(LogSchedulingRun(db, now.Add(time.Minute), RunSuccess, 2, 3, ""))

	entries, err := GetRecentRuns(db, 10)
	is.NoErr(err)
	is.Equal(len(entries), 2)
	// newest first
	is.Equal(entries[0].Status, RunSuccess)
	is.Equal(entries[0].RoutesGenerated, 2)
	is.Equal(entries[0].PassengersAssigned, 3)
	is.Equal(entries[1].Status, RunSkipped)
	is.Equal(entries[1].ErrorMessage, "no available passengers")

	limited, err := GetRecentRuns(db, 1)
	is.NoErr(err)
	is.Equal(len(limited), 1)
	is.Equal(limited[0].Status, RunSuccess)
}
