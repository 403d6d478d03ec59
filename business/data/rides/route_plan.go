package rides

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// StoredAssignment is a persisted passenger pickup within a route detail.
type StoredAssignment struct {
	Id                  int64  `db:"id"`
	RouteDetailId       int64  `db:"route_detail_id"`
	PassengerId         int64  `db:"passenger_id"`
	StopOrder           int    `db:"stop_order"`
	EstimatedPickupTime string `db:"estimated_pickup_time"`
}

// StoredRouteDetail is a persisted vehicle route with its assignments and
// path, as read back from the store.
type StoredRouteDetail struct {
	Id            int64   `db:"id"`
	RouteId       int64   `db:"route_id"`
	VehicleId     int64   `db:"vehicle_id"`
	TotalDistance float64 `db:"total_distance"`
	TotalTime     float64 `db:"total_time"`
	DepartureTime string  `db:"departure_time"`

	Assignments []StoredAssignment `db:"-"`
	Path        []Coordinate       `db:"-"`
}

// RoutePlan is a persisted RouteSet: the Routes row plus its details.
type RoutePlan struct {
	RouteId       int64  `db:"id"`
	SolutionDate  string `db:"solution_date"`
	GeneratedTime string `db:"generated_time"`

	Details []StoredRouteDetail `db:"-"`
}

// GetLatestRoutePlan retrieves the most recently generated route plan, or
// nil when none has been persisted.
func GetLatestRoutePlan(db *sqlx.DB) (*RoutePlan, error) {
	plan := RoutePlan{}
	err := db.Get(&plan, "select id, solution_date, generated_time from routes order by id desc limit 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest route plan: %w", err)
	}
	if err = loadRoutePlanDetails(db, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetRoutePlan retrieves the route plan with routeId.
func GetRoutePlan(db *sqlx.DB, routeId int64) (*RoutePlan, error) {
	plan := RoutePlan{}
	err := db.Get(&plan, "select id, solution_date, generated_time from routes where id = ?", routeId)
	if err != nil {
		return nil, fmt.Errorf("loading route plan %d: %w", routeId, err)
	}
	if err = loadRoutePlanDetails(db, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func loadRoutePlanDetails(db *sqlx.DB, plan *RoutePlan) error {
	query := "select id, route_id, vehicle_id, total_distance, total_time, departure_time " +
		"from route_details where route_id = ? order by id"
	var details []StoredRouteDetail
	if err := db.Select(&details, query, plan.RouteId); err != nil {
		return fmt.Errorf("loading route details for route %d: %w", plan.RouteId, err)
	}

	for i := range details {
		detail := &details[i]
		assignmentQuery := "select id, route_detail_id, passenger_id, stop_order, estimated_pickup_time " +
			"from passenger_assignments where route_detail_id = ? order by stop_order"
		if err := db.Select(&detail.Assignments, assignmentQuery, detail.Id); err != nil {
			return fmt.Errorf("loading assignments for route detail %d: %w", detail.Id, err)
		}

		pathQuery := "select lat, lng from route_path_points where route_detail_id = ? order by point_order"
		rows, err := db.Queryx(pathQuery, detail.Id)
		if err != nil {
			return fmt.Errorf("loading path points for route detail %d: %w", detail.Id, err)
		}
		for rows.Next() {
			var point Coordinate
			if err = rows.Scan(&point.Lat, &point.Lng); err != nil {
				_ = rows.Close()
				return fmt.Errorf("scanning path point for route detail %d: %w", detail.Id, err)
			}
			detail.Path = append(detail.Path, point)
		}
		if err = rows.Err(); err != nil {
			return fmt.Errorf("reading path points for route detail %d: %w", detail.Id, err)
		}
		_ = rows.Close()
	}
	plan.Details = details
	return nil
}
