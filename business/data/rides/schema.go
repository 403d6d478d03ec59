package rides

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the ride matching tables. Statements are
// idempotent so EnsureSchema can run on every service start.
var schemaStatements = []string{
	`create table if not exists users (
		id integer primary key autoincrement,
		username text not null unique,
		password_hash text not null,
		user_type text not null,
		name text not null default '',
		email text not null default '',
		phone text not null default '',
		created_date text not null default ''
	)`,
	`create table if not exists vehicles (
		id integer primary key autoincrement,
		user_id integer not null unique references users (id),
		capacity integer not null,
		start_lat real not null,
		start_lng real not null,
		start_address text not null default '',
		available_tomorrow integer not null default 0,
		departure_time text
	)`,
	`create table if not exists passengers (
		id integer primary key autoincrement,
		user_id integer not null references users (id),
		name text not null default '',
		lat real not null,
		lng real not null,
		address text not null default '',
		available_tomorrow integer not null default 0,
		estimated_pickup_time text
	)`,
	`create table if not exists destination (
		id integer primary key autoincrement,
		name text not null default '',
		lat real not null,
		lng real not null,
		address text not null default '',
		target_arrival_time text not null
	)`,
	`create table if not exists routes (
		id integer primary key autoincrement,
		solution_date text not null,
		generated_time text not null
	)`,
	`create table if not exists route_details (
		id integer primary key autoincrement,
		route_id integer not null references routes (id),
		vehicle_id integer not null references vehicles (id),
		total_distance real not null,
		total_time real not null,
		departure_time text not null default ''
	)`,
	`create table if not exists passenger_assignments (
		id integer primary key autoincrement,
		route_detail_id integer not null references route_details (id),
		passenger_id integer not null references passengers (id),
		stop_order integer not null,
		estimated_pickup_time text not null default ''
	)`,
	`create table if not exists route_path_points (
		id integer primary key autoincrement,
		route_detail_id integer not null references route_details (id),
		point_order integer not null,
		lat real not null,
		lng real not null
	)`,
	`create table if not exists settings (
		name text primary key,
		value text not null
	)`,
	`create table if not exists scheduling_log (
		id integer primary key autoincrement,
		run_time text not null,
		status text not null,
		routes_generated integer not null default 0,
		passengers_assigned integer not null default 0,
		error_message text not null default ''
	)`,
	`create index if not exists idx_routes_solution_date on routes (solution_date)`,
	`create index if not exists idx_route_details_route on route_details (route_id)`,
	`create index if not exists idx_assignments_detail on passenger_assignments (route_detail_id)`,
	`create index if not exists idx_path_points_detail on route_path_points (route_detail_id)`,
}

// EnsureSchema creates any missing tables and indexes. A failure here is
// fatal for the service; it refuses to start on a broken schema.
func EnsureSchema(db *sqlx.DB) error {
	for _, statement := range schemaStatements {
		if _, err := db.Exec(statement); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}
