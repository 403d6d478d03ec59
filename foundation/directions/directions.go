// Package directions provides a client for route directions web services.
//
// The wire format is the common directions JSON shape: a top level status
// string where "OK" denotes success, routes containing legs with distance
// in meters and duration in seconds, and an encoded overview polyline.
package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/RideMatchTools/ridematch/foundation/geo"
)

// DefaultBaseURL is the directions endpoint used when none is configured.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/directions/json"

// requestTimeout bounds a single directions request. The caller never
// retries; a timeout is treated the same as any other failure.
const requestTimeout = 30 * time.Second

// Leg is a segment of a route between two consecutive waypoints.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Route contains the ordered legs for a waypoint sequence and the decoded
// polyline path of the whole route.
type Route struct {
	Legs     []Leg
	Polyline []geo.Point
}

// Provider produces route legs for an ordered waypoint sequence.
type Provider interface {
	Directions(ctx context.Context, waypoints []geo.Point) (*Route, error)
}

// StatusError reports a non-OK status returned by the directions service.
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directions service returned status %q", e.Status)
}

// Client requests directions over HTTP.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client against DefaultBaseURL.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, DefaultBaseURL)
}

// NewClientWithBaseURL builds a Client against an alternate endpoint,
// used by tests and self-hosted routing services.
func NewClientWithBaseURL(apiKey string, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// directionsResponse is the subset of the service response the client reads.
type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}

// Directions requests legs for the waypoint sequence. The first waypoint is
// the origin, the last the destination, and any in between are ordered
// intermediate stops. Requires at least two waypoints.
func (c *Client) Directions(ctx context.Context, waypoints []geo.Point) (*Route, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("directions requires at least 2 waypoints, got %d", len(waypoints))
	}

	requestURL, err := c.buildRequestURL(waypoints)
	if err != nil {
		return nil, fmt.Errorf("building directions request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating directions request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting directions: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions request returned http status %d", resp.StatusCode)
	}

	var decoded directionsResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding directions response: %w", err)
	}
	if decoded.Status != "OK" {
		return nil, &StatusError{Status: decoded.Status}
	}
	if len(decoded.Routes) == 0 {
		return nil, fmt.Errorf("directions response contained no routes")
	}

	first := decoded.Routes[0]
	route := Route{
		Legs: make([]Leg, 0, len(first.Legs)),
	}
	for _, leg := range first.Legs {
		route.Legs = append(route.Legs, Leg{
			DistanceMeters:  leg.Distance.Value,
			DurationSeconds: leg.Duration.Value,
		})
	}
	if wantLegs := len(waypoints) - 1; len(route.Legs) != wantLegs {
		return nil, fmt.Errorf("directions response contained %d legs for %d waypoints", len(route.Legs), len(waypoints))
	}
	route.Polyline = DecodePolyline(first.OverviewPolyline.Points)
	return &route, nil
}

func (c *Client) buildRequestURL(waypoints []geo.Point) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("origin", waypoints[0].String())
	q.Set("destination", waypoints[len(waypoints)-1].String())
	if len(waypoints) > 2 {
		q.Set("waypoints", geo.WaypointKey(waypoints[1:len(waypoints)-1]))
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
