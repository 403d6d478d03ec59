package scheduler

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestPublishSendsNotice(t *testing.T) {
	is := is.New(t)
	dest := &captureDestination{}
	publisher := makePlanPublisher(testLog, dest, "ridematch.routeplan")

	publisher.publish(routePlanNotice{
		RouteId:            7,
		SolutionDate:       "2024-03-16",
		GeneratedAt:        "2024-03-15 18:30:00",
		RoutesGenerated:    2,
		PassengersAssigned: 3,
	})

	is.Equal(len(dest.subjects), 1)
	is.Equal(dest.subjects[0], "ridematch.routeplan")
	var decoded routePlanNotice
	is.NoErr(json.Unmarshal(dest.payloads[0], &decoded))
	is.Equal(decoded.RouteId, int64(7))
	is.Equal(decoded.RoutesGenerated, 2)
}

func TestPublishWithoutDestination(t *testing.T) {
	publisher := makePlanPublisher(testLog, nil, "ridematch.routeplan")
	// publication disabled, must not panic
	publisher.publish(routePlanNotice{RouteId: 1})
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	dest := &captureDestination{err: errors.New("connection closed")}
	publisher := makePlanPublisher(testLog, dest, "ridematch.routeplan")
	publisher.publish(routePlanNotice{RouteId: 1})
	if len(dest.subjects) != 0 {
		t.Errorf("expected no recorded publishes, got %d", len(dest.subjects))
	}
}
