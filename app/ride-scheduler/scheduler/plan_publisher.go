package scheduler

import (
	"encoding/json"
	"log"
)

// natsDestination is the slice of nats.Conn the publisher needs.
type natsDestination interface {
	Publish(subject string, data []byte) error
}

// routePlanNotice announces a newly persisted route plan to downstream
// consumers (driver and passenger notification services).
type routePlanNotice struct {
	RouteId            int64  `json:"route_id"`
	SolutionDate       string `json:"solution_date"`
	GeneratedAt        string `json:"generated_at"`
	RoutesGenerated    int    `json:"routes_generated"`
	PassengersAssigned int    `json:"passengers_assigned"`
}

// planPublisher sends routePlanNotices over NATS. Publication is best
// effort: the plan is already persisted, so failures are logged and the
// run still counts as a success.
type planPublisher struct {
	log     *log.Logger
	dest    natsDestination
	subject string
}

// makePlanPublisher creates a planPublisher. A nil dest disables
// publication.
func makePlanPublisher(log *log.Logger, dest natsDestination, subject string) *planPublisher {
	return &planPublisher{log: log, dest: dest, subject: subject}
}

func (p *planPublisher) publish(notice routePlanNotice) {
	if p.dest == nil {
		return
	}
	data, err := json.Marshal(notice)
	if err != nil {
		p.log.Printf("error marshaling route plan notice for route %d: %v", notice.RouteId, err)
		return
	}
	if err = p.dest.Publish(p.subject, data); err != nil {
		p.log.Printf("error publishing route plan notice for route %d: %v", notice.RouteId, err)
		return
	}
	p.log.Printf("published route plan notice for route %d on %s", notice.RouteId, p.subject)
}
