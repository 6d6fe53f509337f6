// Package metrics provides Prometheus metric collection for the session workflow
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the service layer uses to record events,
// so tests and minimal setups can run without a registry.
type Recorder interface {
	RecordJoin()
	RecordJoinFailure(reason string)
	RecordMeetingCreated()
	RecordMeetingReused()
	RecordRoomEnded()
	RecordProviderLatency(operation string, duration time.Duration)
}

// Collector implements Recorder backed by Prometheus metrics
type Collector struct {
	joins           prometheus.Counter
	joinFailures    *prometheus.CounterVec
	meetingsCreated prometheus.Counter
	meetingsReused  prometheus.Counter
	roomsEnded      prometheus.Counter
	providerLatency *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics on the given registry
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		joins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "huddle_joins_total",
			Help: "Total number of successful room joins",
		}),
		joinFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_join_failures_total",
			Help: "Total number of failed room joins by failure reason",
		}, []string{"reason"}),
		meetingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "huddle_meetings_created_total",
			Help: "Total number of provider meetings created",
		}),
		meetingsReused: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "huddle_meetings_reused_total",
			Help: "Total number of joins that reused a live provider meeting",
		}),
		roomsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "huddle_rooms_ended_total",
			Help: "Total number of rooms ended with termination authority",
		}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "huddle_provider_latency_seconds",
			Help:    "Latency of conferencing provider API calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.joins,
		c.joinFailures,
		c.meetingsCreated,
		c.meetingsReused,
		c.roomsEnded,
		c.providerLatency,
	)

	return c
}

// RecordJoin records a successful join
func (c *Collector) RecordJoin() {
	c.joins.Inc()
}

// RecordJoinFailure records a failed join with its classified reason
func (c *Collector) RecordJoinFailure(reason string) {
	c.joinFailures.WithLabelValues(reason).Inc()
}

// RecordMeetingCreated records the creation of a provider meeting
func (c *Collector) RecordMeetingCreated() {
	c.meetingsCreated.Inc()
}

// RecordMeetingReused records a join that reused a live meeting
func (c *Collector) RecordMeetingReused() {
	c.meetingsReused.Inc()
}

// RecordRoomEnded records a room termination
func (c *Collector) RecordRoomEnded() {
	c.roomsEnded.Inc()
}

// RecordProviderLatency records the latency of a provider API call
func (c *Collector) RecordProviderLatency(operation string, duration time.Duration) {
	c.providerLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// Nop is a Recorder that discards all events
type Nop struct{}

func (Nop) RecordJoin()                                 {}
func (Nop) RecordJoinFailure(string)                    {}
func (Nop) RecordMeetingCreated()                       {}
func (Nop) RecordMeetingReused()                        {}
func (Nop) RecordRoomEnded()                            {}
func (Nop) RecordProviderLatency(string, time.Duration) {}

// Handler returns the HTTP handler for Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
