package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/honeytracks/pkg/collector"
	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

const namespace = "honeytracks"

var deliveryStates = []tracking.State{tracking.StateIdle, tracking.StateSending, tracking.StateCooldown}

// Collector exports pipeline activity as Prometheus metrics.
// It implements tracking.Observer; pass it with tracking.WithObserver.
type Collector struct {
	eventsEnqueued   *prometheus.CounterVec
	eventsDropped    prometheus.Counter
	eventsDelivered  prometheus.Counter
	batches          *prometheus.CounterVec
	retries          *prometheus.CounterVec
	deliveryLatency  prometheus.Histogram
	backlog          prometheus.Gauge
	state            *prometheus.GaugeVec
	collectorReplies *prometheus.CounterVec
}

var _ tracking.Observer = (*Collector)(nil)

// New builds an unregistered collector.
func New() *Collector {
	c := &Collector{
		eventsEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_enqueued_total",
				Help:      "Total number of events accepted into the backlog by category.",
			},
			[]string{"category"}, // e.g. User, Feature, VirtualGoods
		),
		eventsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_dropped_total",
				Help:      "Total number of events evicted because the backlog was full.",
			},
		),
		eventsDelivered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_delivered_total",
				Help:      "Total number of events accepted by the collector.",
			},
		),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of batch delivery attempts by result.",
			},
			[]string{"result"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of failed batches queued for retry by reason.",
			},
			[]string{"reason"}, // permanent, temporary, timeout, circuit_open, other
		),
		deliveryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "delivery_latency_seconds",
				Help:      "Latency of successful batch deliveries.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		backlog: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backlog_size",
				Help:      "Number of events waiting in memory.",
			},
		),
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "delivery_state",
				Help:      "Current delivery state; exactly one state is 1.",
			},
			[]string{"state"},
		),
		collectorReplies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collector_responses_total",
				Help:      "Total number of collector responses by HTTP status code.",
			},
			[]string{"code"},
		),
	}
	c.setState(tracking.StateIdle)
	return c
}

// MustRegister registers every metric with reg and panics on conflict.
func (c *Collector) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.eventsEnqueued,
		c.eventsDropped,
		c.eventsDelivered,
		c.batches,
		c.retries,
		c.deliveryLatency,
		c.backlog,
		c.state,
		c.collectorReplies,
	)
}

func (c *Collector) EventEnqueued(action string) {
	c.eventsEnqueued.WithLabelValues(category(action)).Inc()
}

func (c *Collector) EventsDropped(count int) {
	c.eventsDropped.Add(float64(count))
}

func (c *Collector) BatchSent(size int, took time.Duration) {
	c.batches.WithLabelValues("sent").Inc()
	c.eventsDelivered.Add(float64(size))
	c.deliveryLatency.Observe(took.Seconds())
}

func (c *Collector) BatchFailed(_ int, err error) {
	c.batches.WithLabelValues("failed").Inc()
	c.retries.WithLabelValues(reason(err)).Inc()
}

func (c *Collector) StateChanged(_, to tracking.State) {
	c.setState(to)
}

func (c *Collector) BacklogSize(n int) {
	c.backlog.Set(float64(n))
}

// ObserveDelivery counts collector replies. Pass it with collector.WithOnDelivery.
func (c *Collector) ObserveDelivery(r collector.Result) {
	code := "error"
	if r.StatusCode > 0 {
		code = strconv.Itoa(r.StatusCode)
	}
	c.collectorReplies.WithLabelValues(code).Inc()
}

func (c *Collector) setState(current tracking.State) {
	for _, s := range deliveryStates {
		v := 0.0
		if s == current {
			v = 1
		}
		c.state.WithLabelValues(string(s)).Set(v)
	}
}

// category keeps the label set bounded: item purchases embed the item type
// in the action name.
func category(action string) string {
	if i := strings.Index(action, "::"); i > 0 {
		return action[:i]
	}
	return "Custom"
}

func reason(err error) string {
	switch {
	case collector.IsCircuitOpen(err):
		return "circuit_open"
	case collector.IsPermanent(err):
		return "permanent"
	case errors.Is(err, collector.ErrTimeout):
		return "timeout"
	case errors.Is(err, collector.ErrTemporaryFailure):
		return "temporary"
	default:
		return "other"
	}
}
