package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Rebalance outcomes.
const (
	RebalanceUnchanged = "unchanged"
	RebalanceAdjusted  = "adjusted"
	RebalanceClamped   = "clamped"
)

// Submission outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// CheckoutMetrics records allocation and step activity for checkout sessions.
// A nil receiver or one built without a registerer is a no-op.
type CheckoutMetrics struct {
	rebalances      *prometheus.CounterVec
	inconsistencies prometheus.Counter
	transitions     *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	submitDuration  *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	rebalances := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_rebalance_total",
		Help: "Allocator passes by outcome.",
	}, []string{"outcome"})
	inconsistencies := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_allocation_inconsistency_total",
		Help: "Allocations whose active sum differs from the cart total by more than one minor unit.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_step_transition_total",
		Help: "Checkout step transitions.",
	}, []string{"from", "to"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submission_total",
		Help: "Calls to the checkout submission service by step and outcome.",
	}, []string{"step", "outcome"})
	submitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_submission_duration_seconds",
		Help:    "Duration of checkout submission service calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})
	reg.MustRegister(rebalances, inconsistencies, transitions, submissions, submitDuration)
	return &CheckoutMetrics{
		rebalances:      rebalances,
		inconsistencies: inconsistencies,
		transitions:     transitions,
		submissions:     submissions,
		submitDuration:  submitDuration,
	}
}

// IncRebalance counts one allocator pass.
func (c *CheckoutMetrics) IncRebalance(outcome string) {
	if c == nil || c.rebalances == nil {
		return
	}
	c.rebalances.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncInconsistency counts an allocation left off-total.
func (c *CheckoutMetrics) IncInconsistency() {
	if c == nil || c.inconsistencies == nil {
		return
	}
	c.inconsistencies.Inc()
}

// IncTransition counts a step change.
func (c *CheckoutMetrics) IncTransition(from, to string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveSubmission records the outcome and latency of a submission call made from step.
func (c *CheckoutMetrics) ObserveSubmission(step, outcome string, duration time.Duration) {
	if c == nil || c.submissions == nil {
		return
	}
	step = normalizeLabel(step)
	c.submissions.WithLabelValues(step, normalizeLabel(outcome)).Inc()
	c.submitDuration.WithLabelValues(step).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
