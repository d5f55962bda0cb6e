// Package metrics exposes the ledger engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

type Metrics struct {
	VisitsCreated  prometheus.Counter
	VisitsApproved prometheus.Counter
	VisitsRejected prometheus.Counter

	PointsEarned prometheus.Counter
	PointsSpent  prometheus.Counter

	RedemptionsCreated   prometheus.Counter
	RedemptionsCompleted prometheus.Counter
	RedemptionsExpired   prometheus.Counter

	ProofFailures *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors against reg. Tests pass a fresh
// registry so repeated construction cannot collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VisitsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "collabuu_visits_created_total",
			Help: "Pending visits created from verified proofs.",
		}),
		VisitsApproved: factory.NewCounter(prometheus.CounterOpts{
			Name: "collabuu_visits_approved_total",
			Help: "Visits approved by a business.",
		}),
		VisitsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "collabuu_visits_rejected_total",
			Help: "Visits rejected by a business.",
		}),
		PointsEarned: factory.NewCounter(prometheus.CounterOpts{
			Name: "collabuu_loyalty_points_earned_total",
			Help: "Loyalty points credited across all ledgers.",
		}),
		PointsSpent: factory.NewCounter(prometheus.CounterOpts{
			Name: "collabuu_loyalty_points_spent_total",
			Help: "Loyalty points debited across all ledgers.",
		}),
		RedemptionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "collabuu_redemptions_created_total",
			Help: "Reward redemptions minted.",
		}),
		RedemptionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "collabuu_redemptions_completed_total",
			Help: "Reward redemptions completed at a business.",
		}),
		RedemptionsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "collabuu_redemptions_expired_total",
			Help: "Reward redemptions lazily expired at verification time.",
		}),
		ProofFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "collabuu_proof_verification_failures_total",
			Help: "Proof tokens rejected at verification.",
		}, []string{"kind"}),
	}
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
