package extension

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blockberries/relayrefund/types"
)

// Post-dispatch outcomes.
const (
	OutcomeUntracked            = "untracked"
	OutcomeDispatchFailed       = "dispatch_failed"
	OutcomeRelayChainNotUpdated = "relay_chain_not_updated"
	OutcomeParachainNotUpdated  = "parachain_not_updated"
	OutcomeNoMessagesDelivered  = "no_messages_delivered"
	OutcomeRefunded             = "refunded"
	OutcomeLedgerError          = "ledger_error"
)

// Metrics counts what the extension decided. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	PostDispatch *prometheus.CounterVec
	Rewards      prometheus.Counter
	Rejected     *prometheus.CounterVec
	Classified   *prometheus.CounterVec
}

// NewMetrics creates the extension metrics and registers them with
// reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PostDispatch: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relayrefund_post_dispatch_total",
				Help: "Total number of post-dispatch decisions, grouped by outcome",
			}, []string{"outcome"}),
		Rewards: f.NewCounter(
			prometheus.CounterOpts{
				Name: "relayrefund_rewards_registered_total",
				Help: "Sum of rewards registered for relayers",
			}),
		Rejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relayrefund_rejected_stale_total",
				Help: "Total number of batch transactions rejected as stale, grouped by hook",
			}, []string{"hook"}),
		Classified: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relayrefund_classified_total",
				Help: "Total number of transactions classified at pre-dispatch, grouped by call type",
			}, []string{"call_type"}),
	}
}

func (m *Metrics) postDispatch(outcome string) {
	if m == nil {
		return
	}
	m.PostDispatch.WithLabelValues(outcome).Inc()
}

func (m *Metrics) reward(amount types.Balance) {
	if m == nil {
		return
	}
	m.Rewards.Add(float64(amount))
}

func (m *Metrics) rejected(hook string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(hook).Inc()
}

func (m *Metrics) classified(kind types.CallTypeKind) {
	if m == nil {
		return
	}
	m.Classified.WithLabelValues(kind.String()).Inc()
}
