package txn

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a Manager.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Transactions *prometheus.CounterVec
	UndoActions  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass nil to get unregistered collectors (useful in tests).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txio_transactions_total",
				Help: "Transactions by outcome (begun, committed, rolled_back)",
			},
			[]string{"outcome"},
		),
		UndoActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txio_undo_actions_total",
				Help: "Undo actions by result (registered, undone, skipped, failed)",
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.Transactions, m.UndoActions} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) transaction(outcome string) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) undo(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.UndoActions.WithLabelValues(result).Add(float64(n))
}
