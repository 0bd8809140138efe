package metrics

import "github.com/prometheus/client_golang/prometheus"

// Reconcile счётчики сверки закупок с остатками.
type Reconcile struct {
	Operations    *prometheus.CounterVec // op, result
	Compensations *prometheus.CounterVec // op, result
	Orphaned      *prometheus.CounterVec // op
	RenameEdits   prometheus.Counter
	Alerts        *prometheus.CounterVec // status
}

func NewReconcile(reg prometheus.Registerer) *Reconcile {
	m := &Reconcile{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "reconcile_operations_total",
			Help:      "Purchase reconciliations by operation and result.",
		}, []string{"op", "result"}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "reconcile_compensations_total",
			Help:      "Rollbacks of the first write after the second one failed.",
		}, []string{"op", "result"}),
		Orphaned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "orphaned_purchases_total",
			Help:      "Purchases whose material name matched no raw material.",
		}, []string{"op"}),
		RenameEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "purchase_rename_edits_total",
			Help:      "Purchase edits that changed the material name.",
		}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "stock_alerts_total",
			Help:      "Low/out-of-stock transitions after reconciliation.",
		}, []string{"status"}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.Compensations, m.Orphaned, m.RenameEdits, m.Alerts)
	}
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Методы ниже безопасны для nil-получателя: метрики можно не подключать.

func (m *Reconcile) Observe(op string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, result(err)).Inc()
}

func (m *Reconcile) Compensated(op string, err error) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(op, result(err)).Inc()
}

func (m *Reconcile) Orphan(op string) {
	if m == nil {
		return
	}
	m.Orphaned.WithLabelValues(op).Inc()
}

func (m *Reconcile) Renamed() {
	if m == nil {
		return
	}
	m.RenameEdits.Inc()
}

func (m *Reconcile) Alert(status string) {
	if m == nil {
		return
	}
	m.Alerts.WithLabelValues(status).Inc()
}
