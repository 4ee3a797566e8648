package payments

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts payment pipeline outcomes, exposed on /metrics.
var Metrics = struct {
	Initiated  prometheus.Counter
	Rejected   prometheus.Counter
	Completed  prometheus.Counter
	Cancelled  prometheus.Counter
	Failed     prometheus.Counter
	Duplicates prometheus.Counter
}{
	Initiated: promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_initiated_total",
		Help: "STK push requests accepted by the gateway",
	}),
	Rejected: promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_rejected_total",
		Help: "STK push requests rejected synchronously by the gateway",
	}),
	Completed: promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_completed_total",
		Help: "Transactions that reached COMPLETED",
	}),
	Cancelled: promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_cancelled_total",
		Help: "Transactions cancelled or timed out on the payer's phone",
	}),
	Failed: promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_failed_total",
		Help: "Transactions that reached FAILED",
	}),
	Duplicates: promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_duplicate_results_total",
		Help: "Callback or query results that arrived after the transaction was already terminal",
	}),
}
