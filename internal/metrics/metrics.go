package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatchesBuilt counts collection batches created by the batch builder.
	BatchesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debitorder_batches_built_total",
		Help: "Number of collection batches created",
	})

	// BatchSubmissions counts submission attempts by result
	// (submitted, rejected, ambiguous, already_submitted).
	BatchSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debitorder_batch_submissions_total",
		Help: "Batch submission attempts by result",
	}, []string{"result"})

	// TransactionOutcomes counts reconciled transaction outcomes by status.
	TransactionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debitorder_transaction_outcomes_total",
		Help: "Reconciled transaction outcomes by status",
	}, []string{"status"})

	// MembersSuspended counts members suspended at the retry ceiling.
	MembersSuspended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debitorder_members_suspended_total",
		Help: "Members suspended after reaching the retry ceiling",
	})

	// Refunds counts refund state changes by status.
	Refunds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debitorder_refunds_total",
		Help: "Refund state changes by status",
	}, []string{"status"})

	// UnresolvedDiscrepancies tracks reconciliation discrepancies awaiting
	// manual resolution.
	UnresolvedDiscrepancies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "debitorder_unresolved_discrepancies",
		Help: "Reconciliation discrepancies awaiting manual resolution",
	})
)
