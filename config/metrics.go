package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FloorTransfersTotal counts ledger movements by kind (TRANSFER, REPAIR, FLOOR_ADVANCE, ...).
	FloorTransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floor_transfers_total",
		Help: "Floor movements by kind",
	}, []string{"kind"})

	// FloorTransferUnits counts units moved between floors by kind.
	FloorTransferUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floor_transfer_units_total",
		Help: "Units moved between floors by kind",
	}, []string{"kind"})

	// OverproductionUnits counts units completed above received on the first floor.
	OverproductionUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floor_overproduction_units_total",
		Help: "Units completed above the received quantity on the first floor",
	})

	// AuditWriteFailures counts audit sink failures surfaced as warnings.
	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floor_audit_write_failures_total",
		Help: "Audit sink writes that failed after the state change committed",
	})

	// OperationDuration tracks controller operation latency.
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "floor_operation_duration_seconds",
		Help:    "Article operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"operation", "result"})
)
