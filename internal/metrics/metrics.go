// Package metrics implements Prometheus metrics for the registrar and
// the RTP frame reassembler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueDepth tracks the current depth of the bounded register queue.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gb28181registrar_queue_depth",
			Help: "Current number of REGISTER transactions waiting in the worker queue",
		},
	)

	// RegistrationsTotal counts completed registration attempts by result.
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gb28181registrar_registrations_total",
			Help: "Total number of REGISTER transactions processed, by result",
		},
		[]string{"result"},
	)

	// IntakeRejectionsTotal counts requests rejected synchronously at
	// intake, before ever reaching the worker queue.
	IntakeRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gb28181registrar_intake_rejections_total",
			Help: "Total number of REGISTER requests rejected at intake, by reason",
		},
		[]string{"reason"},
	)

	// WorkerProcessingSeconds measures the per-transaction pipeline
	// latency inside the single worker.
	WorkerProcessingSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gb28181registrar_worker_processing_seconds",
			Help:    "Time spent processing a single REGISTER transaction in the worker",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	// RTPFramesCompletedTotal counts frames the reassembler delivered as
	// complete.
	RTPFramesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gb28181registrar_rtp_frames_completed_total",
			Help: "Total number of RTP frames reassembled to completion",
		},
		[]string{"frame_type"},
	)

	// RTPFramesEvictedTotal counts incomplete frames dropped by eviction.
	RTPFramesEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gb28181registrar_rtp_frames_evicted_total",
			Help: "Total number of incomplete RTP frames evicted as stale",
		},
	)

	// RTPFramesPending tracks frames currently awaiting completion.
	RTPFramesPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gb28181registrar_rtp_frames_pending",
			Help: "Current number of timestamps with an incomplete RTP frame tracked",
		},
	)
)
