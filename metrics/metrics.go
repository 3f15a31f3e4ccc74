// Package metrics exposes the per-error-kind counters §7 allows for
// observability ("an implementation may expose a counter per error kind").
// Nothing here is consulted by protocol logic. Failures still manifest
// only as blocks that never reach TransferCompleted; these counters are
// strictly for external inspection.
/*
 * Copyright (c) 2018-2023.
 */
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Kind is one of the §7 error taxonomy entries.
type Kind string

const (
	CapacityExceeded   Kind = "capacity_exceeded"
	ProtocolState      Kind = "protocol_state"
	UnknownMessageType Kind = "unknown_message_type"
	SelfNotInPipeline  Kind = "self_not_in_pipeline"
	ConnectFailed      Kind = "connect_failed"
)

// Registry wraps a prometheus.Registerer so multiple simulation runs
// (e.g. parallel tests) don't collide on the default global registry.
type Registry struct {
	reg     *prometheus.Registry
	errors  *prometheus.CounterVec
	regRej  prometheus.Counter
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		errors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "hdfssim",
			Name:      "actor_errors_total",
			Help:      "count of §7 protocol errors by kind, by actor component",
		}, []string{"component", "kind"}),
		regRej: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "hdfssim",
			Name:      "worker_register_rejected_total",
			Help:      "count of WORKER_REGISTER_REQ rejected for exceeding registry capacity",
		}),
	}
	return r
}

func (r *Registry) Inc(component string, kind Kind) {
	r.errors.WithLabelValues(component, string(kind)).Inc()
}

func (r *Registry) IncWorkerRegisterRejected() { r.regRej.Inc() }

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
