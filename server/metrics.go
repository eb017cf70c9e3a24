// File: server/metrics.go
// Package server exposes engine metrics via Prometheus.
// License: Apache-2.0

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the engine's Prometheus instruments. A nil *metrics is
// valid and records nothing, so the engine stays dependency-quiet unless
// the host opts in via WithMetrics.
type metrics struct {
	activeConnections prometheus.Gauge
	messagesTotal     prometheus.Counter
	broadcastsTotal   prometheus.Counter
	framesSentTotal   prometheus.Counter
	handshakeFailures prometheus.Counter
	protocolErrors    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &metrics{
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "livews",
			Name:      "active_connections",
			Help:      "Connections currently in the registry.",
		}),
		messagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "livews",
			Name:      "messages_total",
			Help:      "Data frames delivered to the host application.",
		}),
		broadcastsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "livews",
			Name:      "broadcasts_total",
			Help:      "Broadcast operations performed.",
		}),
		framesSentTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "livews",
			Name:      "frames_sent_total",
			Help:      "Frames written to peers, control frames included.",
		}),
		handshakeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "livews",
			Name:      "handshake_failures_total",
			Help:      "Attempted upgrades refused during validation.",
		}),
		protocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "livews",
			Name:      "protocol_errors_total",
			Help:      "Connections closed for wire protocol violations.",
		}),
	}
}

func (m *metrics) connOpened() {
	if m != nil {
		m.activeConnections.Inc()
	}
}

func (m *metrics) connClosed() {
	if m != nil {
		m.activeConnections.Dec()
	}
}

func (m *metrics) message() {
	if m != nil {
		m.messagesTotal.Inc()
	}
}

func (m *metrics) broadcast() {
	if m != nil {
		m.broadcastsTotal.Inc()
	}
}

func (m *metrics) frameSent() {
	if m != nil {
		m.framesSentTotal.Inc()
	}
}

func (m *metrics) handshakeFailure() {
	if m != nil {
		m.handshakeFailures.Inc()
	}
}

func (m *metrics) protocolError() {
	if m != nil {
		m.protocolErrors.Inc()
	}
}
