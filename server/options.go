// File: server/options.go
// Package server defines functional options for the Engine.
// License: Apache-2.0

package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option customizes engine initialization.
type Option func(*Engine)

// WithHandler registers the host's event handler.
func WithHandler(h EventHandler) Option {
	return func(e *Engine) {
		e.handler = h
	}
}

// WithLogger attaches a structured logger. The default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithMetrics registers the engine's metrics on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.metrics = newMetrics(reg)
	}
}

// WithFallback sets the handler served to plain HTTP requests that do not
// attempt a WebSocket upgrade. Without a fallback such requests get
// 426 Upgrade Required.
func WithFallback(h http.Handler) Option {
	return func(e *Engine) {
		e.fallback = h
	}
}
