// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"io"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// ReadyHook is called on the loader goroutine after a background load
// finished, err is nil on success.
type ReadyHook func(kind, name string, err error)

type options struct {
	logger  log.FieldLogger
	counter *Counter
	limiter *semaphore.Weighted
	metrics *Metrics
	hook    ReadyHook
}

// Option configures a Manager.
type Option func(*options)

// WithLogger sets the logger load events are reported to.
func WithLogger(l log.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithCounter makes the Manager count its outstanding loads in c.
// Several managers may share one Counter.
func WithCounter(c *Counter) Option {
	return func(o *options) {
		o.counter = c
	}
}

// WithLimiter bounds how many loads run at once. Every load acquires
// one unit of l before constructing.
func WithLimiter(l *semaphore.Weighted) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// WithMetrics reports load activity to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithReadyHook calls h whenever a background load finishes.
func WithReadyHook(h ReadyHook) Option {
	return func(o *options) {
		o.hook = h
	}
}

func discardLogger() log.FieldLogger {
	l := log.New()
	l.Out = io.Discard
	return l
}
