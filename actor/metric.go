/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package actor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/tochemey/actorx/internal/metric"
)

// Metric is a snapshot of the actor counters
type Metric struct {
	processedCount          int64
	failureCount            int64
	restartCount            int64
	rescheduledCount        int64
	mailboxSize             int64
	latestProcessedDuration time.Duration
}

// ProcessedCount returns the number of messages handled
func (x Metric) ProcessedCount() int64 {
	return x.processedCount
}

// FailureCount returns the number of messages whose handling failed
func (x Metric) FailureCount() int64 {
	return x.failureCount
}

// RestartCount returns the number of Permanent restarts
func (x Metric) RestartCount() int64 {
	return x.restartCount
}

// RescheduledCount returns the number of times a message was moved to the
// mailbox tail after a transaction collision
func (x Metric) RescheduledCount() int64 {
	return x.rescheduledCount
}

// MailboxSize returns the number of queued messages
func (x Metric) MailboxSize() int64 {
	return x.mailboxSize
}

// LatestProcessedDuration returns the handling duration of the last message
func (x Metric) LatestProcessedDuration() time.Duration {
	return x.latestProcessedDuration
}

// Metric returns a snapshot of the actor counters
func (pid *PID) Metric() Metric {
	var mailboxSize int64
	if pid.dispatcher != nil {
		if mailbox := pid.dispatcher.MessageQueue(pid); mailbox != nil {
			mailboxSize = mailbox.Len()
		}
	}
	return Metric{
		processedCount:          pid.processedCount.Load(),
		failureCount:            pid.failureCount.Load(),
		restartCount:            pid.restartCount.Load(),
		rescheduledCount:        pid.rescheduledCount.Load(),
		mailboxSize:             mailboxSize,
		latestProcessedDuration: pid.latestProcessedDuration.Load(),
	}
}

// registerMetrics registers the OpenTelemetry callback observing the actor counters
func (pid *PID) registerMetrics() error {
	if pid.meterProvider == nil {
		return nil
	}

	meter := metric.NewProvider(pid.meterProvider).Meter()
	metrics, err := metric.NewActorMetric(meter)
	if err != nil {
		return err
	}

	observeOptions := []otelmetric.ObserveOption{
		otelmetric.WithAttributes(attribute.String("actor.id", pid.id)),
	}

	pid.metricRegistration, err = meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		snapshot := pid.Metric()
		observer.ObserveInt64(metrics.ProcessedCount(), snapshot.ProcessedCount(), observeOptions...)
		observer.ObserveInt64(metrics.FailureCount(), snapshot.FailureCount(), observeOptions...)
		observer.ObserveInt64(metrics.RestartCount(), snapshot.RestartCount(), observeOptions...)
		observer.ObserveInt64(metrics.RescheduledCount(), snapshot.RescheduledCount(), observeOptions...)
		observer.ObserveInt64(metrics.MailboxSize(), snapshot.MailboxSize(), observeOptions...)
		observer.ObserveInt64(metrics.LastProcessingDuration(), snapshot.LatestProcessedDuration().Milliseconds(), observeOptions...)
		return nil
	}, metrics.Observables()...)
	return err
}
