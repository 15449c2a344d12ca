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

package metric

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// ActorMetric defines the actor instrumentation
type ActorMetric struct {
	// Specifies the total number of messages processed
	processedCount metric.Int64ObservableCounter
	// Specifies the total number of messages whose handling failed
	failureCount metric.Int64ObservableCounter
	// Specifies the total number of restarts
	restartCount metric.Int64ObservableCounter
	// Specifies the total number of messages rescheduled after a transaction collision
	rescheduledCount metric.Int64ObservableCounter
	// Specifies the number of messages waiting in the mailbox
	mailboxSize metric.Int64ObservableGauge
	// Specifies the processing duration of the last message in milliseconds
	lastProcessingDuration metric.Int64ObservableGauge
}

// NewActorMetric creates an instance of ActorMetric
func NewActorMetric(meter metric.Meter) (*ActorMetric, error) {
	actorMetric := new(ActorMetric)
	var err error

	if actorMetric.processedCount, err = meter.Int64ObservableCounter(
		"actor_processed_count",
		metric.WithDescription("Total number of messages processed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create processedCount instrument, %w", err)
	}

	if actorMetric.failureCount, err = meter.Int64ObservableCounter(
		"actor_failure_count",
		metric.WithDescription("Total number of messages whose handling failed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create failureCount instrument, %w", err)
	}

	if actorMetric.restartCount, err = meter.Int64ObservableCounter(
		"actor_restart_count",
		metric.WithDescription("Total number of restart"),
	); err != nil {
		return nil, fmt.Errorf("failed to create restartCount instrument, %w", err)
	}

	if actorMetric.rescheduledCount, err = meter.Int64ObservableCounter(
		"actor_rescheduled_count",
		metric.WithDescription("Total number of messages rescheduled on a fresh transaction"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rescheduledCount instrument, %w", err)
	}

	if actorMetric.mailboxSize, err = meter.Int64ObservableGauge(
		"actor_mailbox_size",
		metric.WithDescription("Number of messages waiting in the mailbox"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mailboxSize instrument, %w", err)
	}

	if actorMetric.lastProcessingDuration, err = meter.Int64ObservableGauge(
		"actor_processing_duration",
		metric.WithDescription("The latency of the last message processed in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create lastProcessingDuration instrument, %w", err)
	}

	return actorMetric, nil
}

// ProcessedCount returns the total number of messages processed
func (x *ActorMetric) ProcessedCount() metric.Int64ObservableCounter {
	return x.processedCount
}

// FailureCount returns the total number of failed messages
func (x *ActorMetric) FailureCount() metric.Int64ObservableCounter {
	return x.failureCount
}

// RestartCount returns the total number of restart
func (x *ActorMetric) RestartCount() metric.Int64ObservableCounter {
	return x.restartCount
}

// RescheduledCount returns the total number of rescheduled messages
func (x *ActorMetric) RescheduledCount() metric.Int64ObservableCounter {
	return x.rescheduledCount
}

// MailboxSize returns the mailbox size gauge
func (x *ActorMetric) MailboxSize() metric.Int64ObservableGauge {
	return x.mailboxSize
}

// LastProcessingDuration returns the last processing duration gauge
func (x *ActorMetric) LastProcessingDuration() metric.Int64ObservableGauge {
	return x.lastProcessingDuration
}

// Observables returns every instrument that must be registered in a callback
func (x *ActorMetric) Observables() []metric.Observable {
	return []metric.Observable{
		x.processedCount,
		x.failureCount,
		x.restartCount,
		x.rescheduledCount,
		x.mailboxSize,
		x.lastProcessingDuration,
	}
}
