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

package nats

import (
	"time"

	"github.com/tochemey/actorx/log"
)

const (
	// DefaultPrefix is the root token of every subject used by the transport
	DefaultPrefix = "actorx"
	// DefaultRequestTimeout bounds a request when the caller gives no timeout
	DefaultRequestTimeout = 5 * time.Second
)

type config struct {
	prefix         string
	requestTimeout time.Duration
	logger         log.Logger
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		prefix:         DefaultPrefix,
		requestTimeout: DefaultRequestTimeout,
		logger:         log.DefaultLogger,
	}
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	return cfg
}

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(cfg *config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(cfg *config)

// Apply applies the option
func (f OptionFunc) Apply(cfg *config) {
	f(cfg)
}

// WithPrefix sets the root subject token. Transports and servers talking to
// each other must share the same prefix.
func WithPrefix(prefix string) Option {
	return OptionFunc(func(cfg *config) {
		if prefix != "" {
			cfg.prefix = prefix
		}
	})
}

// WithRequestTimeout sets the timeout used when a request carries none
func WithRequestTimeout(timeout time.Duration) Option {
	return OptionFunc(func(cfg *config) {
		if timeout > 0 {
			cfg.requestTimeout = timeout
		}
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(cfg *config) {
		cfg.logger = logger
	})
}
