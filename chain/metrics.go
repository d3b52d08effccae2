// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chain

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type clientMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	txTotal      *prometheus.CounterVec
}

func (c *Client) initMetrics(promRegistry prometheus.Registerer) {
	c.metrics = &clientMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaxgate_chain_calls_total",
				Help: "total contract calls by method and result",
			},
			[]string{"method", "result"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaxgate_chain_call_duration_seconds",
				Help:    "contract call duration by method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		txTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaxgate_chain_transactions_total",
				Help: "total submitted transactions by method and result",
			},
			[]string{"method", "result"},
		),
	}
	promRegistry.MustRegister(
		c.metrics.callsTotal,
		c.metrics.callDuration,
		c.metrics.txTotal,
	)
}

func (c *Client) observeCall(
	method string,
	elapsed time.Duration,
	err error,
) {
	if c.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.metrics.callsTotal.WithLabelValues(method, result).Inc()
	c.metrics.callDuration.WithLabelValues(method).
		Observe(elapsed.Seconds())
}

func (c *Client) observeTx(method string, success bool) {
	if c.metrics == nil {
		return
	}
	result := "ok"
	if !success {
		result = "reverted"
	}
	c.metrics.txTotal.WithLabelValues(method, result).Inc()
}
