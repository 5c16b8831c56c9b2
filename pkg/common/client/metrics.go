/*
Copyright 2019 The Libcloud Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libcloud_api_requests_total",
			Help: "Number of provider API requests, partitioned by provider, method and status.",
		},
		[]string{"provider", "method", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "libcloud_api_request_duration_seconds",
			Help:    "Duration of provider API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "method"},
	)
)

func recordRequest(provider, method, status string, elapsed time.Duration) {
	requestCounter.WithLabelValues(provider, method, status).Inc()
	requestDuration.WithLabelValues(provider, method).Observe(elapsed.Seconds())
}
