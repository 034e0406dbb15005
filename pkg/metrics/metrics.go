// Copyright 2026 VeryGoodOps Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics defines the Prometheus collectors exposed by both
// binaries, grounded on the counters and histograms the original Rust
// proxy/informer register against their own prometheus::Registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// ProxyMetrics are the counters/histograms consumed by the Splitter and
// Dispatcher (spec §4.4).
type ProxyMetrics struct {
	SeriesOut        *prometheus.CounterVec
	RequestsOut      *prometheus.CounterVec
	LabelsIn         prometheus.Counter
	MetadataIn       prometheus.Counter
	TenantsDetected  prometheus.Counter
	Failures         prometheus.Counter
	ProcessingMillis prometheus.Histogram
}

// NewProxyMetrics constructs and registers a ProxyMetrics against reg.
func NewProxyMetrics(reg prometheus.Registerer) *ProxyMetrics {
	m := &ProxyMetrics{
		SeriesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "open_metrics_proxy_series_out_total",
			Help: "Time series forwarded upstream, by destination tenant.",
		}, []string{"tenant"}),
		RequestsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "open_metrics_proxy_requests_out_total",
			Help: "Upstream POST requests issued, by destination tenant.",
		}, []string{"tenant"}),
		LabelsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "open_metrics_proxy_labels_in_total",
			Help: "Labels scanned while resolving tenants for inbound series.",
		}),
		MetadataIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "open_metrics_proxy_metadata_in_total",
			Help: "Metric metadata entries received on the inbound write path.",
		}),
		TenantsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "open_metrics_proxy_tenants_detected_total",
			Help: "Tenant-label matches found while splitting inbound series.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "open_metrics_proxy_failures_total",
			Help: "Upstream dispatch attempts that did not succeed.",
		}),
		ProcessingMillis: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "open_metrics_proxy_processing_milliseconds",
			Help:    "Wall-clock duration of a full decode+split+dispatch call.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
	}
	reg.MustRegister(m.SeriesOut, m.RequestsOut, m.LabelsIn, m.MetadataIn, m.TenantsDetected, m.Failures, m.ProcessingMillis)
	return m
}

// InformerMetrics are the counters consumed by the Reconciler drivers
// (spec §4.7).
type InformerMetrics struct {
	TrackerUpdates  *prometheus.CounterVec
	UpdaterUpdates  *prometheus.CounterVec
	UpdaterRemovals *prometheus.CounterVec
}

// NewInformerMetrics constructs and registers an InformerMetrics against reg.
func NewInformerMetrics(reg prometheus.Registerer) *InformerMetrics {
	m := &InformerMetrics{
		TrackerUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "open_metrics_informer_tracker_updates_total",
			Help: "Rule-group bundles applied to Kubernetes by the tracker, by tenant.",
		}, []string{"tenant"}),
		UpdaterUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "open_metrics_informer_updater_updates_total",
			Help: "Rule groups upserted to the ruler by the updater, by tenant.",
		}, []string{"tenant"}),
		UpdaterRemovals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "open_metrics_informer_updater_removals_total",
			Help: "Rule groups removed from the ruler by the updater, by tenant.",
		}, []string{"tenant"}),
	}
	reg.MustRegister(m.TrackerUpdates, m.UpdaterUpdates, m.UpdaterRemovals)
	return m
}
