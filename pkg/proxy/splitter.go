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

// Package proxy implements the ingest proxy data plane: the Splitter
// (per-series tenant resolution) and Dispatcher (bounded-parallel
// upstream fan-out), plus the HTTP handler wiring them together.
package proxy

import (
	"github.com/prometheus/prometheus/prompb"

	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/metrics"
)

// SplitConfig is the per-request configuration the Splitter resolves
// tenants against, per spec §4.3.
type SplitConfig struct {
	TenantLabels     []string
	AllowListEnabled bool
	AllowList        []string
	ReplicateTo      []string
}

// SplitResult is the Splitter's output: a per-tenant WriteRequest map plus
// the two counters spec §4.3 requires.
type SplitResult struct {
	ByTenant        map[string]*prompb.WriteRequest
	TenantsDetected int
	LabelsSeen      int
}

// Split resolves, for every TimeSeries in req, the target tenant set per
// spec §4.3's algorithm, and appends a clone of every MetricMetadata to
// every resulting per-tenant request. registrySnapshot is the shared
// TenantRegistry's current ordered tenant list (spec §2: "(2) consulted
// read-only by (3)"); when allow-listing is enabled its entries extend
// cfg.AllowList, so tenants discovered dynamically (e.g. from Kubernetes
// bundles) become admissible without a restart.
func Split(req *prompb.WriteRequest, cfg SplitConfig, registrySnapshot []string, m *metrics.ProxyMetrics) SplitResult {
	allowSet := toSet(cfg.AllowList)
	for _, t := range registrySnapshot {
		allowSet[t] = struct{}{}
	}
	result := SplitResult{ByTenant: map[string]*prompb.WriteRequest{}}

	for _, ts := range req.Timeseries {
		var labelTenants []string
		for _, lbl := range ts.Labels {
			result.LabelsSeen++
			if isTenantLabel(lbl.Name, cfg.TenantLabels) {
				labelTenants = append(labelTenants, lbl.Value)
				result.TenantsDetected++
			}
		}

		targets := targetTenants(cfg, allowSet, labelTenants)
		for _, tenant := range targets {
			wr, ok := result.ByTenant[tenant]
			if !ok {
				wr = &prompb.WriteRequest{}
				result.ByTenant[tenant] = wr
			}
			wr.Timeseries = append(wr.Timeseries, cloneSeries(ts))
		}
	}

	for _, wr := range result.ByTenant {
		for _, md := range req.Metadata {
			wr.Metadata = append(wr.Metadata, md)
		}
	}

	if m != nil {
		m.LabelsIn.Add(float64(result.LabelsSeen))
		m.TenantsDetected.Add(float64(result.TenantsDetected))
		m.MetadataIn.Add(float64(len(req.Metadata)))
	}

	return result
}

// targetTenants builds the insertion-ordered, duplicate-collapsed target
// tenant set for one series, per spec §4.3 step 2.
func targetTenants(cfg SplitConfig, allowSet map[string]struct{}, labelTenants []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for _, t := range cfg.ReplicateTo {
		add(t)
	}
	for _, t := range labelTenants {
		if cfg.AllowListEnabled {
			if _, ok := allowSet[t]; !ok {
				continue
			}
		}
		add(t)
	}
	return out
}

func isTenantLabel(name string, tenantLabels []string) bool {
	for _, tl := range tenantLabels {
		if name == tl {
			return true
		}
	}
	return false
}

func toSet(list []string) map[string]struct{} {
	out := make(map[string]struct{}, len(list))
	for _, s := range list {
		out[s] = struct{}{}
	}
	return out
}

// cloneSeries returns a deep-enough copy of ts: the label, sample,
// exemplar and histogram slices are copied so later mutation of the source request (there is
// none today, but nothing here should rely on aliasing) cannot affect
// already-dispatched per-tenant requests.
func cloneSeries(ts prompb.TimeSeries) prompb.TimeSeries {
	out := prompb.TimeSeries{
		Labels:  append([]prompb.Label(nil), ts.Labels...),
		Samples: append([]prompb.Sample(nil), ts.Samples...),
	}
	if ts.Exemplars != nil {
		out.Exemplars = append([]prompb.Exemplar(nil), ts.Exemplars...)
	}
	if ts.Histograms != nil {
		out.Histograms = append([]prompb.Histogram(nil), ts.Histograms...)
	}
	return out
}
