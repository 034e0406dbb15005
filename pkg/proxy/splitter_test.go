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

package proxy

import (
	"testing"

	"github.com/prometheus/prometheus/prompb"
	"github.com/stretchr/testify/assert"
)

func series(tenantLabel, value string) prompb.TimeSeries {
	return prompb.TimeSeries{
		Labels:  []prompb.Label{{Name: tenantLabel, Value: value}},
		Samples: []prompb.Sample{{Value: 1, Timestamp: 1}, {Value: 2, Timestamp: 2}},
	}
}

// TestSplitSingleTenantPassThrough covers spec end-to-end scenario 1.
func TestSplitSingleTenantPassThrough(t *testing.T) {
	req := &prompb.WriteRequest{Timeseries: []prompb.TimeSeries{series("tid", "alpha")}}
	cfg := SplitConfig{TenantLabels: []string{"tid"}}

	result := Split(req, cfg, nil, nil)

	assert.Len(t, result.ByTenant, 1)
	assert.Len(t, result.ByTenant["alpha"].Timeseries, 1)
	assert.Len(t, result.ByTenant["alpha"].Timeseries[0].Samples, 2)
}

// TestSplitReplication covers spec end-to-end scenario 2.
func TestSplitReplication(t *testing.T) {
	req := &prompb.WriteRequest{Timeseries: []prompb.TimeSeries{
		series("tid", "alpha"),
		series("tid", "beta"),
	}}
	cfg := SplitConfig{TenantLabels: []string{"tid"}, ReplicateTo: []string{"mirror"}}

	result := Split(req, cfg, nil, nil)

	assert.Len(t, result.ByTenant, 3)
	assert.Len(t, result.ByTenant["mirror"].Timeseries, 2)
	assert.Len(t, result.ByTenant["alpha"].Timeseries, 1)
	assert.Len(t, result.ByTenant["beta"].Timeseries, 1)
}

// TestSplitAllowListFiltersOut covers spec end-to-end scenario 3.
func TestSplitAllowListFiltersOut(t *testing.T) {
	req := &prompb.WriteRequest{Timeseries: []prompb.TimeSeries{series("tid", "gamma")}}
	cfg := SplitConfig{
		TenantLabels:     []string{"tid"},
		AllowListEnabled: true,
		AllowList:        []string{"alpha"},
	}

	result := Split(req, cfg, nil, nil)

	assert.Empty(t, result.ByTenant)
}

func TestSplitNoTenantNoReplicateProducesNothing(t *testing.T) {
	req := &prompb.WriteRequest{Timeseries: []prompb.TimeSeries{
		{Labels: []prompb.Label{{Name: "other", Value: "x"}}},
	}}
	cfg := SplitConfig{TenantLabels: []string{"tid"}}

	result := Split(req, cfg, nil, nil)
	assert.Empty(t, result.ByTenant)
}

func TestSplitAllowListEnabledEmptyAllowListKeepsReplicateTo(t *testing.T) {
	req := &prompb.WriteRequest{Timeseries: []prompb.TimeSeries{series("tid", "gamma")}}
	cfg := SplitConfig{
		TenantLabels:     []string{"tid"},
		AllowListEnabled: true,
		ReplicateTo:      []string{"mirror"},
	}

	result := Split(req, cfg, nil, nil)
	assert.Len(t, result.ByTenant, 1)
	_, ok := result.ByTenant["mirror"]
	assert.True(t, ok)
}

func TestSplitMetadataReplicatedToEveryTenant(t *testing.T) {
	req := &prompb.WriteRequest{
		Timeseries: []prompb.TimeSeries{series("tid", "alpha"), series("tid", "beta")},
		Metadata:   []prompb.MetricMetadata{{MetricFamilyName: "up"}},
	}
	cfg := SplitConfig{TenantLabels: []string{"tid"}}

	result := Split(req, cfg, nil, nil)
	assert.Equal(t, req.Metadata, result.ByTenant["alpha"].Metadata)
	assert.Equal(t, req.Metadata, result.ByTenant["beta"].Metadata)
}

func TestSplitRegistrySnapshotExtendsAllowList(t *testing.T) {
	req := &prompb.WriteRequest{Timeseries: []prompb.TimeSeries{series("tid", "dynamic-tenant")}}
	cfg := SplitConfig{TenantLabels: []string{"tid"}, AllowListEnabled: true}

	result := Split(req, cfg, []string{"dynamic-tenant"}, nil)
	assert.Contains(t, result.ByTenant, "dynamic-tenant")
}
