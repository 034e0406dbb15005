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

package main

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	openmetricsv1 "github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/apis/openmetrics/v1"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rulestore/k8s"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/tenant"
)

// runTenantDiscoveryWorker periodically lists OpenMetricsRule bundles and
// feeds the tenants they name into registry.Observe, the way the original
// IngestionTenantController polled kube_lib::get_tenant_ids. A zero or
// negative interval never happens here: the caller only starts this worker
// when --kubernetes-poll-interval-seconds is positive.
func runTenantDiscoveryWorker(ctx context.Context, client *k8s.Client, registry *tenant.Registry, interval time.Duration, logger log.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if registry.Stopping() {
				return nil
			}
			bundles, err := client.List(ctx)
			if err != nil {
				level.Error(logger).Log("msg", "tenant discovery: kubernetes list failed, retrying next tick", "err", err)
				continue
			}
			registry.Observe(tenantsFromBundles(bundles))
		}
	}
}

func tenantsFromBundles(bundles []openmetricsv1.OpenMetricsRule) []tenant.ID {
	var out []tenant.ID
	seen := make(map[tenant.ID]struct{})
	for _, b := range bundles {
		for _, t := range b.Spec.Tenants {
			id := tenant.ID(t)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
