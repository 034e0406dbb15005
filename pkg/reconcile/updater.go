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

package reconcile

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	openmetricsv1 "github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/apis/openmetrics/v1"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/metrics"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rules"
)

// Updater is the Kubernetes -> ruler driver of spec §4.7: each tick lists
// Kubernetes bundles, derives the tenant set, lists the ruler's view per
// tenant, and diffs with the ruler as target and Kubernetes as origin:
// updates are groups present in Kubernetes but missing or different in
// the ruler (pushed via upsert); removals are groups present in the ruler
// but absent from Kubernetes (deleted from the ruler only when
// EnableRemoveRules is set).
type Updater struct {
	K8s               K8sStore
	Ruler             RulerStore
	Namespace         string
	RulerNS           string
	Interval          time.Duration
	EnableRemoveRules bool
	Logger            log.Logger
	Metrics           *metrics.InformerMetrics
}

// Run ticks until ctx is cancelled. A zero Interval disables the loop.
func (u *Updater) Run(ctx context.Context) error {
	if u.Interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(u.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			u.tick(ctx)
		}
	}
}

func (u *Updater) tick(ctx context.Context) {
	bundles, err := u.K8s.List(ctx)
	if err != nil {
		level.Error(u.Logger).Log("msg", "updater: k8s list failed, aborting tick", "err", err)
		return
	}
	k8sView := bundlesToTenantMap(bundles)

	tenants := tenantsOf(bundles)
	rulerByTenant := make(map[string][]rules.RuleGroup, len(tenants))
	for _, tenant := range tenants {
		groups, err := u.Ruler.List(ctx, tenant, u.RulerNS)
		if err != nil {
			level.Error(u.Logger).Log("msg", "updater: ruler list failed, aborting tick", "tenant", tenant, "err", err)
			return
		}
		rulerByTenant[tenant] = groups
	}
	rulerView := rulerViewToTenantMap(rulerByTenant)

	// target = ruler, origin = Kubernetes: updates push k8s-side groups
	// into the ruler; removals are ruler-only groups no longer in k8s.
	updates, removals := rules.Diff(rulerView, k8sView)

	for tenant, groups := range updates {
		for _, ig := range groups {
			if err := u.Ruler.Upsert(ctx, tenant, u.RulerNS, ig.Group); err != nil {
				level.Error(u.Logger).Log("msg", "updater: upsert failed", "tenant", tenant, "group", ig.Group.Name, "err", err)
				continue
			}
			if ig.OriginIndex >= 0 && ig.OriginIndex < len(bundles) {
				owning := bundles[ig.OriginIndex]
				owning.Status.RulerUpdated = true
				if _, err := u.K8s.Apply(ctx, owning.Name, owning); err != nil {
					level.Error(u.Logger).Log("msg", "updater: re-stamp status failed", "bundle", owning.Name, "err", err)
				}
			}
			if u.Metrics != nil {
				u.Metrics.UpdaterUpdates.WithLabelValues(tenant).Inc()
			}
		}
	}

	if !u.EnableRemoveRules {
		for tenant, groups := range removals {
			for _, ig := range groups {
				level.Info(u.Logger).Log("msg", "updater: ruler-only group, removal disabled (enable-updater-remove-rules=false)",
					"tenant", tenant, "group", ig.Group.Name)
			}
		}
		return
	}
	for tenant, groups := range removals {
		for _, ig := range groups {
			if err := u.Ruler.Remove(ctx, tenant, u.RulerNS, ig.Group.Name); err != nil {
				level.Error(u.Logger).Log("msg", "updater: remove failed", "tenant", tenant, "group", ig.Group.Name, "err", err)
				continue
			}
			if u.Metrics != nil {
				u.Metrics.UpdaterRemovals.WithLabelValues(tenant).Inc()
			}
		}
	}
}

func tenantsOf(bundles []openmetricsv1.OpenMetricsRule) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range bundles {
		for _, t := range b.Spec.Tenants {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
