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

	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/metrics"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rules"
)

// Tracker is the ruler -> Kubernetes driver of spec §4.7: each tick
// discovers tenants, lists the ruler's view of their groups, diffs it
// against the Kubernetes bundles, and applies ruler-side changes into
// Kubernetes. Removals (groups present in Kubernetes but absent from the
// ruler) are logged only — the ruler is authoritative here, per the
// spec's REDESIGN of the original tracker's destructive behavior.
type Tracker struct {
	K8s         K8sStore
	Ruler       RulerStore
	Discoverer  Discoverer
	Namespace   string
	RulerNS     string
	Interval    time.Duration
	Logger      log.Logger
	Metrics     *metrics.InformerMetrics
}

// Run ticks until ctx is cancelled. A zero Interval disables the loop
// entirely (spec §6: a 0 poll interval disables the driver).
func (t *Tracker) Run(ctx context.Context) error {
	if t.Interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

func (t *Tracker) tick(ctx context.Context) {
	tenants, err := t.Discoverer.Discover(ctx)
	if err != nil {
		level.Error(t.Logger).Log("msg", "tracker: tenant discovery failed, aborting tick", "err", err)
		return
	}

	originByTenant := make(map[string][]rules.RuleGroup, len(tenants))
	for _, tenant := range tenants {
		groups, err := t.Ruler.List(ctx, tenant, t.RulerNS)
		if err != nil {
			level.Error(t.Logger).Log("msg", "tracker: ruler list failed, aborting tick", "tenant", tenant, "err", err)
			return
		}
		originByTenant[tenant] = groups
	}
	origin := rulerViewToTenantMap(originByTenant)

	bundles, err := t.K8s.List(ctx)
	if err != nil {
		level.Error(t.Logger).Log("msg", "tracker: k8s list failed, aborting tick", "err", err)
		return
	}
	target := bundlesToTenantMap(bundles)

	updates, removals := rules.Diff(target, origin)

	for tenant, groups := range updates {
		for _, ig := range groups {
			if err := createOrUpdateBundle(ctx, t.K8s, bundles, tenant, ig.Group); err != nil {
				level.Error(t.Logger).Log("msg", "tracker: apply failed", "tenant", tenant, "group", ig.Group.Name, "err", err)
				continue
			}
			if t.Metrics != nil {
				t.Metrics.TrackerUpdates.WithLabelValues(tenant).Inc()
			}
		}
	}

	for tenant, groups := range removals {
		for _, ig := range groups {
			level.Info(t.Logger).Log("msg", "tracker: group absent from ruler, logging only (ruler is authoritative)",
				"tenant", tenant, "group", ig.Group.Name)
		}
	}
}
