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

// Package reconcile implements the bidirectional rule-group reconciler:
// the tracker (ruler -> Kubernetes) and updater (Kubernetes -> ruler)
// driver loops, sharing the diff engine in pkg/rules.
package reconcile

import (
	"context"

	openmetricsv1 "github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/apis/openmetrics/v1"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rules"
)

// K8sStore is the subset of RuleStoreK8s the reconciler drives against.
// Satisfied by pkg/rulestore/k8s.Client; small enough to fake in tests.
type K8sStore interface {
	List(ctx context.Context) ([]openmetricsv1.OpenMetricsRule, error)
	Apply(ctx context.Context, resourceName string, bundle openmetricsv1.OpenMetricsRule) (*openmetricsv1.OpenMetricsRule, error)
	Delete(ctx context.Context, resourceName string) error
}

// RulerStore is the subset of RuleStoreRuler the reconciler drives
// against. Satisfied by pkg/rulestore/ruler.Client.
type RulerStore interface {
	List(ctx context.Context, tenant, namespace string) ([]rules.RuleGroup, error)
	Upsert(ctx context.Context, tenant, namespace string, group rules.RuleGroup) error
	Remove(ctx context.Context, tenant, namespace, groupName string) error
}

// Discoverer is the subset of TenantDiscoverer the tracker consults.
type Discoverer interface {
	Discover(ctx context.Context) ([]string, error)
}

// bundlesToTenantMap builds a TenantGroupMap from a list of bundles,
// preserving a back-reference (OriginIndex) into the bundles slice for
// every group, per spec §3/§4.7 ("never store back-pointers inside the
// group" — the index is computed fresh during the listing pass instead).
func bundlesToTenantMap(bundles []openmetricsv1.OpenMetricsRule) rules.TenantGroupMap {
	out := rules.TenantGroupMap{}
	for i, b := range bundles {
		for _, tenant := range b.Spec.Tenants {
			for _, group := range b.Spec.Groups {
				out[tenant] = append(out[tenant], rules.Indexed{Group: group, OriginIndex: i})
			}
		}
	}
	return out
}

// rulerViewToTenantMap builds a TenantGroupMap from per-tenant ruler
// listings. Every group's OriginIndex is rules.NoOrigin: the ruler has no
// bundle index, per spec §4.7 step 2.
func rulerViewToTenantMap(byTenant map[string][]rules.RuleGroup) rules.TenantGroupMap {
	out := rules.TenantGroupMap{}
	for tenant, groups := range byTenant {
		for _, g := range groups {
			out[tenant] = append(out[tenant], rules.Indexed{Group: g, OriginIndex: rules.NoOrigin})
		}
	}
	return out
}
