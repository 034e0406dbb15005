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

	"github.com/pkg/errors"

	openmetricsv1 "github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/apis/openmetrics/v1"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rules"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rulestore/k8s"
)

// createOrUpdateBundle implements the tracker's bundle-placement rule from
// spec §4.7: given a changed/new group for tenant, search the existing
// bundles that already contain tenant for a group with the same name. If
// found, replace it in place (same name -> overwrite, never append a
// duplicate, resolving the spec's Open Question) and re-apply that
// bundle. Otherwise synthesize a new single-group bundle named per
// pkg/rulestore/k8s.ResourceName and apply it.
func createOrUpdateBundle(ctx context.Context, store K8sStore, bundles []openmetricsv1.OpenMetricsRule, tenant string, group rules.RuleGroup) error {
	for _, b := range bundles {
		if !containsTenant(b.Spec.Tenants, tenant) {
			continue
		}
		idx := -1
		for i, g := range b.Spec.Groups {
			if g.Name == group.Name {
				idx = i
				break
			}
		}
		if idx == -1 {
			continue
		}
		updated := b
		updated.Spec.Groups = append([]rules.RuleGroup(nil), b.Spec.Groups...)
		updated.Spec.Groups[idx] = group
		if _, err := store.Apply(ctx, b.Name, updated); err != nil {
			return errors.Wrapf(err, "apply existing bundle %s", b.Name)
		}
		return nil
	}

	resourceName := k8s.ResourceName(tenant, group.Name)
	bundle := openmetricsv1.OpenMetricsRule{
		Spec: openmetricsv1.OpenMetricsRuleSpec{
			Tenants: []string{tenant},
			Groups:  []rules.RuleGroup{group},
		},
	}
	if _, err := store.Apply(ctx, resourceName, bundle); err != nil {
		return errors.Wrapf(err, "apply new bundle %s", resourceName)
	}
	return nil
}

func containsTenant(tenants []string, tenant string) bool {
	for _, t := range tenants {
		if t == tenant {
			return true
		}
	}
	return false
}
