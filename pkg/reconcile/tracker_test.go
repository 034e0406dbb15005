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
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openmetricsv1 "github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/apis/openmetrics/v1"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rules"
)

// TestTrackerCreatesBundleForNewRulerGroup covers spec end-to-end scenario 5:
// a rule group exists in the ruler but not yet in Kubernetes; the tracker
// must create a bundle for it.
func TestTrackerCreatesBundleForNewRulerGroup(t *testing.T) {
	k8sStore := newFakeK8sStore()
	rulerStore := newFakeRulerStore()
	rulerStore.seed("alpha", rules.RuleGroup{Name: "g1", Interval: "30s", Rules: []rules.Rule{{Record: "r", Expr: "up"}}})

	tr := &Tracker{
		K8s:        k8sStore,
		Ruler:      rulerStore,
		Discoverer: &fakeDiscoverer{tenants: []string{"alpha"}},
		Namespace:  "default",
		RulerNS:    "ruler-ns",
		Logger:     log.NewNopLogger(),
	}

	tr.tick(t.Context())

	bundles, err := k8sStore.List(t.Context())
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Equal(t, []string{"alpha"}, bundles[0].Spec.Tenants)
	require.Len(t, bundles[0].Spec.Groups, 1)
	assert.Equal(t, "g1", bundles[0].Spec.Groups[0].Name)
	assert.True(t, bundles[0].Status.RulerUpdated)
}

// TestTrackerUpdatesExistingBundleInPlace exercises the "same name ->
// overwrite" bundle-placement rule from spec §4.7.
func TestTrackerUpdatesExistingBundleInPlace(t *testing.T) {
	existing := openmetricsv1.OpenMetricsRule{
		Spec: openmetricsv1.OpenMetricsRuleSpec{
			Tenants: []string{"alpha"},
			Groups:  []rules.RuleGroup{{Name: "g1", Interval: "30s", Rules: []rules.Rule{{Record: "r", Expr: "old"}}}},
		},
	}
	existing.Name = "alpha-existing"
	k8sStore := newFakeK8sStore(existing)

	rulerStore := newFakeRulerStore()
	rulerStore.seed("alpha", rules.RuleGroup{Name: "g1", Interval: "30s", Rules: []rules.Rule{{Record: "r", Expr: "new"}}})

	tr := &Tracker{
		K8s:        k8sStore,
		Ruler:      rulerStore,
		Discoverer: &fakeDiscoverer{tenants: []string{"alpha"}},
		Namespace:  "default",
		RulerNS:    "ruler-ns",
		Logger:     log.NewNopLogger(),
	}
	tr.tick(t.Context())

	bundles, err := k8sStore.List(t.Context())
	require.NoError(t, err)
	require.Len(t, bundles, 1, "must not create a duplicate bundle for the same group name")
	assert.Equal(t, "new", bundles[0].Spec.Groups[0].Rules[0].Expr)
}

// TestTrackerRemovalsAreLogOnly covers the REDESIGN: a group present in
// Kubernetes but absent from the ruler must not be deleted.
func TestTrackerRemovalsAreLogOnly(t *testing.T) {
	existing := openmetricsv1.OpenMetricsRule{
		Spec: openmetricsv1.OpenMetricsRuleSpec{
			Tenants: []string{"alpha"},
			Groups:  []rules.RuleGroup{{Name: "orphan", Interval: "30s"}},
		},
	}
	existing.Name = "alpha-orphan"
	k8sStore := newFakeK8sStore(existing)
	rulerStore := newFakeRulerStore()

	tr := &Tracker{
		K8s:        k8sStore,
		Ruler:      rulerStore,
		Discoverer: &fakeDiscoverer{tenants: []string{"alpha"}},
		Namespace:  "default",
		RulerNS:    "ruler-ns",
		Logger:     log.NewNopLogger(),
	}
	tr.tick(t.Context())

	bundles, err := k8sStore.List(t.Context())
	require.NoError(t, err)
	require.Len(t, bundles, 1, "orphaned bundle must survive a tick: removals are log-only")
}

func TestTrackerAbortsTickOnDiscoveryFailure(t *testing.T) {
	k8sStore := newFakeK8sStore()
	rulerStore := newFakeRulerStore()

	tr := &Tracker{
		K8s:        k8sStore,
		Ruler:      rulerStore,
		Discoverer: &fakeDiscoverer{err: errFakeStore},
		Logger:     log.NewNopLogger(),
	}
	tr.tick(t.Context())

	bundles, err := k8sStore.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, bundles)
}

func TestTrackerZeroIntervalDisablesRun(t *testing.T) {
	tr := &Tracker{Logger: log.NewNopLogger()}
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)
}
