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
	"sync"

	"github.com/pkg/errors"

	openmetricsv1 "github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/apis/openmetrics/v1"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rules"
)

// fakeK8sStore is an in-memory K8sStore keyed by resource name.
type fakeK8sStore struct {
	mu       sync.Mutex
	bundles  map[string]openmetricsv1.OpenMetricsRule
	listErr  error
	applyErr error
}

func newFakeK8sStore(bundles ...openmetricsv1.OpenMetricsRule) *fakeK8sStore {
	s := &fakeK8sStore{bundles: map[string]openmetricsv1.OpenMetricsRule{}}
	for _, b := range bundles {
		s.bundles[b.Name] = b
	}
	return s
}

func (s *fakeK8sStore) List(ctx context.Context) ([]openmetricsv1.OpenMetricsRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	names := make([]string, 0, len(s.bundles))
	for name := range s.bundles {
		names = append(names, name)
	}
	// deterministic order for test assertions
	sortStrings(names)
	out := make([]openmetricsv1.OpenMetricsRule, 0, len(names))
	for _, name := range names {
		out = append(out, s.bundles[name])
	}
	return out, nil
}

func (s *fakeK8sStore) Apply(ctx context.Context, resourceName string, bundle openmetricsv1.OpenMetricsRule) (*openmetricsv1.OpenMetricsRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	bundle.Name = resourceName
	bundle.Status.RulerUpdated = true
	s.bundles[resourceName] = bundle
	return &bundle, nil
}

func (s *fakeK8sStore) Delete(ctx context.Context, resourceName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bundles, resourceName)
	return nil
}

// fakeRulerStore is an in-memory RulerStore keyed by tenant, then group name.
type fakeRulerStore struct {
	mu      sync.Mutex
	byTenant map[string]map[string]rules.RuleGroup
	listErr  error
}

func newFakeRulerStore() *fakeRulerStore {
	return &fakeRulerStore{byTenant: map[string]map[string]rules.RuleGroup{}}
}

func (s *fakeRulerStore) seed(tenant string, groups ...rules.RuleGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byTenant[tenant] == nil {
		s.byTenant[tenant] = map[string]rules.RuleGroup{}
	}
	for _, g := range groups {
		s.byTenant[tenant][g.Name] = g
	}
}

func (s *fakeRulerStore) List(ctx context.Context, tenant, namespace string) ([]rules.RuleGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	names := make([]string, 0, len(s.byTenant[tenant]))
	for name := range s.byTenant[tenant] {
		names = append(names, name)
	}
	sortStrings(names)
	out := make([]rules.RuleGroup, 0, len(names))
	for _, name := range names {
		out = append(out, s.byTenant[tenant][name])
	}
	return out, nil
}

func (s *fakeRulerStore) Upsert(ctx context.Context, tenant, namespace string, group rules.RuleGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byTenant[tenant] == nil {
		s.byTenant[tenant] = map[string]rules.RuleGroup{}
	}
	s.byTenant[tenant][group.Name] = group
	return nil
}

func (s *fakeRulerStore) Remove(ctx context.Context, tenant, namespace, groupName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byTenant[tenant], groupName)
	return nil
}

// fakeDiscoverer returns a fixed tenant list.
type fakeDiscoverer struct {
	tenants []string
	err     error
}

func (d *fakeDiscoverer) Discover(ctx context.Context) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.tenants, nil
}

var errFakeStore = errors.New("fake store error")

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
