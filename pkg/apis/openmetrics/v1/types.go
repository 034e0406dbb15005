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

// Package v1 holds the OpenMetricsRule custom resource types, the
// Kubernetes envelope for one or more recording/alerting rule groups
// belonging to one or more tenants.
package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rules"
)

// OpenMetricsRule is the namespaced custom resource in group
// open-metrics.vgs.io, version v1 (spec §6).
type OpenMetricsRule struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   OpenMetricsRuleSpec   `json:"spec"`
	Status OpenMetricsRuleStatus `json:"status,omitempty"`
}

// OpenMetricsRuleSpec is the bundle body: which tenants it applies to and
// which rule groups it carries.
type OpenMetricsRuleSpec struct {
	Tenants     []string          `json:"tenants"`
	Description *string           `json:"description,omitempty"`
	Groups      []rules.RuleGroup `json:"groups"`
}

// OpenMetricsRuleStatus tracks whether the ruler has been made consistent
// with this bundle's groups. Every apply path must set RulerUpdated true,
// resolving the spec's Open Question about inconsistent status writes.
type OpenMetricsRuleStatus struct {
	RulerUpdated bool `json:"ruler_updated"`
}

// OpenMetricsRuleList is the standard list envelope, supporting continue
// pagination tokens via ListMeta.
type OpenMetricsRuleList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`

	Items []OpenMetricsRule `json:"items"`
}

// DeepCopyObject implements runtime.Object.
func (o *OpenMetricsRule) DeepCopyObject() runtime.Object {
	if o == nil {
		return nil
	}
	out := new(OpenMetricsRule)
	out.TypeMeta = o.TypeMeta
	out.ObjectMeta = *o.ObjectMeta.DeepCopy()
	out.Status = o.Status
	out.Spec.Description = o.Spec.Description
	out.Spec.Tenants = append([]string(nil), o.Spec.Tenants...)
	out.Spec.Groups = append([]rules.RuleGroup(nil), o.Spec.Groups...)
	return out
}

// DeepCopyObject implements runtime.Object.
func (l *OpenMetricsRuleList) DeepCopyObject() runtime.Object {
	if l == nil {
		return nil
	}
	out := new(OpenMetricsRuleList)
	out.TypeMeta = l.TypeMeta
	out.ListMeta = l.ListMeta
	out.Items = make([]OpenMetricsRule, len(l.Items))
	for i, item := range l.Items {
		out.Items[i] = *item.DeepCopyObject().(*OpenMetricsRule)
	}
	return out
}
