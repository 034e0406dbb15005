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

// Package k8s implements RuleStoreK8s: a typed REST client for the
// OpenMetricsRule custom resource, trimmed to the three verbs the
// reconciler needs (list, apply, delete).
package k8s

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/rest"

	openmetricsv1 "github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/apis/openmetrics/v1"
)

// FieldManager is the server-side-apply field-ownership marker used for
// every OpenMetricsRule apply, per spec §4.5.
const FieldManager = "openmetricsrule"

const resourcePlural = "openmetricsrules"

// Client is RuleStoreK8s: List/Apply/Delete against one namespace.
type Client struct {
	rest      rest.Interface
	namespace string
}

// NewClient builds a Client from a Kubernetes rest.Config, registering the
// OpenMetricsRule types on a private scheme the way the teacher's
// generated clientset constructs its typed RESTClient.
func NewClient(cfg *rest.Config, namespace string) (*Client, error) {
	scheme := runtime.NewScheme()
	if err := openmetricsv1.AddToScheme(scheme); err != nil {
		return nil, errors.Wrap(err, "register openmetrics scheme")
	}
	codecs := serializer.NewCodecFactory(scheme)

	cfgCopy := *cfg
	cfgCopy.GroupVersion = &openmetricsv1.SchemeGroupVersion
	cfgCopy.APIPath = "/apis"
	cfgCopy.NegotiatedSerializer = codecs.WithoutConversion()
	if cfgCopy.UserAgent == "" {
		cfgCopy.UserAgent = rest.DefaultKubernetesUserAgent()
	}

	restClient, err := rest.RESTClientFor(&cfgCopy)
	if err != nil {
		return nil, errors.Wrap(err, "build REST client")
	}
	return &Client{rest: restClient, namespace: namespace}, nil
}

// List returns every OpenMetricsRule in the namespace, following `continue`
// pagination tokens until the server reports the list exhausted. It
// returns an error only if the first page fails, per spec §4.5.
func (c *Client) List(ctx context.Context) ([]openmetricsv1.OpenMetricsRule, error) {
	var (
		items []openmetricsv1.OpenMetricsRule
		cont  string
	)
	for page := 0; ; page++ {
		var result openmetricsv1.OpenMetricsRuleList
		err := c.rest.Get().
			Namespace(c.namespace).
			Resource(resourcePlural).
			VersionedParams(&metav1.ListOptions{Continue: cont}, metav1.ParameterCodec).
			Do(ctx).
			Into(&result)
		if err != nil {
			if page == 0 {
				return nil, errors.Wrap(err, "list openmetricsrules, first page")
			}
			// A later page failed: keep the items the earlier pages returned.
			break
		}
		items = append(items, result.Items...)
		if result.Continue == "" {
			break
		}
		cont = result.Continue
	}
	return items, nil
}

// Apply performs a server-side-apply of bundle under resourceName, with
// field-manager FieldManager and force=true. ManagedFields are cleared
// from the payload before submission and Status.RulerUpdated is forced
// true on every call, resolving the spec's Open Question about apply
// paths that sometimes skip re-writing status.
func (c *Client) Apply(ctx context.Context, resourceName string, bundle openmetricsv1.OpenMetricsRule) (*openmetricsv1.OpenMetricsRule, error) {
	bundle.Name = resourceName
	bundle.Namespace = c.namespace
	bundle.ManagedFields = nil
	bundle.Status.RulerUpdated = true
	bundle.TypeMeta = metav1.TypeMeta{
		APIVersion: openmetricsv1.SchemeGroupVersion.String(),
		Kind:       "OpenMetricsRule",
	}

	force := true
	var result openmetricsv1.OpenMetricsRule
	err := c.rest.Patch(types.ApplyPatchType).
		Namespace(c.namespace).
		Resource(resourcePlural).
		Name(resourceName).
		VersionedParams(&metav1.PatchOptions{FieldManager: FieldManager, Force: &force}, metav1.ParameterCodec).
		Body(&bundle).
		Do(ctx).
		Into(&result)
	if err != nil {
		return nil, errors.Wrapf(err, "apply openmetricsrule %s", resourceName)
	}
	return &result, nil
}

// Delete best-effort deletes resourceName; a not-found response is not an
// error, per spec §4.5.
func (c *Client) Delete(ctx context.Context, resourceName string) error {
	err := c.rest.Delete().
		Namespace(c.namespace).
		Resource(resourcePlural).
		Name(resourceName).
		Body(&metav1.DeleteOptions{}).
		Do(ctx).
		Error()
	if err != nil && !apierrors.IsNotFound(err) {
		return errors.Wrapf(err, "delete openmetricsrule %s", resourceName)
	}
	return nil
}

// ResourceName is the pure function of (tenant, group.name) that names a
// newly created bundle, per spec §4.5: <tenant>-<sha1(group.name with
// '_'->'-')>, deterministic and collision-free across that substitution.
func ResourceName(tenant, groupName string) string {
	normalized := strings.ReplaceAll(groupName, "_", "-")
	sum := sha1.Sum([]byte(normalized))
	return tenant + "-" + hex.EncodeToString(sum[:])
}
