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

// Package ruler implements RuleStoreRuler: the HTTP client for the
// backend's ruler API (spec §4.6).
package ruler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rules"
)

const tenantHeader = "X-Scope-OrgID"

const notFoundBody = "no rule groups found"

// Client is RuleStoreRuler: List/Upsert/Remove against a ruler base URL.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a Client with a sane default *http.Client if none is
// given, the way the original Rust builds one reqwest::Client shared
// across calls.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, HTTPClient: httpClient}
}

// List performs GET /api/v1/rules/{namespace} with the tenant header and
// returns the flattened rule groups, following the status-code matrix of
// spec §4.6 exactly: 200 parses the body; 404 with body "no rule groups
// found" means empty; any other 404 or non-200 status is a tick-level
// error.
func (c *Client) List(ctx context.Context, tenant, namespace string) ([]rules.RuleGroup, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/v1/rules/"+namespace, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build ruler list request")
	}
	req.Header.Set(tenantHeader, tenant)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "ruler list request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read ruler list response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		groups, err := rules.UnmarshalRulerList(body)
		if err != nil {
			return nil, errors.Wrap(err, "parse ruler list response")
		}
		return groups, nil
	case resp.StatusCode == http.StatusNotFound && string(bytes.TrimSpace(body)) == notFoundBody:
		return nil, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Errorf("ruler list %s/%s: 404: %s", tenant, namespace, string(body))
	default:
		return nil, errors.Errorf("ruler list %s/%s: unexpected status %d: %s", tenant, namespace, resp.StatusCode, string(body))
	}
}

// Upsert POSTs a YAML-encoded group to /api/v1/rules/{namespace}. A
// non-202 response is logged by the caller but does not abort the tick,
// per spec §4.6 — Upsert only reports the status mismatch as an error for
// the caller to decide how to log it.
func (c *Client) Upsert(ctx context.Context, tenant, namespace string, group rules.RuleGroup) error {
	body, err := rules.MarshalYAML(group)
	if err != nil {
		return errors.Wrap(err, "marshal rule group")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/rules/"+namespace, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build ruler upsert request")
	}
	req.Header.Set(tenantHeader, tenant)
	req.Header.Set("Content-Type", "application/yaml")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "ruler upsert request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.Errorf("ruler upsert %s/%s/%s: expected 202, got %d: %s", tenant, namespace, group.Name, resp.StatusCode, string(respBody))
	}
	return nil
}

// Remove issues DELETE /api/v1/rules/{namespace}/{groupName}. Expected
// status 202.
func (c *Client) Remove(ctx context.Context, tenant, namespace, groupName string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/api/v1/rules/"+namespace+"/"+groupName, nil)
	if err != nil {
		return errors.Wrap(err, "build ruler remove request")
	}
	req.Header.Set(tenantHeader, tenant)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "ruler remove request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.Errorf("ruler remove %s/%s/%s: expected 202, got %d: %s", tenant, namespace, groupName, resp.StatusCode, string(respBody))
	}
	return nil
}
