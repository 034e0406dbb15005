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

// Package distributor implements TenantDiscoverer: pulling the set of
// live tenants from the backend distributor's all_user_stats endpoint.
package distributor

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/tenant"
)

// userStat is the shape of one element of the all_user_stats JSON array;
// only UserID is consumed, the rest is opaque per spec §4.8.
type userStat struct {
	UserID string `json:"userID"`
}

// Discoverer is TenantDiscoverer: GET {BaseURL}/distributor/all_user_stats.
type Discoverer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewDiscoverer builds a Discoverer with a sane default *http.Client if
// none is given.
func NewDiscoverer(baseURL string, httpClient *http.Client) *Discoverer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Discoverer{BaseURL: baseURL, HTTPClient: httpClient}
}

// Discover returns the distinct userIDs reported live, excluding the
// reserved system tenant "0" (spec §4.8, P4). Any HTTP or decode failure
// is a Transient error — the caller skips the tick.
func (d *Discoverer) Discover(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"/distributor/all_user_stats", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build distributor request")
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "distributor request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("distributor all_user_stats: unexpected status %d", resp.StatusCode)
	}

	var stats []userStat
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, errors.Wrap(err, "decode distributor response")
	}

	seen := make(map[string]struct{}, len(stats))
	out := make([]string, 0, len(stats))
	for _, s := range stats {
		if s.UserID == "" || s.UserID == tenant.SystemTenant {
			continue
		}
		if _, ok := seen[s.UserID]; ok {
			continue
		}
		seen[s.UserID] = struct{}{}
		out = append(out, s.UserID)
	}
	return out, nil
}
