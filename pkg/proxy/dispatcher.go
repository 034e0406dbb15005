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

package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/prometheus/prometheus/prompb"
	"golang.org/x/sync/semaphore"

	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/metrics"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/remotewrite"
)

const remoteWriteVersionHeader = "X-Prometheus-Remote-Write-Version"
const remoteWriteVersion = "0.1.0"

// DispatchConfig configures the Dispatcher's fan-out, per spec §4.4.
type DispatchConfig struct {
	UpstreamURL   string
	ParallelLimit int64
	HTTPClient    *http.Client
}

// Dispatch encodes and POSTs every per-tenant WriteRequest to
// cfg.UpstreamURL with header X-Scope-OrgID: <tenant>, at most
// cfg.ParallelLimit requests in flight concurrently. It returns the
// aggregated failure count per the 2xx/4xx=success, else=failure policy
// of spec §4.4; it never retries, and it waits for every attempt to
// complete before returning.
func Dispatch(ctx context.Context, byTenant map[string]*prompb.WriteRequest, cfg DispatchConfig, m *metrics.ProxyMetrics) (int, error) {
	limit := cfg.ParallelLimit
	if limit <= 0 {
		limit = 64
	}
	sem := semaphore.NewWeighted(limit)

	var (
		wg       sync.WaitGroup
		failures int64
	)

	for tenant, wr := range byTenant {
		tenant, wr := tenant, wr

		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled before we could schedule this send; count
			// it as a failure rather than silently dropping it.
			atomic.AddInt64(&failures, 1)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := post(ctx, cfg, tenant, wr); err != nil {
				atomic.AddInt64(&failures, 1)
			}
			if m != nil {
				m.SeriesOut.WithLabelValues(tenant).Add(float64(len(wr.Timeseries)))
				m.RequestsOut.WithLabelValues(tenant).Inc()
			}
		}()
	}

	wg.Wait()

	total := int(failures)
	if m != nil && total > 0 {
		m.Failures.Add(float64(total))
	}
	return total, nil
}

// post performs a single upstream send and classifies the response per
// spec §4.4's accounting policy: 2xx and 4xx are success (4xx is "dropped,
// not our fault"); anything else, including a transport error, is a
// failure.
func post(ctx context.Context, cfg DispatchConfig, tenant string, wr *prompb.WriteRequest) error {
	body, err := remotewrite.Encode(wr)
	if err != nil {
		return errors.Wrap(err, "encode per-tenant write request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.UpstreamURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build upstream request")
	}
	req.Header.Set("X-Scope-OrgID", tenant)
	req.Header.Set(remoteWriteVersionHeader, remoteWriteVersion)
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Content-Encoding", "snappy")

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "upstream transport error")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil
	}
	return errors.Errorf("upstream %s: unexpected status %d", tenant, resp.StatusCode)
}
