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
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/metrics"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/remotewrite"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/tenant"
)

// Handler is the ingest proxy's HTTP surface (spec §6): any path, method
// POST is the remote-write data plane; any other method returns "Up\n".
type Handler struct {
	Registry           *tenant.Registry
	ContentLengthLimit int64
	SplitConfig        SplitConfig
	DispatchConfig     DispatchConfig
	Metrics            *metrics.ProxyMetrics
	Logger             log.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
	}()

	if r.Method != http.MethodPost {
		fmt.Fprint(w, "Up\n")
		return
	}

	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, h.ContentLengthLimit+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if int64(len(body)) > h.ContentLengthLimit {
		http.Error(w, "request body exceeds content-length limit", http.StatusBadRequest)
		return
	}

	req, err := remotewrite.Decode(body, h.ContentLengthLimit)
	if err != nil {
		level.Debug(h.Logger).Log("msg", "bad remote-write payload", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot := h.Registry.Snapshot()
	result := Split(req, h.SplitConfig, snapshot, h.Metrics)

	failures, err := Dispatch(r.Context(), result.ByTenant, h.DispatchConfig, h.Metrics)
	if err != nil {
		level.Error(h.Logger).Log("msg", "dispatch failed unexpectedly", "err", err)
	}

	if h.Metrics != nil {
		h.Metrics.ProcessingMillis.Observe(float64(time.Since(start).Milliseconds()))
	}

	if failures == 0 {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	fmt.Fprintf(w, "%d", failures)
}
