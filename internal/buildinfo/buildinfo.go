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

// Package buildinfo stamps both binaries with the ldflags-injected
// version the way cmd/rule-evaluator does via prometheus/common/version.
package buildinfo

import (
	"fmt"

	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/common/version"
)

// UserAgent returns the "<binary>/<version>" string for binary. Neither
// binary in this module sets it on its HTTP clients or logs it.
func UserAgent(binary string) string {
	return fmt.Sprintf("%s/%s", binary, version.Version)
}

// Collector returns the build_info Prometheus collector for binary.
func Collector(binary string) *versioncollector.Collector {
	return versioncollector.NewCollector(binary)
}
