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

package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetInitialThenSnapshot(t *testing.T) {
	r := NewRegistry()
	r.SetInitial([]ID{"a", "b"})
	require.Equal(t, []ID{"a", "b"}, r.Snapshot())
}

func TestObserveAddsAndRemovesDynamic(t *testing.T) {
	r := NewRegistry()
	r.SetInitial([]ID{"a"})

	r.Observe([]ID{"a", "b", "c"})
	assert.Equal(t, []ID{"a", "b", "c"}, r.Snapshot())

	r.Observe([]ID{"a", "b"})
	assert.Equal(t, []ID{"a", "b"}, r.Snapshot())
}

func TestObserveNeverMutatesInitial(t *testing.T) {
	r := NewRegistry()
	r.SetInitial([]ID{"a"})

	r.Observe(nil)
	assert.Equal(t, []ID{"a"}, r.Snapshot())
}

func TestObserveExcludesSystemTenant(t *testing.T) {
	r := NewRegistry()
	r.Observe([]ID{SystemTenant, "x"})
	assert.Equal(t, []ID{"x"}, r.Snapshot())
}

// TestObserveIdempotent covers P8: observe(S) followed by observe(S) is a
// no-op, and ordered equals initial followed by S \ initial in discovery
// order.
func TestObserveIdempotent(t *testing.T) {
	r := NewRegistry()
	r.SetInitial([]ID{"a"})

	found := []ID{"b", "c"}
	r.Observe(found)
	first := r.Snapshot()

	r.Observe(found)
	second := r.Snapshot()

	assert.Equal(t, first, second)
	assert.Equal(t, []ID{"a", "b", "c"}, second)
}

func TestStop(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Stopping())
	r.Stop()
	assert.True(t, r.Stopping())
}
