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

package distributor

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDiscoverStripsSystemTenant covers spec scenario 4: all_user_stats
// yields ["0","tntA","tntB"] -> returned list is exactly ["tntA","tntB"].
func TestDiscoverStripsSystemTenant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/distributor/all_user_stats", r.URL.Path)
		w.Write([]byte(`[{"userID":"0"},{"userID":"tntA"},{"userID":"tntB"}]`))
	}))
	defer srv.Close()

	d := NewDiscoverer(srv.URL, nil)
	got, err := d.Discover(t.Context())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tntA", "tntB"}, got)
}

func TestDiscoverErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDiscoverer(srv.URL, nil)
	_, err := d.Discover(t.Context())
	assert.Error(t, err)
}
