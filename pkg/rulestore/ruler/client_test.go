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

package ruler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rules"
)

func TestListParsesOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tntA", r.Header.Get(tenantHeader))
		assert.Equal(t, "/api/v1/rules/ns", r.URL.Path)
		w.Write([]byte("ns:\n- name: g1\n  rules:\n  - record: r\n    expr: up\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	groups, err := c.List(t.Context(), "tntA", "ns")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].Name)
}

func TestListNotFoundEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(notFoundBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	groups, err := c.List(t.Context(), "tntA", "ns")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestListNotFoundOtherBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("something else"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.List(t.Context(), "tntA", "ns")
	assert.Error(t, err)
}

func TestUpsertExpects202(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	err := c.Upsert(t.Context(), "tntA", "ns", rules.RuleGroup{Name: "g1"})
	assert.NoError(t, err)
}

func TestRemoveExpects202(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/rules/ns/g2", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	err := c.Remove(t.Context(), "tntA", "ns", "g2")
	assert.NoError(t, err)
}
