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

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func g(name string, rules ...Rule) RuleGroup {
	return RuleGroup{Name: name, Rules: rules}
}

func TestEqualIgnoresRuleOrder(t *testing.T) {
	a := g("g1", Rule{Record: "r1", Expr: "up"}, Rule{Record: "r2", Expr: "down"})
	b := g("g1", Rule{Record: "r2", Expr: "down"}, Rule{Record: "r1", Expr: "up"})
	assert.True(t, Equal(a, b))
}

func TestEqualDetectsDifference(t *testing.T) {
	a := g("g1", Rule{Record: "r1", Expr: "up"})
	b := g("g1", Rule{Record: "r1", Expr: "down"})
	assert.False(t, Equal(a, b))
}

func TestFindNamedMiss(t *testing.T) {
	_, ok := FindNamed([]Indexed{{Group: g("a")}}, "b")
	assert.False(t, ok)
}

func TestFindNamedHit(t *testing.T) {
	want := Indexed{Group: g("b"), OriginIndex: 3}
	got, ok := FindNamed([]Indexed{{Group: g("a")}, want}, "b")
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

// TestDiffSelfIsEmpty covers the first half of P5: diff(A, A) = ({}, {}).
// TestDiffDisjointTenants covers the second: for disjoint tenant sets A, B,
// diff(A, B) = (B, A).
func TestDiffSelfIsEmpty(t *testing.T) {
	m := TenantGroupMap{"t1": {{Group: g("g1")}}}
	updates, removals := Diff(m, m)
	assert.Empty(t, updates)
	assert.Empty(t, removals)
}

func TestDiffDisjointTenants(t *testing.T) {
	a := TenantGroupMap{"t1": {{Group: g("g1")}}}
	b := TenantGroupMap{"t2": {{Group: g("g2")}}}

	updates, removals := Diff(a, b)
	assert.Equal(t, b, updates)
	assert.Equal(t, a, removals)
}

func TestDiffUpdateOnChangedGroup(t *testing.T) {
	target := TenantGroupMap{"t1": {{Group: g("g1", Rule{Record: "r", Expr: "old"})}}}
	origin := TenantGroupMap{"t1": {{Group: g("g1", Rule{Record: "r", Expr: "new"})}}}

	updates, removals := Diff(target, origin)
	assert.Len(t, updates["t1"], 1)
	assert.Equal(t, "new", updates["t1"][0].Group.Rules[0].Expr)
	assert.Empty(t, removals)
}

func TestDiffRemovalWhenTenantAbsentFromOrigin(t *testing.T) {
	target := TenantGroupMap{"t1": {{Group: g("g1")}, {Group: g("g2")}}}
	origin := TenantGroupMap{}

	updates, removals := Diff(target, origin)
	assert.Empty(t, updates)
	assert.Len(t, removals["t1"], 2)
}

func TestDiffOmitsUnchangedTenants(t *testing.T) {
	same := g("g1", Rule{Record: "r", Expr: "x"})
	target := TenantGroupMap{"t1": {{Group: same}}}
	origin := TenantGroupMap{"t1": {{Group: same}}}

	updates, removals := Diff(target, origin)
	_, inUpdates := updates["t1"]
	_, inRemovals := removals["t1"]
	assert.False(t, inUpdates)
	assert.False(t, inRemovals)
}
