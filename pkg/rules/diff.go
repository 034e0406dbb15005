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

import "reflect"

// Equal is THE single group-equality predicate used by Diff, resolving the
// spec's Open Question about the source's inverted-sense "found_diff"
// helper: this function means exactly what its name says — true iff a and
// b are equal — and both call sites in Diff use it as such.
//
// Two groups are equal iff name and interval match and their Rules are
// equal as a multiset (order-independent, duplicates counted).
func Equal(a, b RuleGroup) bool {
	if a.Name != b.Name || a.Interval != b.Interval {
		return false
	}
	return rulesEqualAsMultiset(a.Rules, b.Rules)
}

func rulesEqualAsMultiset(a, b []Rule) bool {
	if len(a) != len(b) {
		return false
	}
	remaining := make([]Rule, len(b))
	copy(remaining, b)
	for _, r := range a {
		found := -1
		for i, candidate := range remaining {
			if reflect.DeepEqual(r, candidate) {
				found = i
				break
			}
		}
		if found == -1 {
			return false
		}
		remaining = append(remaining[:found], remaining[found+1:]...)
	}
	return true
}

// FindNamed searches list for a group named name, resolving the spec's
// Open Question about the unused index counter on a miss: on success it
// returns the match and true; on a miss it returns the zero value and
// false, never a sentinel index.
func FindNamed(list []Indexed, name string) (Indexed, bool) {
	for _, g := range list {
		if g.Group.Name == name {
			return g, true
		}
	}
	return Indexed{}, false
}

// Diff computes (updates, removals) between a target view and an origin
// view of (tenant -> rule groups), per spec §4.7:
//
//   - updates[t] holds every group in origin[t] that is either absent from
//     target[t] (by name) or present but unequal under Equal.
//   - removals[t] holds every group in target[t] absent from origin[t] (by
//     name), plus, for tenants present in target but entirely absent from
//     origin, all of target[t].
//
// Tenants whose updates/removals would be empty are omitted from the
// result maps. OriginIndex is preserved verbatim from the input groups.
func Diff(target, origin TenantGroupMap) (updates, removals TenantGroupMap) {
	updates = TenantGroupMap{}
	removals = TenantGroupMap{}

	for tenant, originGroups := range origin {
		targetGroups, tenantKnown := target[tenant]
		var tenantUpdates []Indexed
		for _, og := range originGroups {
			tg, found := FindNamed(targetGroups, og.Group.Name)
			if !found || !Equal(og.Group, tg.Group) {
				tenantUpdates = append(tenantUpdates, og)
			}
		}
		_ = tenantKnown
		if len(tenantUpdates) > 0 {
			updates[tenant] = tenantUpdates
		}
	}

	for tenant, targetGroups := range target {
		originGroups, tenantInOrigin := origin[tenant]
		if !tenantInOrigin {
			if len(targetGroups) > 0 {
				removals[tenant] = append([]Indexed(nil), targetGroups...)
			}
			continue
		}
		var tenantRemovals []Indexed
		for _, tg := range targetGroups {
			if _, found := FindNamed(originGroups, tg.Group.Name); !found {
				tenantRemovals = append(tenantRemovals, tg)
			}
		}
		if len(tenantRemovals) > 0 {
			removals[tenant] = tenantRemovals
		}
	}

	return updates, removals
}
