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

import "gopkg.in/yaml.v3"

// RulerGroups is the body shape of the ruler HTTP API's list response: a
// namespace name mapped to its ordered rule groups. An upsert body is a
// single RuleGroup instead (see MarshalYAML).
type RulerGroups = map[string][]RuleGroup

// MarshalYAML encodes a single RuleGroup as the ruler upsert expects it.
func MarshalYAML(g RuleGroup) ([]byte, error) {
	return yaml.Marshal(g)
}

// UnmarshalRulerList decodes a ruler list-response body into a flat,
// namespace-agnostic slice of groups; the caller treats the namespace key
// as opaque and flattens all values together, per spec §4.6.
func UnmarshalRulerList(body []byte) ([]RuleGroup, error) {
	var parsed RulerGroups
	if err := yaml.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	var out []RuleGroup
	for _, groups := range parsed {
		out = append(out, groups...)
	}
	return out, nil
}
