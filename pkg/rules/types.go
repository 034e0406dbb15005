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

// Package rules defines the recording/alerting rule value types shared by
// the Kubernetes rule store and the ruler HTTP store, and the diff engine
// that reconciles two (tenant -> rule groups) views of the world.
package rules

import "github.com/pkg/errors"

// Rule is one recording or alerting rule, distinguished by which of
// Record/Alert is populated. Exactly one of them must be set.
type Rule struct {
	Alert       string            `yaml:"alert,omitempty"`
	Record      string            `yaml:"record,omitempty"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// Validate enforces that exactly one of Alert/Record is populated and Expr
// is non-empty, per spec §3.
func (r Rule) Validate() error {
	switch {
	case r.Alert == "" && r.Record == "":
		return errors.New("rule has neither alert nor record")
	case r.Alert != "" && r.Record != "":
		return errors.New("rule has both alert and record")
	case r.Expr == "":
		return errors.New("rule has empty expr")
	}
	return nil
}

// RuleGroup is a named, optionally interval-scoped sequence of rules.
type RuleGroup struct {
	Name     string `yaml:"name"`
	Interval string `yaml:"interval,omitempty"`
	Rules    []Rule `yaml:"rules"`
}

// Indexed pairs a RuleGroup with a back-reference into the list of
// RuleBundles it was sourced from. OriginIndex is -1 when the group was
// sourced from the ruler and has no owning bundle index yet (spec §3).
type Indexed struct {
	Group       RuleGroup
	OriginIndex int
}

// NoOrigin is the sentinel OriginIndex for ruler-sourced groups.
const NoOrigin = -1

// TenantGroupMap maps a tenant to its ordered, indexed rule groups.
type TenantGroupMap map[string][]Indexed
