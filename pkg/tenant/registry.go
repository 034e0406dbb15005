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

// Package tenant implements the shared, reader/writer-locked registry of
// admissible tenant IDs consulted by the proxy data plane and mutated by
// the discovery worker.
package tenant

import "sync"

// ID is an opaque, non-empty tenant identifier. The literal "0" is the
// reserved "no tenant"/system placeholder and is never a member of a
// Registry populated through Observe.
type ID = string

// SystemTenant is the reserved placeholder every discovery source excludes.
const SystemTenant ID = "0"

// Registry holds the set of tenant IDs the proxy is willing to serve.
// initial is seeded once at startup and never mutated again; dynamic is
// maintained by a single discovery worker calling Observe on a timer;
// ordered is initial followed by dynamic in first-seen order. The zero
// value is not usable; construct with NewRegistry.
type Registry struct {
	mu sync.RWMutex

	initial map[ID]struct{}
	dynamic map[ID]struct{}
	ordered []ID

	stopped bool
}

// NewRegistry returns an empty, usable Registry.
func NewRegistry() *Registry {
	return &Registry{
		initial: make(map[ID]struct{}),
		dynamic: make(map[ID]struct{}),
	}
}

// SetInitial seeds the immutable initial tenant set. Intended to be called
// once, before the first Snapshot or Observe call.
func (r *Registry) SetInitial(ids []ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.initial = make(map[ID]struct{}, len(ids))
	r.ordered = r.ordered[:0]
	for _, id := range ids {
		if _, ok := r.initial[id]; ok {
			continue
		}
		r.initial[id] = struct{}{}
		r.ordered = append(r.ordered, id)
	}
}

// Snapshot returns a copy of the ordered tenant list. Safe to call
// concurrently with any number of other readers and independent of writers.
func (r *Registry) Snapshot() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ID, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Observe reconciles the dynamic tenant set with found. Every id in found
// that is not already in initial is added to dynamic (and appended to
// ordered if newly seen, in the order found lists them); every id
// currently in dynamic but absent from found is removed from both.
// initial is never mutated. Observe(S) is idempotent: calling it twice
// with the same set is a no-op the second time.
func (r *Registry) Observe(found []ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	foundSet := make(map[ID]struct{}, len(found))
	for _, id := range found {
		if id == SystemTenant {
			continue
		}
		foundSet[id] = struct{}{}

		if _, isInitial := r.initial[id]; isInitial {
			continue
		}
		if _, already := r.dynamic[id]; already {
			continue
		}
		r.dynamic[id] = struct{}{}
		r.ordered = append(r.ordered, id)
	}

	if len(r.dynamic) == 0 {
		return
	}
	kept := r.ordered[:0:0]
	for _, id := range r.ordered {
		if _, isDynamic := r.dynamic[id]; isDynamic {
			if _, stillFound := foundSet[id]; !stillFound {
				delete(r.dynamic, id)
				continue
			}
		}
		kept = append(kept, id)
	}
	r.ordered = kept
}

// Stopping reports whether Stop has been called. The discovery worker
// checks this between ticks; it does not cancel an in-flight tick.
func (r *Registry) Stopping() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stopped
}

// Stop requests the discovery worker to exit at the next tick boundary.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}
