// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/flowrx/ro/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ro

import (
	"context"
	"sync/atomic"
)

// Subject is both an Observer and an Observable: it is the hot multicast
// core shared by Publish/Behavior/Replay/Async subjects (spec §4.5).
type Subject[T any] interface {
	Observable[T]
	Observer[T]

	// AsObservable narrows the Subject down to its Observable half, hiding
	// the Observer methods from callers that should only subscribe.
	AsObservable() Observable[T]
	// AsObserver narrows the Subject down to its Observer half, hiding the
	// Subscribe methods from callers that should only emit.
	AsObserver() Observer[T]
	// HasObserver reports whether at least one observer is currently
	// registered.
	HasObserver() bool
	// CountObservers reports the number of currently registered observers.
	CountObservers() int
}

// registryEntry is one slot of a subject's observer array. Subscriber is
// the Observer+Subscription-fused destination; cursor is a per-entry
// position field that no subject variant reads (all of them leave it at
// zero).
type registryEntry[T any] struct {
	id         uint64
	subscriber Subscriber[T]
	cursor     int64
}

// registrySnapshot is the immutable array a subjectRegistry points to.
// terminated is true once the subject reached Error/Complete; in that
// state entries is always nil and err/isError/isComplete record the
// terminal that must be replayed to any late subscriber (spec §3,
// "A subject that reached TERMINATED rejects all future subscriptions by
// delivering the terminal it recorded").
type registrySnapshot[T any] struct {
	entries    []*registryEntry[T]
	terminated bool
	isError    bool
	err        error
}

// subjectRegistry implements the lock-free, copy-on-write observer array
// described in spec §4.5 / §9: "Prefer an immutable-snapshot array held
// behind an atomic reference, updated by CAS." It is embedded by every
// subject variant; each variant supplies its own fan-out policy on top.
type subjectRegistry[T any] struct {
	snapshot atomic.Pointer[registrySnapshot[T]]
	nextID   uint64
}

func newSubjectRegistry[T any]() *subjectRegistry[T] {
	r := &subjectRegistry[T]{}
	r.snapshot.Store(&registrySnapshot[T]{})
	return r
}

// load returns the current snapshot. Never nil after newSubjectRegistry.
func (r *subjectRegistry[T]) load() *registrySnapshot[T] {
	return r.snapshot.Load()
}

// isTerminated reports whether the registry already recorded a terminal.
func (r *subjectRegistry[T]) isTerminated() bool {
	return r.load().terminated
}

// add registers a new entry unless the registry is already terminated. It
// returns the created entry and whether registration succeeded; on
// failure the caller must deliver the recorded terminal instead.
func (r *subjectRegistry[T]) add(subscriber Subscriber[T]) (*registryEntry[T], bool) {
	for {
		current := r.load()
		if current.terminated {
			return nil, false
		}

		entry := &registryEntry[T]{
			id:         atomic.AddUint64(&r.nextID, 1),
			subscriber: subscriber,
		}

		next := make([]*registryEntry[T], len(current.entries)+1)
		copy(next, current.entries)
		next[len(current.entries)] = entry

		candidate := &registrySnapshot[T]{entries: next}

		if r.snapshot.CompareAndSwap(current, candidate) {
			return entry, true
		}
	}
}

// remove deletes the entry with the given identity from the registry. It
// is a no-op once the registry is terminated (the array is frozen at that
// point, see spec §3, "once terminal, it is effectively immutable").
func (r *subjectRegistry[T]) remove(entry *registryEntry[T]) {
	for {
		current := r.load()
		if current.terminated {
			return
		}

		idx := -1
		for i, e := range current.entries {
			if e == entry {
				idx = i
				break
			}
		}

		if idx == -1 {
			return
		}

		var next []*registryEntry[T]
		if len(current.entries) > 1 {
			next = make([]*registryEntry[T], 0, len(current.entries)-1)
			next = append(next, current.entries[:idx]...)
			next = append(next, current.entries[idx+1:]...)
		}

		candidate := &registrySnapshot[T]{entries: next}

		if r.snapshot.CompareAndSwap(current, candidate) {
			return
		}
	}
}

// terminate atomically swaps in the TERMINATED sentinel snapshot and
// returns the list of entries live at that instant, so the caller can fan
// the terminal out to exactly those observers (spec §4.5: "terminate
// (error|none): atomic getAndSet(TERMINATED) to capture the final list").
func (r *subjectRegistry[T]) terminate(err error) (entries []*registryEntry[T], ok bool) {
	for {
		current := r.load()
		if current.terminated {
			return nil, false
		}

		candidate := &registrySnapshot[T]{
			terminated: true,
			isError:    err != nil,
			err:        err,
		}

		if r.snapshot.CompareAndSwap(current, candidate) {
			return current.entries, true
		}
	}
}

// deliverRecordedTerminal replays the terminal recorded at termination
// time to a late subscriber (spec §4.5, "On late subscribe after
// terminal").
func (r *subjectRegistry[T]) deliverRecordedTerminal(ctx context.Context, destination Subscriber[T]) {
	snap := r.load()
	if !snap.terminated {
		return
	}

	if snap.isError {
		destination.ErrorWithContext(ctx, snap.err)
	} else {
		destination.CompleteWithContext(ctx)
	}
}

func (r *subjectRegistry[T]) countObservers() int {
	return len(r.load().entries)
}
