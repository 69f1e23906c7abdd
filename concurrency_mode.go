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

// ConcurrencyMode selects how a Subscriber synchronizes concurrent
// notifications coming from its upstream producer(s) before forwarding
// them to the destination Observer.
type ConcurrencyMode uint8

const (
	// ConcurrencyModeSafe serializes every notification behind a real
	// mutex. This is the default and the only mode that is correct when
	// more than one goroutine may call Next/Error/Complete concurrently
	// and every notification must be delivered.
	ConcurrencyModeSafe ConcurrencyMode = iota
	// ConcurrencyModeUnsafe performs no synchronization at all. The
	// caller must guarantee that notifications are never produced
	// concurrently; in exchange the subscriber avoids all lock overhead.
	ConcurrencyModeUnsafe
	// ConcurrencyModeEventuallySafe serializes with a real mutex but,
	// when the lock is already held, drops the incoming notification
	// instead of blocking the producer. Useful for best-effort sampling
	// under contention.
	ConcurrencyModeEventuallySafe
	// ConcurrencyModeSingleProducer assumes a single producer goroutine
	// and uses only atomic status checks, skipping the mutex entirely.
	// It is faster than ConcurrencyModeUnsafe because it additionally
	// skips the no-op Lock/Unlock method calls.
	ConcurrencyModeSingleProducer
)

// Backpressure controls what a Subscriber does with a Next notification
// that arrives while its internal lock is already held by another
// notification in flight. Only ConcurrencyModeEventuallySafe uses
// BackpressureDrop; every other mode uses BackpressureBlock.
type Backpressure uint8

const (
	// BackpressureBlock waits for the lock to become available.
	BackpressureBlock Backpressure = iota
	// BackpressureDrop gives up immediately and reports the value as
	// dropped via OnDroppedNotification.
	BackpressureDrop
)
