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

// Package xsync provides the synchronization primitives shared by the
// subscriber implementations. It exists so a subscriber can be written
// once against the Mutex interface and instantiated with either a real
// lock or a no-op one, without branching on the concurrency mode at
// every call site.
package xsync

import "sync"

// Mutex is the minimal locking surface a Subscriber needs. TryLock is
// used by the eventually-safe concurrency mode to drop a notification
// rather than block when the lock is contended.
type Mutex interface {
	Lock()
	Unlock()
	TryLock() bool
}

// NewMutexWithLock returns a Mutex backed by a real sync.Mutex.
func NewMutexWithLock() Mutex {
	return &realMutex{}
}

// NewMutexWithoutLock returns a Mutex whose methods are no-ops. It
// preserves the call-site shape of the safe variant while skipping all
// synchronization overhead; used by ConcurrencyModeUnsafe where the
// caller guarantees there is no concurrent producer.
func NewMutexWithoutLock() Mutex {
	return noopMutex{}
}

type realMutex struct {
	mu sync.Mutex
}

func (m *realMutex) Lock()         { m.mu.Lock() }
func (m *realMutex) Unlock()       { m.mu.Unlock() }
func (m *realMutex) TryLock() bool { return m.mu.TryLock() }

type noopMutex struct{}

func (noopMutex) Lock()         {}
func (noopMutex) Unlock()       {}
func (noopMutex) TryLock() bool { return true }
