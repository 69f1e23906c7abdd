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

// ToDemandPublisher wraps source in the ecosystem-standard demand-aware
// Publisher/Subscriber/Subscription vocabulary (spec §6, "Interop
// boundary"): downstream must call Request(n) to drain it, n<=0 is
// rejected with a ProtocolError (see demandSubscription.Request in
// backpressure.go), and Request(demandUnbounded) is honored as unbounded.
// policy governs what happens to values arriving while demand is
// exhausted, exactly as for any other Flowable (spec §4.13). capacity
// bounds the DropLatest/DropOldest/Error queue; capacity <= 0 falls back
// to defaultBackpressureCapacity.
func ToDemandPublisher[T any](source Observable[T], policy BackpressurePolicy, capacity int) Flowable[T] {
	return ToFlowable(source, policy, capacity)
}

// FromDemandPublisher subscribes publisher with unbounded demand and
// exposes the result as a plain push-based Observable (spec §6,
// "from_demand_publisher() subscribes with unbounded demand").
func FromDemandPublisher[T any](publisher Flowable[T]) Observable[T] {
	return publisher.AsObservable()
}
