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
	"errors"
	"fmt"
)

// Sentinel errors for the error taxonomy. Use errors.Is to match against
// these regardless of the wrapping performed by ObserverError,
// UnsubscriptionError, etc.
var (
	// ErrNullValue is synthesized when a Next notification would carry a
	// nil value where the Observable's contract forbids it.
	ErrNullValue = errors.New("ro: null value emitted")
	// ErrNullError is synthesized when an Error notification would carry
	// a nil error.
	ErrNullError = errors.New("ro: null error emitted")
	// ErrTimeout is the sentinel wrapped by TimeoutError.
	ErrTimeout = errors.New("ro: timeout")
	// ErrBackpressure is the sentinel wrapped by BackpressureError, raised
	// by the Error overflow policy of a demand-aware source (§4.13).
	ErrBackpressure = errors.New("ro: missing backpressure support")
	// ErrNoSuchElement is the sentinel wrapped by NoSuchElementError.
	ErrNoSuchElement = errors.New("ro: no such element")
	// ErrIllegalRequest is raised when Request(n) is called with n <= 0.
	ErrIllegalRequest = errors.New("ro: request amount must be positive")
)

// UserError wraps a panic recovered from a user-supplied lambda passed to a
// transformation operator (Map's project, Filter's predicate, Scan's
// accumulator, and similar). See spec §7, "UserError".
type UserError struct {
	cause error
}

func newUserError(cause error) *UserError {
	return &UserError{cause: cause}
}

func (e *UserError) Error() string {
	return fmt.Sprintf("ro: user callback panicked: %s", e.cause.Error())
}
func (e *UserError) Unwrap() error { return e.cause }

// ProtocolError wraps a violation of the event protocol itself (null
// value/error, illegal demand request) as opposed to a user callback
// failure. See spec §7, "ProtocolError".
type ProtocolError struct {
	err error
}

func newProtocolError(sentinel error) *ProtocolError {
	return &ProtocolError{err: sentinel}
}

func (e *ProtocolError) Error() string { return e.err.Error() }
func (e *ProtocolError) Unwrap() error { return e.err }

// TimeoutError is raised by the Timeout operator when no notification
// arrives before the deadline.
type TimeoutError struct{}

func newTimeoutError() *TimeoutError { return &TimeoutError{} }

func (e *TimeoutError) Error() string { return ErrTimeout.Error() }
func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// BackpressureError is raised by a demand-aware source configured with
// the Error overflow policy when its bounded queue is full.
type BackpressureError struct{}

func newBackpressureError() *BackpressureError { return &BackpressureError{} }

func (e *BackpressureError) Error() string { return ErrBackpressure.Error() }
func (e *BackpressureError) Unwrap() error { return ErrBackpressure }

// NoSuchElementError is raised by operators that require at least one
// value (OneFromStream on an empty source, ZeroOrOneToOne on an empty
// ZeroOrOne, and BlockingFirst/BlockingLast/ToFuture on an empty source
// when no default is given).
type NoSuchElementError struct{}

func newNoSuchElementError() *NoSuchElementError { return &NoSuchElementError{} }

func (e *NoSuchElementError) Error() string { return ErrNoSuchElement.Error() }
func (e *NoSuchElementError) Unwrap() error { return ErrNoSuchElement }

// ObserverError wraps a panic recovered from a user-supplied Observer
// callback (Next/Error/Complete handler).
type ObserverError struct {
	cause error
}

func newObserverError(cause error) *ObserverError {
	return &ObserverError{cause: cause}
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("ro: observer callback panicked: %s", e.cause.Error())
}
func (e *ObserverError) Unwrap() error { return e.cause }

// UnsubscriptionError wraps a panic recovered from a teardown finalizer.
type UnsubscriptionError struct {
	cause error
}

func newUnsubscriptionError(cause error) *UnsubscriptionError {
	return &UnsubscriptionError{cause: cause}
}

func (e *UnsubscriptionError) Error() string {
	return fmt.Sprintf("ro: teardown panicked: %s", e.cause.Error())
}
func (e *UnsubscriptionError) Unwrap() error { return e.cause }

// recoverValueToError normalizes an arbitrary recover() value into an
// error, matching the pattern used throughout observer.go/subscription.go.
func recoverValueToError(recovered any) error {
	switch v := recovered.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("%v", v)
	}
}
