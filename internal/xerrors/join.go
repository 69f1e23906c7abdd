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

// Package xerrors provides the small error-aggregation helper used when
// multiple teardown finalizers fail during a single Unsubscribe call.
package xerrors

import "errors"

// Join aggregates zero or more errors into a single error. Nil entries are
// dropped. It returns nil when no non-nil error remains.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
