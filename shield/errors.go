/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package shield

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotInitialized is returned by session dependent operations called before Initialize succeeded.
	ErrNotInitialized = errors.New("shield is not initialized")

	// ErrUnknownResult is reported when the SDK has neither a result nor a recorded error, usually because the
	// fingerprinting pass is still running.
	ErrUnknownResult = errors.New("unknown error")

	ErrEmptyScreenName   = errors.New("screen name must not be empty")
	ErrEmptyAttributeKey = errors.New("attribute keys must not be empty")
	ErrInvalidConfig     = errors.New("invalid shield configuration")
)

// InvalidAttributeError is returned when an attribute value is not a string.
type InvalidAttributeError struct {
	Key   string
	Value interface{}
}

func (e *InvalidAttributeError) Error() string {
	return fmt.Sprintf("attribute [%s] must be a string, got %T", e.Key, e.Value)
}
