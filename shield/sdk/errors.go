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

package sdk

import "fmt"

// Error is an SDK reported failure.
type Error struct {
	Code    int
	Message string
}

func NewError(code int, msg string) *Error {
	return &Error{
		Code:    code,
		Message: msg,
	}
}

func (e *Error) Error() string {
	return e.Message
}

// LocalizedMessage returns the message intended for display. The SDK localizes messages before
// reporting them, so this is the message itself.
func (e *Error) LocalizedMessage() string {
	return e.Message
}

func (e *Error) String() string {
	return fmt.Sprintf("shield sdk error %d: %s", e.Code, e.Message)
}
