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
	"sort"
)

// AttributeBatch is the string keyed, string valued context sent to the SDK for one screen.
type AttributeBatch map[string]string

// NewAttributeBatch validates caller supplied attributes. Every key must be non-empty and every value a
// string; the first offending key in sorted order is reported.
func NewAttributeBatch(attrs map[string]interface{}) (AttributeBatch, error) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	batch := make(AttributeBatch, len(attrs))
	for _, k := range keys {
		if k == "" {
			return nil, ErrEmptyAttributeKey
		}

		v, ok := attrs[k].(string)
		if !ok {
			return nil, &InvalidAttributeError{Key: k, Value: attrs[k]}
		}
		batch[k] = v
	}

	return batch, nil
}

func (b AttributeBatch) Clone() AttributeBatch {
	result := make(AttributeBatch, len(b))
	for k, v := range b {
		result[k] = v
	}
	return result
}
