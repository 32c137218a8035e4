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

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelInfo
	LogLevelDebug
	LogLevelVerbose
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelNone:
		return "none"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	case LogLevelVerbose:
		return "verbose"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

type Environment string

const (
	EnvironmentDev     Environment = "dev"
	EnvironmentStaging Environment = "staging"
	EnvironmentProd    Environment = "prod"
)

// BlockedDialog is the text the SDK shows when it blocks a device. Either field may be nil, in which case
// the SDK uses its own default for that field.
type BlockedDialog struct {
	Title *string
	Body  *string
}

// Config is the native configuration an Instance is built from.
type Config struct {
	SiteId        string
	SecretKey     string
	Environment   Environment
	LogLevel      LogLevel
	BlockedDialog *BlockedDialog

	// Callback is registered as the primary result listener when non-nil.
	Callback Callback

	CrossPlatformName    string
	CrossPlatformVersion string
}
