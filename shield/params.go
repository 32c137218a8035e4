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
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/shield-sdk-golang/shield/sdk"
)

// Log level codes accepted from callers.
const (
	LogLevelCodeNone  = 1
	LogLevelCodeInfo  = 2
	LogLevelCodeDebug = 3
)

// Environment codes accepted from callers. Zero selects production.
const (
	EnvironmentCodeProd    = 0
	EnvironmentCodeDev     = 1
	EnvironmentCodeStaging = 2
)

// DefaultLogLevel is used for any code missing from the log level table, including zero.
const DefaultLogLevel = sdk.LogLevelVerbose

// DefaultEnvironment is used for any code missing from the environment table, including zero.
const DefaultEnvironment = sdk.EnvironmentProd

var logLevelTable = map[int]sdk.LogLevel{
	LogLevelCodeNone:  sdk.LogLevelNone,
	LogLevelCodeInfo:  sdk.LogLevelInfo,
	LogLevelCodeDebug: sdk.LogLevelDebug,
}

var environmentTable = map[int]sdk.Environment{
	EnvironmentCodeDev:     sdk.EnvironmentDev,
	EnvironmentCodeStaging: sdk.EnvironmentStaging,
}

// LogLevelFromCode maps a caller code to the SDK log level. known is false when the code is not in the table
// and DefaultLogLevel was used.
func LogLevelFromCode(code int) (level sdk.LogLevel, known bool) {
	if level, found := logLevelTable[code]; found {
		return level, true
	}
	return DefaultLogLevel, false
}

// EnvironmentFromCode maps a caller code to the SDK environment. known is false when the code is not in the
// table and DefaultEnvironment was used.
func EnvironmentFromCode(code int) (env sdk.Environment, known bool) {
	if env, found := environmentTable[code]; found {
		return env, true
	}
	return DefaultEnvironment, false
}

func resolveLogLevel(code int) sdk.LogLevel {
	level, known := LogLevelFromCode(code)
	if !known {
		pfxlog.Logger().WithField("code", code).Debugf("log level code not recognized, using %v", level)
	}
	return level
}

func resolveEnvironment(code int) sdk.Environment {
	env, known := EnvironmentFromCode(code)
	if !known && code != EnvironmentCodeProd {
		pfxlog.Logger().WithField("code", code).Debugf("environment code not recognized, using %v", env)
	}
	return env
}
