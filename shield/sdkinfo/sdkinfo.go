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

package sdkinfo

import (
	"runtime"
)

const (
	Name    = "shield-sdk-golang"
	Version = "v0.3.1"
)

type SdkInfo struct {
	Type     string `json:"type"`
	Version  string `json:"version"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	Runtime  string `json:"runtime"`
	Revision string `json:"revision,omitempty"`
}

// Revision is set at build time with -ldflags "-X github.com/openziti/shield-sdk-golang/shield/sdkinfo.Revision=..."
var Revision = ""

// GetSdkInfo returns the bridge identity both as a generic map and as a struct
func GetSdkInfo() (map[string]interface{}, *SdkInfo) {
	info := &SdkInfo{
		Type:     Name,
		Version:  Version,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		Runtime:  runtime.Version(),
		Revision: Revision,
	}

	infoMap := map[string]interface{}{
		"type":    info.Type,
		"version": info.Version,
		"os":      info.OS,
		"arch":    info.Arch,
		"runtime": info.Runtime,
	}

	if info.Revision != "" {
		infoMap["revision"] = info.Revision
	}

	return infoMap, info
}
