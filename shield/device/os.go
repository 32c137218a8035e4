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

package device

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/michaelquigley/pfxlog"
	"github.com/shirou/gopsutil/v3/host"
)

// OsInfo describes the operating system for fingerprinting. Version is the leading major.minor.patch of the
// platform version, or "unknown".
type OsInfo struct {
	Type    string `json:"type"`
	Family  string `json:"family,omitempty"`
	Version string `json:"version"`
	Build   string `json:"build,omitempty"`
}

type OsProvider interface {
	GetOsInfo() OsInfo
}

// OsProviderFunc is a function adapter that implements OsProvider.
type OsProviderFunc func() OsInfo

func (f OsProviderFunc) GetOsInfo() OsInfo {
	return f()
}

func NewOsProvider() OsProvider {
	return OsProviderFunc(Os)
}

var leadingSemVer = regexp.MustCompile(`^\d+\.\d+\.\d+`)

func Os() OsInfo {
	_, family, version, err := host.PlatformInformation()
	if err != nil {
		pfxlog.Logger().WithError(err).Warn("could not read platform information")
	}

	return osInfoFrom(runtime.GOOS, family, version)
}

// osInfoFrom normalizes platform details. Windows servers are reported as "windowsserver" so they can be
// told apart from workstations.
func osInfoFrom(goos, family, version string) OsInfo {
	info := OsInfo{
		Type:    goos,
		Family:  family,
		Version: "unknown",
	}

	if goos == "windows" && strings.EqualFold(family, "server") {
		info.Type = "windowsserver"
	}

	if semVer := leadingSemVer.FindString(version); semVer != "" {
		info.Version = semVer
		info.Build = strings.TrimLeft(strings.TrimPrefix(version, semVer), ". ")
	}

	return info
}
