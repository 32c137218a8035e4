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
	"sort"

	"github.com/michaelquigley/pfxlog"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// MacProvider supplies the hardware addresses of the device's network interfaces.
type MacProvider interface {
	GetMacAddresses() []string
}

// MacProviderFunc is a function adapter that implements MacProvider.
type MacProviderFunc func() []string

func (f MacProviderFunc) GetMacAddresses() []string {
	return f()
}

func NewMacProvider() MacProvider {
	return MacProviderFunc(MacAddresses)
}

// MacAddresses returns the sorted, de-duplicated hardware addresses of all non-loopback interfaces.
func MacAddresses() []string {
	interfaces, err := psnet.Interfaces()
	if err != nil {
		pfxlog.Logger().WithError(err).Warn("could not list network interfaces")
		return []string{}
	}

	seen := map[string]struct{}{}
	var result []string

	for _, iface := range interfaces {
		if iface.HardwareAddr == "" || isLoopback(iface.Flags) {
			continue
		}

		if _, found := seen[iface.HardwareAddr]; found {
			continue
		}
		seen[iface.HardwareAddr] = struct{}{}
		result = append(result, iface.HardwareAddr)
	}

	sort.Strings(result)
	return result
}

func isLoopback(flags []string) bool {
	for _, flag := range flags {
		if flag == "loopback" {
			return true
		}
	}
	return false
}
