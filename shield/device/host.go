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
	"strings"

	"github.com/michaelquigley/pfxlog"
	"github.com/shirou/gopsutil/v3/host"
)

// DomainProvider supplies the domain the device belongs to.
type DomainProvider interface {
	GetDomain() string
}

// DomainProviderFunc is a function adapter that implements DomainProvider.
type DomainProviderFunc func() string

func (f DomainProviderFunc) GetDomain() string {
	return f()
}

// HostInfo identifies the machine independently of its network configuration.
type HostInfo struct {
	Hostname       string `json:"hostname"`
	HostId         string `json:"hostId"`
	Platform       string `json:"platform"`
	PlatformFamily string `json:"platformFamily"`
	KernelVersion  string `json:"kernelVersion"`
	KernelArch     string `json:"kernelArch"`
}

// HostInfoProvider supplies host identification details.
type HostInfoProvider interface {
	GetHostInfo() HostInfo
}

// HostInfoProviderFunc is a function adapter that implements HostInfoProvider.
type HostInfoProviderFunc func() HostInfo

func (f HostInfoProviderFunc) GetHostInfo() HostInfo {
	return f()
}

func NewHostInfoProvider() HostInfoProvider {
	return HostInfoProviderFunc(Host)
}

func Host() HostInfo {
	info, err := host.Info()
	if err != nil {
		pfxlog.Logger().WithError(err).Warn("could not read host information")
		return HostInfo{}
	}

	return HostInfo{
		Hostname:       info.Hostname,
		HostId:         info.HostID,
		Platform:       info.Platform,
		PlatformFamily: info.PlatformFamily,
		KernelVersion:  info.KernelVersion,
		KernelArch:     info.KernelArch,
	}
}

// NewDomainProvider derives the domain from the fully qualified host name.
func NewDomainProvider() DomainProvider {
	return DomainProviderFunc(func() string {
		return DomainOf(Host().Hostname)
	})
}

// DomainOf returns everything after the first label of hostname, or "" for single label names.
func DomainOf(hostname string) string {
	if idx := strings.IndexByte(hostname, '.'); idx >= 0 && idx < len(hostname)-1 {
		return strings.ToLower(hostname[idx+1:])
	}
	return ""
}
