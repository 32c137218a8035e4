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
	"sync"
	"time"

	"github.com/michaelquigley/pfxlog"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Snapshot is a point in time view of the device state.
type Snapshot struct {
	Os           OsInfo                 `json:"os"`
	Host         HostInfo               `json:"host"`
	MacAddresses []string               `json:"macAddresses"`
	Domain       string                 `json:"domain"`
	Processes    map[string]ProcessInfo `json:"processes,omitempty"`
	CollectedAt  time.Time              `json:"collectedAt"`
}

// Providers groups the sources a Collector reads from. Nil members are replaced with the system defaults.
type Providers struct {
	Os      OsProvider
	Mac     MacProvider
	Domain  DomainProvider
	Host    HostInfoProvider
	Process ProcessProvider
}

func DefaultProviders() Providers {
	return Providers{
		Os:      NewOsProvider(),
		Mac:     NewMacProvider(),
		Domain:  NewDomainProvider(),
		Host:    NewHostInfoProvider(),
		Process: NewProcessProvider(),
	}
}

func (p Providers) withDefaults() Providers {
	if p.Os == nil {
		p.Os = NewOsProvider()
	}
	if p.Mac == nil {
		p.Mac = NewMacProvider()
	}
	if p.Domain == nil {
		p.Domain = NewDomainProvider()
	}
	if p.Host == nil {
		p.Host = NewHostInfoProvider()
	}
	if p.Process == nil {
		p.Process = NewProcessProvider()
	}
	return p
}

// Collector caches device state and refreshes it on demand or periodically.
type Collector struct {
	providers Providers
	processes cmap.ConcurrentMap[string, ProcessInfo]

	lock     sync.RWMutex
	snapshot Snapshot

	startOnce sync.Once
}

func NewCollector(providers Providers) *Collector {
	return &Collector{
		providers: providers.withDefaults(),
		processes: cmap.New[ProcessInfo](),
		snapshot: Snapshot{
			MacAddresses: []string{},
		},
	}
}

// WatchProcesses replaces the set of executable paths reported in each snapshot.
func (collector *Collector) WatchProcesses(processPaths ...string) {
	processMap := map[string]struct{}{}

	for _, processPath := range processPaths {
		processMap[processPath] = struct{}{}
	}

	var processesToRemove []string
	collector.processes.IterCb(func(processPath string, _ ProcessInfo) {
		if _, ok := processMap[processPath]; !ok {
			processesToRemove = append(processesToRemove, processPath)
		}
	})

	for _, processPath := range processesToRemove {
		collector.processes.Remove(processPath)
	}

	for processPath := range processMap {
		collector.processes.Upsert(processPath, ProcessInfo{}, func(exist bool, valueInMap ProcessInfo, _ ProcessInfo) ProcessInfo {
			if !exist {
				return collector.providers.Process.GetProcessInfo(processPath)
			}
			return valueInMap
		})
	}
}

func (collector *Collector) ProcessInfo(processPath string) ProcessInfo {
	if val, found := collector.processes.Get(processPath); found {
		return val
	}
	return ProcessInfo{}
}

// Refresh re-reads every provider and returns the new snapshot.
func (collector *Collector) Refresh() Snapshot {
	for _, processPath := range collector.processes.Keys() {
		collector.processes.Set(processPath, collector.providers.Process.GetProcessInfo(processPath))
	}

	snapshot := Snapshot{
		Os:           collector.providers.Os.GetOsInfo(),
		Host:         collector.providers.Host.GetHostInfo(),
		MacAddresses: collector.providers.Mac.GetMacAddresses(),
		Domain:       collector.providers.Domain.GetDomain(),
		CollectedAt:  time.Now(),
	}

	if snapshot.MacAddresses == nil {
		snapshot.MacAddresses = []string{}
	}

	if collector.processes.Count() > 0 {
		snapshot.Processes = collector.processes.Items()
	}

	collector.lock.Lock()
	collector.snapshot = snapshot
	collector.lock.Unlock()

	return snapshot
}

// Snapshot returns the most recently collected state without refreshing.
func (collector *Collector) Snapshot() Snapshot {
	collector.lock.RLock()
	defer collector.lock.RUnlock()
	return collector.snapshot
}

// Start refreshes the snapshot every interval until closeNotify is closed. Only the first call has an effect.
func (collector *Collector) Start(interval time.Duration, closeNotify <-chan struct{}, onRefresh func(Snapshot)) {
	collector.startOnce.Do(func() {
		ticker := time.NewTicker(interval)
		go func() {
			defer ticker.Stop()
			defer func() {
				if r := recover(); r != nil {
					pfxlog.Logger().Errorf("error during device state refresh: %v", r)
				}
			}()

			for {
				select {
				case <-ticker.C:
					snapshot := collector.Refresh()
					if onRefresh != nil {
						onRefresh(snapshot)
					}
				case <-closeNotify:
					return
				}
			}
		}()
	})
}
