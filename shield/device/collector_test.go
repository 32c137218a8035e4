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
	"crypto/sha512"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testProviders(processCalls *int) Providers {
	return Providers{
		Os: OsProviderFunc(func() OsInfo {
			return OsInfo{Type: "linux", Version: "6.1.0"}
		}),
		Mac: MacProviderFunc(func() []string {
			return []string{"00:11:22:33:44:55"}
		}),
		Domain: DomainProviderFunc(func() string {
			return "example.com"
		}),
		Host: HostInfoProviderFunc(func() HostInfo {
			return HostInfo{Hostname: "box.example.com", HostId: "host-1"}
		}),
		Process: ProcessProviderFunc(func(path string) ProcessInfo {
			*processCalls++
			return ProcessInfo{IsRunning: true, Hash: "hash-" + path}
		}),
	}
}

func TestCollector(t *testing.T) {
	t.Run("refresh reads every provider", func(t *testing.T) {
		req := require.New(t)
		calls := 0
		collector := NewCollector(testProviders(&calls))

		snapshot := collector.Refresh()
		req.Equal("linux", snapshot.Os.Type)
		req.Equal("6.1.0", snapshot.Os.Version)
		req.Equal([]string{"00:11:22:33:44:55"}, snapshot.MacAddresses)
		req.Equal("example.com", snapshot.Domain)
		req.Equal("host-1", snapshot.Host.HostId)
		req.Empty(snapshot.Processes)
		req.False(snapshot.CollectedAt.IsZero())
		req.Equal(snapshot, collector.Snapshot())
	})

	t.Run("watched processes are read once on watch and again on refresh", func(t *testing.T) {
		req := require.New(t)
		calls := 0
		collector := NewCollector(testProviders(&calls))

		collector.WatchProcesses("/usr/bin/a", "/usr/bin/a")
		req.Equal(1, calls)
		req.Equal("hash-/usr/bin/a", collector.ProcessInfo("/usr/bin/a").Hash)

		collector.WatchProcesses("/usr/bin/a")
		req.Equal(1, calls)

		snapshot := collector.Refresh()
		req.Equal(2, calls)
		req.Len(snapshot.Processes, 1)
		req.True(snapshot.Processes["/usr/bin/a"].IsRunning)
	})

	t.Run("unwatched processes are dropped", func(t *testing.T) {
		req := require.New(t)
		calls := 0
		collector := NewCollector(testProviders(&calls))

		collector.WatchProcesses("/usr/bin/a", "/usr/bin/b")
		collector.WatchProcesses("/usr/bin/b")

		req.Equal(ProcessInfo{}, collector.ProcessInfo("/usr/bin/a"))
		req.Equal("hash-/usr/bin/b", collector.ProcessInfo("/usr/bin/b").Hash)
	})

	t.Run("nil mac addresses become an empty list", func(t *testing.T) {
		req := require.New(t)
		calls := 0
		providers := testProviders(&calls)
		providers.Mac = MacProviderFunc(func() []string { return nil })

		snapshot := NewCollector(providers).Refresh()
		req.NotNil(snapshot.MacAddresses)
		req.Empty(snapshot.MacAddresses)
	})

	t.Run("start refreshes until closed", func(t *testing.T) {
		req := require.New(t)
		calls := 0
		collector := NewCollector(testProviders(&calls))
		closeNotify := make(chan struct{})
		refreshed := make(chan Snapshot, 10)

		collector.Start(10*time.Millisecond, closeNotify, func(s Snapshot) {
			select {
			case refreshed <- s:
			default:
			}
		})

		select {
		case s := <-refreshed:
			req.Equal("example.com", s.Domain)
		case <-time.After(2 * time.Second):
			req.Fail("collector never refreshed")
		}
		close(closeNotify)
	})
}

func TestDomainOf(t *testing.T) {
	req := require.New(t)
	req.Equal("example.com", DomainOf("box.Example.com"))
	req.Equal("", DomainOf("box"))
	req.Equal("", DomainOf("box."))
	req.Equal("", DomainOf(""))
}

func TestIsProcessPath(t *testing.T) {
	req := require.New(t)
	req.True(isProcessPath("/usr/bin/ssh", "ssh"))
	req.False(isProcessPath("/usr/bin/ssh", "sshd"))
}

func TestOsInfoFrom(t *testing.T) {
	req := require.New(t)

	info := osInfoFrom("linux", "debian", "12.4.0")
	req.Equal(OsInfo{Type: "linux", Family: "debian", Version: "12.4.0"}, info)

	info = osInfoFrom("windows", "Server", "10.0.20348 Build 20348")
	req.Equal("windowsserver", info.Type)
	req.Equal("10.0.20348", info.Version)
	req.Equal("Build 20348", info.Build)

	info = osInfoFrom("darwin", "Standalone Workstation", "14")
	req.Equal("darwin", info.Type)
	req.Equal("unknown", info.Version)
	req.Empty(info.Build)
}

func TestHashFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "bin")
	req.NoError(os.WriteFile(path, []byte("binary"), 0700))

	hash, err := hashFile(path)
	req.NoError(err)

	sum := sha512.Sum512([]byte("binary"))
	req.Equal(fmt.Sprintf("%x", sum[:]), hash)

	_, err = hashFile(filepath.Join(t.TempDir(), "missing"))
	req.Error(err)
}

func TestProcessNotRunning(t *testing.T) {
	req := require.New(t)
	info := Process(filepath.Join(t.TempDir(), "no-such-executable"))
	req.False(info.IsRunning)
	req.Empty(info.Hash)
}
