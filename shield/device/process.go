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

	"github.com/michaelquigley/pfxlog"
	"github.com/mitchellh/go-ps"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo reports whether an executable is running and the digest of the binary on disk.
type ProcessInfo struct {
	IsRunning bool   `json:"isRunning"`
	Pid       int    `json:"pid,omitempty"`
	Hash      string `json:"hash,omitempty"`
}

// ProcessProvider reports on the process running the executable at a path.
type ProcessProvider interface {
	GetProcessInfo(path string) ProcessInfo
}

// ProcessProviderFunc is a function adapter that implements ProcessProvider.
type ProcessProviderFunc func(path string) ProcessInfo

func (f ProcessProviderFunc) GetProcessInfo(path string) ProcessInfo {
	return f(path)
}

func NewProcessProvider() ProcessProvider {
	return ProcessProviderFunc(Process)
}

func isProcessPath(expectedPath, executable string) bool {
	return filepath.Base(expectedPath) == executable
}

// Process looks for a running process whose executable is expectedPath. Process names are matched first
// and the full executable path confirmed through gopsutil.
func Process(expectedPath string) ProcessInfo {
	processes, err := ps.Processes()
	if err != nil {
		pfxlog.Logger().WithError(err).Warn("error getting processes")
		return ProcessInfo{}
	}

	for _, proc := range processes {
		if !isProcessPath(expectedPath, proc.Executable()) {
			continue
		}

		if info, found := inspectProcess(int32(proc.Pid()), expectedPath); found {
			return info
		}
	}

	return ProcessInfo{}
}

func inspectProcess(pid int32, expectedPath string) (ProcessInfo, bool) {
	procDetails, err := process.NewProcess(pid)
	if err != nil {
		return ProcessInfo{}, false
	}

	if executablePath, err := procDetails.Exe(); err != nil || executablePath != expectedPath {
		return ProcessInfo{}, false
	}

	isRunning, _ := procDetails.IsRunning()
	info := ProcessInfo{
		IsRunning: isRunning,
		Pid:       int(pid),
	}

	if info.Hash, err = hashFile(expectedPath); err != nil {
		pfxlog.Logger().WithError(err).WithField("path", expectedPath).Warn("could not hash process executable")
	}

	return info, true
}

func hashFile(path string) (string, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	sum := sha512.Sum512(file)
	return fmt.Sprintf("%x", sum[:]), nil
}
