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
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("a json config is loaded", func(t *testing.T) {
		req := require.New(t)
		path := filepath.Join(t.TempDir(), "shield.json")
		req.NoError(os.WriteFile(path, []byte(`{
			"siteID": "site1",
			"secretKey": "secret1",
			"logLevel": 2,
			"environmentInfo": 1,
			"blockedDialog": {"title": "Blocked"}
		}`), 0600))

		cfg, err := NewConfigFromFile(path)
		req.NoError(err)
		req.Equal("site1", cfg.SiteId)
		req.Equal("secret1", cfg.SecretKey)
		req.Equal(LogLevelCodeInfo, cfg.LogLevel)
		req.Equal(EnvironmentCodeDev, cfg.Environment)
		req.NotNil(cfg.BlockedDialog)
		req.Equal("Blocked", *cfg.BlockedDialog.Title)
		req.Nil(cfg.BlockedDialog.Body)
		req.NoError(cfg.Validate())
	})

	t.Run("a missing file is an error", func(t *testing.T) {
		_, err := NewConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
	})

	t.Run("malformed json is an error", func(t *testing.T) {
		req := require.New(t)
		path := filepath.Join(t.TempDir(), "shield.json")
		req.NoError(os.WriteFile(path, []byte(`{"siteID":`), 0600))

		_, err := NewConfigFromFile(path)
		req.Error(err)
	})
}

func TestNewConfigFromMap(t *testing.T) {
	t.Run("loosely typed values are decoded", func(t *testing.T) {
		req := require.New(t)
		cfg, err := NewConfigFromMap(map[string]interface{}{
			"siteID":            "site1",
			"secretKey":         "secret1",
			"logLevel":          "3",
			"environmentInfo":   2.0,
			"optimizedListener": true,
			"blockedDialog": map[string]interface{}{
				"body": "Contact support",
			},
		})

		req.NoError(err)
		req.Equal("site1", cfg.SiteId)
		req.Equal(LogLevelCodeDebug, cfg.LogLevel)
		req.Equal(EnvironmentCodeStaging, cfg.Environment)
		req.True(cfg.OptimizedListener)
		req.Nil(cfg.BlockedDialog.Title)
		req.Equal("Contact support", *cfg.BlockedDialog.Body)
	})

	t.Run("missing values are left empty and fail validation", func(t *testing.T) {
		req := require.New(t)
		cfg, err := NewConfigFromMap(map[string]interface{}{})
		req.NoError(err)
		req.True(errors.Is(cfg.Validate(), ErrInvalidConfig))
	})
}

func TestBlockedDialogFromMap(t *testing.T) {
	t.Run("a nil map is no dialog", func(t *testing.T) {
		req := require.New(t)
		dialog, err := BlockedDialogFromMap(nil)
		req.NoError(err)
		req.Nil(dialog)
	})

	t.Run("keys are independently optional", func(t *testing.T) {
		req := require.New(t)

		dialog, err := BlockedDialogFromMap(map[string]interface{}{"title": "Blocked"})
		req.NoError(err)
		req.Equal("Blocked", *dialog.Title)
		req.Nil(dialog.Body)

		dialog, err = BlockedDialogFromMap(map[string]interface{}{"title": "Blocked", "body": "Call us"})
		req.NoError(err)
		req.Equal("Blocked", *dialog.Title)
		req.Equal("Call us", *dialog.Body)

		dialog, err = BlockedDialogFromMap(map[string]interface{}{})
		req.NoError(err)
		req.NotNil(dialog)
		req.Nil(dialog.Title)
		req.Nil(dialog.Body)
	})

	t.Run("non string values are rejected", func(t *testing.T) {
		_, err := BlockedDialogFromMap(map[string]interface{}{"title": 42})
		require.Error(t, err)
	})
}
