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
	"encoding/json"
	"os"

	"github.com/michaelquigley/pfxlog"
	"github.com/mitchellh/mapstructure"
	"github.com/openziti/shield-sdk-golang/shield/sdk"
	"github.com/pkg/errors"
)

// BlockedDialog carries the text shown to a blocked user. Title and Body are independently optional.
type BlockedDialog struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

func (d *BlockedDialog) native() *sdk.BlockedDialog {
	if d == nil {
		return nil
	}
	return &sdk.BlockedDialog{
		Title: d.Title,
		Body:  d.Body,
	}
}

// Config is the caller supplied session configuration. It is consumed once, when the session is created.
type Config struct {
	SiteId        string         `json:"siteID"`
	SecretKey     string         `json:"secretKey"`
	BlockedDialog *BlockedDialog `json:"blockedDialog,omitempty"`

	// LogLevel is a log level code, see LogLevelFromCode.
	LogLevel int `json:"logLevel,omitempty"`

	// Environment is an environment code, see EnvironmentFromCode.
	Environment int `json:"environmentInfo,omitempty"`

	// OptimizedListener registers the bridge as the SDK's primary result listener, which is what turns SDK
	// results into "success" and "error" events.
	OptimizedListener bool `json:"optimizedListener,omitempty"`
}

func NewConfig(siteId, secretKey string) *Config {
	return &Config{
		SiteId:    siteId,
		SecretKey: secretKey,
	}
}

func (c *Config) Validate() error {
	if c.SiteId == "" {
		return errors.Wrap(ErrInvalidConfig, "siteID must not be empty")
	}

	if c.SecretKey == "" {
		return errors.Wrap(ErrInvalidConfig, "secretKey must not be empty")
	}

	return nil
}

// NewConfigFromFile loads a JSON config file.
func NewConfigFromFile(confFile string) (*Config, error) {
	pfxlog.Logger().Debugf("loading shield config file (%s)", confFile)

	confJson, err := os.ReadFile(confFile)
	if err != nil {
		return nil, errors.Errorf("config file (%s) is not found ", confFile)
	}

	c := Config{}
	if err = json.Unmarshal(confJson, &c); err != nil {
		return nil, errors.Errorf("failed to load shield configuration (%s): %v", confFile, err)
	}

	return &c, nil
}

// NewConfigFromMap decodes a loosely typed map, such as one handed over by a host runtime, into a Config.
// Numeric codes may be given as numbers or numeric strings.
func NewConfigFromMap(values map[string]interface{}) (*Config, error) {
	c := &Config{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		TagName:          "json",
		WeaklyTypedInput: true,
	})

	if err != nil {
		return nil, errors.Wrap(err, "unable to setup decoder for shield configuration")
	}

	if err = decoder.Decode(values); err != nil {
		return nil, errors.Wrap(err, "unable to decode shield configuration")
	}

	return c, nil
}

// BlockedDialogFromMap reads the optional "title" and "body" keys. A nil map yields a nil dialog. Values
// must be strings or nil.
func BlockedDialogFromMap(values map[string]interface{}) (*BlockedDialog, error) {
	if values == nil {
		return nil, nil
	}

	dialog := &BlockedDialog{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  dialog,
		TagName: "json",
	})

	if err != nil {
		return nil, errors.Wrap(err, "unable to setup decoder for blocked dialog")
	}

	if err = decoder.Decode(values); err != nil {
		return nil, errors.Wrap(err, "unable to decode blocked dialog")
	}

	return dialog, nil
}
