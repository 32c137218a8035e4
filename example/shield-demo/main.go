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

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/shield-sdk-golang/shield"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "SHIELD"

var v = viper.New()

var root = &cobra.Command{
	Use:   "shield-demo",
	Short: "Drives the shield bridge end to end using the local SDK capability",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogging()
		return loadConfigFile()
	},
}

func init() {
	flags := root.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.String("log-formatter", "", "Specify log formatter [json|pfxlog|text]")
	flags.StringP("config", "c", "", "Shield config file (json, yaml or toml)")
	flags.String("site-id", "", "Site identifier")
	flags.String("secret-key", "", "Site secret key")
	flags.Int("log-level", 0, "SDK log level code [1 none|2 info|3 debug], anything else is verbose")
	flags.Int("environment", 0, "Environment code [1 dev|2 staging], anything else is production")
	flags.String("collector-url", "", "Collector endpoint receiving attributes and results")
	flags.Duration("timeout", 30*time.Second, "How long to wait for the SDK to become ready")
	flags.Duration("pass-delay", 250*time.Millisecond, "Delay before the local fingerprinting pass collects device state")

	_ = v.BindPFlags(flags)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(newRunCmd(), newInspectCmd())
}

func initLogging() {
	logLevel := logrus.InfoLevel
	if v.GetBool("verbose") {
		logLevel = logrus.DebugLevel
	}

	options := pfxlog.DefaultOptions().SetTrimPrefix("github.com/openziti/").NoColor()
	pfxlog.GlobalInit(logLevel, options)

	switch v.GetString("log-formatter") {
	case "pfxlog":
		pfxlog.SetFormatter(pfxlog.NewFormatter(pfxlog.DefaultOptions().SetTrimPrefix("github.com/openziti/").StartingToday()))
	case "json":
		pfxlog.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z"})
	case "text":
		pfxlog.SetFormatter(&logrus.TextFormatter{})
	default:
		// let logrus do its own thing
	}
}

func loadConfigFile() error {
	configFile := v.GetString("config")
	if configFile == "" {
		return nil
	}

	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "unable to read config file %s", configFile)
	}

	pfxlog.Logger().Debugf("loaded config file %s", v.ConfigFileUsed())
	return nil
}

// shieldConfig assembles the bridge config from flags, SHIELD_* environment variables and the config file,
// in that order of precedence.
func shieldConfig() (*shield.Config, error) {
	values := map[string]interface{}{
		"siteID":          v.GetString("site-id"),
		"secretKey":       v.GetString("secret-key"),
		"logLevel":        v.GetInt("log-level"),
		"environmentInfo": v.GetInt("environment"),
	}

	if dialog := v.GetStringMap("blocked-dialog"); len(dialog) > 0 {
		values["blockedDialog"] = dialog
	}

	cfg, err := shield.NewConfigFromMap(values)
	if err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func main() {
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
