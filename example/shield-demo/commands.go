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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/shield-sdk-golang/inspect"
	"github.com/openziti/shield-sdk-golang/shield"
	"github.com/openziti/shield-sdk-golang/shield/sdk/local"
	"github.com/openziti/shield-sdk-golang/shield/sdkinfo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type demo struct {
	closeNotify chan struct{}
	bridge      *shield.BridgeImpl
	outcomeC    chan shield.Event
}

func newDemo() (*demo, error) {
	cfg, err := shieldConfig()
	if err != nil {
		return nil, err
	}

	localOptions := *local.DefaultOptions
	localOptions.CollectorUrl = v.GetString("collector-url")
	localOptions.PassDelay = v.GetDuration("pass-delay")

	d := &demo{
		closeNotify: make(chan struct{}),
		outcomeC:    make(chan shield.Event, 1),
	}

	d.bridge = shield.NewBridgeWithOptions(local.New(&localOptions), &shield.Options{
		HostContext: shield.ProcessHostContext,
		Dispatcher:  shield.NewMainLoop(d.closeNotify),
	})

	err = d.bridge.InitializeWithCallbacks(cfg, shield.Callbacks{
		OnSuccess: func(result string) {
			d.report(shield.Event{Name: shield.EventSuccess, Payload: result})
		},
		OnFailure: func(message string) {
			d.report(shield.Event{Name: shield.EventError, Payload: message})
		},
	})

	if err != nil {
		close(d.closeNotify)
		return nil, err
	}

	return d, nil
}

func (d *demo) report(evt shield.Event) {
	select {
	case d.outcomeC <- evt:
	default:
	}
}

func (d *demo) close() {
	close(d.closeNotify)
}

func (d *demo) awaitReady() error {
	ctx, cancel := context.WithTimeout(context.Background(), v.GetDuration("timeout"))
	defer cancel()

	readyC := make(chan bool, 1)
	d.bridge.SetReadyListener(func(isReady bool) {
		readyC <- isReady
	})

	select {
	case isReady := <-readyC:
		if !isReady {
			return shield.ErrNotInitialized
		}
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "shield did not become ready")
	}

	return nil
}

func newRunCmd() *cobra.Command {
	var screen string

	cmd := &cobra.Command{
		Use:   "run [key=value...]",
		Short: "Initialize, send attributes and print the device result",
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseAttributes(args)
			if err != nil {
				return err
			}

			d, err := newDemo()
			if err != nil {
				return err
			}
			defer d.close()

			sessionId, _ := d.bridge.GetSessionId()
			log := pfxlog.Logger().WithField("sessionId", sessionId)

			if len(attrs) > 0 {
				if err = d.bridge.SendAttributes(screen, attrs); err != nil {
					return err
				}
				log.Infof("queued %d attributes for screen %s", len(attrs), screen)
			}

			if err = d.awaitReady(); err != nil {
				return err
			}
			log.Info("shield ready")

			ctx, cancel := context.WithTimeout(context.Background(), v.GetDuration("timeout"))
			defer cancel()

			select {
			case evt := <-d.outcomeC:
				log.Debugf("received %s event", evt.Name)
			case <-ctx.Done():
				log.Warn("no outcome reported before timeout")
			}

			var runErr error
			d.bridge.GetLatestResult(func(result string) {
				fmt.Println(result)
			}, func(message string) {
				runErr = errors.New(message)
			})

			return runErr
		},
	}

	cmd.Flags().StringVar(&screen, "screen", "main", "Screen name the attributes are sent for")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Initialize, wait for readiness and print the bridge state as json",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDemo()
			if err != nil {
				return err
			}
			defer d.close()

			response := &inspect.SdkInspectResponse{
				Success: true,
				Values:  map[string]any{},
			}

			if err = d.awaitReady(); err != nil {
				response.Success = false
				response.Errors = append(response.Errors, err.Error())
			}

			sdkInfo, _ := sdkinfo.GetSdkInfo()
			response.Values["sdk"] = sdkInfo
			response.Values["bridge"] = d.bridge.Inspect()

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(response)
		},
	}
}

func parseAttributes(args []string) (map[string]interface{}, error) {
	attrs := map[string]interface{}{}
	for _, arg := range args {
		k, val, found := strings.Cut(arg, "=")
		if !found {
			return nil, errors.Errorf("attribute [%s] is not in key=value form", arg)
		}
		attrs[k] = val
	}
	return attrs, nil
}
