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

// Package local provides an in-process shield SDK capability. It runs a device fingerprinting pass on a
// goroutine using the device package, signs the result with the site secret and optionally forwards
// attributes and results to a collector over HTTP. It is meant for development hosts and integration tests.
package local

import (
	"context"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/google/uuid"
	"github.com/openziti/shield-sdk-golang/shield/device"
	"github.com/openziti/shield-sdk-golang/shield/sdk"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
)

const (
	ErrorCodeCollectorUnavailable = 1001
	ErrorCodeResultSigning        = 1002

	MetricFingerprintPass   = "local.fingerprint.pass"
	MetricAttributesSent    = "local.attributes.sent"
	MetricCollectorFailures = "local.collector.failures"
)

type Options struct {
	// PassDelay is how long the fingerprinting pass waits before collecting device state.
	PassDelay time.Duration

	// CollectorUrl, when set, receives every attribute batch and the device result.
	CollectorUrl string

	// CollectorTimeout bounds the total time spent retrying a single upload. Zero or less selects
	// DefaultCollectorTimeout.
	CollectorTimeout time.Duration

	// ResultTtl sets the expiry of result tokens. Zero means tokens do not expire.
	ResultTtl time.Duration

	Providers      device.Providers
	WatchProcesses []string
	Registry       gometrics.Registry
}

var DefaultOptions = &Options{
	PassDelay:        250 * time.Millisecond,
	CollectorTimeout: DefaultCollectorTimeout,
	ResultTtl:        time.Hour,
}

// Capability builds local Instances. It is safe for concurrent use.
type Capability struct {
	options   Options
	collector *CollectorClient
	registry  gometrics.Registry
}

func New(options *Options) *Capability {
	if options == nil {
		options = DefaultOptions
	}

	c := &Capability{
		options:  *options,
		registry: options.Registry,
	}

	if c.options.CollectorTimeout <= 0 {
		c.options.CollectorTimeout = DefaultCollectorTimeout
	}

	if c.registry == nil {
		c.registry = gometrics.NewRegistry()
	}

	if options.CollectorUrl != "" {
		c.collector = NewCollectorClient(c.options.CollectorUrl, c.options.CollectorTimeout)
	}

	return c
}

func (c *Capability) Registry() gometrics.Registry {
	return c.registry
}

func (c *Capability) NewInstance(host sdk.HostContext, cfg *sdk.Config) (sdk.Instance, error) {
	if host == nil {
		return nil, errors.New("host context is required")
	}

	if cfg == nil || cfg.SiteId == "" {
		return nil, errors.New("site id is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	instance := &Instance{
		id:         uuid.NewString(),
		host:       host,
		config:     *cfg,
		capability: c,
		collector:  device.NewCollector(c.options.Providers),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		attributes: cmap.New[map[string]string](),
		crossName:  cfg.CrossPlatformName,
		crossVer:   cfg.CrossPlatformVersion,
	}
	instance.log = newLogger(cfg.LogLevel).WithFields(logrus.Fields{
		"sessionId": instance.id,
		"siteId":    cfg.SiteId,
		"host":      host.Name(),
	})

	if len(c.options.WatchProcesses) > 0 {
		instance.collector.WatchProcesses(c.options.WatchProcesses...)
	}

	instance.log.Info("starting fingerprinting pass")
	go instance.run()

	return instance, nil
}

func newLogger(level sdk.LogLevel) *logrus.Logger {
	logger := logrus.New()
	switch level {
	case sdk.LogLevelNone:
		logger.SetLevel(logrus.PanicLevel)
	case sdk.LogLevelInfo:
		logger.SetLevel(logrus.InfoLevel)
	case sdk.LogLevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.TraceLevel)
	}
	return logger
}

// Instance is a single local fingerprinting session.
type Instance struct {
	id         string
	host       sdk.HostContext
	config     sdk.Config
	capability *Capability
	collector  *device.Collector
	log        *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	lock      sync.Mutex
	ready     bool
	listener  sdk.ReadyListener
	result    *gabs.Container
	err       error
	crossName string
	crossVer  string

	attributes cmap.ConcurrentMap[string, map[string]string]
}

func (instance *Instance) SessionId() string {
	return instance.id
}

func (instance *Instance) Host() sdk.HostContext {
	return instance.host
}

// Close stops a pass still in progress and cancels pending uploads.
func (instance *Instance) Close() {
	instance.cancel()
	<-instance.done
}

// Done is closed once the fingerprinting pass has finished or was stopped.
func (instance *Instance) Done() <-chan struct{} {
	return instance.done
}

func (instance *Instance) SendAttributes(screenName string, attrs map[string]string) error {
	if instance.ctx.Err() != nil {
		return errors.New("instance is closed")
	}

	instance.attributes.Upsert(screenName, attrs, func(exist bool, valueInMap, newValue map[string]string) map[string]string {
		merged := make(map[string]string, len(valueInMap)+len(newValue))
		for k, v := range valueInMap {
			merged[k] = v
		}
		for k, v := range newValue {
			merged[k] = v
		}
		return merged
	})

	gometrics.GetOrRegisterCounter(MetricAttributesSent, instance.capability.registry).Inc(1)
	instance.log.WithField("screenName", screenName).Debugf("received %d attributes", len(attrs))

	if instance.capability.collector != nil {
		if err := instance.capability.collector.PostAttributes(instance.ctx, instance.id, screenName, attrs); err != nil {
			gometrics.GetOrRegisterMeter(MetricCollectorFailures, instance.capability.registry).Mark(1)
			return err
		}
	}

	return nil
}

// Attributes returns a copy of everything sent for screenName so far.
func (instance *Instance) Attributes(screenName string) map[string]string {
	result := map[string]string{}
	if existing, ok := instance.attributes.Get(screenName); ok {
		for k, v := range existing {
			result[k] = v
		}
	}
	return result
}

func (instance *Instance) LatestDeviceResult() sdk.DeviceResult {
	instance.lock.Lock()
	defer instance.lock.Unlock()
	return instance.result
}

func (instance *Instance) ResponseError() error {
	instance.lock.Lock()
	defer instance.lock.Unlock()
	return instance.err
}

func (instance *Instance) SetDeviceResultStateListener(listener sdk.ReadyListener) {
	instance.lock.Lock()
	defer instance.lock.Unlock()
	instance.listener = listener
}

func (instance *Instance) IsReady() bool {
	instance.lock.Lock()
	defer instance.lock.Unlock()
	return instance.ready
}

func (instance *Instance) SetCrossPlatformParameters(name, version string) {
	instance.lock.Lock()
	defer instance.lock.Unlock()
	instance.crossName = name
	instance.crossVer = version
}

func (instance *Instance) crossPlatform() (string, string) {
	instance.lock.Lock()
	defer instance.lock.Unlock()
	return instance.crossName, instance.crossVer
}

func (instance *Instance) run() {
	defer close(instance.done)

	start := time.Now()

	if delay := instance.capability.options.PassDelay; delay > 0 {
		select {
		case <-time.After(delay):
		case <-instance.ctx.Done():
			instance.log.Debug("fingerprinting pass stopped before collection")
			return
		}
	}

	snapshot := instance.collector.Refresh()
	result, err := instance.buildResult(snapshot)

	if err == nil && instance.capability.collector != nil {
		if err = instance.capability.collector.PostResult(instance.ctx, instance.id, result); err != nil {
			gometrics.GetOrRegisterMeter(MetricCollectorFailures, instance.capability.registry).Mark(1)
			err = sdk.NewError(ErrorCodeCollectorUnavailable, err.Error())
		}
	}

	instance.lock.Lock()
	if err != nil {
		instance.err = err
	} else {
		instance.result = result
		instance.err = nil
	}
	instance.ready = true
	listener := instance.listener
	instance.lock.Unlock()

	gometrics.GetOrRegisterTimer(MetricFingerprintPass, instance.capability.registry).UpdateSince(start)
	instance.log.WithField("elapsed", time.Since(start)).Info("fingerprinting pass complete")

	if listener != nil {
		listener()
	}

	if cb := instance.config.Callback; cb != nil {
		if err != nil {
			instance.log.WithError(err).Error("fingerprinting pass failed")
			cb.OnFailure(err)
		} else {
			cb.OnSuccess(result)
		}
	}
}

func (instance *Instance) buildResult(snapshot device.Snapshot) (*gabs.Container, error) {
	deviceJson, err := json.Marshal(snapshot)
	if err != nil {
		return nil, sdk.NewError(ErrorCodeResultSigning, err.Error())
	}

	deviceState, err := gabs.ParseJSON(deviceJson)
	if err != nil {
		return nil, sdk.NewError(ErrorCodeResultSigning, err.Error())
	}

	sum := sha512.Sum512(deviceJson)
	claims := newResultClaims(instance.id, instance.config.SiteId, string(instance.config.Environment),
		fmt.Sprintf("%x", sum[:]), snapshot.CollectedAt, instance.capability.options.ResultTtl)

	token, err := SignResultToken(instance.config.SecretKey, claims)
	if err != nil {
		return nil, sdk.NewError(ErrorCodeResultSigning, err.Error())
	}

	crossName, crossVersion := instance.crossPlatform()

	result := gabs.New()
	_, _ = result.Set(instance.id, "sessionId")
	_, _ = result.Set(instance.config.SiteId, "siteId")
	_, _ = result.Set(string(instance.config.Environment), "environment")
	_, _ = result.Set(crossName, "crossPlatform", "name")
	_, _ = result.Set(crossVersion, "crossPlatform", "version")
	_, _ = result.Set(deviceState.Data(), "device")
	_, _ = result.Set(token, "token")

	return result, nil
}
