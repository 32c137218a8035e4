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

// Package shield bridges a fraud detection SDK to a host application. It makes initialization idempotent,
// holds session dependent calls until the SDK's fingerprinting pass is ready, and turns the SDK's result
// callbacks into named events.
package shield

import (
	"context"
	"sync"
	"time"

	"github.com/kataras/go-events"
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/metrics"
	"github.com/openziti/shield-sdk-golang/inspect"
	"github.com/openziti/shield-sdk-golang/shield/sdk"
	"github.com/openziti/shield-sdk-golang/shield/sdkinfo"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"
)

type Bridge interface {
	events.EventEmmiter

	IsInitialized() bool
	Initialize(cfg *Config) error
	InitializeWithCallbacks(cfg *Config, callbacks Callbacks) error
	SetCrossPlatformTag(name, version string)
	GetSessionId() (string, error)

	// SetReadyListener calls listener once: with false right away when not initialized, otherwise with true
	// the first time the session is observed ready.
	SetReadyListener(listener func(isReady bool))
	AwaitReady(ctx context.Context) error
	Ready() (<-chan struct{}, error)

	SendAttributes(screenName string, attrs map[string]interface{}) error
	SendAttributeBatch(screenName string, batch AttributeBatch) error

	GetLatestResult(onSuccess func(result string), onError func(message string))
	LatestResult() (string, error)

	Subscribe(ctx context.Context) <-chan Event
	Inspect() *inspect.BridgeInspectResult
	Metrics() metrics.Registry
}

var _ Bridge = (*BridgeImpl)(nil)

type BridgeImpl struct {
	events.EventEmmiter

	capability sdk.Capability
	options    *Options
	factory    *SessionFactory
	dispatcher Dispatcher
	callback   *callbackAdapter

	registry      metrics.Registry
	metrics       Metrics
	subscriptions cmap.ConcurrentMap[string, *subscription]

	tagLock    sync.Mutex
	tagName    string
	tagVersion string
}

func NewBridge(capability sdk.Capability) *BridgeImpl {
	return NewBridgeWithOptions(capability, nil)
}

func NewBridgeWithOptions(capability sdk.Capability, options *Options) *BridgeImpl {
	if options == nil {
		options = DefaultOptions
	}

	resolved := *options
	if resolved.HostContext == nil {
		resolved.HostContext = ProcessHostContext
	}
	if resolved.Dispatcher == nil {
		resolved.Dispatcher = DirectDispatcher{}
	}
	if resolved.Factory == nil {
		resolved.Factory = NewSessionFactory()
	}
	if resolved.MetricsRegistry == nil {
		resolved.MetricsRegistry = metrics.NewRegistry(sdkinfo.Name, nil)
	}

	_, info := sdkinfo.GetSdkInfo()

	bridge := &BridgeImpl{
		EventEmmiter:  events.New(),
		capability:    capability,
		options:       &resolved,
		factory:       resolved.Factory,
		dispatcher:    resolved.Dispatcher,
		registry:      resolved.MetricsRegistry,
		subscriptions: cmap.New[*subscription](),
		tagName:       info.Type,
		tagVersion:    info.Version,
	}

	bridge.callback = &callbackAdapter{bridge: bridge}
	bridge.metrics = NewMetrics(bridge.registry, bridge.pendingOps)

	return bridge
}

func (self *BridgeImpl) pendingOps() int64 {
	if session := self.factory.Session(); session != nil {
		return int64(session.gate.Pending())
	}
	return 0
}

// Session returns the current session or nil.
func (self *BridgeImpl) Session() *Session {
	return self.factory.Session()
}

func (self *BridgeImpl) Metrics() metrics.Registry {
	return self.registry
}

// IsInitialized reports whether a session has been published. It only reads the factory, so it cannot fail.
func (self *BridgeImpl) IsInitialized() bool {
	return self.factory.Session() != nil
}

// Initialize creates the session. It is a no-op when a session already exists, and when no host context is
// available to attach the SDK to.
func (self *BridgeImpl) Initialize(cfg *Config) error {
	log := pfxlog.Logger()

	if self.IsInitialized() {
		log.Debug("shield already initialized, ignoring initialize request")
		return nil
	}

	if cfg == nil {
		return errors.Wrap(ErrInvalidConfig, "config must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	host := self.options.hostContext()
	if host == nil {
		log.Debug("no host context available, skipping shield initialization")
		return nil
	}

	session, created, err := self.factory.create(func() (*Session, error) {
		return self.buildSession(host, cfg)
	})

	if err != nil {
		log.WithError(err).WithField("siteId", cfg.SiteId).Error("failed to initialize shield")
		return err
	}

	if created {
		session.attach()

		log.WithField("sessionId", session.Id()).
			WithField("host", session.Host()).
			Infof("shield initialized for site %s", cfg.SiteId)
	}

	return nil
}

func (self *BridgeImpl) buildSession(host sdk.HostContext, cfg *Config) (session *Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			session = nil
			err = errors.Errorf("shield sdk panicked while building instance: %v", r)
		}
	}()

	instance, err := self.capability.NewInstance(host, self.nativeConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "could not build shield sdk instance")
	}

	if instance == nil {
		return nil, errors.New("shield sdk returned no instance")
	}

	return newSession(instance, host, self.sessionReady), nil
}

func (self *BridgeImpl) nativeConfig(cfg *Config) *sdk.Config {
	name, version := self.crossPlatformTag()

	nativeCfg := &sdk.Config{
		SiteId:               cfg.SiteId,
		SecretKey:            cfg.SecretKey,
		Environment:          resolveEnvironment(cfg.Environment),
		LogLevel:             resolveLogLevel(cfg.LogLevel),
		BlockedDialog:        cfg.BlockedDialog.native(),
		CrossPlatformName:    name,
		CrossPlatformVersion: version,
	}

	if cfg.OptimizedListener {
		nativeCfg.Callback = self.callback
	}

	return nativeCfg
}

func (self *BridgeImpl) sessionReady(session *Session) {
	elapsed := time.Since(session.CreatedAt())
	self.metrics.SessionReady(elapsed)

	pfxlog.Logger().WithField("sessionId", session.Id()).Debugf("shield session ready after %v", elapsed)

	if self.options.OnSessionReady != nil {
		self.options.OnSessionReady(session)
	}
}

// InitializeWithCallbacks initializes with the bridge as the primary result listener and subscribes the
// given callbacks to the success and error events.
func (self *BridgeImpl) InitializeWithCallbacks(cfg *Config, callbacks Callbacks) error {
	if cfg == nil {
		return errors.Wrap(ErrInvalidConfig, "config must not be nil")
	}

	optimized := *cfg
	optimized.OptimizedListener = true

	if err := self.Initialize(&optimized); err != nil {
		return err
	}

	if callbacks.OnSuccess != nil {
		self.On(EventSuccess, func(payload ...interface{}) {
			callbacks.OnSuccess(PayloadString(payload...))
		})
	}

	if callbacks.OnFailure != nil {
		self.On(EventError, func(payload ...interface{}) {
			callbacks.OnFailure(PayloadString(payload...))
		})
	}

	return nil
}

// SetCrossPlatformTag records the name and version of the host wrapper. A tag set before initialization is
// part of the SDK configuration, a later one is forwarded to the running session.
func (self *BridgeImpl) SetCrossPlatformTag(name, version string) {
	self.tagLock.Lock()
	self.tagName = name
	self.tagVersion = version
	self.tagLock.Unlock()

	if session := self.factory.Session(); session != nil {
		session.handle.SetCrossPlatformParameters(name, version)
	}
}

func (self *BridgeImpl) crossPlatformTag() (string, string) {
	self.tagLock.Lock()
	defer self.tagLock.Unlock()
	return self.tagName, self.tagVersion
}

func (self *BridgeImpl) GetSessionId() (string, error) {
	session := self.factory.Session()
	if session == nil {
		return "", ErrNotInitialized
	}
	return session.Id(), nil
}

func (self *BridgeImpl) SetReadyListener(listener func(isReady bool)) {
	session := self.factory.Session()
	if session == nil {
		pfxlog.Logger().Debug("shield not initialized, reporting not ready")
		self.dispatcher.Dispatch(func() {
			listener(false)
		})
		return
	}

	session.gate.Defer(func() {
		self.dispatcher.Dispatch(func() {
			self.EventEmmiter.Emit(EventDeviceResultState, DeviceResultState{Status: StatusSDKReady})
			self.metrics.MarkEventEmitted(EventDeviceResultState)
			listener(true)
		})
	})
}

func (self *BridgeImpl) Ready() (<-chan struct{}, error) {
	session := self.factory.Session()
	if session == nil {
		return nil, ErrNotInitialized
	}
	return session.Ready(), nil
}

func (self *BridgeImpl) AwaitReady(ctx context.Context) error {
	readyC, err := self.Ready()
	if err != nil {
		return err
	}

	select {
	case <-readyC:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendAttributes validates attrs and forwards them like SendAttributeBatch. Errors are reported in the same
// order on both paths: missing session, then empty screen name, then invalid attributes.
func (self *BridgeImpl) SendAttributes(screenName string, attrs map[string]interface{}) error {
	if !self.IsInitialized() {
		return ErrNotInitialized
	}

	if screenName == "" {
		return ErrEmptyScreenName
	}

	batch, err := NewAttributeBatch(attrs)
	if err != nil {
		return err
	}
	return self.SendAttributeBatch(screenName, batch)
}

// SendAttributeBatch forwards batch once the session is ready. Every call is gated on its own and sent
// exactly once; calls made before readiness are sent in the order they were made.
func (self *BridgeImpl) SendAttributeBatch(screenName string, batch AttributeBatch) error {
	session := self.factory.Session()
	if session == nil {
		return ErrNotInitialized
	}

	if screenName == "" {
		return ErrEmptyScreenName
	}

	attrs := batch.Clone()

	if !session.IsReady() {
		self.metrics.MarkAttributesDeferred()
	}

	session.gate.Defer(func() {
		self.dispatcher.Dispatch(func() {
			self.sendNow(session, screenName, attrs)
		})
	})

	return nil
}

func (self *BridgeImpl) sendNow(session *Session, screenName string, attrs AttributeBatch) {
	if err := session.handle.SendAttributes(screenName, attrs); err != nil {
		self.metrics.MarkAttributeSendFailure()
		pfxlog.Logger().WithError(err).
			WithField("sessionId", session.Id()).
			WithField("screen", screenName).
			Error("failed to send attributes")
		return
	}

	self.metrics.MarkAttributesSent()
	pfxlog.Logger().WithField("screen", screenName).Tracef("sent %d attributes", len(attrs))
}

// LatestResult returns the serialized latest device result. Without one it returns the SDK's last error,
// or ErrUnknownResult when the SDK recorded neither.
func (self *BridgeImpl) LatestResult() (string, error) {
	session := self.factory.Session()
	if session == nil {
		return "", ErrNotInitialized
	}

	if result := session.handle.LatestDeviceResult(); result != nil && result.Data() != nil {
		return result.String(), nil
	}

	if err := session.handle.ResponseError(); err != nil && errorMessage(err) != "" {
		return "", err
	}

	return "", ErrUnknownResult
}

// GetLatestResult calls exactly one of onSuccess or onError.
func (self *BridgeImpl) GetLatestResult(onSuccess func(result string), onError func(message string)) {
	result, err := self.LatestResult()
	if err != nil {
		onError(errorMessage(err))
		return
	}
	onSuccess(result)
}
