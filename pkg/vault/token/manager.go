/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package token

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/navikt/kafka-connect-vault-provider/pkg/logger"
	"github.com/navikt/kafka-connect-vault-provider/pkg/metrics"
	"github.com/navikt/kafka-connect-vault-provider/pkg/vault"
	"github.com/navikt/kafka-connect-vault-provider/shared/events"
	domainerrors "github.com/navikt/kafka-connect-vault-provider/shared/infrastructure/errors"
)

// EventPublisher is the interface for publishing events.
// This decouples from the concrete event bus implementation.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ClientFactory builds the Vault client. Tests replace it to tune the client.
type ClientFactory func(cfg vault.ClientConfig) (*vault.Client, error)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithEventPublisher sets where lifecycle events are published.
func WithEventPublisher(bus EventPublisher) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithClock sets the clock driving the renewal timer.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithClientFactory overrides how the Vault client is built.
func WithClientFactory(f ClientFactory) Option {
	return func(m *Manager) {
		m.newClient = f
	}
}

// Manager owns the authenticated Vault client for the process and keeps its
// token alive.
//
// The first call to Client resolves the token, builds the client, validates
// the token with lookup-self and, if the token is renewable, starts a single
// background goroutine that renews it. Each renewal run arms exactly one timer
// for the next run: RefreshInterval of the new lease on success, RetryDelay on
// failure. The loop only ends when Stop is called or Start's context is done.
//
// The published client is never replaced. Renewal extends the token in place.
type Manager struct {
	config    *Config
	source    *Source
	log       logr.Logger
	bus       EventPublisher
	clock     clock.Clock
	newClient ClientFactory

	// initMu serializes initialization; client is published once under it.
	initMu sync.Mutex
	client atomic.Pointer[vault.Client]
	done   chan struct{}

	loopCtx context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	status Status
}

// NewManager creates a new Manager. No I/O happens until Client or Start is called.
func NewManager(config Config, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:    config.WithDefaults(),
		log:       logr.Discard(),
		clock:     clock.RealClock{},
		newClient: vault.NewClient,
		loopCtx:   ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithName("token-manager")
	m.source = NewSource(m.config.Source, m.log)
	return m
}

// Client returns the authenticated Vault client, initializing the manager on
// first use. Concurrent first callers share a single initialization. If
// initialization fails no client is published and the next call retries.
func (m *Manager) Client(ctx context.Context) (*vault.Client, error) {
	if c := m.client.Load(); c != nil {
		return c, nil
	}

	m.initMu.Lock()
	defer m.initMu.Unlock()

	if c := m.client.Load(); c != nil {
		return c, nil
	}

	c, lookup, err := m.initialize(ctx)
	if err != nil {
		return nil, err
	}

	m.client.Store(c)
	if lookup.Renewable {
		first := RefreshInterval(lookup.TTL, m.config.SafetyMargin)
		m.log.Info("configuring a timer for refreshing the vault token", logger.KeyDelay, first.String())
		m.done = make(chan struct{})
		go m.runRenewalLoop(m.loopCtx, c, first)
	}
	return c, nil
}

// Start initializes the manager and blocks until ctx is cancelled, then stops
// the renewal loop.
func (m *Manager) Start(ctx context.Context) error {
	if _, err := m.Client(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	m.Stop()
	return nil
}

// Stop cancels the renewal loop and waits for it to exit. The published client
// stays usable. Safe to call multiple times.
func (m *Manager) Stop() {
	m.cancel()

	m.initMu.Lock()
	done := m.done
	m.initMu.Unlock()

	if done != nil {
		<-done
	}
}

// Status returns a copy of the current token status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// initialize resolves the token, builds the client and validates the token.
func (m *Manager) initialize(ctx context.Context) (*vault.Client, *vault.TokenLookup, error) {
	address := m.config.Address
	log := logger.WithVaultAddress(m.log, address)

	token, err := m.source.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}

	c, err := m.newClient(vault.ClientConfig{
		Address:        address,
		Token:          token,
		TLSConfig:      m.config.TLSConfig,
		ConnectTimeout: m.config.ConnectTimeout,
		ReadTimeout:    m.config.ReadTimeout,
	})
	if err != nil {
		return nil, nil, domainerrors.WrapConfigurationError("invalid vault client settings", err)
	}

	lookup, err := c.LookupSelf(ctx)
	if err != nil {
		if vault.IsPermissionDenied(err) {
			return nil, nil, domainerrors.NewAuthenticationError(address, err)
		}
		return nil, nil, domainerrors.NewConnectivityError(address, logger.OpLookupSelf, err)
	}

	log.Info("validated vault token",
		logger.KeyTTL, logger.TTLSeconds(lookup.TTL),
		logger.KeyRenewable, lookup.Renewable,
	)
	metrics.SetTokenTTL(lookup.TTL)
	metrics.SetTokenRenewable(lookup.Renewable)

	m.mu.Lock()
	m.status.Ready = true
	m.status.TTL = lookup.TTL
	m.status.Renewable = lookup.Renewable
	m.mu.Unlock()

	m.publish(ctx, events.NewTokenValidated(address, lookup.TTL, lookup.Renewable))

	if !lookup.Renewable {
		log.Info("WARNING: vault token is not renewable, it will expire when its TTL runs out",
			logger.KeyTTL, logger.TTLSeconds(lookup.TTL),
		)
		m.publish(ctx, events.NewTokenNotRenewable(address, lookup.TTL))
	}

	return c, lookup, nil
}

// runRenewalLoop owns the renewal schedule. There is exactly one pending
// timer at a time and runs never overlap.
func (m *Manager) runRenewalLoop(ctx context.Context, c *vault.Client, delay time.Duration) {
	defer close(m.done)

	reason := events.ScheduleReasonInitial
	for {
		timer := m.clock.NewTimer(delay)
		m.recordSchedule(ctx, delay, reason)

		select {
		case <-ctx.Done():
			timer.Stop()
			m.log.V(1).Info("renewal loop stopped")
			return
		case <-timer.C():
		}

		delay, reason = m.renew(ctx, c)
	}
}

// renew performs one renewal run and returns the delay until the next one.
func (m *Manager) renew(ctx context.Context, c *vault.Client) (time.Duration, string) {
	log := logger.WithOperation(m.log, logger.OpRenewSelf)
	start := m.clock.Now()

	if before, err := c.LookupSelf(ctx); err == nil {
		log.Info("refreshing vault token", "oldTTLSeconds", logger.TTLSeconds(before.TTL))
	} else {
		log.V(1).Info("could not look up vault token before renewal", logger.KeyError, err.Error())
	}

	result, err := c.RenewSelf(ctx)
	if err != nil {
		failures := m.recordFailure(err)
		renewalErr := domainerrors.NewRenewalError(failures, err)
		delay := m.config.RetryDelay

		logger.WithDuration(log, m.clock.Since(start)).Error(renewalErr, "could not refresh the vault token")
		log.Info("waiting before trying to refresh the vault token again",
			logger.KeyDelay, delay.String(),
			logger.KeyRetryCount, failures,
		)
		metrics.IncrementRenewal(false)
		metrics.SetConsecutiveFailures(failures)
		m.publish(ctx, events.NewTokenRenewalFailed(renewalErr.Error(), failures, delay))
		return delay, events.ScheduleReasonRetry
	}

	count := m.recordSuccess(result)
	metrics.IncrementRenewal(true)
	metrics.SetConsecutiveFailures(0)
	metrics.SetTokenTTL(result.LeaseDuration)

	timed := logger.WithDuration(log, m.clock.Since(start))
	if after, err := c.LookupSelf(ctx); err == nil {
		timed.Info("refreshed vault token", "newTTLSeconds", logger.TTLSeconds(after.TTL))
	} else {
		timed.Info("refreshed vault token", "leaseSeconds", logger.TTLSeconds(result.LeaseDuration))
	}
	m.publish(ctx, events.NewTokenRenewed(result.LeaseDuration, count))

	return RefreshInterval(result.LeaseDuration, m.config.SafetyMargin), events.ScheduleReasonRenewed
}

func (m *Manager) recordSchedule(ctx context.Context, delay time.Duration, reason string) {
	m.mu.Lock()
	m.status.NextRenewal = m.clock.Now().Add(delay)
	m.mu.Unlock()

	metrics.SetNextRenewal(delay)
	m.log.V(1).Info("scheduled vault token renewal", logger.KeyDelay, delay.String(), "reason", reason)
	m.publish(ctx, events.NewRenewalScheduled(delay, reason))
}

func (m *Manager) recordFailure(err error) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.ConsecutiveFailures++
	m.status.Error = err.Error()
	return m.status.ConsecutiveFailures
}

func (m *Manager) recordSuccess(result *vault.RenewResult) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.RenewalCount++
	m.status.ConsecutiveFailures = 0
	m.status.Error = ""
	m.status.TTL = result.LeaseDuration
	m.status.Renewable = result.Renewable
	m.status.LastRenewal = m.clock.Now()
	return m.status.RenewalCount
}

func (m *Manager) publish(ctx context.Context, event events.Event) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(ctx, event); err != nil {
		m.log.Error(err, "failed to publish event", "type", event.Type())
	}
}
