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
	"time"

	"github.com/navikt/kafka-connect-vault-provider/pkg/vault"
)

// Default values for token lifecycle management.
const (
	// DefaultTokenPath is the well-known location of the platform-mounted Vault token.
	DefaultTokenPath = "/var/run/secrets/nais.io/vault/vault_token"

	// DefaultSafetyMargin is subtracted from the TTL so renewal happens before expiry.
	DefaultSafetyMargin = 10 * time.Minute

	// DefaultRetryDelay is the fixed delay before retrying a failed renewal.
	DefaultRetryDelay = 5 * time.Second

	// TokenEnvVar and TokenPathEnvVar name the explicit token inputs.
	TokenEnvVar     = "VAULT_TOKEN"
	TokenPathEnvVar = "VAULT_TOKEN_PATH"
)

// SourceConfig lists the token origins in precedence order.
type SourceConfig struct {
	// Token is an explicit token value. Highest precedence.
	Token string

	// TokenPath is a file holding the token.
	TokenPath string

	// DefaultTokenPath is consulted only if it exists.
	DefaultTokenPath string
}

// Config configures a Manager.
type Config struct {
	// Address is the Vault server address.
	Address string

	// Source configures where the initial token comes from.
	Source SourceConfig

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout bounds each request.
	ReadTimeout time.Duration

	// TLSConfig contains TLS settings for Vault connection.
	TLSConfig *vault.TLSConfig

	// SafetyMargin is how long before expiry renewal should fire.
	SafetyMargin time.Duration

	// RetryDelay is the delay after a failed renewal.
	RetryDelay time.Duration
}

// Status represents the current state of the managed token.
type Status struct {
	// Ready indicates initialization completed and a client is published.
	Ready bool

	// Renewable is the renewable flag reported by the last lookup or renewal.
	Renewable bool

	// TTL is the last known time-to-live.
	TTL time.Duration

	// LastRenewal is when the token was last renewed successfully.
	LastRenewal time.Time

	// RenewalCount is the number of successful renewals.
	RenewalCount int

	// ConsecutiveFailures counts renewal failures since the last success.
	ConsecutiveFailures int

	// NextRenewal is when the next renewal is scheduled. Zero if none.
	NextRenewal time.Time

	// Error contains any error from the last renewal attempt.
	Error string
}

// WithDefaults returns a copy of Config with default values applied.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Address == "" {
		cfg.Address = vault.DefaultAddress
	}
	if cfg.Source.DefaultTokenPath == "" {
		cfg.Source.DefaultTokenPath = DefaultTokenPath
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = vault.DefaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = vault.DefaultReadTimeout
	}
	if cfg.SafetyMargin == 0 {
		cfg.SafetyMargin = DefaultSafetyMargin
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &cfg
}
