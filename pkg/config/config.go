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

// Package config loads the provider configuration from the environment and
// command line flags.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/navikt/kafka-connect-vault-provider/pkg/vault"
	"github.com/navikt/kafka-connect-vault-provider/pkg/vault/token"
)

// Configuration keys. Each key is also a flag name.
const (
	KeyAddress          = "vault-addr"
	KeyToken            = "vault-token"
	KeyTokenPath        = "vault-token-path"
	KeyDefaultTokenPath = "vault-default-token-path"
	KeyCACert           = "vault-cacert"
	KeySkipVerify       = "vault-skip-verify"
	KeyConnectTimeout   = "vault-connect-timeout"
	KeyReadTimeout      = "vault-read-timeout"
	KeySafetyMargin     = "renewal-safety-margin"
	KeyRetryDelay       = "renewal-retry-delay"
)

var envBindings = map[string]string{
	KeyAddress:          "VAULT_ADDR",
	KeyToken:            token.TokenEnvVar,
	KeyTokenPath:        token.TokenPathEnvVar,
	KeyDefaultTokenPath: "VAULT_DEFAULT_TOKEN_PATH",
	KeyCACert:           "VAULT_CACERT",
	KeySkipVerify:       "VAULT_SKIP_VERIFY",
	KeyConnectTimeout:   "VAULT_CONNECT_TIMEOUT",
	KeyReadTimeout:      "VAULT_READ_TIMEOUT",
	KeySafetyMargin:     "VAULT_RENEWAL_SAFETY_MARGIN",
	KeyRetryDelay:       "VAULT_RENEWAL_RETRY_DELAY",
}

// Config is the resolved provider configuration.
type Config struct {
	Address          string
	Token            string
	TokenPath        string
	DefaultTokenPath string
	CACert           string
	SkipVerify       bool
	ConnectTimeout   time.Duration
	ReadTimeout      time.Duration
	SafetyMargin     time.Duration
	RetryDelay       time.Duration
}

// NewViper returns a viper instance with defaults set and every key bound to
// its environment variable.
func NewViper() (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyAddress, vault.DefaultAddress)
	v.SetDefault(KeyDefaultTokenPath, token.DefaultTokenPath)
	v.SetDefault(KeyConnectTimeout, vault.DefaultConnectTimeout)
	v.SetDefault(KeyReadTimeout, vault.DefaultReadTimeout)
	v.SetDefault(KeySafetyMargin, token.DefaultSafetyMargin)
	v.SetDefault(KeyRetryDelay, token.DefaultRetryDelay)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s to %s: %w", key, env, err)
		}
	}
	return v, nil
}

// AddFlags registers a flag for every configuration key.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(KeyAddress, vault.DefaultAddress, "Vault server address (env VAULT_ADDR)")
	flags.String(KeyToken, "", "Vault token (env VAULT_TOKEN)")
	flags.String(KeyTokenPath, "", "file containing the Vault token (env VAULT_TOKEN_PATH)")
	flags.String(KeyDefaultTokenPath, token.DefaultTokenPath, "token file used when no token or token path is set")
	flags.String(KeyCACert, "", "PEM CA certificate for the Vault server (env VAULT_CACERT)")
	flags.Bool(KeySkipVerify, false, "skip Vault TLS verification (env VAULT_SKIP_VERIFY)")
	flags.Duration(KeyConnectTimeout, vault.DefaultConnectTimeout, "Vault connect timeout")
	flags.Duration(KeyReadTimeout, vault.DefaultReadTimeout, "Vault read timeout")
	flags.Duration(KeySafetyMargin, token.DefaultSafetyMargin, "renew this long before the token expires")
	flags.Duration(KeyRetryDelay, token.DefaultRetryDelay, "wait this long after a failed renewal")
}

// BindFlags binds every configuration key to the flag of the same name.
// A flag set on the command line overrides the environment.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key := range envBindings {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Address:          v.GetString(KeyAddress),
		Token:            v.GetString(KeyToken),
		TokenPath:        v.GetString(KeyTokenPath),
		DefaultTokenPath: v.GetString(KeyDefaultTokenPath),
		CACert:           v.GetString(KeyCACert),
		SkipVerify:       v.GetBool(KeySkipVerify),
		ConnectTimeout:   v.GetDuration(KeyConnectTimeout),
		ReadTimeout:      v.GetDuration(KeyReadTimeout),
		SafetyMargin:     v.GetDuration(KeySafetyMargin),
		RetryDelay:       v.GetDuration(KeyRetryDelay),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds the configuration from the environment only.
func FromEnv() (*Config, error) {
	v, err := NewViper()
	if err != nil {
		return nil, err
	}
	return Load(v)
}

// Validate rejects values that cannot produce a working manager.
func (c *Config) Validate() error {
	if c.ConnectTimeout < 0 || c.ReadTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.SafetyMargin < 0 {
		return fmt.Errorf("%s must not be negative", KeySafetyMargin)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%s must not be negative", KeyRetryDelay)
	}
	return nil
}

// TokenConfig converts the configuration into the token manager's config.
func (c *Config) TokenConfig() token.Config {
	cfg := token.Config{
		Address: c.Address,
		Source: token.SourceConfig{
			Token:            c.Token,
			TokenPath:        c.TokenPath,
			DefaultTokenPath: c.DefaultTokenPath,
		},
		ConnectTimeout: c.ConnectTimeout,
		ReadTimeout:    c.ReadTimeout,
		SafetyMargin:   c.SafetyMargin,
		RetryDelay:     c.RetryDelay,
	}
	if c.CACert != "" || c.SkipVerify {
		cfg.TLSConfig = &vault.TLSConfig{
			CACert:     c.CACert,
			SkipVerify: c.SkipVerify,
		}
	}
	return cfg
}
