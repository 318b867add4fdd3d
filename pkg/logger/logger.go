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

// Package logger provides structured logging utilities for the Vault credential provider.
// It defines standard log fields and helper functions for consistent logging across
// the token manager, the secret accessor and the CLI.
package logger

import (
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Standard log field keys for consistent structured logging.
const (
	// KeyVaultAddress identifies the Vault server
	KeyVaultAddress = "vaultAddress"

	// KeyVaultPath identifies the Vault path being accessed
	KeyVaultPath = "vaultPath"

	// KeyOperation identifies the operation being performed
	KeyOperation = "operation"

	// KeyDuration records the time taken for an operation
	KeyDuration = "duration"

	// KeyTTL is the token time-to-live in seconds
	KeyTTL = "ttlSeconds"

	// KeyDelay is the delay until the next scheduled renewal
	KeyDelay = "delay"

	// KeyRenewable is the token renewable flag
	KeyRenewable = "renewable"

	// KeyRetryCount tracks retry attempts
	KeyRetryCount = "retryCount"

	// KeyTokenPath identifies the file a token was read from
	KeyTokenPath = "tokenPath"

	// KeyError includes error details
	KeyError = "error"
)

// Operation types for logging
const (
	OpLookupSelf = "lookup-self"
	OpRenewSelf  = "renew-self"
	OpRead       = "read"
)

// Options configures the process logger.
type Options struct {
	// Development enables human-readable console output and debug level.
	Development bool

	// Verbosity raises the logr V-level that is printed. 0 prints Info only.
	Verbosity int
}

// New builds the process logger on top of controller-runtime's zap integration.
func New(opts Options) logr.Logger {
	level := zapcore.Level(-opts.Verbosity)
	return zap.New(
		zap.UseDevMode(opts.Development),
		zap.Level(level),
	)
}

// WithOperation adds operation context to an existing logger.
func WithOperation(l logr.Logger, op string) logr.Logger {
	return l.WithValues(KeyOperation, op)
}

// WithVaultPath adds Vault path context to an existing logger.
func WithVaultPath(l logr.Logger, path string) logr.Logger {
	return l.WithValues(KeyVaultPath, path)
}

// WithVaultAddress adds the Vault server address to an existing logger.
func WithVaultAddress(l logr.Logger, address string) logr.Logger {
	return l.WithValues(KeyVaultAddress, address)
}

// WithDuration adds duration context to an existing logger.
func WithDuration(l logr.Logger, d time.Duration) logr.Logger {
	return l.WithValues(KeyDuration, d.String())
}

// TTLSeconds renders a duration the way Vault reports TTLs.
func TTLSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
