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

// Package errors provides domain-specific error types for the Vault credential provider.
// The first four types are fatal at initialization and are returned to the caller.
// RenewalError only ever appears in logs and events of the background renewal loop.
package errors

import (
	"errors"
	"fmt"
)

// ConfigurationError indicates missing or invalid settings: no token source,
// or client settings (CA certificate, VAULT_* environment) that cannot be applied.
// This is a permanent error - retrying won't help without user correction.
type ConfigurationError struct {
	Message string
	Cause   error // Optional underlying error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{Message: message}
}

// WrapConfigurationError creates a ConfigurationError caused by err.
func WrapConfigurationError(message string, err error) *ConfigurationError {
	return &ConfigurationError{Message: message, Cause: err}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// TokenResolutionError indicates a token file was selected but could not be read or decoded.
type TokenResolutionError struct {
	Path  string // Token file that failed
	Cause error  // The underlying error
}

func (e *TokenResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("could not read vault token from %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("could not read vault token from %s", e.Path)
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *TokenResolutionError) Unwrap() error {
	return e.Cause
}

// NewTokenResolutionError creates a TokenResolutionError.
func NewTokenResolutionError(path string, cause error) *TokenResolutionError {
	return &TokenResolutionError{
		Path:  path,
		Cause: cause,
	}
}

// IsTokenResolutionError returns true if the error is a TokenResolutionError.
func IsTokenResolutionError(err error) bool {
	var resolutionErr *TokenResolutionError
	return errors.As(err, &resolutionErr)
}

// AuthenticationError indicates Vault rejected the token during lookup-self.
type AuthenticationError struct {
	Address string // Vault address that rejected the token
	Cause   error  // The underlying error
}

func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vault token rejected by %s: %v", e.Address, e.Cause)
	}
	return fmt.Sprintf("vault token rejected by %s", e.Address)
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(address string, cause error) *AuthenticationError {
	return &AuthenticationError{
		Address: address,
		Cause:   cause,
	}
}

// IsAuthenticationError returns true if the error is an AuthenticationError.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// ConnectivityError indicates a failure to reach Vault or build a client for it.
type ConnectivityError struct {
	Address   string // Vault address that failed
	Operation string // What operation was attempted
	Cause     error  // The underlying error
}

func (e *ConnectivityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s against %s failed: %v", e.Operation, e.Address, e.Cause)
	}
	return fmt.Sprintf("%s against %s failed", e.Operation, e.Address)
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *ConnectivityError) Unwrap() error {
	return e.Cause
}

// NewConnectivityError creates a ConnectivityError.
func NewConnectivityError(address, operation string, cause error) *ConnectivityError {
	return &ConnectivityError{
		Address:   address,
		Operation: operation,
		Cause:     cause,
	}
}

// IsConnectivityError returns true if the error is a ConnectivityError.
func IsConnectivityError(err error) bool {
	var connErr *ConnectivityError
	return errors.As(err, &connErr)
}

// RenewalError indicates a failed renew-self call in the background loop.
// It is retried after a fixed delay and never returned to callers.
type RenewalError struct {
	Attempt int   // Consecutive failed attempts including this one
	Cause   error // The underlying error
}

func (e *RenewalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vault token renewal failed (attempt %d): %v", e.Attempt, e.Cause)
	}
	return fmt.Sprintf("vault token renewal failed (attempt %d)", e.Attempt)
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *RenewalError) Unwrap() error {
	return e.Cause
}

// NewRenewalError creates a RenewalError.
func NewRenewalError(attempt int, cause error) *RenewalError {
	return &RenewalError{
		Attempt: attempt,
		Cause:   cause,
	}
}

// IsRenewalError returns true if the error is a RenewalError.
func IsRenewalError(err error) bool {
	var renewalErr *RenewalError
	return errors.As(err, &renewalErr)
}
