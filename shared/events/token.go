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

package events

import "time"

// Token event type constants.
const (
	TokenValidatedType     = "token.validated"
	TokenNotRenewableType  = "token.not_renewable"
	RenewalScheduledType   = "token.renewal_scheduled"
	TokenRenewedType       = "token.renewed"
	TokenRenewalFailedType = "token.renewal_failed"
)

// Schedule reasons carried by RenewalScheduled.
const (
	ScheduleReasonInitial = "initial"
	ScheduleReasonRenewed = "renewed"
	ScheduleReasonRetry   = "retry"
)

// TokenValidated is published when lookup-self succeeds during initialization.
type TokenValidated struct {
	BaseEvent
	// Address is the Vault server address
	Address string
	// TTL is the remaining validity reported by Vault
	TTL time.Duration
	// Renewable is the renewable flag reported by Vault
	Renewable bool
}

// Type returns the event type identifier.
func (e TokenValidated) Type() string {
	return TokenValidatedType
}

// NewTokenValidated creates a TokenValidated event.
func NewTokenValidated(address string, ttl time.Duration, renewable bool) TokenValidated {
	return TokenValidated{
		BaseEvent: NewBaseEvent(TokenValidatedType),
		Address:   address,
		TTL:       ttl,
		Renewable: renewable,
	}
}

// TokenNotRenewable is published when the initial token cannot be renewed.
// The token stays valid until Vault expires it; no renewal loop is started.
type TokenNotRenewable struct {
	BaseEvent
	// Address is the Vault server address
	Address string
	// TTL is the remaining validity reported by Vault
	TTL time.Duration
}

// Type returns the event type identifier.
func (e TokenNotRenewable) Type() string {
	return TokenNotRenewableType
}

// NewTokenNotRenewable creates a TokenNotRenewable event.
func NewTokenNotRenewable(address string, ttl time.Duration) TokenNotRenewable {
	return TokenNotRenewable{
		BaseEvent: NewBaseEvent(TokenNotRenewableType),
		Address:   address,
		TTL:       ttl,
	}
}

// RenewalScheduled is published every time the renewal loop arms its timer.
type RenewalScheduled struct {
	BaseEvent
	// Delay is how long until the next renewal run
	Delay time.Duration
	// Reason is one of the ScheduleReason constants
	Reason string
}

// Type returns the event type identifier.
func (e RenewalScheduled) Type() string {
	return RenewalScheduledType
}

// NewRenewalScheduled creates a RenewalScheduled event.
func NewRenewalScheduled(delay time.Duration, reason string) RenewalScheduled {
	return RenewalScheduled{
		BaseEvent: NewBaseEvent(RenewalScheduledType),
		Delay:     delay,
		Reason:    reason,
	}
}

// TokenRenewed is published when a Vault token is successfully renewed.
type TokenRenewed struct {
	BaseEvent
	// LeaseDuration is the validity granted by the renewal
	LeaseDuration time.Duration
	// RenewalCount is how many times this token has been renewed
	RenewalCount int
}

// Type returns the event type identifier.
func (e TokenRenewed) Type() string {
	return TokenRenewedType
}

// NewTokenRenewed creates a TokenRenewed event.
func NewTokenRenewed(leaseDuration time.Duration, renewalCount int) TokenRenewed {
	return TokenRenewed{
		BaseEvent:     NewBaseEvent(TokenRenewedType),
		LeaseDuration: leaseDuration,
		RenewalCount:  renewalCount,
	}
}

// TokenRenewalFailed is published when token renewal fails.
// This allows for monitoring and alerting on token issues.
type TokenRenewalFailed struct {
	BaseEvent
	// Error describes what went wrong
	Error string
	// RetryCount is how many consecutive attempts have failed
	RetryCount int
	// RetryIn is the delay before the next attempt
	RetryIn time.Duration
}

// Type returns the event type identifier.
func (e TokenRenewalFailed) Type() string {
	return TokenRenewalFailedType
}

// NewTokenRenewalFailed creates a TokenRenewalFailed event.
func NewTokenRenewalFailed(errMsg string, retryCount int, retryIn time.Duration) TokenRenewalFailed {
	return TokenRenewalFailed{
		BaseEvent:  NewBaseEvent(TokenRenewalFailedType),
		Error:      errMsg,
		RetryCount: retryCount,
		RetryIn:    retryIn,
	}
}
