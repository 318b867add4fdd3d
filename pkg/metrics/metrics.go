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

// Package metrics provides Prometheus metrics for the Vault credential provider.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// Result labels for metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

const namespace = "vault_provider"

var (
	// TokenTTLGauge tracks the last known token TTL in seconds.
	TokenTTLGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "ttl_seconds",
			Help:      "Last known Vault token time-to-live in seconds",
		},
	)

	// TokenRenewableGauge reports whether the token can be renewed.
	// Value is 1 for renewable, 0 otherwise.
	TokenRenewableGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "renewable",
			Help:      "Vault token renewable flag (1=renewable, 0=not renewable)",
		},
	)

	// TokenRenewalsTotal counts renew-self attempts.
	TokenRenewalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "renewals_total",
			Help:      "Total number of Vault token renewal attempts",
		},
		[]string{"result"},
	)

	// NextRenewalGauge tracks the delay of the currently scheduled renewal.
	NextRenewalGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "next_renewal_seconds",
			Help:      "Delay in seconds of the currently scheduled token renewal",
		},
	)

	// ConsecutiveFailuresGauge tracks renewal failures since the last success.
	ConsecutiveFailuresGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "consecutive_renewal_failures",
			Help:      "Number of consecutive token renewal failures",
		},
	)

	// SecretReadsTotal counts secret reads through the managed client.
	SecretReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "secret",
			Name:      "reads_total",
			Help:      "Total number of secret reads",
		},
		[]string{"result"},
	)
)

func init() {
	// Register all metrics with the controller-runtime metrics registry
	metrics.Registry.MustRegister(
		TokenTTLGauge,
		TokenRenewableGauge,
		TokenRenewalsTotal,
		NextRenewalGauge,
		ConsecutiveFailuresGauge,
		SecretReadsTotal,
	)
}

// SetTokenTTL records the last known token TTL.
func SetTokenTTL(ttl time.Duration) {
	TokenTTLGauge.Set(ttl.Seconds())
}

// SetTokenRenewable records the renewable flag.
func SetTokenRenewable(renewable bool) {
	val := 0.0
	if renewable {
		val = 1.0
	}
	TokenRenewableGauge.Set(val)
}

// IncrementRenewal increments the renewal counter.
func IncrementRenewal(success bool) {
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	TokenRenewalsTotal.WithLabelValues(result).Inc()
}

// SetNextRenewal records the delay of the next scheduled renewal.
func SetNextRenewal(delay time.Duration) {
	NextRenewalGauge.Set(delay.Seconds())
}

// SetConsecutiveFailures sets the consecutive renewal failure count.
func SetConsecutiveFailures(count int) {
	ConsecutiveFailuresGauge.Set(float64(count))
}

// IncrementSecretRead increments the secret read counter.
func IncrementSecretRead(success bool) {
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	SecretReadsTotal.WithLabelValues(result).Inc()
}
