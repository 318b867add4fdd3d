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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/navikt/kafka-connect-vault-provider/pkg/vault"
	"github.com/navikt/kafka-connect-vault-provider/pkg/vault/token"
	"github.com/navikt/kafka-connect-vault-provider/shared/events"
)

const (
	shutdownTimeout    = 10 * time.Second
	healthCheckTimeout = 5 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the Vault token renewed and expose metrics and status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", listen, err)
			}

			bus := events.NewEventBus(a.log.WithName("events"))
			subscribeLogging(bus, a.log.WithName("lifecycle"))
			mgr := a.newManager(bus)

			server := &http.Server{
				Handler:           newServeMux(mgr),
				ReadHeaderTimeout: 5 * time.Second,
			}

			// A failing server stops the manager so Start returns.
			errCh := make(chan error, 1)
			go func() {
				a.log.Info("serving metrics and status", "address", ln.Addr().String())
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
					cancel()
				}
			}()

			startErr := mgr.Start(ctx)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.log.Error(err, "failed to shut down http server")
			}

			select {
			case err := <-errCh:
				return fmt.Errorf("http server failed: %w", err)
			default:
			}
			return startErr
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8080", "address for /metrics, /healthz and /status")
	return cmd
}

// statusProvider is implemented by *token.Manager.
type statusProvider interface {
	Status() token.Status
	Client(ctx context.Context) (*vault.Client, error)
}

func newServeMux(mgr statusProvider) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(ctrlmetrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !mgr.Status().Ready {
			http.Error(w, "vault token not initialized", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		client, err := mgr.Client(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		healthy, err := client.IsHealthy(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if !healthy {
			http.Error(w, "vault is sealed or not initialized", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		s := mgr.Status()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusResponse{
			Ready:               s.Ready,
			Renewable:           s.Renewable,
			TTLSeconds:          int64(s.TTL / time.Second),
			LastRenewal:         s.LastRenewal,
			RenewalCount:        s.RenewalCount,
			ConsecutiveFailures: s.ConsecutiveFailures,
			NextRenewal:         s.NextRenewal,
			Error:               s.Error,
		})
	})
	return mux
}

type statusResponse struct {
	Ready               bool      `json:"ready"`
	Renewable           bool      `json:"renewable"`
	TTLSeconds          int64     `json:"ttlSeconds"`
	LastRenewal         time.Time `json:"lastRenewal,omitzero"`
	RenewalCount        int       `json:"renewalCount"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	NextRenewal         time.Time `json:"nextRenewal,omitzero"`
	Error               string    `json:"error,omitempty"`
}

// subscribeLogging traces renewal outcomes at debug verbosity.
func subscribeLogging(bus *events.EventBus, log logr.Logger) {
	events.Subscribe(bus, func(_ context.Context, e events.TokenRenewed) error {
		log.V(1).Info("token renewed", "leaseSeconds", int64(e.LeaseDuration/time.Second), "renewalCount", e.RenewalCount)
		return nil
	})
	events.Subscribe(bus, func(_ context.Context, e events.TokenRenewalFailed) error {
		log.V(1).Info("token renewal failed", "retryCount", e.RetryCount, "retryIn", e.RetryIn.String())
		return nil
	})
}
