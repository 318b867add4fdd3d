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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/navikt/kafka-connect-vault-provider/pkg/vault"
	"github.com/navikt/kafka-connect-vault-provider/pkg/vault/token"
)

func fakeVault(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/auth/token/lookup-self":
			_, _ = w.Write([]byte(`{"data":{"ttl":0,"renewable":false}}`))
		case "/v1/sys/health":
			_, _ = w.Write([]byte(`{"initialized":true,"sealed":false}`))
		case "/v1/secret/postgres/local":
			_, _ = w.Write([]byte(`{"data":{"username":"app","password":"hunter2"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestReadCommand(t *testing.T) {
	server := fakeVault(t)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"read", "--vault-addr", server.URL, "--vault-token", "s.test"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, want := out.String(), "app\nhunter2\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestReadCommand_InvalidConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"read", "--vault-token", "s.test", "--renewal-retry-delay=-1s"})

	if err := root.Execute(); err == nil {
		t.Error("Execute() error = nil, want invalid configuration")
	}
}

func TestServeCommand_ListenAddressInUse(t *testing.T) {
	server := fakeVault(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := newRootCmd()
	root.SetArgs([]string{"serve", "--listen", ln.Addr().String(), "--vault-addr", server.URL, "--vault-token", "s.test"})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "failed to listen") {
			t.Errorf("Execute() error = %v, want listen failure", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve kept running with its listen address in use")
	}
}

func TestServeCommand_StopsOnCancel(t *testing.T) {
	server := fakeVault(t)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	root := newRootCmd()
	root.SetArgs([]string{"serve", "--listen", "127.0.0.1:0", "--vault-addr", server.URL, "--vault-token", "s.test"})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Execute() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after its context was cancelled")
	}
}

type fakeManager struct {
	status token.Status
	client *vault.Client
	err    error
}

func (m *fakeManager) Status() token.Status { return m.status }

func (m *fakeManager) Client(_ context.Context) (*vault.Client, error) { return m.client, m.err }

func newVaultClient(t *testing.T, health string) *vault.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/sys/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(health))
	}))
	t.Cleanup(server.Close)

	client, err := vault.NewClient(vault.ClientConfig{Address: server.URL, Token: "s.test", DisableRetries: true})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestServeMux(t *testing.T) {
	const (
		unsealed = `{"initialized":true,"sealed":false}`
		sealed   = `{"initialized":true,"sealed":true}`
	)

	tests := []struct {
		name       string
		status     token.Status
		health     string
		clientErr  error
		path       string
		wantStatus int
	}{
		{name: "healthy", status: token.Status{Ready: true}, health: unsealed, path: "/healthz", wantStatus: http.StatusOK},
		{name: "not initialized", status: token.Status{}, health: unsealed, path: "/healthz", wantStatus: http.StatusServiceUnavailable},
		{name: "vault sealed", status: token.Status{Ready: true}, health: sealed, path: "/healthz", wantStatus: http.StatusServiceUnavailable},
		{name: "client error", status: token.Status{Ready: true}, clientErr: errors.New("token rejected"), path: "/healthz", wantStatus: http.StatusServiceUnavailable},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK},
		{name: "status", status: token.Status{Ready: true}, path: "/status", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := &fakeManager{status: tt.status, err: tt.clientErr}
			if tt.health != "" {
				mgr.client = newVaultClient(t, tt.health)
			}

			rec := httptest.NewRecorder()
			newServeMux(mgr).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestServeMux_StatusBody(t *testing.T) {
	status := token.Status{
		Ready:        true,
		Renewable:    true,
		TTL:          30 * time.Minute,
		RenewalCount: 2,
	}

	rec := httptest.NewRecorder()
	newServeMux(&fakeManager{status: status}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var body statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !body.Ready || !body.Renewable {
		t.Errorf("ready/renewable = %v/%v, want true/true", body.Ready, body.Renewable)
	}
	if body.TTLSeconds != 1800 {
		t.Errorf("ttlSeconds = %d, want 1800", body.TTLSeconds)
	}
	if body.RenewalCount != 2 {
		t.Errorf("renewalCount = %d, want 2", body.RenewalCount)
	}
}

func TestServeMux_StatusOmitsUnsetTimes(t *testing.T) {
	rec := httptest.NewRecorder()
	newServeMux(&fakeManager{status: token.Status{Ready: true}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"lastRenewal", "nextRenewal"} {
		if _, ok := raw[key]; ok {
			t.Errorf("body %s contains %q for a zero time", rec.Body.String(), key)
		}
	}

	next := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec = httptest.NewRecorder()
	newServeMux(&fakeManager{status: token.Status{Ready: true, NextRenewal: next}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if !strings.Contains(rec.Body.String(), `"nextRenewal":"2026-01-02T03:04:05Z"`) {
		t.Errorf("body %s lacks nextRenewal", rec.Body.String())
	}
}
