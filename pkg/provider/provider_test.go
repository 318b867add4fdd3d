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

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Default is process-wide, so everything is exercised in one test.
func TestDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/token/lookup-self" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"data":{"ttl":0,"renewable":false}}`)
	}))
	defer server.Close()

	t.Setenv("VAULT_ADDR", server.URL)
	t.Setenv("VAULT_TOKEN", "s.default")
	t.Setenv("VAULT_TOKEN_PATH", "")

	var wg sync.WaitGroup
	managers := make(chan any, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := Default()
			if err != nil {
				t.Errorf("Default() error = %v", err)
				return
			}
			managers <- m
		}()
	}
	wg.Wait()
	close(managers)

	var first any
	for m := range managers {
		if first == nil {
			first = m
		} else if m != first {
			t.Error("Default() returned different managers")
		}
	}

	c1, err := Client(context.Background())
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	c2, err := Client(context.Background())
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if c1 != c2 {
		t.Error("Client() returned different handles")
	}
	if c1.Address() != server.URL {
		t.Errorf("Address() = %q, want %q", c1.Address(), server.URL)
	}
}
