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

// Package provider holds the process-wide token manager for callers that
// cannot have one injected.
package provider

import (
	"context"
	"sync"

	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/navikt/kafka-connect-vault-provider/pkg/config"
	"github.com/navikt/kafka-connect-vault-provider/pkg/vault"
	"github.com/navikt/kafka-connect-vault-provider/pkg/vault/token"
)

var (
	once    sync.Once
	manager *token.Manager
	loadErr error
)

// Default returns the process-wide Manager, configured from the environment
// on first use. A configuration error is returned on every call.
func Default() (*token.Manager, error) {
	once.Do(func() {
		cfg, err := config.FromEnv()
		if err != nil {
			loadErr = err
			return
		}
		manager = token.NewManager(cfg.TokenConfig(),
			token.WithLogger(ctrllog.Log.WithName("vault-provider")),
		)
	})
	return manager, loadErr
}

// Client returns the authenticated client of the process-wide Manager.
func Client(ctx context.Context) (*vault.Client, error) {
	m, err := Default()
	if err != nil {
		return nil, err
	}
	return m.Client(ctx)
}
