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

// Package token provides token lifecycle management for Vault authentication.
//
// # Overview
//
// This package resolves the Vault token an application starts with, validates
// it against Vault and keeps it alive with renew-self for as long as the
// process runs.
//
// # Key Types
//
//   - Source: resolves the initial token (explicit value, token file, default file)
//   - Manager: owns the single authenticated client and the renewal loop
//   - RefreshInterval: derives the renewal delay from a TTL
//
// # Usage
//
// Construct one Manager at startup and pass it to everything that needs Vault.
//
//	mgr := token.NewManager(cfg, token.WithLogger(log), token.WithEventPublisher(bus))
//	client, err := mgr.Client(ctx) // first call initializes
//	secret, err := client.Read(ctx, "secret/postgres/local")
//
// # Renewal Flow
//
//	┌──────────┐  Resolve  ┌──────────┐ lookup-self ┌──────────────┐
//	│  Source  │ ────────> │  Client  │ ──────────> │ TTL,renewable│
//	└──────────┘           └──────────┘             └──────────────┘
//	                                                       │ renewable
//	                                                       ▼
//	┌─────────────────────────────────────────────────────────────┐
//	│                      renewal loop                            │
//	│  • waits RefreshInterval(ttl)                                │
//	│  • renew-self; success: wait RefreshInterval(new lease)      │
//	│  • failure: log, wait RetryDelay (5s), try again             │
//	└─────────────────────────────────────────────────────────────┘
package token
