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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/navikt/kafka-connect-vault-provider/pkg/secrets"
	"github.com/navikt/kafka-connect-vault-provider/shared/events"
)

const defaultSecretPath = "secret/postgres/local"

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read [path]",
		Short: "Print the username and password stored at a Vault path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultSecretPath
			if len(args) == 1 {
				path = args[0]
			}

			mgr := a.newManager(events.NewEventBus(a.log.WithName("events")))
			defer mgr.Stop()

			creds, err := secrets.NewAccessor(mgr, a.log).Credentials(cmd.Context(), path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, creds.Username)
			fmt.Fprintln(out, creds.Password)
			return nil
		},
	}
}
