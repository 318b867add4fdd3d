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

// Command vault-provider keeps a Vault token alive and reads credentials with it.
package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/navikt/kafka-connect-vault-provider/pkg/config"
	"github.com/navikt/kafka-connect-vault-provider/pkg/logger"
	"github.com/navikt/kafka-connect-vault-provider/pkg/vault/token"
	"github.com/navikt/kafka-connect-vault-provider/shared/events"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	viper *viper.Viper
	log   logr.Logger
	cfg   *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		development bool
		verbosity   int
	)

	root := &cobra.Command{
		Use:           "vault-provider",
		Short:         "Vault token lifecycle manager and credential reader",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.log = logger.New(logger.Options{Development: development, Verbosity: verbosity})
			ctrl.SetLogger(a.log)

			v, err := config.NewViper()
			if err != nil {
				return err
			}
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			a.viper = v
			a.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&development, "development", false, "human readable log output")
	flags.IntVarP(&verbosity, "verbosity", "v", 0, "log verbosity")
	config.AddFlags(flags)

	root.AddCommand(newReadCmd(a), newServeCmd(a))
	return root
}

// newManager wires a token manager that publishes its lifecycle to bus.
func (a *app) newManager(bus *events.EventBus) *token.Manager {
	return token.NewManager(a.cfg.TokenConfig(),
		token.WithLogger(a.log),
		token.WithEventPublisher(bus),
	)
}

func main() {
	if err := newRootCmd().ExecuteContext(ctrl.SetupSignalHandler()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
