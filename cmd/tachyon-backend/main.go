/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/tachyon/pkg/config"
	"github.com/carverauto/tachyon/pkg/deviceapi"
	"github.com/carverauto/tachyon/pkg/devicestore"
	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/natsutil"
	"github.com/carverauto/tachyon/pkg/reachability"
	"github.com/carverauto/tachyon/pkg/version"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to backend config file (JSON or YAML)")
	listenAddr := flag.String("listen", "", "Override the listen address")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion("tachyon-backend"))

		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := deviceapi.DefaultBackendConfig()

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, cfg); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		_ = logger.Close()
	}()

	logger.Info().
		Str("version", version.GetVersion()).
		Str("listen_addr", cfg.ListenAddr).
		Str("driver", cfg.Database.Driver).
		Ints("probe_ports", cfg.Probe.Ports).
		Msg("Starting tachyon backend")

	store, err := devicestore.Open(ctx, cfg.Database, logger.ForComponent("devicestore"))
	if err != nil {
		return err
	}

	defer func() {
		_ = store.Close()
	}()

	options := []func(*deviceapi.Server){
		deviceapi.WithLogger(logger.ForComponent("deviceapi")),
		deviceapi.WithCORSConfig(cfg.CORS),
	}

	if cfg.NATSURL != "" {
		var natsOpts []nats.Option

		if cfg.NATSNkeySeedFile != "" {
			auth, err := natsutil.NkeyAuth(cfg.NATSNkeySeedFile)
			if err != nil {
				return err
			}

			natsOpts = append(natsOpts, auth)
		}

		publisher, nc, err := natsutil.Connect(ctx, cfg.NATSURL, cfg.NATSStream, cfg.NATSSubjectPrefix,
			logger.ForComponent("natsutil"), natsOpts...)
		if err != nil {
			return err
		}

		defer nc.Close()

		options = append(options, deviceapi.WithPublisher(publisher))
	}

	prober := reachability.NewTCPProber(cfg.Probe.Ports, cfg.ProbeTimeout())

	return deviceapi.NewServer(store, prober, options...).Start(ctx, cfg.ListenAddr)
}
