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
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/carverauto/tachyon/pkg/cli"
	"github.com/carverauto/tachyon/pkg/config"
	"github.com/carverauto/tachyon/pkg/deviceclient"
	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/orchestrator"
	"github.com/carverauto/tachyon/pkg/version"
)

func main() {
	cmd, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if cmd.Help {
		cli.ShowHelp()
		os.Exit(0)
	}

	if err := run(context.Background(), cmd); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.CmdConfig) error {
	cfg := cli.DefaultClientConfig()

	if err := config.NewConfig(nil).LoadAndValidate(ctx, cmd.ConfigFile, cfg); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.ServerURL != "" {
		cfg.BaseURL = cmd.ServerURL
	}

	settings, err := cfg.Resolve()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		_ = logger.Close()
	}()

	logger.Info().
		Str("version", version.GetVersion()).
		Str("base_url", settings.BaseURL).
		Str("password_policy", settings.Policy.String()).
		Str("availability_method", settings.Availability.String()).
		Str("error_surfacing", settings.Surfacing.String()).
		Msg("Starting tachyon")

	client := deviceclient.New(deviceclient.Config{
		BaseURL:      settings.BaseURL,
		Availability: settings.Availability,
	}, logger.ForComponent("deviceclient"))

	orch := orchestrator.New(client, settings.Policy, settings.Surfacing, logger.ForComponent("orchestrator"))

	if cmd.SubCmd != "" {
		if cmd.NeedsPassword() && !isTerminal(os.Stdin) {
			password, err := readPassword(os.Stdin)
			if err != nil {
				return fmt.Errorf("error reading password from stdin: %w", err)
			}

			cmd.Password = password
		}

		return cli.RunSubcommand(ctx, cmd, orch, os.Stdout)
	}

	model := cli.NewModel(cli.Options{
		Submitter: orch,
		Policy:    settings.Policy,
		Entry:     settings.Entry,
		Logger:    logger.ForComponent("tui"),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	return nil
}

func readPassword(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(string(data), "\r\n"), nil
}

// isTerminal reports whether f is a character device. A file that cannot be
// inspected is treated as a terminal so nothing is read from it.
func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return true
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
