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

package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/carverauto/tachyon/pkg/models"
	"github.com/carverauto/tachyon/pkg/validation"
)

const (
	subcmdRegister = "register"
	subcmdCheck    = "check"
	subcmdDevices  = "devices"
)

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

// RegisterHandler handles flags for the register subcommand.
type RegisterHandler struct{}

// Parse processes the command-line arguments for the register subcommand.
func (RegisterHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet(subcmdRegister, flag.ContinueOnError)
	name := fs.String("name", "", "device name")
	ip := fs.String("ip", "", "device IPv4 address")
	password := fs.String("password", "", "device password (read from stdin when omitted and stdin is not a terminal)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing register flags: %w", err)
	}

	cfg.DeviceName = *name
	cfg.IPAddress = *ip
	cfg.Password = *password

	return nil
}

// CheckHandler handles flags for the check subcommand.
type CheckHandler struct{}

// Parse processes the command-line arguments for the check subcommand.
func (CheckHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet(subcmdCheck, flag.ContinueOnError)
	name := fs.String("name", "", "device name")
	password := fs.String("password", "", "device password (read from stdin when omitted and stdin is not a terminal)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing check flags: %w", err)
	}

	cfg.DeviceName = *name
	cfg.Password = *password

	return nil
}

// DevicesHandler handles the devices subcommand, which takes no flags.
type DevicesHandler struct{}

// Parse rejects stray flags.
func (DevicesHandler) Parse(args []string, _ *CmdConfig) error {
	fs := flag.NewFlagSet(subcmdDevices, flag.ContinueOnError)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing devices flags: %w", err)
	}

	return nil
}

// ParseFlags parses global options and, when present, the subcommand and its flags.
// args excludes the program name.
func ParseFlags(args []string) (*CmdConfig, error) {
	fs := flag.NewFlagSet("tachyon", flag.ContinueOnError)
	help := fs.Bool("help", false, "show help message")
	configFile := fs.String("config", "", "path to client config file (JSON or YAML)")
	server := fs.String("server", "", "backend base URL, overrides the config file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := &CmdConfig{
		Help:       *help,
		ConfigFile: *configFile,
		ServerURL:  *server,
		Args:       fs.Args(),
	}

	if len(cfg.Args) == 0 {
		return cfg, nil
	}

	cfg.SubCmd = cfg.Args[0]

	subcommands := map[string]SubcommandHandler{
		subcmdRegister: RegisterHandler{},
		subcmdCheck:    CheckHandler{},
		subcmdDevices:  DevicesHandler{},
	}

	handler, exists := subcommands[cfg.SubCmd]
	if !exists {
		return cfg, fmt.Errorf("%w: %q", errUnknownSubcommand, cfg.SubCmd)
	}

	if err := handler.Parse(cfg.Args[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// NeedsPassword reports whether the subcommand submits a password that was not given as a flag.
func (c *CmdConfig) NeedsPassword() bool {
	return (c.SubCmd == subcmdRegister || c.SubCmd == subcmdCheck) && c.Password == ""
}

// RunSubcommand runs one non-interactive operation and writes its outcome to out.
// A failed outcome is returned as an error so the caller can exit non-zero.
func RunSubcommand(ctx context.Context, cfg *CmdConfig, sub Submitter, out io.Writer) error {
	if sub == nil {
		return errNoSubmitter
	}

	switch cfg.SubCmd {
	case subcmdRegister:
		return report(out, sub.SubmitRegistration(ctx, models.RegistrationInput{
			DeviceName: cfg.DeviceName,
			IPAddress:  cfg.IPAddress,
			Password:   cfg.Password,
		}))
	case subcmdCheck:
		in := models.AvailabilityInput{DeviceName: strings.TrimSpace(cfg.DeviceName), Password: cfg.Password}

		if res := validation.ValidateAvailability(in); !res.OK() {
			return fmt.Errorf("%w: %s", errCheckFlags, res.Combined())
		}

		return report(out, sub.SubmitAvailabilityCheck(ctx, in.DeviceName, in.Password))
	case subcmdDevices:
		devices := sub.ListDevices(ctx)
		if len(devices) == 0 {
			_, err := fmt.Fprintln(out, "No devices registered")

			return err
		}

		_, err := fmt.Fprintln(out, strings.Join(devices, "\n"))

		return err
	default:
		return fmt.Errorf("%w: %q", errUnknownSubcommand, cfg.SubCmd)
	}
}

func report(out io.Writer, o models.Outcome) error {
	if _, err := fmt.Fprintln(out, o.Message); err != nil {
		return err
	}

	if !o.Succeeded {
		return fmt.Errorf("%w: %s", errSubmissionFailed, o.Message)
	}

	return nil
}
