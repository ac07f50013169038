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

import "fmt"

// ShowHelp displays the help message.
func ShowHelp() {
	fmt.Print(`tachyon: register network devices and check their availability
Usage:
  tachyon [options]                     launch the TUI
  tachyon [options] register [flags]
  tachyon [options] check [flags]
  tachyon [options] devices

Options:
  -config string   path to client config file (JSON or YAML)
  -server string   backend base URL (default "http://localhost:5000")
  -help            show this help message

Options for register:
  -name string       device name
  -ip string         device IPv4 address
  -password string   device password

Options for check:
  -name string       device name
  -password string   device password

Passwords are read from stdin when -password is omitted and stdin is not a terminal.
Setting CONFIG_SOURCE=env reads configuration from TACHYON_* variables instead of -config.

Examples:
  # Launch the TUI against a remote backend
  tachyon -server http://10.0.0.5:5000

  # Register a device
  tachyon register -name core-sw1 -ip 192.168.0.10 -password 'secret1'

  # Check availability, password on stdin
  echo secret1 | tachyon check -name core-sw1

  # List registered devices
  tachyon devices
`)
}
