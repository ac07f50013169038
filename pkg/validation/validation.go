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

// Package validation checks form input before anything is sent to the backend.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/carverauto/tachyon/pkg/models"
)

// Policy selects how strict the password check is.
type Policy int

const (
	// PolicyBasic requires at least 6 characters.
	PolicyBasic Policy = iota
	// PolicyStrict requires at least 8 characters with upper, lower, digit and symbol.
	PolicyStrict
)

const (
	basicMinPasswordLength  = 6
	strictMinPasswordLength = 8

	// PasswordSymbols is the set a strict password must draw at least one symbol from.
	PasswordSymbols = "!@#$%^&*"

	octetPattern = `(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)`
)

var ipv4Regex = regexp.MustCompile(`^` + octetPattern + `\.` + octetPattern + `\.` + octetPattern + `\.` + octetPattern + `$`)

var errUnknownPolicy = errors.New("unknown password policy")

// Messages shown next to the offending field.
const (
	MsgDeviceNameRequired = "Device name is required"
	MsgIPRequired         = "IP address is required"
	MsgIPInvalid          = "Please enter a valid IP address (e.g., 192.168.0.1)"
	MsgPasswordRequired   = "Password is required"
	MsgPasswordClasses    = "Password must contain an uppercase letter, a lowercase letter, a digit and a symbol (" +
		PasswordSymbols + ")"
)

func (p Policy) String() string {
	switch p {
	case PolicyBasic:
		return "basic"
	case PolicyStrict:
		return "strict"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// MinLength is the minimum password length under p.
func (p Policy) MinLength() int {
	if p == PolicyStrict {
		return strictMinPasswordLength
	}

	return basicMinPasswordLength
}

// ParsePolicy maps a config value to a Policy. Empty means basic.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "basic":
		return PolicyBasic, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return PolicyBasic, fmt.Errorf("%w: %q", errUnknownPolicy, s)
	}
}

// ValidateRegistration checks every field of a registration. It has no side effects.
func ValidateRegistration(in models.RegistrationInput, policy Policy) Result {
	var r Result

	if strings.TrimSpace(in.DeviceName) == "" {
		r.add(FieldDeviceName, MsgDeviceNameRequired)
	}

	switch ip := strings.TrimSpace(in.IPAddress); {
	case ip == "":
		r.add(FieldIPAddress, MsgIPRequired)
	case !IsIPv4(ip):
		r.add(FieldIPAddress, MsgIPInvalid)
	}

	if msg := checkPassword(in.Password, policy); msg != "" {
		r.add(FieldPassword, msg)
	}

	return r
}

// ValidateAvailability only enforces the required fields of an availability check.
func ValidateAvailability(in models.AvailabilityInput) Result {
	var r Result

	if strings.TrimSpace(in.DeviceName) == "" {
		r.add(FieldDeviceName, MsgDeviceNameRequired)
	}

	if in.Password == "" {
		r.add(FieldPassword, MsgPasswordRequired)
	}

	return r
}

// IsIPv4 reports whether s is a dotted quad with every octet in 0-255.
func IsIPv4(s string) bool {
	return ipv4Regex.MatchString(s)
}

func checkPassword(password string, policy Policy) string {
	if password == "" {
		return MsgPasswordRequired
	}

	if len([]rune(password)) < policy.MinLength() {
		return fmt.Sprintf("Password must be at least %d characters long", policy.MinLength())
	}

	if policy == PolicyStrict && !hasRequiredClasses(password) {
		return MsgPasswordClasses
	}

	return ""
}

func hasRequiredClasses(password string) bool {
	var upper, lower, digit, symbol bool

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}

	return upper && lower && digit && symbol
}
