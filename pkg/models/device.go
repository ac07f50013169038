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

// Package models holds the data shared by the tachyon client and the reference backend.
package models

import "strings"

// RegistrationInput is what the registration form submits. It is never persisted client side.
type RegistrationInput struct {
	DeviceName string `json:"device_name"`
	IPAddress  string `json:"ip_address"`
	Password   string `json:"password"`
}

// Normalized trims surrounding whitespace from the name and address. The password is sent as typed.
func (in RegistrationInput) Normalized() RegistrationInput {
	return RegistrationInput{
		DeviceName: strings.TrimSpace(in.DeviceName),
		IPAddress:  strings.TrimSpace(in.IPAddress),
		Password:   in.Password,
	}
}

// AvailabilityInput is what the availability form submits.
type AvailabilityInput struct {
	DeviceName string `json:"device_name"`
	Password   string `json:"password"`
}

// Outcome is the result of one submission as shown on the status line.
type Outcome struct {
	Succeeded bool
	Message   string
}

// IsZero reports whether o carries no message.
func (o Outcome) IsZero() bool {
	return o.Message == ""
}

// DeviceDirectory is the ordered list of device names the backend knows about.
type DeviceDirectory []string

// MessageResponse is the body every backend endpoint answers with.
type MessageResponse struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// DeviceListResponse is the body of GET /devices.
type DeviceListResponse struct {
	Devices []string `json:"devices"`
}

// Availability status values reported by the backend alongside the message.
const (
	AvailabilityStatusSuccess = "Success"
	AvailabilityStatusFailed  = "Failed"
)
