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

//go:generate mockgen -destination=mock_transport.go -package=deviceclient github.com/carverauto/tachyon/pkg/deviceclient Transport

// Package deviceclient talks to the device registration service over HTTP.
package deviceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/models"
)

const (
	// DefaultBaseURL is where the service listens in a default deployment.
	DefaultBaseURL = "http://localhost:5000"

	pathAddDevice         = "/add_device"
	pathCheckAvailability = "/check_availability"
	pathDevices           = "/devices"

	opRegister = "register_device"
	opCheck    = "check_availability"
	opList     = "list_devices"

	maxBodyBytes = 64 << 10
)

var errUnknownAvailabilityMode = errors.New("unknown availability mode")

// Transport is the set of backend calls the forms depend on.
type Transport interface {
	RegisterDevice(ctx context.Context, in models.RegistrationInput) (*models.MessageResponse, error)
	CheckAvailability(ctx context.Context, deviceName, password string) (*models.MessageResponse, error)
	ListDevices(ctx context.Context) ([]string, error)
}

// AvailabilityMode selects the wire shape of the availability check.
type AvailabilityMode int

const (
	// AvailabilityQuery sends GET with device_name and password query parameters.
	AvailabilityQuery AvailabilityMode = iota
	// AvailabilityBody sends POST with a JSON body.
	AvailabilityBody
)

func (m AvailabilityMode) String() string {
	if m == AvailabilityBody {
		return "post"
	}

	return "get"
}

// ParseAvailabilityMode accepts "get"/"query" and "post"/"body". Empty means get.
func ParseAvailabilityMode(s string) (AvailabilityMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "get", "query":
		return AvailabilityQuery, nil
	case "post", "body":
		return AvailabilityBody, nil
	default:
		return AvailabilityQuery, fmt.Errorf("%w: %q", errUnknownAvailabilityMode, s)
	}
}

// Config configures a Client. HTTPClient defaults to a client without a timeout override.
type Config struct {
	BaseURL      string
	Availability AvailabilityMode
	HTTPClient   *http.Client
}

// Client implements Transport. Each call issues exactly one HTTP request and never retries.
type Client struct {
	baseURL      string
	availability AvailabilityMode
	httpClient   *http.Client
	logger       logger.Logger
}

var _ Transport = (*Client)(nil)

// New builds a Client. An invalid base URL is reported per call as KindSetupFailed.
func New(cfg Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewTestLogger()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}

	return &Client{
		baseURL:      strings.TrimRight(base, "/"),
		availability: cfg.Availability,
		httpClient:   httpClient,
		logger:       log,
	}
}

// BaseURL returns the normalized service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RegisterDevice posts a new device to /add_device.
func (c *Client) RegisterDevice(ctx context.Context, in models.RegistrationInput) (*models.MessageResponse, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, pathAddDevice, nil, in)
	if err != nil {
		return nil, c.fail(setupFailed(opRegister, err), in.DeviceName)
	}

	var out models.MessageResponse
	if err := c.do(req, opRegister, "Failed to add device", &out); err != nil {
		return nil, c.fail(err, in.DeviceName)
	}

	c.logger.Info().
		Str("device_name", in.DeviceName).
		Str("ip_address", in.IPAddress).
		Msg("Device registered")

	return &out, nil
}

// CheckAvailability asks the backend whether a registered device is reachable.
func (c *Client) CheckAvailability(ctx context.Context, deviceName, password string) (*models.MessageResponse, error) {
	var (
		req *http.Request
		err error
	)

	switch c.availability {
	case AvailabilityBody:
		req, err = c.newJSONRequest(ctx, http.MethodPost, pathCheckAvailability, nil,
			models.AvailabilityInput{DeviceName: deviceName, Password: password})
	default:
		query := url.Values{}
		query.Set("device_name", deviceName)
		query.Set("password", password)
		req, err = c.newJSONRequest(ctx, http.MethodGet, pathCheckAvailability, query, nil)
	}

	if err != nil {
		return nil, c.fail(setupFailed(opCheck, err), deviceName)
	}

	var out models.MessageResponse
	if err := c.do(req, opCheck, "Failed to check availability", &out); err != nil {
		return nil, c.fail(err, deviceName)
	}

	c.logger.Debug().
		Str("device_name", deviceName).
		Str("message", out.Message).
		Msg("Availability checked")

	return &out, nil
}

// ListDevices fetches the device directory. A backend with no devices yields an empty slice.
func (c *Client) ListDevices(ctx context.Context) ([]string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, pathDevices, nil, nil)
	if err != nil {
		return nil, c.fail(setupFailed(opList, err), "")
	}

	var out models.DeviceListResponse
	if err := c.do(req, opList, "Failed to list devices", &out); err != nil {
		return nil, c.fail(err, "")
	}

	if out.Devices == nil {
		return []string{}, nil
	}

	return out.Devices, nil
}

func (c *Client) newJSONRequest(
	ctx context.Context, method, path string, query url.Values, payload interface{},
) (*http.Request, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}

	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("service url %q must include scheme and host", c.baseURL)
	}

	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var body io.Reader = http.NoBody

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *Client) do(req *http.Request, op, rejectPrefix string, dst interface{}) *TransportError {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return noResponse(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return noResponse(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return rejected(op, rejectPrefix, resp.StatusCode, decodeMessage(data))
	}

	if err := json.Unmarshal(data, dst); err != nil {
		te := rejected(op, rejectPrefix, resp.StatusCode, "invalid response body")
		te.Err = err

		return te
	}

	return nil
}

// fail logs a transport failure. The password is never part of the log entry.
func (c *Client) fail(te *TransportError, deviceName string) *TransportError {
	event := c.logger.Error().
		Str("op", te.Op).
		Str("kind", te.Kind.String()).
		Str("detail", te.Detail)

	if te.StatusCode != 0 {
		event = event.Int("status", te.StatusCode)
	}

	if deviceName != "" {
		event = event.Str("device_name", deviceName)
	}

	if te.Err != nil {
		event = event.Err(te.Err)
	}

	event.Msg("Device service request failed")

	return te
}

func decodeMessage(data []byte) string {
	var body models.MessageResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	return strings.TrimSpace(body.Message)
}
