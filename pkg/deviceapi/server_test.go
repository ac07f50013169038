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

package deviceapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carverauto/tachyon/pkg/deviceclient"
	"github.com/carverauto/tachyon/pkg/devicestore"
	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/models"
	"github.com/carverauto/tachyon/pkg/reachability"
)

type recordingPublisher struct {
	mu         sync.Mutex
	registered []models.DeviceRegisteredEventData
	checked    []models.AvailabilityCheckedEventData
	err        error
}

func (p *recordingPublisher) PublishDeviceRegistered(_ context.Context, data models.DeviceRegisteredEventData) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.registered = append(p.registered, data)

	return p.err
}

func (p *recordingPublisher) PublishAvailabilityChecked(_ context.Context, data models.AvailabilityCheckedEventData) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.checked = append(p.checked, data)

	return p.err
}

type failingStore struct{}

var errBrokenDB = errors.New("connection refused")

func (failingStore) AddDevice(context.Context, string, string, string) (*devicestore.Device, error) {
	return nil, errBrokenDB
}

func (failingStore) Verify(context.Context, string, string) (*devicestore.Device, error) {
	return nil, errBrokenDB
}

func (failingStore) ListDeviceNames(context.Context) ([]string, error) {
	return nil, errBrokenDB
}

func reachable(ok bool) reachability.Prober {
	return reachability.ProberFunc(func(_ context.Context, ip string) reachability.Result {
		return reachability.Result{Reachable: ok, Address: ip + ":22", LatencyMS: 1}
	})
}

type fixture struct {
	server    *Server
	store     *devicestore.Store
	publisher *recordingPublisher
	http      *httptest.Server
}

func newFixture(t *testing.T, prober reachability.Prober) *fixture {
	t.Helper()

	ctx := context.Background()

	store, err := devicestore.Open(ctx, devicestore.Config{
		Driver:   devicestore.DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "devices.db"),
		HashCost: bcrypt.MinCost,
	}, logger.NewTestLogger())
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	pub := &recordingPublisher{}
	srv := NewServer(store, prober, WithPublisher(pub), WithLogger(logger.NewTestLogger()))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &fixture{server: srv, store: store, publisher: pub, http: ts}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, models.MessageResponse) {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, f.http.URL+path, reader)
	require.NoError(t, err)

	return send(t, req)
}

func send(t *testing.T, req *http.Request) (int, models.MessageResponse) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	var out models.MessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return resp.StatusCode, out
}

const routerBody = `{"device_name":"router1","ip_address":"192.168.1.1","password":"secret1"}`

func TestAddDevice(t *testing.T) {
	f := newFixture(t, reachable(true))

	status, out := f.do(t, http.MethodPost, "/add_device", routerBody)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Device added successfully", out.Message)

	require.Len(t, f.publisher.registered, 1)
	assert.Equal(t, "router1", f.publisher.registered[0].DeviceName)
	assert.Equal(t, "192.168.1.1", f.publisher.registered[0].IPAddress)

	names, err := f.store.ListDeviceNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"router1"}, names)
}

func TestAddDeviceRejectsBadInput(t *testing.T) {
	f := newFixture(t, reachable(true))

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"device_name":`, want: msgInvalidBody},
		{name: "missing password", body: `{"device_name":"a","ip_address":"10.0.0.1"}`, want: msgMissingFields},
		{name: "invalid ip", body: `{"device_name":"a","ip_address":"999.1.1.1","password":"x"}`, want: msgInvalidIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := f.do(t, http.MethodPost, "/add_device", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.want, out.Message)
		})
	}

	assert.Empty(t, f.publisher.registered)
}

func TestAddDeviceDatabaseError(t *testing.T) {
	srv := NewServer(failingStore{}, reachable(true))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/add_device", strings.NewReader(routerBody))
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Database Error"}`, rr.Body.String())
}

func TestCheckAvailability(t *testing.T) {
	tests := []struct {
		name       string
		reachable  bool
		method     string
		password   string
		device     string
		wantStatus int
		want       models.MessageResponse
	}{
		{
			name: "reachable via query", reachable: true, method: http.MethodGet,
			device: "router1", password: "secret1", wantStatus: http.StatusOK,
			want: models.MessageResponse{Message: "Reachable", Status: "Success"},
		},
		{
			name: "not reachable via body", reachable: false, method: http.MethodPost,
			device: "router1", password: "secret1", wantStatus: http.StatusOK,
			want: models.MessageResponse{Message: "Not Reachable", Status: "Failed"},
		},
		{
			name: "wrong password", reachable: true, method: http.MethodGet,
			device: "router1", password: "nope", wantStatus: http.StatusUnauthorized,
			want: models.MessageResponse{Message: "Incorrect Password"},
		},
		{
			name: "unknown device", reachable: true, method: http.MethodPost,
			device: "ghost", password: "secret1", wantStatus: http.StatusNotFound,
			want: models.MessageResponse{Message: "Device not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, reachable(tt.reachable))

			status, _ := f.do(t, http.MethodPost, "/add_device", routerBody)
			require.Equal(t, http.StatusCreated, status)

			var (
				code int
				out  models.MessageResponse
			)

			if tt.method == http.MethodGet {
				q := url.Values{"device_name": {tt.device}, "password": {tt.password}}
				code, out = f.do(t, http.MethodGet, "/check_availability?"+q.Encode(), "")
			} else {
				body, err := json.Marshal(models.AvailabilityInput{DeviceName: tt.device, Password: tt.password})
				require.NoError(t, err)

				code, out = f.do(t, http.MethodPost, "/check_availability", string(body))
			}

			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.want, out)

			if tt.wantStatus == http.StatusOK {
				require.Len(t, f.publisher.checked, 1)
				assert.Equal(t, tt.reachable, f.publisher.checked[0].Reachable)
			} else {
				assert.Empty(t, f.publisher.checked)
			}
		})
	}
}

func TestCheckAvailabilityMissingCredentials(t *testing.T) {
	f := newFixture(t, reachable(true))

	status, out := f.do(t, http.MethodGet, "/check_availability?device_name=router1", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgMissingCreds, out.Message)
}

func TestListDevices(t *testing.T) {
	f := newFixture(t, reachable(true))

	resp, err := http.Get(f.http.URL + "/devices")
	require.NoError(t, err)

	var empty models.DeviceListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&empty))
	_ = resp.Body.Close()

	assert.NotNil(t, empty.Devices)
	assert.Empty(t, empty.Devices)

	for _, body := range []string{
		`{"device_name":"switch","ip_address":"10.0.0.2","password":"pw"}`,
		routerBody,
	} {
		status, _ := f.do(t, http.MethodPost, "/add_device", body)
		require.Equal(t, http.StatusCreated, status)
	}

	resp, err = http.Get(f.http.URL + "/devices")
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	var list models.DeviceListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, []string{"router1", "switch"}, list.Devices)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, reachable(true))

	status, _ := f.do(t, http.MethodPost, "/add_device", routerBody)
	require.Equal(t, http.StatusCreated, status)

	resp, err := http.Get(f.http.URL + "/metrics")
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	var sb strings.Builder
	_, err = io.Copy(&sb, resp.Body)
	require.NoError(t, err)

	assert.Contains(t, sb.String(), `tachyon_device_registrations_total{result="success"} 1`)
}

func TestPreflightAndMethodRouting(t *testing.T) {
	srv := NewServer(failingStore{}, reachable(true))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/add_device", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/add_device", http.NoBody))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestClientRoundTrip(t *testing.T) {
	f := newFixture(t, reachable(false))

	ctx := context.Background()

	for _, mode := range []deviceclient.AvailabilityMode{deviceclient.AvailabilityQuery, deviceclient.AvailabilityBody} {
		client := deviceclient.New(deviceclient.Config{BaseURL: f.http.URL, Availability: mode}, nil)

		devices, err := client.ListDevices(ctx)
		require.NoError(t, err)

		if len(devices) == 0 {
			resp, err := client.RegisterDevice(ctx, models.RegistrationInput{
				DeviceName: "router1",
				IPAddress:  "192.168.1.1",
				Password:   "secret1",
			})
			require.NoError(t, err)
			assert.Equal(t, "Device added successfully", resp.Message)
		}

		resp, err := client.CheckAvailability(ctx, "router1", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "Not Reachable", resp.Message)
		assert.Equal(t, models.AvailabilityStatusFailed, resp.Status)

		_, err = client.CheckAvailability(ctx, "router1", "wrong")

		var te *deviceclient.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, deviceclient.KindServerRejected, te.Kind)
		assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	}
}
