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
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carverauto/tachyon/pkg/devicestore"
	"github.com/carverauto/tachyon/pkg/models"
	"github.com/carverauto/tachyon/pkg/validation"
)

// Response messages. The client compares some of these verbatim.
const (
	msgDeviceAdded      = "Device added successfully"
	msgDatabaseError    = "Database Error"
	msgInvalidBody      = "Invalid request body"
	msgMissingFields    = "device_name, ip_address and password are required"
	msgMissingCreds     = "device_name and password are required"
	msgInvalidIP        = "Invalid IP address"
	msgReachable        = "Reachable"
	msgNotReachable     = "Not Reachable"
	msgIncorrectPass    = "Incorrect Password"
	msgDeviceNotFound   = "Device not found"
	msgInternalError    = "Internal Server Error"
	maxRequestBodyBytes = 1 << 20
)

func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var in models.RegistrationInput

	if err := decodeBody(w, r, &in); err != nil {
		s.logger.Debug().Err(err).Msg("Rejected add_device body")
		s.metrics.RegistrationsTotal.WithLabelValues(resultInvalid).Inc()
		s.writeMessage(w, http.StatusBadRequest, models.MessageResponse{Message: msgInvalidBody})

		return
	}

	in = in.Normalized()

	if in.DeviceName == "" || in.IPAddress == "" || in.Password == "" {
		s.metrics.RegistrationsTotal.WithLabelValues(resultInvalid).Inc()
		s.writeMessage(w, http.StatusBadRequest, models.MessageResponse{Message: msgMissingFields})

		return
	}

	if !validation.IsIPv4(in.IPAddress) {
		s.metrics.RegistrationsTotal.WithLabelValues(resultInvalid).Inc()
		s.writeMessage(w, http.StatusBadRequest, models.MessageResponse{Message: msgInvalidIP})

		return
	}

	device, err := s.store.AddDevice(r.Context(), in.DeviceName, in.IPAddress, in.Password)
	if err != nil {
		s.logger.Error().Err(err).Str("device_name", in.DeviceName).Msg("Database Error")
		s.metrics.RegistrationsTotal.WithLabelValues(resultError).Inc()
		s.writeMessage(w, http.StatusInternalServerError, models.MessageResponse{Message: msgDatabaseError})

		return
	}

	s.logger.Info().
		Str("device_name", device.DeviceName).
		Str("ip_address", device.IPAddress).
		Msg("Device added")

	s.metrics.RegistrationsTotal.WithLabelValues(resultSuccess).Inc()

	if err := s.publisher.PublishDeviceRegistered(r.Context(), models.DeviceRegisteredEventData{
		DeviceName: device.DeviceName,
		IPAddress:  device.IPAddress,
		Timestamp:  device.CreatedAt,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish device registered event")
	}

	s.writeMessage(w, http.StatusCreated, models.MessageResponse{Message: msgDeviceAdded})
}

func (s *Server) handleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	in, err := availabilityInput(w, r)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Rejected check_availability body")
		s.metrics.ChecksTotal.WithLabelValues(resultInvalid).Inc()
		s.writeMessage(w, http.StatusBadRequest, models.MessageResponse{Message: msgInvalidBody})

		return
	}

	if in.DeviceName == "" || in.Password == "" {
		s.metrics.ChecksTotal.WithLabelValues(resultInvalid).Inc()
		s.writeMessage(w, http.StatusBadRequest, models.MessageResponse{Message: msgMissingCreds})

		return
	}

	device, err := s.store.Verify(r.Context(), in.DeviceName, in.Password)

	switch {
	case errors.Is(err, devicestore.ErrDeviceNotFound):
		s.metrics.ChecksTotal.WithLabelValues(resultNotFound).Inc()
		s.writeMessage(w, http.StatusNotFound, models.MessageResponse{Message: msgDeviceNotFound})

		return
	case errors.Is(err, devicestore.ErrIncorrectPassword):
		s.metrics.ChecksTotal.WithLabelValues(resultUnauthorized).Inc()
		s.writeMessage(w, http.StatusUnauthorized, models.MessageResponse{Message: msgIncorrectPass})

		return
	case err != nil:
		s.logger.Error().Err(err).Str("device_name", in.DeviceName).Msg("Database Error")
		s.metrics.ChecksTotal.WithLabelValues(resultError).Inc()
		s.writeMessage(w, http.StatusInternalServerError, models.MessageResponse{Message: msgDatabaseError})

		return
	}

	start := time.Now()
	result := s.prober.Probe(r.Context(), device.IPAddress)
	s.metrics.ProbeDuration.Observe(time.Since(start).Seconds())

	s.logger.Info().
		Str("device_name", device.DeviceName).
		Str("ip_address", device.IPAddress).
		Bool("reachable", result.Reachable).
		Str("address", result.Address).
		Str("probe_error", result.Error).
		Msg("Availability checked")

	if err := s.publisher.PublishAvailabilityChecked(r.Context(), models.AvailabilityCheckedEventData{
		DeviceName: device.DeviceName,
		IPAddress:  device.IPAddress,
		Reachable:  result.Reachable,
		LatencyMS:  result.LatencyMS,
		Timestamp:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish availability event")
	}

	if result.Reachable {
		s.metrics.ChecksTotal.WithLabelValues(resultReachable).Inc()
		s.writeMessage(w, http.StatusOK, models.MessageResponse{
			Message: msgReachable,
			Status:  models.AvailabilityStatusSuccess,
		})

		return
	}

	s.metrics.ChecksTotal.WithLabelValues(resultUnreachable).Inc()
	s.writeMessage(w, http.StatusOK, models.MessageResponse{
		Message: msgNotReachable,
		Status:  models.AvailabilityStatusFailed,
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListDeviceNames(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Database Error")
		s.writeMessage(w, http.StatusInternalServerError, models.MessageResponse{Message: msgDatabaseError})

		return
	}

	s.writeJSON(w, http.StatusOK, models.DeviceListResponse{Devices: names})
}

// availabilityInput reads credentials from the query string on GET and from a
// JSON body on POST.
func availabilityInput(w http.ResponseWriter, r *http.Request) (models.AvailabilityInput, error) {
	var in models.AvailabilityInput

	if r.Method == http.MethodGet {
		q := r.URL.Query()
		in.DeviceName = q.Get("device_name")
		in.Password = q.Get("password")
	} else if err := decodeBody(w, r, &in); err != nil {
		return in, err
	}

	in.DeviceName = strings.TrimSpace(in.DeviceName)

	return in, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	return json.NewDecoder(r.Body).Decode(dst)
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, body models.MessageResponse) {
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error encoding response")

		http.Error(w, msgInternalError, http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(payload); err != nil {
		s.logger.Debug().Err(err).Msg("Error writing response")
	}
}
