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

package deviceclient

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a backend call failed.
type ErrorKind int

const (
	// KindServerRejected means the backend answered with a non-2xx status or an unusable body.
	KindServerRejected ErrorKind = iota + 1
	// KindNoResponse means the request went out but no response came back.
	KindNoResponse
	// KindSetupFailed means the request could not be built.
	KindSetupFailed
)

const (
	msgUnknownError = "Unknown error"
	msgNoResponse   = "No response from server. Please try again."
)

func (k ErrorKind) String() string {
	switch k {
	case KindServerRejected:
		return "server_rejected"
	case KindNoResponse:
		return "no_response"
	case KindSetupFailed:
		return "setup_failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TransportError is returned by every Client method on failure. Detail is safe to show to a user.
type TransportError struct {
	Kind       ErrorKind
	Op         string
	Detail     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Kind, e.Detail, e.Err)
	}

	return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, e.Detail)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsTransportError extracts a *TransportError from err's chain.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}

	return nil, false
}

func rejected(op, prefix string, status int, message string) *TransportError {
	if message == "" {
		message = msgUnknownError
	}

	return &TransportError{
		Kind:       KindServerRejected,
		Op:         op,
		Detail:     fmt.Sprintf("%s: %s", prefix, message),
		StatusCode: status,
	}
}

func noResponse(op string, err error) *TransportError {
	return &TransportError{
		Kind:   KindNoResponse,
		Op:     op,
		Detail: msgNoResponse,
		Err:    err,
	}
}

func setupFailed(op string, err error) *TransportError {
	return &TransportError{
		Kind:   KindSetupFailed,
		Op:     op,
		Detail: "Error: " + err.Error(),
		Err:    err,
	}
}
