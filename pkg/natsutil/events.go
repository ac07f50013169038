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

// Package natsutil publishes device lifecycle events to NATS JetStream.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/models"
)

const (
	// DefaultStreamName is the JetStream stream holding device events.
	DefaultStreamName = "devices"
	// DefaultSubjectPrefix prefixes every device event subject.
	DefaultSubjectPrefix = "devices"

	eventSource = "tachyon/backend"

	registeredSuffix = "registered"
	checkedSuffix    = "availability_checked"

	registeredType = "com.carverauto.tachyon.device.registered"
	checkedType    = "com.carverauto.tachyon.device.availability_checked"
)

// Publisher emits device events.
type Publisher interface {
	PublishDeviceRegistered(ctx context.Context, data models.DeviceRegisteredEventData) error
	PublishAvailabilityChecked(ctx context.Context, data models.AvailabilityCheckedEventData) error
}

// DeviceEventPublisher handles publishing device events to NATS JetStream.
type DeviceEventPublisher struct {
	js     jetstream.JetStream
	prefix string
	logger logger.Logger
}

// NewDeviceEventPublisher creates a new publisher writing under subjectPrefix.
func NewDeviceEventPublisher(js jetstream.JetStream, subjectPrefix string, log logger.Logger) *DeviceEventPublisher {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &DeviceEventPublisher{
		js:     js,
		prefix: subjectPrefix,
		logger: log,
	}
}

// Subject returns the full subject for an event suffix.
func (p *DeviceEventPublisher) Subject(suffix string) string {
	return p.prefix + "." + suffix
}

// PublishDeviceRegistered publishes a device.registered event.
func (p *DeviceEventPublisher) PublishDeviceRegistered(ctx context.Context, data models.DeviceRegisteredEventData) error {
	return p.publish(ctx, registeredType, registeredSuffix, data.DeviceName, data.Timestamp, data)
}

// PublishAvailabilityChecked publishes a device.availability_checked event.
func (p *DeviceEventPublisher) PublishAvailabilityChecked(ctx context.Context, data models.AvailabilityCheckedEventData) error {
	return p.publish(ctx, checkedType, checkedSuffix, data.DeviceName, data.Timestamp, data)
}

func (p *DeviceEventPublisher) publish(
	ctx context.Context, eventType, suffix, deviceName string, ts time.Time, data interface{}) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	subject := p.Subject(suffix)

	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         deviceName,
		Time:            &ts,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", subject).
		Uint64("seq", ack.Sequence).
		Msg("Published device event")

	return nil
}

// NopPublisher discards every event. It is used when no NATS URL is configured.
type NopPublisher struct{}

// PublishDeviceRegistered implements Publisher.
func (NopPublisher) PublishDeviceRegistered(context.Context, models.DeviceRegisteredEventData) error {
	return nil
}

// PublishAvailabilityChecked implements Publisher.
func (NopPublisher) PublishAvailabilityChecked(context.Context, models.AvailabilityCheckedEventData) error {
	return nil
}

// Connect creates a NATS connection with JetStream, ensures the device stream
// exists and returns a publisher bound to it. The caller owns the connection.
func Connect(
	ctx context.Context, natsURL, streamName, subjectPrefix string, log logger.Logger, extraOpts ...nats.Option,
) (*DeviceEventPublisher, *nats.Conn, error) {
	if streamName == "" {
		streamName = DefaultStreamName
	}

	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	nc, err := nats.Connect(natsURL, append(connectionHandlers(log), extraOpts...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamConfig := jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ".>"},
	}

	if _, err = js.CreateOrUpdateStream(ctx, streamConfig); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create or get stream %s: %w", streamName, err)
	}

	return NewDeviceEventPublisher(js, subjectPrefix, log), nc, nil
}

func connectionHandlers(log logger.Logger) []nats.Option {
	return []nats.Option{
		nats.Name("tachyon-backend"),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}
}
