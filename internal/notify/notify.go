// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package notify publishes movement announcements onto a message
// broker so downstream consumers (mailers, ledgers) can react to
// completed deposits and transfers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jsbank/billgate/internal/model"

	"github.com/go-kit/kit/log"
	"gocloud.dev/pubsub"
)

// RabbitMQ destinations consumers bind against.
const (
	Exchange   = "js.deposit.notify.exchange"
	RoutingKey = "js.key.deposit"
)

// Emitter announces a completed funds movement. Publishing happens
// after balances are updated and the audit row is written, so a
// publish failure never implies the movement didn't happen.
type Emitter interface {
	Publish(requestID string, event interface{}) error
}

type streamEmitter struct {
	logger log.Logger
	topic  *pubsub.Topic

	routingKey string
}

// NewStreamEmitter returns an Emitter publishing JSON payloads onto
// topic with the given routing key attached as message metadata.
func NewStreamEmitter(logger log.Logger, topic *pubsub.Topic, routingKey string) Emitter {
	if routingKey == "" {
		routingKey = RoutingKey
	}
	return &streamEmitter{
		logger:     logger,
		topic:      topic,
		routingKey: routingKey,
	}
}

func (e *streamEmitter) Publish(requestID string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return &model.NotificationPublishError{Err: fmt.Errorf("marshal: %v", err)}
	}

	ctx, cancelFn := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelFn()

	msg := &pubsub.Message{
		Body: body,
		Metadata: map[string]string{
			"routingKey":  e.routingKey,
			"requestID":   requestID,
			"contentType": "application/json",
		},
	}
	if err := e.topic.Send(ctx, msg); err != nil {
		return &model.NotificationPublishError{Err: err}
	}

	e.logger.Log("notify", "published notification", "routingKey", e.routingKey, "requestID", requestID)
	return nil
}
