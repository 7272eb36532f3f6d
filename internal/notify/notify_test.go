// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/stream"

	"github.com/moov-io/base"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"
)

func TestStreamEmitter__publish(t *testing.T) {
	ctx := context.Background()

	topic, err := stream.Topic(ctx, "mem://deposits")
	if err != nil {
		t.Fatal(err)
	}
	defer topic.Shutdown(ctx)

	sub, err := stream.Subscription(ctx, "mem://deposits")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Shutdown(ctx)

	emitter := NewStreamEmitter(log.NewNopLogger(), topic, "")

	result := model.DepositResult{
		Amount: decimal.RequireFromString("541.01"),
		Email:  "adam@example.com",
	}
	if err := emitter.Publish(base.ID(), result); err != nil {
		t.Fatal(err)
	}

	msg, err := sub.Receive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	msg.Ack()

	if msg.Metadata["routingKey"] != RoutingKey {
		t.Errorf("routingKey=%s", msg.Metadata["routingKey"])
	}

	var read model.DepositResult
	if err := json.Unmarshal(msg.Body, &read); err != nil {
		t.Fatal(err)
	}
	if !read.Amount.Equal(result.Amount) || read.Email != result.Email {
		t.Errorf("read=%#v", read)
	}
}

func TestStreamEmitter__marshalError(t *testing.T) {
	ctx := context.Background()

	topic, err := stream.Topic(ctx, "mem://broken")
	if err != nil {
		t.Fatal(err)
	}
	defer topic.Shutdown(ctx)

	emitter := NewStreamEmitter(log.NewNopLogger(), topic, "")

	err = emitter.Publish(base.ID(), func() {}) // func values don't marshal

	var publishErr *model.NotificationPublishError
	if !errors.As(err, &publishErr) {
		t.Fatalf("expected NotificationPublishError, got %v", err)
	}
}

func TestTestEmitter(t *testing.T) {
	emitter := &TestEmitter{}
	if err := emitter.Publish(base.ID(), "hello"); err != nil {
		t.Fatal(err)
	}
	if len(emitter.Published) != 1 {
		t.Errorf("published=%d", len(emitter.Published))
	}

	emitter.Err = errors.New("broker offline")
	err := emitter.Publish(base.ID(), "hello")

	var publishErr *model.NotificationPublishError
	if !errors.As(err, &publishErr) {
		t.Fatalf("expected NotificationPublishError, got %v", err)
	}
}
