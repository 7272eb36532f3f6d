// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package bills

import (
	"errors"
	"testing"
	"time"

	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/id"

	"github.com/moov-io/base"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"
)

func testBill(billID string, balance string) *model.Bill {
	return &model.Bill{
		ID:           id.Bill(billID),
		Amount:       decimal.RequireFromString(balance),
		Account:      id.Account("adam"),
		CreationDate: time.Now(),
	}
}

func TestBalanceMutator__credit(t *testing.T) {
	client := NewTestClient(testBill("1", "100"))
	mutator := NewBalanceMutator(log.NewNopLogger(), client)

	bill, err := mutator.ApplyDelta(base.ID(), id.Bill("1"), decimal.RequireFromString("50"))
	if err != nil {
		t.Fatal(err)
	}
	if !bill.Amount.Equal(decimal.RequireFromString("150")) {
		t.Errorf("got balance %s", bill.Amount)
	}
	if client.GetCalls != 1 || client.UpdateCalls != 1 {
		t.Errorf("reads=%d writes=%d", client.GetCalls, client.UpdateCalls)
	}
}

func TestBalanceMutator__debit(t *testing.T) {
	client := NewTestClient(testBill("1", "100"))
	mutator := NewBalanceMutator(log.NewNopLogger(), client)

	bill, err := mutator.ApplyDelta(base.ID(), id.Bill("1"), decimal.RequireFromString("-100"))
	if err != nil {
		t.Fatal(err)
	}
	if !bill.Amount.IsZero() {
		t.Errorf("got balance %s", bill.Amount)
	}
}

func TestBalanceMutator__insufficientFunds(t *testing.T) {
	client := NewTestClient(testBill("1", "100"))
	mutator := NewBalanceMutator(log.NewNopLogger(), client)

	_, err := mutator.ApplyDelta(base.ID(), id.Bill("1"), decimal.RequireFromString("-100.01"))

	var insufficient *model.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if insufficient.Bill != id.Bill("1") {
		t.Errorf("got %s", insufficient.Bill)
	}
	if !insufficient.Requested.Equal(decimal.RequireFromString("100.01")) {
		t.Errorf("got requested=%s", insufficient.Requested)
	}
	// no write was issued and the balance is untouched
	if client.UpdateCalls != 0 {
		t.Errorf("writes=%d", client.UpdateCalls)
	}
	if !client.Bills[id.Bill("1")].Amount.Equal(decimal.RequireFromString("100")) {
		t.Errorf("balance changed to %s", client.Bills[id.Bill("1")].Amount)
	}
}

func TestBalanceMutator__overdraft(t *testing.T) {
	bill := testBill("1", "25")
	bill.OverdraftEnabled = true

	client := NewTestClient(bill)
	mutator := NewBalanceMutator(log.NewNopLogger(), client)

	updated, err := mutator.ApplyDelta(base.ID(), id.Bill("1"), decimal.RequireFromString("-40"))
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Amount.Equal(decimal.RequireFromString("-15")) {
		t.Errorf("got balance %s", updated.Amount)
	}
}

func TestBalanceMutator__preservesFields(t *testing.T) {
	bill := testBill("1", "100")
	bill.IsDefault = true
	bill.OverdraftEnabled = true

	client := NewTestClient(bill)
	mutator := NewBalanceMutator(log.NewNopLogger(), client)

	updated, err := mutator.ApplyDelta(base.ID(), id.Bill("1"), decimal.RequireFromString("1"))
	if err != nil {
		t.Fatal(err)
	}
	if !updated.IsDefault || !updated.OverdraftEnabled {
		t.Errorf("flags lost: %#v", updated)
	}
	if updated.Account != id.Account("adam") {
		t.Errorf("owner lost: %s", updated.Account)
	}
	if !updated.CreationDate.Equal(bill.CreationDate) {
		t.Errorf("creation date changed: %v", updated.CreationDate)
	}
}

func TestBalanceMutator__notFound(t *testing.T) {
	client := NewTestClient()
	mutator := NewBalanceMutator(log.NewNopLogger(), client)

	_, err := mutator.ApplyDelta(base.ID(), id.Bill("missing"), decimal.RequireFromString("10"))

	var notFound *model.BillNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected BillNotFoundError, got %v", err)
	}
}

func TestBalanceMutator__updateFailed(t *testing.T) {
	client := NewTestClient(testBill("1", "100"))
	client.UpdateErr[id.Bill("1")] = errors.New("store rejected write")

	mutator := NewBalanceMutator(log.NewNopLogger(), client)
	_, err := mutator.ApplyDelta(base.ID(), id.Bill("1"), decimal.RequireFromString("10"))

	var failed *model.BillUpdateFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected BillUpdateFailedError, got %v", err)
	}
}
