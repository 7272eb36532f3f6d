// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package model

import (
	"encoding/json"
	"testing"

	"github.com/jsbank/billgate/pkg/id"

	"github.com/shopspring/decimal"
)

func TestDepositRequest__Validate(t *testing.T) {
	req := &DepositRequest{
		Bill:   id.Bill("1"),
		Amount: decimal.RequireFromString("10"),
	}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}

	// account-only targets resolve through the default bill later
	req = &DepositRequest{
		Account: id.Account("adam"),
		Amount:  decimal.RequireFromString("10"),
	}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}

	cases := []*DepositRequest{
		nil,
		{Amount: decimal.RequireFromString("10")},
		{Bill: id.Bill("1")},
		{Bill: id.Bill("1"), Amount: decimal.RequireFromString("-1")},
	}
	for i := range cases {
		if err := cases[i].Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestTransferRequest__Validate(t *testing.T) {
	req := &TransferRequest{
		FromAccount: id.Account("adam"),
		FromBill:    id.Bill("1"),
		ToAccount:   id.Account("bill"),
		Amount:      decimal.RequireFromString("10"),
	}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}

	cases := []*TransferRequest{
		nil,
		{FromBill: id.Bill("1"), ToBill: id.Bill("2"), Amount: decimal.RequireFromString("10")},
		{FromAccount: id.Account("adam"), ToBill: id.Bill("2"), Amount: decimal.RequireFromString("10")},
		{FromAccount: id.Account("adam"), FromBill: id.Bill("1"), Amount: decimal.RequireFromString("10")},
		{FromAccount: id.Account("adam"), FromBill: id.Bill("1"), ToBill: id.Bill("2")},
	}
	for i := range cases {
		if err := cases[i].Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestTransferStatus__machine(t *testing.T) {
	happy := []TransferStatus{TransferValidated, TransferDebited, TransferCredited, TransferRecorded, TransferDone}
	for i := 0; i < len(happy)-1; i++ {
		if !happy[i].CanTransition(happy[i+1]) {
			t.Errorf("%s -> %s should be allowed", happy[i], happy[i+1])
		}
	}

	if !TransferDebited.CanTransition(TransferReversed) {
		t.Error("debited -> reversed should be allowed")
	}
	if !TransferDebited.CanTransition(TransferPartiallyApplied) {
		t.Error("debited -> partially-applied should be allowed")
	}

	// terminals never move
	for _, terminal := range []TransferStatus{TransferDone, TransferFailed, TransferReversed, TransferPartiallyApplied} {
		for _, next := range happy {
			if terminal.CanTransition(next) {
				t.Errorf("%s -> %s should be rejected", terminal, next)
			}
		}
	}

	if err := TransferStatus("bogus").Validate(); err == nil {
		t.Error("expected error")
	}
	if err := TransferDone.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestBill__Update(t *testing.T) {
	bs := []byte(`{"billId": "1", "amount": "100.50", "isDefault": true, "overdraftEnabled": true, "account": "adam"}`)

	var bill Bill
	if err := json.Unmarshal(bs, &bill); err != nil {
		t.Fatal(err)
	}
	if !bill.Amount.Equal(decimal.RequireFromString("100.50")) {
		t.Errorf("amount=%s", bill.Amount)
	}

	update := bill.Update(decimal.RequireFromString("90"))
	if !update.Amount.Equal(decimal.RequireFromString("90")) {
		t.Errorf("amount=%s", update.Amount)
	}
	// everything but the balance carries over
	if !update.IsDefault || !update.OverdraftEnabled || update.Account != id.Account("adam") {
		t.Errorf("update=%#v", update)
	}
}
