// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package deposits

import (
	"errors"
	"testing"
	"time"

	"github.com/jsbank/billgate/internal/accounts"
	"github.com/jsbank/billgate/internal/bills"
	"github.com/jsbank/billgate/internal/events"
	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/internal/notify"
	"github.com/jsbank/billgate/pkg/id"

	"github.com/moov-io/base"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"
)

type testOrchestrator struct {
	*Orchestrator

	accounts  *accounts.TestClient
	bills     *bills.TestClient
	repo      *TestRepository
	eventRepo *events.TestRepository
	emitter   *notify.TestEmitter
}

func setupOrchestrator(t *testing.T, billList ...*model.Bill) *testOrchestrator {
	t.Helper()

	accountsClient := &accounts.TestClient{
		Account: &model.Account{
			ID:    id.Account("adam"),
			Email: "adam@example.com",
		},
	}
	billsClient := bills.NewTestClient(billList...)
	repo := &TestRepository{}
	eventRepo := &events.TestRepository{}
	emitter := &notify.TestEmitter{}

	logger := log.NewNopLogger()
	orch := NewOrchestrator(
		logger,
		accountsClient,
		bills.NewBalanceMutator(logger, billsClient),
		bills.NewDefaultBillResolver(logger, billsClient),
		repo,
		eventRepo,
		emitter,
	)
	return &testOrchestrator{
		Orchestrator: orch,
		accounts:     accountsClient,
		bills:        billsClient,
		repo:         repo,
		eventRepo:    eventRepo,
		emitter:      emitter,
	}
}

func testBill(billID string, balance string) *model.Bill {
	return &model.Bill{
		ID:           id.Bill(billID),
		Amount:       decimal.RequireFromString(balance),
		Account:      id.Account("adam"),
		CreationDate: time.Now(),
	}
}

func TestOrchestrator__depositOntoBill(t *testing.T) {
	env := setupOrchestrator(t, testBill("1", "100"))

	result, err := env.Deposit(base.ID(), &model.DepositRequest{
		Bill:   id.Bill("1"),
		Amount: decimal.RequireFromString("41.01"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Amount.Equal(decimal.RequireFromString("41.01")) {
		t.Errorf("result=%#v", result)
	}
	if result.Email != "adam@example.com" {
		t.Errorf("email=%s", result.Email)
	}

	// balance moved from 100 to 141.01
	if !env.bills.Bills[id.Bill("1")].Amount.Equal(decimal.RequireFromString("141.01")) {
		t.Errorf("balance=%s", env.bills.Bills[id.Bill("1")].Amount)
	}

	// exactly one audit row, one event, one notification
	if len(env.repo.Deposits) != 1 {
		t.Fatalf("deposits=%d", len(env.repo.Deposits))
	}
	if env.repo.Deposits[0].Bill != id.Bill("1") || env.repo.Deposits[0].Email != "adam@example.com" {
		t.Errorf("record=%#v", env.repo.Deposits[0])
	}
	if len(env.eventRepo.Written) != 1 || env.eventRepo.Written[0].Type != events.DepositEvent {
		t.Errorf("events=%#v", env.eventRepo.Written)
	}
	if len(env.emitter.Published) != 1 {
		t.Errorf("published=%d", len(env.emitter.Published))
	}
}

func TestOrchestrator__depositOntoDefaultBill(t *testing.T) {
	def := testBill("2", "50")
	def.IsDefault = true
	env := setupOrchestrator(t, testBill("1", "100"), def)

	result, err := env.Deposit(base.ID(), &model.DepositRequest{
		Account: id.Account("adam"),
		Amount:  decimal.RequireFromString("25"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Amount.Equal(decimal.RequireFromString("25")) {
		t.Errorf("result=%#v", result)
	}

	// only the default bill moved
	if !env.bills.Bills[id.Bill("2")].Amount.Equal(decimal.RequireFromString("75")) {
		t.Errorf("default balance=%s", env.bills.Bills[id.Bill("2")].Amount)
	}
	if !env.bills.Bills[id.Bill("1")].Amount.Equal(decimal.RequireFromString("100")) {
		t.Errorf("other balance=%s", env.bills.Bills[id.Bill("1")].Amount)
	}
}

func TestOrchestrator__invalidRequest(t *testing.T) {
	env := setupOrchestrator(t, testBill("1", "100"))

	cases := []*model.DepositRequest{
		{Amount: decimal.RequireFromString("10")},                          // no target
		{Bill: id.Bill("1")},                                               // zero amount
		{Bill: id.Bill("1"), Amount: decimal.RequireFromString("-5")},      // negative
		{Account: id.Account("adam"), Amount: decimal.Decimal{}},           // zero amount
	}
	for i := range cases {
		_, err := env.Deposit(base.ID(), cases[i])

		var invalid *model.InvalidMovementRequestError
		if !errors.As(err, &invalid) {
			t.Errorf("case %d: expected InvalidMovementRequestError, got %v", i, err)
		}
	}

	// rejected before any remote call
	if env.bills.GetCalls != 0 || env.bills.UpdateCalls != 0 || env.accounts.Calls != 0 {
		t.Errorf("reads=%d writes=%d accounts=%d", env.bills.GetCalls, env.bills.UpdateCalls, env.accounts.Calls)
	}
	if len(env.repo.Deposits) != 0 || len(env.emitter.Published) != 0 {
		t.Errorf("deposits=%d published=%d", len(env.repo.Deposits), len(env.emitter.Published))
	}
}

func TestOrchestrator__noDefaultBill(t *testing.T) {
	env := setupOrchestrator(t, testBill("1", "100")) // no default flag

	_, err := env.Deposit(base.ID(), &model.DepositRequest{
		Account: id.Account("adam"),
		Amount:  decimal.RequireFromString("10"),
	})

	var noDefault *model.NoDefaultBillError
	if !errors.As(err, &noDefault) {
		t.Fatalf("expected NoDefaultBillError, got %v", err)
	}
	if env.bills.UpdateCalls != 0 || len(env.repo.Deposits) != 0 {
		t.Errorf("writes=%d deposits=%d", env.bills.UpdateCalls, len(env.repo.Deposits))
	}
}

func TestOrchestrator__idempotentReplay(t *testing.T) {
	env := setupOrchestrator(t, testBill("1", "100"))

	key := base.ID()
	env.repo.Deposits = append(env.repo.Deposits, &model.DepositRecord{
		ID:             id.Deposit(base.ID()),
		Amount:         decimal.RequireFromString("41.01"),
		Bill:           id.Bill("1"),
		Email:          "adam@example.com",
		Created:        base.Now(),
		IdempotencyKey: key,
	})

	result, err := env.Deposit(base.ID(), &model.DepositRequest{
		Bill:           id.Bill("1"),
		Amount:         decimal.RequireFromString("41.01"),
		IdempotencyKey: key,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Amount.Equal(decimal.RequireFromString("41.01")) {
		t.Errorf("result=%#v", result)
	}

	// replay never touches the store or appends another row
	if env.bills.GetCalls != 0 || env.bills.UpdateCalls != 0 {
		t.Errorf("reads=%d writes=%d", env.bills.GetCalls, env.bills.UpdateCalls)
	}
	if len(env.repo.Deposits) != 1 {
		t.Errorf("deposits=%d", len(env.repo.Deposits))
	}
}

func TestOrchestrator__publishFailure(t *testing.T) {
	env := setupOrchestrator(t, testBill("1", "100"))
	env.emitter.Err = errors.New("broker offline")

	result, err := env.Deposit(base.ID(), &model.DepositRequest{
		Bill:   id.Bill("1"),
		Amount: decimal.RequireFromString("10"),
	})

	var publishErr *model.NotificationPublishError
	if !errors.As(err, &publishErr) {
		t.Fatalf("expected NotificationPublishError, got %v", err)
	}
	// funds moved and were recorded despite the failed announcement
	if result == nil || !result.Amount.Equal(decimal.RequireFromString("10")) {
		t.Errorf("result=%#v", result)
	}
	if !env.bills.Bills[id.Bill("1")].Amount.Equal(decimal.RequireFromString("110")) {
		t.Errorf("balance=%s", env.bills.Bills[id.Bill("1")].Amount)
	}
	if len(env.repo.Deposits) != 1 {
		t.Errorf("deposits=%d", len(env.repo.Deposits))
	}
}

func TestOrchestrator__recordFailure(t *testing.T) {
	env := setupOrchestrator(t, testBill("1", "100"))
	env.repo.CreateErr = errors.New("disk full")

	result, err := env.Deposit(base.ID(), &model.DepositRequest{
		Bill:   id.Bill("1"),
		Amount: decimal.RequireFromString("10"),
	})

	var recordErr *model.MovementRecordError
	if !errors.As(err, &recordErr) {
		t.Fatalf("expected MovementRecordError, got %v", err)
	}
	// the credit landed, so the caller still needs the result
	if result == nil || !result.Amount.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("result=%#v", result)
	}
	if !env.bills.Bills[id.Bill("1")].Amount.Equal(decimal.RequireFromString("110")) {
		t.Errorf("balance=%s", env.bills.Bills[id.Bill("1")].Amount)
	}
	if len(env.repo.Deposits) != 0 {
		t.Errorf("deposits=%d", len(env.repo.Deposits))
	}
	// the audit event still captures what moved
	if len(env.eventRepo.Written) != 1 {
		t.Errorf("events=%d", len(env.eventRepo.Written))
	}
}

func TestOrchestrator__missingAccountEmail(t *testing.T) {
	env := setupOrchestrator(t, testBill("1", "100"))
	env.accounts.Err = errors.New("account store offline")

	// the credit still lands, only the denormalized email is empty
	result, err := env.Deposit(base.ID(), &model.DepositRequest{
		Bill:   id.Bill("1"),
		Amount: decimal.RequireFromString("10"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Email != "" {
		t.Errorf("email=%s", result.Email)
	}
	if len(env.repo.Deposits) != 1 {
		t.Errorf("deposits=%d", len(env.repo.Deposits))
	}
}
