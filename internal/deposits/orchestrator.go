// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package deposits credits external funds onto a Bill: resolve the
// target, apply the balance update, record the audit row and announce
// the movement.
package deposits

import (
	"encoding/json"

	"github.com/jsbank/billgate/internal/accounts"
	"github.com/jsbank/billgate/internal/bills"
	"github.com/jsbank/billgate/internal/database"
	"github.com/jsbank/billgate/internal/events"
	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/internal/notify"
	"github.com/jsbank/billgate/pkg/id"

	"github.com/moov-io/base"

	"github.com/go-kit/kit/log"
)

type Orchestrator struct {
	logger log.Logger

	accounts accounts.Client
	mutator  *bills.BalanceMutator
	resolver *bills.DefaultBillResolver

	repo      Repository
	eventRepo events.Repository
	emitter   notify.Emitter
}

func NewOrchestrator(
	logger log.Logger,
	accountsClient accounts.Client,
	mutator *bills.BalanceMutator,
	resolver *bills.DefaultBillResolver,
	repo Repository,
	eventRepo events.Repository,
	emitter notify.Emitter,
) *Orchestrator {
	return &Orchestrator{
		logger:    logger,
		accounts:  accountsClient,
		mutator:   mutator,
		resolver:  resolver,
		repo:      repo,
		eventRepo: eventRepo,
		emitter:   emitter,
	}
}

// Deposit validates req, credits the target Bill and records the
// movement. Requests are rejected before any remote call when
// malformed. A replayed idempotency key returns the original result
// without touching any balance.
//
// A non-nil result alongside an error means the funds moved: with a
// MovementRecordError the audit row is missing, with a
// NotificationPublishError only the announcement failed.
func (o *Orchestrator) Deposit(requestID string, req *model.DepositRequest) (*model.DepositResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if prior, err := o.repo.LookupByIdempotencyKey(req.IdempotencyKey); err != nil {
		return nil, err
	} else if prior != nil {
		o.logger.Log("deposits", "replayed idempotent deposit", "depositID", prior.ID, "requestID", requestID)
		return &model.DepositResult{Amount: prior.Amount, Email: prior.Email}, nil
	}

	billID := req.Bill
	if billID == "" {
		resolved, err := o.resolver.Resolve(requestID, req.Account)
		if err != nil {
			return nil, err
		}
		billID = resolved
	}

	bill, err := o.mutator.ApplyDelta(requestID, billID, req.Amount)
	if err != nil {
		return nil, err
	}

	email := ""
	if o.accounts != nil {
		account, err := o.accounts.GetAccount(requestID, bill.Account)
		if err != nil {
			o.logger.Log("deposits", "account lookup failed after credit", "account", bill.Account, "error", err, "requestID", requestID)
		} else {
			email = account.Email
		}
	}

	record := &model.DepositRecord{
		ID:             id.Deposit(base.ID()),
		Amount:         req.Amount,
		Bill:           billID,
		Email:          email,
		Created:        base.Now(),
		IdempotencyKey: req.IdempotencyKey,
	}
	result := &model.DepositResult{Amount: record.Amount, Email: record.Email}

	if err := o.repo.CreateDeposit(record); err != nil {
		if database.UniqueViolation(err) {
			// a concurrent retry with the same key won the race
			if prior, lookupErr := o.repo.LookupByIdempotencyKey(req.IdempotencyKey); lookupErr == nil && prior != nil {
				return &model.DepositResult{Amount: prior.Amount, Email: prior.Email}, nil
			}
		}
		// the funds are already on the bill, only the audit row failed
		o.logger.Log("deposits", "problem writing deposit record", "depositID", record.ID, "error", err, "requestID", requestID)
		o.writeEvent(record)
		return result, &model.MovementRecordError{Err: err}
	}

	o.writeEvent(record)

	o.logger.Log("deposits", "deposit applied", "depositID", record.ID, "bill", record.Bill, "amount", record.Amount.String(), "requestID", requestID)

	if err := o.emitter.Publish(requestID, result); err != nil {
		return result, err
	}
	return result, nil
}

func (o *Orchestrator) writeEvent(record *model.DepositRecord) {
	message, _ := json.Marshal(record)
	err := o.eventRepo.WriteEvent(&events.Event{
		ID:      events.EventID(base.ID()),
		Topic:   notify.Exchange,
		Message: string(message),
		Type:    events.DepositEvent,
		Metadata: map[string]string{
			"depositId": record.ID.String(),
			"billId":    record.Bill.String(),
		},
	})
	if err != nil {
		o.logger.Log("deposits", "problem writing deposit event", "depositID", record.ID, "error", err)
	}
}
