// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package transfers moves funds between two Bills as a two-leg saga:
// debit the source, credit the destination, and compensate the debit
// when the credit leg fails.
package transfers

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

// Transfer validates req, resolves the destination Bill and runs the
// two balance mutations. The audit row is only written once both legs
// succeeded, so a rejected or fully-reversed transfer leaves no record.
// A non-nil result alongside a MovementRecordError or
// NotificationPublishError means both legs landed and only the
// bookkeeping row or the announcement failed.
//
// When the credit leg fails the debit is compensated with a credit
// back onto the source Bill. Either way the caller gets a
// PartialTransferError whose Compensated field says whether the saga
// unwound cleanly. An uncompensated failure additionally writes a
// reconciliation event for manual review.
func (o *Orchestrator) Transfer(requestID string, req *model.TransferRequest) (*model.TransferResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if prior, err := o.repo.LookupByIdempotencyKey(req.IdempotencyKey); err != nil {
		return nil, err
	} else if prior != nil {
		o.logger.Log("transfers", "replayed idempotent transfer", "transferID", prior.ID, "requestID", requestID)
		return &model.TransferResult{
			FromBill: prior.FromBill,
			ToBill:   prior.ToBill,
			Amount:   prior.Amount,
			Status:   prior.Status,
		}, nil
	}

	if o.accounts != nil {
		if _, err := o.accounts.GetAccount(requestID, req.FromAccount); err != nil {
			return nil, err
		}
	}

	toBill := req.ToBill
	if toBill == "" {
		resolved, err := o.resolver.Resolve(requestID, req.ToAccount)
		if err != nil {
			return nil, err
		}
		toBill = resolved
	}
	if toBill == req.FromBill {
		return nil, &model.InvalidMovementRequestError{Reason: "source and destination are the same bill"}
	}

	// debit leg
	if _, err := o.mutator.ApplyDelta(requestID, req.FromBill, req.Amount.Neg()); err != nil {
		return nil, err
	}

	// credit leg
	if _, err := o.mutator.ApplyDelta(requestID, toBill, req.Amount); err != nil {
		return nil, o.compensate(requestID, req, toBill, err)
	}

	record := &model.TransferRecord{
		ID:             id.Transfer(base.ID()),
		Amount:         req.Amount,
		FromBill:       req.FromBill,
		FromAccount:    req.FromAccount,
		ToBill:         toBill,
		ToAccount:      req.ToAccount,
		Status:         model.TransferRecorded,
		Created:        base.Now(),
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := o.repo.CreateTransfer(record); err != nil {
		if database.UniqueViolation(err) {
			// a concurrent retry with the same key won the race
			if prior, lookupErr := o.repo.LookupByIdempotencyKey(req.IdempotencyKey); lookupErr == nil && prior != nil {
				return &model.TransferResult{
					FromBill: prior.FromBill,
					ToBill:   prior.ToBill,
					Amount:   prior.Amount,
					Status:   prior.Status,
				}, nil
			}
		}
		// both balances are updated, only the bookkeeping row failed
		o.logger.Log("transfers", "problem writing transfer record", "transferID", record.ID, "error", err, "requestID", requestID)
		record.Status = model.TransferCredited
		o.writeEvent(events.TransferEvent, record, requestID)
		return &model.TransferResult{
			FromBill: record.FromBill,
			ToBill:   record.ToBill,
			Amount:   record.Amount,
			Status:   record.Status,
		}, &model.MovementRecordError{Err: err}
	}

	o.writeEvent(events.TransferEvent, record, requestID)

	if err := o.repo.UpdateTransferStatus(record.ID, model.TransferDone); err != nil {
		o.logger.Log("transfers", "problem updating transfer status", "transferID", record.ID, "error", err)
	} else {
		record.Status = model.TransferDone
	}

	result := &model.TransferResult{
		FromBill: record.FromBill,
		ToBill:   record.ToBill,
		Amount:   record.Amount,
		Status:   record.Status,
	}

	o.logger.Log("transfers", "transfer applied", "transferID", record.ID, "fromBill", record.FromBill, "toBill", record.ToBill, "amount", record.Amount.String(), "requestID", requestID)

	if err := o.emitter.Publish(requestID, result); err != nil {
		return result, err
	}
	return result, nil
}

// compensate credits the debited amount back onto the source Bill
// after a failed credit leg.
func (o *Orchestrator) compensate(requestID string, req *model.TransferRequest, toBill id.Bill, cause error) error {
	partial := &model.PartialTransferError{
		FromBill: req.FromBill,
		ToBill:   toBill,
		Amount:   req.Amount,
		Err:      cause,
	}

	if _, err := o.mutator.ApplyDelta(requestID, req.FromBill, req.Amount); err != nil {
		o.logger.Log("transfers", "compensation failed, funds partially applied",
			"fromBill", req.FromBill, "toBill", toBill, "amount", req.Amount.String(), "error", err, "requestID", requestID)

		o.writeEvent(events.ReconciliationEvent, &model.TransferRecord{
			Amount:      req.Amount,
			FromBill:    req.FromBill,
			FromAccount: req.FromAccount,
			ToBill:      toBill,
			ToAccount:   req.ToAccount,
			Status:      model.TransferPartiallyApplied,
			Created:     base.Now(),
		}, requestID)
		return partial
	}

	o.logger.Log("transfers", "credit leg failed, debit reversed",
		"fromBill", req.FromBill, "toBill", toBill, "amount", req.Amount.String(), "error", cause, "requestID", requestID)

	o.writeEvent(events.ReversalEvent, &model.TransferRecord{
		Amount:      req.Amount,
		FromBill:    req.FromBill,
		FromAccount: req.FromAccount,
		ToBill:      toBill,
		ToAccount:   req.ToAccount,
		Status:      model.TransferReversed,
		Created:     base.Now(),
	}, requestID)

	partial.Compensated = true
	return partial
}

func (o *Orchestrator) writeEvent(eventType events.EventType, record *model.TransferRecord, requestID string) {
	message, _ := json.Marshal(record)
	metadata := map[string]string{
		"fromBillId": record.FromBill.String(),
		"toBillId":   record.ToBill.String(),
	}
	if record.ID != "" {
		metadata["transferId"] = record.ID.String()
	}
	err := o.eventRepo.WriteEvent(&events.Event{
		ID:       events.EventID(base.ID()),
		Topic:    notify.Exchange,
		Message:  string(message),
		Type:     eventType,
		Metadata: metadata,
	})
	if err != nil {
		o.logger.Log("transfers", "problem writing transfer event", "type", eventType, "error", err, "requestID", requestID)
	}
}
