// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package events

type EventID string

// Event is an audit row written alongside every funds movement.
// Message carries the JSON notification payload, Metadata the ids
// involved so operators can search for a specific bill or account.
type Event struct {
	ID      EventID   `json:"id"`
	Topic   string    `json:"topic"`
	Message string    `json:"message"`
	Type    EventType `json:"type"`

	Metadata map[string]string `json:"metadata"`
}

type EventType string

const (
	DepositEvent  EventType = "Deposit"
	TransferEvent EventType = "Transfer"

	// ReversalEvent marks a compensating credit after a failed
	// transfer credit leg.
	ReversalEvent EventType = "Reversal"

	// ReconciliationEvent marks a partially applied transfer whose
	// reversal also failed and needs manual review.
	ReconciliationEvent EventType = "Reconciliation"
)
