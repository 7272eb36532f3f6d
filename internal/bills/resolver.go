// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package bills

import (
	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/id"

	"github.com/go-kit/kit/log"
)

// DefaultBillResolver finds the one Bill flagged as default for an
// account. Zero matches and more than one match both fail: several
// default Bills means the store's invariant is broken and picking the
// first would mask a data-integrity violation.
type DefaultBillResolver struct {
	logger log.Logger
	client Client
}

func NewDefaultBillResolver(logger log.Logger, client Client) *DefaultBillResolver {
	return &DefaultBillResolver{
		logger: logger,
		client: client,
	}
}

func (r *DefaultBillResolver) Resolve(requestID string, accountID id.Account) (id.Bill, error) {
	bills, err := r.client.GetBillsByAccount(requestID, accountID)
	if err != nil {
		return "", err
	}

	var matches []id.Bill
	for i := range bills {
		if bills[i].IsDefault {
			matches = append(matches, bills[i].ID)
		}
	}
	if len(matches) != 1 {
		return "", &model.NoDefaultBillError{Account: accountID, Matches: len(matches)}
	}
	return matches[0], nil
}
