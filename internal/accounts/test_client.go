// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package accounts

import (
	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/id"
)

type TestClient struct {
	Account *model.Account

	Err error

	// Calls counts GetAccount calls so tests can verify no remote
	// call was made on rejected requests.
	Calls int
}

func (c *TestClient) Ping() error {
	return c.Err
}

func (c *TestClient) GetAccount(requestID string, accountID id.Account) (*model.Account, error) {
	c.Calls++
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Account == nil || c.Account.ID != accountID {
		return nil, &model.AccountNotFoundError{Account: accountID}
	}
	return c.Account, nil
}
