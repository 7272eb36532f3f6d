// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package route

import (
	"errors"
	"net/http"

	"github.com/jsbank/billgate/internal/model"
)

// ErrorStatus classifies a movement error for callers: bad input,
// missing entity, business conflict, or a server-side failure where
// funds may have (partially) moved. Callers reading a 5xx must consult
// the body before assuming a retry is safe.
func ErrorStatus(err error) int {
	var invalid *model.InvalidMovementRequestError
	var acctNotFound *model.AccountNotFoundError
	var billNotFound *model.BillNotFoundError
	var noDefault *model.NoDefaultBillError
	var insufficient *model.InsufficientFundsError
	var partial *model.PartialTransferError
	var record *model.MovementRecordError
	var publish *model.NotificationPublishError

	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &acctNotFound), errors.As(err, &billNotFound):
		return http.StatusNotFound
	case errors.As(err, &noDefault), errors.As(err, &insufficient):
		return http.StatusConflict
	case errors.As(err, &partial), errors.As(err, &record), errors.As(err, &publish):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
