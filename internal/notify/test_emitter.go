// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package notify

import (
	"github.com/jsbank/billgate/internal/model"
)

type TestEmitter struct {
	Err error

	Published []interface{}
}

func (e *TestEmitter) Publish(requestID string, event interface{}) error {
	if e.Err != nil {
		return &model.NotificationPublishError{Err: e.Err}
	}
	e.Published = append(e.Published, event)
	return nil
}
