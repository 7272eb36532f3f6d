// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package route

import (
	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

func newTestRouter() *mux.Router {
	r := mux.NewRouter()
	PingRoute(log.NewNopLogger(), r)
	return r
}
