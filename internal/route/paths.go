// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.
package route

import (
	"io"
	"io/ioutil"
	"net/http"

	"github.com/gorilla/mux"
)

// maxReadBytes is the number of bytes to read from a request body. It's
// intended to be used with an io.LimitReader
const maxReadBytes = 1 * 1024 * 1024

func ReadPathID(name string, r *http.Request) string {
	vars := mux.Vars(r)
	v, ok := vars[name]
	if ok {
		return v
	}
	return ""
}

// Read consumes an io.Reader (wrapping with io.LimitReader)
// and returns either the resulting bytes or a non-nil error.
func Read(r io.Reader) ([]byte, error) {
	return ioutil.ReadAll(io.LimitReader(r, maxReadBytes))
}
