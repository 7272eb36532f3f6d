// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package billgate

// Version holds the released version of billgate
const Version = "v0.3.1"
