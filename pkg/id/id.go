// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package id

import "strings"

type Account string

func (a Account) String() string {
	return string(a)
}

type Bill string

func (b Bill) String() string {
	return string(b)
}

type Deposit string

func (d Deposit) String() string {
	return string(d)
}

func (d Deposit) Equal(s string) bool {
	return strings.EqualFold(string(d), s)
}

type Transfer string

func (t Transfer) String() string {
	return string(t)
}

func (t Transfer) Equal(s string) bool {
	return strings.EqualFold(string(t), s)
}
