// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

// Package ble handles discovery of and communication with the strap
// over Bluetooth Low Energy. It wraps the proprietary GATT service with
// a typed client: commands go out over the command characteristic,
// notification payloads come back on the command-response and data
// characteristics.
package ble

import (
	"tinygo.org/x/bluetooth"

	"github.com/strapline/strapline/pkg/whoopproto"
)

// Parsed proprietary GATT UUIDs. ParseUUID only fails on malformed
// input, and these are compile-time constants, so failures panic at
// package init.
var (
	serviceUUID = mustUUID(whoopproto.ServiceUUID)
	cmdToUUID   = mustUUID(whoopproto.CharCmdToUUID)
	cmdFromUUID = mustUUID(whoopproto.CharCmdFrUUID)
	dataUUID    = mustUUID(whoopproto.CharDataUUID)
)

func mustUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic("ble: bad uuid " + s + ": " + err.Error())
	}
	return u
}
