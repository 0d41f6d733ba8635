// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors
//
// Strapline - Whoop 4.0 BLE protocol toolkit
//
// A CLI tool for discovering, streaming, capturing and decoding the
// strap's proprietary BLE protocol.

package main

import (
	"os"

	"github.com/strapline/strapline/cmd"
	"github.com/strapline/strapline/internal/logging"
)

func main() {
	defer logging.Sync()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
