// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package ble

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/strapline/strapline/internal/logging"
	"github.com/strapline/strapline/pkg/whoopproto"
)

// DiscoveredDevice is one advertisement seen during a scan.
type DiscoveredDevice struct {
	Address   string
	Name      string
	RSSI      int16
	FirstSeen time.Time
}

// IsStrap reports whether the advertisement looks like a strap: the
// advertised name carries the vendor prefix.
func (d DiscoveredDevice) IsStrap() bool {
	return strings.HasPrefix(strings.ToUpper(d.Name), whoopproto.DeviceNamePrefix)
}

// Scan collects strap advertisements until the context is done or
// maxDevices straps have been seen (0 means no cap). Duplicate
// advertisements update RSSI but are reported once. Scan owns the
// adapter's scanning state for its duration.
func Scan(ctx context.Context, adapter *bluetooth.Adapter, maxDevices int) ([]DiscoveredDevice, error) {
	log := logging.GetLogger()

	var (
		mu      sync.Mutex
		seen    = make(map[string]int)
		devices []DiscoveredDevice
	)
	var once sync.Once
	done := make(chan struct{})

	// adapter.Scan blocks until StopScan, so it runs on its own
	// goroutine and the stop is driven from here.
	errc := make(chan error, 1)
	go func() {
		errc <- adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			d := DiscoveredDevice{
				Address:   result.Address.String(),
				Name:      result.LocalName(),
				RSSI:      result.RSSI,
				FirstSeen: time.Now(),
			}
			if !d.IsStrap() {
				return
			}

			mu.Lock()
			if i, ok := seen[d.Address]; ok {
				devices[i].RSSI = d.RSSI
				mu.Unlock()
				return
			}
			seen[d.Address] = len(devices)
			devices = append(devices, d)
			count := len(devices)
			mu.Unlock()

			log.Info("Found strap",
				zap.String("address", d.Address),
				zap.String("name", d.Name),
				zap.Int16("rssi", d.RSSI),
			)
			if maxDevices > 0 && count >= maxDevices {
				once.Do(func() { close(done) })
			}
		})
	}()

	select {
	case <-ctx.Done():
	case <-done:
	case err := <-errc:
		return nil, err
	}
	if err := adapter.StopScan(); err != nil {
		log.Warn("Stop scan failed", zap.Error(err))
	}
	<-errc

	mu.Lock()
	defer mu.Unlock()
	return append([]DiscoveredDevice(nil), devices...), nil
}

// FindStrap scans until one strap is seen, optionally matching a
// specific address ("" accepts the first strap found).
func FindStrap(ctx context.Context, adapter *bluetooth.Adapter, address string) (DiscoveredDevice, bluetooth.Address, error) {
	type match struct {
		dev  DiscoveredDevice
		addr bluetooth.Address
	}
	found := make(chan match, 1)

	errc := make(chan error, 1)
	go func() {
		errc <- adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			d := DiscoveredDevice{
				Address:   result.Address.String(),
				Name:      result.LocalName(),
				RSSI:      result.RSSI,
				FirstSeen: time.Now(),
			}
			if address != "" {
				if !strings.EqualFold(d.Address, address) {
					return
				}
			} else if !d.IsStrap() {
				return
			}
			select {
			case found <- match{dev: d, addr: result.Address}:
			default:
			}
		})
	}()

	stop := func() {
		adapter.StopScan()
		<-errc
	}

	select {
	case m := <-found:
		stop()
		return m.dev, m.addr, nil
	case err := <-errc:
		return DiscoveredDevice{}, bluetooth.Address{}, err
	case <-ctx.Done():
		stop()
		return DiscoveredDevice{}, bluetooth.Address{}, ctx.Err()
	}
}
