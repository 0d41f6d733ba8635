// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package ble

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/strapline/strapline/internal/logging"
	"github.com/strapline/strapline/pkg/whoopproto"
)

// Notification is one value received from the strap, tagged with the
// characteristic it arrived on.
type Notification struct {
	CharUUID string
	Data     []byte
}

// NotifyFunc receives strap notifications. It is called from the BLE
// stack's goroutine and must not block.
type NotifyFunc func(Notification)

// Client is a connected strap. Commands are framed and sequenced here;
// notification payloads are delivered raw, since a single notification
// can carry several frames or a fragment of one.
type Client struct {
	adapter *bluetooth.Adapter
	device  bluetooth.Device

	cmdTo   bluetooth.DeviceCharacteristic
	cmdFrom bluetooth.DeviceCharacteristic
	data    bluetooth.DeviceCharacteristic

	seq whoopproto.Sequencer

	mu      sync.Mutex
	notify  NotifyFunc
	started bool
}

// Connect scans for the strap (by address, or the first strap seen when
// address is empty), connects, and resolves the proprietary service's
// characteristics.
func Connect(ctx context.Context, adapter *bluetooth.Adapter, address string) (*Client, error) {
	log := logging.GetLogger()

	disc, addr, err := FindStrap(ctx, adapter, address)
	if err != nil {
		return nil, fmt.Errorf("locate strap: %w", err)
	}
	log.Info("Connecting",
		zap.String("address", disc.Address),
		zap.String("name", disc.Name),
	)

	device, err := adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", disc.Address, err)
	}

	c := &Client{adapter: adapter, device: device}
	if err := c.resolve(); err != nil {
		device.Disconnect()
		return nil, err
	}
	log.Info("Connected", zap.String("address", disc.Address))
	return c, nil
}

func (c *Client) resolve() error {
	services, err := c.device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil {
		return fmt.Errorf("discover services: %w", err)
	}
	if len(services) == 0 {
		return fmt.Errorf("strap service %s not found", whoopproto.ServiceUUID)
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{
		cmdToUUID, cmdFromUUID, dataUUID,
	})
	if err != nil {
		return fmt.Errorf("discover characteristics: %w", err)
	}
	for _, ch := range chars {
		switch ch.UUID() {
		case cmdToUUID:
			c.cmdTo = ch
		case cmdFromUUID:
			c.cmdFrom = ch
		case dataUUID:
			c.data = ch
		}
	}
	if c.cmdTo.UUID() != cmdToUUID {
		return fmt.Errorf("command characteristic %s not found", whoopproto.CharCmdToUUID)
	}
	if c.data.UUID() != dataUUID {
		return fmt.Errorf("data characteristic %s not found", whoopproto.CharDataUUID)
	}
	return nil
}

// Subscribe enables notifications on the data and command-response
// characteristics, delivering every value to fn.
func (c *Client) Subscribe(fn NotifyFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("already subscribed")
	}
	c.notify = fn

	err := c.data.EnableNotifications(func(buf []byte) {
		c.deliver(whoopproto.CharDataUUID, buf)
	})
	if err != nil {
		return fmt.Errorf("enable data notifications: %w", err)
	}
	if c.cmdFrom.UUID() == cmdFromUUID {
		err = c.cmdFrom.EnableNotifications(func(buf []byte) {
			c.deliver(whoopproto.CharCmdFrUUID, buf)
		})
		if err != nil {
			return fmt.Errorf("enable command notifications: %w", err)
		}
	}
	c.started = true
	return nil
}

func (c *Client) deliver(uuid string, buf []byte) {
	// The stack reuses its buffer between callbacks.
	data := append([]byte(nil), buf...)
	logging.LogNotification(uuid, data)

	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()
	if fn != nil {
		fn(Notification{CharUUID: uuid, Data: data})
	}
}

// Send frames a command with the next sequence number and writes it to
// the strap. The frame that went over the air is returned.
func (c *Client) Send(cmd whoopproto.Command, data []byte) ([]byte, error) {
	frame := whoopproto.BuildCommand(cmd, c.seq.Next(), data)
	return frame, c.SendRaw(frame)
}

// SendRaw writes an already-framed packet to the command characteristic.
func (c *Client) SendRaw(frame []byte) error {
	logging.Debug("TX command",
		zap.String("char", whoopproto.CharCmdToUUID),
		zap.Int("len", len(frame)),
	)
	if _, err := c.cmdTo.WriteWithoutResponse(frame); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// Close disables notifications and disconnects.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.started {
		c.data.EnableNotifications(nil)
		if c.cmdFrom.UUID() == cmdFromUUID {
			c.cmdFrom.EnableNotifications(nil)
		}
		c.started = false
	}
	c.mu.Unlock()
	return c.device.Disconnect()
}

// EnableAdapter turns the default BLE stack on. Call once at startup.
func EnableAdapter() (*bluetooth.Adapter, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth adapter: %w", err)
	}
	return adapter, nil
}
