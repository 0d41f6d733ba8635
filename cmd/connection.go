// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// SniffSource is a byte stream carrying raw strap traffic from outside
// the host's BLE stack: a UART sniffer dongle, or a websocket bridge
// relaying another machine's captures.
type SniffSource interface {
	io.Reader
	io.Writer
	io.Closer
}

// Sniffer connection flags, registered by the sniff command.
var (
	sniffPort        string
	sniffBaud        int
	sniffURL         string
	sniffUsername    string
	sniffNoSSLVerify bool
)

type serialSource struct {
	port serial.Port
}

func (s *serialSource) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *serialSource) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *serialSource) Close() error                { return s.port.Close() }

// ErrBridgeClosed is returned when reading from a closed websocket bridge.
var ErrBridgeClosed = fmt.Errorf("bridge connection closed")

type websocketSource struct {
	conn   *websocket.Conn
	buf    []byte
	off    int
	closed bool
}

func (w *websocketSource) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrBridgeClosed
	}
	if w.off < len(w.buf) {
		n := copy(p, w.buf[w.off:])
		w.off += n
		return n, nil
	}
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}
		// Raw strap bytes only travel as binary messages.
		if messageType != websocket.BinaryMessage {
			continue
		}
		w.buf = data
		w.off = copy(p, w.buf)
		return w.off, nil
	}
}

func (w *websocketSource) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *websocketSource) Close() error { return w.conn.Close() }

func openSerialSource(portName string, baudRate int) (SniffSource, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return &serialSource{port: port}, nil
}

func openWebsocketSource(wsURL, username, password string, skipSSLVerify bool) (SniffSource, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: skipSSLVerify}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("bridge connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("bridge connection failed: %w", err)
	}
	return &websocketSource{conn: conn}, nil
}

// bridgePassword reads the bridge password from the environment or
// prompts without echo. A --password flag would leak credentials into
// shell history, so there isn't one.
func bridgePassword() (string, error) {
	if pw := os.Getenv("STRAPLINE_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal; fall back to plain stdin.
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}
	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// openSniffSource opens the sniffer byte stream selected by flags.
func openSniffSource() (SniffSource, string, error) {
	if sniffURL != "" {
		password := ""
		if sniffUsername != "" {
			var err error
			password, err = bridgePassword()
			if err != nil {
				return nil, "", err
			}
		}
		src, err := openWebsocketSource(sniffURL, sniffUsername, password, sniffNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return src, fmt.Sprintf("Bridge: %s", sniffURL), nil
	}

	if sniffPort != "" {
		src, err := openSerialSource(sniffPort, sniffBaud)
		if err != nil {
			return nil, "", err
		}
		return src, fmt.Sprintf("Serial: %s @ %d baud", sniffPort, sniffBaud), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}
