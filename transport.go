// Copyright (C) 2024  wwhai
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, see <https://www.gnu.org/licenses/>.

package lpphot

import (
	"fmt"
	"io"
	"sync"
)

// Transport carries bytes to and from the probe and switches the RS485
// transceiver direction. All calls are synchronous: Write returns once every
// byte has been handed to the link, Read blocks until len(p) bytes arrived or
// the transport's own timeout expired. The driver performs exactly one
// attempt per call; timeouts and retries belong to the Transport
// implementation, not to the driver.
type Transport interface {
	Write(p []byte) error
	Read(p []byte) error
	EnableTransmit()
	DisableTransmit()
}

// TransportFuncs adapts four plain functions to the Transport interface,
// for applications that already route UART and DE-pin access through
// callbacks. Nil direction hooks are treated as no-ops.
type TransportFuncs struct {
	WriteFunc           func(p []byte) error
	ReadFunc            func(p []byte) error
	EnableTransmitFunc  func()
	DisableTransmitFunc func()
}

func (t *TransportFuncs) Write(p []byte) error {
	if t.WriteFunc == nil {
		return fmt.Errorf("lpphot: transport has no write function")
	}
	return t.WriteFunc(p)
}

func (t *TransportFuncs) Read(p []byte) error {
	if t.ReadFunc == nil {
		return fmt.Errorf("lpphot: transport has no read function")
	}
	return t.ReadFunc(p)
}

func (t *TransportFuncs) EnableTransmit() {
	if t.EnableTransmitFunc != nil {
		t.EnableTransmitFunc()
	}
}

func (t *TransportFuncs) DisableTransmit() {
	if t.DisableTransmitFunc != nil {
		t.DisableTransmitFunc()
	}
}

// DirectionController drives the RS485 driver-enable line. Transceivers with
// automatic direction switching do not need one.
type DirectionController interface {
	EnableTransmit()
	DisableTransmit()
}

// SerialTransport implements Transport on top of an opened serial port,
// typically a goserial port. An optional DirectionController toggles the
// DE pin around each transmission.
type SerialTransport struct {
	port io.ReadWriteCloser
	dir  DirectionController
	mu   sync.Mutex
}

// NewSerialTransport wraps port as a Transport. dir may be nil.
func NewSerialTransport(port io.ReadWriteCloser, dir DirectionController) *SerialTransport {
	return &SerialTransport{port: port, dir: dir}
}

// Write transmits all of p, looping over short writes.
func (t *SerialTransport) Write(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(p) == 0 {
		return fmt.Errorf("lpphot: cannot write empty data")
	}
	written := 0
	for written < len(p) {
		n, err := t.port.Write(p[written:])
		if err != nil {
			return fmt.Errorf("lpphot: serial write failed after %d bytes: %w", written, err)
		}
		written += n
	}
	return nil
}

// Read blocks until exactly len(p) bytes have been received.
func (t *SerialTransport) Read(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.ReadFull(t.port, p); err != nil {
		return fmt.Errorf("lpphot: serial read failed: %w", err)
	}
	return nil
}

func (t *SerialTransport) EnableTransmit() {
	if t.dir != nil {
		t.dir.EnableTransmit()
	}
}

func (t *SerialTransport) DisableTransmit() {
	if t.dir != nil {
		t.dir.DisableTransmit()
	}
}

// Close closes the underlying serial port.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}
