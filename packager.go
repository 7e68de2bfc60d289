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
	"encoding/binary"
	"fmt"
)

// Modbus function code used for every measurement read.
const funcReadInputRegister = 0x04

// Fixed frame sizes for single-register reads: 6 request bytes plus CRC,
// 5 response bytes plus CRC.
const (
	RequestFrameLen  = 8
	ResponseFrameLen = 7
)

// Offsets of the register payload inside a response frame.
const (
	payloadHighOffset = 3
	payloadLowOffset  = 4
)

// FramePackager builds request frames and validates response frames for the
// probe's single-register reads.
type FramePackager struct {
	crcTable [256]uint16 // Pre-calculated CRC table for faster computation
}

// NewFramePackager creates a packager with a pre-calculated CRC table.
func NewFramePackager() *FramePackager {
	p := &FramePackager{}
	p.initCRCTable()
	return p
}

// initCRCTable initializes the CRC-16 lookup table (polynomial 0xA001).
func (p *FramePackager) initCRCTable() {
	const polynomial = 0xA001
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ polynomial
			} else {
				crc >>= 1
			}
		}
		p.crcTable[i] = crc
	}
}

// calculateCRC calculates CRC-16 for the given data using the lookup table.
// Equivalent to the bitwise CRC16 function; the tests cross-check them.
func (p *FramePackager) calculateCRC(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		tableIndex := uint8(crc) ^ b
		crc = (crc >> 8) ^ p.crcTable[tableIndex]
	}
	return crc
}

// PackReadRequest builds the 8-byte read frame for one input register:
// address, function code 0x04, register (2 bytes), quantity 1 (2 bytes),
// CRC low byte, CRC high byte.
func (p *FramePackager) PackReadRequest(address, register byte) []byte {
	frame := make([]byte, RequestFrameLen)
	frame[0] = address
	frame[1] = funcReadInputRegister
	frame[2] = 0x00
	frame[3] = register
	frame[4] = 0x00
	frame[5] = 0x01
	crc := p.calculateCRC(frame[:RequestFrameLen-2])
	frame[6] = byte(crc & 0xFF)
	frame[7] = byte(crc >> 8)
	return frame
}

// VerifyCRC recomputes the checksum over the frame body and compares it
// against the two trailing bytes (low byte first).
func (p *FramePackager) VerifyCRC(frame []byte) bool {
	if len(frame) < 4 {
		return false
	}
	dataLen := len(frame) - 2
	calculated := p.calculateCRC(frame[:dataLen])
	received := uint16(frame[dataLen]) | uint16(frame[dataLen+1])<<8
	return calculated == received
}

// ValidateResponse checks a register-read response frame. Only the length
// and the CRC trailer are verified; the probe answers fixed-length frames,
// and the function code and byte count fields are not inspected.
func (p *FramePackager) ValidateResponse(frame []byte) error {
	if len(frame) != ResponseFrameLen {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrResponseLength, len(frame), ResponseFrameLen)
	}
	if !p.VerifyCRC(frame) {
		dataLen := len(frame) - 2
		calculated := p.calculateCRC(frame[:dataLen])
		received := uint16(frame[dataLen]) | uint16(frame[dataLen+1])<<8
		return fmt.Errorf("%w: calculated=0x%04X, received=0x%04X", ErrCRCMismatch, calculated, received)
	}
	return nil
}

// DecodeRegister extracts the 16-bit register payload from a validated
// response frame, big-endian at offsets 3 and 4.
func (p *FramePackager) DecodeRegister(frame []byte) uint16 {
	return binary.BigEndian.Uint16(frame[payloadHighOffset : payloadLowOffset+1])
}

// CRCBytes returns the wire-order checksum trailer for data.
func (p *FramePackager) CRCBytes(data []byte) (lo, hi byte) {
	crc := p.calculateCRC(data)
	return byte(crc & 0xFF), byte(crc >> 8)
}
