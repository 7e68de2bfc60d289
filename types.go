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

import "fmt"

// Register addresses of the probe's three input registers.
const (
	RegTemperatureCelsius    = 0x00
	RegTemperatureFahrenheit = 0x01
	RegIlluminance           = 0x02
)

// Baud identifies one of the serial speeds the probe accepts. The numeric
// value of each constant is the code the device expects in the CMB
// configuration command, so the ordering must not change.
type Baud uint8

const (
	Baud9600 Baud = iota
	Baud19200
	Baud38400
	Baud57600
	Baud115200
)

// Value returns the baud rate in bits per second, or 0 for an unknown code.
func (b Baud) Value() int {
	switch b {
	case Baud9600:
		return 9600
	case Baud19200:
		return 19200
	case Baud38400:
		return 38400
	case Baud57600:
		return 57600
	case Baud115200:
		return 115200
	default:
		return 0
	}
}

// BaudFromValue maps a bits-per-second figure to its device code.
func BaudFromValue(v int) (Baud, error) {
	switch v {
	case 9600:
		return Baud9600, nil
	case 19200:
		return Baud19200, nil
	case 38400:
		return Baud38400, nil
	case 57600:
		return Baud57600, nil
	case 115200:
		return Baud115200, nil
	default:
		return 0, fmt.Errorf("lpphot: unsupported baud rate: %d", v)
	}
}

// FramingMode identifies the UART parity/stop-bit combination. The numeric
// value is the code the device expects in the CMP configuration command.
type FramingMode uint8

const (
	Mode8N1 FramingMode = iota
	Mode8N2
	Mode8E1
	Mode8E2
	Mode8O1
	Mode8O2
	// ModeReserved is accepted by the configuration protocol but not
	// documented for this probe model.
	ModeReserved
)

// Parity returns the parity letter ("N", "E" or "O") for the mode.
func (m FramingMode) Parity() string {
	switch m {
	case Mode8E1, Mode8E2:
		return "E"
	case Mode8O1, Mode8O2:
		return "O"
	default:
		return "N"
	}
}

// StopBits returns the number of stop bits for the mode.
func (m FramingMode) StopBits() int {
	switch m {
	case Mode8N2, Mode8E2, Mode8O2:
		return 2
	default:
		return 1
	}
}

// FramingFromString parses a "8N1"-style framing label.
func FramingFromString(s string) (FramingMode, error) {
	switch s {
	case "8N1":
		return Mode8N1, nil
	case "8N2":
		return Mode8N2, nil
	case "8E1":
		return Mode8E1, nil
	case "8E2":
		return Mode8E2, nil
	case "8O1":
		return Mode8O1, nil
	case "8O2":
		return Mode8O2, nil
	default:
		return 0, fmt.Errorf("lpphot: unsupported framing mode: %q", s)
	}
}

// Range selects the photometric measurement range.
// RangeLow covers 0-20000 Lux at 1 Lux resolution, RangeHigh covers
// 0-200000 Lux at 10 Lux resolution.
type Range uint8

const (
	RangeLow Range = iota
	RangeHigh
)

// Scale returns the Lux-per-register-unit multiplier for the range.
func (r Range) Scale() uint32 {
	if r == RangeHigh {
		return 10
	}
	return 1
}

// RangeFromString parses a "low"/"high" range label.
func RangeFromString(s string) (Range, error) {
	switch s {
	case "low":
		return RangeLow, nil
	case "high":
		return RangeHigh, nil
	default:
		return 0, fmt.Errorf("lpphot: unsupported range: %q", s)
	}
}

// Config holds the probe's bus parameters. A Config is applied wholesale by
// Init or FactoryInit and never mutated afterwards.
type Config struct {
	Address  uint8       // Modbus slave address, 1-247
	BaudRate Baud        // serial speed code
	Mode     FramingMode // parity/stop-bit code
	Range    Range       // photometric range
}

// Validate checks that every field carries a code the device accepts.
func (c Config) Validate() error {
	if c.Address < 1 || c.Address > 247 {
		return fmt.Errorf("lpphot: invalid slave address: %d (must be 1-247)", c.Address)
	}
	if c.BaudRate.Value() == 0 {
		return fmt.Errorf("lpphot: invalid baud rate code: %d", c.BaudRate)
	}
	if c.Mode > ModeReserved {
		return fmt.Errorf("lpphot: invalid framing mode code: %d", c.Mode)
	}
	if c.Range != RangeLow && c.Range != RangeHigh {
		return fmt.Errorf("lpphot: invalid range code: %d", c.Range)
	}
	return nil
}

// Measurements is a snapshot of the probe's cached readings.
type Measurements struct {
	TemperatureCelsius    float64 `json:"temperatureCelsius"`
	TemperatureFahrenheit float64 `json:"temperatureFahrenheit"`
	Illuminance           uint32  `json:"illuminance"`
	// AvgIlluminance is reserved by the device register map and is never
	// computed by this driver. It always reads zero.
	AvgIlluminance uint32 `json:"avgIlluminance"`
}
