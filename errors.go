package lpphot

import (
	"errors"
	"fmt"
)

var (
	// ErrCRCMismatch is returned when a response frame's CRC trailer does
	// not match the checksum recomputed over the frame body.
	ErrCRCMismatch = errors.New("lpphot: response CRC mismatch")

	// ErrResponseLength is returned when a response frame does not have
	// the fixed 7-byte layout the probe produces for register reads.
	ErrResponseLength = errors.New("lpphot: unexpected response length")

	// ErrZeroReading is returned by UpdateMeasurements when any of the
	// three readings is exactly zero. The device contract cannot tell a
	// failed read apart from a legitimately zero measurement, so both
	// collapse into this error.
	ErrZeroReading = errors.New("lpphot: zero reading (failed read or measured zero)")
)

// VerifyError reports a factory-configuration readback that disagrees with
// the requested value. Param is one of "address", "baud rate" or
// "framing mode".
type VerifyError struct {
	Param string
	Want  uint8
	Got   uint8
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("lpphot: %s readback mismatch: want %d, got %d", e.Param, e.Want, e.Got)
}
