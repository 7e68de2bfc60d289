package lpphot

import (
	"fmt"
	"io"
)

// Factory configuration command strings. These are the probe's vendor ASCII
// protocol, not Modbus frames.
const (
	cmdEnterConfig = "@"
	cmdCalUserOn   = "CAL USER ON"
	cmdSetAddress  = "CMA%03d"
	cmdSetBaud     = "CMB%d"
	cmdSetMode     = "CMP%d"
	cmdReadAddress = "RMA"
	cmdReadBaud    = "RMB"
	cmdReadMode    = "RMP"
)

// Probe is a session with one LPPHOT03 photometric probe on a half-duplex
// RS485 link. It owns no I/O itself; every byte goes through the injected
// Transport. A Probe is not safe for concurrent use, and because the bus is
// single-master, callers sharing one link between several bus users must
// serialize access externally.
type Probe struct {
	transport Transport
	packager  *FramePackager
	logger    io.Writer

	cfg        Config
	configured bool

	temperatureCelsius    float64
	temperatureFahrenheit float64
	illuminance           uint32
	avgIlluminance        uint32
}

// NewProbe creates a session bound to the given transport. The session must
// be initialized with Init or FactoryInit before any read.
func NewProbe(transport Transport) *Probe {
	return &Probe{
		transport: transport,
		packager:  NewFramePackager(),
	}
}

// SetLogger sets the logger for frame traffic and error diagnostics.
func (p *Probe) SetLogger(logger io.Writer) {
	p.logger = logger
}

// Config returns the configuration currently applied to the session.
func (p *Probe) Config() Config {
	return p.cfg
}

// Configured reports whether Init or FactoryInit has completed.
func (p *Probe) Configured() bool {
	return p.configured
}

// Init resets the cached measurements and applies cfg without touching the
// device. Use it on every attach to a probe that was factory-configured in
// an earlier power cycle; the device keeps its parameters in its own
// non-volatile memory.
func (p *Probe) Init(cfg Config) {
	p.temperatureCelsius = 0
	p.temperatureFahrenheit = 0
	p.illuminance = 0
	p.avgIlluminance = 0
	p.cfg = cfg
	p.configured = true
}

// FactoryInit programs address, baud rate and framing mode into the device
// over its ASCII configuration protocol and verifies each parameter by
// reading it back. It is meant to run once, on a device fresh out of the
// box. The configuration is committed to the session only after all three
// readbacks match.
func (p *Probe) FactoryInit(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The mode-entry writes are sent without direction control. The vendor
	// protocol expects them that way; wrapping them breaks configuration
	// on real hardware.
	if err := p.write([]byte(cmdEnterConfig)); err != nil {
		return fmt.Errorf("lpphot: enter configuration mode: %w", err)
	}
	if err := p.write([]byte(cmdCalUserOn)); err != nil {
		return fmt.Errorf("lpphot: enable user calibration: %w", err)
	}

	if err := p.writeDirected([]byte(fmt.Sprintf(cmdSetAddress, cfg.Address))); err != nil {
		return fmt.Errorf("lpphot: set address: %w", err)
	}
	if err := p.writeDirected([]byte(fmt.Sprintf(cmdSetBaud, cfg.BaudRate))); err != nil {
		return fmt.Errorf("lpphot: set baud rate: %w", err)
	}
	if err := p.writeDirected([]byte(fmt.Sprintf(cmdSetMode, cfg.Mode))); err != nil {
		return fmt.Errorf("lpphot: set framing mode: %w", err)
	}

	// Readback order matters: address, then baud, then mode. The first
	// mismatch aborts before the next readback command is issued.
	if err := p.verifyParam(cmdReadAddress, "address", cfg.Address); err != nil {
		return err
	}
	if err := p.verifyParam(cmdReadBaud, "baud rate", uint8(cfg.BaudRate)); err != nil {
		return err
	}
	if err := p.verifyParam(cmdReadMode, "framing mode", uint8(cfg.Mode)); err != nil {
		return err
	}

	p.cfg = cfg
	p.configured = true
	if p.logger != nil {
		fmt.Fprintf(p.logger, "lpphot: factory configuration verified: address=%d baud=%d mode=%d\n",
			cfg.Address, cfg.BaudRate.Value(), cfg.Mode)
	}
	return nil
}

// verifyParam sends a readback command and compares the single response byte
// against the requested value.
func (p *Probe) verifyParam(cmd, param string, want uint8) error {
	if err := p.writeDirected([]byte(cmd)); err != nil {
		return fmt.Errorf("lpphot: %s readback request: %w", param, err)
	}
	var rsp [1]byte
	if err := p.transport.Read(rsp[:]); err != nil {
		return fmt.Errorf("lpphot: %s readback: %w", param, err)
	}
	if rsp[0] != want {
		err := &VerifyError{Param: param, Want: want, Got: rsp[0]}
		if p.logger != nil {
			fmt.Fprintf(p.logger, "lpphot: Error: %v\n", err)
		}
		return err
	}
	return nil
}

func (p *Probe) write(data []byte) error {
	return p.transport.Write(data)
}

// writeDirected wraps one transmission in driver-enable assert/deassert.
func (p *Probe) writeDirected(data []byte) error {
	p.transport.EnableTransmit()
	err := p.transport.Write(data)
	p.transport.DisableTransmit()
	return err
}

// readRegister performs one request/response exchange for a single input
// register and returns the validated 7-byte response frame.
func (p *Probe) readRegister(register byte) ([]byte, error) {
	frame := p.packager.PackReadRequest(p.cfg.Address, register)
	if p.logger != nil {
		fmt.Fprintf(p.logger, "lpphot: Sending request to slave %d, register %02X: % X\n",
			p.cfg.Address, register, frame)
	}
	if err := p.writeDirected(frame); err != nil {
		return nil, fmt.Errorf("lpphot: request for register %02X: %w", register, err)
	}
	rsp := make([]byte, ResponseFrameLen)
	if err := p.transport.Read(rsp); err != nil {
		return nil, fmt.Errorf("lpphot: response for register %02X: %w", register, err)
	}
	if err := p.packager.ValidateResponse(rsp); err != nil {
		if p.logger != nil {
			fmt.Fprintf(p.logger, "lpphot: Error: invalid response for register %02X: %v\n", register, err)
		}
		return nil, err
	}
	if p.logger != nil {
		fmt.Fprintf(p.logger, "lpphot: Received response for register %02X: % X\n", register, rsp)
	}
	return rsp, nil
}

// readTemperature reads one of the two temperature registers. The register
// holds tenths of a degree.
func (p *Probe) readTemperature(register byte) (float64, error) {
	rsp, err := p.readRegister(register)
	if err != nil {
		return 0, err
	}
	return float64(p.packager.DecodeRegister(rsp)) / 10, nil
}

// ReadTemperatureCelsius reads the probe's internal temperature in degrees
// Celsius, 0.1 degree resolution.
func (p *Probe) ReadTemperatureCelsius() (float64, error) {
	return p.readTemperature(RegTemperatureCelsius)
}

// ReadTemperatureFahrenheit reads the probe's internal temperature in
// degrees Fahrenheit, 0.1 degree resolution.
func (p *Probe) ReadTemperatureFahrenheit() (float64, error) {
	return p.readTemperature(RegTemperatureFahrenheit)
}

// ReadIlluminance reads the illuminance register and scales it to Lux
// according to the configured range.
func (p *Probe) ReadIlluminance() (uint32, error) {
	rsp, err := p.readRegister(RegIlluminance)
	if err != nil {
		return 0, err
	}
	return uint32(p.packager.DecodeRegister(rsp)) * p.cfg.Range.Scale(), nil
}

// TemperatureCelsius is the compatibility form of ReadTemperatureCelsius:
// any failure collapses to 0, indistinguishable from a reading of zero.
func (p *Probe) TemperatureCelsius() float64 {
	v, err := p.ReadTemperatureCelsius()
	if err != nil {
		return 0
	}
	return v
}

// TemperatureFahrenheit is the compatibility form of
// ReadTemperatureFahrenheit; failures collapse to 0.
func (p *Probe) TemperatureFahrenheit() float64 {
	v, err := p.ReadTemperatureFahrenheit()
	if err != nil {
		return 0
	}
	return v
}

// Illuminance is the compatibility form of ReadIlluminance; failures
// collapse to 0.
func (p *Probe) Illuminance() uint32 {
	v, err := p.ReadIlluminance()
	if err != nil {
		return 0
	}
	return v
}

// UpdateMeasurements reads all three registers in order (Celsius,
// Fahrenheit, illuminance) and stores the results in the session cache.
// It returns ErrZeroReading if any stored value is exactly zero. A zero can
// be a failed read or a true zero measurement; the device contract does not
// distinguish the two, and this method deliberately preserves that
// conflation.
func (p *Probe) UpdateMeasurements() error {
	p.temperatureCelsius = p.TemperatureCelsius()
	p.temperatureFahrenheit = p.TemperatureFahrenheit()
	p.illuminance = p.Illuminance()
	if p.temperatureCelsius == 0 || p.temperatureFahrenheit == 0 || p.illuminance == 0 {
		return ErrZeroReading
	}
	return nil
}

// Measurements returns a snapshot of the cached readings populated by
// UpdateMeasurements.
func (p *Probe) Measurements() Measurements {
	return Measurements{
		TemperatureCelsius:    p.temperatureCelsius,
		TemperatureFahrenheit: p.temperatureFahrenheit,
		Illuminance:           p.illuminance,
		AvgIlluminance:        p.avgIlluminance,
	}
}
