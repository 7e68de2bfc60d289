package lpphot

import (
	"errors"
	"io"
	"testing"
)

// mockTransport scripts the probe side of an exchange. Every Read consumes
// the next scripted response; the trace records writes and direction
// switching in call order.
type mockTransport struct {
	trace   []string
	writes  [][]byte
	reads   [][]byte
	recycle bool // re-queue consumed responses, for polling tests
}

func (m *mockTransport) Write(p []byte) (err error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	m.writes = append(m.writes, buf)
	m.trace = append(m.trace, "write "+string(p))
	return nil
}

func (m *mockTransport) Read(p []byte) error {
	m.trace = append(m.trace, "read")
	if len(m.reads) == 0 {
		return io.EOF
	}
	r := m.reads[0]
	m.reads = m.reads[1:]
	if m.recycle {
		m.reads = append(m.reads, r)
	}
	if len(r) != len(p) {
		return io.ErrUnexpectedEOF
	}
	copy(p, r)
	return nil
}

func (m *mockTransport) EnableTransmit() {
	m.trace = append(m.trace, "enable")
}

func (m *mockTransport) DisableTransmit() {
	m.trace = append(m.trace, "disable")
}

func (m *mockTransport) wrote(cmd string) bool {
	for _, w := range m.writes {
		if string(w) == cmd {
			return true
		}
	}
	return false
}

func testConfig() Config {
	return Config{Address: 1, BaudRate: Baud9600, Mode: Mode8N1, Range: RangeLow}
}

func TestProbeInitResetsMeasurements(t *testing.T) {
	probe := NewProbe(&mockTransport{})
	probe.Init(testConfig())
	if !probe.Configured() {
		t.Fatal("probe not configured after Init")
	}
	m := probe.Measurements()
	if m.TemperatureCelsius != 0 || m.TemperatureFahrenheit != 0 || m.Illuminance != 0 || m.AvgIlluminance != 0 {
		t.Errorf("measurements not zeroed: %+v", m)
	}
	if probe.Config() != testConfig() {
		t.Errorf("config not applied: %+v", probe.Config())
	}
}

func TestProbeReadTemperatureCelsius(t *testing.T) {
	mock := &mockTransport{reads: [][]byte{
		{0x01, 0x04, 0x02, 0x00, 0xC8, 0xB8, 0xA6}, // payload 200 -> 20.0 degrees
	}}
	probe := NewProbe(mock)
	probe.Init(testConfig())

	v, err := probe.ReadTemperatureCelsius()
	if err != nil {
		t.Fatalf("ReadTemperatureCelsius failed: %v", err)
	}
	assertFloatEqual(t, 20.0, v)

	expectedRequest := []byte{0x01, 0x04, 0x00, 0x00, 0x00, 0x01, 0x31, 0xCA}
	if len(mock.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(mock.writes))
	}
	assertBytesEqual(t, expectedRequest, mock.writes[0])
}

func TestProbeReadTemperatureFahrenheit(t *testing.T) {
	mock := &mockTransport{reads: [][]byte{
		{0x01, 0x04, 0x02, 0x01, 0x2C, 0xB9, 0x7D}, // payload 300 -> 30.0 degrees
	}}
	probe := NewProbe(mock)
	probe.Init(testConfig())

	v, err := probe.ReadTemperatureFahrenheit()
	if err != nil {
		t.Fatalf("ReadTemperatureFahrenheit failed: %v", err)
	}
	assertFloatEqual(t, 30.0, v)

	expectedRequest := []byte{0x01, 0x04, 0x00, 0x01, 0x00, 0x01, 0x60, 0x0A}
	assertBytesEqual(t, expectedRequest, mock.writes[0])
}

func TestProbeReadIlluminanceRangeScaling(t *testing.T) {
	response := []byte{0x01, 0x04, 0x02, 0x01, 0xF4, 0xB9, 0x27} // raw 500

	testCases := []struct {
		rng      Range
		expected uint32
	}{
		{RangeLow, 500},
		{RangeHigh, 5000},
	}
	for _, tc := range testCases {
		mock := &mockTransport{reads: [][]byte{response}}
		probe := NewProbe(mock)
		cfg := testConfig()
		cfg.Range = tc.rng
		probe.Init(cfg)

		v, err := probe.ReadIlluminance()
		if err != nil {
			t.Fatalf("ReadIlluminance (range %d) failed: %v", tc.rng, err)
		}
		if v != tc.expected {
			t.Errorf("range %d: got %d lux, expected %d", tc.rng, v, tc.expected)
		}
	}
}

func TestProbeReadUsesConfiguredAddress(t *testing.T) {
	mock := &mockTransport{reads: [][]byte{
		{0x02, 0x04, 0x02, 0x01, 0xF4, 0xFD, 0x27},
	}}
	probe := NewProbe(mock)
	cfg := testConfig()
	cfg.Address = 2
	probe.Init(cfg)

	if _, err := probe.ReadIlluminance(); err != nil {
		t.Fatalf("ReadIlluminance failed: %v", err)
	}
	if mock.writes[0][0] != 2 {
		t.Errorf("request addressed to slave %d, expected 2", mock.writes[0][0])
	}
}

func TestProbeReadCRCMismatch(t *testing.T) {
	corrupted := []byte{0x01, 0x04, 0x02, 0x00, 0xC8, 0xB8, 0xA7} // bad trailer
	mock := &mockTransport{reads: [][]byte{corrupted}}
	probe := NewProbe(mock)
	probe.Init(testConfig())

	_, err := probe.ReadTemperatureCelsius()
	if !errors.Is(err, ErrCRCMismatch) {
		t.Fatalf("expected ErrCRCMismatch, got %v", err)
	}
}

func TestProbeCompatReadsCollapseToZero(t *testing.T) {
	// The compatibility surface returns 0 on any failure, which is
	// indistinguishable from a legitimate zero reading.
	mock := &mockTransport{} // no scripted responses, reads fail
	probe := NewProbe(mock)
	probe.Init(testConfig())

	if v := probe.TemperatureCelsius(); v != 0 {
		t.Errorf("TemperatureCelsius on failure: got %v, expected 0", v)
	}
	if v := probe.TemperatureFahrenheit(); v != 0 {
		t.Errorf("TemperatureFahrenheit on failure: got %v, expected 0", v)
	}
	if v := probe.Illuminance(); v != 0 {
		t.Errorf("Illuminance on failure: got %v, expected 0", v)
	}
}

func TestProbeUpdateMeasurements(t *testing.T) {
	mock := &mockTransport{reads: [][]byte{
		{0x01, 0x04, 0x02, 0x00, 0xEA, 0x38, 0xBF}, // 234 -> 23.4 C
		{0x01, 0x04, 0x02, 0x02, 0xE5, 0x79, 0xDB}, // 741 -> 74.1 F
		{0x01, 0x04, 0x02, 0x01, 0xF4, 0xB9, 0x27}, // 500 lux
	}}
	probe := NewProbe(mock)
	probe.Init(testConfig())

	if err := probe.UpdateMeasurements(); err != nil {
		t.Fatalf("UpdateMeasurements failed: %v", err)
	}
	m := probe.Measurements()
	assertFloatEqual(t, 23.4, m.TemperatureCelsius)
	assertFloatEqual(t, 74.1, m.TemperatureFahrenheit)
	if m.Illuminance != 500 {
		t.Errorf("illuminance: got %d, expected 500", m.Illuminance)
	}
	if m.AvgIlluminance != 0 {
		t.Errorf("avg illuminance must stay 0, got %d", m.AvgIlluminance)
	}
}

func TestProbeUpdateMeasurementsZeroReading(t *testing.T) {
	// A decoded zero is reported as an error even though it may be a real
	// measurement. The conflation is part of the device contract.
	mock := &mockTransport{reads: [][]byte{
		{0x01, 0x04, 0x02, 0x00, 0xEA, 0x38, 0xBF}, // 23.4 C
		{0x01, 0x04, 0x02, 0x02, 0xE5, 0x79, 0xDB}, // 74.1 F
		{0x01, 0x04, 0x02, 0x00, 0x00, 0xB9, 0x30}, // 0 lux, valid CRC
	}}
	probe := NewProbe(mock)
	probe.Init(testConfig())

	if err := probe.UpdateMeasurements(); !errors.Is(err, ErrZeroReading) {
		t.Fatalf("expected ErrZeroReading, got %v", err)
	}
	// The non-zero readings are still cached.
	m := probe.Measurements()
	assertFloatEqual(t, 23.4, m.TemperatureCelsius)
	if m.Illuminance != 0 {
		t.Errorf("illuminance: got %d, expected 0", m.Illuminance)
	}
}

func TestProbeFactoryInit(t *testing.T) {
	mock := &mockTransport{reads: [][]byte{
		{0x07}, // RMA readback
		{0x01}, // RMB readback
		{0x02}, // RMP readback
	}}
	probe := NewProbe(mock)
	cfg := Config{Address: 7, BaudRate: Baud19200, Mode: Mode8E1, Range: RangeHigh}

	if err := probe.FactoryInit(cfg); err != nil {
		t.Fatalf("FactoryInit failed: %v", err)
	}
	if !probe.Configured() || probe.Config() != cfg {
		t.Errorf("configuration not committed: %+v", probe.Config())
	}

	// The first two writes carry no direction control; every later write
	// is wrapped in enable/disable. The device protocol requires exactly
	// this asymmetry.
	expectedTrace := []string{
		"write @",
		"write CAL USER ON",
		"enable", "write CMA007", "disable",
		"enable", "write CMB1", "disable",
		"enable", "write CMP2", "disable",
		"enable", "write RMA", "disable", "read",
		"enable", "write RMB", "disable", "read",
		"enable", "write RMP", "disable", "read",
	}
	if len(mock.trace) != len(expectedTrace) {
		t.Fatalf("trace length: got %d, expected %d\n%v", len(mock.trace), len(expectedTrace), mock.trace)
	}
	for i := range expectedTrace {
		if mock.trace[i] != expectedTrace[i] {
			t.Errorf("trace[%d]: got %q, expected %q", i, mock.trace[i], expectedTrace[i])
		}
	}
}

func TestProbeFactoryInitAddressMismatch(t *testing.T) {
	mock := &mockTransport{reads: [][]byte{
		{0x08}, // wrong address readback
	}}
	probe := NewProbe(mock)
	cfg := Config{Address: 7, BaudRate: Baud9600, Mode: Mode8N1, Range: RangeLow}

	err := probe.FactoryInit(cfg)
	var ve *VerifyError
	if !errors.As(err, &ve) {
		t.Fatalf("expected VerifyError, got %v", err)
	}
	if ve.Param != "address" || ve.Want != 7 || ve.Got != 8 {
		t.Errorf("unexpected VerifyError: %+v", ve)
	}
	// The failing check must stop the sequence before later readbacks.
	if mock.wrote(cmdReadBaud) || mock.wrote(cmdReadMode) {
		t.Error("verification continued past the failing address check")
	}
	// Commit-on-success-only: nothing is stored on failure.
	if probe.Configured() || probe.Config() != (Config{}) {
		t.Errorf("configuration committed despite verification failure: %+v", probe.Config())
	}
}

func TestProbeFactoryInitBaudMismatch(t *testing.T) {
	mock := &mockTransport{reads: [][]byte{
		{0x07}, // address ok
		{0x03}, // wrong baud readback
	}}
	probe := NewProbe(mock)
	cfg := Config{Address: 7, BaudRate: Baud19200, Mode: Mode8N1, Range: RangeLow}

	err := probe.FactoryInit(cfg)
	var ve *VerifyError
	if !errors.As(err, &ve) {
		t.Fatalf("expected VerifyError, got %v", err)
	}
	if ve.Param != "baud rate" {
		t.Errorf("unexpected parameter: %q", ve.Param)
	}
	if mock.wrote(cmdReadMode) {
		t.Error("verification continued past the failing baud check")
	}
}

func TestProbeFactoryInitRejectsInvalidConfig(t *testing.T) {
	mock := &mockTransport{}
	probe := NewProbe(mock)

	if err := probe.FactoryInit(Config{Address: 0}); err == nil {
		t.Fatal("invalid config accepted")
	}
	if len(mock.writes) != 0 {
		t.Error("traffic sent for invalid config")
	}
}
