package lpphot

import (
	"errors"
	"testing"
	"time"
)

func TestMeasurementPollerDeliversData(t *testing.T) {
	mock := &mockTransport{
		recycle: true,
		reads: [][]byte{
			{0x01, 0x04, 0x02, 0x00, 0xEA, 0x38, 0xBF}, // 23.4 C
			{0x01, 0x04, 0x02, 0x02, 0xE5, 0x79, 0xDB}, // 74.1 F
			{0x01, 0x04, 0x02, 0x01, 0xF4, 0xB9, 0x27}, // 500 lux
		},
	}
	probe := NewProbe(mock)
	probe.Init(testConfig())

	dataCh := make(chan Measurements, 8)
	poller := NewMeasurementPoller(probe, 5*time.Millisecond)
	poller.SetOnData(func(m Measurements) { dataCh <- m })
	poller.SetOnError(func(err error) { t.Errorf("unexpected poll error: %v", err) })
	poller.Start()
	defer poller.Stop()

	select {
	case m := <-dataCh:
		assertFloatEqual(t, 23.4, m.TemperatureCelsius)
		assertFloatEqual(t, 74.1, m.TemperatureFahrenheit)
		if m.Illuminance != 500 {
			t.Errorf("illuminance: got %d, expected 500", m.Illuminance)
		}
	case <-time.After(time.Second):
		t.Fatal("no measurement delivered")
	}
}

func TestMeasurementPollerReportsErrors(t *testing.T) {
	mock := &mockTransport{
		recycle: true,
		reads: [][]byte{
			{0x01, 0x04, 0x02, 0x00, 0xEA, 0x38, 0xBF}, // 23.4 C
			{0x01, 0x04, 0x02, 0x02, 0xE5, 0x79, 0xDB}, // 74.1 F
			{0x01, 0x04, 0x02, 0x00, 0x00, 0xB9, 0x30}, // 0 lux
		},
	}
	probe := NewProbe(mock)
	probe.Init(testConfig())

	errCh := make(chan error, 8)
	poller := NewMeasurementPoller(probe, 5*time.Millisecond)
	poller.SetOnError(func(err error) { errCh <- err })
	poller.Start()
	defer poller.Stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrZeroReading) {
			t.Errorf("expected ErrZeroReading, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("no error delivered")
	}
}

func TestMeasurementPollerStop(t *testing.T) {
	mock := &mockTransport{
		recycle: true,
		reads: [][]byte{
			{0x01, 0x04, 0x02, 0x00, 0xEA, 0x38, 0xBF},
			{0x01, 0x04, 0x02, 0x02, 0xE5, 0x79, 0xDB},
			{0x01, 0x04, 0x02, 0x01, 0xF4, 0xB9, 0x27},
		},
	}
	probe := NewProbe(mock)
	probe.Init(testConfig())

	poller := NewMeasurementPoller(probe, 5*time.Millisecond)
	poller.Start()
	poller.Stop()

	// After Stop returns the polling goroutine is gone; the transport must
	// see no further traffic.
	writes := len(mock.writes)
	time.Sleep(20 * time.Millisecond)
	if len(mock.writes) != writes {
		t.Errorf("traffic after Stop: %d writes, expected %d", len(mock.writes), writes)
	}
}
