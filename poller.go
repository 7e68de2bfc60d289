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
	"sync"
	"sync/atomic"
	"time"
)

// OnDataFunc is a callback type for pushing measurement snapshots.
type OnDataFunc func(Measurements)

// OnErrorFunc is a callback type for error reporting.
type OnErrorFunc func(error)

// MeasurementPoller runs UpdateMeasurements at a fixed interval and
// dispatches results through callbacks. It owns the bus while running: the
// probe must not be read from elsewhere between Start and Stop, since the
// RS485 link allows one exchange in flight at a time.
type MeasurementPoller struct {
	probe    *Probe
	interval time.Duration
	onData   atomic.Value // Stores OnDataFunc callback
	onError  atomic.Value // Stores OnErrorFunc callback
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewMeasurementPoller creates a poller over an initialized probe session.
func NewMeasurementPoller(probe *Probe, interval time.Duration) *MeasurementPoller {
	return &MeasurementPoller{
		probe:    probe,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// SetOnData sets the callback for measurement snapshots.
func (mp *MeasurementPoller) SetOnData(fn OnDataFunc) {
	mp.onData.Store(fn)
}

// SetOnError sets the callback for poll errors.
func (mp *MeasurementPoller) SetOnError(fn OnErrorFunc) {
	mp.onError.Store(fn)
}

// Start launches the polling goroutine.
func (mp *MeasurementPoller) Start() {
	mp.wg.Add(1)
	go mp.poll()
}

// poll is the polling loop.
func (mp *MeasurementPoller) poll() {
	defer mp.wg.Done()
	ticker := time.NewTicker(mp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-mp.stopCh:
			return
		case <-ticker.C:
			mp.pollOnce()
		}
	}
}

// pollOnce performs a single update and dispatches the result.
func (mp *MeasurementPoller) pollOnce() {
	if err := mp.probe.UpdateMeasurements(); err != nil {
		if cb := mp.onError.Load(); cb != nil {
			cb.(OnErrorFunc)(err)
		}
		return
	}
	if cb := mp.onData.Load(); cb != nil {
		cb.(OnDataFunc)(mp.probe.Measurements())
	}
}

// Stop stops the polling loop and waits for it to exit.
func (mp *MeasurementPoller) Stop() {
	close(mp.stopCh)
	mp.wg.Wait()
}
