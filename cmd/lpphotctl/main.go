package main

import (
	"log"
	"os"
	"os/signal"
	"time"

	serial "github.com/hootrhino/goserial"

	"github.com/iotdevlab/lpphot"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: lpphotctl <config.yaml>")
	}

	cfg, err := lpphot.LoadFileConfig(os.Args[1])
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	probeCfg, err := cfg.ProbeSettings()
	if err != nil {
		log.Fatalf("probe settings: %v", err)
	}

	port, err := serial.Open(&serial.Config{
		Address:  cfg.Port.Device,
		BaudRate: probeCfg.BaudRate.Value(),
		DataBits: 8,
		StopBits: probeCfg.Mode.StopBits(),
		Parity:   probeCfg.Mode.Parity(),
		Timeout:  time.Duration(cfg.Port.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("failed to open serial port %s: %v", cfg.Port.Device, err)
	}
	defer port.Close()

	// No DirectionController here: USB RS485 adapters switch direction in
	// hardware. Embedded targets with a DE pin supply their own.
	transport := lpphot.NewSerialTransport(port, nil)
	probe := lpphot.NewProbe(transport)
	probe.SetLogger(lpphot.NewSimpleLogger(os.Stdout, lpphot.LevelInfo, "lpphotctl"))

	if cfg.Probe.Factory {
		if err := probe.FactoryInit(probeCfg); err != nil {
			log.Fatalf("factory configuration failed: %v", err)
		}
		log.Printf("probe configured: address=%d baud=%d framing=%s",
			probeCfg.Address, probeCfg.BaudRate.Value(), cfg.Probe.Framing)
		return
	}

	probe.Init(probeCfg)

	interval := time.Duration(cfg.Poll.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}

	poller := lpphot.NewMeasurementPoller(probe, interval)
	poller.SetOnData(func(m lpphot.Measurements) {
		log.Printf("temperature=%.1fC/%.1fF illuminance=%d lux",
			m.TemperatureCelsius, m.TemperatureFahrenheit, m.Illuminance)
	})
	poller.SetOnError(func(err error) {
		log.Printf("poll error: %v", err)
	})
	poller.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	poller.Stop()
}
