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
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration consumed by lpphotctl. The probe
// section uses human-readable values (baud in bit/s, framing as "8N1",
// range as "low"/"high"); ProbeSettings translates them into wire codes.
type FileConfig struct {
	Port  PortConfig  `yaml:"port"`
	Probe ProbeConfig `yaml:"probe"`
	Poll  PollConfig  `yaml:"poll"`
}

type PortConfig struct {
	Device    string `yaml:"device"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type ProbeConfig struct {
	Address uint8  `yaml:"address"`
	Baud    int    `yaml:"baud"`
	Framing string `yaml:"framing"`
	Range   string `yaml:"range"`
	// Factory selects the one-time factory configuration path instead of
	// a normal attach. Only set it for a device fresh out of the box.
	Factory bool `yaml:"factory"`
}

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// LoadFileConfig reads and parses a YAML configuration file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lpphot: read config: %w", err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("lpphot: parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration correctness. It does not mutate the
// configuration.
func (c *FileConfig) Validate() error {
	if c.Port.Device == "" {
		return fmt.Errorf("lpphot: config: port.device is required")
	}
	if c.Port.TimeoutMs < 0 {
		return fmt.Errorf("lpphot: config: port.timeout_ms must not be negative")
	}
	if _, err := c.ProbeSettings(); err != nil {
		return err
	}
	if c.Poll.IntervalMs < 0 {
		return fmt.Errorf("lpphot: config: poll.interval_ms must not be negative")
	}
	return nil
}

// ProbeSettings converts the probe section into a wire-level Config.
func (c *FileConfig) ProbeSettings() (Config, error) {
	baud, err := BaudFromValue(c.Probe.Baud)
	if err != nil {
		return Config{}, err
	}
	mode, err := FramingFromString(c.Probe.Framing)
	if err != nil {
		return Config{}, err
	}
	rng, err := RangeFromString(c.Probe.Range)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Address:  c.Probe.Address,
		BaudRate: baud,
		Mode:     mode,
		Range:    rng,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
