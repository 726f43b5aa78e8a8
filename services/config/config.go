// Package config loads the host configuration from YAML with environment
// overrides of the form USRPHOST_SECTION_KEY.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"usrphost-go/types"
)

type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Device     DeviceConfig     `yaml:"device"`
	Sync       SyncConfig       `yaml:"sync"`
	Tolerances TolerancesConfig `yaml:"tolerances"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
	Output string `yaml:"output"` // stderr | stdout
}

// DeviceConfig describes the (simulated) multi-board device.
type DeviceConfig struct {
	Name    string         `yaml:"name"`
	Mboards []MboardConfig `yaml:"mboards"`
}

type MboardConfig struct {
	Name            string  `yaml:"name"`
	MasterClockRate float64 `yaml:"master_clock_rate"`
	// Dboard ids as hex strings ("0x0001"). Empty means an unprogrammed
	// EEPROM.
	RxDboardID   string `yaml:"rx_dboard_id"`
	TxDboardID   string `yaml:"tx_dboard_id"`
	RxSubdevSpec string `yaml:"rx_subdev_spec"`
	TxSubdevSpec string `yaml:"tx_subdev_spec"`
	// TimeOffset starts this board's counter TimeOffset seconds away
	// from wall time, as an unsynchronized board would be.
	TimeOffset float64 `yaml:"time_offset"`
}

type SyncConfig struct {
	PPSTimeout   time.Duration `yaml:"pps_timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Settle       time.Duration `yaml:"settle"`
	Tolerance    time.Duration `yaml:"tolerance"`
	NoPPS        bool          `yaml:"no_pps"`
	// MonitorInterval is the period of the background sync check; zero
	// disables it.
	MonitorInterval time.Duration `yaml:"monitor_interval"`
}

type TolerancesConfig struct {
	RateSps float64 `yaml:"rate_sps"`
	FreqHz  float64 `yaml:"freq_hz"`
}

// Load reads, overrides and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes data over the defaults, applies environment overrides and
// validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a single basic-board device with stock sync timing.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Device: DeviceConfig{
			Name: "usrp-sim",
			Mboards: []MboardConfig{{
				Name:            "sim-0",
				MasterClockRate: 64e6,
				RxDboardID:      "0x0001",
				TxDboardID:      "0x0000",
				RxSubdevSpec:    "A:a",
				TxSubdevSpec:    "A:",
			}},
		},
		Sync: SyncConfig{
			PPSTimeout:      1100 * time.Millisecond,
			PollInterval:    time.Millisecond,
			Settle:          time.Second,
			Tolerance:       10 * time.Millisecond,
			MonitorInterval: time.Second,
		},
		Tolerances: TolerancesConfig{
			RateSps: 1,
			FreqHz:  1,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("USRPHOST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("USRPHOST_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("USRPHOST_DEVICE_NAME"); v != "" {
		cfg.Device.Name = v
	}
	for env, dst := range map[string]*time.Duration{
		"USRPHOST_SYNC_PPS_TIMEOUT": &cfg.Sync.PPSTimeout,
		"USRPHOST_SYNC_TOLERANCE":   &cfg.Sync.Tolerance,
		"USRPHOST_SYNC_SETTLE":      &cfg.Sync.Settle,
		"USRPHOST_SYNC_MONITOR":     &cfg.Sync.MonitorInterval,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		*dst = d
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if len(c.Device.Mboards) == 0 {
		errs = append(errs, "device.mboards must not be empty")
	}
	for i, mb := range c.Device.Mboards {
		p := fmt.Sprintf("device.mboards[%d]", i)
		if mb.MasterClockRate <= 0 {
			errs = append(errs, p+".master_clock_rate must be positive")
		}
		for _, f := range []struct{ name, v string }{
			{"rx_dboard_id", mb.RxDboardID},
			{"tx_dboard_id", mb.TxDboardID},
		} {
			if _, err := ParseDboardID(f.v); err != nil {
				errs = append(errs, fmt.Sprintf("%s.%s: %v", p, f.name, err))
			}
		}
		for _, f := range []struct{ name, v string }{
			{"rx_subdev_spec", mb.RxSubdevSpec},
			{"tx_subdev_spec", mb.TxSubdevSpec},
		} {
			if _, err := types.ParseSubdevSpec(f.v); err != nil {
				errs = append(errs, fmt.Sprintf("%s.%s: %v", p, f.name, err))
			}
		}
	}
	if c.Sync.PPSTimeout <= 0 {
		errs = append(errs, "sync.pps_timeout must be positive")
	}
	if c.Sync.PollInterval <= 0 {
		errs = append(errs, "sync.poll_interval must be positive")
	}
	if c.Sync.Settle < 0 || c.Sync.Tolerance < 0 || c.Sync.MonitorInterval < 0 {
		errs = append(errs, "sync durations must not be negative")
	}
	if c.Tolerances.RateSps < 0 || c.Tolerances.FreqHz < 0 {
		errs = append(errs, "tolerances must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParseDboardID parses a 16-bit id in any Go integer syntax. The empty
// string is the unprogrammed id 0xffff.
func ParseDboardID(s string) (uint16, error) {
	if strings.TrimSpace(s) == "" {
		return 0xffff, nil
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("bad dboard id %q", s)
	}
	return uint16(v), nil
}
