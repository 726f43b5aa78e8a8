package config

import (
	"usrphost-go/bus"
)

const configPrefix = "config"

// Publish puts each section of cfg on the bus as a retained message under
// config/<section>. Late subscribers see the current values.
func Publish(conn *bus.Connection, cfg *Config) {
	for k, v := range map[string]any{
		"logging":    cfg.Logging,
		"device":     cfg.Device,
		"sync":       cfg.Sync,
		"tolerances": cfg.Tolerances,
	} {
		conn.Publish(conn.Bus().NewMessage(bus.T(configPrefix, k), v, true))
	}
}
